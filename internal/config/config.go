package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/pkg/util"
)

// Default upstream endpoints and identifiers.
const (
	DefaultSessionsURL      = "https://public-ubiservices.ubi.com/v3/profiles/sessions"
	DefaultCoreTokenURL     = "https://prod.trackmania.core.nadeo.online/v2/authentication/token/ubiservices"
	DefaultAudienceTokenURL = "https://prod.trackmania.core.nadeo.online/v2/authentication/token/nadeoservices"
	DefaultLeaderboardURL   = "https://live-services.trackmania.nadeo.live/api/token/leaderboard/group/Personal_Best/map/ZJw6_4CItmVlRMPgELl4Q37Utw2/top?onlyWorld=true&length=10&offset=50"
	DefaultAppID            = "86263886-327a-4328-ac69-527f0d20a237"
	DefaultPlatformType     = "uplay"
	DefaultAudience         = "NadeoLiveServices"
)

// Config aggregates runtime configuration for the acquirer.
type Config struct {
	App        AppConfig
	Credential CredentialConfig
	Endpoints  EndpointsConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Logger     LoggerConfig
	Stub       StubConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Version               string
	RequestTimeoutSeconds int
	OutputDir             string
	// DryRun sends every call to an in-process stub instead of the real services.
	DryRun bool
}

// CredentialConfig holds the account used for the identity stage and the
// audience requested at the last stage.
type CredentialConfig struct {
	Identifier  string
	Secret      string
	UsageReason string
	Audience    string
}

// EndpointsConfig lists the upstream URLs and fixed client identifiers.
type EndpointsConfig struct {
	SessionsURL      string
	CoreTokenURL     string
	AudienceTokenURL string
	LeaderboardURL   string
	AppID            string
	PlatformType     string
}

// RedisConfig holds Redis connection values. An empty Addr disables the sink.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	KeyPrefix       string
	TokenTTLSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN disables the ledger.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// StubConfig configures the local upstream stub server.
type StubConfig struct {
	Host          string
	Port          string
	SigningSecret string
	// FailStages rigs stages to fail, e.g. "live=500,verify=403".
	FailStages string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tokenchain"),
			Env:                   getEnv("APP_ENV", "development"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 5),
			OutputDir:             getEnv("OUTPUT_DIR", "."),
			DryRun:                getEnvAsBool("TOKENCHAIN_DRY_RUN", false),
		},
		Credential: CredentialConfig{
			Identifier:  os.Getenv("UBI_IDENTIFIER"),
			Secret:      os.Getenv("UBI_SECRET"),
			UsageReason: os.Getenv("UBI_USAGE_REASON"),
			Audience:    getEnv("NADEO_AUDIENCE", DefaultAudience),
		},
		Endpoints: EndpointsConfig{
			SessionsURL:      getEnv("UBI_SESSIONS_URL", DefaultSessionsURL),
			CoreTokenURL:     getEnv("NADEO_CORE_TOKEN_URL", DefaultCoreTokenURL),
			AudienceTokenURL: getEnv("NADEO_AUDIENCE_TOKEN_URL", DefaultAudienceTokenURL),
			LeaderboardURL:   getEnv("NADEO_LEADERBOARD_URL", DefaultLeaderboardURL),
			AppID:            getEnv("UBI_APP_ID", DefaultAppID),
			PlatformType:     getEnv("UBI_PLATFORM_TYPE", DefaultPlatformType),
		},
		Redis: RedisConfig{
			Addr:            os.Getenv("REDIS_ADDR"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			KeyPrefix:       getEnv("REDIS_KEY_PREFIX", "tokenchain"),
			TokenTTLSeconds: getEnvAsInt("REDIS_TOKEN_TTL_SECONDS", 3600),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 2)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Stub: StubConfig{
			Host:          getEnv("STUB_HOST", "127.0.0.1"),
			Port:          getEnv("STUB_PORT", "8089"),
			SigningSecret: getEnv("STUB_SIGNING_SECRET", "stub-secret"),
			FailStages:    os.Getenv("STUB_FAIL_STAGES"),
		},
	}

	return cfg, nil
}

// Validate checks the fields every run needs before any network call is made.
func (c *Config) Validate() error {
	required := map[string]string{
		"UBI_IDENTIFIER":           c.Credential.Identifier,
		"UBI_SECRET":               c.Credential.Secret,
		"NADEO_AUDIENCE":           c.Credential.Audience,
		"UBI_SESSIONS_URL":         c.Endpoints.SessionsURL,
		"NADEO_CORE_TOKEN_URL":     c.Endpoints.CoreTokenURL,
		"NADEO_AUDIENCE_TOKEN_URL": c.Endpoints.AudienceTokenURL,
		"NADEO_LEADERBOARD_URL":    c.Endpoints.LeaderboardURL,
		"OUTPUT_DIR":               c.App.OutputDir,
	}

	var missing []string
	for key, val := range required {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return util.NewValidationError("missing required configuration", map[string]any{
		"missing": missing,
	})
}

// Addr returns the stub server bind address.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// FailAt parses FailStages into a stage to status map.
func (s StubConfig) FailAt() (map[domain.Stage]int, error) {
	failAt := map[domain.Stage]int{}
	if strings.TrimSpace(s.FailStages) == "" {
		return failAt, nil
	}
	for _, item := range strings.Split(s.FailStages, ",") {
		name, rawStatus, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			return nil, fmt.Errorf("invalid STUB_FAIL_STAGES entry %q", item)
		}
		status, err := strconv.Atoi(rawStatus)
		if err != nil || status < 100 || status > 599 {
			return nil, fmt.Errorf("invalid status in STUB_FAIL_STAGES entry %q", item)
		}
		stage := domain.Stage(strings.TrimSpace(name))
		switch stage {
		case domain.StageTicket, domain.StageCore, domain.StageLive, domain.StageVerify:
		default:
			return nil, fmt.Errorf("unknown stage in STUB_FAIL_STAGES entry %q", item)
		}
		failAt[stage] = status
	}
	return failAt, nil
}

// RequestTimeout returns the configured per-call timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns how long payloads live in Redis.
func (r RedisConfig) TokenTTL() time.Duration {
	if r.TokenTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.TokenTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
