package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/pkg/util"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UBI_IDENTIFIER", "user@example.com")
	t.Setenv("UBI_SECRET", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSessionsURL, cfg.Endpoints.SessionsURL)
	assert.Equal(t, DefaultAppID, cfg.Endpoints.AppID)
	assert.Equal(t, "uplay", cfg.Endpoints.PlatformType)
	assert.Equal(t, "NadeoLiveServices", cfg.Credential.Audience)
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, ".", cfg.App.OutputDir)
	assert.False(t, cfg.App.DryRun)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NADEO_AUDIENCE", "NadeoClubServices")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "12")
	t.Setenv("TOKENCHAIN_DRY_RUN", "true")
	t.Setenv("REDIS_TOKEN_TTL_SECONDS", "60")
	t.Setenv("STUB_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "NadeoClubServices", cfg.Credential.Audience)
	assert.Equal(t, 12*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.App.DryRun)
	assert.Equal(t, time.Minute, cfg.Redis.TokenTTL())
	assert.Equal(t, "127.0.0.1:9999", cfg.Stub.Addr())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateListsMissingFields(t *testing.T) {
	cfg := &Config{
		App:        AppConfig{OutputDir: "."},
		Credential: CredentialConfig{Identifier: "  ", Audience: "NadeoLiveServices"},
		Endpoints: EndpointsConfig{
			SessionsURL:      DefaultSessionsURL,
			CoreTokenURL:     DefaultCoreTokenURL,
			AudienceTokenURL: DefaultAudienceTokenURL,
		},
	}

	err := cfg.Validate()
	require.Error(t, err)

	de := util.ToDomainError(err)
	assert.Equal(t, util.CodeValidationFailed, de.Code)
	assert.Equal(t, []string{"NADEO_LEADERBOARD_URL", "UBI_IDENTIFIER", "UBI_SECRET"}, de.Details["missing"])
}

func TestStubFailAt(t *testing.T) {
	failAt, err := StubConfig{FailStages: "live=500, verify=403"}.FailAt()
	require.NoError(t, err)
	assert.Equal(t, map[domain.Stage]int{domain.StageLive: 500, domain.StageVerify: 403}, failAt)

	empty, err := StubConfig{}.FailAt()
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"live", "live=abc", "live=42", "refresh=500"} {
		_, err := StubConfig{FailStages: bad}.FailAt()
		assert.Error(t, err, bad)
	}
}
