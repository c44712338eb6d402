package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tokenchain/internal/auth"
	"github.com/spec-kit/tokenchain/internal/client"
	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/internal/observability"
	"github.com/spec-kit/tokenchain/internal/persistence"
	"github.com/spec-kit/tokenchain/internal/service"
	"github.com/spec-kit/tokenchain/pkg/util"
)

const stubBase = "http://stub.local"

func stubConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		App: config.AppConfig{Name: "stub", OutputDir: t.TempDir(), RequestTimeoutSeconds: 5},
		Credential: config.CredentialConfig{
			Identifier:  "user@example.com",
			Secret:      "hunter2",
			UsageReason: "stub tests",
			Audience:    config.DefaultAudience,
		},
		Endpoints: config.EndpointsConfig{
			SessionsURL:      stubBase + "/v3/profiles/sessions",
			CoreTokenURL:     stubBase + "/v2/authentication/token/ubiservices",
			AudienceTokenURL: stubBase + "/v2/authentication/token/nadeoservices",
			LeaderboardURL:   stubBase + "/api/token/leaderboard/group/Personal_Best/map/ZJw6_4CItmVlRMPgELl4Q37Utw2/top?onlyWorld=true&length=10&offset=50",
			AppID:            config.DefaultAppID,
			PlatformType:     config.DefaultPlatformType,
		},
	}
}

func newStubChain(t *testing.T, cfg config.Config, failAt map[domain.Stage]int) (*service.TokenChainService, *client.Client) {
	t.Helper()
	hash, err := auth.HashSecret(cfg.Credential.Secret, bcrypt.MinCost)
	require.NoError(t, err)

	stub := service.NewStubService(service.StubDependencies{
		Account:       service.StubAccount{Identifier: cfg.Credential.Identifier, SecretHash: hash},
		AppID:         config.DefaultAppID,
		SigningSecret: "test-secret",
		TokenTTL:      time.Hour,
		FailAt:        failAt,
	})
	app := NewStubApp(StubAppConfig{Name: "stub", Stub: stub, Metrics: observability.NewMetrics()})

	c := client.New(cfg.Endpoints, cfg.App.RequestTimeout(), client.WithTransport(AppTransport{App: app}))
	svc := service.NewTokenChainService(service.TokenChainDependencies{
		Client: c,
		Sink:   persistence.NewFileStore(cfg.App.OutputDir, zap.NewNop()),
	})
	return svc, c
}

func TestStubFullChain(t *testing.T) {
	cfg := stubConfig(t)
	svc, _ := newStubChain(t, cfg, nil)

	result, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateVerified, result.State)

	info := auth.InspectToken(result.AudienceToken)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, info.ExpiresAt.After(time.Now()))

	store := persistence.NewFileStore(cfg.App.OutputDir, zap.NewNop())
	for _, stage := range []domain.Stage{domain.StageTicket, domain.StageCore, domain.StageLive} {
		_, err := os.Stat(store.Path(stage))
		assert.NoError(t, err, stage)
	}
}

func TestStubRejectsWrongSecret(t *testing.T) {
	cfg := stubConfig(t)
	svc, _ := newStubChain(t, cfg, nil)
	cfg.Credential.Secret = "wrong"

	result, err := svc.Run(context.Background(), cfg)
	require.Error(t, err)
	de := util.ToDomainError(err)
	assert.Equal(t, util.CodeUpstreamRejected, de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, domain.RunStateAborted, result.State)
	assert.Len(t, result.Stages, 1)
}

func TestStubForcedFailureStopsChain(t *testing.T) {
	cfg := stubConfig(t)
	svc, _ := newStubChain(t, cfg, map[domain.Stage]int{domain.StageLive: http.StatusInternalServerError})

	result, err := svc.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, util.ToDomainError(err).HTTPStatus)
	assert.NotEmpty(t, result.Ticket)
	assert.NotEmpty(t, result.AccessToken)
	assert.Empty(t, result.AudienceToken)
	assert.Len(t, result.Stages, 3)
}

func TestStubClubTokenCannotReadLive(t *testing.T) {
	cfg := stubConfig(t)
	cfg.Credential.Audience = string(domain.AudienceClub)
	svc, _ := newStubChain(t, cfg, nil)

	result, err := svc.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, util.ToDomainError(err).HTTPStatus)
	assert.Equal(t, domain.StageVerify, result.Stages[len(result.Stages)-1].Stage)
	assert.NotEmpty(t, result.AudienceToken)
}

func TestStubRejectsForeignTokens(t *testing.T) {
	cfg := stubConfig(t)
	_, c := newStubChain(t, cfg, nil)
	ctx := context.Background()

	_, _, err := c.RequestCoreToken(ctx, "not-a-ticket")
	assert.Equal(t, http.StatusUnauthorized, util.ToDomainError(err).HTTPStatus)

	ticket, _, err := c.RequestTicket(ctx, auth.EncodeCredential("user@example.com", "hunter2"), "user@example.com", "")
	require.NoError(t, err)

	_, _, err = c.RequestAudienceToken(ctx, ticket, domain.AudienceLive)
	assert.Equal(t, http.StatusUnauthorized, util.ToDomainError(err).HTTPStatus, "ticket is not a core token")

	core, _, err := c.RequestCoreToken(ctx, ticket)
	require.NoError(t, err)
	_, _, err = c.RequestAudienceToken(ctx, core, domain.Audience("Bogus"))
	assert.Equal(t, http.StatusBadRequest, util.ToDomainError(err).HTTPStatus)
}

func TestStubLeaderboardBody(t *testing.T) {
	cfg := stubConfig(t)
	hash, err := auth.HashSecret("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	stub := service.NewStubService(service.StubDependencies{
		Account:       service.StubAccount{Identifier: "user@example.com", SecretHash: hash, ProfileID: "p1"},
		SigningSecret: "test-secret",
	})
	app := NewStubApp(StubAppConfig{Name: "stub", Stub: stub})
	c := client.New(cfg.Endpoints, time.Second, client.WithTransport(AppTransport{App: app}))
	ctx := context.Background()

	ticket, body, err := c.RequestTicket(ctx, auth.EncodeCredential("user@example.com", "hunter2"), "user@example.com", "")
	require.NoError(t, err)
	var session map[string]any
	require.NoError(t, json.Unmarshal(body, &session))
	assert.Equal(t, "p1", session["profileId"])
	assert.Equal(t, "uplay", session["platformType"])

	core, _, err := c.RequestCoreToken(ctx, ticket)
	require.NoError(t, err)
	live, _, err := c.RequestAudienceToken(ctx, core, domain.AudienceLive)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, cfg.Endpoints.LeaderboardURL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", auth.TokenHeader(auth.SchemeNadeo, live))
	resp, err := AppTransport{App: app}.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var board struct {
		GroupUID string `json:"groupUid"`
		MapUID   string `json:"mapUid"`
		Tops     []struct {
			Top []struct {
				Position int `json:"position"`
			} `json:"top"`
		} `json:"tops"`
	}
	require.NoError(t, json.Unmarshal(raw, &board))
	assert.Equal(t, "Personal_Best", board.GroupUID)
	assert.Equal(t, "ZJw6_4CItmVlRMPgELl4Q37Utw2", board.MapUID)
	require.Len(t, board.Tops, 1)
	require.Len(t, board.Tops[0].Top, 10)
	assert.Equal(t, 51, board.Tops[0].Top[0].Position)
}

func TestStubHealthAndErrorShape(t *testing.T) {
	stub := service.NewStubService(service.StubDependencies{SigningSecret: "s"})
	app := NewStubApp(StubAppConfig{Name: "stub", Version: "v1", Stub: stub})

	resp, err := app.Test(mustRequest(t, http.MethodGet, "/health/live", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(mustRequest(t, http.MethodPost, "/v2/authentication/token/nadeoservices", `{}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"BAD_REQUEST","message":"audience required"}}`, string(raw))
}

func mustRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, stubBase+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}
