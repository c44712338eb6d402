package http

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tokenchain/internal/api/http/handlers"
	"github.com/spec-kit/tokenchain/internal/observability"
	"github.com/spec-kit/tokenchain/internal/service"
)

// StubAppConfig bundles what the stub application needs.
type StubAppConfig struct {
	Name    string
	Version string
	Timeout time.Duration
	Stub    *service.StubService
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewStubApp builds the fiber application emulating the upstream services.
func NewStubApp(cfg StubAppConfig) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, cfg.Metrics, cfg.Timeout)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.Name, cfg.Version),
		Upstream: handlers.NewUpstreamHandler(cfg.Stub),
	})
	return app
}

// AppTransport routes HTTP requests straight into a fiber app without a
// listener.
type AppTransport struct {
	App *fiber.App
}

// RoundTrip implements http.RoundTripper.
func (t AppTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.App.Test(req.Clone(req.Context()), -1)
}
