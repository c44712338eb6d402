package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tokenchain/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Upstream *handlers.UpstreamHandler
}

// RegisterRoutes wires the emulated upstream routes on the paths the real
// services use.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)

	app.Post("/v3/profiles/sessions", cfg.Upstream.Sessions)

	tokens := app.Group("/v2/authentication/token")
	tokens.Post("/ubiservices", cfg.Upstream.CoreToken)
	tokens.Post("/nadeoservices", cfg.Upstream.AudienceToken)

	app.Get("/api/token/leaderboard/group/:groupUid/map/:mapUid/top", cfg.Upstream.LeaderboardTop)
}
