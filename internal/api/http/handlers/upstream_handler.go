package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tokenchain/internal/api/dto"
	"github.com/spec-kit/tokenchain/internal/service"
	"github.com/spec-kit/tokenchain/pkg/util"
)

// UpstreamHandler serves the emulated identity, token and leaderboard routes.
type UpstreamHandler struct {
	stub *service.StubService
}

// NewUpstreamHandler constructs handler.
func NewUpstreamHandler(stub *service.StubService) *UpstreamHandler {
	return &UpstreamHandler{stub: stub}
}

// Sessions handles POST /v3/profiles/sessions.
func (h *UpstreamHandler) Sessions(c *fiber.Ctx) error {
	session, err := h.stub.OpenSession(c.UserContext(), c.Get("Authorization"), c.Get("Ubi-AppId"))
	if err != nil {
		return err
	}

	platform := c.Get("Ubi-RequestedPlatformType")
	if platform == "" {
		platform = "uplay"
	}
	return c.Status(http.StatusOK).JSON(dto.SessionResponse{
		PlatformType:   platform,
		Ticket:         session.Ticket,
		ProfileID:      session.ProfileID,
		UserID:         session.ProfileID,
		NameOnPlatform: session.Identifier,
		SessionID:      session.SessionID,
		Expiration:     session.ExpiresAt.UTC(),
	})
}

// CoreToken handles POST /v2/authentication/token/ubiservices.
func (h *UpstreamHandler) CoreToken(c *fiber.Ctx) error {
	pair, err := h.stub.ExchangeTicket(c.UserContext(), c.Get("Authorization"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// AudienceToken handles POST /v2/authentication/token/nadeoservices.
func (h *UpstreamHandler) AudienceToken(c *fiber.Ctx) error {
	var req dto.AudienceRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}
	if req.Audience == "" {
		return util.NewBadRequest("audience required")
	}

	pair, err := h.stub.ExchangeCoreToken(c.UserContext(), c.Get("Authorization"), req.Audience)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// LeaderboardTop handles GET /api/token/leaderboard/group/:groupUid/map/:mapUid/top.
func (h *UpstreamHandler) LeaderboardTop(c *fiber.Ctx) error {
	if err := h.stub.AuthorizeLive(c.UserContext(), c.Get("Authorization")); err != nil {
		return err
	}

	length := c.QueryInt("length", 5)
	offset := c.QueryInt("offset", 0)
	if length < 0 || offset < 0 {
		return util.NewBadRequest("length and offset must be positive")
	}

	entries := make([]dto.LeaderEntry, 0, length)
	for i := 0; i < length; i++ {
		entries = append(entries, dto.LeaderEntry{
			AccountID: "stub-account",
			ZoneID:    "world",
			ZoneName:  "World",
			Position:  offset + i + 1,
			Score:     30000 + (offset+i)*10,
		})
	}

	return c.JSON(dto.LeaderboardResponse{
		GroupUID: c.Params("groupUid"),
		MapUID:   c.Params("mapUid"),
		Tops: []dto.LeaderboardTop{
			{ZoneID: "world", ZoneName: "World", Top: entries},
		},
	})
}
