package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spec-kit/tokenchain/internal/auth"
	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/pkg/util"
)

const (
	maxBodyBytes     = 1 << 20
	maxErrorBodySize = 512
)

// Client performs the four upstream calls of the chain. It holds no token
// state; every call takes its input token explicitly.
type Client struct {
	httpClient *http.Client
	endpoints  config.EndpointsConfig
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, keeping the timeout.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// New builds a client bounded by timeout per call.
func New(endpoints config.EndpointsConfig, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoints:  endpoints,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestTicket exchanges a Basic credential for an identity ticket.
func (c *Client) RequestTicket(ctx context.Context, authorization, identifier, usageReason string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.SessionsURL, nil)
	if err != nil {
		return "", nil, util.NewInternalError(err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Ubi-AppId", c.endpoints.AppID)
	req.Header.Set("Ubi-RequestedPlatformType", c.endpoints.PlatformType)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s / %s", usageReason, identifier))

	body, err := c.do(domain.StageTicket, req)
	if err != nil {
		return "", nil, err
	}
	ticket, err := extractField(domain.StageTicket, body, "ticket")
	if err != nil {
		return "", nil, err
	}
	return ticket, body, nil
}

// RequestCoreToken exchanges a ticket for a level 1 access token.
func (c *Client) RequestCoreToken(ctx context.Context, ticket string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.CoreTokenURL, nil)
	if err != nil {
		return "", nil, util.NewInternalError(err)
	}
	req.Header.Set("Authorization", auth.TokenHeader(auth.SchemeUbi, ticket))
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(domain.StageCore, req)
	if err != nil {
		return "", nil, err
	}
	token, err := extractField(domain.StageCore, body, "accessToken")
	if err != nil {
		return "", nil, err
	}
	return token, body, nil
}

// RequestAudienceToken exchanges a level 1 token for one scoped to audience.
func (c *Client) RequestAudienceToken(ctx context.Context, accessToken string, audience domain.Audience) (string, []byte, error) {
	payload, err := json.Marshal(struct {
		Audience domain.Audience `json:"audience"`
	}{Audience: audience})
	if err != nil {
		return "", nil, util.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.AudienceTokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", nil, util.NewInternalError(err)
	}
	req.Header.Set("Authorization", auth.TokenHeader(auth.SchemeNadeo, accessToken))
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(domain.StageLive, req)
	if err != nil {
		return "", nil, err
	}
	token, err := extractField(domain.StageLive, body, "accessToken")
	if err != nil {
		return "", nil, err
	}
	return token, body, nil
}

// VerifyToken reads the leaderboard with the audience token. Any answer
// other than 200 is returned as an error.
func (c *Client) VerifyToken(ctx context.Context, audienceToken string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.LeaderboardURL, nil)
	if err != nil {
		return false, util.NewInternalError(err)
	}
	req.Header.Set("Authorization", auth.TokenHeader(auth.SchemeNadeo, audienceToken))

	if _, err := c.do(domain.StageVerify, req); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) do(stage domain.Stage, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.NewTransportError(string(stage), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, util.NewTransportError(string(stage), err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBodySize {
			body = body[:maxErrorBodySize]
		}
		return nil, util.NewUpstreamRejection(string(stage), resp.StatusCode, string(body))
	}
	return body, nil
}

func extractField(stage domain.Stage, body []byte, field string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", util.NewMalformedResponse(string(stage), err)
	}
	raw, ok := fields[field]
	if !ok {
		return "", util.NewMalformedResponse(string(stage), fmt.Errorf("field %q missing", field))
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", util.NewMalformedResponse(string(stage), fmt.Errorf("field %q: %w", field, err))
	}
	if value == "" {
		return "", util.NewMalformedResponse(string(stage), fmt.Errorf("field %q empty", field))
	}
	return value, nil
}
