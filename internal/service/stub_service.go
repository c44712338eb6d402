package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/tokenchain/internal/auth"
	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/pkg/util"
)

// StubAccount is the single account the stub accepts.
type StubAccount struct {
	Identifier string
	SecretHash string
	ProfileID  string
}

// StubService emulates the identity and Nadeo token services for dry runs.
type StubService struct {
	account StubAccount
	appID   string
	tokens  *auth.TokenManager
	failAt  map[domain.Stage]int
}

// StubDependencies encapsulates stub requirements.
type StubDependencies struct {
	Account       StubAccount
	AppID         string
	SigningSecret string
	TokenTTL      time.Duration
	// FailAt forces the given status on a stage.
	FailAt map[domain.Stage]int
}

// NewStubService builds the stub.
func NewStubService(deps StubDependencies) *StubService {
	account := deps.Account
	if account.ProfileID == "" {
		account.ProfileID = uuid.NewString()
	}
	failAt := map[domain.Stage]int{}
	for stage, status := range deps.FailAt {
		failAt[stage] = status
	}
	return &StubService{
		account: account,
		appID:   deps.AppID,
		tokens:  auth.NewTokenManager(deps.SigningSecret, deps.TokenTTL),
		failAt:  failAt,
	}
}

// Session is what the identity endpoint hands back.
type Session struct {
	Ticket     string
	ProfileID  string
	SessionID  string
	Identifier string
	ExpiresAt  time.Time
}

func (s *StubService) forced(stage domain.Stage) error {
	if status, ok := s.failAt[stage]; ok {
		return util.NewForcedFailure(string(stage), status)
	}
	return nil
}

// OpenSession checks the Basic credential and app id, then issues a ticket.
func (s *StubService) OpenSession(_ context.Context, authorization, appID string) (*Session, error) {
	if err := s.forced(domain.StageTicket); err != nil {
		return nil, err
	}
	if s.appID != "" && appID != s.appID {
		return nil, util.NewBadRequest("unknown Ubi-AppId")
	}

	identifier, secret, err := auth.DecodeCredential(authorization)
	if err != nil {
		return nil, util.NewUnauthorized("invalid authorization header")
	}
	if identifier != s.account.Identifier {
		return nil, util.NewUnauthorized("invalid credentials")
	}
	if err := auth.CompareSecret(s.account.SecretHash, secret); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}

	ticket, exp, err := s.tokens.GenerateToken(s.account.ProfileID, auth.KindTicket, "")
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &Session{
		Ticket:     ticket,
		ProfileID:  s.account.ProfileID,
		SessionID:  uuid.NewString(),
		Identifier: identifier,
		ExpiresAt:  exp,
	}, nil
}

// TokenPair is an access token and its refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ExchangeTicket turns a ticket into a core access token.
func (s *StubService) ExchangeTicket(_ context.Context, authorization string) (*TokenPair, error) {
	if err := s.forced(domain.StageCore); err != nil {
		return nil, err
	}
	claims, err := s.parse(authorization, auth.SchemeUbi, auth.KindTicket)
	if err != nil {
		return nil, err
	}
	return s.pair(claims.Subject, auth.KindCore, string(domain.AudienceCore))
}

// ExchangeCoreToken turns a core access token into one scoped to audience.
func (s *StubService) ExchangeCoreToken(_ context.Context, authorization, audience string) (*TokenPair, error) {
	if err := s.forced(domain.StageLive); err != nil {
		return nil, err
	}
	claims, err := s.parse(authorization, auth.SchemeNadeo, auth.KindCore)
	if err != nil {
		return nil, err
	}
	if !domain.Audience(audience).Known() {
		return nil, util.NewBadRequest("unknown audience")
	}
	return s.pair(claims.Subject, auth.KindAudience, audience)
}

// AuthorizeLive checks a token may read the Live API.
func (s *StubService) AuthorizeLive(_ context.Context, authorization string) error {
	if err := s.forced(domain.StageVerify); err != nil {
		return err
	}
	claims, err := s.parse(authorization, auth.SchemeNadeo, auth.KindAudience)
	if err != nil {
		return err
	}
	if claims.Audience != string(domain.AudienceLive) {
		return util.NewDomainError("FORBIDDEN", "token audience cannot read the Live API", http.StatusForbidden, nil)
	}
	return nil
}

func (s *StubService) parse(authorization, scheme string, kind auth.TokenKind) (*auth.Claims, error) {
	raw, err := auth.ParseTokenHeader(authorization, scheme)
	if err != nil {
		return nil, util.NewUnauthorized("invalid authorization header")
	}
	claims, err := s.tokens.ParseToken(raw, kind)
	if err != nil {
		return nil, util.NewUnauthorized("invalid token")
	}
	return claims, nil
}

func (s *StubService) pair(subject string, kind auth.TokenKind, audience string) (*TokenPair, error) {
	access, _, err := s.tokens.GenerateToken(subject, kind, audience)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	refresh, _, err := s.tokens.GenerateToken(subject, auth.KindRefresh, audience)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
