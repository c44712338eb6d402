package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/tokenchain/internal/domain"
)

// TokenKind separates the three levels of the chain inside issued tokens.
type TokenKind string

const (
	KindTicket   TokenKind = "ticket"
	KindCore     TokenKind = "core"
	KindAudience TokenKind = "audience"
	KindRefresh  TokenKind = "refresh"
)

// TokenManager issues and validates HS256 tokens shaped like the ones the
// upstream services hand out.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims describes the token payload.
type Claims struct {
	Kind     TokenKind `json:"knd"`
	Audience string    `json:"aun,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a token for the subject.
func (tm *TokenManager) GenerateToken(subjectID string, kind TokenKind, audience string) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Kind:     kind,
		Audience: audience,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates the signature and the expected kind, returning claims.
func (tm *TokenManager) ParseToken(tokenStr string, kind TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Kind != kind {
		return nil, errors.New("unexpected token kind")
	}
	return claims, nil
}

// InspectToken reads what it can from a token without verifying it. Opaque
// tokens yield only their length.
func InspectToken(token string) domain.TokenInfo {
	info := domain.TokenInfo{Length: len(token)}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return info
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return info
	}
	t := exp.Time
	info.ExpiresAt = &t
	return info
}
