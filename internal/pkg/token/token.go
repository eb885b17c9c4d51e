package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Service signs and verifies the bearer tokens handed to HTTP clients.
// The token only transports the opaque session id; the server-held
// session record remains the source of truth.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	SessionID   string `json:"session_id"`
	PrincipalID int64  `json:"principal_id"`
	Role        string `json:"role"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) Generate(sessionID string, principalID int64, role string) (string, error) {
	claims := Claims{
		SessionID:   sessionID,
		PrincipalID: principalID,
		Role:        role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	t, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := t.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	return claims, nil
}

// FromHeader extracts the raw token from an Authorization header,
// returning "" when the header is missing or not a Bearer scheme.
func FromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
