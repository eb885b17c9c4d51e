package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"carrental/internal/domain"
	"carrental/internal/pkg/clock"

	"gorm.io/gorm"
)

const DefaultTTL = 24 * time.Hour

// Service issues, validates, extends and revokes sessions. Expiry is
// evaluated lazily at validate time; the optional sweep in
// cmd/session_cleanup only reclaims storage.
type Service struct {
	sessions   SessionRepository
	verifier   CredentialVerifier
	clock      clock.Clock
	ttl        time.Duration
	warnWindow time.Duration
}

func NewService(sessions SessionRepository, verifier CredentialVerifier, clk clock.Clock, ttl, warnWindow time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		sessions:   sessions,
		verifier:   verifier,
		clock:      clk,
		ttl:        ttl,
		warnWindow: warnWindow,
	}
}

// Authenticate validates the request shape, delegates the real
// credential check to the identity collaborator, and issues a session
// with a cryptographically random opaque id.
func (s *Service) Authenticate(ctx context.Context, role, identifier, secret string) (*domain.Session, error) {
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(secret) == "" {
		return nil, ErrInvalidCredentials
	}

	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, ErrInvalidRole
	}

	principalID, err := s.verifier.Verify(ctx, r, identifier, secret)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess := &domain.Session{
		ID:             id,
		Role:           r,
		PrincipalID:    principalID,
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.ttl),
		LastActivityAt: now,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate returns the session when still valid, refreshing its last
// activity timestamp. An expired record is deleted on sight.
func (s *Service) Validate(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !sess.Valid(now) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	sess.LastActivityAt = now
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Extend resets the expiry window to a full TTL from now and clears
// any pending expiry warning.
func (s *Service) Extend(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess.ExpiresAt = now.Add(s.ttl)
	sess.LastActivityAt = now
	sess.ExpiryWarned = false
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Revoke is idempotent: revoking an unknown session is not an error.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// TimeUntilExpiry returns the remaining lifetime, zero when already
// expired or unknown.
func (s *Service) TimeUntilExpiry(ctx context.Context, sessionID string) time.Duration {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return 0
	}
	remaining := sess.ExpiresAt.Sub(s.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarkExpiryWarning flags the session once its remaining lifetime drops
// inside the warning window. Returns whether the warning is due and was
// newly set.
func (s *Service) MarkExpiryWarning(ctx context.Context, sessionID string) (bool, error) {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess.ExpiryWarned {
		return false, nil
	}
	if sess.ExpiresAt.Sub(s.clock.Now()) > s.warnWindow {
		return false, nil
	}
	sess.ExpiryWarned = true
	if err := s.sessions.Update(ctx, sess); err != nil {
		return false, err
	}
	return true, nil
}

// SweepExpired removes expired session rows. Validate already deletes
// lazily; this reclaims rows nobody validated again.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.clock.Now())
}

func (s *Service) get(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
