package session

import (
	"context"
	"time"

	"carrental/internal/domain"
)

// SessionRepository persists the server-held session records.
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CredentialVerifier is the external identity collaborator. It resolves
// (role, identifier, secret) to a principal id or fails.
type CredentialVerifier interface {
	Verify(ctx context.Context, role domain.Role, identifier, secret string) (int64, error)
}
