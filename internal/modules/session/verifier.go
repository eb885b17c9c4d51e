package session

import (
	"context"
	"errors"
	"strings"

	"carrental/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore is the slice of the user repository the verifier needs.
type UserStore interface {
	GetByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
}

// StoreVerifier checks credentials against the user store with bcrypt.
// It is the default CredentialVerifier; deployments with an external
// identity provider plug in their own.
type StoreVerifier struct {
	users UserStore
}

func NewStoreVerifier(users UserStore) *StoreVerifier {
	return &StoreVerifier{users: users}
}

func (v *StoreVerifier) Verify(ctx context.Context, role domain.Role, identifier, secret string) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(identifier))
	user, err := v.users.GetByEmailAndRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}
