package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHoster   Role = "hoster"
	RoleCustomer Role = "customer"
)

// ParseRole returns the role for a raw string, or false when the
// string is not one of the three known roles.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleHoster, RoleCustomer:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
