package models

import (
	"time"

	"github.com/pkg/errors"
)

// Role is the closed set of account roles. Handlers must switch on the
// typed value instead of comparing raw strings.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return Role(s), nil
	}
	return "", errors.Wrapf(ErrUnknownRole, "%q", s)
}

type User struct {
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	Password          string    `db:"password" json:"-"`
	Role              Role      `db:"role" json:"role"`
	IsVerified        bool      `db:"is_verified" json:"is_verified"`
	VerificationToken string    `db:"verification_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
