// Package users owns the user record and its persistence. The auth flows depend on
// the Store contract only; PostgresStore backs it in production and MemoryStore
// backs it in tests.
package users

import (
	"context"
	"errors"
	"time"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"createdAt"`
}

// Sentinel errors returned (possibly wrapped) by every Store implementation.
var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a write would break the uniqueness of
	// userName or email.
	ErrDuplicate = errors.New("user already exists")
)

// Store is the persistence contract the account flows rely on.
type Store interface {
	// ExistsByEmailOrUserName reports whether any user already holds the email
	// or the userName.
	ExistsByEmailOrUserName(ctx context.Context, email, userName string) (bool, error)

	// Create persists a new user. It assigns ID when empty and sets CreatedAt.
	// A uniqueness violation is reported as ErrDuplicate.
	Create(ctx context.Context, user *User) error

	// GetByEmail returns the user holding email, or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
