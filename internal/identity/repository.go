package identity

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no user matched.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken means another user holds the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPhoneTaken means another user holds the phone number.
	ErrPhoneTaken = errors.New("phone already registered")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// Update replaces the stored user with the same ID, enforcing phone
	// uniqueness.
	Update(ctx context.Context, user User) error
}
