package user

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when creating a user with a taken email.
	ErrEmailExists = errors.New("email already exists")
)

// Repository handles persistence for user records. Users are never
// hard-deleted.
type Repository interface {
	// Create persists a new user. Email must already be normalized.
	Create(ctx context.Context, u User) (User, error)

	// GetByID returns the user with the given id.
	GetByID(ctx context.Context, id int64) (User, error)

	// GetByEmail returns the user with the given normalized email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// MarkEmailVerified flips the verified flag on.
	MarkEmailVerified(ctx context.Context, id int64) error

	// UpdateEmail replaces the user's email with a normalized one.
	UpdateEmail(ctx context.Context, id int64, email string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error

	// UpdateGeneralDetails updates locale and timezone.
	UpdateGeneralDetails(ctx context.Context, id int64, locale string, timezone *string) error

	// SetAdmin toggles the admin flag.
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
}
