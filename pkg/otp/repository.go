package otp

import (
	"context"
	"time"
)

// Purpose identifies which verification flow a code belongs to.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposeEmailChange   Purpose = "email_change"
	PurposePasswordReset Purpose = "password_reset"
)

// Record is one issued code. Email carries the target address for the
// email-verification purpose and the pending new address for email change.
// ConsumedAt is set on successful use and on supersession by a newer code.
type Record struct {
	ID         int64
	UserID     int64
	Email      string
	Code       string
	Attempts   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ConsumedAt *time.Time
}

// Live reports whether the record is still eligible for validation.
func (r Record) Live() bool {
	return r.ConsumedAt == nil
}

// Repository handles persistence for one-time-code records. Old records
// are never deleted; supersession and consumption are marked instead.
type Repository interface {
	// Create persists a new record and marks prior unconsumed records of
	// the same (user, purpose) as superseded. A zero CreatedAt is set to
	// the current time.
	Create(ctx context.Context, purpose Purpose, rec Record) (Record, error)

	// LatestByEmail returns the most recently created live record for the
	// email created at or after since.
	LatestByEmail(ctx context.Context, purpose Purpose, email string, since time.Time) (Record, error)

	// LatestByUser returns the most recently created live record for the
	// user created at or after since.
	LatestByUser(ctx context.Context, purpose Purpose, userID int64, since time.Time) (Record, error)

	// FindByUserAndCode returns the live record matching the exact code,
	// regardless of age. Used for password reset tokens.
	FindByUserAndCode(ctx context.Context, purpose Purpose, userID int64, code string) (Record, error)

	// IncrementAttempts bumps the attempt counter as a single atomic update.
	IncrementAttempts(ctx context.Context, purpose Purpose, id int64) error

	// MarkConsumed marks the record used.
	MarkConsumed(ctx context.Context, purpose Purpose, id int64) error
}
