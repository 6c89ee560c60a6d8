package auth

import "errors"

var (
	// ErrEmailTaken is returned when registering with an email that
	// already has a user, regardless of its verification state.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers every login failure: unknown email,
	// unverified email, missing password hash, or wrong password. One
	// error for all cases so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when the target user does not exist or
	// is not in the state the flow requires.
	ErrUserNotFound = errors.New("user not found")

	// ErrResetTokenNotFound is returned for absent or already-used reset
	// tokens.
	ErrResetTokenNotFound = errors.New("reset token not found")
)
