package account

import "errors"

var (
	// ErrWrongPassword is returned when the current-password check fails.
	ErrWrongPassword = errors.New("wrong password")
	// ErrEmailTaken is returned when the requested email is already in use.
	ErrEmailTaken = errors.New("email already taken")
)
