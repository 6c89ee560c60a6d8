package otp

import "errors"

var (
	// ErrNoActiveCode is returned when no live record exists for the target
	// within the validity window.
	ErrNoActiveCode = errors.New("no active code")
	// ErrTooManyAttempts is returned once the attempt counter is exhausted.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = errors.New("code mismatch")
	// ErrRecordNotFound is returned by repositories for absent records.
	ErrRecordNotFound = errors.New("code record not found")
)
