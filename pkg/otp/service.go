package otp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"
)

// Validation policy shared by the OTP-style purposes.
const (
	CodeLength            = 6
	MaxAttempts           = 5
	DefaultValidityWindow = 10 * time.Minute
	resetTokenBytes       = 64
)

// Service generates, stores and validates one-time codes for the three
// verification flows. Side effects of a successful validation (marking a
// user verified, applying an email change, updating a password) belong to
// the caller; the service only decides whether a submission is valid.
type Service struct {
	repo        Repository
	window      time.Duration
	maxAttempts int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithValidityWindow overrides the code validity window.
func WithValidityWindow(window time.Duration) ServiceOption {
	return func(s *Service) {
		s.window = window
	}
}

// WithMaxAttempts overrides the attempt limit for the attempt-limited flow.
func WithMaxAttempts(max int) ServiceOption {
	return func(s *Service) {
		s.maxAttempts = max
	}
}

// NewService creates a new one-time-code service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:        repo,
		window:      DefaultValidityWindow,
		maxAttempts: MaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateCode produces a 6-digit numeric code, uniformly sampled over
// 000000-999999 and zero-padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateResetToken produces a high-entropy random hex token for the
// password reset flow.
func GenerateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueCode creates and stores a fresh numeric code for the user. Prior
// outstanding codes of the same purpose are superseded by the repository.
func (s *Service) IssueCode(ctx context.Context, purpose Purpose, userID int64, email string) (Record, error) {
	code, err := GenerateCode()
	if err != nil {
		return Record{}, err
	}
	rec, err := s.repo.Create(ctx, purpose, Record{UserID: userID, Email: email, Code: code})
	if err != nil {
		slog.Error("Failed to store one-time code", "purpose", purpose, "user_id", userID, "err", err)
		return Record{}, fmt.Errorf("failed to store one-time code: %w", err)
	}
	return rec, nil
}

// IssueResetToken creates and stores a password reset token for the user.
func (s *Service) IssueResetToken(ctx context.Context, userID int64) (Record, error) {
	token, err := GenerateResetToken()
	if err != nil {
		return Record{}, err
	}
	rec, err := s.repo.Create(ctx, PurposePasswordReset, Record{UserID: userID, Code: token})
	if err != nil {
		slog.Error("Failed to store reset token", "user_id", userID, "err", err)
		return Record{}, fmt.Errorf("failed to store reset token: %w", err)
	}
	return rec, nil
}

// ValidateEmailCode validates a submitted email-verification code. Only
// the most recently created record within the validity window is live.
// Wrong submissions increment the attempt counter atomically; once the
// counter reaches the limit the record is dead even for the right code.
// The matched record is returned un-consumed so the caller can consume it
// inside the same transaction as the flow's side effects.
func (s *Service) ValidateEmailCode(ctx context.Context, email, code string) (Record, error) {
	since := time.Now().UTC().Add(-s.window)
	rec, err := s.repo.LatestByEmail(ctx, PurposeEmailVerify, email, since)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Record{}, ErrNoActiveCode
		}
		return Record{}, fmt.Errorf("failed to look up code: %w", err)
	}

	if rec.Attempts >= s.maxAttempts {
		return Record{}, ErrTooManyAttempts
	}

	if rec.Code != code {
		if err := s.repo.IncrementAttempts(ctx, PurposeEmailVerify, rec.ID); err != nil {
			slog.Error("Failed to increment attempts", "record_id", rec.ID, "err", err)
		}
		return Record{}, ErrCodeMismatch
	}

	return rec, nil
}

// ValidateChangeCode validates a submitted email-change code for the
// user. The flow is not attempt-limited; a mismatch simply fails. The
// record is consumed on success.
func (s *Service) ValidateChangeCode(ctx context.Context, userID int64, code string) (Record, error) {
	since := time.Now().UTC().Add(-s.window)
	rec, err := s.repo.LatestByUser(ctx, PurposeEmailChange, userID, since)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Record{}, ErrNoActiveCode
		}
		return Record{}, fmt.Errorf("failed to look up code: %w", err)
	}

	if rec.Code != code {
		return Record{}, ErrCodeMismatch
	}

	if err := s.repo.MarkConsumed(ctx, PurposeEmailChange, rec.ID); err != nil {
		return Record{}, fmt.Errorf("failed to consume code: %w", err)
	}
	return rec, nil
}

// ValidateResetToken validates a password reset token for the user.
// Tokens have no validity window but are single-use. The matched record
// is returned un-consumed; the caller consumes it after the password
// update succeeds.
func (s *Service) ValidateResetToken(ctx context.Context, userID int64, token string) (Record, error) {
	rec, err := s.repo.FindByUserAndCode(ctx, PurposePasswordReset, userID, token)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Record{}, ErrNoActiveCode
		}
		return Record{}, fmt.Errorf("failed to look up reset token: %w", err)
	}
	return rec, nil
}

// Consume marks a record used.
func (s *Service) Consume(ctx context.Context, purpose Purpose, id int64) error {
	return s.repo.MarkConsumed(ctx, purpose, id)
}
