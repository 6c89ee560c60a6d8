package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jinzhu/copier"

	"github.com/jdwly/platform/pkg/database"
	"github.com/jdwly/platform/pkg/notification"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/team"
	"github.com/jdwly/platform/pkg/user"
)

// Service orchestrates registration, login, email verification and
// password reset. Token issuance lives at the API layer; the service
// never touches HTTP.
type Service struct {
	users    user.Repository
	teams    *team.Service
	codes    *otp.Service
	hasher   PasswordHasher
	notifier *notification.NotificationManager
	tx       database.Transactor
}

// NewService creates a new auth service.
func NewService(
	users user.Repository,
	teams *team.Service,
	codes *otp.Service,
	hasher PasswordHasher,
	notifier *notification.NotificationManager,
	tx database.Transactor,
) *Service {
	return &Service{
		users:    users,
		teams:    teams,
		codes:    codes,
		hasher:   hasher,
		notifier: notifier,
		tx:       tx,
	}
}

// RegisterParams is the input for Register.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Timezone string
	Locale   string
}

// Register creates an unverified user and issues their first
// email-verification code. It does not log the user in.
func (s *Service) Register(ctx context.Context, params RegisterParams) error {
	email := user.NormalizeEmail(params.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(params.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var newUser user.User
	if err := copier.Copy(&newUser, &params); err != nil {
		return fmt.Errorf("failed to map register params: %w", err)
	}
	newUser.Email = email
	newUser.HashedPassword = &hashedPassword
	if params.Timezone != "" {
		tz := params.Timezone
		newUser.Timezone = &tz
	}

	created, err := s.users.Create(ctx, newUser)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	rec, err := s.codes.IssueCode(ctx, otp.PurposeEmailVerify, created.ID, email)
	if err != nil {
		return err
	}

	s.notify(notification.EmailVerifyNotice, notification.NotificationData{
		To:     email,
		Locale: created.Locale,
		Data: map[string]string{
			"Name":    created.Name,
			"OtpCode": rec.Code,
		},
	})

	slog.Info("User registered", "user_id", created.ID)
	return nil
}

// Login authenticates a verified user by email and password. Every
// failure surfaces as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	if !u.EmailVerified || u.HashedPassword == nil {
		return user.User{}, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, *u.HashedPassword)
	if err != nil || !match {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// ResolveUser re-loads a user by id. Used by the refresh flow and the
// admin gate, which must read current state rather than token claims.
func (s *Service) ResolveUser(ctx context.Context, id int64) (user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// RequestEmailVerification issues a fresh code for an existing
// unverified user.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) error {
	email = user.NormalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || u.EmailVerified {
		return ErrUserNotFound
	}

	rec, err := s.codes.IssueCode(ctx, otp.PurposeEmailVerify, u.ID, email)
	if err != nil {
		return err
	}

	s.notify(notification.EmailVerifyNotice, notification.NotificationData{
		To:     email,
		Locale: u.Locale,
		Data: map[string]string{
			"Name":    u.Name,
			"OtpCode": rec.Code,
		},
	})
	return nil
}

// VerificationResult is the outcome of a successful email verification.
type VerificationResult struct {
	UserID int64
	TeamID int64
}

// SubmitEmailVerification validates the code and, in one atomic unit,
// marks the user verified, provisions their personal team, and consumes
// the code. The caller logs the user in on success.
func (s *Service) SubmitEmailVerification(ctx context.Context, email, code string) (VerificationResult, error) {
	email = user.NormalizeEmail(email)
	rec, err := s.codes.ValidateEmailCode(ctx, email, code)
	if err != nil {
		return VerificationResult{}, err
	}

	var result VerificationResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.MarkEmailVerified(ctx, rec.UserID); err != nil {
			return fmt.Errorf("failed to mark user verified: %w", err)
		}
		t, err := s.teams.CreatePersonal(ctx, rec.UserID)
		if err != nil {
			return err
		}
		if err := s.codes.Consume(ctx, otp.PurposeEmailVerify, rec.ID); err != nil {
			return fmt.Errorf("failed to consume code: %w", err)
		}
		result = VerificationResult{UserID: rec.UserID, TeamID: t.ID}
		return nil
	})
	if err != nil {
		return VerificationResult{}, err
	}

	slog.Info("Email verified", "user_id", result.UserID, "team_id", result.TeamID)
	return result, nil
}

// RequestPasswordReset issues a reset token for a verified user.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = user.NormalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !u.EmailVerified {
		return ErrUserNotFound
	}

	rec, err := s.codes.IssueResetToken(ctx, u.ID)
	if err != nil {
		return err
	}

	s.notify(notification.PasswordResetNotice, notification.NotificationData{
		To:     email,
		Locale: u.Locale,
		Data: map[string]string{
			"Name":  u.Name,
			"Token": rec.Code,
		},
	})
	return nil
}

// SubmitPasswordReset validates the token, replaces the password hash
// and consumes the token. Reset tokens have no validity window but are
// single-use.
func (s *Service) SubmitPasswordReset(ctx context.Context, email, token, newPassword string) error {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil || !u.EmailVerified {
		return ErrUserNotFound
	}

	rec, err := s.codes.ValidateResetToken(ctx, u.ID, token)
	if err != nil {
		if errors.Is(err, otp.ErrNoActiveCode) {
			return ErrResetTokenNotFound
		}
		return err
	}

	hashedPassword, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.codes.Consume(ctx, otp.PurposePasswordReset, rec.ID); err != nil {
		slog.Error("Failed to consume reset token", "record_id", rec.ID, "err", err)
	}

	slog.Info("Password reset", "user_id", u.ID)
	return nil
}

// notify sends best effort; delivery failure never fails the flow.
func (s *Service) notify(notifType notification.NotificationType, data notification.NotificationData) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(notifType, data); err != nil {
		slog.Error("Failed to send notification", "type", notifType, "err", err)
	}
}
