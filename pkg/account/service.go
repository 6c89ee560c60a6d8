package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jdwly/platform/pkg/auth"
	"github.com/jdwly/platform/pkg/notification"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/user"
)

// Service covers the authenticated self-service operations: profile
// reads, password change and the two-step email change.
type Service struct {
	users    user.Repository
	codes    *otp.Service
	hasher   auth.PasswordHasher
	notifier *notification.NotificationManager
}

// NewService creates a new account service.
func NewService(
	users user.Repository,
	codes *otp.Service,
	hasher auth.PasswordHasher,
	notifier *notification.NotificationManager,
) *Service {
	return &Service{
		users:    users,
		codes:    codes,
		hasher:   hasher,
		notifier: notifier,
	}
}

// Me returns the caller's own user record.
func (s *Service) Me(ctx context.Context, userID int64) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ChangePassword replaces the caller's password after re-checking the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.checkPassword(u, currentPassword); err != nil {
		return err
	}

	hashedPassword, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("Password changed", "user_id", userID)
	return nil
}

// RequestEmailChange re-checks the caller's password, then issues a
// confirmation code and mails it to the requested new address. The
// stored email does not change until the code is submitted.
func (s *Service) RequestEmailChange(ctx context.Context, userID int64, newEmail, currentPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.checkPassword(u, currentPassword); err != nil {
		return err
	}

	email := user.NormalizeEmail(newEmail)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	rec, err := s.codes.IssueCode(ctx, otp.PurposeEmailChange, userID, email)
	if err != nil {
		return err
	}

	s.notify(notification.EmailChangeNotice, notification.NotificationData{
		To:     email,
		Locale: u.Locale,
		Data: map[string]string{
			"Name":    u.Name,
			"OtpCode": rec.Code,
		},
	})
	return nil
}

// VerifyEmailChange submits the confirmation code and, on success,
// swaps the caller's email to the address the code was issued for.
func (s *Service) VerifyEmailChange(ctx context.Context, userID int64, code string) error {
	rec, err := s.codes.ValidateChangeCode(ctx, userID, code)
	if err != nil {
		return err
	}

	if err := s.users.UpdateEmail(ctx, userID, rec.Email); err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update email: %w", err)
	}

	slog.Info("Email changed", "user_id", userID)
	return nil
}

// UpdateGeneralDetails updates the caller's locale and timezone.
func (s *Service) UpdateGeneralDetails(ctx context.Context, userID int64, locale string, timezone *string) error {
	return s.users.UpdateGeneralDetails(ctx, userID, locale, timezone)
}

// checkPassword verifies the current password. A user without a stored
// hash cannot pass the check.
func (s *Service) checkPassword(u user.User, password string) error {
	if u.HashedPassword == nil {
		return ErrWrongPassword
	}
	ok, err := s.hasher.Verify(password, *u.HashedPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

func (s *Service) notify(notifType notification.NotificationType, data notification.NotificationData) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(notifType, data); err != nil {
		slog.Error("Failed to send notification", "type", notifType, "to", data.To, "err", err)
	}
}
