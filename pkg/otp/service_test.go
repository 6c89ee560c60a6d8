package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "code must be numeric: %s", code)
		}
	}
}

func TestGenerateResetToken(t *testing.T) {
	token, err := GenerateResetToken()
	require.NoError(t, err)
	// 64 random bytes hex-encoded
	assert.Len(t, token, 128)

	other, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestValidateEmailCode(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueCode(ctx, PurposeEmailVerify, 1, "a@x.com")
		require.NoError(t, err)

		got, err := svc.ValidateEmailCode(ctx, "a@x.com", rec.Code)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		// The record stays unconsumed so the caller can consume it inside
		// its own transaction.
		assert.Nil(t, got.ConsumedAt)
	})

	t.Run("NoCodeIssued", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		_, err := svc.ValidateEmailCode(ctx, "a@x.com", "123456")
		assert.ErrorIs(t, err, ErrNoActiveCode)
	})

	t.Run("ExpiredWindow", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		repo.Insert(ctx, PurposeEmailVerify, Record{
			UserID:    1,
			Email:     "a@x.com",
			Code:      "123456",
			CreatedAt: time.Now().UTC().Add(-11 * time.Minute),
		})

		_, err := svc.ValidateEmailCode(ctx, "a@x.com", "123456")
		assert.ErrorIs(t, err, ErrNoActiveCode)
	})

	t.Run("MostRecentCodeWins", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		now := time.Now().UTC()
		repo.Insert(ctx, PurposeEmailVerify, Record{
			UserID: 1, Email: "a@x.com", Code: "111111", CreatedAt: now.Add(-5 * time.Minute),
		})
		repo.Insert(ctx, PurposeEmailVerify, Record{
			UserID: 1, Email: "a@x.com", Code: "222222", CreatedAt: now.Add(-1 * time.Minute),
		})

		_, err := svc.ValidateEmailCode(ctx, "a@x.com", "111111")
		assert.ErrorIs(t, err, ErrCodeMismatch)

		got, err := svc.ValidateEmailCode(ctx, "a@x.com", "222222")
		require.NoError(t, err)
		assert.Equal(t, "222222", got.Code)
	})

	t.Run("NewIssueSupersedesPrior", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		first, err := svc.IssueCode(ctx, PurposeEmailVerify, 1, "a@x.com")
		require.NoError(t, err)
		second, err := svc.IssueCode(ctx, PurposeEmailVerify, 1, "a@x.com")
		require.NoError(t, err)

		got, err := svc.ValidateEmailCode(ctx, "a@x.com", second.Code)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
		assert.NotEqual(t, first.ID, got.ID)
	})

	t.Run("WrongCodeIncrementsAttempts", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueCode(ctx, PurposeEmailVerify, 1, "a@x.com")
		require.NoError(t, err)

		_, err = svc.ValidateEmailCode(ctx, "a@x.com", "000000")
		assert.ErrorIs(t, err, ErrCodeMismatch)

		stored, err := repo.FindByUserAndCode(ctx, PurposeEmailVerify, 1, rec.Code)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Attempts)
	})

	t.Run("SixthAttemptFailsEvenWithCorrectCode", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueCode(ctx, PurposeEmailVerify, 1, "a@x.com")
		require.NoError(t, err)

		for i := 0; i < MaxAttempts; i++ {
			_, err = svc.ValidateEmailCode(ctx, "a@x.com", "000000")
			assert.ErrorIs(t, err, ErrCodeMismatch)
		}

		_, err = svc.ValidateEmailCode(ctx, "a@x.com", rec.Code)
		assert.ErrorIs(t, err, ErrTooManyAttempts)
	})

	t.Run("ConsumedCodeIsDead", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueCode(ctx, PurposeEmailVerify, 1, "a@x.com")
		require.NoError(t, err)
		require.NoError(t, svc.Consume(ctx, PurposeEmailVerify, rec.ID))

		_, err = svc.ValidateEmailCode(ctx, "a@x.com", rec.Code)
		assert.ErrorIs(t, err, ErrNoActiveCode)
	})
}

func TestValidateChangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsumesOnSuccess", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueCode(ctx, PurposeEmailChange, 1, "new@x.com")
		require.NoError(t, err)

		got, err := svc.ValidateChangeCode(ctx, 1, rec.Code)
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", got.Email)

		_, err = svc.ValidateChangeCode(ctx, 1, rec.Code)
		assert.ErrorIs(t, err, ErrNoActiveCode)
	})

	t.Run("MismatchDoesNotLockOut", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueCode(ctx, PurposeEmailChange, 1, "new@x.com")
		require.NoError(t, err)

		// The change flow has no attempt cap; the right code still works
		// after many wrong ones.
		for i := 0; i < MaxAttempts+2; i++ {
			_, err = svc.ValidateChangeCode(ctx, 1, "000000")
			assert.ErrorIs(t, err, ErrCodeMismatch)
		}

		_, err = svc.ValidateChangeCode(ctx, 1, rec.Code)
		assert.NoError(t, err)
	})
}

func TestValidateResetToken(t *testing.T) {
	ctx := context.Background()

	t.Run("NoWindow", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec := repo.Insert(ctx, PurposePasswordReset, Record{
			UserID:    1,
			Code:      "deadbeef",
			CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
		})

		got, err := svc.ValidateResetToken(ctx, 1, rec.Code)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
	})

	t.Run("SingleUse", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueResetToken(ctx, 1)
		require.NoError(t, err)

		got, err := svc.ValidateResetToken(ctx, 1, rec.Code)
		require.NoError(t, err)
		require.NoError(t, svc.Consume(ctx, PurposePasswordReset, got.ID))

		_, err = svc.ValidateResetToken(ctx, 1, rec.Code)
		assert.ErrorIs(t, err, ErrNoActiveCode)
	})

	t.Run("WrongUser", func(t *testing.T) {
		repo := NewInMemoryRepository()
		svc := NewService(repo)

		rec, err := svc.IssueResetToken(ctx, 1)
		require.NoError(t, err)

		_, err = svc.ValidateResetToken(ctx, 2, rec.Code)
		assert.ErrorIs(t, err, ErrNoActiveCode)
	})
}
