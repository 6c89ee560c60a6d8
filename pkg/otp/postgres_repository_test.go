package otp

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jdwly/platform/pkg/database"
)

func setupTestDatabase(t *testing.T) *database.Pool {
	if os.Getenv("TEST_POSTGRES") == "" {
		t.Skip("set TEST_POSTGRES=1 to run Postgres container tests")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("platform_db"),
		postgres.WithUsername("platform"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, connString))

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return database.NewPool(pool)
}

func seedPostgresUser(t *testing.T, pool *database.Pool, email string) int64 {
	t.Helper()

	var id int64
	err := pool.Conn(context.Background()).QueryRow(context.Background(), `
		INSERT INTO users (email, name, locale) VALUES ($1, 'A', 'en') RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPostgresRepository(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	since := time.Now().UTC().Add(-10 * time.Minute)

	userID := seedPostgresUser(t, pool, "a@x.com")

	t.Run("CreateSupersedesPrior", func(t *testing.T) {
		first, err := repo.Create(ctx, PurposeEmailVerify, Record{UserID: userID, Email: "a@x.com", Code: "111111"})
		require.NoError(t, err)
		second, err := repo.Create(ctx, PurposeEmailVerify, Record{UserID: userID, Email: "a@x.com", Code: "222222"})
		require.NoError(t, err)

		latest, err := repo.LatestByEmail(ctx, PurposeEmailVerify, "a@x.com", since)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)

		// The first record is consumed and no longer findable.
		_, err = repo.FindByUserAndCode(ctx, PurposeEmailVerify, userID, first.Code)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("IncrementAttempts", func(t *testing.T) {
		otherID := seedPostgresUser(t, pool, "b@x.com")
		rec, err := repo.Create(ctx, PurposeEmailVerify, Record{UserID: otherID, Email: "b@x.com", Code: "333333"})
		require.NoError(t, err)

		require.NoError(t, repo.IncrementAttempts(ctx, PurposeEmailVerify, rec.ID))
		require.NoError(t, repo.IncrementAttempts(ctx, PurposeEmailVerify, rec.ID))

		got, err := repo.LatestByEmail(ctx, PurposeEmailVerify, "b@x.com", since)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Attempts)
	})

	t.Run("MarkConsumed", func(t *testing.T) {
		otherID := seedPostgresUser(t, pool, "c@x.com")
		rec, err := repo.Create(ctx, PurposePasswordReset, Record{UserID: otherID, Code: "token"})
		require.NoError(t, err)

		found, err := repo.FindByUserAndCode(ctx, PurposePasswordReset, otherID, "token")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, found.ID)

		require.NoError(t, repo.MarkConsumed(ctx, PurposePasswordReset, rec.ID))
		_, err = repo.FindByUserAndCode(ctx, PurposePasswordReset, otherID, "token")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("EmailChangeLatestByUser", func(t *testing.T) {
		otherID := seedPostgresUser(t, pool, "d@x.com")
		_, err := repo.Create(ctx, PurposeEmailChange, Record{UserID: otherID, Email: "new@x.com", Code: "444444"})
		require.NoError(t, err)

		got, err := repo.LatestByUser(ctx, PurposeEmailChange, otherID, since)
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", got.Email)
		assert.Equal(t, "444444", got.Code)
	})
}
