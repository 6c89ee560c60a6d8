package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jdwly/platform/pkg/database"
)

const uniqueViolationCode = "23505"

// PostgresRepository implements Repository backed by Postgres.
type PostgresRepository struct {
	db *database.Pool
}

// NewPostgresRepository creates a new Postgres user repository.
func NewPostgresRepository(db *database.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, hashed_password, email_verified, is_admin, locale, timezone, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.HashedPassword, &u.EmailVerified,
		&u.IsAdmin, &u.Locale, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// Create persists a new user. A unique violation on email maps to
// ErrEmailExists.
func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO users (email, name, hashed_password, email_verified, is_admin, locale, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+userColumns,
		u.Email, u.Name, u.HashedPassword, u.EmailVerified, u.IsAdmin, u.Locale, u.Timezone)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	return created, nil
}

// GetByID returns the user with the given id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// MarkEmailVerified flips the verified flag on.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET email_verified = true, updated_at = now() WHERE id = $1`, id)
}

// UpdateEmail replaces the user's email.
func (r *PostgresRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	return r.exec(ctx, `UPDATE users SET email = $2, updated_at = now() WHERE id = $1`, id, email)
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	return r.exec(ctx, `UPDATE users SET hashed_password = $2, updated_at = now() WHERE id = $1`, id, hashedPassword)
}

// UpdateGeneralDetails updates locale and timezone.
func (r *PostgresRepository) UpdateGeneralDetails(ctx context.Context, id int64, locale string, timezone *string) error {
	return r.exec(ctx, `UPDATE users SET locale = $2, timezone = $3, updated_at = now() WHERE id = $1`, id, locale, timezone)
}

// SetAdmin toggles the admin flag.
func (r *PostgresRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return r.exec(ctx, `UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1`, id, isAdmin)
}

func (r *PostgresRepository) exec(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
