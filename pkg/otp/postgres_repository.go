package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jdwly/platform/pkg/database"
)

// table describes how a purpose maps onto its backing table. The three
// tables share a shape but differ in column names and whether the
// attempt counter exists.
type table struct {
	name        string
	emailCol    string
	codeCol     string
	hasAttempts bool
}

var tables = map[Purpose]table{
	PurposeEmailVerify:   {name: "email_verifications", emailCol: "email", codeCol: "otp_code", hasAttempts: true},
	PurposeEmailChange:   {name: "email_change_requests", emailCol: "new_email", codeCol: "otp_code"},
	PurposePasswordReset: {name: "password_reset_requests", codeCol: "token"},
}

// PostgresRepository implements Repository backed by Postgres.
type PostgresRepository struct {
	db *database.Pool
}

// NewPostgresRepository creates a new Postgres code repository.
func NewPostgresRepository(db *database.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (t table) selectColumns() string {
	email := "''"
	if t.emailCol != "" {
		email = t.emailCol
	}
	attempts := "0"
	if t.hasAttempts {
		attempts = "attempts"
	}
	return fmt.Sprintf("id, user_id, %s, %s, %s, created_at, updated_at, consumed_at",
		email, t.codeCol, attempts)
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Email, &rec.Code, &rec.Attempts,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.ConsumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("failed to scan code record: %w", err)
	}
	return rec, nil
}

// Create inserts a new record and supersedes prior live records for the
// same (user, purpose) in one round trip each.
func (r *PostgresRepository) Create(ctx context.Context, purpose Purpose, rec Record) (Record, error) {
	t, ok := tables[purpose]
	if !ok {
		return Record{}, fmt.Errorf("unknown code purpose: %s", purpose)
	}

	conn := r.db.Conn(ctx)
	_, err := conn.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET consumed_at = now(), updated_at = now() WHERE user_id = $1 AND consumed_at IS NULL`, t.name),
		rec.UserID)
	if err != nil {
		return Record{}, fmt.Errorf("failed to supersede prior codes: %w", err)
	}

	var row pgx.Row
	if t.emailCol != "" {
		row = conn.QueryRow(ctx, fmt.Sprintf(
			`INSERT INTO %s (user_id, %s, %s, created_at, updated_at) VALUES ($1, $2, $3, now(), now())
			 RETURNING %s`, t.name, t.emailCol, t.codeCol, t.selectColumns()),
			rec.UserID, rec.Email, rec.Code)
	} else {
		row = conn.QueryRow(ctx, fmt.Sprintf(
			`INSERT INTO %s (user_id, %s, created_at, updated_at) VALUES ($1, $2, now(), now())
			 RETURNING %s`, t.name, t.codeCol, t.selectColumns()),
			rec.UserID, rec.Code)
	}
	return scanRecord(row)
}

// LatestByEmail returns the most recent live record for the email within
// the window.
func (r *PostgresRepository) LatestByEmail(ctx context.Context, purpose Purpose, email string, since time.Time) (Record, error) {
	t, ok := tables[purpose]
	if !ok || t.emailCol == "" {
		return Record{}, fmt.Errorf("purpose %s has no email column", purpose)
	}
	row := r.db.Conn(ctx).QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s = $1 AND created_at >= $2 AND consumed_at IS NULL
		 ORDER BY created_at DESC, id DESC LIMIT 1`, t.selectColumns(), t.name, t.emailCol),
		email, since)
	return scanRecord(row)
}

// LatestByUser returns the most recent live record for the user within
// the window.
func (r *PostgresRepository) LatestByUser(ctx context.Context, purpose Purpose, userID int64, since time.Time) (Record, error) {
	t, ok := tables[purpose]
	if !ok {
		return Record{}, fmt.Errorf("unknown code purpose: %s", purpose)
	}
	row := r.db.Conn(ctx).QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = $1 AND created_at >= $2 AND consumed_at IS NULL
		 ORDER BY created_at DESC, id DESC LIMIT 1`, t.selectColumns(), t.name),
		userID, since)
	return scanRecord(row)
}

// FindByUserAndCode returns the live record with the exact code.
func (r *PostgresRepository) FindByUserAndCode(ctx context.Context, purpose Purpose, userID int64, code string) (Record, error) {
	t, ok := tables[purpose]
	if !ok {
		return Record{}, fmt.Errorf("unknown code purpose: %s", purpose)
	}
	row := r.db.Conn(ctx).QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = $1 AND %s = $2 AND consumed_at IS NULL
		 ORDER BY created_at DESC, id DESC LIMIT 1`, t.selectColumns(), t.name, t.codeCol),
		userID, code)
	return scanRecord(row)
}

// IncrementAttempts bumps the attempt counter as a single update so
// concurrent wrong submissions never lose increments.
func (r *PostgresRepository) IncrementAttempts(ctx context.Context, purpose Purpose, id int64) error {
	t, ok := tables[purpose]
	if !ok {
		return fmt.Errorf("unknown code purpose: %s", purpose)
	}
	if !t.hasAttempts {
		return nil
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET attempts = attempts + 1, updated_at = now() WHERE id = $1`, t.name), id)
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkConsumed marks the record used.
func (r *PostgresRepository) MarkConsumed(ctx context.Context, purpose Purpose, id int64) error {
	t, ok := tables[purpose]
	if !ok {
		return fmt.Errorf("unknown code purpose: %s", purpose)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET consumed_at = now(), updated_at = now() WHERE id = $1`, t.name), id)
	if err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
