package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jdwly/platform/pkg/database"
)

// PostgresRepository implements Repository backed by Postgres.
type PostgresRepository struct {
	db *database.Pool
}

// NewPostgresRepository creates a new Postgres team repository.
func NewPostgresRepository(db *database.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const teamColumns = `id, name, is_personal, user_id, created_at, updated_at`

func scanTeam(row pgx.Row) (Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.IsPersonal, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrTeamNotFound
		}
		return Team{}, fmt.Errorf("failed to scan team: %w", err)
	}
	return t, nil
}

// Create persists a new team.
func (r *PostgresRepository) Create(ctx context.Context, t Team) (Team, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO teams (name, is_personal, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING `+teamColumns,
		t.Name, t.IsPersonal, t.UserID)
	return scanTeam(row)
}

// GetByID returns the team with the given id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (Team, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	return scanTeam(row)
}

// ListByUser returns all teams owned by the user, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Team, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, `SELECT `+teamColumns+` FROM teams WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// UpdateName renames a team, scoped to its owner.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, userID int64, name string) error {
	tag, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE teams SET name = $3, updated_at = now() WHERE id = $1 AND user_id = $2`, id, userID, name)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}
	return nil
}
