package team

import (
	"context"
	"errors"
	"time"
)

// PersonalTeamName is the name of the team auto-provisioned on email
// verification.
const PersonalTeamName = "Personal"

var (
	// ErrTeamNotFound is returned when no team matches the lookup.
	ErrTeamNotFound = errors.New("team not found")
)

// Team is a group of users owned by one account. Every verified user
// owns exactly one personal team.
type Team struct {
	ID         int64
	Name       string
	IsPersonal bool
	UserID     int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository handles persistence for teams.
type Repository interface {
	// Create persists a new team.
	Create(ctx context.Context, t Team) (Team, error)

	// GetByID returns the team with the given id.
	GetByID(ctx context.Context, id int64) (Team, error)

	// ListByUser returns all teams owned by the user.
	ListByUser(ctx context.Context, userID int64) ([]Team, error)

	// UpdateName renames a team, scoped to its owner.
	UpdateName(ctx context.Context, id, userID int64, name string) error
}
