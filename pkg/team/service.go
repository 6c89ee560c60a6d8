package team

import (
	"context"
	"fmt"
	"log/slog"
)

// Service implements team operations.
type Service struct {
	repo Repository
}

// NewService creates a new team service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePersonal provisions the user's personal team. Called from the
// email-verification transaction so a verified user is never teamless.
func (s *Service) CreatePersonal(ctx context.Context, userID int64) (Team, error) {
	t, err := s.repo.Create(ctx, Team{
		Name:       PersonalTeamName,
		IsPersonal: true,
		UserID:     userID,
	})
	if err != nil {
		slog.Error("Failed to create personal team", "user_id", userID, "err", err)
		return Team{}, fmt.Errorf("failed to create personal team: %w", err)
	}
	return t, nil
}

// Get returns all teams owned by the user.
func (s *Service) Get(ctx context.Context, userID int64) ([]Team, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetOne returns a single team by id.
func (s *Service) GetOne(ctx context.Context, teamID int64) (Team, error) {
	return s.repo.GetByID(ctx, teamID)
}

// Create adds a non-personal team owned by the user.
func (s *Service) Create(ctx context.Context, userID int64, name string) (Team, error) {
	return s.repo.Create(ctx, Team{
		Name:       name,
		IsPersonal: false,
		UserID:     userID,
	})
}

// Update renames a team if the user owns it.
func (s *Service) Update(ctx context.Context, id, userID int64, name string) error {
	return s.repo.UpdateName(ctx, id, userID, name)
}
