package team

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	teams  map[int64]Team
}

// NewInMemoryRepository creates a new in-memory team repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		teams:  make(map[int64]Team),
	}
}

// Create persists a new team.
func (r *InMemoryRepository) Create(ctx context.Context, t Team) (Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.nextID++
	r.teams[t.ID] = t
	return t, nil
}

// GetByID retrieves a team by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[id]
	if !ok {
		return Team{}, ErrTeamNotFound
	}
	return t, nil
}

// ListByUser returns all teams owned by the user, oldest first.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int64) ([]Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var teams []Team
	for _, t := range r.teams {
		if t.UserID == userID {
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// UpdateName renames a team, scoped to its owner.
func (r *InMemoryRepository) UpdateName(ctx context.Context, id, userID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[id]
	if !ok || t.UserID != userID {
		return ErrTeamNotFound
	}
	t.Name = name
	t.UpdatedAt = time.Now().UTC()
	r.teams[id] = t
	return nil
}
