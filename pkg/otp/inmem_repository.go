package otp

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage.
// Intended for tests and local development.
type InMemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	records map[Purpose][]Record
}

// NewInMemoryRepository creates a new in-memory code repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:  1,
		records: make(map[Purpose][]Record),
	}
}

// Create persists a new record and supersedes prior live records for the
// same (user, purpose).
func (r *InMemoryRepository) Create(ctx context.Context, purpose Purpose, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for i := range r.records[purpose] {
		prior := &r.records[purpose][i]
		if prior.UserID == rec.UserID && prior.ConsumedAt == nil {
			consumed := now
			prior.ConsumedAt = &consumed
			prior.UpdatedAt = now
		}
	}

	rec.ID = r.nextID
	r.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = rec.CreatedAt
	r.records[purpose] = append(r.records[purpose], rec)
	return rec, nil
}

// Insert adds a record without superseding prior ones. Test helper for
// exercising the most-recent-wins tie-break and window expiry.
func (r *InMemoryRepository) Insert(ctx context.Context, purpose Purpose, rec Record) Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	r.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = rec.CreatedAt
	r.records[purpose] = append(r.records[purpose], rec)
	return rec
}

// LatestByEmail returns the most recent live record for the email within
// the window.
func (r *InMemoryRepository) LatestByEmail(ctx context.Context, purpose Purpose, email string, since time.Time) (Record, error) {
	return r.latest(purpose, since, func(rec Record) bool {
		return rec.Email == email
	})
}

// LatestByUser returns the most recent live record for the user within
// the window.
func (r *InMemoryRepository) LatestByUser(ctx context.Context, purpose Purpose, userID int64, since time.Time) (Record, error) {
	return r.latest(purpose, since, func(rec Record) bool {
		return rec.UserID == userID
	})
}

// FindByUserAndCode returns the live record with the exact code.
func (r *InMemoryRepository) FindByUserAndCode(ctx context.Context, purpose Purpose, userID int64, code string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.records[purpose]) - 1; i >= 0; i-- {
		rec := r.records[purpose][i]
		if rec.UserID == userID && rec.Code == code && rec.ConsumedAt == nil {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

// IncrementAttempts bumps the attempt counter under the repository lock,
// mirroring the single-statement update the Postgres repository issues.
func (r *InMemoryRepository) IncrementAttempts(ctx context.Context, purpose Purpose, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records[purpose] {
		if r.records[purpose][i].ID == id {
			r.records[purpose][i].Attempts++
			r.records[purpose][i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrRecordNotFound
}

// MarkConsumed marks the record used.
func (r *InMemoryRepository) MarkConsumed(ctx context.Context, purpose Purpose, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records[purpose] {
		if r.records[purpose][i].ID == id {
			now := time.Now().UTC()
			r.records[purpose][i].ConsumedAt = &now
			r.records[purpose][i].UpdatedAt = now
			return nil
		}
	}
	return ErrRecordNotFound
}

func (r *InMemoryRepository) latest(purpose Purpose, since time.Time, match func(Record) bool) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *Record
	for i := range r.records[purpose] {
		rec := r.records[purpose][i]
		if !match(rec) || rec.ConsumedAt != nil || rec.CreatedAt.Before(since) {
			continue
		}
		if found == nil || !rec.CreatedAt.Before(found.CreatedAt) {
			found = &r.records[purpose][i]
		}
	}
	if found == nil {
		return Record{}, ErrRecordNotFound
	}
	return *found, nil
}
