package user

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage.
// Intended for tests and local development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]User
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		users:  make(map[int64]User),
	}
}

// Create persists a new user, enforcing email uniqueness.
func (r *InMemoryRepository) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return User{}, ErrEmailExists
		}
	}

	now := time.Now().UTC()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.nextID++
	r.users[u.ID] = u
	return u, nil
}

// GetByID retrieves a user by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// MarkEmailVerified flips the verified flag on.
func (r *InMemoryRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.update(id, func(u *User) {
		u.EmailVerified = true
	})
}

// UpdateEmail replaces the user's email, enforcing uniqueness like the
// database constraint does.
func (r *InMemoryRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == email && existing.ID != id {
			return ErrEmailExists
		}
	}

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *InMemoryRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	return r.update(id, func(u *User) {
		u.HashedPassword = &hashedPassword
	})
}

// UpdateGeneralDetails updates locale and timezone.
func (r *InMemoryRepository) UpdateGeneralDetails(ctx context.Context, id int64, locale string, timezone *string) error {
	return r.update(id, func(u *User) {
		u.Locale = locale
		u.Timezone = timezone
	})
}

// SetAdmin toggles the admin flag.
func (r *InMemoryRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return r.update(id, func(u *User) {
		u.IsAdmin = isAdmin
	})
}

func (r *InMemoryRepository) update(id int64, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}
