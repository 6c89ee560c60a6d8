package plan

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage.
// Intended for tests and local development.
type InMemoryRepository struct {
	mu            sync.RWMutex
	nextID        int64
	plans         map[int64]Plan
	subscriptions map[int64]Subscription
	orders        map[int64]Order
	activations   map[int64]Activation
}

// NewInMemoryRepository creates a new in-memory plan repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:        1,
		plans:         make(map[int64]Plan),
		subscriptions: make(map[int64]Subscription),
		orders:        make(map[int64]Order),
		activations:   make(map[int64]Activation),
	}
}

func (r *InMemoryRepository) next() int64 {
	id := r.nextID
	r.nextID++
	return id
}

// CreatePlan persists a new plan.
func (r *InMemoryRepository) CreatePlan(ctx context.Context, p Plan) (Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p.ID = r.next()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.plans[p.ID] = p
	return p, nil
}

// GetPlan retrieves a plan by id.
func (r *InMemoryRepository) GetPlan(ctx context.Context, id int64) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// UpdatePlan applies the non-nil fields of the update.
func (r *InMemoryRepository) UpdatePlan(ctx context.Context, id int64, update PlanUpdate) (Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.DefaultUsers != nil {
		p.DefaultUsers = *update.DefaultUsers
	}
	if update.PricePerUser != nil {
		p.PricePerUser = *update.PricePerUser
	}
	p.UpdatedAt = time.Now().UTC()
	r.plans[id] = p
	return p, nil
}

// GetActiveSubscription retrieves a subscription by id if it is active.
func (r *InMemoryRepository) GetActiveSubscription(ctx context.Context, id int64) (Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subscriptions[id]
	if !ok || !s.IsActive {
		return Subscription{}, ErrNoActiveSubscription
	}
	return s, nil
}

// CreateSubscription persists a new subscription.
func (r *InMemoryRepository) CreateSubscription(ctx context.Context, s Subscription) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	s.ID = r.next()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.subscriptions[s.ID] = s
	return s, nil
}

// CreateOrder persists a new order.
func (r *InMemoryRepository) CreateOrder(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = r.next()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	r.orders[o.ID] = o
	return o, nil
}

// CreateActivation persists a new activation.
func (r *InMemoryRepository) CreateActivation(ctx context.Context, a Activation) (Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.next()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.activations[a.ID] = a
	return a, nil
}

// LatestActivation returns the activation of the subscription's most
// recent order.
func (r *InMemoryRepository) LatestActivation(ctx context.Context, subscriptionID int64) (Activation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Order
	for _, o := range r.orders {
		if o.SubscriptionID != subscriptionID {
			continue
		}
		o := o
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = &o
		}
	}
	if latest == nil {
		return Activation{}, ErrNoActivation
	}

	for _, a := range r.activations {
		if a.OrderID == latest.ID {
			return a, nil
		}
	}
	return Activation{}, ErrNoActivation
}
