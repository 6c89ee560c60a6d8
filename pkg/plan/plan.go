package plan

import "time"

// Plan is a purchasable subscription tier. Prices are stored in the
// smallest currency unit.
type Plan struct {
	ID           int64
	Name         string
	Price        int64
	DefaultUsers int
	PricePerUser int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subscription ties a user to a plan. A user has at most one active
// subscription at a time.
type Subscription struct {
	ID        int64
	UserID    int64
	PlanID    int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order is a billing event on a subscription.
type Order struct {
	ID             int64
	SubscriptionID int64
	CreatedAt      time.Time
}

// Activation records the paid-through date an order bought.
type Activation struct {
	ID        int64
	OrderID   int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PlanUpdate carries the optional fields of plans.update. Nil means
// leave the column alone.
type PlanUpdate struct {
	Name         *string
	Price        *int64
	DefaultUsers *int
	PricePerUser *int64
}
