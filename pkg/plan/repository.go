package plan

import "context"

// Repository handles persistence for plans, subscriptions, orders and
// activations.
type Repository interface {
	// CreatePlan persists a new plan.
	CreatePlan(ctx context.Context, p Plan) (Plan, error)

	// GetPlan returns the plan with the given id.
	GetPlan(ctx context.Context, id int64) (Plan, error)

	// UpdatePlan applies the non-nil fields of the update.
	UpdatePlan(ctx context.Context, id int64, update PlanUpdate) (Plan, error)

	// GetActiveSubscription returns the subscription with the given id
	// if it is active, ErrNoActiveSubscription otherwise.
	GetActiveSubscription(ctx context.Context, id int64) (Subscription, error)

	// CreateSubscription persists a new subscription.
	CreateSubscription(ctx context.Context, s Subscription) (Subscription, error)

	// CreateOrder persists a new order.
	CreateOrder(ctx context.Context, o Order) (Order, error)

	// CreateActivation persists a new activation.
	CreateActivation(ctx context.Context, a Activation) (Activation, error)

	// LatestActivation returns the activation of the subscription's most
	// recent order, ErrNoActivation if the order has none.
	LatestActivation(ctx context.Context, subscriptionID int64) (Activation, error)
}
