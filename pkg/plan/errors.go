package plan

import "errors"

var (
	// ErrPlanNotFound is returned when no plan matches the lookup.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrNoActiveSubscription is returned when the subscription is
	// missing or inactive.
	ErrNoActiveSubscription = errors.New("no active subscription found")
	// ErrNotAnUpgrade is returned when the target plan is not more
	// expensive than the current one.
	ErrNotAnUpgrade = errors.New("can only upgrade to a more expensive plan")
	// ErrSubscriptionExpired is returned when the paid-through date has
	// passed.
	ErrSubscriptionExpired = errors.New("subscription has expired")
	// ErrNoActivation means an active subscription's latest order has no
	// activation row. That is a data consistency violation, not a caller
	// mistake.
	ErrNoActivation = errors.New("no subscription activation found")
)
