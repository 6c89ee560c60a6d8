package plan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// prorationPeriodDays is the billing period the upgrade price is
// prorated against.
const prorationPeriodDays = 30

// Service covers plan reads, admin plan management and upgrade
// pricing.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new plan service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns a plan by id.
func (s *Service) Read(ctx context.Context, planID int64) (Plan, error) {
	return s.repo.GetPlan(ctx, planID)
}

// Create persists a new plan.
func (s *Service) Create(ctx context.Context, p Plan) (Plan, error) {
	created, err := s.repo.CreatePlan(ctx, p)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to create plan: %w", err)
	}
	slog.Info("Plan created", "plan_id", created.ID, "name", created.Name)
	return created, nil
}

// Update applies the non-nil fields of the update to a plan.
func (s *Service) Update(ctx context.Context, planID int64, update PlanUpdate) (Plan, error) {
	return s.repo.UpdatePlan(ctx, planID, update)
}

// CalculateUpgradePrice computes the prorated cost of moving an active
// subscription to a more expensive plan. The remaining time is counted
// in whole days, rounded up, against the paid-through date of the
// subscription's latest activation.
func (s *Service) CalculateUpgradePrice(ctx context.Context, subscriptionID, newPlanID int64) (float64, error) {
	newPlan, err := s.repo.GetPlan(ctx, newPlanID)
	if err != nil {
		return 0, err
	}

	sub, err := s.repo.GetActiveSubscription(ctx, subscriptionID)
	if err != nil {
		return 0, err
	}

	currentPlan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return 0, fmt.Errorf("failed to load current plan: %w", err)
	}

	priceDifference := newPlan.Price - currentPlan.Price
	if priceDifference <= 0 {
		return 0, ErrNotAnUpgrade
	}

	activation, err := s.repo.LatestActivation(ctx, subscriptionID)
	if err != nil {
		return 0, err
	}

	remainingDays := int(math.Ceil(activation.ExpiresAt.Sub(s.now()).Hours() / 24))
	if remainingDays <= 0 {
		return 0, ErrSubscriptionExpired
	}

	return float64(priceDifference) * float64(remainingDays) / prorationPeriodDays, nil
}
