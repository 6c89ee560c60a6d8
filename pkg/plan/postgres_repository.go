package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jdwly/platform/pkg/database"
)

// PostgresRepository implements Repository backed by Postgres.
type PostgresRepository struct {
	db *database.Pool
}

// NewPostgresRepository creates a new Postgres plan repository.
func NewPostgresRepository(db *database.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const planColumns = `id, name, price, default_users, price_per_user, created_at, updated_at`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DefaultUsers, &p.PricePerUser, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, fmt.Errorf("failed to scan plan: %w", err)
	}
	return p, nil
}

// CreatePlan persists a new plan.
func (r *PostgresRepository) CreatePlan(ctx context.Context, p Plan) (Plan, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO plans (name, price, default_users, price_per_user, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+planColumns,
		p.Name, p.Price, p.DefaultUsers, p.PricePerUser)
	return scanPlan(row)
}

// GetPlan returns the plan with the given id.
func (r *PostgresRepository) GetPlan(ctx context.Context, id int64) (Plan, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	return scanPlan(row)
}

// UpdatePlan applies the non-nil fields of the update. COALESCE keeps
// the stored value where the field is nil.
func (r *PostgresRepository) UpdatePlan(ctx context.Context, id int64, update PlanUpdate) (Plan, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, `
		UPDATE plans SET
			name = COALESCE($2, name),
			price = COALESCE($3, price),
			default_users = COALESCE($4, default_users),
			price_per_user = COALESCE($5, price_per_user),
			updated_at = now()
		WHERE id = $1
		RETURNING `+planColumns,
		id, update.Name, update.Price, update.DefaultUsers, update.PricePerUser)
	return scanPlan(row)
}

// GetActiveSubscription returns the subscription with the given id if
// it is active.
func (r *PostgresRepository) GetActiveSubscription(ctx context.Context, id int64) (Subscription, error) {
	var s Subscription
	err := r.db.Conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, plan_id, is_active, created_at, updated_at
		FROM subscriptions
		WHERE id = $1 AND is_active = true`, id).
		Scan(&s.ID, &s.UserID, &s.PlanID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrNoActiveSubscription
		}
		return Subscription{}, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return s, nil
}

// CreateSubscription persists a new subscription.
func (r *PostgresRepository) CreateSubscription(ctx context.Context, s Subscription) (Subscription, error) {
	err := r.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, plan_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, created_at, updated_at`,
		s.UserID, s.PlanID, s.IsActive).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}
	return s, nil
}

// CreateOrder persists a new order.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o Order) (Order, error) {
	err := r.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO orders (subscription_id, created_at)
		VALUES ($1, now())
		RETURNING id, created_at`,
		o.SubscriptionID).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

// CreateActivation persists a new activation.
func (r *PostgresRepository) CreateActivation(ctx context.Context, a Activation) (Activation, error) {
	err := r.db.Conn(ctx).QueryRow(ctx, `
		INSERT INTO subscription_activations (order_id, expires_at, created_at)
		VALUES ($1, $2, now())
		RETURNING id, created_at`,
		a.OrderID, a.ExpiresAt).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Activation{}, fmt.Errorf("failed to create activation: %w", err)
	}
	return a, nil
}

// LatestActivation returns the activation of the subscription's most
// recent order. The left join keeps the lookup pinned to that order: an
// activation on an older order does not count.
func (r *PostgresRepository) LatestActivation(ctx context.Context, subscriptionID int64) (Activation, error) {
	var (
		id        *int64
		orderID   *int64
		expiresAt *time.Time
		createdAt *time.Time
	)
	err := r.db.Conn(ctx).QueryRow(ctx, `
		SELECT sa.id, sa.order_id, sa.expires_at, sa.created_at
		FROM orders o
		LEFT JOIN subscription_activations sa ON sa.order_id = o.id
		WHERE o.subscription_id = $1
		ORDER BY o.created_at DESC
		LIMIT 1`, subscriptionID).
		Scan(&id, &orderID, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activation{}, ErrNoActivation
		}
		return Activation{}, fmt.Errorf("failed to scan activation: %w", err)
	}
	if id == nil {
		return Activation{}, ErrNoActivation
	}
	return Activation{ID: *id, OrderID: *orderID, ExpiresAt: *expiresAt, CreatedAt: *createdAt}, nil
}
