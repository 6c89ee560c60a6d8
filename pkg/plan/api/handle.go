package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jdwly/platform/pkg/plan"
	"github.com/jdwly/platform/pkg/rpc"
)

// Handle exposes the plan procedures. Reads and upgrade pricing are
// authenticated; create and update are admin-only and mounted behind
// the admin gate by the caller.
type Handle struct {
	planService *plan.Service
}

// NewHandle creates a new plan API handle.
func NewHandle(planService *plan.Service) Handle {
	return Handle{planService: planService}
}

// Routes mounts the authenticated plan procedures.
func (h Handle) Routes(r chi.Router) {
	r.Post("/plans.read", h.Read)
	r.Post("/plans.calculateUpgradePrice", h.CalculateUpgradePrice)
}

// AdminRoutes mounts the admin-only plan procedures.
func (h Handle) AdminRoutes(r chi.Router) {
	r.Post("/plans.create", h.Create)
	r.Post("/plans.update", h.Update)
}

type PlanResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	DefaultUsers int       `json:"defaultUsers"`
	PricePerUser int64     `json:"pricePerUser"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toPlanResponse(p plan.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		DefaultUsers: p.DefaultUsers,
		PricePerUser: p.PricePerUser,
		CreatedAt:    p.CreatedAt,
	}
}

type ReadRequest struct {
	PlanID int64 `json:"planId"`
}

// Read handles POST /rpc/plans.read.
func (h Handle) Read(w http.ResponseWriter, r *http.Request) {
	var req ReadRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	p, err := h.planService.Read(r.Context(), req.PlanID)
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, "Plan not found"))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, toPlanResponse(p))
}

type CreateRequest struct {
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	DefaultUsers int    `json:"defaultUsers"`
	PricePerUser int64  `json:"pricePerUser"`
}

// Create handles POST /rpc/plans.create.
func (h Handle) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	if req.Name == "" {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, "name is required"))
		return
	}

	p, err := h.planService.Create(r.Context(), plan.Plan{
		Name:         req.Name,
		Price:        req.Price,
		DefaultUsers: req.DefaultUsers,
		PricePerUser: req.PricePerUser,
	})
	if err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, toPlanResponse(p))
}

type UpdateRequest struct {
	PlanID       int64   `json:"planId"`
	Name         *string `json:"name"`
	Price        *int64  `json:"price"`
	DefaultUsers *int    `json:"defaultUsers"`
	PricePerUser *int64  `json:"pricePerUser"`
}

// Update handles POST /rpc/plans.update. Absent fields are left
// unchanged.
func (h Handle) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	p, err := h.planService.Update(r.Context(), req.PlanID, plan.PlanUpdate{
		Name:         req.Name,
		Price:        req.Price,
		DefaultUsers: req.DefaultUsers,
		PricePerUser: req.PricePerUser,
	})
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, "Plan not found"))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, toPlanResponse(p))
}

type CalculateUpgradePriceRequest struct {
	CurrentSubscriptionID int64 `json:"currentSubscriptionId"`
	NewPlanID             int64 `json:"newPlanId"`
}

type CalculateUpgradePriceResponse struct {
	ProratedPrice float64 `json:"proratedPrice"`
}

// CalculateUpgradePrice handles POST /rpc/plans.calculateUpgradePrice.
func (h Handle) CalculateUpgradePrice(w http.ResponseWriter, r *http.Request) {
	var req CalculateUpgradePriceRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	price, err := h.planService.CalculateUpgradePrice(r.Context(), req.CurrentSubscriptionID, req.NewPlanID)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrPlanNotFound):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, "Plan not found"))
		case errors.Is(err, plan.ErrNoActiveSubscription):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, "No active subscription found"))
		case errors.Is(err, plan.ErrNotAnUpgrade), errors.Is(err, plan.ErrSubscriptionExpired):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, ""))
		case errors.Is(err, plan.ErrNoActivation):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeInternal, ""))
		default:
			rpc.RenderError(w, r, err)
		}
		return
	}
	rpc.JSON(w, r, CalculateUpgradePriceResponse{ProratedPrice: price})
}
