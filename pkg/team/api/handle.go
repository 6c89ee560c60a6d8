package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jdwly/platform/pkg/auth"
	"github.com/jdwly/platform/pkg/rpc"
	"github.com/jdwly/platform/pkg/team"
)

// Handle exposes the authenticated team procedures.
type Handle struct {
	teamService *team.Service
}

// NewHandle creates a new team API handle.
func NewHandle(teamService *team.Service) Handle {
	return Handle{teamService: teamService}
}

// Routes mounts the team procedures.
func (h Handle) Routes(r chi.Router) {
	r.Post("/teams.get", h.Get)
	r.Post("/teams.getOne", h.GetOne)
	r.Post("/teams.create", h.Create)
	r.Post("/teams.update", h.Update)
}

type TeamResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	IsPersonal bool      `json:"isPersonal"`
	UserID     int64     `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toTeamResponse(t team.Team) TeamResponse {
	return TeamResponse{
		ID:         t.ID,
		Name:       t.Name,
		IsPersonal: t.IsPersonal,
		UserID:     t.UserID,
		CreatedAt:  t.CreatedAt,
	}
}

// Get handles POST /rpc/teams.get. It lists the caller's teams.
func (h Handle) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}

	teams, err := h.teamService.Get(r.Context(), userID)
	if err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	resp := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		resp = append(resp, toTeamResponse(t))
	}
	rpc.JSON(w, r, resp)
}

type GetOneRequest struct {
	ID int64 `json:"id"`
}

// GetOne handles POST /rpc/teams.getOne.
func (h Handle) GetOne(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserID(r.Context()); !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req GetOneRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	t, err := h.teamService.GetOne(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, toTeamResponse(t))
}

type CreateRequest struct {
	Name string `json:"name"`
}

// Create handles POST /rpc/teams.create.
func (h Handle) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req CreateRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	if req.Name == "" {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, "name is required"))
		return
	}

	t, err := h.teamService.Create(r.Context(), userID, req.Name)
	if err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, toTeamResponse(t))
}

type UpdateRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Update handles POST /rpc/teams.update. Only the owner can rename a
// team; a non-owner gets the same NOT_FOUND as a missing team.
func (h Handle) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req UpdateRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	if req.Name == "" {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, "name is required"))
		return
	}

	if err := h.teamService.Update(r.Context(), req.ID, userID, req.Name); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}
