package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jdwly/platform/pkg/auth"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/rpc"
	"github.com/jdwly/platform/pkg/tokengenerator"
)

// Handle exposes the public auth procedures.
type Handle struct {
	authService  *auth.Service
	tokenService *tokengenerator.TokenService
}

// NewHandle creates a new auth API handle.
func NewHandle(authService *auth.Service, tokenService *tokengenerator.TokenService) Handle {
	return Handle{
		authService:  authService,
		tokenService: tokenService,
	}
}

// Routes mounts the auth procedures. All of them are public.
func (h Handle) Routes(r chi.Router) {
	r.Post("/auth.register", h.Register)
	r.Post("/auth.login", h.Login)
	r.Post("/auth.refresh", h.Refresh)
	r.Post("/auth.emailVerifyRequest", h.EmailVerifyRequest)
	r.Post("/auth.emailVerifySubmit", h.EmailVerifySubmit)
	r.Post("/auth.passwordResetRequest", h.PasswordResetRequest)
	r.Post("/auth.passwordResetSubmit", h.PasswordResetSubmit)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
	Locale   string `json:"locale"`
}

// Register handles POST /rpc/auth.register.
func (h Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, "name, email and password are required"))
		return
	}

	err := h.authService.Register(r.Context(), auth.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Timezone: req.Timezone,
		Locale:   req.Locale,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, ""))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /rpc/auth.login. On success both session cookies
// are set.
func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	u, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Absent, unverified and wrong-password all collapse into one
		// NOT_FOUND so accounts cannot be enumerated.
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
		return
	}

	if _, err := h.tokenService.IssueAndSetCookies(w, u.ID); err != nil {
		slog.Error("Failed to issue tokens", "user_id", u.ID, "err", err)
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}

// Refresh handles POST /rpc/auth.refresh. Any failure clears both
// session cookies and surfaces UNAUTHORIZED; refresh never partially
// succeeds.
func (h Handle) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, err := h.refreshUserID(r)
	if err != nil {
		h.tokenService.ClearTokenCookies(w)
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}

	if _, err := h.tokenService.IssueAndSetCookies(w, userID); err != nil {
		h.tokenService.ClearTokenCookies(w)
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	rpc.Success(w, r)
}

func (h Handle) refreshUserID(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(tokengenerator.RefreshTokenName)
	if err != nil {
		return 0, err
	}
	userID, err := h.tokenService.ParseToken(cookie.Value)
	if err != nil {
		return 0, err
	}
	// The user must still exist; a deleted user's refresh token is dead.
	if _, err := h.authService.ResolveUser(r.Context(), userID); err != nil {
		return 0, err
	}
	return userID, nil
}

type EmailVerifyRequestRequest struct {
	Email string `json:"email"`
}

// EmailVerifyRequest handles POST /rpc/auth.emailVerifyRequest.
func (h Handle) EmailVerifyRequest(w http.ResponseWriter, r *http.Request) {
	var req EmailVerifyRequestRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	if err := h.authService.RequestEmailVerification(r.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}

type EmailVerifySubmitRequest struct {
	Email   string `json:"email"`
	OtpCode string `json:"otpCode"`
}

type EmailVerifySubmitResponse struct {
	Success bool  `json:"success"`
	TeamID  int64 `json:"teamId"`
}

// EmailVerifySubmit handles POST /rpc/auth.emailVerifySubmit. A valid
// code verifies the user, provisions their personal team and logs them
// in.
func (h Handle) EmailVerifySubmit(w http.ResponseWriter, r *http.Request) {
	var req EmailVerifySubmitRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	result, err := h.authService.SubmitEmailVerification(r.Context(), req.Email, req.OtpCode)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNoActiveCode),
			errors.Is(err, otp.ErrTooManyAttempts),
			errors.Is(err, otp.ErrCodeMismatch):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, ""))
		default:
			rpc.RenderError(w, r, err)
		}
		return
	}

	if _, err := h.tokenService.IssueAndSetCookies(w, result.UserID); err != nil {
		slog.Error("Failed to issue tokens", "user_id", result.UserID, "err", err)
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, EmailVerifySubmitResponse{Success: true, TeamID: result.TeamID})
}

type PasswordResetRequestRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest handles POST /rpc/auth.passwordResetRequest.
func (h Handle) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequestRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}

type PasswordResetSubmitRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// PasswordResetSubmit handles POST /rpc/auth.passwordResetSubmit.
func (h Handle) PasswordResetSubmit(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetSubmitRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	err := h.authService.SubmitPasswordReset(r.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrResetTokenNotFound):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
		default:
			rpc.RenderError(w, r, err)
		}
		return
	}
	rpc.Success(w, r)
}
