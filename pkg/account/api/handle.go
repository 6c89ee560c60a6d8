package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jinzhu/copier"

	"github.com/jdwly/platform/pkg/account"
	"github.com/jdwly/platform/pkg/auth"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/rpc"
	"github.com/jdwly/platform/pkg/tokengenerator"
	"github.com/jdwly/platform/pkg/user"
)

// Handle exposes the authenticated account procedures.
type Handle struct {
	accountService *account.Service
	tokenService   *tokengenerator.TokenService
}

// NewHandle creates a new account API handle.
func NewHandle(accountService *account.Service, tokenService *tokengenerator.TokenService) Handle {
	return Handle{
		accountService: accountService,
		tokenService:   tokenService,
	}
}

// Routes mounts the account procedures. All of them require an
// authenticated caller.
func (h Handle) Routes(r chi.Router) {
	r.Post("/account.me", h.Me)
	r.Post("/account.logout", h.Logout)
	r.Post("/account.passwordChange", h.PasswordChange)
	r.Post("/account.emailChangeRequest", h.EmailChangeRequest)
	r.Post("/account.emailChangeVerify", h.EmailChangeVerify)
	r.Post("/account.generalDetailsChange", h.GeneralDetailsChange)
}

// MeResponse is the caller's own profile. The password hash never
// leaves the service layer.
type MeResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	IsAdmin       bool      `json:"isAdmin"`
	Locale        string    `json:"locale"`
	Timezone      *string   `json:"timezone"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Me handles POST /rpc/account.me.
func (h Handle) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}

	u, err := h.accountService.Me(r.Context(), userID)
	if err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	var resp MeResponse
	if err := copier.Copy(&resp, &u); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	rpc.JSON(w, r, resp)
}

// Logout handles POST /rpc/account.logout. It clears both session
// cookies; the tokens themselves simply age out.
func (h Handle) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokenService.ClearTokenCookies(w)
	rpc.Success(w, r)
}

type PasswordChangeRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

// PasswordChange handles POST /rpc/account.passwordChange.
func (h Handle) PasswordChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req PasswordChangeRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	if req.NewPassword == "" {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, "new password is required"))
		return
	}

	err := h.accountService.ChangePassword(r.Context(), userID, req.Password, req.NewPassword)
	if err != nil {
		if errors.Is(err, account.ErrWrongPassword) {
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, ""))
			return
		}
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}

type EmailChangeRequestRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailChangeRequest handles POST /rpc/account.emailChangeRequest.
func (h Handle) EmailChangeRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req EmailChangeRequestRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	err := h.accountService.RequestEmailChange(r.Context(), userID, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrWrongPassword), errors.Is(err, account.ErrEmailTaken):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, ""))
		case errors.Is(err, user.ErrUserNotFound):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeNotFound, ""))
		default:
			rpc.RenderError(w, r, err)
		}
		return
	}
	rpc.Success(w, r)
}

type EmailChangeVerifyRequest struct {
	OtpCode string `json:"otpCode"`
}

// EmailChangeVerify handles POST /rpc/account.emailChangeVerify.
func (h Handle) EmailChangeVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req EmailChangeVerifyRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	err := h.accountService.VerifyEmailChange(r.Context(), userID, req.OtpCode)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNoActiveCode),
			errors.Is(err, otp.ErrCodeMismatch),
			errors.Is(err, account.ErrEmailTaken):
			rpc.RenderError(w, r, rpc.NewError(rpc.CodeBadRequest, ""))
		default:
			rpc.RenderError(w, r, err)
		}
		return
	}
	rpc.Success(w, r)
}

type GeneralDetailsChangeRequest struct {
	Locale   string  `json:"locale"`
	Timezone *string `json:"timezone"`
}

// GeneralDetailsChange handles POST /rpc/account.generalDetailsChange.
func (h Handle) GeneralDetailsChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		rpc.RenderError(w, r, rpc.NewError(rpc.CodeUnauthorized, ""))
		return
	}
	var req GeneralDetailsChangeRequest
	if err := rpc.Decode(r, &req); err != nil {
		rpc.RenderError(w, r, err)
		return
	}

	if err := h.accountService.UpdateGeneralDetails(r.Context(), userID, req.Locale, req.Timezone); err != nil {
		rpc.RenderError(w, r, err)
		return
	}
	rpc.Success(w, r)
}
