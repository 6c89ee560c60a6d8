package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"

	"github.com/jdwly/platform/pkg/rpc"
	"github.com/jdwly/platform/pkg/tokengenerator"
)

// contextKey is a value for use with context.WithValue. It's used as a
// pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "auth context value " + k.name
}

var userIDKey = &contextKey{"userID"}

// WithUserID injects the resolved user id into the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the resolved user id injected by the authenticated gate.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Verdict is the tagged result of a gate: either an allow carrying the
// (possibly grown) context, or a deny carrying the error to surface.
type Verdict struct {
	Ctx context.Context
	Err *rpc.Error
}

// Allow passes the request through with the given context.
func Allow(ctx context.Context) Verdict {
	return Verdict{Ctx: ctx}
}

// Deny rejects the request with a typed error.
func Deny(code rpc.Code, message string) Verdict {
	return Verdict{Err: rpc.NewError(code, message)}
}

// Gate is one authorization predicate. Gates compose in order; each sees
// the context produced by the previous one.
type Gate func(w http.ResponseWriter, r *http.Request) Verdict

// Chain composes gates into middleware. The first deny wins and is
// rendered as the procedure error.
func Chain(gates ...Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, gate := range gates {
				verdict := gate(w, r)
				if verdict.Err != nil {
					rpc.RenderError(w, r, verdict.Err)
					return
				}
				r = r.WithContext(verdict.Ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Gatekeeper builds the authorization gates. The chain is
// public -> authenticated -> admin; no transition reverses except by
// re-issuing tokens through refresh.
type Gatekeeper struct {
	ja      *jwtauth.JWTAuth
	tokens  *tokengenerator.TokenService
	authSvc *Service
}

// NewGatekeeper creates a Gatekeeper verifying tokens with the given
// process-wide secret.
func NewGatekeeper(secret string, tokens *tokengenerator.TokenService, authSvc *Service) *Gatekeeper {
	return &Gatekeeper{
		ja:      jwtauth.New("HS256", []byte(secret), nil),
		tokens:  tokens,
		authSvc: authSvc,
	}
}

// Authenticated requires a valid access-token cookie. On success the
// resolved user id is injected into the context; on any failure the
// session cookies are cleared before the deny surfaces.
func (g *Gatekeeper) Authenticated() Gate {
	return func(w http.ResponseWriter, r *http.Request) Verdict {
		cookie, err := r.Cookie(tokengenerator.AccessTokenName)
		if err != nil || cookie.Value == "" {
			g.tokens.ClearTokenCookies(w)
			return Deny(rpc.CodeUnauthorized, "")
		}

		token, err := jwtauth.VerifyToken(g.ja, cookie.Value)
		if err != nil {
			slog.Debug("Access token rejected", "err", err)
			g.tokens.ClearTokenCookies(w)
			return Deny(rpc.CodeUnauthorized, "")
		}

		userID, err := strconv.ParseInt(token.Subject(), 10, 64)
		if err != nil {
			g.tokens.ClearTokenCookies(w)
			return Deny(rpc.CodeUnauthorized, "")
		}

		return Allow(WithUserID(r.Context(), userID))
	}
}

// Admin requires the authenticated user's admin flag to be set on the
// stored record at call time, never trusting token claims.
func (g *Gatekeeper) Admin() Gate {
	return func(w http.ResponseWriter, r *http.Request) Verdict {
		userID, ok := UserID(r.Context())
		if !ok {
			// Unreachable when composed after Authenticated.
			return Deny(rpc.CodeUnauthorized, "")
		}

		u, err := g.authSvc.ResolveUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				// An authenticated id that no longer resolves is a
				// consistency violation, not a credential problem.
				slog.Error("Authenticated user no longer exists", "user_id", userID)
				return Deny(rpc.CodeInternal, "")
			}
			return Deny(rpc.CodeInternal, "")
		}

		if !u.IsAdmin {
			return Deny(rpc.CodeUnauthorized, "")
		}
		return Allow(r.Context())
	}
}
