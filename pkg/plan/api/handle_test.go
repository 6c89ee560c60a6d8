package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwly/platform/pkg/auth"
	"github.com/jdwly/platform/pkg/database"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/plan"
	"github.com/jdwly/platform/pkg/team"
	"github.com/jdwly/platform/pkg/tokengenerator"
	"github.com/jdwly/platform/pkg/user"
)

type testServer struct {
	router chi.Router
	users  *user.InMemoryRepository
	plans  *plan.InMemoryRepository
	tokens *tokengenerator.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := user.NewInMemoryRepository()
	plans := plan.NewInMemoryRepository()
	teams := team.NewService(team.NewInMemoryRepository())
	codes := otp.NewService(otp.NewInMemoryRepository())

	authService := auth.NewService(users, teams, codes, auth.NewBcryptHasher(4), nil, database.NopTransactor{})
	planService := plan.NewService(plans)
	tokens := tokengenerator.NewTokenService(
		tokengenerator.NewJwtTokenGenerator("test-secret", "jdwly", "jdwly"),
	)
	handle := NewHandle(planService)
	gk := auth.NewGatekeeper("test-secret", tokens, authService)

	r := chi.NewRouter()
	r.Route("/rpc", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Chain(gk.Authenticated()))
			handle.Routes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.Chain(gk.Authenticated(), gk.Admin()))
			handle.AdminRoutes(r)
		})
	})
	return &testServer{router: r, users: users, plans: plans, tokens: tokens}
}

func (ts *testServer) seedUser(t *testing.T, email string, isAdmin bool) *http.Cookie {
	t.Helper()

	u, err := ts.users.Create(context.Background(), user.User{
		Email:         email,
		Name:          "A",
		EmailVerified: true,
		IsAdmin:       isAdmin,
		Locale:        "en",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	pair, err := ts.tokens.IssueAndSetCookies(w, u.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: tokengenerator.AccessTokenName, Value: pair.AccessToken}
}

func (ts *testServer) call(t *testing.T, procedure string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/rpc/"+procedure, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestAdminGate(t *testing.T) {
	createBody := map[string]any{"name": "pro", "price": 200, "defaultUsers": 10, "pricePerUser": 20}

	t.Run("AdminCanCreate", func(t *testing.T) {
		ts := newTestServer(t)
		admin := ts.seedUser(t, "admin@x.com", true)

		w := ts.call(t, "plans.create", createBody, admin)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("NonAdminDenied", func(t *testing.T) {
		ts := newTestServer(t)
		member := ts.seedUser(t, "member@x.com", false)

		w := ts.call(t, "plans.create", createBody, member)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnauthenticatedDenied", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.call(t, "plans.create", createBody)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AdminFlagReadAtCallTime", func(t *testing.T) {
		ts := newTestServer(t)
		admin := ts.seedUser(t, "admin@x.com", true)

		// Revoking the flag takes effect immediately, even for an already
		// issued session.
		require.NoError(t, ts.users.SetAdmin(context.Background(), 1, false))

		w := ts.call(t, "plans.create", createBody, admin)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPlanEndpoints(t *testing.T) {
	t.Run("ReadRequiresAuthentication", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.call(t, "plans.read", map[string]any{"planId": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("CreateThenRead", func(t *testing.T) {
		ts := newTestServer(t)
		admin := ts.seedUser(t, "admin@x.com", true)

		w := ts.call(t, "plans.create", map[string]any{"name": "pro", "price": 200, "defaultUsers": 10, "pricePerUser": 20}, admin)
		require.Equal(t, http.StatusOK, w.Code)

		var created PlanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		w = ts.call(t, "plans.read", map[string]any{"planId": created.ID}, admin)
		require.Equal(t, http.StatusOK, w.Code)

		var got PlanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, created, got)
	})

	t.Run("ReadUnknownPlan", func(t *testing.T) {
		ts := newTestServer(t)
		session := ts.seedUser(t, "a@x.com", false)

		w := ts.call(t, "plans.read", map[string]any{"planId": 9999}, session)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		ts := newTestServer(t)
		admin := ts.seedUser(t, "admin@x.com", true)

		w := ts.call(t, "plans.create", map[string]any{"name": "pro", "price": 200, "defaultUsers": 10, "pricePerUser": 20}, admin)
		require.Equal(t, http.StatusOK, w.Code)
		var created PlanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		w = ts.call(t, "plans.update", map[string]any{"planId": created.ID, "price": 250}, admin)
		require.Equal(t, http.StatusOK, w.Code)

		var updated PlanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, int64(250), updated.Price)
		assert.Equal(t, "pro", updated.Name)
	})

	t.Run("CalculateUpgradePrice", func(t *testing.T) {
		ts := newTestServer(t)
		session := ts.seedUser(t, "a@x.com", false)
		ctx := context.Background()

		current, err := ts.plans.CreatePlan(ctx, plan.Plan{Name: "basic", Price: 100})
		require.NoError(t, err)
		target, err := ts.plans.CreatePlan(ctx, plan.Plan{Name: "pro", Price: 200})
		require.NoError(t, err)
		sub, err := ts.plans.CreateSubscription(ctx, plan.Subscription{UserID: 1, PlanID: current.ID, IsActive: true})
		require.NoError(t, err)
		order, err := ts.plans.CreateOrder(ctx, plan.Order{SubscriptionID: sub.ID})
		require.NoError(t, err)
		_, err = ts.plans.CreateActivation(ctx, plan.Activation{OrderID: order.ID, ExpiresAt: time.Now().Add(15 * 24 * time.Hour)})
		require.NoError(t, err)

		w := ts.call(t, "plans.calculateUpgradePrice", map[string]any{
			"currentSubscriptionId": sub.ID, "newPlanId": target.ID,
		}, session)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp CalculateUpgradePriceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Greater(t, resp.ProratedPrice, 0.0)
	})
}
