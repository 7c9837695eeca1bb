package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"listing-billing-be/internal/bootstrap"
	"listing-billing-be/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			CorsAllowedOrigins: "http://localhost:5173",
			JwtSecret:          testSecret,
		},
		Database: config.DatabaseConfig{Driver: "memory"},
		Infra:    config.InfraConfig{LockDriver: "local"},
		Billing: config.BillingConfig{
			InvoiceGracePeriod:  time.Hour,
			DefaultPlanStacking: "extend",
			CatalogCacheTTL:     time.Minute,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	container, err := bootstrap.NewContainer(nil, cfg)
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return New(cfg, container).GetApp()
}

func token(t *testing.T, role string, userId uuid.UUID) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func seedCatalog(t *testing.T, app *fiber.App, admin string) {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/admin/upgrades", admin, map[string]interface{}{
		"code": "bump", "name": "Bump", "price": "10000", "duration_hours": 24, "stacking_policy": "extend",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = call(t, app, http.MethodPost, "/api/admin/plans", admin, map[string]interface{}{
		"code": "premium", "name": "Premium", "level": 2,
		"variants":          []map[string]interface{}{{"days": 30, "price": "150000"}},
		"included_upgrades": []string{"bump"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
}

func TestPurchaseAndSettleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	admin := token(t, "admin", uuid.New())
	userId := uuid.New()
	user := token(t, "user", userId)
	profile := uuid.New()
	seedCatalog(t, app, admin)

	status, env := call(t, app, http.MethodGet, "/api/plans", "", nil)
	require.Equal(t, http.StatusOK, status)
	var plans struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &plans))
	assert.Equal(t, int64(1), plans.Total)

	status, env = call(t, app, http.MethodGet, "/api/plans/premium/upgrade-report", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"valid":true`)

	status, env = call(t, app, http.MethodPost, "/api/user/purchases/plan", user, map[string]interface{}{
		"profile_id": profile, "plan_code": "premium", "variant_days": 30,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var purchase struct {
		Invoice struct {
			Id          uuid.UUID `json:"id"`
			UserId      uuid.UUID `json:"user_id"`
			TotalAmount string    `json:"total_amount"`
			Status      string    `json:"status"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &purchase))
	assert.Equal(t, userId, purchase.Invoice.UserId, "purchaser comes from the token")
	assert.Equal(t, "150000", purchase.Invoice.TotalAmount)
	assert.Equal(t, "pending", purchase.Invoice.Status)

	payPath := "/api/admin/invoices/" + purchase.Invoice.Id.String() + "/pay"
	status, _ = call(t, app, http.MethodPost, payPath, user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, app, http.MethodPost, payPath, admin, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, app, http.MethodPost, payPath, admin, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Code)

	status, env = call(t, app, http.MethodGet, "/api/user/profiles/"+profile.String()+"/entitlements", user, nil)
	require.Equal(t, http.StatusOK, status)
	var ents []struct {
		Kind   string `json:"kind"`
		Code   string `json:"code"`
		Active bool   `json:"active"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ents))
	assert.Len(t, ents, 2)

	status, env = call(t, app, http.MethodPost, "/api/admin/invoices/expire-overdue", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.JSONEq(t, `{"expired":0}`, string(env.Data), "a paid invoice is never swept")

	status, env = call(t, app, http.MethodPost, "/api/admin/invoices/expire-overdue?limit=0", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
}

func TestErrorEnvelope(t *testing.T) {
	app := newTestApp(t)
	admin := token(t, "admin", uuid.New())
	user := token(t, "user", uuid.New())
	seedCatalog(t, app, admin)

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   interface{}
		status int
		code   string
	}{
		{"unknown plan", http.MethodGet, "/api/plans/ghost", "", nil, http.StatusNotFound, "NOT_FOUND"},
		{"missing token", http.MethodPost, "/api/user/purchases/plan", "", map[string]interface{}{}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid body", http.MethodPost, "/api/user/purchases/plan", user, map[string]interface{}{"profile_id": uuid.New()}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad uuid", http.MethodGet, "/api/user/invoices/not-a-uuid", user, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown coupon", http.MethodPost, "/api/coupons/quote", "", map[string]interface{}{"code": "NOPE", "base_price": "1000"}, http.StatusNotFound, "COUPON_NOT_FOUND"},
		{"unknown variant", http.MethodPost, "/api/user/purchases/plan", user, map[string]interface{}{
			"profile_id": uuid.New(), "plan_code": "premium", "variant_days": 7,
		}, http.StatusNotFound, "NOT_FOUND"},
		{"self requirement", http.MethodPost, "/api/admin/upgrades", admin, map[string]interface{}{
			"code": "loop", "name": "Loop", "price": "1", "duration_hours": 1, "stacking_policy": "extend", "requires": []string{"loop"},
		}, http.StatusUnprocessableEntity, "DEPENDENCY_CYCLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, app, tt.method, tt.path, tt.bearer, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.status, env.Status)
			assert.Equal(t, tt.code, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestCouponEndpointsAreThrottled(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Billing.CouponRateLimit = 0.01
		cfg.Billing.CouponRateBurst = 2
	})
	body := map[string]interface{}{"code": "NOPE", "base_price": "1000"}

	for i := 0; i < 2; i++ {
		status, env := call(t, app, http.MethodPost, "/api/coupons/quote", "", body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "COUPON_NOT_FOUND", env.Code)
	}

	status, env := call(t, app, http.MethodPost, "/api/coupons/apply", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Code)

	status, _ = call(t, app, http.MethodGet, "/api/plans", "", nil)
	assert.Equal(t, http.StatusOK, status, "other routes are not throttled")
}
