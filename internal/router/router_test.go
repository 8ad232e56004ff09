package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/invest-payout-engine/config"
	"github.com/oksasatya/invest-payout-engine/internal/container"
	"github.com/oksasatya/invest-payout-engine/internal/interface/middleware"
	"github.com/oksasatya/invest-payout-engine/internal/router"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
	"github.com/oksasatya/invest-payout-engine/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validation.Init()
	helpers.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// newServer wires the full route table on top of a fresh in-memory ledger.
func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		AppName:          "test",
		Env:              "test",
		LedgerBackend:    "memory",
		LockBackend:      "memory",
		MinInvestment:    50000,
		PayoutTimezone:   "UTC",
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       time.Hour,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(nil)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))
	if err := container.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	reg := router.NewRegistry(r, logger)
	router.InitModules(reg)
	reg.RegisterAll()
	return r
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func login(t *testing.T, r http.Handler, email, password string) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		t.Fatalf("login %s: no access token in %s", email, env.Data)
	}
	return data.AccessToken
}

func signupAndLogin(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w, _ := do(t, r, http.MethodPost, "/api/signup", "", map[string]string{"name": "Investor", "email": email, "password": "s3cret-pass"})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: %d %s", email, w.Code, w.Body.String())
	}
	return login(t, r, email, "s3cret-pass")
}

func adminToken(t *testing.T, r http.Handler) string {
	t.Helper()
	if _, err := container.GetAccountService().CreateAdmin(context.Background(), "Root", "root@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return login(t, r, "root@example.com", "admin-pass-1")
}

func createInvestment(t *testing.T, r http.Handler, token string, amount int64) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/investments", token, map[string]any{"amount": amount})
	if w.Code != http.StatusCreated {
		t.Fatalf("create investment: %d %s", w.Code, w.Body.String())
	}
	var inv struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &inv)
	return inv.ID
}

func TestHealth(t *testing.T) {
	r := newServer(t)
	w, env := do(t, r, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
	if env.RequestID == "" || w.Header().Get("X-Request-ID") != env.RequestID {
		t.Fatalf("request id not echoed: header=%q body=%q", w.Header().Get("X-Request-ID"), env.RequestID)
	}
}

func TestSignupValidation(t *testing.T) {
	r := newServer(t)
	w, _ := do(t, r, http.MethodPost, "/api/signup", "", map[string]string{"name": "x", "email": "not-an-email", "password": "short"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}

	signupAndLogin(t, r, "dup@example.com")
	w, _ = do(t, r, http.MethodPost, "/api/signup", "", map[string]string{"name": "x", "email": "DUP@example.com", "password": "s3cret-pass"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: want 409, got %d", w.Code)
	}

	w, _ = do(t, r, http.MethodPost, "/api/login", "", map[string]string{"email": "dup@example.com", "password": "wrong-pass"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: want 401, got %d", w.Code)
	}
}

func TestInvestorFlow(t *testing.T) {
	r := newServer(t)
	token := signupAndLogin(t, r, "ada@example.com")

	if w, _ := do(t, r, http.MethodGet, "/api/investments", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: want 401, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/investments", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want 401, got %d", w.Code)
	}

	if w, _ := do(t, r, http.MethodPost, "/api/investments", token, map[string]any{"amount": 49999}); w.Code != http.StatusBadRequest {
		t.Fatalf("below minimum: want 400, got %d", w.Code)
	}
	createInvestment(t, r, token, 100000)
	createInvestment(t, r, token, 200000)

	w, env := do(t, r, http.MethodGet, "/api/investments", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var list []map[string]any
	_ = json.Unmarshal(env.Data, &list)
	if len(list) != 2 {
		t.Fatalf("want 2 investments, got %d", len(list))
	}

	w, env = do(t, r, http.MethodGet, "/api/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", w.Code)
	}
	var dash struct {
		TotalInvested     int64 `json:"total_invested"`
		ActiveInvestments int   `json:"active_investments"`
		MonthlyIncome     int64 `json:"monthly_income"`
	}
	_ = json.Unmarshal(env.Data, &dash)
	if dash.TotalInvested != 300000 || dash.ActiveInvestments != 2 || dash.MonthlyIncome != 9000 {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}

	w, env = do(t, r, http.MethodGet, "/api/profile", token, nil)
	if w.Code != http.StatusOK || bytes.Contains(env.Data, []byte("password")) {
		t.Fatalf("profile: %d %s", w.Code, env.Data)
	}
}

func TestQuote(t *testing.T) {
	r := newServer(t)
	w, env := do(t, r, http.MethodGet, "/api/plans/quote?amount=100000", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("quote: %d", w.Code)
	}
	var q struct {
		TotalReturns int64 `json:"total_returns"`
	}
	_ = json.Unmarshal(env.Data, &q)
	if q.TotalReturns != 126000 {
		t.Fatalf("total returns: want 126000, got %d", q.TotalReturns)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/plans/quote?amount=abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: want 400, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := newServer(t)
	token := signupAndLogin(t, r, "ada@example.com")
	if w, _ := do(t, r, http.MethodGet, "/api/admin/investments", token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("investor on admin route: want 403, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/admin/investments", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous on admin route: want 401, got %d", w.Code)
	}
}

func TestAdminLifecycle(t *testing.T) {
	r := newServer(t)
	investor := signupAndLogin(t, r, "ada@example.com")
	admin := adminToken(t, r)
	id := createInvestment(t, r, investor, 100000)

	w, env := do(t, r, http.MethodGet, "/api/admin/investments", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list: %d", w.Code)
	}
	var all []struct {
		ID         string `json:"id"`
		OwnerEmail string `json:"owner_email"`
	}
	_ = json.Unmarshal(env.Data, &all)
	if len(all) != 1 || all[0].ID != id {
		t.Fatalf("admin list: %s", env.Data)
	}

	if w, _ := do(t, r, http.MethodPut, "/api/admin/investments/"+id+"/status", admin, map[string]string{"status": "frozen"}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: want 400, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPut, "/api/admin/investments/"+id+"/status", admin, map[string]string{"status": "paused"}); w.Code != http.StatusOK {
		t.Fatalf("pause: %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/admin/investments/"+id+"/payout", admin, nil); w.Code != http.StatusConflict {
		t.Fatalf("payout while paused: want 409, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPut, "/api/admin/investments/"+id+"/status", admin, map[string]string{"status": "active"}); w.Code != http.StatusOK {
		t.Fatalf("resume: %d", w.Code)
	}

	var last struct {
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	for i := 1; i <= 36; i++ {
		w, env := do(t, r, http.MethodPost, "/api/admin/investments/"+id+"/payout", admin, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("payout %d: %d %s", i, w.Code, w.Body.String())
		}
		_ = json.Unmarshal(env.Data, &last)
	}
	if last.Amount != 4000 || last.Status != "completed" {
		t.Fatalf("final payout: %+v", last)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/admin/investments/"+id+"/payout", admin, nil); w.Code != http.StatusConflict {
		t.Fatalf("payout after completion: want 409, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPut, "/api/admin/investments/"+id+"/status", admin, map[string]string{"status": "active"}); w.Code != http.StatusConflict {
		t.Fatalf("reactivate completed: want 409, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/admin/investments/missing/payout", admin, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing investment: want 404, got %d", w.Code)
	}
}

func TestAdminOptionalFeaturesUnavailable(t *testing.T) {
	r := newServer(t)
	admin := adminToken(t, r)
	if w, _ := do(t, r, http.MethodGet, "/api/admin/investments/search?q=ada", admin, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("search without elasticsearch: want 503, got %d", w.Code)
	}

	w, env := do(t, r, http.MethodPost, "/api/admin/reconcile", admin, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("reconcile: %d %s", w.Code, w.Body.String())
	}
	w, _ = do(t, r, http.MethodPost, "/api/admin/payouts/sweep", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sweep: %d", w.Code)
	}
}

func TestLogoutAndRefresh(t *testing.T) {
	r := newServer(t)
	signupAndLogin(t, r, "ada@example.com")

	_, env := do(t, r, http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "s3cret-pass"})
	var pair struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.Unmarshal(env.Data, &pair)

	w, _ := do(t, r, http.MethodPost, "/api/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, r, http.MethodPost, "/api/refresh", "", map[string]string{"refresh_token": "bogus"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bogus refresh: want 401, got %d", w.Code)
	}
}
