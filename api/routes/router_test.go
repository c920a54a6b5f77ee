package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/atlaspay/atlaspay-backend/internal/auth"
	"github.com/atlaspay/atlaspay-backend/internal/orders"
	"github.com/atlaspay/atlaspay-backend/internal/users"
	"github.com/atlaspay/atlaspay-backend/internal/wallets"
	pkgAuth "github.com/atlaspay/atlaspay-backend/pkg/auth"
	"github.com/atlaspay/atlaspay-backend/pkg/auth/session"
	"github.com/atlaspay/atlaspay-backend/pkg/config"
	"github.com/atlaspay/atlaspay-backend/pkg/enums"
	"github.com/atlaspay/atlaspay-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct {
	active map[string]bool
}

func (s *stubSessions) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.active == nil {
		return false, errors.New("session store unavailable")
	}
	return s.active[accessID], nil
}

func (s *stubSessions) Rotate(context.Context, string, string) (string, string, error) {
	return session.NewAccessID(), "rotated-refresh", nil
}

func (s *stubSessions) Revoke(context.Context, string) error {
	return nil
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token", RefreshToken: "refresh"}, nil
}

func (stubAuth) AdminLogin(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "admin-token", RefreshToken: "refresh"}, nil
}

func (stubAuth) Refresh(context.Context, auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return &auth.RefreshResponse{AccessToken: "new-token", RefreshToken: "new-refresh"}, nil
}

func (stubAuth) Logout(context.Context, string) error {
	return nil
}

type stubWallets struct{}

func (stubWallets) Get(_ context.Context, userID uuid.UUID) (*wallets.WalletDTO, error) {
	return &wallets.WalletDTO{UserID: userID, Balance: decimal.Zero}, nil
}

func (stubWallets) Credit(_ context.Context, req wallets.MutationRequest) (*wallets.WalletDTO, error) {
	return &wallets.WalletDTO{UserID: req.UserID, Balance: req.Amount}, nil
}

func (stubWallets) Debit(_ context.Context, req wallets.MutationRequest) (*wallets.WalletDTO, error) {
	return &wallets.WalletDTO{UserID: req.UserID, Balance: decimal.Zero}, nil
}

type stubOrders struct{}

func (stubOrders) Create(_ context.Context, req orders.CreateOrderRequest) (*orders.CreateResult, error) {
	return &orders.CreateResult{Order: &orders.OrderDTO{ID: uuid.New(), UserID: req.UserID}}, nil
}

func (stubOrders) List(context.Context, uuid.UUID, pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []orders.OrderDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "atlaspay-test", ExpirationMinutes: 10},
	}
}

func newTestRouter(t *testing.T, sessions *stubSessions) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:         testConfig(),
		SessionManager: sessions,
		AuthService:    stubAuth{},
		UsersRepo:      users.NewRepository(nil),
		WalletService:  stubWallets{},
		OrderService:   stubOrders{},
		Metrics:        prometheus.NewRegistry(),
	})
}

func mintToken(t *testing.T, role enums.UserRole, accessID string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(t, &stubSessions{active: map[string]bool{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/public/ping", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("public ping: expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health live: expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-AtlasPay-Env"); got != "test" {
		t.Fatalf("expected env header got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSessions{active: map[string]bool{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", resp.Code)
	}
}

func TestLoginRouteWired(t *testing.T) {
	router := newTestRouter(t, &stubSessions{active: map[string]bool{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"pat@example.com","password":"Secret#1"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("X-AP-Token"); got != "token" {
		t.Fatalf("expected token header got %q", got)
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, &stubSessions{active: map[string]bool{}})

	for _, target := range []string{"/api/v1/wallet", "/api/v1/orders", "/api/v1/users/me"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", target, resp.Code)
		}
	}
}

func TestAuthenticatedWalletAccess(t *testing.T) {
	accessID := session.NewAccessID()
	router := newTestRouter(t, &stubSessions{active: map[string]bool{accessID: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer, accessID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("wallet: expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestRevokedSessionRejected(t *testing.T) {
	router := newTestRouter(t, &stubSessions{active: map[string]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer, session.NewAccessID()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session got %d", resp.Code)
	}
}

func TestAdminPingRequiresAdminRole(t *testing.T) {
	accessID := session.NewAccessID()
	router := newTestRouter(t, &stubSessions{active: map[string]bool{accessID: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer, accessID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAdmin, accessID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestCreateOrderRouteWired(t *testing.T) {
	accessID := session.NewAccessID()
	router := newTestRouter(t, &stubSessions{active: map[string]bool{accessID: true}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{"amount":"10.00","currency":"USD"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer, accessID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestHealthReadyReportsDependencies(t *testing.T) {
	deps := Deps{
		Config:         testConfig(),
		DB:             stubPinger{},
		SessionManager: &stubSessions{active: map[string]bool{}},
		AuthService:    stubAuth{},
		UsersRepo:      users.NewRepository(nil),
		WalletService:  stubWallets{},
		OrderService:   stubOrders{},
	}
	router := NewRouter(deps)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}

	deps.DB = stubPinger{err: errors.New("connection refused")}
	router = NewRouter(deps)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d body %s", resp.Code, resp.Body.String())
	}
}
