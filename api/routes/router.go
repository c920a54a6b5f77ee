package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlaspay/atlaspay-backend/api/controllers"
	"github.com/atlaspay/atlaspay-backend/api/middleware"
	"github.com/atlaspay/atlaspay-backend/internal/auth"
	"github.com/atlaspay/atlaspay-backend/internal/orders"
	"github.com/atlaspay/atlaspay-backend/internal/users"
	"github.com/atlaspay/atlaspay-backend/internal/wallets"
	"github.com/atlaspay/atlaspay-backend/pkg/auth/session"
	"github.com/atlaspay/atlaspay-backend/pkg/config"
	"github.com/atlaspay/atlaspay-backend/pkg/db"
	"github.com/atlaspay/atlaspay-backend/pkg/logger"
	"github.com/atlaspay/atlaspay-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the route tree wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	AuthService    auth.Service
	SignupService  auth.SignupService
	UsersRepo      *users.Repository
	WalletService  wallets.Service
	OrderService   orders.Service
	Metrics        *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	var cache controllers.Pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, cache))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(signupPolicy, deps.Redis, logg)).Post("/signup", controllers.AuthSignup(deps.SignupService, deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AdminAuthLogin(deps.AuthService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Post("/v1/auth/logout", controllers.AuthLogout(deps.AuthService, logg))

		r.Get("/v1/users/me", controllers.CurrentUser(deps.UsersRepo, logg))

		r.Route("/v1/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(deps.WalletService, logg))
			r.Post("/credit", controllers.CreditWallet(deps.WalletService, logg))
			r.Post("/debit", controllers.DebitWallet(deps.WalletService, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
			r.Get("/", controllers.ListOrders(deps.OrderService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Get("/ping", controllers.AdminPing())
	})

	return r
}
