package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/passkeeper-server/internal/api/rest/handler"
	"github.com/dtroode/passkeeper-server/internal/api/rest/middleware"
	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/metrics"
	"github.com/dtroode/passkeeper-server/internal/model"
	"github.com/dtroode/passkeeper-server/internal/ratelimit"
)

// Router wires HTTP routes to handlers and middleware.
type Router struct {
	accountService handler.AccountService
	secretService  handler.SecretService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	db             handler.Pinger
	limiter        ratelimit.Limiter
	metrics        *metrics.Metrics
	logger         *logger.Logger
	trustedProxy   bool
}

// New creates a Router. limiter and metrics may be nil. trustedProxy makes the
// client address come from X-Forwarded-For / X-Real-IP; enable it only behind
// a proxy that overwrites those headers.
func New(
	accountService handler.AccountService,
	secretService handler.SecretService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	db handler.Pinger,
	limiter ratelimit.Limiter,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	trustedProxy bool,
) *Router {
	return &Router{
		accountService: accountService,
		secretService:  secretService,
		tokenService:   tokenService,
		contextManager: contextManager,
		db:             db,
		limiter:        limiter,
		metrics:        metrics,
		logger:         logger,
		trustedProxy:   trustedProxy,
	}
}

// Register builds the HTTP handler with all routes.
func (r *Router) Register() http.Handler {
	mux := chi.NewRouter()

	if r.trustedProxy {
		mux.Use(chimiddleware.RealIP)
	}
	mux.Use(chimiddleware.Recoverer)
	mux.Use(middleware.NewLogging(r.logger).Handle)
	mux.Use(middleware.NewMetrics(r.metrics).Handle)

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteError(w, response.ErrNotFound)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteError(w, response.ErrMethodNotAllowed)
	})

	mux.Get("/healthz", handler.NewHealth(r.db, r.logger).Check)

	accounts := handler.NewAccount(r.accountService, r.contextManager, r.logger)
	secrets := handler.NewSecret(r.secretService, r.contextManager, r.logger)

	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	rateLimit := middleware.NewRateLimit(r.limiter, r.metrics, r.logger)

	mux.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(rateLimit.Handle)

			public.Post("/users", accounts.CreateUser)
			public.Post("/login", accounts.Login)
			public.Get("/users/{userID}/email/verify", accounts.VerifyEmail)
			public.Get("/users/{userID}/email/change", accounts.ConfirmEmailChange)
		})

		api.Group(func(private chi.Router) {
			private.Use(authenticate.Handle)

			private.Get("/users", accounts.ListUsers)
			private.Get("/currentuser", accounts.GetCurrentUser)
			private.Put("/currentuser/password", accounts.ChangePassword)
			private.Post("/currentuser/email/change-request", accounts.RequestEmailChange)

			private.Route("/secrets", func(s chi.Router) {
				s.Post("/", secrets.CreateSecret)
				s.Get("/", secrets.GetAllSecrets)
				s.Get("/{secretID}", secrets.GetSecret)
				s.Put("/{secretID}", secrets.UpdateSecret)
				s.Get("/{secretID}/versions", secrets.GetSecretHistory)
				s.Get("/{secretID}/versions/{version}", secrets.GetSecretVersion)
			})
		})
	})

	return mux
}
