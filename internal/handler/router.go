package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/metrics"
	"github.com/todoco/todoco/internal/repository"
	"github.com/todoco/todoco/internal/service"
)

// Router assembles the HTTP surface: public auth pages, authenticated task
// pages, admin-gated user management, health and metrics endpoints.
type Router struct {
	authHandler *AuthHandler
	taskHandler *TaskHandler
	userHandler *UserHandler
	sessions    auth.SessionValidator
	database    repository.DatabaseHealth
	metrics     *metrics.Metrics
	renderer    *renderer
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	UserService    *service.UserService
	TaskService    *service.TaskService
	SessionService *service.SessionService
	SessionTTL     time.Duration
	CookieSecure   bool
	Database       repository.DatabaseHealth
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewRouter creates a new Router with all handlers wired.
func NewRouter(cfg RouterConfig) (*Router, error) {
	rd, err := newRenderer(cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Router{
		authHandler: NewAuthHandler(AuthHandlerConfig{
			UserService:    cfg.UserService,
			SessionService: cfg.SessionService,
			SessionTTL:     cfg.SessionTTL,
			CookieSecure:   cfg.CookieSecure,
			Renderer:       rd,
			Logger:         cfg.Logger,
		}),
		taskHandler: NewTaskHandler(cfg.TaskService, rd, cfg.Logger),
		userHandler: NewUserHandler(cfg.UserService, rd, cfg.Logger),
		sessions:    cfg.SessionService,
		database:    cfg.Database,
		metrics:     cfg.Metrics,
		renderer:    rd,
		logger:      cfg.Logger.With().Str("component", "router").Logger(),
	}, nil
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(rt.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(auth.Middleware(rt.sessions, rt.logger))

	// Public routes
	r.Get("/healthz", rt.handleHealth)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	rt.authHandler.RegisterRoutes(r)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", rt.handleHome)
		rt.taskHandler.RegisterRoutes(r)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(domain.RoleAdmin))
		rt.userHandler.RegisterRoutes(r)
	})

	return r
}

// handleHome renders the landing page.
func (rt *Router) handleHome(w http.ResponseWriter, r *http.Request) {
	flash, flashError := popFlashes(w, r)
	rt.renderer.render(w, "home.html", PageData{
		Title: "ToDoCo",
		User:  auth.UserFromContext(r.Context()),
		Flash: flash,
		Error: flashError,
	})
}

// handleHealth reports liveness and database reachability.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if rt.database != nil {
		if err := rt.database.Ping(r.Context()); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// requestLogger logs each request with method, path, status and latency.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}
