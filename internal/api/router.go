package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/holden/retroboard/internal/api/handlers"
	"github.com/holden/retroboard/internal/api/middleware"
	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/metrics"
	"github.com/holden/retroboard/internal/realtime"
	"github.com/holden/retroboard/internal/session"
	"github.com/holden/retroboard/internal/team"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB               *gorm.DB
	Redis            *redis.Client
	Logger           *slog.Logger
	SessionService   *session.Service
	TeamService      *team.Service
	CleanupService   *session.CleanupService
	Hub              *realtime.Hub
	Metrics          *metrics.Collector
	Gatherer         prometheus.Gatherer
	AllowedOrigins   []string      // CORS allowed origins
	RateLimitReqs    int           // Rate limit requests per window
	RateLimitSecs    int           // Rate limit window in seconds
	CleanupThreshold time.Duration // Default inactivity threshold for admin sweeps
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Every request resolves its session up front; failures mean anonymous
	r.Use(middleware.SessionResolver(cfg.SessionService))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	sessionHandler := handlers.NewSessionHandler(cfg.SessionService)
	accountHandler := handlers.NewAccountHandler(cfg.SessionService)
	teamHandler := handlers.NewTeamHandler(cfg.TeamService)
	adminHandler := handlers.NewAdminHandler(cfg.CleanupService, cfg.CleanupThreshold)
	eventsHandler := handlers.NewEventsHandler(cfg.Hub)

	// Health endpoints (no session required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Session bootstrap is public: it hands out the token
		r.Post("/session/initialize", sessionHandler.Initialize)

		// Realtime event stream
		r.Get("/events", eventsHandler.Stream)

		// Session-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Get("/session", sessionHandler.Me)
			r.Put("/session/name", sessionHandler.UpdateName)
			r.Post("/session/join-team", sessionHandler.JoinTeam)

			r.Post("/account/upgrade", accountHandler.Upgrade)
			r.Post("/account/link", accountHandler.Link)
		})

		// Clear is deliberately outside RequireSession: clearing an
		// already-gone session still succeeds
		r.Delete("/session", sessionHandler.Clear)

		// Team routes need a linked account
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccount)

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", teamHandler.Create)
				r.Post("/join", teamHandler.Join)
				r.Get("/", teamHandler.List)
				r.Get("/{id}", teamHandler.Details)
			})
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Post("/admin/sessions/cleanup", adminHandler.Cleanup)
			r.Get("/admin/sessions/stats", adminHandler.Stats)
		})
	})

	return &Router{r}
}
