package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/holden/retroboard/internal/api"
	"github.com/holden/retroboard/internal/database"
	"github.com/holden/retroboard/internal/metrics"
	"github.com/holden/retroboard/internal/realtime"
	"github.com/holden/retroboard/internal/session"
	"github.com/holden/retroboard/internal/tasks"
	"github.com/holden/retroboard/internal/team"
	"github.com/holden/retroboard/pkg/config"
	"github.com/holden/retroboard/pkg/queue"
	"github.com/holden/retroboard/pkg/util"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting retroboard server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis (optional: cleanup falls back to in-process sweeps)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	// Asynq client for handing cleanup sweeps to the worker
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Realtime hub keeps connected clients' session views in sync
	hub := realtime.NewHub(logger)

	// Initialize services
	codec := session.NewTokenCodec(cfg.Session.TokenScheme, cfg.Session.TokenSecret, cfg.Session.TokenExpiry())
	sessionService := session.NewService(db, codec, hub, collector)
	teamService := team.NewService(db, collector)
	cleanupService := session.NewCleanupService(db, logger, collector)

	// Expiry scheduler: enqueue to the worker when a queue exists,
	// otherwise sweep in-process
	var sweeper session.Sweeper = cleanupService
	if asynqClient != nil {
		sweeper = tasks.NewCleanupEnqueuer(asynqClient, logger)
	}
	scheduler := session.NewScheduler(sweeper, logger)
	if err := scheduler.Start(cfg.Session.CleanupCron, cfg.Session.InactiveThreshold()); err != nil {
		logger.Error("failed to start cleanup scheduler", "error", err)
		os.Exit(1)
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:               db,
		Redis:            redisClient,
		Logger:           logger,
		SessionService:   sessionService,
		TeamService:      teamService,
		CleanupService:   cleanupService,
		Hub:              hub,
		Metrics:          collector,
		Gatherer:         registry,
		RateLimitReqs:    cfg.RateLimit.Requests,
		RateLimitSecs:    cfg.RateLimit.WindowSeconds,
		CleanupThreshold: cfg.Session.InactiveThreshold(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Close Asynq client
	if asynqClient != nil {
		asynqClient.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}
