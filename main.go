package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nexeed/teammatch/clients"
	"github.com/nexeed/teammatch/config"
	"github.com/nexeed/teammatch/database"
	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/routes"
	"github.com/nexeed/teammatch/services"
	"github.com/nexeed/teammatch/session"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Error loading configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	slog.Info("starting server...")

	ctx := context.Background()

	// Initialize database connection
	db, err := database.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.ApplySchema {
		if err := database.CreateSchema(ctx, db); err != nil {
			slog.Error("schema creation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema ready")
	}

	m := metrics.NewManager(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
	)

	scorer := clients.NewScoringClient(cfg.ScoringURL, cfg.AIAPIKey, cfg.ScoringTimeout, m)
	matcher := clients.NewMatchingClient(cfg.MatchingURL, cfg.AIAPIKey, cfg.MatchingTimeout, m)

	gate := services.NewAccessGate(db, session.NewCodec(cfg.SessionSecret), cfg.SessionTTL)
	if cfg.AdminUsername != "" {
		if err := gate.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			slog.Error("admin bootstrap failed", "error", err)
			os.Exit(1)
		}
	}

	r := routes.SetupRoutes(routes.Deps{
		DB:           db,
		Gate:         gate,
		Submissions:  services.NewSubmissionService(db, scorer, cfg.LikertScale, cfg.DBTxTimeout, m),
		Matching:     services.NewMatchingService(db, matcher, cfg.DefaultTeamSize, cfg.DBTxTimeout, m),
		Cohorts:      services.NewCohortService(db, cfg.DefaultTeamSize, cfg.DBTxTimeout),
		Metrics:      m,
		CookieSecure: cfg.CookieSecure,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}
