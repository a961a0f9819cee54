package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codeyogi-ai/backend/internal/config"
	"github.com/codeyogi-ai/backend/internal/database"
	"github.com/codeyogi-ai/backend/internal/handler"
	"github.com/codeyogi-ai/backend/internal/middleware"
	"github.com/codeyogi-ai/backend/internal/repository"
	"github.com/codeyogi-ai/backend/internal/service/analytics"
	"github.com/codeyogi-ai/backend/internal/service/monitor"
	"github.com/codeyogi-ai/backend/internal/service/optimizer"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(pool); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Repositories
	sessionRepo := repository.NewSessionRepository(pool)
	aggregateRepo := repository.NewAggregateRepository(pool)

	// Services
	optimizerClient := optimizer.NewClient(cfg.OptimizerAPIURL)
	mon := monitor.New(optimizerClient, cfg.CheckInterval, cfg.CheckTimeout)
	aggregator := analytics.New(sessionRepo, aggregateRepo)

	// Handlers
	monHandler := handler.NewMonitorHandler(mon)
	analyticsHandler := handler.NewAnalyticsHandler(aggregator)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORSAllowOrigin))
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(middleware.Recovery)

	r.Route("/api/v1", func(r chi.Router) {
		monHandler.RegisterRoutes(r)
		analyticsHandler.RegisterRoutes(r)
	})

	// Server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	// Stop polling before draining requests
	mon.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
