package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flyme-auth/internal/auth"
	"flyme-auth/internal/auth/state"
	"flyme-auth/internal/middleware"
	"flyme-auth/internal/server"
	serverHandlers "flyme-auth/internal/server/handlers"
	"flyme-auth/internal/shared/config"
	"flyme-auth/internal/shared/database"
	"flyme-auth/internal/shared/logger"
	"flyme-auth/internal/shared/redis"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	db, err := database.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := redis.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis", "error", err)
		}
	}()

	var (
		stateBackend state.Backend
		redisHealth  serverHandlers.HealthChecker
	)
	if redisClient != nil {
		stateBackend = state.NewRedisBackend(redisClient.Client)
		redisHealth = redisClient
	} else {
		stateBackend = state.NewMemoryBackend(cfg.Auth.StateTTL)
	}
	states := state.NewManager(stateBackend, cfg.Auth.StateTTL)

	authService := auth.NewService(auth.NewRepository(db), slog.With("component", "auth_service"))

	oauthConfig, err := auth.InitOAuth(cfg, authService)
	if err != nil {
		return fmt.Errorf("failed to initialize oauth: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()
	loginLimiter := middleware.NewLoginRateLimiter(cfg.RateLimit)
	defer loginLimiter.Stop()

	routes := server.NewRoutes(db, redisHealth, authService, oauthConfig, states, loginLimiter, slog.Default())
	mux := routes.Setup()

	cors := middleware.NewCORS()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      cors.Middleware(rateLimiter.Middleware(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"url", cfg.Server.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
