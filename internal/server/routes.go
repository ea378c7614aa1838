package server

import (
	"log/slog"
	"net/http"

	"flyme-auth/internal/auth"
	authHandlers "flyme-auth/internal/auth/handlers"
	"flyme-auth/internal/auth/state"
	"flyme-auth/internal/middleware"
	serverHandlers "flyme-auth/internal/server/handlers"
)

type Routes struct {
	health      serverHandlers.HealthChecker
	redis       serverHandlers.HealthChecker
	authService *auth.Service
	oauthConfig *auth.OAuthConfig
	states      *state.Manager
	loginLimit  *middleware.RateLimiter
	logger      *slog.Logger
}

func NewRoutes(health, redis serverHandlers.HealthChecker, authService *auth.Service, oauthConfig *auth.OAuthConfig, states *state.Manager, loginLimit *middleware.RateLimiter, logger *slog.Logger) *Routes {
	return &Routes{
		health:      health,
		redis:       redis,
		authService: authService,
		oauthConfig: oauthConfig,
		states:      states,
		loginLimit:  loginLimit,
		logger:      logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.health, r.redis)
	meHandler := authHandlers.NewMeHandler(r.authService)
	logoutHandler := authHandlers.NewLogoutHandler()
	oauthHandler := authHandlers.NewOAuthHandler(r.oauthConfig, r.states)

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)

	// Protected endpoints
	mux.Handle("GET /api/me", middleware.JWTMiddleware(meHandler))

	// OAuth endpoints
	mux.Handle("GET /auth/{provider}", r.loginLimit.Middleware(http.HandlerFunc(oauthHandler.HandleAuth)))
	mux.Handle("GET /auth/{provider}/callback", r.loginLimit.Middleware(http.HandlerFunc(oauthHandler.HandleCallback)))
	mux.Handle("POST /auth/logout", logoutHandler)

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health"},
		"protected_endpoints", []string{"/api/me"},
		"auth_providers", r.oauthConfig.Registry.Names(),
		"auth_endpoints", []string{"/auth/{provider}", "/auth/{provider}/callback", "/auth/logout"},
	)

	return mux
}
