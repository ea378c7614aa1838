package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"flyme-auth/internal/shared/response"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
}

type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
}

// NewHealthHandler reports dependency status. redis may be nil when state is
// kept in memory.
func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	dbStatus := "connected"
	if err := h.db.HealthCheck(r.Context()); err != nil {
		logger.Warn("Database ping failed", "error", err)
		dbStatus = "disconnected"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "connected"
		if err := h.redis.HealthCheck(r.Context()); err != nil {
			logger.Warn("Redis ping failed", "error", err)
			redisStatus = "disconnected"
		}
	}

	status := "healthy"
	if dbStatus != "connected" || redisStatus == "disconnected" {
		status = "degraded"
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
		Redis:     redisStatus,
	}

	response.Success(w, http.StatusOK, resp)
}
