package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness of the API and its backing stores
type HealthHandler struct {
	db     *sql.DB
	redis  *redis.Client
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("Database health check failed", "error", err)
		checks["database"] = "unavailable"
		healthy = false
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.Error("Redis health check failed", "error", err)
		checks["redis"] = "unavailable"
		healthy = false
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	respondJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	}, h.logger)
}
