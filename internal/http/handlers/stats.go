package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"capellawish/internal/domain"
)

// QueueStatsProvider reports per-type queue counters
type QueueStatsProvider interface {
	GetQueueStats(ctx context.Context, jobType string) (map[string]int64, error)
}

// StatsHandler exposes job queue statistics
type StatsHandler struct {
	stats  QueueStatsProvider
	logger *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats QueueStatsProvider, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
	}
}

// GetStats handles GET /api/v1/stats (authenticated). Returns the queue
// counters for every job type.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	queues := make(map[string]map[string]int64, len(domain.JobTypes))
	for _, jobType := range domain.JobTypes {
		stats, err := h.stats.GetQueueStats(r.Context(), jobType)
		if err != nil {
			h.logger.Error("Failed to get queue stats", "error", err, "job_type", jobType)
			respondError(w, http.StatusInternalServerError, "Failed to get stats", h.logger)
			return
		}
		queues[jobType] = stats
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"queues": queues,
	}, h.logger)
}
