package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"capellawish/internal/config"
	"capellawish/internal/domain"
	wishhttp "capellawish/internal/http"
	"capellawish/internal/http/handlers"

	"github.com/redis/go-redis/v9"
)

// APIService handles HTTP API requests
type APIService struct {
	config *config.Config
	logger *slog.Logger

	// HTTP server
	server *http.Server
}

// New creates a new API service
func New(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	redisClient *redis.Client,
	users domain.UserRepository,
	items domain.ItemRepository,
	lists domain.ListRepository,
	blobs domain.BlobRepository,
	queue domain.QueueRepository,
	tokens domain.TokenRepository,
	stats handlers.QueueStatsProvider,
) (*APIService, error) {
	router := wishhttp.NewRouter(cfg, logger, db, redisClient, users, items, lists, blobs, queue, tokens, stats)

	apiService := &APIService{
		config: cfg,
		logger: logger,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router.SetupRoutes(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	return apiService, nil
}

// Start begins serving the API
func (s *APIService) Start() error {
	s.logger.Info("Starting API server", "port", s.config.Port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the API server
func (s *APIService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
