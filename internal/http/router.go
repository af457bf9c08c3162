package http

import (
	"database/sql"
	"log/slog"
	"net/http"

	"capellawish/internal/config"
	"capellawish/internal/domain"
	"capellawish/internal/http/handlers"
	"capellawish/internal/http/middleware"

	"github.com/redis/go-redis/v9"
)

type Router struct {
	mux           *http.ServeMux
	auth          *middleware.SessionAuth
	healthHandler *handlers.HealthHandler
	statsHandler  *handlers.StatsHandler
	authHandler   *handlers.AuthHandler
	itemHandler   *handlers.ItemHandler
	listHandler   *handlers.ListHandler
	imageHandler  *handlers.ImageHandler
}

func NewRouter(
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
) *Router {
	mux := http.NewServeMux()

	return &Router{
		mux:           mux,
		auth:          middleware.NewSessionAuth(tokens, users, logger),
		healthHandler: handlers.NewHealthHandler(db, redisClient, logger),
		statsHandler:  handlers.NewStatsHandler(stats, logger),
		authHandler:   handlers.NewAuthHandler(users, tokens, queue, cfg, logger),
		itemHandler:   handlers.NewItemHandler(items, queue, logger),
		listHandler:   handlers.NewListHandler(lists, logger),
		imageHandler:  handlers.NewImageHandler(blobs, cfg.MediaDir, logger),
	}
}

// protected registers a route behind session authentication
func (r *Router) protected(pattern string, fn http.HandlerFunc) {
	r.mux.Handle(pattern, r.auth.Middleware(fn))
}

func (r *Router) SetupRoutes() http.Handler {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// API v1 routes - Account
	r.mux.HandleFunc("POST /api/v1/auth/signup", r.authHandler.Signup)
	r.mux.HandleFunc("POST /api/v1/auth/login", r.authHandler.Login)
	r.mux.HandleFunc("POST /api/v1/auth/password/reset", r.authHandler.RequestPasswordReset)
	r.mux.HandleFunc("POST /api/v1/auth/password/reset/confirm", r.authHandler.ConfirmPasswordReset)
	r.mux.HandleFunc("GET /api/v1/auth/verify-email", r.authHandler.VerifyEmail)
	r.mux.HandleFunc("POST /api/v1/auth/verify-email", r.authHandler.VerifyEmail)
	r.protected("POST /api/v1/auth/logout", r.authHandler.Logout)
	r.protected("GET /api/v1/auth/account", r.authHandler.GetAccount)
	r.protected("PATCH /api/v1/auth/account", r.authHandler.UpdateAccount)
	r.protected("DELETE /api/v1/auth/account", r.authHandler.DeleteAccount)
	r.protected("PUT /api/v1/auth/password/change", r.authHandler.ChangePassword)

	// API v1 routes - Wish items
	r.protected("GET /api/v1/items", r.itemHandler.List)
	r.protected("POST /api/v1/items", r.itemHandler.Create)
	r.protected("GET /api/v1/items/{id}", r.itemHandler.Get)
	r.protected("PUT /api/v1/items/{id}", r.itemHandler.Update)
	r.protected("DELETE /api/v1/items/{id}", r.itemHandler.Delete)

	// API v1 routes - Lists
	r.protected("GET /api/v1/lists", r.listHandler.List)
	r.protected("POST /api/v1/lists", r.listHandler.Create)
	r.protected("GET /api/v1/lists/{id}", r.listHandler.Get)
	r.protected("PUT /api/v1/lists/{id}", r.listHandler.Update)
	r.protected("DELETE /api/v1/lists/{id}", r.listHandler.Delete)

	// API v1 routes - Images
	r.protected("POST /api/v1/images", r.imageHandler.Upload)
	r.mux.HandleFunc("GET /api/v1/images/{hash}", r.imageHandler.Get)

	// API v1 routes - Stats
	r.protected("GET /api/v1/stats", r.statsHandler.GetStats)

	// Add CORS middleware
	return middleware.CORS(r.mux)
}
