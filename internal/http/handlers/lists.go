package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"capellawish/internal/domain"
	"capellawish/internal/http/middleware"

	"github.com/google/uuid"
)

// ListHandler serves wishlist CRUD
type ListHandler struct {
	lists  domain.ListRepository
	logger *slog.Logger
}

// NewListHandler creates a new list handler
func NewListHandler(lists domain.ListRepository, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		lists:  lists,
		logger: logger,
	}
}

type listCreateRequest struct {
	Title                    string `json:"title"`
	Description              string `json:"description"`
	AllowCompletionByOther   bool   `json:"allow_completion_by_other"`
	AllowAnonymousCompletion bool   `json:"allow_anonymous_completion"`
	IsShared                 bool   `json:"is_shared"`
}

// List handles GET /api/v1/lists
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	limit, offset := parsePagination(r, 25, 100)
	lists, total, err := h.lists.ListByUser(r.Context(), user.ID, offset, limit)
	if err != nil {
		h.logger.Error("Failed to list lists", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to list lists", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lists":  lists,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}, h.logger)
}

// Create handles POST /api/v1/lists
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req listCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required", h.logger)
		return
	}

	list := &domain.List{
		Title:                    req.Title,
		Description:              req.Description,
		AllowCompletionByOther:   req.AllowCompletionByOther,
		AllowAnonymousCompletion: req.AllowAnonymousCompletion,
		IsShared:                 req.IsShared,
		UserID:                   user.ID,
	}

	if err := h.lists.Create(r.Context(), list); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "A list with that title already exists", h.logger)
			return
		}
		h.logger.Error("Failed to create list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to create list", h.logger)
		return
	}

	h.logger.Info("List created", "list_uuid", list.UUID, "user_id", user.ID)
	respondJSON(w, http.StatusCreated, list, h.logger)
}

// Get handles GET /api/v1/lists/{id}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid list id", h.logger)
		return
	}

	list, err := h.lists.GetByUUID(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "List not found", h.logger)
			return
		}
		h.logger.Error("Failed to get list", "error", err, "list_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to get list", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, list, h.logger)
}

type listUpdateRequest struct {
	Title                    *string `json:"title"`
	Description              *string `json:"description"`
	AllowCompletionByOther   *bool   `json:"allow_completion_by_other"`
	AllowAnonymousCompletion *bool   `json:"allow_anonymous_completion"`
	IsShared                 *bool   `json:"is_shared"`
}

// Update handles PUT /api/v1/lists/{id}
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid list id", h.logger)
		return
	}

	list, err := h.lists.GetByUUID(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "List not found", h.logger)
			return
		}
		h.logger.Error("Failed to get list", "error", err, "list_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to update list", h.logger)
		return
	}

	var req listUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			respondError(w, http.StatusBadRequest, "Title must not be empty", h.logger)
			return
		}
		list.Title = *req.Title
	}
	if req.Description != nil {
		list.Description = *req.Description
	}
	if req.AllowCompletionByOther != nil {
		list.AllowCompletionByOther = *req.AllowCompletionByOther
	}
	if req.AllowAnonymousCompletion != nil {
		list.AllowAnonymousCompletion = *req.AllowAnonymousCompletion
	}
	if req.IsShared != nil {
		list.IsShared = *req.IsShared
	}

	if err := h.lists.Update(r.Context(), list); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "A list with that title already exists", h.logger)
			return
		}
		h.logger.Error("Failed to update list", "error", err, "list_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to update list", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, list, h.logger)
}

// Delete handles DELETE /api/v1/lists/{id} (soft delete)
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid list id", h.logger)
		return
	}

	if err := h.lists.SoftDelete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "List not found", h.logger)
			return
		}
		h.logger.Error("Failed to delete list", "error", err, "list_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to delete list", h.logger)
		return
	}

	h.logger.Info("List deleted", "list_uuid", id, "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
