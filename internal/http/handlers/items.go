package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"capellawish/internal/domain"
	"capellawish/internal/http/middleware"

	"github.com/google/uuid"
)

// ItemHandler serves wish item CRUD. Creating an item with a source URL
// queues the enrichment pipeline for it.
type ItemHandler struct {
	items  domain.ItemRepository
	queue  domain.QueueRepository
	logger *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(items domain.ItemRepository, queue domain.QueueRepository, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		items:  items,
		queue:  queue,
		logger: logger,
	}
}

type itemSourcePayload struct {
	SourceURL   string `json:"source_url"`
	SourceName  string `json:"source_name"`
	Description string `json:"description"`
	IsPrimary   bool   `json:"is_primary"`
}

type itemCreateRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	IsPublic    bool                `json:"is_public"`
	IsStarred   bool                `json:"is_starred"`
	SkipImage   bool                `json:"skip_image"`
	Sources     []itemSourcePayload `json:"sources"`
}

// List handles GET /api/v1/items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	limit, offset := parsePagination(r, 25, 100)
	filter := domain.ItemFilter{
		StarredOnly: r.URL.Query().Get("starred") == "true",
		Limit:       limit,
		Offset:      offset,
	}

	items, total, err := h.items.ListByUser(r.Context(), user.ID, filter)
	if err != nil {
		h.logger.Error("Failed to list items", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to list items", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}, h.logger)
}

// Create handles POST /api/v1/items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req itemCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if req.Title == "" && len(req.Sources) == 0 {
		respondError(w, http.StatusBadRequest, "Either a title or a source URL is required", h.logger)
		return
	}

	item := &domain.WishItem{
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		IsStarred:   req.IsStarred,
		UserID:      user.ID,
	}
	for _, s := range req.Sources {
		if s.SourceURL == "" {
			respondError(w, http.StatusBadRequest, "Source URL must not be empty", h.logger)
			return
		}
		item.Sources = append(item.Sources, &domain.ItemSource{
			SourceURL:   s.SourceURL,
			SourceName:  s.SourceName,
			Description: s.Description,
			IsPrimary:   s.IsPrimary,
		})
	}

	if err := h.items.Create(r.Context(), item); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "Duplicate links are not allowed", h.logger)
			return
		}
		h.logger.Error("Failed to create item", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to create item", h.logger)
		return
	}

	h.queueEnrichment(r, item, req.SkipImage)

	h.logger.Info("Item created", "item_uuid", item.UUID, "user_id", user.ID)
	respondJSON(w, http.StatusCreated, item, h.logger)
}

// queueEnrichment starts the metadata pipeline for the item's primary
// source. A queue failure is logged but never fails the create.
func (h *ItemHandler) queueEnrichment(r *http.Request, item *domain.WishItem, skipImage bool) {
	source := item.PrimarySource()
	if source == nil {
		return
	}

	req := &domain.EnrichmentRequest{
		SourceURL: source.SourceURL,
		ItemID:    item.ID,
		SkipImage: skipImage,
	}
	if err := h.queue.Enqueue(r.Context(), domain.JobTypeRetrieveMetadata, req); err != nil {
		h.logger.Error("Failed to queue enrichment",
			"error", err,
			"item_id", item.ID,
			"url", source.SourceURL,
		)
	}
}

// Get handles GET /api/v1/items/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item id", h.logger)
		return
	}

	item, err := h.items.GetByUUID(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Item not found", h.logger)
			return
		}
		h.logger.Error("Failed to get item", "error", err, "item_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to get item", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, item, h.logger)
}

type itemUpdateRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	IsPublic    *bool                `json:"is_public"`
	IsStarred   *bool                `json:"is_starred"`
	Completed   *bool                `json:"completed"`
	Sources     *[]itemSourcePayload `json:"sources"`
}

// Update handles PUT /api/v1/items/{id}. Only the provided fields change;
// sending sources replaces the whole source set.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item id", h.logger)
		return
	}

	item, err := h.items.GetByUUID(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Item not found", h.logger)
			return
		}
		h.logger.Error("Failed to get item", "error", err, "item_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to update item", h.logger)
		return
	}

	var req itemUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.IsPublic != nil {
		item.IsPublic = *req.IsPublic
	}
	if req.IsStarred != nil {
		item.IsStarred = *req.IsStarred
	}
	if req.Completed != nil {
		if *req.Completed {
			if item.CompletedAt == nil {
				now := time.Now()
				item.CompletedAt = &now
			}
		} else {
			item.CompletedAt = nil
		}
	}
	if req.Sources != nil {
		item.Sources = item.Sources[:0]
		for _, s := range *req.Sources {
			if s.SourceURL == "" {
				respondError(w, http.StatusBadRequest, "Source URL must not be empty", h.logger)
				return
			}
			item.Sources = append(item.Sources, &domain.ItemSource{
				SourceURL:   s.SourceURL,
				SourceName:  s.SourceName,
				Description: s.Description,
				IsPrimary:   s.IsPrimary,
			})
		}
	}

	if err := h.items.Update(r.Context(), item); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "Duplicate links are not allowed", h.logger)
			return
		}
		h.logger.Error("Failed to update item", "error", err, "item_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to update item", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, item, h.logger)
}

// Delete handles DELETE /api/v1/items/{id} (soft delete)
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item id", h.logger)
		return
	}

	if err := h.items.SoftDelete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Item not found", h.logger)
			return
		}
		h.logger.Error("Failed to delete item", "error", err, "item_uuid", id)
		respondError(w, http.StatusInternalServerError, "Failed to delete item", h.logger)
		return
	}

	h.logger.Info("Item deleted", "item_uuid", id, "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
