package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"capellawish/internal/domain"
	"capellawish/internal/pkg/hashutil"
)

// maxUploadBytes caps direct image uploads
const maxUploadBytes = 10 << 20

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ImageHandler serves content-addressed image upload and retrieval
type ImageHandler struct {
	blobs    domain.BlobRepository
	mediaDir string
	logger   *slog.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(blobs domain.BlobRepository, mediaDir string, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		blobs:    blobs,
		mediaDir: mediaDir,
		logger:   logger,
	}
}

// Upload handles POST /api/v1/images (authenticated, multipart field
// "image"). Re-uploading identical bytes returns the existing blob.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing image file", h.logger)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	hash, err := hashutil.ReaderSHA256(io.TeeReader(file, &buf))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image", h.logger)
		return
	}

	existing, err := h.blobs.GetByHash(r.Context(), hash)
	if err == nil {
		respondJSON(w, http.StatusOK, existing, h.logger)
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("Failed to look up blob", "error", err, "sha256", hash)
		respondError(w, http.StatusInternalServerError, "Failed to store image", h.logger)
		return
	}

	path, err := h.writeBlobFile(hash, header.Filename, buf.Bytes())
	if err != nil {
		h.logger.Error("Failed to write blob file", "error", err, "sha256", hash)
		respondError(w, http.StatusInternalServerError, "Failed to store image", h.logger)
		return
	}

	blob := &domain.BlobImage{Path: path, SHA256Hash: hash}
	if err := h.blobs.Create(r.Context(), blob); err != nil {
		h.logger.Error("Failed to create blob record", "error", err, "sha256", hash)
		respondError(w, http.StatusInternalServerError, "Failed to store image", h.logger)
		return
	}

	h.logger.Info("Image uploaded", "sha256", hash, "path", path)
	respondJSON(w, http.StatusCreated, blob, h.logger)
}

// writeBlobFile stores uploaded bytes in the media dir under their hash
func (h *ImageHandler) writeBlobFile(hash, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(h.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(http.DetectContentType(data)); err == nil && len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ".bin"
		}
	}

	dest := filepath.Join(h.mediaDir, hash+ext)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob file: %w", err)
	}
	return dest, nil
}

// Get handles GET /api/v1/images/{hash}
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if !hashPattern.MatchString(hash) {
		respondError(w, http.StatusBadRequest, "Invalid image hash", h.logger)
		return
	}

	blob, err := h.blobs.GetByHash(r.Context(), hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Image not found", h.logger)
			return
		}
		h.logger.Error("Failed to look up blob", "error", err, "sha256", hash)
		respondError(w, http.StatusInternalServerError, "Failed to get image", h.logger)
		return
	}

	http.ServeFile(w, r, blob.Path)
}
