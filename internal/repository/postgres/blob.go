package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"capellawish/internal/domain"
)

// BlobRepository implements the domain.BlobRepository interface using PostgreSQL
type BlobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewBlobRepository creates a new PostgreSQL blob repository
func NewBlobRepository(db *sql.DB, logger *slog.Logger) *BlobRepository {
	return &BlobRepository{
		db:     db,
		logger: logger,
	}
}

// GetByHash retrieves a blob by its sha-256 hex digest
func (r *BlobRepository) GetByHash(ctx context.Context, hash string) (*domain.BlobImage, error) {
	blob := &domain.BlobImage{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, path, sha256_hash, uploaded_at
		FROM blob_images
		WHERE sha256_hash = $1`,
		hash,
	).Scan(&blob.ID, &blob.Path, &blob.SHA256Hash, &blob.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query blob: %w", err)
	}
	return blob, nil
}

// Create inserts a new blob record. On a hash collision the existing row is
// returned instead, preserving at most one blob per distinct content.
func (r *BlobRepository) Create(ctx context.Context, blob *domain.BlobImage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO blob_images (path, sha256_hash)
		VALUES ($1, $2)
		ON CONFLICT (sha256_hash) DO UPDATE SET path = blob_images.path
		RETURNING id, path, uploaded_at`,
		blob.Path, blob.SHA256Hash,
	).Scan(&blob.ID, &blob.Path, &blob.UploadedAt)
	if err != nil {
		r.logger.Error("Failed to create blob", "error", err, "sha256", blob.SHA256Hash)
		return fmt.Errorf("failed to create blob: %w", err)
	}

	r.logger.Debug("Blob stored", "blob_id", blob.ID, "sha256", blob.SHA256Hash)
	return nil
}
