package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"capellawish/internal/domain"
	"capellawish/internal/pkg/hashutil"

	"github.com/google/uuid"
)

// ItemRepository implements the domain.ItemRepository interface using PostgreSQL
type ItemRepository struct {
	db       *sql.DB
	mediaDir string
	logger   *slog.Logger
}

// NewItemRepository creates a new PostgreSQL item repository. mediaDir is
// where content-addressed blob files are stored.
func NewItemRepository(db *sql.DB, mediaDir string, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		db:       db,
		mediaDir: mediaDir,
		logger:   logger,
	}
}

const itemColumns = `i.id, i.uuid, i.title, i.description, i.image_blob_id,
       i.is_public, i.is_starred, i.created_at, i.updated_at, i.completed_at,
       i.deleted_at, i.user_id, COALESCE(b.sha256_hash, '')`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.WishItem, error) {
	item := &domain.WishItem{}
	var imageBlobID sql.NullInt64
	var updatedAt, completedAt, deletedAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.UUID,
		&item.Title,
		&item.Description,
		&imageBlobID,
		&item.IsPublic,
		&item.IsStarred,
		&item.CreatedAt,
		&updatedAt,
		&completedAt,
		&deletedAt,
		&item.UserID,
		&item.ImageHash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	if imageBlobID.Valid {
		item.ImageBlobID = &imageBlobID.Int64
	}
	if updatedAt.Valid {
		item.UpdatedAt = &updatedAt.Time
	}
	if completedAt.Valid {
		item.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	return item, nil
}

// GetByUUID retrieves a user's item by public UUID, sources included
func (r *ItemRepository) GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*domain.WishItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM wish_items i
		LEFT JOIN blob_images b ON b.id = i.image_blob_id
		WHERE i.uuid = $1 AND i.user_id = $2 AND i.deleted_at IS NULL`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadSources(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListByUser retrieves a user's non-deleted items, newest-updated first
func (r *ItemRepository) ListByUser(ctx context.Context, userID int64, filter domain.ItemFilter) ([]*domain.WishItem, int, error) {
	where := `i.user_id = $1 AND i.deleted_at IS NULL`
	if filter.StarredOnly {
		where += ` AND i.is_starred = TRUE`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM wish_items i WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	query := `
		SELECT ` + itemColumns + `
		FROM wish_items i
		LEFT JOIN blob_images b ON b.id = i.image_blob_id
		WHERE ` + where + `
		ORDER BY i.updated_at DESC NULLS LAST, i.created_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, filter.Offset, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.WishItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate items: %w", err)
	}

	for _, item := range items {
		if err := r.loadSources(ctx, item); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// loadSources attaches an item's sources, primary first
func (r *ItemRepository) loadSources(ctx context.Context, item *domain.WishItem) error {
	query := `
		SELECT id, uuid, source_url, source_name, description, is_primary, wish_item_id
		FROM item_sources
		WHERE wish_item_id = $1
		ORDER BY is_primary DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, item.ID)
	if err != nil {
		return fmt.Errorf("failed to query item sources: %w", err)
	}
	defer rows.Close()

	item.Sources = nil
	for rows.Next() {
		source := &domain.ItemSource{}
		if err := rows.Scan(
			&source.ID,
			&source.UUID,
			&source.SourceURL,
			&source.SourceName,
			&source.Description,
			&source.IsPrimary,
			&source.WishItemID,
		); err != nil {
			return fmt.Errorf("failed to scan item source: %w", err)
		}
		item.Sources = append(item.Sources, source)
	}
	return rows.Err()
}

// Create inserts a new item with its sources in one transaction
func (r *ItemRepository) Create(ctx context.Context, item *domain.WishItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if item.UUID == uuid.Nil {
		item.UUID = uuid.New()
	}

	query := `
		INSERT INTO wish_items (
			uuid, title, description, is_public, is_starred,
			completed_at, user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		item.UUID,
		item.Title,
		item.Description,
		item.IsPublic,
		item.IsStarred,
		item.CompletedAt,
		item.UserID,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create item", "error", err, "user_id", item.UserID)
		return fmt.Errorf("failed to create item: %w", err)
	}

	if err := insertSources(ctx, tx, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item creation: %w", err)
	}

	r.logger.Info("Item created successfully",
		"item_id", item.ID,
		"item_uuid", item.UUID,
		"user_id", item.UserID,
	)
	return nil
}

func insertSources(ctx context.Context, tx *sql.Tx, item *domain.WishItem) error {
	for _, source := range item.Sources {
		if source.UUID == uuid.Nil {
			source.UUID = uuid.New()
		}
		source.WishItemID = item.ID

		err := tx.QueryRowContext(ctx, `
			INSERT INTO item_sources (uuid, source_url, source_name, description, is_primary, wish_item_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			source.UUID,
			source.SourceURL,
			source.SourceName,
			source.Description,
			source.IsPrimary,
			source.WishItemID,
		).Scan(&source.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("failed to create item source: %w", err)
		}
	}
	return nil
}

// Update modifies an existing item and replaces its sources
func (r *ItemRepository) Update(ctx context.Context, item *domain.WishItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE wish_items SET
			title = $2,
			description = $3,
			image_blob_id = $4,
			is_public = $5,
			is_starred = $6,
			completed_at = $7,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := tx.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.ImageBlobID,
		item.IsPublic,
		item.IsStarred,
		item.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update item", "error", err, "item_id", item.ID)
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_sources WHERE wish_item_id = $1`, item.ID); err != nil {
		return fmt.Errorf("failed to replace item sources: %w", err)
	}
	if err := insertSources(ctx, tx, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item update: %w", err)
	}

	r.logger.Info("Item updated successfully", "item_id", item.ID)
	return nil
}

// SoftDelete marks an item as deleted without removing the row
func (r *ItemRepository) SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE wish_items SET deleted_at = NOW()
		WHERE uuid = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	r.logger.Info("Item soft-deleted", "item_uuid", id, "user_id", userID)
	return nil
}

// ApplyEnrichment merges scraped metadata into an item inside a single
// transaction with the target row locked. Each field is written only when
// currently empty; the pipeline never overwrites a user-supplied value. A
// temporary image file, when present, is content-hashed and deduplicated
// into the blob store (find existing, else create) before linking.
func (r *ItemRepository) ApplyEnrichment(ctx context.Context, itemID int64, data *domain.EnrichmentData) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row lock serializes concurrent enrichment runs against this item
	row := tx.QueryRowContext(ctx, `
		SELECT title, description, image_blob_id
		FROM wish_items
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`,
		itemID,
	)

	var item domain.WishItem
	var imageBlobID sql.NullInt64
	if err := row.Scan(&item.Title, &item.Description, &imageBlobID); err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to lock item: %w", err)
	}

	domain.MergeEnrichment(&item, data)

	if !imageBlobID.Valid && data.ImagePath != "" {
		if _, err := os.Stat(data.ImagePath); err == nil {
			blobID, err := r.findOrCreateBlob(ctx, tx, data.ImagePath)
			if err != nil {
				return err
			}
			imageBlobID = sql.NullInt64{Int64: blobID, Valid: true}
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wish_items SET
			title = $2,
			description = $3,
			image_blob_id = $4,
			updated_at = NOW()
		WHERE id = $1`,
		itemID, item.Title, item.Description, imageBlobID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply enrichment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enrichment: %w", err)
	}

	r.logger.Info("Enrichment applied",
		"item_id", itemID,
		"has_image", imageBlobID.Valid,
	)
	return nil
}

// findOrCreateBlob hashes the temp file and links it into the
// content-addressed store: at most one blob row exists per distinct hash.
func (r *ItemRepository) findOrCreateBlob(ctx context.Context, tx *sql.Tx, imagePath string) (int64, error) {
	hash, err := hashutil.FileSHA256(imagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to hash image: %w", err)
	}

	var blobID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM blob_images WHERE sha256_hash = $1`, hash,
	).Scan(&blobID)
	if err == nil {
		r.logger.Debug("Reusing existing blob", "sha256", hash, "blob_id", blobID)
		return blobID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query blob: %w", err)
	}

	storedPath, err := r.storeBlobFile(imagePath, hash)
	if err != nil {
		return 0, err
	}

	// ON CONFLICT covers the race where a concurrent run stored the same
	// bytes between our select and insert
	err = tx.QueryRowContext(ctx, `
		INSERT INTO blob_images (path, sha256_hash)
		VALUES ($1, $2)
		ON CONFLICT (sha256_hash) DO UPDATE SET path = blob_images.path
		RETURNING id`,
		storedPath, hash,
	).Scan(&blobID)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}

	r.logger.Info("Blob created", "sha256", hash, "blob_id", blobID, "path", storedPath)
	return blobID, nil
}

// storeBlobFile copies the temp file into the media dir under its hash
func (r *ItemRepository) storeBlobFile(imagePath, hash string) (string, error) {
	if err := os.MkdirAll(r.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}

	dest := filepath.Join(r.mediaDir, hash+filepath.Ext(imagePath))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	src, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open temp image: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to copy blob file: %w", err)
	}
	return dest, nil
}
