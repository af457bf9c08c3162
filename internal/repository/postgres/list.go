package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"capellawish/internal/domain"

	"github.com/google/uuid"
)

// ListRepository implements the domain.ListRepository interface using PostgreSQL
type ListRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewListRepository creates a new PostgreSQL list repository
func NewListRepository(db *sql.DB, logger *slog.Logger) *ListRepository {
	return &ListRepository{
		db:     db,
		logger: logger,
	}
}

const listColumns = `id, uuid, title, description, allow_completion_by_other,
       allow_anonymous_completion, is_shared, is_deleted, created_at, updated_at, user_id`

func scanList(row rowScanner) (*domain.List, error) {
	list := &domain.List{}
	var updatedAt sql.NullTime

	err := row.Scan(
		&list.ID,
		&list.UUID,
		&list.Title,
		&list.Description,
		&list.AllowCompletionByOther,
		&list.AllowAnonymousCompletion,
		&list.IsShared,
		&list.IsDeleted,
		&list.CreatedAt,
		&updatedAt,
		&list.UserID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query list: %w", err)
	}

	if updatedAt.Valid {
		list.UpdatedAt = &updatedAt.Time
	}
	return list, nil
}

// GetByUUID retrieves a user's list by public UUID
func (r *ListRepository) GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*domain.List, error) {
	query := `
		SELECT ` + listColumns + ` FROM lists
		WHERE uuid = $1 AND user_id = $2 AND is_deleted = FALSE`
	return scanList(r.db.QueryRowContext(ctx, query, id, userID))
}

// ListByUser retrieves a user's non-deleted lists
func (r *ListRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*domain.List, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lists WHERE user_id = $1 AND is_deleted = FALSE`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count lists: %w", err)
	}

	query := `
		SELECT ` + listColumns + ` FROM lists
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY title ASC
		OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := make([]*domain.List, 0)
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, 0, err
		}
		lists = append(lists, list)
	}
	return lists, total, rows.Err()
}

// Create inserts a new list
func (r *ListRepository) Create(ctx context.Context, list *domain.List) error {
	if list.UUID == uuid.Nil {
		list.UUID = uuid.New()
	}

	query := `
		INSERT INTO lists (
			uuid, title, description, allow_completion_by_other,
			allow_anonymous_completion, is_shared, user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		list.UUID,
		list.Title,
		list.Description,
		list.AllowCompletionByOther,
		list.AllowAnonymousCompletion,
		list.IsShared,
		list.UserID,
	).Scan(&list.ID, &list.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		r.logger.Error("Failed to create list", "error", err, "user_id", list.UserID)
		return fmt.Errorf("failed to create list: %w", err)
	}

	r.logger.Info("List created successfully",
		"list_uuid", list.UUID,
		"user_id", list.UserID,
	)
	return nil
}

// Update modifies an existing list
func (r *ListRepository) Update(ctx context.Context, list *domain.List) error {
	query := `
		UPDATE lists SET
			title = $2,
			description = $3,
			allow_completion_by_other = $4,
			allow_anonymous_completion = $5,
			is_shared = $6,
			updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE`

	result, err := r.db.ExecContext(ctx, query,
		list.ID,
		list.Title,
		list.Description,
		list.AllowCompletionByOther,
		list.AllowAnonymousCompletion,
		list.IsShared,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to update list: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marks a list as deleted without removing the row
func (r *ListRepository) SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE lists SET is_deleted = TRUE, updated_at = NOW()
		WHERE uuid = $1 AND user_id = $2 AND is_deleted = FALSE`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	r.logger.Info("List soft-deleted", "list_uuid", id, "user_id", userID)
	return nil
}
