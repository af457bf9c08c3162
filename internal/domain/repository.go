package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user account operations
type UserRepository interface {
	// GetByID retrieves a user by primary key
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by username (login)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email (password reset)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new user
	Create(ctx context.Context, user *User) error

	// Update modifies an existing user
	Update(ctx context.Context, user *User) error

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// SetEmailVerified marks the user's email address as confirmed
	SetEmailVerified(ctx context.Context, id int64) error
}

// ItemRepository defines the interface for wish item operations
type ItemRepository interface {
	// GetByUUID retrieves a user's item by public UUID, sources included
	GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*WishItem, error)

	// ListByUser retrieves a user's non-deleted items, newest-updated first
	ListByUser(ctx context.Context, userID int64, filter ItemFilter) ([]*WishItem, int, error)

	// Create inserts a new item with its sources
	Create(ctx context.Context, item *WishItem) error

	// Update modifies an existing item and replaces its sources
	Update(ctx context.Context, item *WishItem) error

	// SoftDelete marks an item as deleted without removing the row
	SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error

	// ApplyEnrichment merges scraped metadata into an item inside one
	// transaction with the row locked. Empty fields only; never overwrites.
	ApplyEnrichment(ctx context.Context, itemID int64, data *EnrichmentData) error
}

// ItemFilter narrows ListByUser results
type ItemFilter struct {
	StarredOnly bool
	Offset      int
	Limit       int
}

// ListRepository defines the interface for list operations
type ListRepository interface {
	// GetByUUID retrieves a user's list by public UUID
	GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*List, error)

	// ListByUser retrieves a user's non-deleted lists
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*List, int, error)

	// Create inserts a new list
	Create(ctx context.Context, list *List) error

	// Update modifies an existing list
	Update(ctx context.Context, list *List) error

	// SoftDelete marks a list as deleted without removing the row
	SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error
}

// BlobRepository defines the interface for content-addressed image storage
type BlobRepository interface {
	// GetByHash retrieves a blob by its sha-256 hex digest
	GetByHash(ctx context.Context, hash string) (*BlobImage, error)

	// Create inserts a new blob record
	Create(ctx context.Context, blob *BlobImage) error
}

// QueueRepository defines the interface for job queue operations
type QueueRepository interface {
	// Enqueue adds a new job to the queue
	Enqueue(ctx context.Context, jobType string, payload interface{}) error

	// Dequeue retrieves the next job from the queue
	Dequeue(ctx context.Context, jobType string) (*QueueJob, error)

	// Complete marks a job as completed
	Complete(ctx context.Context, jobID string) error

	// Fail marks a job as failed, scheduling a retry with backoff
	Fail(ctx context.Context, jobID string, errorMsg string) error

	// FailPermanent moves a job straight to the dead-letter list, no retry
	FailPermanent(ctx context.Context, jobID string, errorMsg string) error

	// GetPendingCount returns the number of pending jobs
	GetPendingCount(ctx context.Context, jobType string) (int, error)
}

// TokenRepository stores opaque session and one-time account tokens
type TokenRepository interface {
	// CreateSession stores a login session token for a user
	CreateSession(ctx context.Context, token string, userID int64) error

	// GetSession resolves a session token to a user ID
	GetSession(ctx context.Context, token string) (int64, error)

	// DeleteSession invalidates a session token
	DeleteSession(ctx context.Context, token string) error

	// CreateOneTime stores a single-use token of the given purpose
	CreateOneTime(ctx context.Context, purpose, token string, userID int64) error

	// ConsumeOneTime resolves and atomically deletes a single-use token
	ConsumeOneTime(ctx context.Context, purpose, token string) (int64, error)
}

// One-time token purposes
const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposePasswordReset = "password_reset"
)

// QueueJob represents a job in the processing queue
type QueueJob struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt *string                `json:"updated_at"`
}

// Job types. The enrichment pipeline runs as three independently retryable
// stages chained through the queue.
const (
	JobTypeRetrieveMetadata = "retrieve_metadata"
	JobTypeRetrieveImage    = "retrieve_image"
	JobTypePersist          = "persist_enrichment"
	JobTypeSendEmail        = "send_email"
)

// JobTypes lists every job type the worker consumes
var JobTypes = []string{
	JobTypeRetrieveMetadata,
	JobTypeRetrieveImage,
	JobTypePersist,
	JobTypeSendEmail,
}

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
