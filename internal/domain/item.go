package domain

import (
	"time"

	"github.com/google/uuid"
)

// WishItem represents a single wishlist entry owned by a user
type WishItem struct {
	ID   int64     `json:"-" db:"id"`
	UUID uuid.UUID `json:"uuid" db:"uuid"`

	// Basic fields
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// Image reference (optional, content-addressed blob)
	ImageBlobID *int64 `json:"-" db:"image_blob_id"`
	ImageHash   string `json:"image,omitempty"`

	// Status fields
	IsPublic  bool `json:"is_public" db:"is_public"`
	IsStarred bool `json:"is_starred" db:"is_starred"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`

	// Logical deletion
	DeletedAt *time.Time `json:"-" db:"deleted_at"`

	// Owner
	UserID int64 `json:"-" db:"user_id"`

	// Attached sources (loaded separately)
	Sources []*ItemSource `json:"sources,omitempty"`
}

// IsDeleted reports whether the item has been soft-deleted
func (i *WishItem) IsDeleted() bool {
	return i.DeletedAt != nil
}

// PrimarySource returns the primary source of the item, or nil
func (i *WishItem) PrimarySource() *ItemSource {
	for _, s := range i.Sources {
		if s.IsPrimary {
			return s
		}
	}
	if len(i.Sources) > 0 {
		return i.Sources[0]
	}
	return nil
}

// ItemSource is a shop/page URL a wish item was taken from
type ItemSource struct {
	ID   int64     `json:"-" db:"id"`
	UUID uuid.UUID `json:"uuid" db:"uuid"`

	SourceURL   string `json:"source_url" db:"source_url"`
	SourceName  string `json:"source_name" db:"source_name"`
	Description string `json:"description" db:"description"`
	IsPrimary   bool   `json:"is_primary" db:"is_primary"`

	WishItemID int64 `json:"-" db:"wish_item_id"`
}

// BlobImage is a content-addressed stored image. At most one row exists per
// distinct sha-256 hash; many wish items may reference the same blob.
type BlobImage struct {
	ID         int64     `json:"-" db:"id"`
	Path       string    `json:"path" db:"path"`
	SHA256Hash string    `json:"sha256_hash" db:"sha256_hash"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// MergeEnrichment folds scraped metadata into an item, writing each field
// only when the item's current value is empty. User-supplied values are
// never overwritten. Returns true when any field changed.
func MergeEnrichment(item *WishItem, data *EnrichmentData) bool {
	changed := false
	if item.Title == "" && data.Title != "" {
		item.Title = data.Title
		changed = true
	}
	if item.Description == "" && data.Description != "" {
		item.Description = data.Description
		changed = true
	}
	return changed
}
