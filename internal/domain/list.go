package domain

import (
	"time"

	"github.com/google/uuid"
)

// List groups wishlist items for sharing
type List struct {
	ID   int64     `json:"-" db:"id"`
	UUID uuid.UUID `json:"uuid" db:"uuid"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// Share properties
	AllowCompletionByOther   bool `json:"allow_completion_by_other" db:"allow_completion_by_other"`
	AllowAnonymousCompletion bool `json:"allow_anonymous_completion" db:"allow_anonymous_completion"`
	IsShared                 bool `json:"is_shared" db:"is_shared"`

	IsDeleted bool `json:"-" db:"is_deleted"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`

	UserID int64 `json:"-" db:"user_id"`
}
