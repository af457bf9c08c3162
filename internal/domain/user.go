package domain

import "time"

// User represents a wishlist account holder
type User struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	AliasName    string `json:"alias_name" db:"alias_name"`

	// Status flags
	IsActive      bool `json:"is_active" db:"is_active"`
	IsStaff       bool `json:"is_staff" db:"is_staff"`
	EmailVerified bool `json:"email_verified" db:"email_verified"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the name shown to other users, preferring the alias
func (u *User) DisplayName() string {
	if u.AliasName != "" {
		return u.AliasName
	}
	if u.FirstName != "" || u.LastName != "" {
		name := u.FirstName
		if u.LastName != "" {
			if name != "" {
				name += " "
			}
			name += u.LastName
		}
		return name
	}
	return u.Username
}
