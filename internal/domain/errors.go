package domain

import "errors"

// ErrNotFound signals that a target or related record vanished. Referential,
// non-transient: jobs hitting it must not be retried.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate signals a uniqueness-constraint violation (duplicate source
// URL per item, duplicate list title per user, taken email/username).
var ErrDuplicate = errors.New("duplicate record")
