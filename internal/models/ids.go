package models

import "time"

import "github.com/google/uuid"

// NewID returns a new opaque 128-bit random identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time truncated to second precision, matching the
// RFC3339 granularity persisted to the store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
