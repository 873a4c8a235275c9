package pipeline

import "github.com/google/uuid"

// RunIDSource mints run identifiers for new pipeline runs.
// Implemented by UUIDSource (production) and testutil.FixedRunIDs
// (tests).
type RunIDSource interface {
	NewRunID() string
}

// UUIDSource mints time-sortable UUIDv7 run IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making run
// IDs sortable by creation time, which keeps run listings and database
// pages in chronological order for free.
//
// Thread-safety: UUIDSource is stateless and safe for concurrent use.
type UUIDSource struct{}

// NewRunID creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDSource) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
