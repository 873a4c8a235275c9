package testutil

import "sync"

// FixedRunIDs returns predetermined run identifiers in order.
//
// This enables deterministic pipeline execution and golden comparison:
// the same scenario with the same ID sequence produces byte-identical
// run rows and reports.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedRunIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDs creates a source that yields the given IDs in order.
//
// Example:
//
//	ids := testutil.NewFixedRunIDs("run-1", "run-2")
//	ids.NewRunID() // "run-1"
//	ids.NewRunID() // "run-2"
//	ids.NewRunID() // panic: all IDs exhausted
func NewFixedRunIDs(ids ...string) *FixedRunIDs {
	return &FixedRunIDs{ids: ids}
}

// NewRunID returns the next predetermined ID.
//
// Panics when all IDs have been consumed. This is a fail-fast approach
// to catch test misconfiguration (test started more runs than expected).
func (s *FixedRunIDs) NewRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.ids) {
		panic("FixedRunIDs: all IDs exhausted")
	}
	id := s.ids[s.idx]
	s.idx++
	return id
}
