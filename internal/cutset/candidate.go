package cutset

import (
	"time"

	"github.com/quarkfold/cutflow/internal/track"
)

// Candidate is one evaluated track: the input record, the two masks and
// the fast-path verdict. TrackIndex is the zero-based position in the
// run's input stream and keys the candidate within its run.
type Candidate struct {
	TrackIndex int64         `json:"track_index"`
	CutMask    uint64        `json:"cut_mask"`
	PIDMask    uint64        `json:"pid_mask"`
	Selected   bool          `json:"selected"`
	Record     *track.Record `json:"record,omitempty"`
}

// RunStatus is the lifecycle state of a persisted run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Valid reports whether s is a known run status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusRunning, RunStatusComplete, RunStatusFailed:
		return true
	}
	return false
}

// Run is the store-layer record of one pipeline execution.
type Run struct {
	RunID             string    `json:"run_id"`
	ConfigFingerprint string    `json:"config_fingerprint"`
	Source            string    `json:"source"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at,omitempty"`
	TracksTotal       int64     `json:"tracks_total"`
	TracksSelected    int64     `json:"tracks_selected"`
	Status            RunStatus `json:"status"`
}
