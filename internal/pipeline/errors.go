package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// CodeDivergence is the replay divergence error code.
const CodeDivergence = "E401"

// DivergenceError reports that a replay did not reproduce the stored
// evaluation. It summarizes the report; the per-candidate detail lives
// in ReplayReport.Divergences.
type DivergenceError struct {
	RunID           string
	Candidates      int
	CounterMismatch bool
	QADiverged      bool
}

// Error implements the error interface.
func (e *DivergenceError) Error() string {
	parts := make([]string, 0, 3)
	if e.Candidates > 0 {
		parts = append(parts, fmt.Sprintf("%d candidate mismatch(es)", e.Candidates))
	}
	if e.CounterMismatch {
		parts = append(parts, "run counters")
	}
	if e.QADiverged {
		parts = append(parts, "qa counts")
	}
	return fmt.Sprintf("%s replay diverged: run %s: %s", CodeDivergence, e.RunID, strings.Join(parts, ", "))
}

// IsDivergence reports whether err is a replay divergence.
// Uses errors.As to handle wrapped errors.
func IsDivergence(err error) bool {
	var de *DivergenceError
	return errors.As(err, &de)
}
