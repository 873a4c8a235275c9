package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/qa"
	"github.com/quarkfold/cutflow/internal/store"
)

// Divergence is one mismatch between a stored candidate and its
// re-evaluation. Field names the disagreeing quantity: cut_mask,
// pid_mask or selected.
type Divergence struct {
	TrackIndex int64  `json:"track_index"`
	Field      string `json:"field"`
	Stored     string `json:"stored"`
	Replayed   string `json:"replayed"`
}

// ReplayReport is the outcome of replaying one run. Counter and QA
// comparison only apply to runs that completed; a failed or
// still-running run's persisted trail is legitimately partial.
type ReplayReport struct {
	RunID             string       `json:"run_id"`
	ConfigFingerprint string       `json:"config_fingerprint"`
	Status            string       `json:"status"`
	Candidates        int          `json:"candidates"`
	Divergences       []Divergence `json:"divergences,omitempty"`
	CountersChecked   bool         `json:"counters_checked"`
	CounterMismatch   bool         `json:"counter_mismatch,omitempty"`
	QAChecked         bool         `json:"qa_checked"`
	QADiverged        bool         `json:"qa_diverged,omitempty"`
}

// Clean reports whether the replay reproduced the stored run exactly.
func (r *ReplayReport) Clean() bool {
	return len(r.Divergences) == 0 && !r.CounterMismatch && !r.QADiverged
}

// Err returns the coded divergence error for an unclean report, nil
// otherwise.
func (r *ReplayReport) Err() error {
	if r.Clean() {
		return nil
	}
	return &DivergenceError{
		RunID:           r.RunID,
		Candidates:      len(r.Divergences),
		CounterMismatch: r.CounterMismatch,
		QADiverged:      r.QADiverged,
	}
}

// Replay re-evaluates every stored candidate of a run under a selector
// rebuilt from the run's persisted config and compares masks and
// fast-path verdicts against what the original run wrote. For complete
// runs it additionally recomputes the run counters and the QA counts
// from the stored observables and compares those.
//
// The returned error covers infrastructure problems only (unknown run,
// corrupt config, store failures). Divergences are data, not errors:
// they land in the report, and callers turn them into a coded failure
// through ReplayReport.Err.
func Replay(ctx context.Context, s *store.Store, runID string) (*ReplayReport, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.GetConfig(ctx, run.ConfigFingerprint)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	sel, err := cutset.BuildSelector(cfg)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: rebuild selector: %w", runID, err)
	}

	cands, err := s.Candidates(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	report := &ReplayReport{
		RunID:             runID,
		ConfigFingerprint: run.ConfigFingerprint,
		Status:            string(run.Status),
		Candidates:        len(cands),
	}

	// Candidates come back in track index order, the original fill
	// order, so the recomputed snapshot is directly comparable.
	rec := qa.New()

	var total, selected int64
	for i := range cands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := &cands[i]
		if c.Record == nil {
			return nil, fmt.Errorf("replay run %s: candidate %d has no stored observables", runID, c.TrackIndex)
		}

		minimal := sel.IsSelectedMinimal(c.Record)
		cuts, pid := sel.CutContainer(c.Record)

		if uint64(cuts) != c.CutMask {
			report.Divergences = append(report.Divergences, Divergence{
				TrackIndex: c.TrackIndex,
				Field:      "cut_mask",
				Stored:     fmt.Sprintf("%#x", c.CutMask),
				Replayed:   fmt.Sprintf("%#x", uint64(cuts)),
			})
		}
		if uint64(pid) != c.PIDMask {
			report.Divergences = append(report.Divergences, Divergence{
				TrackIndex: c.TrackIndex,
				Field:      "pid_mask",
				Stored:     fmt.Sprintf("%#x", c.PIDMask),
				Replayed:   fmt.Sprintf("%#x", uint64(pid)),
			})
		}
		if minimal != c.Selected {
			report.Divergences = append(report.Divergences, Divergence{
				TrackIndex: c.TrackIndex,
				Field:      "selected",
				Stored:     strconv.FormatBool(c.Selected),
				Replayed:   strconv.FormatBool(minimal),
			})
		}

		sel.FillQA(rec, QAAll, c.Record)
		if minimal {
			sel.FillQA(rec, QASelected, c.Record)
		}
		total++
		if minimal {
			selected++
		}
	}

	if run.Status == cutset.RunStatusComplete {
		report.CountersChecked = true
		if total != run.TracksTotal || selected != run.TracksSelected {
			report.CounterMismatch = true
		}

		stored, err := s.QACounts(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("replay run %s: %w", runID, err)
		}
		report.QAChecked = true
		if !slices.Equal(stored, rec.Snapshot()) {
			report.QADiverged = true
		}
	}

	return report, nil
}
