package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/track"
)

// TrackOutcome records both evaluation paths for one input track.
type TrackOutcome struct {
	// Index is the track's position in the scenario list.
	Index int `json:"index"`

	// Minimal is the fast-path verdict.
	Minimal bool `json:"minimal"`

	// CutMask holds the ordinary container bits.
	CutMask uint64 `json:"cut_mask"`

	// PIDMask holds the PID container bits.
	PIDMask uint64 `json:"pid_mask"`
}

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass indicates overall scenario success: every expectation clause
	// matched.
	Pass bool `json:"pass"`

	// ScenarioName echoes the scenario for report headers.
	ScenarioName string `json:"scenario_name"`

	// ConfigName and Width describe the selector the scenario built.
	// Width is zero when construction failed.
	ConfigName string `json:"config_name"`
	Width      uint   `json:"width"`

	// Outcomes holds both evaluation paths per track, in input order.
	// Empty for finalize-error scenarios.
	Outcomes []TrackOutcome `json:"outcomes,omitempty"`

	// BuildError carries the selector construction error text for
	// finalize-error scenarios.
	BuildError string `json:"build_error,omitempty"`

	// Errors contains expectation mismatch messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// AddError records an expectation mismatch and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Run executes a scenario: builds the selector from the inline config,
// evaluates every track on both paths and checks the expectations.
//
// The returned error covers harness-level failures only (a config that
// should have built but didn't, indexes out of range, unparseable mask
// literals). Expectation mismatches land in Result.Errors with Pass false.
func Run(sc *Scenario) (*Result, error) {
	res := &Result{
		Pass:         true,
		ScenarioName: sc.Name,
		ConfigName:   sc.Config.Name,
	}

	// Diagnostics would vary across environments; drop them so reports
	// stay byte-stable.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	sel, err := cutset.BuildSelector(&sc.Config, track.WithLogger(quiet))

	if sc.Expect.FinalizeError != "" {
		if err == nil {
			res.AddError(fmt.Sprintf("selector construction succeeded, expected error containing %q", sc.Expect.FinalizeError))
			return res, nil
		}
		res.BuildError = err.Error()
		if !strings.Contains(err.Error(), sc.Expect.FinalizeError) {
			res.AddError(fmt.Sprintf("construction error %q does not contain %q", err.Error(), sc.Expect.FinalizeError))
		}
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build selector: %w", err)
	}
	res.Width = sel.Width()

	res.Outcomes = make([]TrackOutcome, len(sc.Tracks))
	for i := range sc.Tracks {
		r := &sc.Tracks[i]
		cuts, pid := sel.CutContainer(r)
		res.Outcomes[i] = TrackOutcome{
			Index:   i,
			Minimal: sel.IsSelectedMinimal(r),
			CutMask: uint64(cuts),
			PIDMask: uint64(pid),
		}
	}

	if err := checkExpectations(sc, sel, res); err != nil {
		return nil, err
	}
	return res, nil
}

// checkExpectations applies every declared clause to the outcomes.
// Mismatches accumulate on res; only malformed clauses return an error.
func checkExpectations(sc *Scenario, sel *track.Selector, res *Result) error {
	if sc.Expect.Selected != nil {
		want := make(map[int]bool, len(*sc.Expect.Selected))
		for _, idx := range *sc.Expect.Selected {
			if idx < 0 || idx >= len(res.Outcomes) {
				return fmt.Errorf("expect.selected: track index %d out of range", idx)
			}
			want[idx] = true
		}
		for _, o := range res.Outcomes {
			switch {
			case o.Minimal && !want[o.Index]:
				res.AddError(fmt.Sprintf("track %d: selected, expected rejected", o.Index))
			case !o.Minimal && want[o.Index]:
				res.AddError(fmt.Sprintf("track %d: rejected, expected selected", o.Index))
			}
		}
	}

	for _, m := range sc.Expect.Masks {
		if m.Track < 0 || m.Track >= len(res.Outcomes) {
			return fmt.Errorf("expect.masks: track index %d out of range", m.Track)
		}
		o := res.Outcomes[m.Track]
		if m.Cut != "" {
			want, err := ParseMask(m.Cut)
			if err != nil {
				return fmt.Errorf("expect.masks track %d: %w", m.Track, err)
			}
			if o.CutMask != want {
				res.AddError(fmt.Sprintf("track %d: cut mask %#x, expected %#x", m.Track, o.CutMask, want))
			}
		}
		if m.PID != "" {
			want, err := ParseMask(m.PID)
			if err != nil {
				return fmt.Errorf("expect.masks track %d: %w", m.Track, err)
			}
			if o.PIDMask != want {
				res.AddError(fmt.Sprintf("track %d: pid mask %#x, expected %#x", m.Track, o.PIDMask, want))
			}
		}
	}

	for _, d := range sc.Expect.Diverge {
		if d.Track < 0 || d.Track >= len(res.Outcomes) {
			return fmt.Errorf("expect.diverge: track index %d out of range", d.Track)
		}
		o := res.Outcomes[d.Track]
		if o.Minimal != d.Minimal {
			res.AddError(fmt.Sprintf("track %d: minimal verdict %t, expected %t", d.Track, o.Minimal, d.Minimal))
		}
		if d.AllCuts {
			n := uint(len(sel.OrdinaryLayout()))
			full := uint64(1)<<n - 1
			if o.CutMask != full {
				res.AddError(fmt.Sprintf("track %d: cut mask %#x, expected all %d ordinary bits set", d.Track, o.CutMask, n))
			}
		}
	}
	return nil
}
