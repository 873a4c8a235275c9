package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/selection"
	"github.com/quarkfold/cutflow/internal/store"
	"github.com/quarkfold/cutflow/internal/track"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
}

// TraceResult holds the decoded evaluation of one stored candidate.
type TraceResult struct {
	RunID       string         `json:"run_id"`
	TrackIndex  int64          `json:"track_index"`
	Config      string         `json:"config"`
	Fingerprint string         `json:"fingerprint"`
	Selected    bool           `json:"selected"`
	CutMask     uint64         `json:"cut_mask"`
	PIDMask     uint64         `json:"pid_mask"`
	Bits        []BitDetail    `json:"bits"`
	PIDBits     []PIDBitDetail `json:"pid_bits,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id> <track-index>",
		Short: "Decode the stored masks of one candidate bit by bit",
		Long: `Trace one candidate of a persisted run: fetch its stored masks and
retained observables, rebuild the bit layout from the run's config and
print every bit with its criterion, the observed value and the stored
pass/fail outcome.

Examples:
  cutflow trace 0190cafe-... 42 --db runs.db
  cutflow trace 0190cafe-... 42 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || index < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("track index must be a non-negative integer, got %q", args[1]))
			}
			return runTrace(opts, cmd, args[0], index)
		},
	}

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command, runID string, index int64) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	log := newCommandLogger(opts.Verbose, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("opening store: %v", err), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer st.Close()

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "get run", err)
	}
	cfg, err := st.GetConfig(ctx, run.ConfigFingerprint)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "get config", err)
	}
	cand, err := st.Candidate(ctx, runID, index)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "get candidate", err)
	}

	sel, err := cutset.BuildSelector(cfg, track.WithLogger(log))
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "rebuild selector", err)
	}

	bits, pidBits := decodeBits(sel, cfg, cand.Record,
		selection.Mask(cand.CutMask), selection.Mask(cand.PIDMask))

	result := &TraceResult{
		RunID:       runID,
		TrackIndex:  cand.TrackIndex,
		Config:      cfg.Name,
		Fingerprint: run.ConfigFingerprint,
		Selected:    cand.Selected,
		CutMask:     cand.CutMask,
		PIDMask:     cand.PIDMask,
		Bits:        bits,
		PIDBits:     pidBits,
	}
	return outputTraceResult(formatter, result)
}

// outputTraceResult outputs the decoded candidate.
func outputTraceResult(formatter *OutputFormatter, result *TraceResult) error {
	if formatter.Format == "json" {
		return writeJSON(formatter.Writer, CLIResponse{
			Status: "ok",
			Data:   result,
			RunID:  result.RunID,
		})
	}

	w := formatter.Writer
	verdict := "selected"
	if !result.Selected {
		verdict = "rejected"
	}
	fmt.Fprintf(w, "Trace: run %s, track %d\n", truncateID(result.RunID), result.TrackIndex)
	fmt.Fprintf(w, "  Config: %s (fingerprint %s)\n", result.Config, truncateID(result.Fingerprint))
	fmt.Fprintf(w, "  Verdict: %s\n", verdict)
	fmt.Fprintf(w, "  Cut mask: %#x\n", result.CutMask)
	fmt.Fprintf(w, "  PID mask: %#x\n", result.PIDMask)
	writeBitDetail(w, result.Bits, result.PIDBits)
	return nil
}
