package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/pipeline"
	"github.com/quarkfold/cutflow/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-evaluate a stored run and verify it reproduces",
		Long: `Replay a persisted run: rebuild the selector from the run's stored
config, re-evaluate every candidate from its retained observables and
compare masks and verdicts against what the run wrote. For complete
runs the counters and QA counts are checked too.

Exit codes:
  0 - Replay reproduced the stored run exactly
  1 - Divergence detected
  2 - Command error (run not found, store unreadable)

Examples:
  cutflow replay 0190cafe-... --db runs.db
  cutflow replay 0190cafe-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd, args[0])
		},
	}

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command, runID string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

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

	report, err := pipeline.Replay(ctx, st, runID)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		if configAtFault(err) {
			return WrapExitError(ExitCommandError, "replay", err)
		}
		return WrapExitError(ExitFailure, "replay", err)
	}

	return outputReplayReport(formatter, report)
}

// outputReplayReport outputs the replay report. An unclean report exits 1.
func outputReplayReport(formatter *OutputFormatter, report *pipeline.ReplayReport) error {
	divergence := report.Err()

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "ok",
			Data:   report,
			RunID:  report.RunID,
		}
		if divergence != nil {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    pipeline.CodeDivergence,
				Message: divergence.Error(),
			}
		}
		if err := writeJSON(formatter.Writer, resp); err != nil {
			return err
		}
		if divergence != nil {
			return WrapExitError(ExitFailure, "replay diverged", divergence)
		}
		return nil
	}

	w := formatter.Writer
	if divergence == nil {
		fmt.Fprintf(w, "✓ Replay clean: %s\n", report.RunID)
	} else {
		fmt.Fprintf(w, "✗ Replay diverged: %s\n", report.RunID)
	}
	fmt.Fprintf(w, "  Config: %s\n", truncateID(report.ConfigFingerprint))
	fmt.Fprintf(w, "  Status: %s\n", report.Status)
	fmt.Fprintf(w, "  Candidates: %d (%d mismatch(es))\n", report.Candidates, len(report.Divergences))

	for _, d := range report.Divergences {
		fmt.Fprintf(w, "  [%d] %s: stored %s, replayed %s\n", d.TrackIndex, d.Field, d.Stored, d.Replayed)
	}

	fmt.Fprintf(w, "  Counters: %s\n", checkWord(report.CountersChecked, report.CounterMismatch))
	fmt.Fprintf(w, "  QA: %s\n", checkWord(report.QAChecked, report.QADiverged))

	if divergence != nil {
		return WrapExitError(ExitFailure, "replay diverged", divergence)
	}
	return nil
}

// checkWord renders one comparison leg: skipped for incomplete runs,
// verified or diverged otherwise.
func checkWord(checked, diverged bool) string {
	switch {
	case !checked:
		return "skipped"
	case diverged:
		return "diverged"
	default:
		return "verified"
	}
}
