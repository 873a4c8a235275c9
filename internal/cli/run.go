package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/pipeline"
	"github.com/quarkfold/cutflow/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	ConfigName string
	Input      string
	BatchSize  int

	// RunIDs overrides the run ID source (for testing).
	// If nil, defaults to UUIDv7.
	RunIDs pipeline.RunIDSource
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a track stream and persist the candidates",
		Long: `Run the selection pipeline: compile the config, stream track records
from a JSONL file, evaluate every track on both paths and persist the
config, the run row, all candidates and the QA counts.

Example:
  cutflow run --config cuts.cue --input tracks.jsonl
  cutflow run --config configs/ --name primary --input tracks.jsonl --db runs.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "config .cue file or directory (required)")
	cmd.Flags().StringVar(&opts.ConfigName, "name", "", "config to run when multiple are loaded")
	cmd.Flags().StringVar(&opts.Input, "input", "", "JSONL track file (required)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "candidate write batch size (0 = default)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// newCommandLogger builds the logger handed to the pipeline: LevelDebug
// with --verbose, LevelInfo otherwise, text lines on the command's
// stderr so stdout stays parseable.
func newCommandLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	log := newCommandLogger(opts.Verbose, cmd.ErrOrStderr())

	result, loadErrors := LoadConfigs([]string{opts.ConfigPath}, LoadModeFailFast)
	if len(loadErrors) > 0 {
		err := loadErrors[0]
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	cfg, err := selectConfig(result, opts.ConfigName)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	src, err := pipeline.OpenJSONL(opts.Input)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer src.Close()

	log.Debug("opening store", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("opening store: %v", err), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("closing store", "error", closeErr)
		}
	}()

	popts := []pipeline.Option{pipeline.WithLogger(log)}
	if opts.BatchSize > 0 {
		popts = append(popts, pipeline.WithBatchSize(opts.BatchSize))
	}
	if opts.RunIDs != nil {
		popts = append(popts, pipeline.WithRunIDs(opts.RunIDs))
	}
	p := pipeline.New(st, popts...)

	// Graceful shutdown: a signal cancels the run, which the pipeline
	// closes out with status failed.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, aborting run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := p.Run(ctx, cfg, src)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		if configAtFault(err) {
			return WrapExitError(ExitCommandError, "run aborted", err)
		}
		return WrapExitError(ExitFailure, "run aborted", err)
	}

	return outputRunSuccess(formatter, summary)
}

// outputRunSuccess outputs the run summary.
func outputRunSuccess(formatter *OutputFormatter, summary pipeline.RunSummary) error {
	if formatter.Format == "json" {
		return writeJSON(formatter.Writer, CLIResponse{
			Status: "ok",
			Data:   summary,
			RunID:  summary.RunID,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Run complete: %s\n", summary.RunID)
	fmt.Fprintf(w, "  Config: %s\n", truncateID(summary.ConfigFingerprint))
	fmt.Fprintf(w, "  Tracks: %d total, %d selected\n", summary.TracksTotal, summary.TracksSelected)
	fmt.Fprintf(w, "  Duration: %s\n", summary.Duration)
	return nil
}
