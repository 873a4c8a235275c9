package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/track"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	ConfigPath string
	ConfigName string
	Track      string
}

// EvalResult holds the one-off evaluation of a single track.
type EvalResult struct {
	Config      string         `json:"config"`
	Fingerprint string         `json:"fingerprint"`
	Selected    bool           `json:"selected"`
	CutMask     uint64         `json:"cut_mask"`
	PIDMask     uint64         `json:"pid_mask"`
	Bits        []BitDetail    `json:"bits"`
	PIDBits     []PIDBitDetail `json:"pid_bits,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate one track against a config without persisting",
		Long: `Evaluate a single track record against a compiled config and print
the fast-path verdict, both masks and the per-bit breakdown. Nothing
is written to the store.

The track is a JSON object, inline or @file:

Examples:
  cutflow eval --config cuts.cue --track '{"sign":1,"pt":0.8,"eta":0.2}'
  cutflow eval --config configs/ --name primary --track @track.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "config .cue file or directory (required)")
	cmd.Flags().StringVar(&opts.ConfigName, "name", "", "config to use when multiple are loaded")
	cmd.Flags().StringVar(&opts.Track, "track", "", "track record as JSON, or @file (required)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("track")

	return cmd
}

// parseTrackArg decodes the --track argument: a JSON object inline, or
// @path naming a file that holds one.
func parseTrackArg(arg string) (*track.Record, error) {
	data := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		var err error
		data, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, fmt.Errorf("read track file: %w", err)
		}
	}
	r := &track.Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse track record: %w", err)
	}
	return r, nil
}

func runEval(opts *EvalOptions, cmd *cobra.Command) error {
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

	rec, err := parseTrackArg(opts.Track)
	if err != nil {
		_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	sel, err := cutset.BuildSelector(cfg, track.WithLogger(log))
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "build selector", err)
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprint config", err)
	}

	selected := sel.IsSelectedMinimal(rec)
	cuts, pid := sel.CutContainer(rec)
	bits, pidBits := decodeBits(sel, cfg, rec, cuts, pid)

	eval := &EvalResult{
		Config:      cfg.Name,
		Fingerprint: fp,
		Selected:    selected,
		CutMask:     uint64(cuts),
		PIDMask:     uint64(pid),
		Bits:        bits,
		PIDBits:     pidBits,
	}
	return outputEvalResult(formatter, eval)
}

// outputEvalResult outputs the evaluation.
func outputEvalResult(formatter *OutputFormatter, eval *EvalResult) error {
	if formatter.Format == "json" {
		return writeJSON(formatter.Writer, CLIResponse{
			Status: "ok",
			Data:   eval,
		})
	}

	w := formatter.Writer
	if eval.Selected {
		fmt.Fprintf(w, "✓ Track selected by config %q (fingerprint %s)\n", eval.Config, truncateID(eval.Fingerprint))
	} else {
		fmt.Fprintf(w, "✗ Track rejected by config %q (fingerprint %s)\n", eval.Config, truncateID(eval.Fingerprint))
	}
	fmt.Fprintf(w, "  Cut mask: %#x\n", eval.CutMask)
	fmt.Fprintf(w, "  PID mask: %#x\n", eval.PIDMask)
	writeBitDetail(w, eval.Bits, eval.PIDBits)
	return nil
}
