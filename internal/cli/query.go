package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/query"
	"github.com/quarkfold/cutflow/internal/store"
	"github.com/quarkfold/cutflow/internal/track"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Selected  bool
	Rejected  bool
	Sign      int
	PtMin     float64
	PtMax     float64
	EtaAbsMax float64
	CutPassed []string
	CutFailed []string
	PIDPassed []string
	Limit     int
}

// QueryResult holds the matched candidate rows.
type QueryResult struct {
	RunID   string      `json:"run_id"`
	Matched int         `json:"matched"`
	Rows    []query.Row `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <run-id>",
		Short: "Filter the stored candidates of a run",
		Long: `Query the candidates of a persisted run with a typed filter. Cut and
PID constraints resolve variable names to the bit positions of the
run's own config; rows come back ordered by track index.

Examples:
  cutflow query 0190cafe-... --selected
  cutflow query 0190cafe-... --cut-passed PtMin --cut-failed EtaMax
  cutflow query 0190cafe-... --pid-passed pi:comb --pt-min 0.5 --limit 20`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Selected, "selected", false, "only candidates the fast path selected")
	flags.BoolVar(&opts.Rejected, "rejected", false, "only candidates the fast path rejected")
	flags.IntVar(&opts.Sign, "sign", 0, "charge sign (+1 or -1)")
	flags.Float64Var(&opts.PtMin, "pt-min", 0, "minimum pt, inclusive")
	flags.Float64Var(&opts.PtMax, "pt-max", 0, "maximum pt, inclusive")
	flags.Float64Var(&opts.EtaAbsMax, "eta-abs-max", 0, "maximum |eta|, inclusive")
	flags.StringArrayVar(&opts.CutPassed, "cut-passed", nil, "variable whose ordinary bits must all be set (repeatable)")
	flags.StringArrayVar(&opts.CutFailed, "cut-failed", nil, "variable whose ordinary bits must all be clear (repeatable)")
	flags.StringArrayVar(&opts.PIDPassed, "pid-passed", nil, "species:detector whose PID bits must be set, detector tpc or comb (repeatable)")
	flags.IntVar(&opts.Limit, "limit", 0, "cap the row count")
	cmd.MarkFlagsMutuallyExclusive("selected", "rejected")

	return cmd
}

// buildFilter assembles the typed filter, mapping only the flags the
// user actually set.
func buildFilter(opts *QueryOptions, cmd *cobra.Command, runID string) query.Filter {
	f := query.Filter{
		RunID:     runID,
		CutPassed: opts.CutPassed,
		CutFailed: opts.CutFailed,
		PIDPassed: opts.PIDPassed,
	}
	if opts.Selected {
		t := true
		f.Selected = &t
	}
	if opts.Rejected {
		fa := false
		f.Selected = &fa
	}
	changed := cmd.Flags().Changed
	if changed("sign") {
		f.Sign = &opts.Sign
	}
	if changed("pt-min") {
		f.PtMin = &opts.PtMin
	}
	if changed("pt-max") {
		f.PtMax = &opts.PtMax
	}
	if changed("eta-abs-max") {
		f.EtaAbsMax = &opts.EtaAbsMax
	}
	if changed("limit") {
		f.Limit = &opts.Limit
	}
	return f
}

func runQuery(opts *QueryOptions, cmd *cobra.Command, runID string) error {
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
	sel, err := cutset.BuildSelector(cfg, track.WithLogger(log))
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "rebuild selector", err)
	}

	f := buildFilter(opts, cmd, runID)
	sqlText, params, err := query.Compile(f, query.NewResolver(sel))
	if err != nil {
		_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "compile query", err)
	}

	log.Debug("executing query", "sql", sqlText)
	rows, err := st.Query(ctx, sqlText, params...)
	if err != nil {
		_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
		return WrapExitError(ExitFailure, "execute query", err)
	}
	defer rows.Close()

	matched, err := query.ScanRows(rows)
	if err != nil {
		_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
		return WrapExitError(ExitFailure, "scan rows", err)
	}

	return outputQueryResult(formatter, &QueryResult{
		RunID:   runID,
		Matched: len(matched),
		Rows:    matched,
	})
}

// outputQueryResult outputs the matched rows.
func outputQueryResult(formatter *OutputFormatter, result *QueryResult) error {
	if formatter.Format == "json" {
		return writeJSON(formatter.Writer, CLIResponse{
			Status: "ok",
			Data:   result,
			RunID:  result.RunID,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Query matched %d candidate(s) in run %s\n", result.Matched, truncateID(result.RunID))
	for _, r := range result.Rows {
		verdict := "selected"
		if !r.Selected {
			verdict = "rejected"
		}
		fmt.Fprintf(w, "  [%d] %s cut=%#x pid=%#x sign=%+d pt=%g eta=%g\n",
			r.TrackIndex, verdict, r.CutMask, r.PIDMask, r.Sign, r.Pt, r.Eta)
	}
	return nil
}
