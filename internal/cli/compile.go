package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/track"
)

// ResolvedBit describes one ordinary container bit.
type ResolvedBit struct {
	Bit        int     `json:"bit"`
	Variable   string  `json:"variable"`
	Comparison string  `json:"comparison"`
	Threshold  float64 `json:"threshold"`
}

// ResolvedPIDBit describes one PID container bit.
type ResolvedPIDBit struct {
	Bit       int     `json:"bit"`
	Species   string  `json:"species"`
	Detector  string  `json:"detector"` // "tpc" or "comb"
	NSigmaMax float64 `json:"nsigma_max"`
}

// CollapsedBound is one fast-path threshold after collapsing.
type CollapsedBound struct {
	Variable   string  `json:"variable"`
	Comparison string  `json:"comparison"`
	Threshold  float64 `json:"threshold"`
	Criteria   int     `json:"criteria"`
}

// ResolvedConfig is the fully resolved view of one config: identity,
// container bit layout and the collapsed fast-path bounds.
type ResolvedConfig struct {
	Name                string           `json:"name"`
	Fingerprint         string           `json:"fingerprint"`
	ContainerWidth      uint             `json:"container_width"`
	OrdinaryBits        []ResolvedBit    `json:"ordinary_bits"`
	PIDBits             []ResolvedPIDBit `json:"pid_bits,omitempty"`
	Collapsed           []CollapsedBound `json:"collapsed"`
	Species             []string         `json:"species,omitempty"`
	RejectNotPropagated bool             `json:"reject_not_propagated,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	var configName string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "compile <dir|file...>",
		Short: "Compile a config and print its resolved bit layout",
		Long: `Compile a CUE cut config and print the resolved view: every container
bit with its criterion, the PID layout, the collapsed fast-path bounds
and the config fingerprint.

When the paths hold more than one config, pick one with --name.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args, configName, outputPath, cmd)
		},
	}

	cmd.Flags().StringVar(&configName, "name", "", "config to resolve when multiple are loaded")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the resolved config JSON to a file")

	return cmd
}

func runCompile(opts *RootOptions, paths []string, configName, outputPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrors := LoadConfigs(paths, LoadModeFailFast)
	if len(loadErrors) > 0 {
		err := loadErrors[0]
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	formatter.VerboseLog("Loaded %d config(s) from %d file(s)", len(result.Configs), result.FileCount)

	cfg, err := selectConfig(result, configName)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	resolved, err := resolveConfig(cfg)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if outputPath != "" {
		if err := writeResolvedFile(outputPath, resolved); err != nil {
			_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		formatter.VerboseLog("Wrote resolved config to %s", outputPath)
	}

	return outputCompileSuccess(formatter, resolved)
}

// resolveConfig builds a finalized selector from the config and reads
// back its bit layout and collapsed bounds.
func resolveConfig(cfg *cutset.Config) (*ResolvedConfig, error) {
	sel, err := cutset.BuildSelector(cfg)
	if err != nil {
		return nil, err
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedConfig{
		Name:                cfg.Name,
		Fingerprint:         fp,
		ContainerWidth:      sel.Width(),
		Species:             cfg.PID.Species,
		RejectNotPropagated: cfg.RejectNotPropagated,
	}

	for i, c := range sel.OrdinaryLayout() {
		v := track.Variable(c.Variable)
		resolved.OrdinaryBits = append(resolved.OrdinaryBits, ResolvedBit{
			Bit:        i,
			Variable:   v.Name(),
			Comparison: c.Comparison.Symbol(),
			Threshold:  c.Threshold,
		})
	}
	for i, pb := range sel.PIDLayout() {
		resolved.PIDBits = append(resolved.PIDBits, ResolvedPIDBit{
			Bit:       i,
			Species:   pb.Species.String(),
			Detector:  detectorName(pb.Combined),
			NSigmaMax: pb.NSigmaMax,
		})
	}
	for _, v := range track.Variables() {
		th, n := sel.CollapsedBound(v)
		if n == 0 {
			continue
		}
		resolved.Collapsed = append(resolved.Collapsed, CollapsedBound{
			Variable:   v.Name(),
			Comparison: v.Comparison().Symbol(),
			Threshold:  th,
			Criteria:   n,
		})
	}
	return resolved, nil
}

func detectorName(combined bool) string {
	if combined {
		return "comb"
	}
	return "tpc"
}

// writeResolvedFile writes the resolved config as indented JSON.
func writeResolvedFile(path string, resolved *ResolvedConfig) error {
	data, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding resolved config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// outputCompileSuccess outputs the resolved config.
func outputCompileSuccess(formatter *OutputFormatter, resolved *ResolvedConfig) error {
	if formatter.Format == "json" {
		return writeJSON(formatter.Writer, CLIResponse{Status: "ok", Data: resolved})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled config %q (fingerprint %s)\n", resolved.Name, truncateID(resolved.Fingerprint))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "=== Ordinary bits (width %d) ===\n", resolved.ContainerWidth)
	for _, b := range resolved.OrdinaryBits {
		fmt.Fprintf(w, "  [%d] %s %s %g\n", b.Bit, b.Variable, b.Comparison, b.Threshold)
	}

	if len(resolved.PIDBits) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== PID bits ===")
		for _, b := range resolved.PIDBits {
			fmt.Fprintf(w, "  [%d] %s %s |nsigma| <= %g\n", b.Bit, b.Species, b.Detector, b.NSigmaMax)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Fast path (collapsed) ===")
	for _, c := range resolved.Collapsed {
		fmt.Fprintf(w, "  %s %s %g (%d criteria)\n", c.Variable, c.Comparison, c.Threshold, c.Criteria)
	}

	return nil
}
