package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarkfold/cutflow/internal/compiler"
)

// ConfigIssue is one coded validation finding with source position.
type ConfigIssue struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Configs int           `json:"configs"`
	Files   int           `json:"files"`
	Errors  []ConfigIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dir|file...>",
		Short: "Validate cut configs without building selectors",
		Long: `Validate CUE cut configs: syntax, schema and catalogue checks.

Accepts .cue files and directories (searched recursively). Every config
is checked and every error reported; nothing is written.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // don't print usage on errors
		SilenceErrors: true, // we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs to stderr to keep JSON intact
		Verbose:   opts.Verbose,
	}

	result, loadErrors := LoadConfigs(paths, LoadModeCollectAll)
	if result == nil {
		// Nothing loadable at all: bad paths, empty directories.
		err := loadErrors[0]
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	formatter.VerboseLog("Found %d CUE file(s)", result.FileCount)

	issues := make([]ConfigIssue, 0, len(loadErrors))
	for _, err := range loadErrors {
		issues = append(issues, issueFrom(err))
	}

	if len(issues) > 0 {
		return outputValidationErrors(formatter, result, issues)
	}
	return outputValidateSuccess(formatter, result)
}

// issueFrom flattens a loader or compiler error into a reportable issue.
func issueFrom(err error) ConfigIssue {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		issue := ConfigIssue{Code: ce.Code, Field: ce.Field, Message: ce.Message}
		if ce.Pos.IsValid() {
			issue.File = ce.Pos.Filename()
			issue.Line = ce.Pos.Line()
			issue.Column = ce.Pos.Column()
		}
		return issue
	}
	var le *LoadError
	if errors.As(err, &le) {
		issue := ConfigIssue{Code: le.Code, Message: le.Message}
		if le.Pos.IsValid() {
			issue.File = le.Pos.Filename()
			issue.Line = le.Pos.Line()
			issue.Column = le.Pos.Column()
		}
		return issue
	}
	return ConfigIssue{Code: ErrCodeInternal, Message: err.Error()}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *LoadResult) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:   true,
			Configs: len(result.Configs),
			Files:   result.FileCount,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ All configs valid (%d config(s) in %d file(s))\n",
		len(result.Configs), result.FileCount)
	return nil
}

// outputValidationErrors outputs validation failures. Config errors are
// the caller's fault, hence exit code 2.
func outputValidationErrors(formatter *OutputFormatter, result *LoadResult, issues []ConfigIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:   false,
				Configs: len(result.Configs),
				Files:   result.FileCount,
				Errors:  issues,
			},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.File != "" {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", issue.File, issue.Line, issue.Column)
		}
		if issue.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n\n", issue.Code, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
