package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/quarkfold/cutflow/internal/compiler"
	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/pipeline"
	"github.com/quarkfold/cutflow/internal/store"
	"github.com/quarkfold/cutflow/internal/track"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // domain failure (divergent replay, failed scenarios, run errors)
	ExitCommandError = 2 // usage or configuration error (bad flags, bad configs, missing entities)
)

// ErrCodeInternal marks errors outside the coded taxonomy.
const ErrCodeInternal = "internal"

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // exit code (ExitFailure or ExitCommandError)
	Message string // error message
	Err     error  // underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // separate writer for verbose output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response envelope for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`           // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`   // success payload
	Error  *CLIError   `json:"error,omitempty"`  // error details
	RunID  string      `json:"run_id,omitempty"` // run correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E102", "E401", ...
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return writeJSON(f.Writer, CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return writeJSON(f.Writer, CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter when set so JSON output on Writer stays intact.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// writeJSON encodes a response with two-space indentation.
func writeJSON(w io.Writer, resp CLIResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// truncateID shortens long identifiers (fingerprints, run IDs) for text
// display. JSON output always carries the full value.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// errorCode resolves the wire code a domain error carries. The track
// lifecycle codes are symbolic internally and numbered only here; width
// overflow is E201 and any other mutation of a finalized selector is
// E203. E202 (evaluation before finalize) never surfaces as an error:
// the selector logs and rejects instead.
func errorCode(err error) string {
	var ve *cutset.ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var te *track.ConfigError
	if errors.As(err, &te) {
		switch te.Code {
		case track.ErrCodeWidthOverflow:
			return "E201"
		case track.ErrCodeRegisterAfterFinalize, track.ErrCodeAlreadyFinalized:
			return "E203"
		case track.ErrCodeUnknownVariable:
			return cutset.CodeUnknownVariable
		case track.ErrCodeUnknownSpecies:
			return cutset.CodeBadSpecies
		}
		return ErrCodeInternal
	}
	var ie *store.IntegrityError
	if errors.As(err, &ie) {
		return store.CodeIntegrity
	}
	var nfe *store.NotFoundError
	if errors.As(err, &nfe) {
		return nfe.Code
	}
	var de *pipeline.DivergenceError
	if errors.As(err, &de) {
		return pipeline.CodeDivergence
	}
	return ErrCodeInternal
}

// configAtFault reports whether err blames the configuration or the
// invocation rather than the data, deciding exit 2 over exit 1.
func configAtFault(err error) bool {
	return cutset.IsValidation(err) ||
		compiler.IsCompileError(err) ||
		track.IsConfigError(err) ||
		store.IsNotFound(err) ||
		isLoadError(err)
}

func isLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
