package track

import (
	"errors"
	"fmt"
)

// ConfigError represents an error detected while building a Selector.
//
// Configuration errors include:
//   - Unknown variable: a cut names a variable outside the catalogue
//   - Unknown species: a PID species outside the catalogue
//   - Lifecycle violations: mutating a finalized Selector, finalizing twice
//   - Width overflow: ordinary criteria do not fit the declared container
//
// All of them are fatal for the configuration: no evaluation may proceed.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Subject names the variable or species involved, when there is one.
	Subject string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeUnknownVariable indicates a cut referenced an uncatalogued variable.
	ErrCodeUnknownVariable ConfigErrorCode = "UNKNOWN_VARIABLE"

	// ErrCodeUnknownSpecies indicates an uncatalogued PID species.
	ErrCodeUnknownSpecies ConfigErrorCode = "UNKNOWN_SPECIES"

	// ErrCodeRegisterAfterFinalize indicates mutation of a finalized Selector.
	ErrCodeRegisterAfterFinalize ConfigErrorCode = "REGISTER_AFTER_FINALIZE"

	// ErrCodeAlreadyFinalized indicates Finalize was called twice.
	ErrCodeAlreadyFinalized ConfigErrorCode = "ALREADY_FINALIZED"

	// ErrCodeWidthOverflow indicates the ordinary criteria exceed the
	// declared container width.
	ErrCodeWidthOverflow ConfigErrorCode = "WIDTH_OVERFLOW"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsWidthOverflow reports whether err is a width-overflow configuration
// error, from either this package or the selection width check.
func IsWidthOverflow(err error) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeWidthOverflow
	}
	return false
}

func newUnknownVariableError(name string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownVariable,
		Message: "variable not in the selection catalogue",
		Subject: name,
	}
}

func newUnknownSpeciesError(name string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownSpecies,
		Message: "species not in the PID catalogue",
		Subject: name,
	}
}
