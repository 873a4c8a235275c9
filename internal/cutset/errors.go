package cutset

import (
	"errors"
	"fmt"
)

// Structural validation codes. Loaders and the CLI map these onto exit
// code 2 (configuration at fault).
const (
	CodeMissingField    = "E101"
	CodeUnknownVariable = "E102"
	CodeBadSpecies      = "E103"
	CodeBadWidth        = "E104"
	CodeEmptyCuts       = "E105"
	CodeBadThresholds   = "E106"
	CodeDuplicateName   = "E107"
)

// ValidationError reports one structural problem in a Config. Path
// points at the offending field in config-relative form, for example
// "cuts[2].thresholds[0]".
type ValidationError struct {
	Code    string
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Code, e.Path, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
