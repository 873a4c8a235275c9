package store

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store error codes.
const (
	// CodeIntegrity marks writes that conflict with data already
	// recorded, or reads that find recorded data inconsistent with its
	// content address.
	CodeIntegrity = "E301"

	// CodeRunNotFound marks lookups for a run ID with no row.
	CodeRunNotFound = "E302"

	// CodeCandidateNotFound marks lookups for a (run, track index)
	// pair with no row.
	CodeCandidateNotFound = "E303"
)

// IntegrityError reports a violated store invariant: a duplicate
// candidate row, a run ID reused, a foreign key without its target, or
// a config body that no longer matches its fingerprint.
type IntegrityError struct {
	Op      string // operation that detected the violation
	Key     string // offending key, e.g. "run-id/track-index"
	Message string // empty when Err carries the detail
	Err     error  // underlying driver error, if any
}

func (e *IntegrityError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s %s: %s", CodeIntegrity, e.Op, e.Key, e.Message)
	}
	return fmt.Sprintf("%s %s %s: %v", CodeIntegrity, e.Op, e.Key, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// NotFoundError reports a lookup for an entity the store does not hold.
type NotFoundError struct {
	Code   string // CodeRunNotFound or CodeCandidateNotFound
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s %q not found", e.Code, e.Entity, e.Key)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// isConstraint reports whether err is a SQLite constraint violation
// (primary key, unique, foreign key, or check).
func isConstraint(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}
