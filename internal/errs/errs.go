// Package errs defines the typed failures returned by the gating engine.
// NotFound and Validation failures are returned before any state is
// mutated; Persistence failures abort the current operation with the
// target document either fully written or untouched.
package errs

import (
	"errors"
	"fmt"
)

// NotFoundError reports an unknown pipeline, stage, checkpoint, finding,
// or decision. Operating on an already-resolved checkpoint or finding is
// NotFound, not success.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound builds a NotFoundError for the given entity kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError reports a caller mistake: a missing required reason,
// an illegal stage transition, or an attempt to fork a superseded
// decision.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PersistenceError reports a storage read or write failure.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps a storage failure with the operation and path.
func Persistence(op, path string, err error) error {
	return &PersistenceError{Op: op, Path: path, Err: err}
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
