// Package errkind classifies domain errors so transports can map them to
// responses without knowing every sentinel.
package errkind

import "github.com/go-faster/errors"

var (
	// ErrValidation marks input that blocks an operation or transition.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks lookups of unknown products, orders or postal codes.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures of a backing service that may succeed on retry.
	ErrTransient = errors.New("service unavailable")
)

// kindError keeps the message of err while also matching kind via errors.Is.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() []error { return []error{e.err, e.kind} }

// Validation tags err as a validation error.
func Validation(err error) error { return tag(ErrValidation, err) }

// NotFound tags err as a not-found error.
func NotFound(err error) error { return tag(ErrNotFound, err) }

// Transient tags err as a transient service error.
func Transient(err error) error { return tag(ErrTransient, err) }

func tag(kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Classified reports whether err carries any of the three kinds.
func Classified(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransient)
}
