package ports

import (
	"errors"
	"fmt"
)

// Outcomes every Store implementation reports with the same meaning.
var (
	// ErrNotFound means no record exists for the given id.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey means create hit an id the engine already holds.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidKey means the engine cannot represent the given id
	// (e.g. a non-numeric id for an auto-increment column).
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidValue means the engine cannot store a field value without
	// altering it (e.g. a price beyond the column's precision).
	ErrInvalidValue = errors.New("invalid value")
)

// BackendError reports a failed call to the storage engine itself:
// connection loss, protocol errors, malformed responses.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

// NewBackendError wraps err as a backend failure of op.
func NewBackendError(backend, op string, err error) *BackendError {
	return &BackendError{Backend: backend, Op: op, Err: err}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err carries a BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
