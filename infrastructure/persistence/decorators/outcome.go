// Package decorators wraps a ports.Store with cross-cutting concerns:
// logging, metrics and tracing. Each decorator keeps the Store interface so
// they stack in any order.
package decorators

import (
	"errors"

	"graphgate/application/ports"
)

// Outcome classifies the result of a store call for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ports.ErrNotFound):
		return "not_found"
	case errors.Is(err, ports.ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ports.ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, ports.ErrInvalidValue):
		return "invalid_value"
	case ports.IsBackendError(err):
		return "backend_error"
	default:
		return "error"
	}
}

// expected reports whether err is a contractual outcome rather than a fault.
func expected(err error) bool {
	switch Outcome(err) {
	case "not_found", "duplicate_key", "invalid_key", "invalid_value":
		return true
	}
	return false
}
