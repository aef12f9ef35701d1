// Package resolvers maps GraphQL operations onto store calls. Resolvers are
// stateless: each call leases a store handle, runs one operation and
// translates the outcome into an application error.
package resolvers

import (
	"context"
	"errors"
	"fmt"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/connection"
	apperrors "graphgate/pkg/errors"
)

// Reasons reported next to the error type in GraphQL extensions.
const (
	ReasonDuplicateKey = "DUPLICATE_KEY"
	ReasonInvalidKey   = "INVALID_KEY"
	ReasonInvalidValue = "INVALID_VALUE"
)

// call leases a handle from conns for the duration of fn.
func call[T any](ctx context.Context, conns connection.Manager[ports.Store], entity, op, id string, fn func(ctx context.Context, s ports.Store) (T, error)) (T, error) {
	result, err := connection.With(ctx, conns, fn)
	if err != nil {
		var zero T
		return zero, translate(err, entity, op, id)
	}
	return result, nil
}

func translate(err error, entity, op, id string) error {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %q", entity, id))
	case errors.Is(err, ports.ErrDuplicateKey):
		return apperrors.NewConflictError(fmt.Sprintf("%s %q already exists", entity, id)).
			WithCode(ReasonDuplicateKey)
	case errors.Is(err, ports.ErrInvalidKey):
		return apperrors.NewValidationError(fmt.Sprintf("%s id %q cannot be stored by this backend", entity, id)).
			WithCode(ReasonInvalidKey)
	case errors.Is(err, ports.ErrInvalidValue):
		return apperrors.NewValidationError(fmt.Sprintf("%s cannot be stored by this backend: %s", entity, err)).
			WithCode(ReasonInvalidValue)
	default:
		return apperrors.NewBackendError(fmt.Sprintf("%s %s", op, entity), err)
	}
}
