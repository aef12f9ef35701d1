package connection

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAcquireTimeout is returned when no handle became available within the
// configured acquire timeout.
var ErrAcquireTimeout = errors.New("timed out waiting for a connection")

// WithAcquireTimeout bounds how long Acquire on m may wait. A non-positive
// d returns m unchanged.
func WithAcquireTimeout[H any](m Manager[H], d time.Duration) Manager[H] {
	if d <= 0 {
		return m
	}
	return &timeoutManager[H]{Manager: m, timeout: d}
}

type timeoutManager[H any] struct {
	Manager[H]
	timeout time.Duration
}

func (t *timeoutManager[H]) Acquire(ctx context.Context) (*Lease[H], error) {
	actx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	lease, err := t.Manager.Acquire(actx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrAcquireTimeout, t.timeout)
	}
	return lease, err
}
