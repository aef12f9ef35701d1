// Package connection owns the lifecycle of storage engine handles and
// mediates access to them. A Manager hands out leases; a lease must be
// released on every exit path, which With does for the caller.
package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Mode selects how handles are shared between in-flight operations.
type Mode string

const (
	// ModeExclusive serializes every operation through one handle.
	ModeExclusive Mode = "exclusive"
	// ModePooled checks handles out of a fixed-size pool.
	ModePooled Mode = "pooled"
)

// ErrClosed is returned by Acquire once the manager has been closed.
var ErrClosed = errors.New("connection manager closed")

// Manager hands out scoped access to handles of type H.
type Manager[H any] interface {
	// Acquire blocks until a handle is available or ctx is done.
	Acquire(ctx context.Context) (*Lease[H], error)

	// Mode reports the sharing policy.
	Mode() Mode

	// Close waits for outstanding leases to be released, then closes
	// every handle with the closer the manager was built with.
	Close(ctx context.Context) error
}

// Observer receives lease events. It is how the metrics collector sees the
// manager without the manager importing prometheus.
type Observer interface {
	ObserveLeaseWait(mode string, wait time.Duration, err error)
	LeaseAcquired(mode string)
	LeaseReleased(mode string)
}

// CloseFunc closes one handle.
type CloseFunc[H any] func(ctx context.Context, h H) error

// Option configures a manager.
type Option[H any] func(*options[H])

type options[H any] struct {
	observer Observer
	closer   CloseFunc[H]
}

// WithObserver reports lease events to o.
func WithObserver[H any](o Observer) Option[H] {
	return func(opts *options[H]) {
		opts.observer = o
	}
}

// WithCloser sets how handles are closed when the manager closes.
func WithCloser[H any](fn CloseFunc[H]) Option[H] {
	return func(opts *options[H]) {
		opts.closer = fn
	}
}

func buildOptions[H any](opts []Option[H]) options[H] {
	o := options[H]{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Lease is a checked-out handle. It is valid until Release is called.
type Lease[H any] struct {
	handle  H
	release func()
	once    sync.Once
}

func newLease[H any](h H, release func()) *Lease[H] {
	return &Lease[H]{handle: h, release: release}
}

// Handle returns the leased handle.
func (l *Lease[H]) Handle() H {
	return l.handle
}

// Release returns the handle to the manager. Calling it more than once is a
// no-op.
func (l *Lease[H]) Release() {
	l.once.Do(l.release)
}

// With acquires a lease, runs fn with its handle and releases the lease
// before returning, whether fn succeeds, fails or panics.
func With[H any, T any](ctx context.Context, m Manager[H], fn func(ctx context.Context, h H) (T, error)) (T, error) {
	var zero T

	lease, err := m.Acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer lease.Release()

	return fn(ctx, lease.Handle())
}

type nopObserver struct{}

func (nopObserver) ObserveLeaseWait(string, time.Duration, error) {}
func (nopObserver) LeaseAcquired(string)                          {}
func (nopObserver) LeaseReleased(string)                          {}
