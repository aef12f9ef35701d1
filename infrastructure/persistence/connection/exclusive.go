package connection

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Exclusive guards a single handle. At most one operation holds it at a
// time, so every storage call across all requests is serialized. That is a
// throughput ceiling; use a Pool to lift it.
type Exclusive[H any] struct {
	handle H
	sem    *semaphore.Weighted
	opts   options[H]

	mu     sync.RWMutex
	closed bool
}

// NewExclusive wraps h in an exclusive manager.
func NewExclusive[H any](h H, opts ...Option[H]) *Exclusive[H] {
	return &Exclusive[H]{
		handle: h,
		sem:    semaphore.NewWeighted(1),
		opts:   buildOptions(opts),
	}
}

// Mode implements Manager.
func (e *Exclusive[H]) Mode() Mode {
	return ModeExclusive
}

// Acquire implements Manager.
func (e *Exclusive[H]) Acquire(ctx context.Context) (*Lease[H], error) {
	if e.isClosed() {
		return nil, ErrClosed
	}

	start := time.Now()
	err := e.sem.Acquire(ctx, 1)
	e.opts.observer.ObserveLeaseWait(string(ModeExclusive), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if e.isClosed() {
		e.sem.Release(1)
		return nil, ErrClosed
	}

	e.opts.observer.LeaseAcquired(string(ModeExclusive))
	return newLease(e.handle, func() {
		e.sem.Release(1)
		e.opts.observer.LeaseReleased(string(ModeExclusive))
	}), nil
}

// Close implements Manager.
func (e *Exclusive[H]) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	// Wait for the in-flight operation, if any.
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	if e.opts.closer == nil {
		return nil
	}
	return e.opts.closer(ctx, e.handle)
}

func (e *Exclusive[H]) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
