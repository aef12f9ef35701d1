package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Pool checks handles out of a fixed set. Operations only wait when every
// handle is in use.
type Pool[H any] struct {
	handles []H
	free    chan H
	opts    options[H]

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewPool builds a pool over handles. It panics when handles is empty.
func NewPool[H any](handles []H, opts ...Option[H]) *Pool[H] {
	if len(handles) == 0 {
		panic("connection: pool needs at least one handle")
	}

	free := make(chan H, len(handles))
	for _, h := range handles {
		free <- h
	}

	return &Pool[H]{
		handles: handles,
		free:    free,
		opts:    buildOptions(opts),
		done:    make(chan struct{}),
	}
}

// Size returns the number of handles in the pool.
func (p *Pool[H]) Size() int {
	return len(p.handles)
}

// Mode implements Manager.
func (p *Pool[H]) Mode() Mode {
	return ModePooled
}

// Acquire implements Manager.
func (p *Pool[H]) Acquire(ctx context.Context) (*Lease[H], error) {
	if p.isClosed() {
		return nil, ErrClosed
	}

	start := time.Now()
	select {
	case h := <-p.free:
		p.opts.observer.ObserveLeaseWait(string(ModePooled), time.Since(start), nil)
		p.opts.observer.LeaseAcquired(string(ModePooled))
		return newLease(h, func() {
			p.free <- h
			p.opts.observer.LeaseReleased(string(ModePooled))
		}), nil
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		p.opts.observer.ObserveLeaseWait(string(ModePooled), time.Since(start), ctx.Err())
		return nil, ctx.Err()
	}
}

// Close implements Manager. It drains the pool, so it blocks until every
// lease has been released or ctx is done.
func (p *Pool[H]) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	var errs []error
	for range p.handles {
		select {
		case h := <-p.free:
			if p.opts.closer != nil {
				if err := p.opts.closer(ctx, h); err != nil {
					errs = append(errs, err)
				}
			}
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}

func (p *Pool[H]) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
