package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPoolClosed is returned by Submit after Drain has been called.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs submitted tasks on a bounded number of goroutines. Submission
// blocks while all slots are busy.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// Handle is an awaitable for one submitted task.
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task finishes or the context is done, returning the
// task's error.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done exposes the completion channel for select loops.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// New constructs a pool with the given number of slots.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Submit schedules fn on the pool and returns an awaitable handle. It blocks
// until a slot frees up or the context is done.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context) error) (*Handle, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Re-check closed while holding the slot so a task cannot start after
	// Drain has observed an empty pool.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.sem
		return nil, ErrPoolClosed
	}
	handle := &Handle{done: make(chan struct{})}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		handle.err = fn(ctx)
		close(handle.done)
	}()
	return handle, nil
}

// Drain stops accepting new work and waits up to timeout for in-flight tasks.
// It reports whether all tasks finished in time.
func (p *Pool) Drain(timeout time.Duration) bool {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
