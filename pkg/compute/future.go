package compute

import (
	"context"
	"fmt"
	"sync"
)

// Status is the state of a dispatch.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
	StatusError
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Future is the completion signal of one dispatch. It resolves exactly once.
type Future struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	status Status
	err    error
}

// NewFuture returns a pending future. It is meant for Device implementations.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve sets the final status. Only the first call has an effect.
func (f *Future) Resolve(status Status, err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.status = status
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

// Done is closed once the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Status returns the current status without blocking.
func (f *Future) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Err returns the failure of a resolved future.
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Wait blocks until the future resolves or ctx is done. Giving up on ctx
// does not cancel the dispatch; it returns StatusPending and ctx.Err().
func (f *Future) Wait(ctx context.Context) (Status, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.status, f.err
	case <-ctx.Done():
		return StatusPending, ctx.Err()
	}
}

func failedFuture(kernel string, status Status, err error) *Future {
	f := NewFuture()
	f.Resolve(status, &DispatchError{Kernel: kernel, Status: status, Err: err})
	return f
}
