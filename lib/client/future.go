package client

import (
	"context"
	"sync"
)

// Future is the pending result of a connection attempt.
//
// The result is delivered once by the goroutine performing the attempt and is
// read by Poll without blocking. Abandon discards the attempt: a client that
// arrives after abandonment is closed instead of being handed out.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	client    Client
	err       error
	taken     bool
	abandoned bool
	cancel    context.CancelFunc
	once      sync.Once
}

// Go runs connect in a new goroutine and returns a Future for its result.
func Go(ctx context.Context, connect func(ctx context.Context) (Client, error)) *Future {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future{done: make(chan struct{}), cancel: cancel}
	go func() {
		c, err := connect(ctx)
		f.Resolve(c, err)
	}()
	return f
}

// NewFuture returns an unresolved Future completed later with Resolve.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a Future that is already complete.
func Resolved(c Client, err error) *Future {
	f := NewFuture()
	f.Resolve(c, err)
	return f
}

// Resolve completes the future. Only the first call has any effect.
func (f *Future) Resolve(c Client, err error) {
	f.once.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.abandoned {
			if c != nil {
				_ = c.Close()
			}
			f.err = ErrAbandoned
			close(f.done)
			return
		}
		f.client, f.err = c, err
		close(f.done)
		if f.cancel != nil {
			f.cancel()
		}
	})
}

// Poll returns the result if the attempt has finished and ErrWouldBlock otherwise.
// The client is handed out at most once; later polls return ErrAbandoned.
func (f *Future) Poll() (Client, error) {
	select {
	case <-f.done:
	default:
		return nil, ErrWouldBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned || f.taken {
		return nil, ErrAbandoned
	}
	f.taken = true
	return f.client, f.err
}

// Done is closed once the attempt has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Abandon cancels the attempt and releases any client it produced.
func (f *Future) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		return
	}
	f.abandoned = true
	if f.cancel != nil {
		f.cancel()
	}
	select {
	case <-f.done:
		if !f.taken && f.client != nil {
			_ = f.client.Close()
		}
		f.client = nil
	default:
	}
}
