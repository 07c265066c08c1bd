package signals

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func reset(t *testing.T) {
	t.Helper()
	mu.Lock()
	oldR, oldI, oldT := reloaders, interrupters, gracefulTimeout
	reloaders, interrupters = nil, nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		reloaders, interrupters, gracefulTimeout = oldR, oldI, oldT
		mu.Unlock()
	})
}

func TestReloadHandlersRunInOrder(t *testing.T) {
	reset(t)
	var order []int
	RegisterReloadHandler(func() { order = append(order, 1) })
	RegisterReloadHandler(func() { order = append(order, 2) })

	handleReload()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	reset(t)
	if id := RegisterReloadHandler(nil); id != -1 {
		t.Errorf("nil reload handler id = %d, want -1", id)
	}
	if id := RegisterInterruptHandler(nil); id != -1 {
		t.Errorf("nil interrupt handler id = %d, want -1", id)
	}
	if len(snapshot(&reloaders))+len(snapshot(&interrupters)) != 0 {
		t.Error("nil handlers were registered")
	}
}

func TestDeregister(t *testing.T) {
	reset(t)
	var calls atomic.Int32
	id := RegisterInterruptHandler(func() { calls.Add(1) })
	RegisterInterruptHandler(func() { calls.Add(10) })
	Deregister(id)
	Deregister(HandlerID(9999))

	if !handleInterrupted() {
		t.Fatal("handlers did not finish")
	}
	if got := calls.Load(); got != 10 {
		t.Errorf("calls = %d, want 10", got)
	}
}

func TestHandlerPanicDoesNotStopOthers(t *testing.T) {
	reset(t)
	var ran atomic.Bool
	RegisterReloadHandler(func() { panic("boom") })
	RegisterReloadHandler(func() { ran.Store(true) })

	handleReload()

	if !ran.Load() {
		t.Error("handler after the panicking one did not run")
	}
}

func TestInterruptHandlersTimeOut(t *testing.T) {
	reset(t)
	SetGracefulTimeout(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	RegisterInterruptHandler(func() { <-release })

	if handleInterrupted() {
		t.Error("blocked handler reported as finished")
	}
}

func TestSetGracefulTimeoutDefault(t *testing.T) {
	reset(t)
	SetGracefulTimeout(-1)
	mu.RLock()
	defer mu.RUnlock()
	if gracefulTimeout != defaultGracefulTimeout {
		t.Errorf("gracefulTimeout = %s, want %s", gracefulTimeout, defaultGracefulTimeout)
	}
}

func TestHandleReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Handle(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle did not return after cancel")
	}
}
