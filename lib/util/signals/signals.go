// Package signals routes SIGHUP to reload handlers and SIGINT/SIGTERM to
// interrupt handlers.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

const defaultGracefulTimeout = 10 * time.Second

// sigChan is buffered to avoid missing signals delivered while no receiver is ready.
var sigChan = make(chan os.Signal, 1)

// Handler is a function called when a signal is received.
type Handler func()

// HandlerID identifies a registration for Deregister.
type HandlerID int

type registeredHandler struct {
	id HandlerID
	fn Handler
}

var (
	mu              sync.RWMutex
	reloaders       []registeredHandler
	interrupters    []registeredHandler
	nextID          HandlerID
	stopOnce        sync.Once
	gracefulTimeout = defaultGracefulTimeout
)

// RegisterReloadHandler registers f for SIGHUP. Nil handlers are ignored and
// return -1.
func RegisterReloadHandler(f Handler) HandlerID {
	return register(&reloaders, f)
}

// RegisterInterruptHandler registers f for SIGINT and SIGTERM. Nil handlers are
// ignored and return -1.
func RegisterInterruptHandler(f Handler) HandlerID {
	return register(&interrupters, f)
}

// Deregister removes a reload or interrupt handler.
func Deregister(id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	reloaders = without(reloaders, id)
	interrupters = without(interrupters, id)
}

// SetGracefulTimeout bounds how long interrupt handlers may run together.
// Zero or negative restores the default.
func SetGracefulTimeout(timeout time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if timeout <= 0 {
		timeout = defaultGracefulTimeout
	}
	gracefulTimeout = timeout
}

// Handle dispatches signals until ctx is done or StopHandle is called.
func Handle(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigChan:
			if !ok {
				return
			}
			dispatch(sig)
		}
	}
}

// StopHandle stops signal delivery and makes Handle return. Only the first
// call has any effect.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}

func register(list *[]registeredHandler, f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	*list = append(*list, registeredHandler{id: id, fn: f})
	return id
}

func without(list []registeredHandler, id HandlerID) []registeredHandler {
	for i, h := range list {
		if h.id == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func snapshot(list *[]registeredHandler) []registeredHandler {
	mu.RLock()
	defer mu.RUnlock()
	return append([]registeredHandler(nil), (*list)...)
}

func handleReload() {
	runAll("reload", snapshot(&reloaders))
}

// handleInterrupted runs interrupt handlers in registration order and gives up
// waiting after the graceful timeout.
func handleInterrupted() bool {
	handlers := snapshot(&interrupters)
	mu.RLock()
	timeout := gracefulTimeout
	mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runAll("interrupt", handlers)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		log.WithFields(logger.Fields{
			"at":      "handleInterrupted",
			"timeout": timeout.String(),
		}).Warn("interrupt handlers timed out")
		return false
	}
}

func runAll(kind string, handlers []registeredHandler) {
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(logger.Fields{
						"at":      "runAll",
						"handler": kind,
						"panic":   r,
					}).Error("signal handler panicked")
				}
			}()
			h.fn()
		}()
	}
}
