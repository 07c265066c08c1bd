package util

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestUserHomeReturnsValidPath(t *testing.T) {
	home := UserHome()
	if home == "" {
		t.Fatal("UserHome returned an empty path")
	}
	if !filepath.IsAbs(home) {
		t.Errorf("UserHome returned a relative path: %q", home)
	}
}

func TestCheckFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if CheckFileExists(file) {
		t.Error("missing file reported as existing")
	}
	if err := os.WriteFile(file, []byte("tick: 50ms\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !CheckFileExists(file) {
		t.Error("existing file reported as missing")
	}
	if !CheckFileExists(dir) {
		t.Error("directory reported as missing")
	}
}

type orderCloser struct {
	id    int
	order *[]int
	mu    *sync.Mutex
	err   error
}

func (c orderCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.order = append(*c.order, c.id)
	return c.err
}

func TestCloseAllReverseOrderAndContinuesOnError(t *testing.T) {
	closeMutex.Lock()
	closeOnExit = nil
	closeMutex.Unlock()

	var (
		order []int
		mu    sync.Mutex
	)
	RegisterCloser(orderCloser{id: 1, order: &order, mu: &mu})
	RegisterCloser(orderCloser{id: 2, order: &order, mu: &mu, err: errors.New("close error")})
	RegisterCloser(orderCloser{id: 3, order: &order, mu: &mu})

	CloseAll()

	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("close order = %v, want [3 2 1]", order)
	}

	closeMutex.Lock()
	count := len(closeOnExit)
	closeMutex.Unlock()
	if count != 0 {
		t.Errorf("closeOnExit should be empty after CloseAll, got %d", count)
	}

	// A second call has nothing left to close.
	CloseAll()
	if len(order) != 3 {
		t.Errorf("closers ran twice: %v", order)
	}
}

func TestRegisterCloserThreadSafety(t *testing.T) {
	closeMutex.Lock()
	closeOnExit = nil
	closeMutex.Unlock()

	var (
		order []int
		mu    sync.Mutex
		wg    sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			RegisterCloser(orderCloser{id: id, order: &order, mu: &mu})
		}(i)
	}
	wg.Wait()

	closeMutex.Lock()
	count := len(closeOnExit)
	closeMutex.Unlock()
	if count != 50 {
		t.Errorf("expected 50 closers registered, got %d", count)
	}
	CloseAll()
}
