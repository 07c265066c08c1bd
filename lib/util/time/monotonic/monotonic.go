package monotonic

import (
	"sync"
	"time"
)

// Stopwatch accumulates elapsed time supplied by the caller.
// The zero value is a stopped watch at zero.
type Stopwatch struct {
	elapsed time.Duration
}

// Tick advances the watch by d and returns the new total. Negative durations are ignored.
func (s *Stopwatch) Tick(d time.Duration) time.Duration {
	if d > 0 {
		s.elapsed += d
	}
	return s.elapsed
}

// Elapsed returns the accumulated duration.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.elapsed
}

// Reset sets the accumulated duration back to zero.
func (s *Stopwatch) Reset() {
	s.elapsed = 0
}

// Lap measures the monotonic time between successive calls to Next.
type Lap struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewLap starts a lap at the current instant.
func NewLap() *Lap {
	return newLap(time.Now)
}

func newLap(now func() time.Time) *Lap {
	return &Lap{last: now(), now: now}
}

// Next returns the time since the previous call (or since NewLap) and starts a new lap.
func (l *Lap) Next() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	d := now.Sub(l.last)
	l.last = now
	if d < 0 {
		return 0
	}
	return d
}
