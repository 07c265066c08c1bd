package monotonic

import (
	"testing"
	"time"
)

// =============================================================================
// Stopwatch Tests
// =============================================================================

// TestStopwatch_ZeroValue verifies a new Stopwatch starts at zero.
func TestStopwatch_ZeroValue(t *testing.T) {
	var s Stopwatch
	if s.Elapsed() != 0 {
		t.Errorf("expected zero elapsed, got %s", s.Elapsed())
	}
}

// TestStopwatch_TickAccumulates verifies ticks add up and Reset clears them.
func TestStopwatch_TickAccumulates(t *testing.T) {
	var s Stopwatch
	s.Tick(599 * time.Second)
	if got := s.Tick(2 * time.Second); got != 601*time.Second {
		t.Errorf("expected 601s, got %s", got)
	}
	s.Reset()
	if s.Elapsed() != 0 {
		t.Errorf("expected zero after reset, got %s", s.Elapsed())
	}
}

// TestStopwatch_IgnoresNegative verifies negative durations do not rewind the watch.
func TestStopwatch_IgnoresNegative(t *testing.T) {
	var s Stopwatch
	s.Tick(time.Second)
	if got := s.Tick(-5 * time.Second); got != time.Second {
		t.Errorf("expected 1s, got %s", got)
	}
}

// =============================================================================
// Lap Tests
// =============================================================================

// TestLap_Next verifies Next reports the time between calls.
func TestLap_Next(t *testing.T) {
	base := time.Unix(1700000000, 0)
	readings := []time.Time{base, base.Add(50 * time.Millisecond), base.Add(80 * time.Millisecond)}
	i := 0
	l := newLap(func() time.Time {
		r := readings[i]
		i++
		return r
	})

	if got := l.Next(); got != 50*time.Millisecond {
		t.Errorf("first lap = %s, want 50ms", got)
	}
	if got := l.Next(); got != 30*time.Millisecond {
		t.Errorf("second lap = %s, want 30ms", got)
	}
}

// TestLap_ClampsBackwards verifies a clock going backwards yields zero, not a negative lap.
func TestLap_ClampsBackwards(t *testing.T) {
	base := time.Unix(1700000000, 0)
	readings := []time.Time{base, base.Add(-time.Second)}
	i := 0
	l := newLap(func() time.Time {
		r := readings[i]
		i++
		return r
	})
	if got := l.Next(); got != 0 {
		t.Errorf("expected 0, got %s", got)
	}
}
