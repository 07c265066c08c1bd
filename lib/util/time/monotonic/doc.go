// Package monotonic provides NTP-jump-safe elapsed-time accounting.
//
// Go's time.Now() carries a monotonic clock reading, so differences between two
// readings taken in the same process are immune to wall clock adjustments.
// Lap builds on that to measure the time between host loop ticks, and
// Stopwatch accumulates those tick durations without ever reading the clock
// itself, which keeps timer logic deterministic under test.
//
// Usage in a tick loop:
//
//	lap := monotonic.NewLap()
//	var idle monotonic.Stopwatch
//	for range ticker.C {
//	    if idle.Tick(lap.Next()) >= threshold {
//	        idle.Reset()
//	    }
//	}
package monotonic
