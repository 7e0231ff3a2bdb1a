package engine

import "sync/atomic"

// Clock is the monotonic logical clock stamping the event stream.
//
// All events carry a strictly increasing seq number from this clock.
// This ensures deterministic ordering with no wall-clock race
// conditions, and replay produces an identical stream.
//
// Thread-safety: Clock uses atomic operations, though the engine's
// single-writer design means one goroutine typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
