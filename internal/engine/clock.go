package engine

import "sync/atomic"

// FrameClock stamps evaluated frames with a strictly increasing sequence
// number. testutil.DeterministicClock satisfies it for tests.
//
// A Runner calls Next once per evaluated frame, after the frame is applied
// and before it is recorded. Rejected frames never reach the clock, so seq
// values in a recording have no gaps.
type FrameClock interface {
	// Next advances the clock and returns the new seq. The first call on a
	// fresh clock returns 1.
	Next() int64
	// Current returns the last seq handed out, or the start value if Next
	// has not been called.
	Current() int64
}

// Clock is the default FrameClock: a monotonic logical counter. Frames are
// ordered by seq, never by wall-clock time, so a replay reproduces the same
// numbering.
//
// Clock is safe for concurrent use, although a Runner only advances it from
// inside Step.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0. Its first Next returns 1,
// which matches the seq of the first frame in a fresh run.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1. Used to resume a
// recorded run: pass the seq of the last stored frame so new frames
// continue the sequence.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
