package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a Clock returns unless told otherwise.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock is a deterministic time source for tests.
//
// Each call to Now returns the previous instant plus Step, so the same
// test produces the same timestamps on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewClock returns a clock whose first Now is start. A zero start uses
// Epoch; a zero step uses one second.
func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = Epoch
	}
	if step == 0 {
		step = time.Second
	}
	return &Clock{start: start, step: step}
}

// Now returns the next instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Ticks returns how many times Now has been called.
func (c *Clock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock so the next Now returns start again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
