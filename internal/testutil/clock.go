package testutil

import (
	"sync"
	"time"
)

// DeterministicClock hands out wall-clock stamps from a fixed origin in
// fixed steps, so run lifecycle timestamps and durations are stable
// across test executions and golden comparisons.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type DeterministicClock struct {
	mu     sync.Mutex
	origin time.Time
	now    time.Time
	step   time.Duration
}

// NewDeterministicClock creates a clock whose first Now() returns
// origin and whose every subsequent Now() advances by step.
func NewDeterministicClock(origin time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{origin: origin, now: origin, step: step}
}

// Now returns the current stamp and advances the clock one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the stamp the next Now() will yield, without
// advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its origin. Used for test reuse: after
// Reset the clock replays the identical stamp sequence.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.origin
}
