package timer

import (
	"sync"
	"time"
)

// Clock is the game clock. It only moves when the world tick advances it, which
// keeps every consumer of "now" inside one tick looking at the same instant.
type Clock struct {
	mu      sync.RWMutex
	start   time.Time
	elapsed time.Duration
}

func NewClock(start time.Time) *Clock {
	return &Clock{start: start}
}

// Advance moves the clock forward by diff. Negative values are ignored.
func (c *Clock) Advance(diff time.Duration) {
	if diff <= 0 {
		return
	}
	c.mu.Lock()
	c.elapsed += diff
	c.mu.Unlock()
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.start.Add(c.elapsed)
}

// Uptime returns the time elapsed since the clock started.
func (c *Clock) Uptime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

func (c *Clock) StartTime() time.Time {
	return c.start
}
