package timer

import "time"

// IntervalTimer accumulates elapsed time against a fixed interval.
type IntervalTimer struct {
	interval time.Duration
	current  time.Duration
}

func NewIntervalTimer(interval time.Duration) *IntervalTimer {
	return &IntervalTimer{interval: interval}
}

// Update adds diff to the accumulated time. The accumulator never goes negative.
func (t *IntervalTimer) Update(diff time.Duration) {
	t.current += diff
	if t.current < 0 {
		t.current = 0
	}
}

// Passed reports whether the accumulated time has reached the interval.
func (t *IntervalTimer) Passed() bool {
	return t.current >= t.interval
}

// Reset discards all accumulated time.
func (t *IntervalTimer) Reset() {
	t.current = 0
}

func (t *IntervalTimer) SetCurrent(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.current = d
}

func (t *IntervalTimer) Current() time.Duration {
	return t.current
}

func (t *IntervalTimer) SetInterval(d time.Duration) {
	t.interval = d
}

func (t *IntervalTimer) Interval() time.Duration {
	return t.interval
}

// TimeTracker counts down from an expiry.
type TimeTracker struct {
	remaining time.Duration
}

func NewTimeTracker(expiry time.Duration) *TimeTracker {
	return &TimeTracker{remaining: expiry}
}

func (t *TimeTracker) Update(diff time.Duration) {
	t.remaining -= diff
}

func (t *TimeTracker) Passed() bool {
	return t.remaining <= 0
}

func (t *TimeTracker) Reset(expiry time.Duration) {
	t.remaining = expiry
}

func (t *TimeTracker) Remaining() time.Duration {
	if t.remaining < 0 {
		return 0
	}
	return t.remaining
}
