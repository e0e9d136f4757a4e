package driver

import "time"

type WorldDriverOpt func(*WorldDriver)

func WithTickLength(tickLength time.Duration) WorldDriverOpt {
	return func(d *WorldDriver) {
		d.tickLength = tickLength
	}
}

// WithMaxDiff caps the elapsed time handed to a single update.
func WithMaxDiff(limit time.Duration) WorldDriverOpt {
	return func(d *WorldDriver) {
		d.maxDiff = limit
	}
}

func withClock(now func() time.Time) WorldDriverOpt {
	return func(d *WorldDriver) {
		d.now = now
	}
}
