package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-worldserver/internal/world"
)

const (
	DefaultTickLength = 50 * time.Millisecond
	DefaultMaxDiff    = 10 * time.Second
)

// World is the simulation the driver ticks.
type World interface {
	Update(ctx context.Context, diff time.Duration)
	IsStopped() bool
	ExitCode() world.ExitCode
	Shutdown(ctx context.Context)
}

// ShutdownError is returned by Start once the world stops on its own. Code
// is the status the process should exit with.
type ShutdownError struct {
	Code world.ExitCode
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("world stopped with exit code %d", e.Code)
}

// WorldDriver calls World.Update once per tick with the real time elapsed
// since the previous tick.
type WorldDriver struct {
	tickLength time.Duration
	maxDiff    time.Duration
	world      World
	now        func() time.Time
}

func NewWorldDriver(w World, opts ...WorldDriverOpt) *WorldDriver {
	d := &WorldDriver{
		tickLength: DefaultTickLength,
		maxDiff:    DefaultMaxDiff,
		world:      w,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *WorldDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	slog.InfoContext(ctx, "world driver started", "tick_length", d.tickLength)
	last := d.now()
	for {
		select {
		case <-ctx.Done():
			d.world.Shutdown(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			now := d.now()
			d.Tick(ctx, now.Sub(last))
			last = now

			if d.world.IsStopped() {
				d.world.Shutdown(ctx)
				return &ShutdownError{Code: d.world.ExitCode()}
			}
		}
	}
}

// Tick runs one world update. A stalled process catching up is limited to
// maxDiff per tick.
func (d *WorldDriver) Tick(ctx context.Context, diff time.Duration) {
	if diff < 0 {
		diff = 0
	}
	if diff > d.maxDiff {
		slog.WarnContext(ctx, "tick took too long, clamping", "diff", diff, "max", d.maxDiff)
		diff = d.maxDiff
	}
	d.world.Update(ctx, diff)
}
