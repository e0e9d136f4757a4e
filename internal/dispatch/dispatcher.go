package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 10

// Task is a unit of deferred work scheduled during a tick.
type Task func(ctx context.Context) error

// Dispatcher runs scheduled tasks on a bounded number of goroutines. Wait is
// the per-tick barrier: it returns once every task scheduled so far is done.
// Task failures are logged and never reach the caller.
type Dispatcher struct {
	group errgroup.Group
	ctx   context.Context
}

type DispatcherOpt func(*Dispatcher)

func WithContext(ctx context.Context) DispatcherOpt {
	return func(d *Dispatcher) {
		d.ctx = ctx
	}
}

func NewDispatcher(workers int, opts ...DispatcherOpt) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	d := &Dispatcher{ctx: context.Background()}
	d.group.SetLimit(workers)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schedule hands fn to the pool. It blocks only while every worker is busy.
func (d *Dispatcher) Schedule(name string, fn Task) {
	d.group.Go(func() error {
		if err := d.run(fn); err != nil {
			slog.ErrorContext(d.ctx, "dispatched task failed", "task", name, "error", err)
		}
		return nil
	})
}

func (d *Dispatcher) run(fn Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(d.ctx)
}

// Wait blocks until all scheduled tasks have completed.
func (d *Dispatcher) Wait() {
	_ = d.group.Wait()
}
