package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pixil98/go-worldserver/internal/dispatch"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/script"
	"github.com/pixil98/go-worldserver/internal/session"
	"github.com/pixil98/go-worldserver/internal/timer"
	"github.com/pixil98/go-worldserver/internal/worldstate"
)

// MapUpdater runs the map ticks. maps.Manager satisfies it.
type MapUpdater interface {
	Update(diff time.Duration, d *dispatch.Dispatcher)
	Flush(ctx context.Context)
}

// WorldManager drives one simulation step per Update call. It owns the
// session registry, the periodic subsystem timers, the scheduled resets and
// the shutdown countdown.
type WorldManager struct {
	mu  sync.RWMutex
	cfg Config

	clock      *timer.Clock
	repo       persistence.Repository
	sessions   *session.Registry
	maps       MapUpdater
	dispatcher *dispatch.Dispatcher
	scripts    *script.Registry
	states     *worldstate.Store
	vars       *worldstate.Variables

	timers     map[Timer]*timer.IntervalTimer
	subsystems map[Timer][]Subsystem
	resets     []*scheduledReset
	handlers   map[Reset][]ResetHandler
	reloaded   atomic.Bool

	pendingMu       sync.Mutex
	pendingSessions []*session.Session
	pendingSockets  []InstanceSocket

	playerLimit atomic.Int64
	closed      atomic.Bool
	maxActive   atomic.Int64
	maxQueued   atomic.Int64
	motd        []string

	shutdownMu    sync.Mutex
	shutdownTimer uint32
	shutdownMask  ShutdownMask
	exitCode      ExitCode
	stopped       atomic.Bool

	guidMu           sync.Mutex
	guidWarn         bool
	guidAlert        bool
	warnShutdownTime time.Time
	warnDiff         time.Duration

	who            *whoList
	autobroadcasts *autobroadcaster
}

type WorldManagerOpt func(*WorldManager)

func WithMaps(m MapUpdater) WorldManagerOpt {
	return func(w *WorldManager) {
		w.maps = m
	}
}

func WithDispatcher(d *dispatch.Dispatcher) WorldManagerOpt {
	return func(w *WorldManager) {
		w.dispatcher = d
	}
}

func WithScripts(r *script.Registry) WorldManagerOpt {
	return func(w *WorldManager) {
		w.scripts = r
	}
}

// WithWorldStates wires the store and makes the world its broadcaster.
func WithWorldStates(s *worldstate.Store) WorldManagerOpt {
	return func(w *WorldManager) {
		w.states = s
	}
}

func WithVariables(v *worldstate.Variables) WorldManagerOpt {
	return func(w *WorldManager) {
		w.vars = v
	}
}

func NewWorldManager(cfg Config, clock *timer.Clock, repo persistence.Repository, opts ...WorldManagerOpt) *WorldManager {
	w := &WorldManager{
		cfg:        cfg.withDefaults(),
		clock:      clock,
		repo:       repo,
		sessions:   session.NewRegistry(),
		timers:     make(map[Timer]*timer.IntervalTimer, len(timerOrder)),
		subsystems: make(map[Timer][]Subsystem),
		handlers:   make(map[Reset][]ResetHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.dispatcher == nil {
		w.dispatcher = dispatch.NewDispatcher(dispatch.DefaultWorkers)
	}
	if w.vars == nil {
		w.vars = worldstate.NewVariables(repo)
	}
	if w.states != nil {
		w.states.SetBroadcaster(w)
	}
	w.playerLimit.Store(int64(w.cfg.PlayerLimit))
	w.motd = w.cfg.Motd

	for _, t := range timerOrder {
		w.timers[t] = timer.NewIntervalTimer(w.cfg.Intervals[t])
	}
	w.resets = newScheduledResets()

	w.who = &whoList{sessions: w.sessions}
	w.autobroadcasts = &autobroadcaster{world: w}
	w.RegisterSubsystem(TimerWhoList, w.who)
	w.RegisterSubsystem(TimerUptime, SubsystemFunc(w.recordUptime))
	w.RegisterSubsystem(TimerLogCleanup, SubsystemFunc(w.cleanLogs))
	w.RegisterSubsystem(TimerAutobroadcast, w.autobroadcasts)
	w.RegisterSubsystem(TimerDatabasePing, SubsystemFunc(w.repo.Ping))
	return w
}

// Load reads the persisted world variables, the autobroadcasts and the
// scheduled reset times, and opens this run's uptime row.
func (w *WorldManager) Load(ctx context.Context) error {
	if err := w.vars.Load(ctx); err != nil {
		return err
	}
	if err := w.autobroadcasts.load(ctx, w.repo, w.config().RealmID); err != nil {
		return err
	}

	cfg := w.config()
	err := w.repo.Execute(ctx, persistence.Prepare(persistence.InsUptime, cfg.RealmID, w.clock.StartTime().Unix()))
	if err != nil {
		return fmt.Errorf("recording uptime: %w", err)
	}

	w.initResets(ctx)
	return w.who.Run(ctx)
}

func (w *WorldManager) config() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// ReloadConfig applies new tunables. Timer intervals change on the next
// tick and their progress is kept.
func (w *WorldManager) ReloadConfig(cfg Config) {
	cfg = cfg.withDefaults()

	w.mu.Lock()
	w.cfg = cfg
	w.motd = cfg.Motd
	w.mu.Unlock()

	w.playerLimit.Store(int64(cfg.PlayerLimit))
	w.reloaded.Store(true)
	slog.Info("world configuration reloaded", "player_limit", cfg.PlayerLimit)
}

// SessionTimeout is the inactivity timeout new sessions are created with.
func (w *WorldManager) SessionTimeout() time.Duration {
	return w.config().SessionTimeout
}

// Clock returns the game clock.
func (w *WorldManager) Clock() *timer.Clock {
	return w.clock
}

// Variables returns the persisted world variables.
func (w *WorldManager) Variables() *worldstate.Variables {
	return w.vars
}

// Update runs one simulation step.
func (w *WorldManager) Update(ctx context.Context, diff time.Duration) {
	before := w.clock.Now().Unix()
	w.clock.Advance(diff)
	now := w.clock.Now()
	if elapsed := now.Unix() - before; elapsed > 0 {
		w.updateShutdown(uint32(elapsed))
	}

	if w.reloaded.Swap(false) {
		cfg := w.config()
		for _, t := range timerOrder {
			w.timers[t].SetInterval(cfg.Intervals[t])
		}
	}
	for _, t := range timerOrder {
		w.timers[t].Update(diff)
	}
	for _, t := range timerOrder {
		tm := w.timers[t]
		if !tm.Passed() {
			continue
		}
		tm.Reset()
		for _, s := range w.subsystems[t] {
			w.dispatcher.Schedule(t.String(), s.Run)
		}
	}

	w.checkResets(ctx, now)

	w.repo.ProcessQueryCallbacks()
	w.updateSessions(diff)
	w.dispatcher.Wait()

	if w.maps != nil {
		w.maps.Update(diff, w.dispatcher)
	}
	script.ForEach(w.scripts, func(l TickListener) {
		l.OnWorldUpdate(diff)
	})
	w.dispatcher.Wait()

	w.updateGuidWarning(diff)
}

// Shutdown kicks every session and commits pending map changes. It is
// called once the tick loop has stopped.
func (w *WorldManager) Shutdown(ctx context.Context) {
	w.stopped.Store(true)
	w.KickAll()
	w.updateSessions(0)
	if w.maps != nil {
		w.maps.Flush(ctx)
	}
	if err := w.recordUptime(ctx); err != nil {
		slog.ErrorContext(ctx, "recording final uptime", "error", err)
	}
	slog.InfoContext(ctx, "world shut down", "exit_code", int(w.ExitCode()))
}
