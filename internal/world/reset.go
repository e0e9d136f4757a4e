package world

import (
	"context"
	"log/slog"
	"time"
)

// Reset names a scheduled calendar reset.
type Reset int

const (
	ResetDailyQuests Reset = iota
	ResetWeeklyQuests
	ResetMonthlyQuests
	ResetRandomBG
	ResetCalendarDeletion
	ResetGuild
	ResetCurrency
)

var resetNames = map[Reset]string{
	ResetDailyQuests:      "daily_quests",
	ResetWeeklyQuests:     "weekly_quests",
	ResetMonthlyQuests:    "monthly_quests",
	ResetRandomBG:         "random_bg",
	ResetCalendarDeletion: "calendar_deletion",
	ResetGuild:            "guild",
	ResetCurrency:         "currency",
}

func (r Reset) String() string {
	if n, ok := resetNames[r]; ok {
		return n
	}
	return "unknown"
}

// ResetHandler performs the work of a scheduled reset.
type ResetHandler interface {
	Reset(ctx context.Context) error
}

type ResetFunc func(ctx context.Context) error

func (f ResetFunc) Reset(ctx context.Context) error { return f(ctx) }

// RegisterResetHandler attaches h to reset r. Registration must happen
// before the first tick.
func (w *WorldManager) RegisterResetHandler(r Reset, h ResetHandler) {
	w.handlers[r] = append(w.handlers[r], h)
}

type scheduledReset struct {
	kind     Reset
	variable string
	next     time.Time
	// advance returns the occurrence after prev that is later than now.
	advance func(cfg Config, prev, now time.Time) time.Time
}

func newScheduledResets() []*scheduledReset {
	return []*scheduledReset{
		{
			kind:     ResetDailyQuests,
			variable: "NextDailyQuestResetTime",
			advance: func(cfg Config, _, now time.Time) time.Time {
				return NextDailyReset(now.In(cfg.Location), cfg.DailyResetHour)
			},
		},
		{
			kind:     ResetWeeklyQuests,
			variable: "NextWeeklyQuestResetTime",
			advance: func(cfg Config, _, now time.Time) time.Time {
				return NextWeeklyReset(now.In(cfg.Location), cfg.WeeklyResetDay, cfg.DailyResetHour)
			},
		},
		{
			kind:     ResetMonthlyQuests,
			variable: "NextMonthlyQuestResetTime",
			advance: func(cfg Config, _, now time.Time) time.Time {
				return NextMonthlyReset(now.In(cfg.Location), cfg.MonthlyResetDay, cfg.DailyResetHour)
			},
		},
		{
			kind:     ResetRandomBG,
			variable: "NextBGRandomDailyResetTime",
			advance: func(cfg Config, _, now time.Time) time.Time {
				return NextDailyReset(now.In(cfg.Location), cfg.RandomBGResetHour)
			},
		},
		{
			kind:     ResetCalendarDeletion,
			variable: "NextOldCalendarEventDeletionTime",
			advance: func(cfg Config, _, now time.Time) time.Time {
				return NextDailyReset(now.In(cfg.Location), cfg.CalendarDeleteHour)
			},
		},
		{
			kind:     ResetGuild,
			variable: "NextGuildDailyResetTime",
			advance: func(cfg Config, _, now time.Time) time.Time {
				return NextDailyReset(now.In(cfg.Location), cfg.GuildResetHour)
			},
		},
		{
			kind:     ResetCurrency,
			variable: "NextCurrencyResetTime",
			advance: func(cfg Config, prev, now time.Time) time.Time {
				if prev.IsZero() {
					return NextDailyReset(now.In(cfg.Location), cfg.CurrencyResetHour)
				}
				return NextIntervalReset(prev, now, cfg.CurrencyResetDays)
			},
		},
	}
}

// NextDailyReset returns the first time at hour strictly after now.
func NextDailyReset(now time.Time, hour int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// NextWeeklyReset returns the first day at hour strictly after now.
func NextWeeklyReset(now time.Time, day time.Weekday, hour int) time.Time {
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	t := time.Date(now.Year(), now.Month(), now.Day()+offset, hour, 0, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// NextMonthlyReset returns the first day of month at hour strictly after now.
func NextMonthlyReset(now time.Time, day, hour int) time.Time {
	t := time.Date(now.Year(), now.Month(), day, hour, 0, 0, 0, now.Location())
	if !t.After(now) {
		t = time.Date(now.Year(), now.Month()+1, day, hour, 0, 0, 0, now.Location())
	}
	return t
}

// NextIntervalReset steps prev forward by whole periods of days until it is
// after now.
func NextIntervalReset(prev, now time.Time, days int) time.Time {
	if days <= 0 {
		days = 1
	}
	t := prev
	for !t.After(now) {
		t = t.AddDate(0, 0, days)
	}
	return t
}

// initResets reads each reset's next occurrence, scheduling and persisting
// one when none is stored. A stored time in the past fires on the first tick.
func (w *WorldManager) initResets(ctx context.Context) {
	cfg := w.config()
	now := w.clock.Now()
	for _, r := range w.resets {
		if v := w.vars.Get(r.variable); v != 0 {
			r.next = time.Unix(v, 0)
			continue
		}
		r.next = r.advance(cfg, time.Time{}, now)
		if err := w.vars.Set(ctx, r.variable, r.next.Unix()); err != nil {
			slog.ErrorContext(ctx, "saving reset time", "reset", r.kind.String(), "error", err)
		}
	}
}

// NextReset returns when r next fires.
func (w *WorldManager) NextReset(r Reset) time.Time {
	for _, s := range w.resets {
		if s.kind == r {
			return s.next
		}
	}
	return time.Time{}
}

// checkResets dispatches every reset that is due and schedules its next
// occurrence. The in-memory schedule advances even when persisting fails;
// handlers are expected to tolerate running again after a restart.
func (w *WorldManager) checkResets(ctx context.Context, now time.Time) {
	cfg := w.config()
	for _, r := range w.resets {
		if r.next.IsZero() || now.Before(r.next) {
			continue
		}

		slog.InfoContext(ctx, "running scheduled reset", "reset", r.kind.String())
		for _, h := range w.handlers[r.kind] {
			w.dispatcher.Schedule("reset_"+r.kind.String(), h.Reset)
		}

		r.next = r.advance(cfg, r.next, now)
		if err := w.vars.Set(ctx, r.variable, r.next.Unix()); err != nil {
			slog.ErrorContext(ctx, "saving reset time", "reset", r.kind.String(), "error", err)
		}
	}
}
