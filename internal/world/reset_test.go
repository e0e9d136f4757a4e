package world

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-worldserver/internal/worldstate"
)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func TestNextReset(t *testing.T) {
	tests := map[string]struct {
		got time.Time
		exp time.Time
	}{
		"daily before hour": {
			got: NextDailyReset(at(1, 1, 3), 6),
			exp: at(1, 1, 6),
		},
		"daily on the hour": {
			got: NextDailyReset(at(1, 1, 6), 6),
			exp: at(1, 2, 6),
		},
		"daily after hour": {
			got: NextDailyReset(at(1, 1, 7), 6),
			exp: at(1, 2, 6),
		},
		"weekly later this week": {
			got: NextWeeklyReset(at(1, 1, 7), time.Wednesday, 6),
			exp: at(1, 3, 6),
		},
		"weekly same day before hour": {
			got: NextWeeklyReset(at(1, 3, 5), time.Wednesday, 6),
			exp: at(1, 3, 6),
		},
		"weekly same day after hour": {
			got: NextWeeklyReset(at(1, 3, 7), time.Wednesday, 6),
			exp: at(1, 10, 6),
		},
		"monthly this month": {
			got: NextMonthlyReset(at(1, 1, 3), 1, 6),
			exp: at(1, 1, 6),
		},
		"monthly next month": {
			got: NextMonthlyReset(at(1, 15, 3), 1, 6),
			exp: at(2, 1, 6),
		},
		"monthly rolls the year": {
			got: NextMonthlyReset(at(12, 15, 3), 1, 6),
			exp: time.Date(2025, time.January, 1, 6, 0, 0, 0, time.UTC),
		},
		"interval catches up": {
			got: NextIntervalReset(at(1, 1, 3), at(1, 20, 0), 7),
			exp: at(1, 22, 3),
		},
		"interval single step": {
			got: NextIntervalReset(at(1, 1, 3), at(1, 1, 3), 7),
			exp: at(1, 8, 3),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "next", tt.got.Unix(), tt.exp.Unix())
		})
	}
}

func TestWorldManager_DailyResetRunsAndReschedules(t *testing.T) {
	repo := openTestRepo(t)
	w := newTestWorld(t, repo, Config{DailyResetHour: 6})
	var runs atomic.Int32
	w.RegisterResetHandler(ResetDailyQuests, ResetFunc(func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	testutil.AssertEqual(t, "scheduled", w.NextReset(ResetDailyQuests).Unix(), at(1, 1, 6).Unix())

	tick(w, 5*time.Hour)
	testutil.AssertEqual(t, "not yet", runs.Load(), int32(0))

	tick(w, time.Hour)
	testutil.AssertEqual(t, "ran", runs.Load(), int32(1))
	testutil.AssertEqual(t, "rescheduled", w.NextReset(ResetDailyQuests).Unix(), at(1, 2, 6).Unix())

	tick(w, time.Hour)
	testutil.AssertEqual(t, "once", runs.Load(), int32(1))

	vars := worldstate.NewVariables(repo)
	if err := vars.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "persisted", vars.Get("NextDailyQuestResetTime"), at(1, 2, 6).Unix())
}

func TestWorldManager_OverdueResetFiresOnFirstTick(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	if err := worldstate.NewVariables(repo).Set(ctx, "NextWeeklyQuestResetTime", epoch.Add(-time.Hour).Unix()); err != nil {
		t.Fatal(err)
	}

	w := newTestWorld(t, repo, Config{WeeklyResetDay: time.Wednesday, DailyResetHour: 6})
	var runs atomic.Int32
	w.RegisterResetHandler(ResetWeeklyQuests, ResetFunc(func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	tick(w, time.Second)
	testutil.AssertEqual(t, "caught up", runs.Load(), int32(1))
	testutil.AssertEqual(t, "next week", w.NextReset(ResetWeeklyQuests).Unix(), at(1, 3, 6).Unix())
}

func TestWorldManager_CurrencyResetInterval(t *testing.T) {
	w := newTestWorld(t, openTestRepo(t), Config{CurrencyResetHour: 3, CurrencyResetDays: 7})
	testutil.AssertEqual(t, "first", w.NextReset(ResetCurrency).Unix(), at(1, 1, 3).Unix())

	tick(w, 3*time.Hour)
	testutil.AssertEqual(t, "stepped a week", w.NextReset(ResetCurrency).Unix(), at(1, 8, 3).Unix())
}
