package world

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/unit"
)

var _ object.GuidWatcher = (*WorldManager)(nil)

func TestWorldManager_GuidWarningSchedulesRestart(t *testing.T) {
	tests := map[string]struct {
		start      time.Duration
		expRestart time.Time
	}{
		"before quiet hour": {
			start:      time.Hour,
			expRestart: at(1, 1, 2).Add(30 * time.Minute),
		},
		"inside the lead": {
			start:      2*time.Hour + 45*time.Minute,
			expRestart: at(1, 2, 2).Add(30 * time.Minute),
		},
		"after quiet hour": {
			start:      10 * time.Hour,
			expRestart: at(1, 2, 2).Add(30 * time.Minute),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, openTestRepo(t), Config{QuietHour: 3})
			w.clock.Advance(tt.start)

			w.TriggerGuidWarning()
			testutil.AssertEqual(t, "warning", w.IsGuidWarning(), true)
			testutil.AssertEqual(t, "restart at", w.warnShutdownTime.Unix(), tt.expRestart.Unix())
		})
	}
}

func TestWorldManager_GuidWarningRepeatsAndRestarts(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{QuietHour: 3, GuidWarningFrequency: 10 * time.Minute})
	w.AddSession(inWorld(newTestSession(sink, 1), "alice", unit.TeamHorde))
	tick(w, time.Second)

	w.TriggerGuidWarning()
	testutil.AssertEqual(t, "warned", sink.count(1, packet.OpcodeServerMessage), 1)

	for range 11 {
		tick(w, time.Minute)
	}
	testutil.AssertEqual(t, "repeated", sink.count(1, packet.OpcodeServerMessage), 2)

	w.clock.Advance(2*time.Hour + 30*time.Minute)
	tick(w, time.Second)
	testutil.AssertEqual(t, "restart armed", w.IsShuttingDown(), true)
	testutil.AssertEqual(t, "restart code", w.ExitCode(), ExitRestart)
	testutil.AssertEqual(t, "countdown", w.ShutdownRemaining(), 30*time.Minute)
}

func TestWorldManager_GuidAlert(t *testing.T) {
	w := newTestWorld(t, openTestRepo(t), Config{})
	w.TriggerGuidWarning()
	w.TriggerGuidAlert()

	testutil.AssertEqual(t, "alert", w.IsGuidAlert(), true)
	testutil.AssertEqual(t, "warning cleared", w.IsGuidWarning(), false)
	testutil.AssertEqual(t, "countdown", w.ShutdownRemaining(), 5*time.Minute)
	testutil.AssertEqual(t, "restart code", w.ExitCode(), ExitRestart)

	w.ShutdownCancel()
	w.TriggerGuidAlert()
	testutil.AssertEqual(t, "rearmed", w.ShutdownRemaining(), 5*time.Minute)
}

func TestWorldManager_GuidGeneratorTriggersAlert(t *testing.T) {
	w := newTestWorld(t, openTestRepo(t), Config{})
	gen := object.NewGUIDGenerator(object.HighGameObject, 0, object.WithThresholds(2, 4, w))

	for range 3 {
		if _, err := gen.Generate(); err != nil {
			t.Fatal(err)
		}
	}
	testutil.AssertEqual(t, "warning", w.IsGuidWarning(), true)

	for range 2 {
		if _, err := gen.Generate(); err != nil {
			t.Fatal(err)
		}
	}
	testutil.AssertEqual(t, "alert", w.IsGuidAlert(), true)
}
