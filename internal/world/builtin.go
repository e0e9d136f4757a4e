package world

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/session"
	"github.com/pixil98/go-worldserver/internal/unit"
)

// whoList caches the sorted names of the online players.
type whoList struct {
	sessions *session.Registry

	mu    sync.RWMutex
	names []string
}

func (l *whoList) Run(context.Context) error {
	var names []string
	for _, s := range l.sessions.Snapshot() {
		if s.IsQueued() {
			continue
		}
		if p := s.Player(); p != nil {
			names = append(names, p.Name())
		}
	}
	slices.Sort(names)

	l.mu.Lock()
	l.names = names
	l.mu.Unlock()
	return nil
}

// WhoList returns the cached online player names, refreshed on the who-list
// timer.
func (w *WorldManager) WhoList() []string {
	w.who.mu.RLock()
	defer w.who.mu.RUnlock()
	return slices.Clone(w.who.names)
}

func (w *WorldManager) recordUptime(ctx context.Context) error {
	cfg := w.config()
	stmt := persistence.Prepare(persistence.UpdUptime,
		int64(w.clock.Uptime().Seconds()),
		w.MaxActiveSessionCount(),
		cfg.RealmID,
		w.clock.StartTime().Unix(),
	)
	if err := w.repo.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("updating uptime: %w", err)
	}
	return nil
}

func (w *WorldManager) cleanLogs(ctx context.Context) error {
	cutoff := w.clock.Now().Add(-w.config().LogRetention).Unix()
	if err := w.repo.Execute(ctx, persistence.Prepare(persistence.DelOldLogs, cutoff)); err != nil {
		return fmt.Errorf("deleting old logs: %w", err)
	}
	return nil
}

type announcement struct {
	id     uint32
	weight int
	text   string
}

// autobroadcaster sends a weighted random announcement to every player.
type autobroadcaster struct {
	world *WorldManager

	mu      sync.RWMutex
	entries []announcement
	total   int
}

func (a *autobroadcaster) load(ctx context.Context, repo persistence.Repository, realm uint32) error {
	var entries []announcement
	total := 0
	err := repo.Query(ctx, persistence.Prepare(persistence.SelAutobroadcasts, realm), func(row persistence.Scanner) error {
		var e announcement
		if err := row.Scan(&e.id, &e.weight, &e.text); err != nil {
			return err
		}
		if e.weight <= 0 {
			slog.WarnContext(ctx, "autobroadcast has no weight, skipped", "id", e.id)
			return nil
		}
		entries = append(entries, e)
		total += e.weight
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading autobroadcasts: %w", err)
	}

	a.mu.Lock()
	a.entries = entries
	a.total = total
	a.mu.Unlock()
	slog.InfoContext(ctx, "loaded autobroadcasts", "count", len(entries))
	return nil
}

// pick selects an entry with probability proportional to its weight. roll
// is in [0, total).
func (a *autobroadcaster) pick(roll int) (announcement, bool) {
	for _, e := range a.entries {
		if roll < e.weight {
			return e, true
		}
		roll -= e.weight
	}
	return announcement{}, false
}

func (a *autobroadcaster) Run(context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.total == 0 {
		return nil
	}
	e, ok := a.pick(rand.IntN(a.total))
	if !ok {
		return nil
	}
	a.world.SendGlobalMessage(packet.MustEncode(packet.OpcodeChatBroadcast, packet.ChatBroadcast{Text: e.text}), nil, unit.TeamNeutral)
	return nil
}

// ReloadAutobroadcasts rereads the announcements.
func (w *WorldManager) ReloadAutobroadcasts(ctx context.Context) error {
	return w.autobroadcasts.load(ctx, w.repo, w.config().RealmID)
}
