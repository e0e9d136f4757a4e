package world

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/session"
	"github.com/pixil98/go-worldserver/internal/timer"
	"github.com/pixil98/go-worldserver/internal/unit"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func openTestRepo(t *testing.T) *persistence.SQLiteRepository {
	t.Helper()
	repo, err := persistence.OpenSQLite(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("opening repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// newTestWorld builds and loads a world starting at epoch in UTC.
func newTestWorld(t *testing.T, repo persistence.Repository, cfg Config, opts ...WorldManagerOpt) *WorldManager {
	t.Helper()
	cfg.Location = time.UTC
	w := NewWorldManager(cfg, timer.NewClock(epoch), repo, opts...)
	if err := w.Load(context.Background()); err != nil {
		t.Fatalf("loading world: %v", err)
	}
	return w
}

func tick(w *WorldManager, d time.Duration) {
	w.Update(context.Background(), d)
}

type recordingSink struct {
	mu      sync.Mutex
	packets map[uint32][]packet.Packet
}

func newRecordingSink() *recordingSink {
	return &recordingSink{packets: make(map[uint32][]packet.Packet)}
}

func (r *recordingSink) SendPacket(account uint32, p packet.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets[account] = append(r.packets[account], p)
	return nil
}

func (r *recordingSink) count(account uint32, op packet.Opcode) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.packets[account] {
		if p.Opcode == op {
			n++
		}
	}
	return n
}

// last decodes the most recent packet of op sent to account into v.
func (r *recordingSink) last(t *testing.T, account uint32, op packet.Opcode, v any) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.packets[account]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Opcode != op {
			continue
		}
		if err := packet.Decode(list[i], op, v); err != nil {
			t.Fatalf("decoding %s: %v", op, err)
		}
		return
	}
	t.Fatalf("no %s sent to account %d", op, account)
}

type testPlayer struct {
	name string
	team unit.Team
}

func (p *testPlayer) Name() string    { return p.name }
func (p *testPlayer) Team() unit.Team { return p.team }
func (p *testPlayer) IsInWorld() bool { return true }

func newTestSession(sink *recordingSink, account uint32, opts ...session.SessionOpt) *session.Session {
	opts = append([]session.SessionOpt{session.WithTimeout(0)}, opts...)
	return session.New(account, sink, opts...)
}

// inWorld attaches a player so the session receives global messages.
func inWorld(s *session.Session, name string, team unit.Team) *session.Session {
	s.SetPlayer(&testPlayer{name: name, team: team})
	return s
}
