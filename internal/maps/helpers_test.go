package maps

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-worldserver/internal/gameobject"
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/storage"
	"github.com/pixil98/go-worldserver/internal/timer"
	"github.com/pixil98/go-worldserver/internal/unit"
)

const testMapID = 30

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type templateMap map[storage.Identifier]*gameobject.Template

func (m templateMap) Get(id storage.Identifier) *gameobject.Template      { return m[id] }
func (m templateMap) GetAll() map[storage.Identifier]*gameobject.Template { return m }

func testTemplates() templateMap {
	return templateMap{
		"chest": {
			Entry: 100,
			Type:  gameobject.TypeChest,
			Name:  "chest",
			Chest: &gameobject.ChestData{Loot: []uint32{1, 2}, RestockSecs: 60},
		},
		"herb": {
			Entry: 101,
			Type:  gameobject.TypeChest,
			Name:  "herb",
			Chest: &gameobject.ChestData{Loot: []uint32{7}, Consumable: true},
		},
	}
}

func openTestRepo(t *testing.T) *persistence.SQLiteRepository {
	t.Helper()
	repo, err := persistence.OpenSQLite(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("opening repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

type testWorld struct {
	repo  *persistence.SQLiteRepository
	clock *timer.Clock
}

func newTestWorld(t *testing.T) *testWorld {
	return &testWorld{repo: openTestRepo(t), clock: timer.NewClock(epoch)}
}

// newMap creates and loads a map over the world's database.
func (w *testWorld) newMap(t *testing.T, opts ...MapOpt) *Map {
	t.Helper()
	opts = append([]MapOpt{WithTemplates(testTemplates())}, opts...)
	m := NewMap(testMapID, 0, w.clock, w.repo, opts...)
	if err := m.LoadFromDB(context.Background()); err != nil {
		t.Fatalf("loading map: %v", err)
	}
	return m
}

func (w *testWorld) seedSpawn(t *testing.T, d gameobject.SpawnData) {
	t.Helper()
	d.MapID = testMapID
	if d.State == 0 {
		d.State = gameobject.StateReady
	}
	if err := gameobject.SaveSpawn(context.Background(), w.repo, d); err != nil {
		t.Fatal(err)
	}
}

func (w *testWorld) seedGroup(t *testing.T, g gameobject.SpawnGroup) {
	t.Helper()
	if err := gameobject.SaveSpawnGroup(context.Background(), w.repo, g); err != nil {
		t.Fatal(err)
	}
}

// tick advances the clock and runs one map update.
func (w *testWorld) tick(m *Map, d time.Duration) {
	w.clock.Advance(d)
	m.Update(context.Background(), d)
}

type packetLog struct {
	packets []packet.Packet
}

func (l *packetLog) SendPacket(p packet.Packet) { l.packets = append(l.packets, p) }

func (l *packetLog) count(op packet.Opcode) int {
	n := 0
	for _, p := range l.packets {
		if p.Opcode == op {
			n++
		}
	}
	return n
}

// blocks decodes every update packet received and drops them from the log.
func (l *packetLog) blocks(t *testing.T) []object.UpdateBlock {
	t.Helper()
	var out []object.UpdateBlock
	var rest []packet.Packet
	for _, p := range l.packets {
		if p.Opcode != packet.OpcodeUpdateObject && p.Opcode != packet.OpcodeCompressedUpdateObject {
			rest = append(rest, p)
			continue
		}
		var data object.UpdateData
		if err := packet.Decode(p, packet.OpcodeUpdateObject, &data); err != nil {
			t.Fatalf("decoding update: %v", err)
		}
		out = append(out, data.Blocks...)
	}
	l.packets = rest
	return out
}

func countBlocks(blocks []object.UpdateBlock, kind object.BlockKind, guid object.GUID) int {
	n := 0
	for _, b := range blocks {
		if b.Kind == kind && b.GUID == guid.String() {
			n++
		}
	}
	return n
}

func newTestPlayer(counter uint64, pos object.Position) (*unit.Player, *packetLog) {
	log := &packetLog{}
	p := unit.NewPlayer(object.NewGUID(object.HighPlayer, 0, counter), "player", uint32(counter), log)
	p.SetTeam(unit.TeamAlliance)
	p.Relocate(pos)
	return p, log
}

// lootAll empties g for p and closes the loot window.
func lootAll(t *testing.T, g *gameobject.GameObject, p *unit.Player) {
	t.Helper()
	if err := g.Use(p); err != nil {
		t.Fatalf("use: %v", err)
	}
	g.LootFor(p).TakeAll()
	g.ReleaseLoot(p)
}
