package maps

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-worldserver/internal/gameobject"
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/script"
	"github.com/pixil98/go-worldserver/internal/storage"
	"github.com/pixil98/go-worldserver/internal/timer"
	"github.com/pixil98/go-worldserver/internal/unit"
	"github.com/pixil98/go-worldserver/internal/worldstate"
)

var (
	_ gameobject.Host = (*Map)(nil)
	_ worldstate.Map  = (*Map)(nil)
)

// ZoneResolver maps a position to its zone and area.
type ZoneResolver func(pos object.Position) (zone, area uint32)

// Map is one instance of a world map. It owns everything placed on it and
// runs their updates, respawns and replication once per tick. Apart from
// the world state values every method is called from the goroutine running
// the map's tick, or between ticks.
type Map struct {
	id         uint32
	instanceID uint32
	cfg        Config
	clock      *timer.Clock
	repo       persistence.Repository

	scripts   *script.Registry
	services  gameobject.Services
	states    *worldstate.Store
	templates storage.Storer[*gameobject.Template]
	guids     *object.GUIDGenerator
	zones     ZoneResolver

	spawnGroups map[uint32]gameobject.SpawnGroup
	spawns      map[uint64]gameobject.SpawnData
	respawns    map[uint64]time.Time

	objects map[object.GUID]*gameobject.GameObject
	bySpawn map[uint64]*gameobject.GameObject
	units   map[object.GUID]object.Living
	grid    *grid
	wide    map[object.GUID]object.Entity

	playersMu sync.RWMutex
	players   map[object.GUID]*unit.Player

	dirty    []object.Entity
	dirtySet map[object.GUID]struct{}
	removals []*gameobject.GameObject
	outboxes map[object.GUID]*outbox
	tx       *persistence.Transaction

	wsMu     sync.RWMutex
	wsValues map[int32]int32
}

type MapOpt func(*Map)

func WithConfig(c Config) MapOpt {
	return func(m *Map) {
		m.cfg = c
	}
}

func WithScripts(r *script.Registry) MapOpt {
	return func(m *Map) {
		m.scripts = r
	}
}

// WithServices attaches the combat and event systems. Without it spells and
// events go to the registered gameobject.EventListener hooks.
func WithServices(s gameobject.Services) MapOpt {
	return func(m *Map) {
		m.services = s
	}
}

func WithWorldStates(s *worldstate.Store) MapOpt {
	return func(m *Map) {
		m.states = s
	}
}

func WithTemplates(t storage.Storer[*gameobject.Template]) MapOpt {
	return func(m *Map) {
		m.templates = t
	}
}

// WithGUIDGenerator shares a game object counter between maps.
func WithGUIDGenerator(g *object.GUIDGenerator) MapOpt {
	return func(m *Map) {
		m.guids = g
	}
}

func WithZoneResolver(z ZoneResolver) MapOpt {
	return func(m *Map) {
		m.zones = z
	}
}

// NewMap creates an empty map instance. Call LoadFromDB to place its spawns.
func NewMap(id, instanceID uint32, clock *timer.Clock, repo persistence.Repository, opts ...MapOpt) *Map {
	m := &Map{
		id:          id,
		instanceID:  instanceID,
		clock:       clock,
		repo:        repo,
		spawnGroups: map[uint32]gameobject.SpawnGroup{gameobject.DefaultSpawnGroup.ID: gameobject.DefaultSpawnGroup},
		spawns:      make(map[uint64]gameobject.SpawnData),
		respawns:    make(map[uint64]time.Time),
		objects:     make(map[object.GUID]*gameobject.GameObject),
		bySpawn:     make(map[uint64]*gameobject.GameObject),
		units:       make(map[object.GUID]object.Living),
		grid:        newGrid(),
		wide:        make(map[object.GUID]object.Entity),
		players:     make(map[object.GUID]*unit.Player),
		dirtySet:    make(map[object.GUID]struct{}),
		outboxes:    make(map[object.GUID]*outbox),
		wsValues:    make(map[int32]int32),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cfg = m.cfg.withDefaults()

	if m.guids == nil {
		m.guids = object.NewGUIDGenerator(object.HighGameObject, 1)
	}
	if m.services == nil {
		m.services = &hookServices{scripts: m.scripts, catchChance: m.cfg.FishingCatchChance}
	}
	if m.zones == nil {
		m.zones = func(object.Position) (uint32, uint32) { return 0, 0 }
	}
	if m.states != nil {
		m.wsValues = m.states.InitialValuesForMap(id)
	}
	return m
}

func (m *Map) ID() uint32                    { return m.id }
func (m *Map) InstanceID() uint32            { return m.instanceID }
func (m *Map) VisibilityRange() float64      { return m.cfg.VisibilityRange }
func (m *Map) Now() time.Time                { return m.clock.Now() }
func (m *Map) Scripts() *script.Registry     { return m.scripts }
func (m *Map) Services() gameobject.Services { return m.services }
func (m *Map) GameObjectCount() int          { return len(m.objects) }
func (m *Map) Config() Config                { return m.cfg }

// SpawnData returns the persisted placement of a spawn.
func (m *Map) SpawnData(id uint64) (gameobject.SpawnData, bool) {
	d, ok := m.spawns[id]
	return d, ok
}

// Update runs one tick of the map: object updates, respawns, removals and
// then replication to every player on the map.
//
// Respawn times queued during the tick are committed at its end. A crash
// between a removal and that commit loses the tick's respawn rows, and the
// object spawns again on the next load.
func (m *Map) Update(ctx context.Context, diff time.Duration) {
	for _, g := range m.GameObjects() {
		m.updateObject(ctx, g, diff)
	}

	m.processRespawns(ctx, m.Now())
	m.processRemovals(ctx)

	m.updateVisibility()
	m.flushValues()
	m.sendUpdates(ctx)

	m.commit(ctx)
}

func (m *Map) updateObject(ctx context.Context, g *gameobject.GameObject, diff time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "game object update failed", "map", m.id, "guid", g.GUID(), "error", r)
		}
	}()
	g.Update(diff)
}

// persist queues stmt for the end of tick commit.
func (m *Map) persist(stmt persistence.Statement) {
	if m.tx == nil {
		m.tx = m.repo.Begin()
	}
	m.tx.Append(stmt)
}

func (m *Map) commit(ctx context.Context) {
	tx := m.tx
	m.tx = nil
	if tx == nil {
		return
	}
	if err := tx.Commit(ctx); err != nil {
		slog.ErrorContext(ctx, "committing map changes", "map", m.id, "statements", tx.Len(), "error", err)
	}
}

// Flush commits changes made outside a tick.
func (m *Map) Flush(ctx context.Context) {
	m.commit(ctx)
}

// AddUpdateObject queues e for the next values flush.
func (m *Map) AddUpdateObject(e object.Entity) {
	guid := e.Object().GUID()
	if _, ok := m.dirtySet[guid]; ok {
		return
	}
	m.dirtySet[guid] = struct{}{}
	m.dirty = append(m.dirty, e)
}

func (m *Map) RemoveUpdateObject(e object.Entity) {
	delete(m.dirtySet, e.Object().GUID())
}

// VisibilityCondition may hide objects from particular seers.
type VisibilityCondition interface {
	IsVisibleTo(obj, seer object.Entity) bool
}

// IsVisibleByConditions asks every VisibilityCondition hook.
func (m *Map) IsVisibleByConditions(obj, seer object.Entity) bool {
	visible := true
	script.ForEach(m.scripts, func(c VisibilityCondition) {
		if visible && !c.IsVisibleTo(obj, seer) {
			visible = false
		}
	})
	return visible
}

func (m *Map) resolveZone(o *object.WorldObject) {
	zone, area := m.zones(o.Position())
	o.SetZoneAndArea(zone, area)
}

// isWide reports entities that are replicated regardless of range.
func isWide(e object.Entity) bool {
	o := e.Object()
	if o.IsFarVisible() || o.IsVisibilityOverridden() {
		return true
	}
	if g, ok := e.(*gameobject.GameObject); ok {
		switch g.Type() {
		case gameobject.TypeTransport, gameobject.TypeDestructibleBuilding:
			return true
		}
	}
	return false
}

func (m *Map) addObject(g *gameobject.GameObject) {
	guid := g.GUID()
	m.objects[guid] = g
	if id := g.SpawnID(); id != 0 {
		m.bySpawn[id] = g
	}
	m.resolveZone(g.Object())
	m.grid.add(g)
	if isWide(g) {
		m.wide[guid] = g
	}
	g.AddToWorld()
}

// AddGameObject places a runtime object created against this map.
func (m *Map) AddGameObject(g *gameobject.GameObject) {
	m.addObject(g)
}

// Summon creates and places a runtime object.
func (m *Map) Summon(t *gameobject.Template, pos object.Position, owner object.Entity) (*gameobject.GameObject, error) {
	counter, err := m.guids.Generate()
	if err != nil {
		return nil, err
	}
	var opts []gameobject.Opt
	if owner != nil {
		opts = append(opts, gameobject.WithOwner(owner))
	}
	g, err := gameobject.Create(m, object.NewGUID(object.HighGameObject, t.Entry, counter), t, pos, opts...)
	if err != nil {
		return nil, err
	}
	m.addObject(g)
	return g, nil
}

// Remove schedules g for removal at the end of the object updates.
func (m *Map) Remove(g *gameobject.GameObject) {
	if slices.Contains(m.removals, g) {
		return
	}
	m.removals = append(m.removals, g)
}

func (m *Map) processRemovals(ctx context.Context) {
	removals := m.removals
	m.removals = nil
	for _, g := range removals {
		m.removeObject(ctx, g)
	}
}

// removeObject takes g off the map. A failure while leaving the world is
// logged and the indexes are still cleaned up.
func (m *Map) removeObject(ctx context.Context, g *gameobject.GameObject) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "removing game object from world", "map", m.id, "guid", g.GUID(), "error", r)
			}
		}()
		g.RemoveFromWorld()
	}()

	guid := g.GUID()
	for _, p := range m.Players() {
		p.ClientView().Destroy(guid, m.outboxFor(p).data)
	}
	m.grid.remove(g)
	delete(m.wide, guid)
	delete(m.objects, guid)
	delete(m.dirtySet, guid)
	if id := g.SpawnID(); id != 0 && m.bySpawn[id] == g {
		delete(m.bySpawn, id)
	}
}

// GameObject returns the object with guid, or nil.
func (m *Map) GameObject(guid object.GUID) *gameobject.GameObject {
	return m.objects[guid]
}

// GameObjectBySpawnID returns the live object of a spawn, or nil.
func (m *Map) GameObjectBySpawnID(id uint64) *gameobject.GameObject {
	return m.bySpawn[id]
}

// GameObjects lists the objects on the map ordered by GUID.
func (m *Map) GameObjects() []*gameobject.GameObject {
	out := make([]*gameobject.GameObject, 0, len(m.objects))
	for _, g := range m.objects {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *gameobject.GameObject) int {
		return compareGUID(a.GUID(), b.GUID())
	})
	return out
}

// AddUnit places a creature.
func (m *Map) AddUnit(u object.Living) {
	o := u.Object()
	o.SetMap(m)
	m.resolveZone(o)
	m.units[o.GUID()] = u
	m.grid.add(u)
	if isWide(u) {
		m.wide[o.GUID()] = u
	}
	o.AddToWorld()
}

func (m *Map) RemoveUnit(u object.Living) {
	o := u.Object()
	guid := o.GUID()
	for _, p := range m.Players() {
		p.ClientView().Destroy(guid, m.outboxFor(p).data)
	}
	o.RemoveFromWorld()
	m.grid.remove(u)
	delete(m.wide, guid)
	delete(m.units, guid)
	delete(m.dirtySet, guid)
}

// AddPlayer places p on the map and sends the world states of its area. The
// player is created for its own client on the next tick, after that tick's
// changes.
func (m *Map) AddPlayer(p *unit.Player) {
	p.SetMap(m)
	m.resolveZone(p.Object())
	p.AddToWorld()

	m.playersMu.Lock()
	m.players[p.GUID()] = p
	m.playersMu.Unlock()
	m.grid.add(p)

	p.ClientView().Reset()
	m.sendInitWorldStates(p)
}

// RemovePlayer takes p off the map and out of every client that sees it.
func (m *Map) RemovePlayer(p *unit.Player) {
	guid := p.GUID()
	m.playersMu.Lock()
	delete(m.players, guid)
	m.playersMu.Unlock()

	for _, other := range m.Players() {
		other.ClientView().Destroy(guid, m.outboxFor(other).data)
	}
	p.RemoveFromWorld()
	p.ClientView().Reset()
	m.grid.remove(p)
	delete(m.outboxes, guid)
	delete(m.dirtySet, guid)
}

// RelocatePlayer moves p and refreshes its zone.
func (m *Map) RelocatePlayer(p *unit.Player, pos object.Position) {
	p.Relocate(pos)
	m.resolveZone(p.Object())
	m.grid.relocate(p)
}

// Players lists the players on the map ordered by GUID.
func (m *Map) Players() []*unit.Player {
	m.playersMu.RLock()
	out := make([]*unit.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	m.playersMu.RUnlock()
	slices.SortFunc(out, func(a, b *unit.Player) int {
		return compareGUID(a.GUID(), b.GUID())
	})
	return out
}

func (m *Map) PlayerCount() int {
	m.playersMu.RLock()
	defer m.playersMu.RUnlock()
	return len(m.players)
}

func (m *Map) playersInZone(zone uint32) int {
	m.playersMu.RLock()
	defer m.playersMu.RUnlock()
	n := 0
	for _, p := range m.players {
		if p.ZoneID() == zone {
			n++
		}
	}
	return n
}

// UnitsInRange returns the living units g can see within radius.
func (m *Map) UnitsInRange(g *gameobject.GameObject, radius float64) []object.Living {
	var out []object.Living
	for _, e := range m.grid.nearby(g.Position(), radius) {
		u, ok := e.(object.Living)
		if !ok || !object.IsWithinDist(g, u, radius, true) {
			continue
		}
		if !object.CanSeeOrDetect(g, u, object.SeeOptions{}) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// GameObjectsInRange returns the objects within radius of center.
func (m *Map) GameObjectsInRange(center object.Entity, radius float64) []*gameobject.GameObject {
	var out []*gameobject.GameObject
	for _, e := range m.grid.nearby(center.Object().Position(), radius) {
		g, ok := e.(*gameobject.GameObject)
		if !ok || g.Object() == center.Object() {
			continue
		}
		if object.ExactDistance(center, g) <= radius {
			out = append(out, g)
		}
	}
	return out
}

// SendToSet sends p to every player whose client holds g.
func (m *Map) SendToSet(g *gameobject.GameObject, p packet.Packet) {
	guid := g.GUID()
	for _, pl := range m.Players() {
		if pl.ClientView().Knows(guid) {
			pl.SendPacket(p)
		}
	}
}

// SendToAll sends p to every player on the map.
func (m *Map) SendToAll(p packet.Packet) {
	for _, pl := range m.Players() {
		pl.SendPacket(p)
	}
}
