package maps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/pixil98/go-worldserver/internal/gameobject"
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/persistence"
)

// respawnTypeGameObject is the type column of game object respawn rows.
const respawnTypeGameObject = 1

var (
	ErrUnknownSpawnGroup = errors.New("unknown spawn group")
	ErrSpawnExists       = errors.New("spawn already exists")
)

// LoadFromDB reads the map's spawn groups, spawns and pending respawns and
// places every spawn that is due. Spawns that fail to load are logged and
// skipped.
func (m *Map) LoadFromDB(ctx context.Context) error {
	groups, err := gameobject.LoadSpawnGroups(ctx, m.repo)
	if err != nil {
		return err
	}
	m.spawnGroups = groups

	spawns, err := gameobject.LoadSpawns(ctx, m.repo, m.id)
	if err != nil {
		return err
	}
	for _, d := range spawns {
		m.spawns[d.SpawnID] = d
	}

	if err := m.loadRespawns(ctx); err != nil {
		return err
	}

	placed := 0
	for _, id := range m.spawnIDs() {
		d := m.spawns[id]
		if m.spawnGroup(d.Group).Flags&gameobject.SpawnGroupManualSpawn != 0 {
			continue
		}
		if m.spawn(ctx, d) {
			placed++
		}
	}
	slog.InfoContext(ctx, "map loaded", "map", m.id, "instance", m.instanceID,
		"spawns", len(m.spawns), "placed", placed, "respawns", len(m.respawns))
	return nil
}

func (m *Map) spawnIDs() []uint64 {
	ids := make([]uint64, 0, len(m.spawns))
	for id := range m.spawns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Map) spawnGroup(id uint32) gameobject.SpawnGroup {
	if g, ok := m.spawnGroups[id]; ok {
		return g
	}
	return gameobject.DefaultSpawnGroup
}

func (m *Map) loadRespawns(ctx context.Context) error {
	stmt := persistence.Prepare(persistence.SelRespawns, m.id, m.instanceID)
	return m.repo.Query(ctx, stmt, func(row persistence.Scanner) error {
		var typ int
		var spawnID uint64
		var at int64
		if err := row.Scan(&typ, &spawnID, &at); err != nil {
			return err
		}
		if typ == respawnTypeGameObject {
			m.respawns[spawnID] = time.Unix(at, 0)
		}
		return nil
	})
}

// spawn places d unless it is already live or still waiting on its respawn
// time outside compatibility mode. It reports whether an object was placed.
func (m *Map) spawn(ctx context.Context, d gameobject.SpawnData) bool {
	if m.bySpawn[d.SpawnID] != nil {
		return false
	}
	group := m.spawnGroup(d.Group)
	compat := group.Flags&gameobject.SpawnGroupCompatibilityMode != 0
	if at, ok := m.respawns[d.SpawnID]; ok && !compat && at.After(m.Now()) {
		return false
	}

	if m.templates == nil {
		slog.WarnContext(ctx, "no templates to spawn from", "map", m.id, "spawn_id", d.SpawnID)
		return false
	}
	var entry uint32
	if t := m.templates.Get(d.Template); t != nil {
		entry = t.Entry
	}
	counter, err := m.guids.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "no guid for spawn", "map", m.id, "spawn_id", d.SpawnID, "error", err)
		return false
	}

	g, err := gameobject.LoadFromDB(m, object.NewGUID(object.HighGameObject, entry, counter), d, m.templates, group)
	if err != nil {
		slog.WarnContext(ctx, "spawn not loaded", "map", m.id, "spawn_id", d.SpawnID, "error", err)
		return false
	}
	m.addObject(g)
	return true
}

// AddSpawn persists a new placement on this map and spawns it.
func (m *Map) AddSpawn(ctx context.Context, d gameobject.SpawnData) (*gameobject.GameObject, error) {
	if _, ok := m.spawns[d.SpawnID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrSpawnExists, d.SpawnID)
	}
	if m.templates == nil || m.templates.Get(d.Template) == nil {
		return nil, fmt.Errorf("%w: %s", gameobject.ErrUnknownTemplate, d.Template)
	}
	d.MapID = m.id
	if err := gameobject.SaveSpawn(ctx, m.repo, d); err != nil {
		return nil, err
	}
	m.spawns[d.SpawnID] = d
	if !m.spawn(ctx, d) {
		return nil, fmt.Errorf("spawn %d not placed", d.SpawnID)
	}
	return m.bySpawn[d.SpawnID], nil
}

// processRespawns places every spawn whose respawn time has passed.
// Compatibility mode objects stay on the map and respawn themselves.
func (m *Map) processRespawns(ctx context.Context, now time.Time) {
	var due []uint64
	for id, at := range m.respawns {
		if !at.After(now) {
			due = append(due, id)
		}
	}
	slices.Sort(due)

	for _, id := range due {
		if m.bySpawn[id] != nil {
			continue
		}
		d, ok := m.spawns[id]
		m.RemoveRespawnTime(id)
		if !ok {
			slog.WarnContext(ctx, "respawn for unknown spawn dropped", "map", m.id, "spawn_id", id)
			continue
		}
		m.spawn(ctx, d)
	}
}

// RespawnTime returns the pending respawn of a spawn, or the zero time.
func (m *Map) RespawnTime(spawnID uint64) time.Time {
	return m.respawns[spawnID]
}

// SaveRespawnTime records and persists a pending respawn.
func (m *Map) SaveRespawnTime(spawnID uint64, _ uint32, at time.Time) {
	if spawnID == 0 {
		return
	}
	m.respawns[spawnID] = at
	m.persist(persistence.Prepare(persistence.RepRespawn,
		respawnTypeGameObject, spawnID, at.Unix(), m.id, m.instanceID))
}

func (m *Map) RemoveRespawnTime(spawnID uint64) {
	if _, ok := m.respawns[spawnID]; !ok {
		return
	}
	delete(m.respawns, spawnID)
	m.persist(persistence.Prepare(persistence.DelRespawn,
		respawnTypeGameObject, spawnID, m.id, m.instanceID))
}

// DeleteRespawnTimes forgets every pending respawn of the instance.
func (m *Map) DeleteRespawnTimes() {
	clear(m.respawns)
	m.persist(persistence.Prepare(persistence.DelRespawnsForInstance, m.id, m.instanceID))
}

// ScaleRespawnDelay shortens delay for spawns in dynamic rate groups when
// their zone is crowded. The delay never drops below the configured
// minimum, and delays already at or below it are left alone.
func (m *Map) ScaleRespawnDelay(g *gameobject.GameObject, delay time.Duration) time.Duration {
	if m.cfg.DynamicRespawnMode != RespawnModeZonePlayers {
		return delay
	}
	d, ok := m.spawns[g.SpawnID()]
	if !ok || m.spawnGroup(d.Group).Flags&gameobject.SpawnGroupDynamicSpawnRate == 0 {
		return delay
	}
	players := m.playersInZone(g.ZoneID())
	if players == 0 {
		return delay
	}
	factor := m.cfg.DynamicRespawnRate / float64(players)
	if factor >= 1 {
		return delay
	}
	minimum := m.cfg.DynamicRespawnMinimum
	if delay <= minimum {
		return delay
	}
	scaled := time.Duration(math.Ceil(delay.Seconds()*factor)) * time.Second
	return max(scaled, minimum)
}

// SpawnGroupSpawn places every spawn of a group. With force set pending
// respawn times are dropped first.
func (m *Map) SpawnGroupSpawn(ctx context.Context, groupID uint32, force bool) (int, error) {
	if _, ok := m.spawnGroups[groupID]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSpawnGroup, groupID)
	}
	placed := 0
	for _, id := range m.spawnIDs() {
		d := m.spawns[id]
		if d.Group != groupID {
			continue
		}
		if force {
			m.RemoveRespawnTime(id)
		}
		if m.spawn(ctx, d) {
			placed++
		}
	}
	return placed, nil
}

// SpawnGroupDespawn removes every live object of a group. With
// deleteRespawns set their pending respawns are dropped as well.
func (m *Map) SpawnGroupDespawn(groupID uint32, deleteRespawns bool) (int, error) {
	if _, ok := m.spawnGroups[groupID]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSpawnGroup, groupID)
	}
	removed := 0
	for _, id := range m.spawnIDs() {
		if m.spawns[id].Group != groupID {
			continue
		}
		if deleteRespawns {
			m.RemoveRespawnTime(id)
		}
		g := m.bySpawn[id]
		if g == nil {
			continue
		}
		g.Delete()
		removed++
	}
	return removed, nil
}
