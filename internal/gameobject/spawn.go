package gameobject

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/storage"
)

// SpawnGroupFlags configure every spawn in a group.
type SpawnGroupFlags uint32

const (
	SpawnGroupSystem            SpawnGroupFlags = 0x01
	SpawnGroupCompatibilityMode SpawnGroupFlags = 0x02
	SpawnGroupManualSpawn       SpawnGroupFlags = 0x04
	SpawnGroupDynamicSpawnRate  SpawnGroupFlags = 0x08
)

// SpawnGroup is a named set of spawns sharing respawn rules.
type SpawnGroup struct {
	ID    uint32
	Name  string
	Flags SpawnGroupFlags
}

// DefaultSpawnGroup holds spawns without an explicit group.
var DefaultSpawnGroup = SpawnGroup{ID: 0, Name: "default", Flags: SpawnGroupSystem}

// SpawnData is one persisted placement of a template. A negative
// RespawnSecs marks a spawn that is not present until a script spawns it.
type SpawnData struct {
	SpawnID      uint64
	Template     storage.Identifier
	MapID        uint32
	Position     object.Position
	Group        uint32
	RespawnSecs  int32
	AnimProgress uint8
	State        GoState
	Phase        uint32
}

func (d SpawnData) SpawnedByDefault() bool {
	return d.RespawnSecs >= 0
}

// RespawnDelay is the magnitude of RespawnSecs.
func (d SpawnData) RespawnDelay() time.Duration {
	secs := d.RespawnSecs
	if secs < 0 {
		secs = -secs
	}
	return time.Duration(secs) * time.Second
}

// LoadSpawns reads every game object spawn on a map.
func LoadSpawns(ctx context.Context, repo persistence.Repository, mapID uint32) ([]SpawnData, error) {
	var out []SpawnData
	err := repo.Query(ctx, persistence.Prepare(persistence.SelGameObjectSpawns, mapID), func(row persistence.Scanner) error {
		var d SpawnData
		var tmpl string
		var state uint8
		if err := row.Scan(&d.SpawnID, &tmpl, &d.MapID, &d.Position.X, &d.Position.Y, &d.Position.Z, &d.Position.O,
			&d.Group, &d.RespawnSecs, &d.AnimProgress, &state, &d.Phase); err != nil {
			return err
		}
		d.Template = storage.Identifier(tmpl)
		d.State = GoState(state)
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading spawns for map %d: %w", mapID, err)
	}
	return out, nil
}

// LoadSpawnGroups reads the spawn group table. The default group is always
// present.
func LoadSpawnGroups(ctx context.Context, repo persistence.Repository) (map[uint32]SpawnGroup, error) {
	groups := map[uint32]SpawnGroup{DefaultSpawnGroup.ID: DefaultSpawnGroup}
	err := repo.Query(ctx, persistence.Prepare(persistence.SelSpawnGroups), func(row persistence.Scanner) error {
		var g SpawnGroup
		var flags uint32
		if err := row.Scan(&g.ID, &g.Name, &flags); err != nil {
			return err
		}
		g.Flags = SpawnGroupFlags(flags)
		groups[g.ID] = g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading spawn groups: %w", err)
	}
	return groups, nil
}

// SaveSpawn persists a new placement.
func SaveSpawn(ctx context.Context, repo persistence.Repository, d SpawnData) error {
	p := d.Position
	err := repo.Execute(ctx, persistence.Prepare(persistence.InsGameObjectSpawn, d.SpawnID, string(d.Template), d.MapID,
		p.X, p.Y, p.Z, p.O, d.Group, d.RespawnSecs, d.AnimProgress, uint8(d.State), d.Phase))
	if err != nil {
		return fmt.Errorf("saving spawn %d: %w", d.SpawnID, err)
	}
	return nil
}

// SaveSpawnGroup creates or replaces a spawn group.
func SaveSpawnGroup(ctx context.Context, repo persistence.Repository, g SpawnGroup) error {
	err := repo.Execute(ctx, persistence.Prepare(persistence.RepSpawnGroup, g.ID, g.Name, uint32(g.Flags)))
	if err != nil {
		return fmt.Errorf("saving spawn group %d: %w", g.ID, err)
	}
	return nil
}
