package worldstate

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Template declares a world state: its default value, the maps it lives on
// (none means realm-wide) and the areas it is sent to.
type Template struct {
	ID           int32    `yaml:"id"`
	Name         string   `yaml:"name"`
	DefaultValue int32    `yaml:"default"`
	MapIDs       []uint32 `yaml:"maps,omitempty"`
	AreaIDs      []uint32 `yaml:"areas,omitempty"`
	ScriptName   string   `yaml:"script,omitempty"`
}

// IsRealmWide reports whether the state is stored outside any map.
func (t *Template) IsRealmWide() bool {
	return len(t.MapIDs) == 0
}

func (t *Template) onMap(mapID uint32) bool {
	return slices.Contains(t.MapIDs, mapID)
}

// InArea reports whether the state is sent to players in areaID.
func (t *Template) InArea(areaID uint32) bool {
	return len(t.AreaIDs) == 0 || slices.Contains(t.AreaIDs, areaID)
}

type templateFile struct {
	WorldStates []Template `yaml:"world_states"`
}

// Validator reports whether a map or area id exists.
type Validator func(id uint32) bool

// LoadTemplates reads world state templates from a YAML file. Unknown map and
// area ids are dropped; a template left with no valid map is skipped.
func LoadTemplates(path string, validMap, validArea Validator) (map[int32]*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplates(b, validMap, validArea)
}

// ParseTemplates is LoadTemplates over an in-memory document.
func ParseTemplates(b []byte, validMap, validArea Validator) (map[int32]*Template, error) {
	var f templateFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("worldstates.yaml: %w", err)
	}

	out := make(map[int32]*Template, len(f.WorldStates))
	for i := range f.WorldStates {
		t := f.WorldStates[i]

		if len(t.MapIDs) > 0 {
			t.MapIDs = filterIDs(t.MapIDs, validMap, "map", t.ID)
			if len(t.MapIDs) == 0 {
				slog.Warn("world state has no valid map, skipped", "world_state", t.ID)
				continue
			}
		}
		t.AreaIDs = filterIDs(t.AreaIDs, validArea, "area", t.ID)

		if _, dup := out[t.ID]; dup {
			slog.Warn("duplicate world state template", "world_state", t.ID)
		}
		out[t.ID] = &t
	}
	return out, nil
}

func filterIDs(ids []uint32, valid Validator, kind string, stateID int32) []uint32 {
	if valid == nil || len(ids) == 0 {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if !valid(id) {
			slog.Warn("world state references unknown "+kind, "world_state", stateID, kind, id)
			continue
		}
		out = append(out, id)
	}
	return out
}
