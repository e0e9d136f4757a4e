package gameobject

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-worldserver/internal/storage"
)

// Template is the static definition shared by every spawn of a game object.
// Templates are stored one per file and referenced by id from spawn data.
type Template struct {
	Entry      uint32         `json:"entry"`
	Type       GoType         `json:"type"`
	Name       string         `json:"name"`
	DisplayID  uint32         `json:"display_id"`
	Size       float32        `json:"size,omitempty"`
	Faction    uint32         `json:"faction,omitempty"`
	Flags      Flags          `json:"flags,omitempty"`
	ServerOnly bool           `json:"server_only,omitempty"`
	ScriptName string         `json:"script,omitempty"`
	Params     storage.Params `json:"params,omitempty"`

	Door         *DoorData         `json:"door,omitempty"`
	Button       *ButtonData       `json:"button,omitempty"`
	Chest        *ChestData        `json:"chest,omitempty"`
	Trap         *TrapData         `json:"trap,omitempty"`
	Goober       *GooberData       `json:"goober,omitempty"`
	FishingHole  *FishingHoleData  `json:"fishing_hole,omitempty"`
	Ritual       *RitualData       `json:"ritual,omitempty"`
	CapturePoint *CapturePointData `json:"capture_point,omitempty"`
	Destructible *DestructibleData `json:"destructible,omitempty"`
}

type DoorData struct {
	StartOpen   bool   `json:"start_open,omitempty"`
	AutoCloseMs uint32 `json:"auto_close_ms,omitempty"`
}

type ButtonData struct {
	StartOpen   bool                   `json:"start_open,omitempty"`
	AutoCloseMs uint32                 `json:"auto_close_ms,omitempty"`
	LinkedTrap  storage.Ref[*Template] `json:"linked_trap,omitempty"`
}

type ChestData struct {
	Loot        []uint32               `json:"loot,omitempty"`
	RestockSecs uint32                 `json:"restock_secs,omitempty"`
	Consumable  bool                   `json:"consumable,omitempty"`
	Personal    bool                   `json:"personal,omitempty"`
	LinkedTrap  storage.Ref[*Template] `json:"linked_trap,omitempty"`
}

// TrapData describes a trap. Charges 0 rearms after each trigger, 1 fires once
// and 2 is a bomb that fires without a target.
type TrapData struct {
	Radius         float64 `json:"radius,omitempty"`
	SpellID        uint32  `json:"spell,omitempty"`
	Charges        uint32  `json:"charges,omitempty"`
	CooldownSecs   uint32  `json:"cooldown_secs,omitempty"`
	StartDelaySecs uint32  `json:"start_delay_secs,omitempty"`
	AutoCloseMs    uint32  `json:"auto_close_ms,omitempty"`
	CheckAllUnits  bool    `json:"check_all_units,omitempty"`
	Stealthed      bool    `json:"stealthed,omitempty"`
}

type GooberData struct {
	AutoCloseMs uint32                 `json:"auto_close_ms,omitempty"`
	SpellID     uint32                 `json:"spell,omitempty"`
	EventID     uint32                 `json:"event,omitempty"`
	Consumable  bool                   `json:"consumable,omitempty"`
	LinkedTrap  storage.Ref[*Template] `json:"linked_trap,omitempty"`
}

type FishingHoleData struct {
	Radius     float64  `json:"radius,omitempty"`
	MinRestock uint32   `json:"min_restock"`
	MaxRestock uint32   `json:"max_restock"`
	Loot       []uint32 `json:"loot,omitempty"`
}

type RitualData struct {
	Casters        uint32 `json:"casters"`
	SpellID        uint32 `json:"spell,omitempty"`
	AnimSpell      uint32 `json:"anim_spell,omitempty"`
	Persistent     bool   `json:"persistent,omitempty"`
	CastersGrouped bool   `json:"casters_grouped,omitempty"`
}

type CapturePointData struct {
	CaptureTimeMs             uint32    `json:"capture_time_ms"`
	WorldState                int32     `json:"world_state,omitempty"`
	AssaultBroadcastHorde     uint32    `json:"assault_broadcast_horde,omitempty"`
	AssaultBroadcastAlliance  uint32    `json:"assault_broadcast_alliance,omitempty"`
	DefendedBroadcastHorde    uint32    `json:"defended_broadcast_horde,omitempty"`
	DefendedBroadcastAlliance uint32    `json:"defended_broadcast_alliance,omitempty"`
	CaptureBroadcastHorde     uint32    `json:"capture_broadcast_horde,omitempty"`
	CaptureBroadcastAlliance  uint32    `json:"capture_broadcast_alliance,omitempty"`
	ContestedEventHorde       uint32    `json:"contested_event_horde,omitempty"`
	ContestedEventAlliance    uint32    `json:"contested_event_alliance,omitempty"`
	DefendedEventHorde        uint32    `json:"defended_event_horde,omitempty"`
	DefendedEventAlliance     uint32    `json:"defended_event_alliance,omitempty"`
	CaptureEventHorde         uint32    `json:"capture_event_horde,omitempty"`
	CaptureEventAlliance      uint32    `json:"capture_event_alliance,omitempty"`
	SpellVisuals              [5]uint32 `json:"spell_visuals"`
}

type DestructibleData struct {
	IntactNumHits       uint32 `json:"intact_hits"`
	DamagedNumHits      uint32 `json:"damaged_hits"`
	DamagedDisplayID    uint32 `json:"damaged_display_id,omitempty"`
	DestroyedDisplayID  uint32 `json:"destroyed_display_id,omitempty"`
	RebuildingDisplayID uint32 `json:"rebuilding_display_id,omitempty"`
	DamageEvent         uint32 `json:"damage_event,omitempty"`
	DamagedEvent        uint32 `json:"damaged_event,omitempty"`
	DestroyedEvent      uint32 `json:"destroyed_event,omitempty"`
	RebuildingEvent     uint32 `json:"rebuilding_event,omitempty"`
}

func (t *Template) Validate() error {
	el := errors.NewErrorList()

	if t.Entry == 0 {
		el.Add(fmt.Errorf("entry must be set"))
	}
	if t.Name == "" {
		el.Add(fmt.Errorf("name must be set"))
	}
	if _, ok := goTypeNames[t.Type]; !ok {
		el.Add(fmt.Errorf("%w: %d", ErrUnknownType, t.Type))
	}

	missing := func(section string) {
		el.Add(fmt.Errorf("type %s requires a %s section", t.Type, section))
	}

	switch t.Type {
	case TypeDoor:
		if t.Door == nil {
			missing("door")
		}
	case TypeButton:
		if t.Button == nil {
			missing("button")
		}
	case TypeChest:
		if t.Chest == nil {
			missing("chest")
		}
	case TypeTrap:
		if t.Trap == nil {
			missing("trap")
		} else if t.Trap.Charges > 2 {
			el.Add(fmt.Errorf("trap charges must be 0, 1 or 2"))
		}
	case TypeGoober:
		if t.Goober == nil {
			missing("goober")
		}
	case TypeFishingHole:
		if t.FishingHole == nil {
			missing("fishing_hole")
		} else if t.FishingHole.MinRestock > t.FishingHole.MaxRestock {
			el.Add(fmt.Errorf("fishing hole min_restock exceeds max_restock"))
		}
	case TypeRitual:
		if t.Ritual == nil {
			missing("ritual")
		} else if t.Ritual.Casters == 0 {
			el.Add(fmt.Errorf("ritual casters must be set"))
		}
	case TypeCapturePoint:
		if t.CapturePoint == nil {
			missing("capture_point")
		} else if t.CapturePoint.CaptureTimeMs == 0 {
			el.Add(fmt.Errorf("capture point capture_time_ms must be set"))
		}
	case TypeDestructibleBuilding:
		if t.Destructible == nil {
			missing("destructible")
		} else if t.Destructible.IntactNumHits+t.Destructible.DamagedNumHits == 0 {
			el.Add(fmt.Errorf("destructible building needs hit points"))
		}
	}

	return el.Err()
}

// AutoClose is how long a used door, button, trap or goober stays active.
func (t *Template) AutoClose() time.Duration {
	var ms uint32
	switch {
	case t.Type == TypeDoor && t.Door != nil:
		ms = t.Door.AutoCloseMs
	case t.Type == TypeButton && t.Button != nil:
		ms = t.Button.AutoCloseMs
	case t.Type == TypeTrap && t.Trap != nil:
		ms = t.Trap.AutoCloseMs
	case t.Type == TypeGoober && t.Goober != nil:
		ms = t.Goober.AutoCloseMs
	}
	return time.Duration(ms) * time.Millisecond
}

// IsDespawnAtAction reports objects that are consumed when used.
func (t *Template) IsDespawnAtAction() bool {
	switch {
	case t.Type == TypeChest && t.Chest != nil:
		return t.Chest.Consumable
	case t.Type == TypeGoober && t.Goober != nil:
		return t.Goober.Consumable
	}
	return false
}

// CanDespawn reports whether spawns of this template run respawn timers.
// Others are flagged as never despawning.
func (t *Template) CanDespawn() bool {
	switch t.Type {
	case TypeDoor, TypeButton, TypeTransport, TypeCapturePoint, TypeDestructibleBuilding:
		return false
	}
	return true
}

// LinkedTrap returns the trap spawned alongside this object, if any.
func (t *Template) LinkedTrap() *Template {
	var ref *storage.Ref[*Template]
	switch {
	case t.Button != nil:
		ref = &t.Button.LinkedTrap
	case t.Chest != nil:
		ref = &t.Chest.LinkedTrap
	case t.Goober != nil:
		ref = &t.Goober.LinkedTrap
	default:
		return nil
	}
	return ref.Get()
}

func (t *Template) refs() []*storage.Ref[*Template] {
	var out []*storage.Ref[*Template]
	if t.Button != nil {
		out = append(out, &t.Button.LinkedTrap)
	}
	if t.Chest != nil {
		out = append(out, &t.Chest.LinkedTrap)
	}
	if t.Goober != nil {
		out = append(out, &t.Goober.LinkedTrap)
	}
	return out
}

// LoadTemplates reads every template under path and resolves linked traps.
func LoadTemplates(path string) (*storage.FileStore[*Template], error) {
	store, err := storage.NewFileStore[*Template](path)
	if err != nil {
		return nil, fmt.Errorf("loading game object templates: %w", err)
	}

	el := errors.NewErrorList()
	for _, id := range store.Ids() {
		t := store.Get(id)
		for _, ref := range t.refs() {
			if err := ref.Resolve(store); err != nil {
				el.Add(fmt.Errorf("template %s: %w", id, err))
				continue
			}
			if linked := ref.Get(); linked != nil && linked.Type != TypeTrap {
				el.Add(fmt.Errorf("template %s: linked trap %s is a %s", id, ref.Key(), linked.Type))
			}
		}
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	return store, nil
}
