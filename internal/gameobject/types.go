package gameobject

import (
	"encoding/json"
	"fmt"
)

// GoType selects the behaviour of a game object.
type GoType uint8

const (
	TypeGeneric GoType = iota
	TypeDoor
	TypeButton
	TypeChest
	TypeTrap
	TypeGoober
	TypeTransport
	TypeFishingNode
	TypeRitual
	TypeFishingHole
	TypeCapturePoint
	TypeDestructibleBuilding
)

var goTypeNames = map[GoType]string{
	TypeGeneric:              "generic",
	TypeDoor:                 "door",
	TypeButton:               "button",
	TypeChest:                "chest",
	TypeTrap:                 "trap",
	TypeGoober:               "goober",
	TypeTransport:            "transport",
	TypeFishingNode:          "fishing_node",
	TypeRitual:               "ritual",
	TypeFishingHole:          "fishing_hole",
	TypeCapturePoint:         "capture_point",
	TypeDestructibleBuilding: "destructible_building",
}

func (t GoType) String() string {
	if n, ok := goTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("GoType(%d)", uint8(t))
}

func (t GoType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *GoType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for k, v := range goTypeNames {
		if v == name {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// LootState is the interaction phase of a game object.
type LootState uint8

const (
	LootNotReady LootState = iota
	LootReady
	LootActivated
	LootJustDeactivated
)

func (s LootState) String() string {
	switch s {
	case LootNotReady:
		return "not_ready"
	case LootReady:
		return "ready"
	case LootActivated:
		return "activated"
	case LootJustDeactivated:
		return "just_deactivated"
	}
	return fmt.Sprintf("LootState(%d)", uint8(s))
}

// GoState is the replicated open/closed state.
type GoState uint8

const (
	StateActive GoState = iota
	StateReady
	StateDestroyed
)

// DestructibleState is the damage phase of a destructible building.
type DestructibleState uint8

const (
	DestructibleIntact DestructibleState = iota
	DestructibleDamaged
	DestructibleDestroyed
	DestructibleRebuilding
)

func (s DestructibleState) String() string {
	switch s {
	case DestructibleIntact:
		return "intact"
	case DestructibleDamaged:
		return "damaged"
	case DestructibleDestroyed:
		return "destroyed"
	case DestructibleRebuilding:
		return "rebuilding"
	}
	return fmt.Sprintf("DestructibleState(%d)", uint8(s))
}

// CapturePointState is the ownership phase of a capture point.
type CapturePointState uint8

const (
	CaptureNeutral CapturePointState = iota
	CaptureContestedHorde
	CaptureContestedAlliance
	CaptureHordeCaptured
	CaptureAllianceCaptured
)

// Flags are the replicated object flags.
type Flags uint32

const (
	FlagInUse         Flags = 0x001
	FlagLocked        Flags = 0x002
	FlagInteractCond  Flags = 0x004
	FlagTransport     Flags = 0x008
	FlagNotSelectable Flags = 0x010
	FlagNoDespawn     Flags = 0x020
	FlagAIObstacle    Flags = 0x040
	FlagFreezeAnim    Flags = 0x080
	FlagDamaged       Flags = 0x200
	FlagDestroyed     Flags = 0x400
)

// DynamicFlags are per-tick presentation flags.
type DynamicFlags uint32

const (
	DynHideModel  DynamicFlags = 0x002
	DynActivate   DynamicFlags = 0x004
	DynAnimate    DynamicFlags = 0x008
	DynDepleted   DynamicFlags = 0x010
	DynSparkle    DynamicFlags = 0x020
	DynStopped    DynamicFlags = 0x040
	DynNoInteract DynamicFlags = 0x080
	DynHighlight  DynamicFlags = 0x200
)
