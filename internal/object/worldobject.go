package object

import "slices"

// TypeID is the replicated object class.
type TypeID uint8

const (
	TypeObject TypeID = iota
	TypeUnit
	TypePlayer
	TypeGameObject
	TypeDynamicObject
	TypeCorpse
)

// MapRef is the map an object lives on.
type MapRef interface {
	ID() uint32
	InstanceID() uint32
	VisibilityRange() float64
	AddUpdateObject(e Entity)
	RemoveUpdateObject(e Entity)
	IsVisibleByConditions(obj, seer Entity) bool
}

// Entity is anything placed in the world. Types embed WorldObject and may
// override the visibility predicates.
type Entity interface {
	Object() *WorldObject
	IsNeverVisibleFor(seer Entity, allowServerside bool) bool
	IsAlwaysVisibleFor(seer Entity) bool
	IsInvisibleDueToDespawn(seer Entity) bool
	IsAlwaysDetectableFor(seer Entity) bool
}

// DefaultPhase is the phase of an object with no explicit phases.
const DefaultPhase uint32 = 0

// WorldObject is the state shared by every entity in the world.
type WorldObject struct {
	self   Entity
	guid   GUID
	typeID TypeID
	name   string

	pos    Position
	m      MapRef
	zoneID uint32
	areaID uint32

	inWorld   bool
	destroyed bool
	active    bool

	phases             []uint32
	visibilityOverride float64
	farVisible         bool

	Stealth                    DetectionSet[StealthType]
	StealthDetect              DetectionSet[StealthType]
	Invisibility               DetectionSet[InvisibilityType]
	InvisibilityDetect         DetectionSet[InvisibilityType]
	ServerSideVisibility       DetectionSet[ServerSideVisibilityType]
	ServerSideVisibilityDetect DetectionSet[ServerSideVisibilityType]

	privateOwner  GUID
	smoothPhasing *SmoothPhasing

	transport       Entity
	transportOffset Position

	values Values
	entry  *Field[uint32]
	scale  *Field[float32]
}

// Init prepares w as the base of self.
func (w *WorldObject) Init(self Entity, guid GUID, typeID TypeID) {
	w.self = self
	w.guid = guid
	w.typeID = typeID
	w.values.owner = w

	w.entry = NewField(&w.values, "entry", FlagPublic, guid.Entry)
	w.scale = NewField(&w.values, "scale", FlagPublic, float32(1))

	w.ServerSideVisibility.SetValue(ServerSideGhost, GhostVisibilityAlive|GhostVisibilityGhost)
	w.ServerSideVisibilityDetect.SetValue(ServerSideGhost, GhostVisibilityAlive)
}

func (w *WorldObject) Object() *WorldObject { return w }
func (w *WorldObject) Self() Entity         { return w.self }
func (w *WorldObject) GUID() GUID           { return w.guid }
func (w *WorldObject) TypeID() TypeID       { return w.typeID }
func (w *WorldObject) Entry() uint32        { return w.entry.Get() }
func (w *WorldObject) Values() *Values      { return &w.values }
func (w *WorldObject) Name() string         { return w.name }
func (w *WorldObject) SetName(n string)     { w.name = n }

func (w *WorldObject) Scale() float32          { return w.scale.Get() }
func (w *WorldObject) SetScale(s float32) bool { return w.scale.Set(s) }

func (w *WorldObject) Position() Position   { return w.pos }
func (w *WorldObject) Relocate(p Position)  { w.pos = p }
func (w *WorldObject) Map() MapRef          { return w.m }
func (w *WorldObject) SetMap(m MapRef)      { w.m = m }
func (w *WorldObject) ZoneID() uint32       { return w.zoneID }
func (w *WorldObject) AreaID() uint32       { return w.areaID }
func (w *WorldObject) IsInWorld() bool      { return w.inWorld }
func (w *WorldObject) IsDestroyed() bool    { return w.destroyed }
func (w *WorldObject) SetDestroyed(d bool)  { w.destroyed = d }
func (w *WorldObject) IsActive() bool       { return w.active }
func (w *WorldObject) SetActive(a bool)     { w.active = a }
func (w *WorldObject) IsFarVisible() bool   { return w.farVisible }
func (w *WorldObject) SetFarVisible(v bool) { w.farVisible = v }

// SetZoneAndArea records the resolved zone and area.
func (w *WorldObject) SetZoneAndArea(zone, area uint32) {
	w.zoneID = zone
	w.areaID = area
}

// AddToWorld marks the object present. The next create block carries every
// field, so pending changes are dropped.
func (w *WorldObject) AddToWorld() {
	if w.inWorld {
		return
	}
	w.inWorld = true
	w.values.Clear()
}

// RemoveFromWorld marks the object absent and drops it from the map's
// pending update set.
func (w *WorldObject) RemoveFromWorld() {
	if !w.inWorld {
		return
	}
	if w.values.queued && w.m != nil {
		w.m.RemoveUpdateObject(w.self)
	}
	w.inWorld = false
	w.values.Clear()
}

func (w *WorldObject) addToObjectUpdate() bool {
	if !w.inWorld || w.m == nil {
		return false
	}
	w.m.AddUpdateObject(w.self)
	return true
}

// ClearUpdateMask resets the dirty mask after a flush.
func (w *WorldObject) ClearUpdateMask() {
	w.values.Clear()
}

// Phases returns the object's phase ids.
func (w *WorldObject) Phases() []uint32 {
	if len(w.phases) == 0 {
		return []uint32{DefaultPhase}
	}
	return w.phases
}

func (w *WorldObject) SetPhases(ids ...uint32) {
	w.phases = slices.Clone(ids)
}

// InSamePhase reports whether the two objects share any phase.
func (w *WorldObject) InSamePhase(o *WorldObject) bool {
	for _, p := range w.Phases() {
		if slices.Contains(o.Phases(), p) {
			return true
		}
	}
	return false
}

// SetVisibilityDistanceOverride fixes the range the object is seen from.
// Zero removes the override.
func (w *WorldObject) SetVisibilityDistanceOverride(d float64) {
	w.visibilityOverride = d
}

func (w *WorldObject) IsVisibilityOverridden() bool {
	return w.visibilityOverride > 0
}

func (w *WorldObject) PrivateObjectOwner() GUID { return w.privateOwner }
func (w *WorldObject) IsPrivateObject() bool    { return !w.privateOwner.IsEmpty() }

func (w *WorldObject) SetPrivateObjectOwner(g GUID) {
	w.privateOwner = g
}

// SmoothPhasing returns the replacement state, creating it when create is set.
func (w *WorldObject) SmoothPhasing(create bool) *SmoothPhasing {
	if w.smoothPhasing == nil && create {
		w.smoothPhasing = NewSmoothPhasing()
	}
	return w.smoothPhasing
}

// Transport returns the moving frame the object rides, if any.
func (w *WorldObject) Transport() Entity         { return w.transport }
func (w *WorldObject) TransportOffset() Position { return w.transportOffset }

func (w *WorldObject) SetTransport(t Entity, offset Position) {
	w.transport = t
	w.transportOffset = offset
}

// IsNeverVisibleFor reports objects nobody can see.
func (w *WorldObject) IsNeverVisibleFor(Entity, bool) bool {
	return !w.inWorld || w.destroyed
}

func (w *WorldObject) IsAlwaysVisibleFor(Entity) bool      { return false }
func (w *WorldObject) IsInvisibleDueToDespawn(Entity) bool { return false }
func (w *WorldObject) IsAlwaysDetectableFor(Entity) bool   { return false }

// checkPrivateObjectOwnerVisibility limits private objects to their owner,
// the owner's other private objects and the owner's group.
func (w *WorldObject) checkPrivateObjectOwnerVisibility(seer Entity) bool {
	if !w.IsPrivateObject() {
		return true
	}
	so := seer.Object()
	if w.privateOwner == so.guid || w.privateOwner == so.privateOwner {
		return true
	}
	if v, ok := seer.(Viewer); ok && v.IsInGroup(w.privateOwner) {
		return true
	}
	return false
}
