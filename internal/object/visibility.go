package object

import "math"

// Distances in yards.
const (
	DefaultVisibilityDistance   = 100.0
	DefaultVisibilityInstance   = 170.0
	MaxVisibilityDistance       = 533.33333
	SightRangeUnit              = 50.0
	MaxPlayerStealthDetectRange = 30.0
)

// Living is implemented by units.
type Living interface {
	Entity
	Level() uint8
	IsAlive() bool
	CombatReach() float64
	// VehicleBase is the vehicle this unit rides as an accessory, or nil.
	VehicleBase() Entity
	IsFriendlyTo(other Entity) bool
}

// Controlled is implemented by units that can take over or be taken over.
// Implementations return a nil interface, not a typed nil, when absent.
type Controlled interface {
	Possessed() Entity
	CharmerOrOwner() Entity
}

// Viewer is implemented by entities with a client attached.
type Viewer interface {
	Living
	IsGhost() bool
	Corpse() Entity
	Viewpoint() Entity
	HaveAtClient(e Entity) bool
	IsInGroup(guid GUID) bool
	IsGroupVisibleFor(other Viewer) bool
	IsOnCinematic() bool
}

// Sighted is implemented by non-player units with their own sight range.
type Sighted interface {
	SightDistance() float64
}

// Owned is implemented by entities summoned by a unit.
type Owned interface {
	Owner() Entity
}

// Trap is implemented by objects that always see through stealth.
type Trap interface {
	IsTrap() bool
}

// SeeOptions selects the optional parts of a visibility check.
type SeeOptions struct {
	ImplicitDetect bool
	DistanceCheck  bool
	CheckAlert     bool
}

// CombatReach returns the reach of e, zero for non-units.
func CombatReach(e Entity) float64 {
	if l, ok := e.(Living); ok {
		return l.CombatReach()
	}
	return 0
}

// ExactDistance is the 3D distance between two entities.
func ExactDistance(a, b Entity) float64 {
	return a.Object().pos.Distance(b.Object().pos)
}

// IsWithinDist reports whether b is within d of a, allowing for both
// entities' reach.
func IsWithinDist(a, b Entity, d float64, is3D bool) bool {
	return a.Object().pos.IsWithinDist(b.Object().pos, d+CombatReach(a)+CombatReach(b), is3D)
}

// LevelForTarget is the level seer uses against target.
func LevelForTarget(seer Entity) uint8 {
	if l, ok := seer.(Living); ok {
		return l.Level()
	}
	if o, ok := seer.(Owned); ok {
		if owner := o.Owner(); owner != nil {
			return LevelForTarget(owner)
		}
	}
	return 1
}

// SightRange is how far seer sees target.
func SightRange(seer, target Entity) float64 {
	so := seer.Object()
	if v, ok := seer.(Viewer); ok {
		if target != nil {
			t := target.Object()
			_, targetIsViewer := target.(Viewer)
			if t.IsVisibilityOverridden() && !targetIsViewer {
				return t.visibilityOverride
			}
			if t.farVisible && !targetIsViewer {
				return MaxVisibilityDistance
			}
		}
		if v.IsOnCinematic() {
			return DefaultVisibilityInstance
		}
		if so.m != nil {
			return so.m.VisibilityRange()
		}
		return DefaultVisibilityDistance
	}
	if s, ok := seer.(Sighted); ok {
		return s.SightDistance()
	}
	if _, ok := seer.(Living); ok {
		return SightRangeUnit
	}
	if so.typeID == TypeDynamicObject && so.active && so.m != nil {
		return so.m.VisibilityRange()
	}
	return 0
}

func canNeverSee(seer, obj *WorldObject) bool {
	return seer.m != obj.m || !seer.InSamePhase(obj)
}

func canAlwaysSee(seer, obj Entity) bool {
	if v, ok := seer.(Viewer); ok {
		if vp := v.Viewpoint(); vp != nil && vp != seer && vp.Object() == obj.Object() {
			return true
		}
	}
	return false
}

// CanSeeOrDetect decides whether seer is shown obj.
func CanSeeOrDetect(seer, obj Entity, opts SeeOptions) bool {
	so, oo := seer.Object(), obj.Object()
	if so == oo {
		return true
	}

	if obj.IsNeverVisibleFor(seer, opts.ImplicitDetect) || canNeverSee(so, oo) {
		return false
	}
	if obj.IsAlwaysVisibleFor(seer) || canAlwaysSee(seer, obj) {
		return true
	}

	if !oo.checkPrivateObjectOwnerVisibility(seer) {
		return false
	}

	if sp := oo.smoothPhasing; sp != nil && sp.IsBeingReplacedForSeer(so.guid) {
		return false
	}

	if !oo.IsPrivateObject() && oo.m != nil && !oo.m.IsVisibleByConditions(obj, seer) {
		return false
	}

	corpseVisibility := false
	if opts.DistanceCheck {
		corpseCheck := false
		viewpoint := seer

		if v, ok := seer.(Viewer); ok {
			ghostBits := oo.ServerSideVisibility.Value(ServerSideGhost) & so.ServerSideVisibility.Value(ServerSideGhost)
			if v.IsGhost() && ghostBits&GhostVisibilityGhost == 0 {
				if corpse := v.Corpse(); corpse != nil {
					corpseCheck = true
					r := SightRange(seer, obj)
					if IsWithinDist(corpse, seer, r, false) && IsWithinDist(corpse, obj, r, false) {
						corpseVisibility = true
					}
				}
			}

			if target, ok := obj.(Living); ok {
				if vehicle := target.VehicleBase(); vehicle != nil && !v.HaveAtClient(vehicle) {
					return false
				}
			}

			if vp := v.Viewpoint(); vp != nil {
				viewpoint = vp
			}
		}

		if !corpseCheck && !IsWithinDist(viewpoint, obj, SightRange(seer, obj), false) {
			return false
		}
	}

	objGM := oo.ServerSideVisibility.Value(ServerSideGM)
	seerGM := so.ServerSideVisibilityDetect.Value(ServerSideGM)
	if objGM == 0 {
		if seerGM != 0 {
			return true
		}
	} else {
		return seerGM >= objGM
	}

	if !corpseVisibility && oo.ServerSideVisibility.Value(ServerSideGhost)&so.ServerSideVisibilityDetect.Value(ServerSideGhost) == 0 {
		sv, seerIsViewer := seer.(Viewer)
		ov, objIsViewer := obj.(Viewer)
		if !seerIsViewer || !objIsViewer || !sv.IsGroupVisibleFor(ov) {
			return false
		}
	}

	if obj.IsInvisibleDueToDespawn(seer) {
		return false
	}

	return CanDetect(seer, obj, opts.ImplicitDetect, opts.CheckAlert)
}

// CanDetect applies stealth and invisibility. Possessing units detect
// through their puppet; controlled units through their controller.
func CanDetect(seer, obj Entity, implicitDetect, checkAlert bool) bool {
	if c, ok := seer.(Controlled); ok {
		if p := c.Possessed(); p != nil {
			seer = p
		} else if ctrl := c.CharmerOrOwner(); ctrl != nil {
			seer = ctrl
		}
	}

	if obj.IsAlwaysDetectableFor(seer) {
		return true
	}
	if implicitDetect {
		return true
	}
	if !canDetectInvisibilityOf(seer, obj) {
		return false
	}
	return canDetectStealthOf(seer, obj, checkAlert)
}

func canDetectInvisibilityOf(seer, obj Entity) bool {
	so, oo := seer.Object(), obj.Object()

	mask := oo.Invisibility.Flags() & so.InvisibilityDetect.Flags()
	if mask != oo.Invisibility.Flags() {
		return false
	}
	for i := InvisibilityType(0); i < totalInvisibilityTypes; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		if so.InvisibilityDetect.Value(i) < oo.Invisibility.Value(i) {
			return false
		}
	}
	return true
}

func canDetectStealthOf(seer, obj Entity, checkAlert bool) bool {
	so, oo := seer.Object(), obj.Object()
	if oo.Stealth.Flags() == 0 {
		return true
	}

	distance := ExactDistance(seer, obj)
	combatReach := 0.0
	_, seerIsUnit := seer.(Living)
	if seerIsUnit {
		combatReach = CombatReach(seer)
	}

	if distance < combatReach {
		return true
	}
	if seerIsUnit && !so.pos.HasInArc(math.Pi, oo.pos) {
		return false
	}
	if t, ok := seer.(Trap); ok && t.IsTrap() {
		return true
	}

	var owner Entity
	if o, ok := obj.(Owned); ok && oo.typeID == TypeGameObject {
		owner = o.Owner()
	}
	_, seerIsViewer := seer.(Viewer)

	for i := StealthType(0); i < totalStealthTypes; i++ {
		if !oo.Stealth.HasFlag(i) {
			continue
		}

		detection := int32(30)
		detection += (int32(LevelForTarget(seer)) - 1) * 5
		detection += so.StealthDetect.Value(i)
		if owner != nil {
			detection -= (int32(LevelForTarget(owner)) - 1) * 5
		}
		detection -= oo.Stealth.Value(i)

		visibilityRange := float64(detection)*0.3 + combatReach
		if seerIsViewer && visibilityRange > MaxPlayerStealthDetectRange {
			visibilityRange = MaxPlayerStealthDetectRange
		}
		if checkAlert {
			visibilityRange += visibilityRange*0.08 + 1.5
		}
		if distance > visibilityRange {
			return false
		}
	}
	return true
}
