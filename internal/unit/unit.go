package unit

import (
	"github.com/pixil98/go-worldserver/internal/object"
)

// Team is the faction side of a unit.
type Team uint8

const (
	TeamNeutral Team = iota
	TeamAlliance
	TeamHorde
)

// Other returns the opposing side.
func (t Team) Other() Team {
	switch t {
	case TeamAlliance:
		return TeamHorde
	case TeamHorde:
		return TeamAlliance
	}
	return TeamNeutral
}

const DefaultCombatReach = 1.5

// Unit is a living entity.
type Unit struct {
	object.WorldObject

	health    *object.Field[int32]
	maxHealth *object.Field[int32]
	level     *object.Field[uint8]
	power     *object.Field[int32]
	flags     object.Flags[uint32]

	team        Team
	combatReach float64

	owner     object.Entity
	charmer   object.Entity
	possessed object.Entity
	vehicle   object.Entity
}

// InitUnit prepares u as the base of self.
func (u *Unit) InitUnit(self object.Entity, guid object.GUID, typeID object.TypeID) {
	u.Init(self, guid, typeID)
	v := u.Values()
	u.health = object.NewField(v, "health", object.FlagPublic, int32(1))
	u.maxHealth = object.NewField(v, "max_health", object.FlagPublic, int32(1))
	u.level = object.NewField(v, "level", object.FlagPublic, uint8(1))
	u.power = object.NewField(v, "power", object.FlagOwner|object.FlagParty, int32(0))
	u.flags = object.NewFlags(v, "unit_flags", object.FlagPublic, uint32(0))
	u.combatReach = DefaultCombatReach
}

func (u *Unit) Level() uint8                { return u.level.Get() }
func (u *Unit) SetLevel(l uint8)            { u.level.Set(l) }
func (u *Unit) Health() int32               { return u.health.Get() }
func (u *Unit) MaxHealth() int32            { return u.maxHealth.Get() }
func (u *Unit) IsAlive() bool               { return u.health.Get() > 0 }
func (u *Unit) CombatReach() float64        { return u.combatReach }
func (u *Unit) SetCombatReach(r float64)    { u.combatReach = r }
func (u *Unit) Team() Team                  { return u.team }
func (u *Unit) SetTeam(t Team)              { u.team = t }
func (u *Unit) VehicleBase() object.Entity  { return u.vehicle }
func (u *Unit) Possessed() object.Entity    { return u.possessed }
func (u *Unit) Owner() object.Entity        { return u.owner }
func (u *Unit) Flags() object.Flags[uint32] { return u.flags }
func (u *Unit) SetPower(p int32)            { u.power.Set(p) }

// SetHealth clamps h to [0, max].
func (u *Unit) SetHealth(h int32) {
	h = max(0, min(h, u.maxHealth.Get()))
	u.health.Set(h)
}

func (u *Unit) SetMaxHealth(m int32) {
	u.maxHealth.Set(m)
	if u.health.Get() > m {
		u.health.Set(m)
	}
}

// CharmerOrOwner is the mind controlling this unit, if any.
func (u *Unit) CharmerOrOwner() object.Entity {
	if u.charmer != nil {
		return u.charmer
	}
	return u.owner
}

func (u *Unit) SetOwner(o object.Entity)   { u.owner = o }
func (u *Unit) SetVehicle(v object.Entity) { u.vehicle = v }

// Charm makes target controlled by u; possess additionally moves u's
// detection into target.
func (u *Unit) Charm(target *Unit, possess bool) {
	target.charmer = u.Self()
	if possess {
		u.possessed = target.Self()
	}
}

// RemoveCharm releases target.
func (u *Unit) RemoveCharm(target *Unit) {
	target.charmer = nil
	if u.possessed != nil && u.possessed.Object() == target.Object() {
		u.possessed = nil
	}
}

// IsFriendlyTo compares teams; neutral units are friendly to nobody but
// themselves.
func (u *Unit) IsFriendlyTo(other object.Entity) bool {
	if other == nil {
		return false
	}
	if other.Object() == u.Object() {
		return true
	}
	t, ok := other.(interface{ Team() Team })
	if !ok {
		return false
	}
	return u.team != TeamNeutral && u.team == t.Team()
}

// FieldFlagsFor grants owner fields to the unit's owner.
func (u *Unit) FieldFlagsFor(viewer object.Entity) object.FieldFlag {
	if viewer != nil && u.owner != nil && u.owner.Object() == viewer.Object() {
		return object.FlagOwner
	}
	return object.FlagPublic
}

// Creature is a server-controlled unit.
type Creature struct {
	Unit
	sightDistance float64
}

func NewCreature(guid object.GUID) *Creature {
	c := &Creature{sightDistance: object.SightRangeUnit}
	c.InitUnit(c, guid, object.TypeUnit)
	return c
}

func (c *Creature) SightDistance() float64     { return c.sightDistance }
func (c *Creature) SetSightDistance(d float64) { c.sightDistance = d }
