package gameobject

import (
	"math/rand/v2"
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
)

// Behavior is the type specific part of the game object state machine. It
// is chosen once from the template type when the object is created.
type Behavior interface {
	Init(g *GameObject)
	// Arm runs while NotReady. It returns true to continue with the Ready
	// step in the same tick.
	Arm(g *GameObject, now time.Time) bool
	// Respawned runs when a self-managed respawn timer expires. It returns
	// false to end the tick.
	Respawned(g *GameObject) bool
	Ready(g *GameObject, now time.Time, diff time.Duration)
	Activated(g *GameObject, now time.Time, diff time.Duration)
	// Deactivated runs first in JustDeactivated. It returns true when the
	// object stays as it is.
	Deactivated(g *GameObject) bool
	Use(g *GameObject, user object.Entity) error
	StateChanged(g *GameObject, old, state LootState)
}

var behaviors = map[GoType]Behavior{
	TypeGeneric:              baseBehavior{},
	TypeTransport:            baseBehavior{},
	TypeDoor:                 doorBehavior{},
	TypeButton:               doorBehavior{button: true},
	TypeChest:                chestBehavior{},
	TypeTrap:                 trapBehavior{},
	TypeGoober:               gooberBehavior{},
	TypeFishingNode:          fishingNodeBehavior{},
	TypeFishingHole:          fishingHoleBehavior{},
	TypeRitual:               ritualBehavior{},
	TypeCapturePoint:         capturePointBehavior{},
	TypeDestructibleBuilding: destructibleBehavior{},
}

func behaviorFor(t GoType) Behavior {
	return behaviors[t]
}

// baseBehavior becomes Ready at once and does nothing else.
type baseBehavior struct{}

func (baseBehavior) Init(*GameObject) {}

func (baseBehavior) Arm(g *GameObject, _ time.Time) bool {
	g.lootState = LootReady
	return true
}

func (baseBehavior) Respawned(*GameObject) bool                      { return true }
func (baseBehavior) Ready(*GameObject, time.Time, time.Duration)     {}
func (baseBehavior) Activated(*GameObject, time.Time, time.Duration) {}
func (baseBehavior) Deactivated(*GameObject) bool                    { return false }
func (baseBehavior) Use(*GameObject, object.Entity) error            { return ErrNotUsable }
func (baseBehavior) StateChanged(*GameObject, LootState, LootState)  {}

type doorBehavior struct {
	baseBehavior
	button bool
}

func (doorBehavior) Respawned(g *GameObject) bool {
	if g.goState.Get() != StateReady {
		g.ResetDoorOrButton()
	}
	return true
}

func (doorBehavior) Activated(g *GameObject, now time.Time, _ time.Duration) {
	if !g.cooldownTime.IsZero() && !now.Before(g.cooldownTime) {
		g.ResetDoorOrButton()
	}
}

func (d doorBehavior) Use(g *GameObject, user object.Entity) error {
	if g.lootState != LootReady {
		return ErrNotUsable
	}
	g.UseDoorOrButton(0, false, user)
	if d.button {
		g.triggerLinkedTrap(user)
	}
	return nil
}

type chestBehavior struct {
	baseBehavior
}

func (chestBehavior) Arm(g *GameObject, now time.Time) bool {
	if g.restockTime.After(now) {
		return false
	}
	g.restockTime = time.Time{}
	g.lootState = LootReady
	g.ClearLoot()
	g.refreshDynamicFlags()
	return true
}

func (chestBehavior) Activated(g *GameObject, now time.Time, _ time.Duration) {
	c := g.tmpl.Chest
	// a partly looted chest restocks in full once its timer runs out
	if !c.Consumable && c.RestockSecs > 0 && !now.Before(g.restockTime) {
		g.restockTime = time.Time{}
		g.lootState = LootReady
		g.ClearLoot()
		g.refreshDynamicFlags()
	}
}

func (chestBehavior) StateChanged(g *GameObject, _, state LootState) {
	c := g.tmpl.Chest
	if state == LootActivated && c.RestockSecs > 0 && g.restockTime.IsZero() {
		g.restockTime = g.host.Now().Add(time.Duration(c.RestockSecs) * time.Second)
	}
}

func (chestBehavior) Use(g *GameObject, user object.Entity) error {
	if _, ok := user.(object.Viewer); !ok {
		return ErrNotUsable
	}
	if g.lootState != LootReady && g.lootState != LootActivated {
		return ErrNotUsable
	}
	g.triggerLinkedTrap(user)
	if g.lootState == LootReady {
		g.SetLootState(LootActivated, user)
	}
	g.sendLoot(user)
	return nil
}

type trapBehavior struct {
	baseBehavior
}

func (trapBehavior) Arm(g *GameObject, now time.Time) bool {
	t := g.tmpl.Trap
	if t.Charges == 2 {
		g.cooldownTime = now.Add(10 * time.Second)
	} else if g.owner != nil && g.services().IsInCombat(g.owner) {
		g.cooldownTime = now.Add(time.Duration(t.StartDelaySecs) * time.Second)
	}
	g.SetLootState(LootReady, nil)
	return true
}

func (trapBehavior) Ready(g *GameObject, now time.Time, _ time.Duration) {
	t := g.tmpl.Trap
	if now.Before(g.cooldownTime) {
		return
	}

	// bombs go off without a target
	if t.Charges == 2 {
		g.SetLootState(LootActivated, nil)
		return
	}

	radius := t.Radius / 2
	if t.Radius == 0 {
		if t.CooldownSecs != 3 {
			return
		}
		radius = 3
	}

	if target := g.trapTarget(radius); target != nil {
		g.SetLootState(LootActivated, target)
	}
}

// trapTarget picks the nearest unit the trap may fire on. Owned traps and
// traps checking all units fire on anything hostile to the owner; the rest
// fire on players only.
func (g *GameObject) trapTarget(radius float64) object.Entity {
	var best object.Living
	bestDist := radius + 1
	anyUnit := g.owner != nil || g.tmpl.Trap.CheckAllUnits
	for _, u := range g.host.UnitsInRange(g, radius) {
		if !u.IsAlive() || !u.Object().IsInWorld() {
			continue
		}
		if anyUnit {
			if g.owner != nil {
				if u.Object() == g.owner.Object() {
					continue
				}
				if l, ok := g.owner.(object.Living); ok && l.IsFriendlyTo(u) {
					continue
				}
			}
		} else if _, ok := u.(object.Viewer); !ok {
			continue
		}
		if d := object.ExactDistance(g, u); d < bestDist {
			best, bestDist = u, d
		}
	}
	if best == nil {
		return nil
	}
	return best
}

func (trapBehavior) Activated(g *GameObject, now time.Time, _ time.Duration) {
	t := g.tmpl.Trap
	if t.Charges == 2 {
		if t.SpellID != 0 {
			g.services().CastSpell(g, nil, t.SpellID)
		}
		g.SetLootState(LootJustDeactivated, nil)
		return
	}

	target := g.lootStateUnit
	if target == nil {
		return
	}
	g.fireTrap(now, target)
}

func (g *GameObject) fireTrap(now time.Time, target object.Entity) {
	t := g.tmpl.Trap
	if t.SpellID != 0 {
		g.services().CastSpell(g, target, t.SpellID)
	}

	cooldown := time.Duration(t.CooldownSecs) * time.Second
	if cooldown == 0 {
		cooldown = 4 * time.Second
	}
	g.cooldownTime = now.Add(cooldown)

	switch t.Charges {
	case 1:
		g.SetLootState(LootJustDeactivated, nil)
	case 0:
		g.SetLootState(LootReady, nil)
	}
}

func (trapBehavior) Use(g *GameObject, user object.Entity) error {
	t := g.tmpl.Trap
	now := g.host.Now()
	if t.SpellID != 0 {
		g.services().CastSpell(g, user, t.SpellID)
	}
	cooldown := time.Duration(t.CooldownSecs) * time.Second
	if cooldown == 0 {
		cooldown = 4 * time.Second
	}
	g.cooldownTime = now.Add(cooldown)
	if t.Charges == 1 {
		g.SetLootState(LootJustDeactivated, nil)
	}
	return nil
}

type gooberBehavior struct {
	baseBehavior
}

func (gooberBehavior) Activated(g *GameObject, now time.Time, _ time.Duration) {
	if !now.Before(g.cooldownTime) {
		g.flags.Remove(FlagInUse)
		g.SetLootState(LootJustDeactivated, nil)
		g.cooldownTime = time.Time{}
	}
}

func (gooberBehavior) Deactivated(g *GameObject) bool {
	info := g.tmpl.Goober
	if info.SpellID != 0 {
		for _, u := range g.uniqueUsers {
			g.services().CastSpell(u, u, info.SpellID)
		}
		g.uniqueUsers = nil
		g.useCount = 0
	}

	if g.tmpl.AutoClose() > 0 {
		g.SetGoState(StateReady)
	}

	return g.tmpl.Flags&FlagNoDespawn != 0
}

func (gooberBehavior) Use(g *GameObject, user object.Entity) error {
	if g.lootState != LootReady {
		return ErrNotUsable
	}
	info := g.tmpl.Goober

	g.addUniqueUse(user)
	if info.EventID != 0 {
		g.services().TriggerEvent(info.EventID, user, g)
	}
	g.triggerLinkedTrap(user)

	if d := g.tmpl.AutoClose(); d > 0 {
		g.flags.Add(FlagInUse)
		g.SetLootState(LootActivated, user)
		g.SetGoState(StateActive)
		g.cooldownTime = g.host.Now().Add(d)
		return nil
	}
	g.SetLootState(LootJustDeactivated, user)
	return nil
}

type fishingNodeBehavior struct {
	baseBehavior
}

func (fishingNodeBehavior) Arm(g *GameObject, now time.Time) bool {
	if !g.respawnTime.IsZero() && now.After(g.respawnTime.Add(-fishingBobberReady)) {
		if _, ok := g.owner.(object.Viewer); ok {
			g.SendCustomAnim(0)
		}
		g.lootState = LootReady
	}
	return false
}

func (fishingNodeBehavior) Respawned(g *GameObject) bool {
	if owner, ok := g.owner.(object.Viewer); ok {
		sendTo(owner, packet.OpcodeFishEscaped, packet.FishResult{GUID: g.GUID().String()})
	}
	g.lootState = LootJustDeactivated
	return false
}

func (fishingNodeBehavior) Use(g *GameObject, user object.Entity) error {
	if _, ok := user.(object.Viewer); !ok || g.owner == nil || user.Object() != g.owner.Object() {
		return ErrNotUsable
	}

	switch g.lootState {
	case LootReady:
		if !g.services().RollFishing(user, g) {
			sendTo(user, packet.OpcodeFishEscaped, packet.FishResult{GUID: g.GUID().String()})
			g.SetLootState(LootJustDeactivated, nil)
			return nil
		}
		if hole := g.fishingHoleAround(object.DefaultVisibilityDistance); hole != nil {
			if err := hole.Use(user); err != nil {
				return err
			}
			g.SetLootState(LootJustDeactivated, nil)
			return nil
		}
		g.SetLootState(LootActivated, user)
		g.sendLoot(user)
	case LootJustDeactivated:
	default:
		g.SetLootState(LootJustDeactivated, nil)
		sendTo(user, packet.OpcodeFishNotHooked, packet.FishResult{GUID: g.GUID().String()})
	}
	return nil
}

// fishingHoleAround finds the nearest spawned fishing hole whose pool
// covers g.
func (g *GameObject) fishingHoleAround(rng float64) *GameObject {
	var best *GameObject
	bestDist := rng
	for _, o := range g.host.GameObjectsInRange(g, rng) {
		if o.tmpl.Type != TypeFishingHole || !o.IsSpawned() || o.removed {
			continue
		}
		d := object.ExactDistance(g, o)
		if d > o.tmpl.FishingHole.Radius || d > bestDist {
			continue
		}
		best, bestDist = o, d
	}
	return best
}

type fishingHoleBehavior struct {
	baseBehavior
}

func (fishingHoleBehavior) Init(g *GameObject) {
	g.maxOpens = rollRestock(g.tmpl.FishingHole)
}

func (fishingHoleBehavior) Respawned(g *GameObject) bool {
	g.maxOpens = rollRestock(g.tmpl.FishingHole)
	return true
}

func (fishingHoleBehavior) Use(g *GameObject, user object.Entity) error {
	if _, ok := user.(object.Viewer); !ok || g.lootState != LootReady {
		return ErrNotUsable
	}
	g.sendLoot(user)
	return nil
}

func rollRestock(d *FishingHoleData) uint32 {
	if d.MaxRestock <= d.MinRestock {
		return d.MinRestock
	}
	return d.MinRestock + rand.Uint32N(d.MaxRestock-d.MinRestock+1)
}

type ritualBehavior struct {
	baseBehavior
}

func (ritualBehavior) Use(g *GameObject, user object.Entity) error {
	player, ok := user.(object.Viewer)
	if !ok {
		return ErrNotUsable
	}
	info := g.tmpl.Ritual

	if g.ritualOwner == nil && g.owner == nil {
		g.ritualOwner = user
	}

	var caster object.Entity
	if owner := g.owner; owner != nil {
		if _, ok := owner.(object.Viewer); !ok {
			return ErrNotUsable
		}
		// only raid members of the summoner may join, not the summoner
		if owner.Object() == user.Object() || !player.IsInGroup(owner.Object().GUID()) {
			return ErrNotUsable
		}
		if !g.services().IsChanneling(owner) {
			return ErrNotUsable
		}
		caster = owner
	} else {
		ritualOwner := g.ritualOwner
		if user.Object() != ritualOwner.Object() && info.CastersGrouped && !player.IsInGroup(ritualOwner.Object().GUID()) {
			return ErrNotUsable
		}
		caster = user
	}

	g.addUniqueUse(user)
	if info.AnimSpell != 0 {
		g.services().CastSpell(user, user, info.AnimSpell)
	}

	if uint32(g.UniqueUseCount()) < info.Casters {
		return nil
	}

	if g.ritualOwner != nil {
		caster = g.ritualOwner
	}

	if info.Persistent {
		g.ritualOwner = nil
		g.uniqueUsers = nil
		g.useCount = 0
	} else {
		g.SetLootState(LootJustDeactivated, nil)
	}

	if info.SpellID != 0 {
		g.services().CastSpell(caster, user, info.SpellID)
	}
	return nil
}
