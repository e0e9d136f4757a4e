package gameobject

import (
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
)

type building struct {
	health    uint32
	maxHealth uint32
	state     DestructibleState
}

func (g *GameObject) Health() uint32                       { return g.building.health }
func (g *GameObject) MaxHealth() uint32                    { return g.building.maxHealth }
func (g *GameObject) DestructibleState() DestructibleState { return g.building.state }

// ModifyHealth applies damage (negative change) or repairs to a building.
// Health stays within [0, MaxHealth] and the phase follows it.
func (g *GameObject) ModifyHealth(change int32, by object.Entity, spellID uint32) {
	b := &g.building
	if b.maxHealth == 0 || change == 0 {
		return
	}
	// already destroyed
	if change < 0 && b.health == 0 {
		return
	}

	switch next := int64(b.health) + int64(change); {
	case next <= 0:
		b.health = 0
	case next >= int64(b.maxHealth):
		b.health = b.maxHealth
	default:
		b.health = uint32(next)
	}
	g.animProgress.Set(uint8(uint64(b.health) * 255 / uint64(b.maxHealth)))

	if by != nil && change < 0 {
		sendTo(attackingPlayer(by), packet.OpcodeDestructibleBuildingDamage, packet.DestructibleBuildingDamage{
			Target:  g.GUID().String(),
			Caster:  by.Object().GUID().String(),
			Damage:  -change,
			SpellID: spellID,
		})
	}
	if change < 0 && g.tmpl.Destructible.DamageEvent != 0 {
		g.services().TriggerEvent(g.tmpl.Destructible.DamageEvent, by, g)
	}

	state := b.state
	switch {
	case b.health == 0:
		state = DestructibleDestroyed
	case b.health <= g.tmpl.Destructible.DamagedNumHits:
		state = DestructibleDamaged
	case b.health == b.maxHealth:
		state = DestructibleIntact
	}
	if state == b.state {
		return
	}
	g.SetDestructibleState(state, by, false)
}

// attackingPlayer resolves the player behind an attacker, which may be a
// vehicle or pet it controls.
func attackingPlayer(by object.Entity) object.Entity {
	if _, ok := by.(object.Viewer); ok {
		return by
	}
	if c, ok := by.(object.Controlled); ok {
		if owner := c.CharmerOrOwner(); owner != nil {
			if _, ok := owner.(object.Viewer); ok {
				return owner
			}
		}
	}
	return by
}

// SetDestructibleState moves a building to state. With setHealth the health
// is reset to the level the state implies.
func (g *GameObject) SetDestructibleState(state DestructibleState, by object.Entity, setHealth bool) {
	info := g.tmpl.Destructible
	b := &g.building
	b.state = state

	switch state {
	case DestructibleIntact:
		g.flags.Remove(FlagDamaged | FlagDestroyed)
		g.displayID.Set(g.tmpl.DisplayID)
		if setHealth {
			b.health = b.maxHealth
			g.animProgress.Set(255)
		}
		g.collision = true
	case DestructibleDamaged:
		if info.DamagedEvent != 0 {
			g.services().TriggerEvent(info.DamagedEvent, by, g)
		}
		g.flags.Remove(FlagDestroyed)
		g.flags.Add(FlagDamaged)
		display := g.tmpl.DisplayID
		if info.DamagedDisplayID != 0 {
			display = info.DamagedDisplayID
		}
		g.displayID.Set(display)
		if setHealth {
			b.health = min(info.DamagedNumHits, b.maxHealth)
			g.animProgress.Set(uint8(uint64(b.health) * 255 / uint64(max(b.maxHealth, 1))))
		}
	case DestructibleDestroyed:
		if info.DestroyedEvent != 0 {
			g.services().TriggerEvent(info.DestroyedEvent, by, g)
		}
		g.flags.Remove(FlagDamaged)
		g.flags.Add(FlagDestroyed)
		display := g.tmpl.DisplayID
		switch {
		case info.DestroyedDisplayID != 0:
			display = info.DestroyedDisplayID
		case info.DamagedDisplayID != 0:
			display = info.DamagedDisplayID
		}
		g.displayID.Set(display)
		if setHealth {
			b.health = 0
			g.animProgress.Set(0)
		}
		g.collision = false
	case DestructibleRebuilding:
		if info.RebuildingEvent != 0 {
			g.services().TriggerEvent(info.RebuildingEvent, by, g)
		}
		g.flags.Remove(FlagDamaged | FlagDestroyed)
		display := g.tmpl.DisplayID
		if info.RebuildingDisplayID != 0 {
			display = info.RebuildingDisplayID
		}
		g.displayID.Set(display)
		if setHealth {
			b.health = b.maxHealth
			g.animProgress.Set(255)
		}
		g.collision = true
	}

	notify(g, func(h DestructibleListener) { h.OnDestructibleStateChanged(g, state, by) })
}

// Rebuild restores a building to full health.
func (g *GameObject) Rebuild(by object.Entity) {
	g.SetDestructibleState(DestructibleRebuilding, by, true)
}

type destructibleBehavior struct {
	baseBehavior
}

func (destructibleBehavior) Init(g *GameObject) {
	info := g.tmpl.Destructible
	g.building.maxHealth = info.IntactNumHits + info.DamagedNumHits
	g.building.health = g.building.maxHealth
	g.building.state = DestructibleIntact
	g.animProgress.Set(255)
}

func (destructibleBehavior) Ready(g *GameObject, _ time.Time, _ time.Duration) {
	if g.building.state == DestructibleRebuilding {
		g.SetDestructibleState(DestructibleIntact, nil, false)
	}
}
