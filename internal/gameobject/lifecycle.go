package gameobject

import (
	"log/slog"
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
)

// fishingBobberReady is how long before expiry a bobber can be used.
const fishingBobberReady = 5 * time.Second

// Update advances the object by diff.
func (g *GameObject) Update(diff time.Duration) {
	if g.removed {
		return
	}
	now := g.host.Now()

	if g.despawnDelay > 0 {
		if g.despawnDelay > diff {
			g.despawnDelay -= diff
		} else {
			g.despawnDelay = 0
			g.DespawnOrUnsummon(0, g.despawnRespawn)
			return
		}
	}

	g.expirePerPlayerStates(now)

	switch g.lootState {
	case LootNotReady:
		if !g.behavior.Arm(g, now) {
			return
		}
		fallthrough
	case LootReady:
		g.updateReady(now, diff)
	case LootActivated:
		g.behavior.Activated(g, now, diff)
	case LootJustDeactivated:
		g.updateDeactivated(now)
	}
}

// ownsRespawnTimer reports whether g watches its own respawn time. Spawns
// outside compatibility mode are respawned by the map instead.
func (g *GameObject) ownsRespawnTimer() bool {
	return g.compatMode || g.spawnID == 0
}

func (g *GameObject) updateReady(now time.Time, diff time.Duration) {
	if g.ownsRespawnTimer() && !g.respawnTime.IsZero() && !g.respawnTime.After(now) {
		g.respawnTime = time.Time{}
		g.useCount = 0
		if g.spawnID != 0 {
			g.host.RemoveRespawnTime(g.spawnID)
		}

		if !g.behavior.Respawned(g) {
			return
		}

		if !g.spawnedByDefault {
			g.SetLootState(LootJustDeactivated, nil)
			return
		}
		slog.Debug("game object respawned", "guid", g.GUID(), "spawn_id", g.spawnID)
	}

	if !g.ownsRespawnTimer() && !g.respawnTime.IsZero() {
		g.SaveRespawnTime(0)
	}

	if g.IsSpawned() {
		g.behavior.Ready(g, now, diff)
	}
}

func (g *GameObject) updateDeactivated(now time.Time) {
	if g.linkedTrap != nil {
		g.linkedTrap.DespawnOrUnsummon(0, 0)
		g.linkedTrap = nil
	}

	if g.behavior.Deactivated(g) {
		return
	}

	g.ClearLoot()

	// chests and goobers that are not consumed stay, unless they were
	// summoned and have run out of time
	summonedAndExpired := (g.owner != nil || g.spellID != 0) && g.respawnTime.IsZero()
	t := g.tmpl
	if (t.Type == TypeChest || t.Type == TypeGoober) && !t.IsDespawnAtAction() && !summonedAndExpired {
		if t.Type == TypeChest && t.Chest.RestockSecs > 0 {
			g.restockTime = now.Add(time.Duration(t.Chest.RestockSecs) * time.Second)
			g.SetLootState(LootNotReady, nil)
			g.refreshDynamicFlags()
		} else {
			g.SetLootState(LootReady, nil)
		}
		return
	}

	if g.owner != nil || g.spellID != 0 {
		g.SetRespawnTime(0)
		g.Delete()
		return
	}

	g.SetLootState(LootNotReady, nil)

	if t.IsDespawnAtAction() || g.animProgress.Get() > 0 {
		g.sendDespawn()
		g.flags.Set(t.Flags)
	}

	if g.respawnDelay == 0 {
		return
	}

	if !g.spawnedByDefault {
		g.respawnTime = time.Time{}
		if g.spawnID == 0 {
			g.Delete()
		}
		return
	}

	delay := g.host.ScaleRespawnDelay(g, g.respawnDelay)
	g.respawnTime = now.Add(delay)
	g.SaveRespawnTime(0)

	if !g.compatMode {
		g.removed = true
		g.host.Remove(g)
	}
}

// SetRespawnTime arms the respawn timer d from now. Zero clears it.
func (g *GameObject) SetRespawnTime(d time.Duration) {
	if d > 0 {
		g.respawnTime = g.host.Now().Add(d)
		g.respawnDelay = d
		return
	}
	g.respawnTime = time.Time{}
	g.respawnDelay = 0
}

// Respawn cuts a pending respawn short.
func (g *GameObject) Respawn() {
	if !g.spawnedByDefault || g.respawnTime.IsZero() {
		return
	}
	now := g.host.Now()
	g.respawnTime = now
	if g.spawnID != 0 {
		g.host.SaveRespawnTime(g.spawnID, g.Entry(), now)
	}
}

// SaveRespawnTime records the pending respawn with the map so it survives
// a restart. A non-zero forceDelay overrides the computed time.
func (g *GameObject) SaveRespawnTime(forceDelay time.Duration) {
	if g.spawnID == 0 || !g.spawnedByDefault {
		return
	}
	now := g.host.Now()
	if forceDelay == 0 && !g.respawnTime.After(now) {
		return
	}
	at := g.respawnTime
	if forceDelay > 0 {
		at = now.Add(forceDelay)
	}
	g.host.SaveRespawnTime(g.spawnID, g.Entry(), at)
}

// DespawnOrUnsummon removes the object after delay. A spawned object gets a
// respawn time of forceRespawn, or its normal delay when that is zero.
func (g *GameObject) DespawnOrUnsummon(delay, forceRespawn time.Duration) {
	if delay > 0 {
		if g.despawnDelay == 0 || g.despawnDelay > delay {
			g.despawnDelay = delay
			g.despawnRespawn = forceRespawn
		}
		return
	}

	if g.spawnID != 0 {
		d := forceRespawn
		if d == 0 {
			d = g.respawnDelay
		}
		g.SaveRespawnTime(d)
	}
	g.Delete()
}

// Delete tells nearby players the object is gone and removes it from the
// map.
func (g *GameObject) Delete() {
	if g.removed {
		return
	}
	g.SetLootState(LootNotReady, nil)
	g.sendDespawn()
	g.SetGoState(StateReady)
	g.flags.Set(g.tmpl.Flags)
	g.removed = true
	g.host.Remove(g)
}

// Use runs the interaction of user with g.
func (g *GameObject) Use(user object.Entity) error {
	if g.removed || !g.IsInWorld() || !g.IsSpawned() {
		return ErrNotUsable
	}
	if handledByScript(g, func(h UseListener) bool { return h.OnGameObjectUse(g, user) }) {
		return nil
	}
	return g.behavior.Use(g, user)
}

// UseDoorOrButton opens or closes a door or button for restore, or the
// template's auto close time when restore is zero.
func (g *GameObject) UseDoorOrButton(restore time.Duration, alternative bool, user object.Entity) {
	if g.lootState != LootReady {
		return
	}
	if restore == 0 {
		restore = g.tmpl.AutoClose()
	}

	g.switchDoorOrButton(true, alternative)
	g.SetLootState(LootActivated, user)

	if restore > 0 {
		g.cooldownTime = g.host.Now().Add(restore)
	} else {
		g.cooldownTime = time.Time{}
	}
}

// ResetDoorOrButton returns a used door or button to its original state.
func (g *GameObject) ResetDoorOrButton() {
	if g.lootState == LootReady || g.lootState == LootJustDeactivated {
		return
	}
	g.flags.Remove(FlagInUse)
	g.SetGoState(g.prevGoState)
	g.SetLootState(LootJustDeactivated, nil)
	g.cooldownTime = time.Time{}
}

func (g *GameObject) switchDoorOrButton(activate, alternative bool) {
	if activate {
		g.flags.Add(FlagInUse)
	} else {
		g.flags.Remove(FlagInUse)
	}

	if g.goState.Get() == StateReady {
		if alternative {
			g.SetGoState(StateDestroyed)
		} else {
			g.SetGoState(StateActive)
		}
		return
	}
	g.SetGoState(StateReady)
}

func (g *GameObject) triggerLinkedTrap(target object.Entity) {
	trap := g.linkedTrap
	if trap == nil || trap.removed || trap.tmpl.Trap.SpellID == 0 {
		return
	}
	g.services().CastSpell(trap, target, trap.tmpl.Trap.SpellID)
}
