package gameobject

import (
	"errors"
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/script"
)

var (
	ErrUnknownTemplate = errors.New("unknown game object template")
	ErrUnknownType     = errors.New("unknown game object type")
	ErrNotUsable       = errors.New("game object cannot be used now")
)

// Host is the map a game object lives on.
type Host interface {
	object.MapRef

	// Now is the current game time.
	Now() time.Time
	Scripts() *script.Registry
	Services() Services

	// RespawnTime returns the pending respawn of a spawn, or the zero time.
	RespawnTime(spawnID uint64) time.Time
	SaveRespawnTime(spawnID uint64, entry uint32, at time.Time)
	RemoveRespawnTime(spawnID uint64)
	// ScaleRespawnDelay applies the dynamic respawn policy to delay.
	ScaleRespawnDelay(g *GameObject, delay time.Duration) time.Duration

	// Remove schedules g for removal from the map at the end of the tick.
	Remove(g *GameObject)
	// Summon places a new runtime object on the map.
	Summon(t *Template, pos object.Position, owner object.Entity) (*GameObject, error)

	// SendToSet sends p to every player that currently sees g.
	SendToSet(g *GameObject, p packet.Packet)
	SendToAll(p packet.Packet)
	SetWorldStateValue(id, value int32, hidden bool)

	// UnitsInRange returns the units within radius of g.
	UnitsInRange(g *GameObject, radius float64) []object.Living
	GameObjectsInRange(center object.Entity, radius float64) []*GameObject
}

// Services are the combat and event systems a game object calls into.
type Services interface {
	CastSpell(caster, target object.Entity, spellID uint32)
	TriggerEvent(eventID uint32, source, target object.Entity)
	IsInCombat(u object.Entity) bool
	IsChanneling(u object.Entity) bool
	// RollFishing decides whether a cast on g catches something.
	RollFishing(player object.Entity, g *GameObject) bool
}

// LootStateListener is notified of every loot state change.
type LootStateListener interface {
	OnLootStateChanged(g *GameObject, state LootState, unit object.Entity)
}

// GoStateListener is notified when the replicated state changes.
type GoStateListener interface {
	OnGoStateChanged(g *GameObject, state GoState)
}

// DestructibleListener is notified of destructible building transitions.
type DestructibleListener interface {
	OnDestructibleStateChanged(g *GameObject, state DestructibleState, by object.Entity)
}

// UseListener may take over a use. Returning true skips the default handling.
type UseListener interface {
	OnGameObjectUse(g *GameObject, user object.Entity) bool
}

// CapturePointListener may take over capture point handling.
type CapturePointListener interface {
	OnCapturePointAssaulted(g *GameObject, player object.Entity) bool
	OnCapturePointUpdated(g *GameObject, state CapturePointState) bool
}

// EventListener receives the spells and events fired by game objects when
// the map has no combat system attached.
type EventListener interface {
	OnSpellCast(caster, target object.Entity, spellID uint32)
	OnEvent(eventID uint32, source, target object.Entity)
}
