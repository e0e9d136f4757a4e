package gameobject

import (
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
)

// PerPlayerState is a temporary view of the object that differs for one
// player.
type PerPlayerState struct {
	ValidUntil time.Time
	State      GoState
	HasState   bool
	Despawned  bool

	viewer object.Entity
}

func (g *GameObject) perPlayerState(viewer object.Entity) *PerPlayerState {
	if g.perPlayer == nil {
		g.perPlayer = make(map[object.GUID]*PerPlayerState)
	}
	guid := viewer.Object().GUID()
	st, ok := g.perPlayer[guid]
	if !ok {
		st = &PerPlayerState{viewer: viewer}
		g.perPlayer[guid] = st
	}
	return st
}

// SetGoStateFor shows state to viewer alone for validFor.
func (g *GameObject) SetGoStateFor(state GoState, viewer object.Entity, validFor time.Duration) {
	st := g.perPlayerState(viewer)
	st.ValidUntil = g.host.Now().Add(validFor)
	st.State = state
	st.HasState = true
	sendTo(viewer, packet.OpcodeGameObjectSetStateLocal, packet.GameObjectSetStateLocal{GUID: g.GUID().String(), State: uint8(state)})
}

// GoStateFor returns the state the player sees.
func (g *GameObject) GoStateFor(viewer object.GUID) GoState {
	if st, ok := g.perPlayer[viewer]; ok && st.HasState {
		return st.State
	}
	return g.goState.Get()
}

// DespawnForPlayer hides g from seer until respawnIn has passed.
func (g *GameObject) DespawnForPlayer(seer object.Entity, respawnIn time.Duration) {
	st := g.perPlayerState(seer)
	st.ValidUntil = g.host.Now().Add(respawnIn)
	st.Despawned = true
}

// expirePerPlayerStates drops overrides that ran out and resends the shared
// state to players whose override differed from it.
func (g *GameObject) expirePerPlayerStates(now time.Time) {
	for guid, st := range g.perPlayer {
		if st.ValidUntil.After(now) {
			continue
		}
		delete(g.perPlayer, guid)
		if st.Despawned {
			continue
		}
		if st.HasState && st.State != g.goState.Get() {
			sendTo(st.viewer, packet.OpcodeGameObjectSetStateLocal, packet.GameObjectSetStateLocal{GUID: g.GUID().String(), State: uint8(g.goState.Get())})
		}
	}
	if len(g.perPlayer) == 0 {
		g.perPlayer = nil
	}
}
