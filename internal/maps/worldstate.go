package maps

import (
	"log/slog"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/unit"
)

// WorldStateValue returns a map-scoped world state.
func (m *Map) WorldStateValue(id int32) int32 {
	m.wsMu.RLock()
	defer m.wsMu.RUnlock()
	return m.wsValues[id]
}

// WorldStateValues returns a copy of every map-scoped world state.
func (m *Map) WorldStateValues() map[int32]int32 {
	m.wsMu.RLock()
	defer m.wsMu.RUnlock()
	out := make(map[int32]int32, len(m.wsValues))
	for id, v := range m.wsValues {
		out[id] = v
	}
	return out
}

// SetWorldStateValue changes a map-scoped world state, runs its script
// hooks and sends the change to the players on the map inside the state's
// areas. Unchanged values are ignored.
func (m *Map) SetWorldStateValue(id, value int32, hidden bool) {
	m.wsMu.Lock()
	old := m.wsValues[id]
	if old == value {
		m.wsMu.Unlock()
		return
	}
	m.wsValues[id] = value
	m.wsMu.Unlock()

	if m.states != nil {
		m.states.MapValueChanged(id, old, value, m)
	}

	p, err := packet.Encode(packet.OpcodeUpdateWorldState, packet.UpdateWorldState{ID: id, Value: value, Hidden: hidden})
	if err != nil {
		slog.Error("encoding world state update", "map", m.id, "world_state", id, "error", err)
		return
	}
	for _, pl := range m.Players() {
		if m.states != nil {
			if t := m.states.Template(id); t != nil && !t.InArea(pl.AreaID()) {
				continue
			}
		}
		pl.SendPacket(p)
	}
}

func (m *Map) sendInitWorldStates(p *unit.Player) {
	msg := packet.InitWorldStates{MapID: m.id, AreaID: p.AreaID()}
	if m.states != nil {
		msg.States = m.states.FillInitialWorldStates(m.id, p.AreaID(), m)
	}
	pk, err := packet.Encode(packet.OpcodeInitWorldStates, msg)
	if err != nil {
		slog.Error("encoding initial world states", "map", m.id, "guid", p.GUID(), "error", err)
		return
	}
	p.SendPacket(pk)
}
