package maps

import (
	"context"
	"log/slog"
	"slices"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/unit"
)

// outbox collects the update blocks for one player until the end of the
// tick. fresh holds the objects created for the player in this batch. Create
// blocks are only built by updateVisibility, after every change of the tick,
// so they already carry the values flushValues would send.
type outbox struct {
	data  *object.UpdateData
	fresh map[object.GUID]struct{}
}

func (m *Map) outboxFor(p *unit.Player) *outbox {
	guid := p.GUID()
	box, ok := m.outboxes[guid]
	if !ok {
		box = &outbox{
			data:  object.NewUpdateData(m.id),
			fresh: make(map[object.GUID]struct{}),
		}
		m.outboxes[guid] = box
	}
	return box
}

// updateVisibility creates every entity a player has come to see and
// destroys every entity it no longer sees.
func (m *Map) updateVisibility() {
	for _, p := range m.Players() {
		m.grid.relocate(p)
		m.updatePlayerVisibility(p)
	}
}

func (m *Map) updatePlayerVisibility(p *unit.Player) {
	view := p.ClientView()
	box := m.outboxFor(p)
	self := p.GUID()
	if view.Create(p, p, box.data) {
		box.fresh[self] = struct{}{}
	}

	seen := make(map[object.GUID]struct{})
	for _, e := range m.visibilityCandidates(p) {
		guid := e.Object().GUID()
		if guid == self || !e.Object().IsInWorld() {
			continue
		}
		if !object.CanSeeOrDetect(p, e, object.SeeOptions{DistanceCheck: true}) {
			continue
		}
		seen[guid] = struct{}{}
		if view.Create(e, p, box.data) {
			box.fresh[guid] = struct{}{}
		}
	}

	known := view.Known()
	slices.SortFunc(known, func(a, b object.Entity) int {
		return compareGUID(a.Object().GUID(), b.Object().GUID())
	})
	for _, e := range known {
		guid := e.Object().GUID()
		if guid == self {
			continue
		}
		if _, ok := seen[guid]; !ok {
			view.Destroy(guid, box.data)
		}
	}
}

// visibilityCandidates returns the entities near the player, its viewpoint
// and its corpse, plus those replicated at any range.
func (m *Map) visibilityCandidates(p *unit.Player) []object.Entity {
	r := m.cfg.VisibilityRange
	out := m.grid.nearby(p.Position(), r)
	if vp := p.Viewpoint(); vp != nil {
		out = append(out, m.grid.nearby(vp.Object().Position(), r)...)
	}
	if c := p.Corpse(); c != nil {
		out = append(out, m.grid.nearby(c.Object().Position(), r)...)
	}
	for _, e := range m.wide {
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b object.Entity) int {
		return compareGUID(a.Object().GUID(), b.Object().GUID())
	})
	return slices.CompactFunc(out, func(a, b object.Entity) bool {
		return a.Object().GUID() == b.Object().GUID()
	})
}

// flushValues adds the changed fields of every dirty entity to the players
// whose clients hold it, then clears the dirty masks.
func (m *Map) flushValues() {
	dirty := m.dirty
	m.dirty = nil

	players := m.Players()
	for _, e := range dirty {
		guid := e.Object().GUID()
		if _, ok := m.dirtySet[guid]; !ok {
			continue
		}
		for _, p := range players {
			box := m.outboxFor(p)
			if _, fresh := box.fresh[guid]; fresh {
				continue
			}
			p.ClientView().Update(e, p, box.data)
		}
		e.Object().ClearUpdateMask()
	}
	clear(m.dirtySet)
}

// sendUpdates builds one packet per player from its outbox.
func (m *Map) sendUpdates(ctx context.Context) {
	for _, p := range m.Players() {
		box, ok := m.outboxes[p.GUID()]
		if !ok {
			continue
		}
		delete(m.outboxes, p.GUID())
		if !box.data.HasData() {
			continue
		}
		pk, err := box.data.BuildPacket()
		if err != nil {
			slog.ErrorContext(ctx, "building update packet", "map", m.id, "guid", p.GUID(), "error", err)
			continue
		}
		p.SendPacket(pk)
	}
}
