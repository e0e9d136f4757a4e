package unit

import (
	"sync"

	"github.com/pixil98/go-worldserver/internal/object"
)

// GroupVisibility selects which dead players a living player may still see.
type GroupVisibility uint8

const (
	GroupVisibilityGroup GroupVisibility = iota
	GroupVisibilityRaid
	GroupVisibilityTeam
	GroupVisibilityNone
)

// Group is a party or raid.
type Group struct {
	mu        sync.RWMutex
	leader    object.GUID
	raid      bool
	subgroups map[object.GUID]uint8
}

func NewGroup(leader *Player, raid bool) *Group {
	g := &Group{
		leader:    leader.GUID(),
		raid:      raid,
		subgroups: make(map[object.GUID]uint8),
	}
	g.Add(leader, 0)
	return g
}

func (g *Group) Leader() object.GUID { return g.leader }
func (g *Group) IsRaid() bool        { return g.raid }

// Add places p in subgroup.
func (g *Group) Add(p *Player, subgroup uint8) {
	g.mu.Lock()
	g.subgroups[p.GUID()] = subgroup
	g.mu.Unlock()
	p.group = g
}

// Remove takes p out of the group.
func (g *Group) Remove(p *Player) {
	g.mu.Lock()
	delete(g.subgroups, p.GUID())
	g.mu.Unlock()
	if p.group == g {
		p.group = nil
	}
}

func (g *Group) IsMember(guid object.GUID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.subgroups[guid]
	return ok
}

// SameSubGroup reports whether both members share a subgroup.
func (g *Group) SameSubGroup(a, b object.GUID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sa, okA := g.subgroups[a]
	sb, okB := g.subgroups[b]
	return okA && okB && sa == sb
}

func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subgroups)
}
