package gameobject

import (
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
)

// LootItem is one entry in a loot container.
type LootItem struct {
	ItemID uint32
	Looted bool
}

// Loot is the contents of an opened object.
type Loot struct {
	Items []LootItem
}

func newLoot(items []uint32) *Loot {
	l := &Loot{Items: make([]LootItem, len(items))}
	for i, id := range items {
		l.Items[i] = LootItem{ItemID: id}
	}
	return l
}

// IsLooted reports whether nothing is left.
func (l *Loot) IsLooted() bool {
	return l.Remaining() == 0
}

func (l *Loot) Remaining() int {
	n := 0
	for _, it := range l.Items {
		if !it.Looted {
			n++
		}
	}
	return n
}

// Take removes the item at index i.
func (l *Loot) Take(i int) (uint32, bool) {
	if i < 0 || i >= len(l.Items) || l.Items[i].Looted {
		return 0, false
	}
	l.Items[i].Looted = true
	return l.Items[i].ItemID, true
}

// TakeAll removes everything left.
func (l *Loot) TakeAll() []uint32 {
	var out []uint32
	for i := range l.Items {
		if id, ok := l.Take(i); ok {
			out = append(out, id)
		}
	}
	return out
}

func (l *Loot) available() []uint32 {
	var out []uint32
	for _, it := range l.Items {
		if !it.Looted {
			out = append(out, it.ItemID)
		}
	}
	return out
}

func (g *GameObject) lootTable() []uint32 {
	switch g.tmpl.Type {
	case TypeChest:
		return g.tmpl.Chest.Loot
	case TypeFishingHole:
		return g.tmpl.FishingHole.Loot
	}
	return nil
}

func (g *GameObject) isPersonalLoot() bool {
	return g.tmpl.Type == TypeChest && g.tmpl.Chest.Personal
}

// LootFor returns the container player loots from, generating it on first
// access.
func (g *GameObject) LootFor(player object.Entity) *Loot {
	if g.isPersonalLoot() {
		guid := player.Object().GUID()
		if g.personalLoot == nil {
			g.personalLoot = make(map[object.GUID]*Loot)
		}
		l, ok := g.personalLoot[guid]
		if !ok {
			l = newLoot(g.lootTable())
			g.personalLoot[guid] = l
		}
		return l
	}
	if g.loot == nil {
		g.loot = newLoot(g.lootTable())
	}
	return g.loot
}

// IsFullyLooted reports whether every container has been emptied.
func (g *GameObject) IsFullyLooted() bool {
	if g.loot != nil && !g.loot.IsLooted() {
		return false
	}
	for _, l := range g.personalLoot {
		if !l.IsLooted() {
			return false
		}
	}
	return true
}

// ClearLoot drops every container. They are regenerated on the next open.
func (g *GameObject) ClearLoot() {
	g.loot = nil
	g.personalLoot = nil
}

func (g *GameObject) sendLoot(player object.Entity) {
	l := g.LootFor(player)
	sendTo(player, packet.OpcodeLootResponse, packet.LootResponse{Owner: g.GUID().String(), Items: l.available()})
}

// ReleaseLoot is called when player closes the loot window.
func (g *GameObject) ReleaseLoot(player object.Entity) {
	switch {
	case g.tmpl.Type == TypeFishingHole:
		g.useCount++
		g.ClearLoot()
		if g.useCount >= g.maxOpens {
			g.SetLootState(LootJustDeactivated, nil)
		} else {
			g.SetLootState(LootReady, nil)
		}
	case g.tmpl.Type == TypeFishingNode:
		g.SetLootState(LootJustDeactivated, nil)
	case g.LootFor(player).IsLooted():
		if g.IsFullyLooted() {
			g.SetLootState(LootJustDeactivated, nil)
		}
	default:
		g.SetLootState(LootActivated, player)
	}
}
