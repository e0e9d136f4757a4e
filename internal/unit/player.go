package unit

import (
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
)

// PacketSender delivers packets to the player's client.
type PacketSender interface {
	SendPacket(p packet.Packet)
}

// Player is a unit driven by a client session.
type Player struct {
	Unit

	account uint32
	sender  PacketSender
	view    *object.ClientView

	group           *Group
	groupVisibility GroupVisibility

	ghost     bool
	gm        bool
	cinematic bool
	corpse    object.Entity
	viewpoint object.Entity

	money *object.Field[uint32]
	xp    *object.Field[uint32]
}

func NewPlayer(guid object.GUID, name string, account uint32, sender PacketSender) *Player {
	p := &Player{
		account: account,
		sender:  sender,
		view:    object.NewClientView(),
	}
	p.InitUnit(p, guid, object.TypePlayer)
	p.SetName(name)
	p.money = object.NewField(p.Values(), "money", object.FlagSelf, uint32(0))
	p.xp = object.NewField(p.Values(), "xp", object.FlagSelf, uint32(0))
	return p
}

func (p *Player) AccountID() uint32                    { return p.account }
func (p *Player) ClientView() *object.ClientView       { return p.view }
func (p *Player) Group() *Group                        { return p.group }
func (p *Player) IsGhost() bool                        { return p.ghost }
func (p *Player) Corpse() object.Entity                { return p.corpse }
func (p *Player) IsOnCinematic() bool                  { return p.cinematic }
func (p *Player) SetOnCinematic(c bool)                { p.cinematic = c }
func (p *Player) IsGameMaster() bool                   { return p.gm }
func (p *Player) SetMoney(m uint32)                    { p.money.Set(m) }
func (p *Player) Money() uint32                        { return p.money.Get() }
func (p *Player) SetGroupVisibility(v GroupVisibility) { p.groupVisibility = v }

// SendPacket forwards to the session, if one is attached.
func (p *Player) SendPacket(pk packet.Packet) {
	if p.sender != nil {
		p.sender.SendPacket(pk)
	}
}

// SetSender reattaches the player to a new session.
func (p *Player) SetSender(s PacketSender) {
	p.sender = s
}

// Viewpoint returns the entity the client is looking through, or nil.
func (p *Player) Viewpoint() object.Entity {
	return p.viewpoint
}

func (p *Player) SetViewpoint(e object.Entity) {
	p.viewpoint = e
}

// HaveAtClient reports whether the client holds a copy of e.
func (p *Player) HaveAtClient(e object.Entity) bool {
	return p.view.Knows(e.Object().GUID())
}

// SetGhost switches between the living and ghost visibility masks.
func (p *Player) SetGhost(ghost bool, corpse object.Entity) {
	p.ghost = ghost
	p.corpse = corpse
	if ghost {
		p.ServerSideVisibility.SetValue(object.ServerSideGhost, object.GhostVisibilityGhost)
		p.ServerSideVisibilityDetect.SetValue(object.ServerSideGhost, object.GhostVisibilityGhost)
		return
	}
	p.corpse = nil
	p.ServerSideVisibility.SetValue(object.ServerSideGhost, object.GhostVisibilityAlive|object.GhostVisibilityGhost)
	p.ServerSideVisibilityDetect.SetValue(object.ServerSideGhost, object.GhostVisibilityAlive)
}

// SetGameMaster toggles GM mode at the given visibility level.
func (p *Player) SetGameMaster(on bool, level int32) {
	p.gm = on
	if on {
		p.ServerSideVisibility.SetValue(object.ServerSideGM, level)
		p.ServerSideVisibilityDetect.SetValue(object.ServerSideGM, level)
		return
	}
	p.ServerSideVisibility.SetValue(object.ServerSideGM, 0)
	p.ServerSideVisibilityDetect.SetValue(object.ServerSideGM, 0)
}

// IsInGroup reports whether guid is in the player's group.
func (p *Player) IsInGroup(guid object.GUID) bool {
	return p.group != nil && p.group.IsMember(guid)
}

func (p *Player) IsInSameRaidWith(o *Player) bool {
	return o == p || (p.group != nil && p.group == o.group)
}

func (p *Player) IsInSameGroupWith(o *Player) bool {
	return o == p || (p.group != nil && p.group == o.group && p.group.SameSubGroup(p.GUID(), o.GUID()))
}

// IsGroupVisibleFor applies the configured group visibility rule.
func (p *Player) IsGroupVisibleFor(other object.Viewer) bool {
	o, ok := other.(*Player)
	if !ok {
		return false
	}
	switch p.groupVisibility {
	case GroupVisibilityRaid:
		return p.IsInSameRaidWith(o)
	case GroupVisibilityTeam:
		return p.Team() == o.Team()
	case GroupVisibilityNone:
		return false
	default:
		return p.IsInSameGroupWith(o)
	}
}

// FieldFlagsFor adds party fields for group members.
func (p *Player) FieldFlagsFor(viewer object.Entity) object.FieldFlag {
	flags := p.Unit.FieldFlagsFor(viewer)
	if o, ok := viewer.(*Player); ok && p.IsInSameRaidWith(o) {
		flags |= object.FlagParty
	}
	return flags
}
