package world

import (
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/script"
	"github.com/pixil98/go-worldserver/internal/session"
	"github.com/pixil98/go-worldserver/internal/unit"
)

type teamMember interface {
	Team() unit.Team
}

type worldMember interface {
	IsInWorld() bool
}

// SendGlobalMessage sends p to every session whose player is in the world.
// exclude is skipped, and a team other than TeamNeutral restricts delivery
// to that team.
func (w *WorldManager) SendGlobalMessage(p packet.Packet, exclude *session.Session, team unit.Team) {
	for _, s := range w.sessions.Snapshot() {
		if s == exclude || s.IsQueued() || s.IsKicked() {
			continue
		}
		player := s.Player()
		if player == nil {
			continue
		}
		if m, ok := player.(worldMember); ok && !m.IsInWorld() {
			continue
		}
		if team != unit.TeamNeutral {
			if m, ok := player.(teamMember); !ok || m.Team() != team {
				continue
			}
		}
		s.SendPacket(p)
	}
}

// Broadcast sends p to every player in the world.
func (w *WorldManager) Broadcast(p packet.Packet) {
	w.SendGlobalMessage(p, nil, unit.TeamNeutral)
}

// SendServerMessage sends a server message to target, or to everyone when
// target is nil.
func (w *WorldManager) SendServerMessage(kind packet.ServerMessageType, text string, target *session.Session) {
	p := packet.MustEncode(packet.OpcodeServerMessage, packet.ServerMessage{Type: kind, Text: text})
	if target != nil {
		target.SendPacket(p)
		return
	}
	w.SendGlobalMessage(p, nil, unit.TeamNeutral)
}

// SetMotd replaces the message of the day sent to newly admitted sessions.
func (w *WorldManager) SetMotd(lines []string) {
	w.mu.Lock()
	w.motd = append([]string(nil), lines...)
	w.mu.Unlock()

	script.ForEach(w.scripts, func(l MotdListener) {
		l.OnMotdChange(lines)
	})
}

func (w *WorldManager) Motd() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.motd...)
}

// SetClosed closes or reopens the realm to sessions without the game master
// permission.
func (w *WorldManager) SetClosed(closed bool) {
	w.closed.Store(closed)
	script.ForEach(w.scripts, func(l OpenStateListener) {
		l.OnOpenStateChange(!closed)
	})
}

func (w *WorldManager) IsClosed() bool {
	return w.closed.Load()
}
