package gameobject

import (
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/unit"
)

type capturePoint struct {
	state        CapturePointState
	lastTeam     unit.Team
	assaultTimer time.Duration
}

type teamMember interface {
	Team() unit.Team
}

// CaptureState returns the ownership phase of a capture point.
func (g *GameObject) CaptureState() CapturePointState { return g.capture.state }

// LastCapturedBy returns the team that last completed a capture.
func (g *GameObject) LastCapturedBy() unit.Team { return g.capture.lastTeam }

// CanInteractWithCapturePoint reports whether player may assault g in its
// current phase.
func (g *GameObject) CanInteractWithCapturePoint(player object.Entity) bool {
	if g.tmpl.Type != TypeCapturePoint {
		return false
	}
	tm, ok := player.(teamMember)
	if !ok {
		return false
	}
	if g.capture.state == CaptureNeutral {
		return true
	}
	switch tm.Team() {
	case unit.TeamHorde:
		return g.capture.state == CaptureContestedAlliance || g.capture.state == CaptureAllianceCaptured
	case unit.TeamAlliance:
		return g.capture.state == CaptureContestedHorde || g.capture.state == CaptureHordeCaptured
	}
	return false
}

// AssaultCapturePoint starts a contest for player's team, or defends the
// point at once when that team holds the last capture.
func (g *GameObject) AssaultCapturePoint(player object.Entity) {
	if !g.CanInteractWithCapturePoint(player) {
		return
	}
	if handledByScript(g, func(h CapturePointListener) bool { return h.OnCapturePointAssaulted(g, player) }) {
		return
	}

	info := g.tmpl.CapturePoint
	switch player.(teamMember).Team() {
	case unit.TeamHorde:
		if g.capture.lastTeam == unit.TeamHorde {
			g.capture.state = CaptureHordeCaptured
			g.broadcastText(info.DefendedBroadcastHorde, unit.TeamHorde, player)
			g.updateCapturePoint()
			if info.DefendedEventHorde != 0 {
				g.services().TriggerEvent(info.DefendedEventHorde, player, g)
			}
			return
		}
		switch g.capture.state {
		case CaptureNeutral, CaptureAllianceCaptured, CaptureContestedAlliance:
			g.capture.state = CaptureContestedHorde
			g.broadcastText(info.AssaultBroadcastHorde, unit.TeamHorde, player)
			g.updateCapturePoint()
			if info.ContestedEventHorde != 0 {
				g.services().TriggerEvent(info.ContestedEventHorde, player, g)
			}
			g.capture.assaultTimer = time.Duration(info.CaptureTimeMs) * time.Millisecond
		}
	case unit.TeamAlliance:
		if g.capture.lastTeam == unit.TeamAlliance {
			g.capture.state = CaptureAllianceCaptured
			g.broadcastText(info.DefendedBroadcastAlliance, unit.TeamAlliance, player)
			g.updateCapturePoint()
			if info.DefendedEventAlliance != 0 {
				g.services().TriggerEvent(info.DefendedEventAlliance, player, g)
			}
			return
		}
		switch g.capture.state {
		case CaptureNeutral, CaptureHordeCaptured, CaptureContestedHorde:
			g.capture.state = CaptureContestedAlliance
			g.broadcastText(info.AssaultBroadcastAlliance, unit.TeamAlliance, player)
			g.updateCapturePoint()
			if info.ContestedEventAlliance != 0 {
				g.services().TriggerEvent(info.ContestedEventAlliance, player, g)
			}
			g.capture.assaultTimer = time.Duration(info.CaptureTimeMs) * time.Millisecond
		}
	}
}

// tickCapturePoint counts down a running contest and completes the capture
// when nobody answered it in time.
func (g *GameObject) tickCapturePoint(diff time.Duration) {
	if g.capture.assaultTimer > diff {
		g.capture.assaultTimer -= diff
		return
	}
	g.capture.assaultTimer = 0

	info := g.tmpl.CapturePoint
	switch g.capture.state {
	case CaptureContestedHorde:
		g.capture.state = CaptureHordeCaptured
		g.capture.lastTeam = unit.TeamHorde
		g.broadcastText(info.CaptureBroadcastHorde, unit.TeamHorde, nil)
		g.updateCapturePoint()
		if info.CaptureEventHorde != 0 {
			g.services().TriggerEvent(info.CaptureEventHorde, nil, g)
		}
	case CaptureContestedAlliance:
		g.capture.state = CaptureAllianceCaptured
		g.capture.lastTeam = unit.TeamAlliance
		g.broadcastText(info.CaptureBroadcastAlliance, unit.TeamAlliance, nil)
		g.updateCapturePoint()
		if info.CaptureEventAlliance != 0 {
			g.services().TriggerEvent(info.CaptureEventAlliance, nil, g)
		}
	}
}

// updateCapturePoint presents the current phase: animation, visual, dynamic
// flags and the world state value.
func (g *GameObject) updateCapturePoint() {
	state := g.capture.state
	if handledByScript(g, func(h CapturePointListener) bool { return h.OnCapturePointUpdated(g, state) }) {
		return
	}

	info := g.tmpl.CapturePoint
	var anim uint32
	switch state {
	case CaptureContestedHorde:
		anim = 1
	case CaptureContestedAlliance:
		anim = 2
	case CaptureHordeCaptured:
		anim = 3
	case CaptureAllianceCaptured:
		anim = 4
	}
	if anim != 0 {
		g.SendCustomAnim(anim)
	}
	g.spellVisual.Set(info.SpellVisuals[state])
	g.refreshDynamicFlags()

	g.sendToAll(packet.OpcodeCapturePointUpdate, packet.CapturePointUpdate{GUID: g.GUID().String(), State: uint8(state)})
	if info.WorldState != 0 {
		g.host.SetWorldStateValue(info.WorldState, int32(state), false)
	}
}

func (g *GameObject) broadcastText(textID uint32, team unit.Team, source object.Entity) {
	if textID == 0 {
		return
	}
	msg := packet.BroadcastText{TextID: textID, Team: uint8(team)}
	if source != nil {
		msg.Source = source.Object().GUID().String()
	}
	g.sendToAll(packet.OpcodeBroadcastText, msg)
}

type capturePointBehavior struct {
	baseBehavior
}

func (capturePointBehavior) Ready(g *GameObject, _ time.Time, diff time.Duration) {
	switch g.capture.state {
	case CaptureContestedHorde, CaptureContestedAlliance:
		g.tickCapturePoint(diff)
	}
}

func (capturePointBehavior) Use(g *GameObject, user object.Entity) error {
	if !g.CanInteractWithCapturePoint(user) {
		return ErrNotUsable
	}
	g.AssaultCapturePoint(user)
	return nil
}
