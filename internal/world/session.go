package world

import (
	"log/slog"
	"time"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/session"
)

// InstanceSocket is a secondary connection waiting to be paired with the
// session that owns its connect key.
type InstanceSocket interface {
	ConnectKey() uint64
	Link(s *session.Session)
	Close() error
}

// AddSession queues s for admission on the next tick. It is safe to call
// from network goroutines.
func (w *WorldManager) AddSession(s *session.Session) {
	w.pendingMu.Lock()
	w.pendingSessions = append(w.pendingSessions, s)
	w.pendingMu.Unlock()
}

// AddInstanceSocket queues sock to be linked on the next tick.
func (w *WorldManager) AddInstanceSocket(sock InstanceSocket) {
	w.pendingMu.Lock()
	w.pendingSockets = append(w.pendingSockets, sock)
	w.pendingMu.Unlock()
}

func (w *WorldManager) drainPending() ([]*session.Session, []InstanceSocket) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	sessions, sockets := w.pendingSessions, w.pendingSockets
	w.pendingSessions, w.pendingSockets = nil, nil
	return sessions, sockets
}

func (w *WorldManager) updateSessions(diff time.Duration) {
	added, sockets := w.drainPending()
	for _, s := range added {
		w.addSession(s)
	}
	for _, sock := range sockets {
		w.linkSocket(sock)
	}

	tolerance := w.config().DisconnectTolerance
	for _, s := range w.sessions.Snapshot() {
		if w.updateSession(s, diff) {
			continue
		}
		if !w.removeQueuedSession(s) && tolerance > 0 {
			w.sessions.RecordDisconnect(s.AccountID(), w.clock.Now())
		}
		w.sessions.Remove(s)
	}
}

func (w *WorldManager) updateSession(s *session.Session, diff time.Duration) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session update panicked", "account", s.AccountID(), "panic", r)
			s.Kick("internal error")
			ok = false
		}
	}()
	return s.Update(diff)
}

func (w *WorldManager) addSession(s *session.Session) {
	if w.closed.Load() && !s.HasPermission(session.PermGameMaster) {
		s.SendPacket(packet.MustEncode(packet.OpcodeAuthResponse, packet.AuthResponse{Result: packet.AuthFailed}))
		s.Kick("realm closed")
		return
	}

	decrease := true
	if old := w.sessions.Get(s.AccountID()); old != nil {
		if old.IsPlayerLoading() {
			s.Kick(session.ErrPlayerLoading.Error())
			return
		}
		old.Kick("logged in from another location")
		if w.removeQueuedSession(old) {
			decrease = false
		}
	}
	w.sessions.Add(s)

	count := w.sessions.Len()
	if decrease {
		count--
	}

	limit := w.PlayerAmountLimit()
	if limit > 0 && count >= limit && !s.HasPermission(session.PermSkipQueue) &&
		!w.sessions.RecentlyDisconnected(s.AccountID(), w.clock.Now(), w.config().DisconnectTolerance) {
		pos := w.sessions.Enqueue(s)
		s.SendAuthWaitQueue(pos)
		slog.Info("session queued", "account", s.AccountID(), "position", pos)
		w.updateMaxCounters()
		return
	}

	w.initializeSession(s)
	w.updateMaxCounters()
}

func (w *WorldManager) initializeSession(s *session.Session) {
	s.InitializeSession()

	w.mu.RLock()
	motd := w.motd
	w.mu.RUnlock()
	if len(motd) > 0 {
		s.SendPacket(packet.MustEncode(packet.OpcodeMotd, packet.Motd{Lines: motd}))
	}
}

// removeQueuedSession takes s out of the admission queue and, when a slot is
// free, admits the head of the queue. Every session left in the queue is
// told its new position. It reports whether s was queued.
func (w *WorldManager) removeQueuedSession(s *session.Session) bool {
	active := w.sessions.Len() - w.sessions.QueueLen()

	from := w.sessions.RemoveQueued(s)
	found := from >= 0
	if !found {
		from = 0
		if active > 0 {
			active--
		}
	}

	limit := w.PlayerAmountLimit()
	if (limit == 0 || active < limit) && w.sessions.QueueLen() > 0 {
		if next := w.sessions.PopQueue(); next != nil {
			w.initializeSession(next)
			slog.Info("queued session admitted", "account", next.AccountID())
		}
		from = 0
	}

	for i, q := range w.sessions.QueuedFrom(from) {
		q.SendAuthWaitQueue(from + i + 1)
	}
	return found
}

func (w *WorldManager) linkSocket(sock InstanceSocket) {
	s := w.sessions.ByConnectKey(sock.ConnectKey())
	if s == nil || s.IsKicked() {
		if err := sock.Close(); err != nil {
			slog.Warn("closing unmatched instance socket", "error", err)
		}
		return
	}
	sock.Link(s)
}

func (w *WorldManager) updateMaxCounters() {
	if n := int64(w.ActiveSessionCount()); n > w.maxActive.Load() {
		w.maxActive.Store(n)
	}
	if n := int64(w.QueuedSessionCount()); n > w.maxQueued.Load() {
		w.maxQueued.Store(n)
	}
}

// FindSession returns the session of account, or nil.
func (w *WorldManager) FindSession(account uint32) *session.Session {
	return w.sessions.Get(account)
}

// KickSession kicks the session of account. It reports whether one was found.
func (w *WorldManager) KickSession(account uint32, reason string) bool {
	s := w.sessions.Get(account)
	if s == nil {
		return false
	}
	s.Kick(reason)
	return true
}

// KickLinkedSessions kicks every session of the accounts sharing linkedID and
// returns how many were kicked.
func (w *WorldManager) KickLinkedSessions(linkedID uint32, reason string) int {
	if linkedID == 0 {
		return 0
	}
	kicked := 0
	for _, s := range w.sessions.ByLinkedID(linkedID) {
		if s.IsKicked() {
			continue
		}
		s.Kick(reason)
		kicked++
	}
	return kicked
}

// KickAll empties the admission queue and kicks every session.
func (w *WorldManager) KickAll() {
	for w.sessions.PopQueue() != nil {
	}
	for _, s := range w.sessions.Snapshot() {
		s.Kick("server shutting down")
	}
}

func (w *WorldManager) ActiveSessionCount() int {
	return w.sessions.Len() - w.sessions.QueueLen()
}

func (w *WorldManager) QueuedSessionCount() int {
	return w.sessions.QueueLen()
}

func (w *WorldManager) MaxActiveSessionCount() int {
	return int(w.maxActive.Load())
}

func (w *WorldManager) MaxQueuedSessionCount() int {
	return int(w.maxQueued.Load())
}

func (w *WorldManager) PlayerAmountLimit() int {
	return int(w.playerLimit.Load())
}

// SetPlayerAmountLimit changes the admission limit. Zero disables the queue.
func (w *WorldManager) SetPlayerAmountLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	w.playerLimit.Store(int64(limit))
}
