package world

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/session"
)

func TestWorldManager_QueueAdmitsOnFreeSlot(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{PlayerLimit: 1})
	a := newTestSession(sink, 1)
	b := newTestSession(sink, 2)

	w.AddSession(a)
	w.AddSession(b)
	tick(w, time.Second)

	testutil.AssertEqual(t, "a initialized", a.IsInitialized(), true)
	testutil.AssertEqual(t, "b queued", b.IsQueued(), true)
	var resp packet.AuthResponse
	sink.last(t, 2, packet.OpcodeAuthResponse, &resp)
	testutil.AssertEqual(t, "b result", resp.Result, packet.AuthWaitQueue)
	testutil.AssertEqual(t, "b position", resp.QueuePosition, 1)
	testutil.AssertEqual(t, "active", w.ActiveSessionCount(), 1)
	testutil.AssertEqual(t, "queued", w.QueuedSessionCount(), 1)

	a.Kick("leaving")
	tick(w, time.Second)

	testutil.AssertEqual(t, "b admitted", b.IsQueued(), false)
	testutil.AssertEqual(t, "b initialized", b.IsInitialized(), true)
	sink.last(t, 2, packet.OpcodeAuthResponse, &resp)
	testutil.AssertEqual(t, "b ok", resp.Result, packet.AuthOK)
	testutil.AssertEqual(t, "a removed", w.FindSession(1) == nil, true)
	testutil.AssertEqual(t, "active after", w.ActiveSessionCount(), 1)
	testutil.AssertEqual(t, "queue empty", w.QueuedSessionCount(), 0)
	testutil.AssertEqual(t, "max queued", w.MaxQueuedSessionCount(), 1)
}

func TestWorldManager_QueuePositionsResequence(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{PlayerLimit: 1})
	sessions := make([]*session.Session, 5)
	for i := range sessions {
		sessions[i] = newTestSession(sink, uint32(i+1))
		w.AddSession(sessions[i])
	}
	tick(w, time.Second)

	for i, s := range sessions[1:] {
		testutil.AssertEqual(t, "queue position", w.sessions.QueuePos(s), i+1)
	}

	sessions[2].Kick("leaving")
	tick(w, time.Second)

	var resp packet.AuthResponse
	sink.last(t, 4, packet.OpcodeAuthResponse, &resp)
	testutil.AssertEqual(t, "moved up", resp.QueuePosition, 2)
	sink.last(t, 5, packet.OpcodeAuthResponse, &resp)
	testutil.AssertEqual(t, "moved up last", resp.QueuePosition, 3)
	testutil.AssertEqual(t, "head untouched", sink.count(2, packet.OpcodeAuthResponse), 1)
	testutil.AssertEqual(t, "still limited", w.ActiveSessionCount(), 1)
	testutil.AssertEqual(t, "queued", w.QueuedSessionCount(), 3)
}

func TestWorldManager_AdmissionBypass(t *testing.T) {
	tests := map[string]struct {
		limit     int
		tolerance time.Duration
		second    []session.SessionOpt
		reconnect bool
		expQueued bool
	}{
		"no limit": {
			expQueued: false,
		},
		"at limit": {
			limit:     1,
			expQueued: true,
		},
		"skip queue permission": {
			limit:     1,
			second:    []session.SessionOpt{session.WithPermissions(session.PermSkipQueue)},
			expQueued: false,
		},
		"recently disconnected": {
			limit:     1,
			tolerance: time.Minute,
			reconnect: true,
			expQueued: false,
		},
		"reconnect without tolerance": {
			limit:     1,
			reconnect: true,
			expQueued: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sink := newRecordingSink()
			w := newTestWorld(t, openTestRepo(t), Config{PlayerLimit: tt.limit, DisconnectTolerance: tt.tolerance})

			account := uint32(2)
			if tt.reconnect {
				leaving := newTestSession(sink, account)
				w.AddSession(leaving)
				tick(w, time.Second)
				leaving.Kick("leaving")
				tick(w, time.Second)
			}

			w.AddSession(newTestSession(sink, 1))
			tick(w, time.Second)

			second := newTestSession(sink, account, tt.second...)
			w.AddSession(second)
			tick(w, time.Second)

			testutil.AssertEqual(t, "queued", second.IsQueued(), tt.expQueued)
		})
	}
}

func TestWorldManager_SingleSessionPerAccount(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{})
	first := newTestSession(sink, 7)
	w.AddSession(first)
	tick(w, time.Second)

	second := newTestSession(sink, 7)
	w.AddSession(second)
	tick(w, time.Second)

	testutil.AssertEqual(t, "first kicked", first.IsKicked(), true)
	testutil.AssertEqual(t, "second kept", w.FindSession(7) == second, true)
	testutil.AssertEqual(t, "one session", w.ActiveSessionCount(), 1)
}

func TestWorldManager_LoadingSessionIsKept(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{})
	first := newTestSession(sink, 7)
	w.AddSession(first)
	tick(w, time.Second)
	first.SetPlayerLoading(true)

	second := newTestSession(sink, 7)
	w.AddSession(second)
	tick(w, time.Second)

	testutil.AssertEqual(t, "new kicked", second.IsKicked(), true)
	testutil.AssertEqual(t, "old kept", w.FindSession(7) == first, true)
	testutil.AssertEqual(t, "old alive", first.IsKicked(), false)
}

func TestWorldManager_ClosedRealm(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{})
	w.SetClosed(true)

	player := newTestSession(sink, 1)
	gm := newTestSession(sink, 2, session.WithPermissions(session.PermGameMaster))
	w.AddSession(player)
	w.AddSession(gm)
	tick(w, time.Second)

	var resp packet.AuthResponse
	sink.last(t, 1, packet.OpcodeAuthResponse, &resp)
	testutil.AssertEqual(t, "refused", resp.Result, packet.AuthFailed)
	testutil.AssertEqual(t, "kicked", player.IsKicked(), true)
	testutil.AssertEqual(t, "gm admitted", gm.IsInitialized(), true)
	testutil.AssertEqual(t, "active", w.ActiveSessionCount(), 1)
}

func TestWorldManager_MotdOnAdmission(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{Motd: []string{"welcome"}})
	w.SetMotd([]string{"hello", "world"})

	w.AddSession(newTestSession(sink, 1))
	tick(w, time.Second)

	var motd packet.Motd
	sink.last(t, 1, packet.OpcodeMotd, &motd)
	testutil.AssertEqual(t, "lines", len(motd.Lines), 2)
	testutil.AssertEqual(t, "first line", motd.Lines[0], "hello")
}

func TestWorldManager_KickAll(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{PlayerLimit: 1})
	a := newTestSession(sink, 1)
	b := newTestSession(sink, 2)
	w.AddSession(a)
	w.AddSession(b)
	tick(w, time.Second)

	testutil.AssertEqual(t, "kick unknown", w.KickSession(9, "gone"), false)
	w.KickAll()
	tick(w, time.Second)

	testutil.AssertEqual(t, "a kicked", a.IsKicked(), true)
	testutil.AssertEqual(t, "b kicked", b.IsKicked(), true)
	testutil.AssertEqual(t, "b never admitted", b.IsInitialized(), false)
	testutil.AssertEqual(t, "empty", w.ActiveSessionCount()+w.QueuedSessionCount(), 0)
}

type testSocket struct {
	key    uint64
	linked *session.Session
	closed bool
}

func (s *testSocket) ConnectKey() uint64         { return s.key }
func (s *testSocket) Link(sess *session.Session) { s.linked = sess }
func (s *testSocket) Close() error {
	s.closed = true
	return nil
}

func TestWorldManager_InstanceSockets(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{})
	s := newTestSession(sink, 1, session.WithConnectKey(42))
	w.AddSession(s)
	tick(w, time.Second)

	matched := &testSocket{key: 42}
	unmatched := &testSocket{key: 7}
	w.AddInstanceSocket(matched)
	w.AddInstanceSocket(unmatched)
	tick(w, time.Second)

	testutil.AssertEqual(t, "linked", matched.linked == s, true)
	testutil.AssertEqual(t, "closed", unmatched.closed, true)
	testutil.AssertEqual(t, "not linked", unmatched.linked == nil, true)
}

func TestWorldManager_SessionFaultIsolated(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{})
	faulty := newTestSession(sink, 1, session.WithHandler(func(*session.Session, packet.Packet) {
		panic("boom")
	}))
	healthy := newTestSession(sink, 2)
	w.AddSession(faulty)
	w.AddSession(healthy)
	tick(w, time.Second)

	faulty.QueuePacket(packet.Packet{Opcode: packet.OpcodeChatBroadcast})
	tick(w, time.Second)

	testutil.AssertEqual(t, "healthy kept", w.FindSession(2) == healthy, true)
	testutil.AssertEqual(t, "faulty kept", w.FindSession(1) == faulty, true)
}

func TestWorldManager_QueuedSessionIsNotIdleKicked(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{PlayerLimit: 1})
	a := newTestSession(sink, 1)
	b := newTestSession(sink, 2, session.WithTimeout(session.DefaultTimeout))
	w.AddSession(a)
	w.AddSession(b)

	for i := 0; i < 61; i++ {
		tick(w, time.Second)
	}

	testutil.AssertEqual(t, "b kicked", b.IsKicked(), false)
	testutil.AssertEqual(t, "b queued", b.IsQueued(), true)
	testutil.AssertEqual(t, "queue length", w.QueuedSessionCount(), 1)
}

func TestWorldManager_IdleStartsAtAdmission(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{PlayerLimit: 1})
	a := newTestSession(sink, 1)
	b := newTestSession(sink, 2, session.WithTimeout(10*time.Second))
	w.AddSession(a)
	w.AddSession(b)
	for i := 0; i < 30; i++ {
		tick(w, time.Second)
	}

	a.Kick("leaving")
	tick(w, time.Second)
	testutil.AssertEqual(t, "b admitted", b.IsInitialized(), true)

	tick(w, 5*time.Second)
	testutil.AssertEqual(t, "b kept", b.IsKicked(), false)

	tick(w, 6*time.Second)
	testutil.AssertEqual(t, "b idle", b.IsKicked(), true)
}

func TestWorldManager_KickLinkedSessions(t *testing.T) {
	sink := newRecordingSink()
	w := newTestWorld(t, openTestRepo(t), Config{})
	a := newTestSession(sink, 1, session.WithLinkedID(40))
	b := newTestSession(sink, 2, session.WithLinkedID(40))
	other := newTestSession(sink, 3, session.WithLinkedID(41))
	for _, s := range []*session.Session{a, b, other} {
		w.AddSession(s)
	}
	tick(w, time.Second)

	testutil.AssertEqual(t, "kicked", w.KickLinkedSessions(40, "linked account banned"), 2)
	testutil.AssertEqual(t, "a kicked", a.IsKicked(), true)
	testutil.AssertEqual(t, "b kicked", b.IsKicked(), true)
	testutil.AssertEqual(t, "other kept", other.IsKicked(), false)
	testutil.AssertEqual(t, "unlinked", w.KickLinkedSessions(0, "none"), 0)

	tick(w, time.Second)
	testutil.AssertEqual(t, "removed", w.KickLinkedSessions(40, "again"), 0)
	testutil.AssertEqual(t, "active", w.ActiveSessionCount(), 1)
}
