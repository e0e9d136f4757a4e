package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-worldserver/internal/packet"
)

const DefaultTimeout = 60 * time.Second

var ErrPlayerLoading = errors.New("player is loading")

// Permission is a bitset of account-level privileges.
type Permission uint32

const (
	PermSkipQueue Permission = 1 << iota
	PermSkipIdleKick
	PermGameMaster
)

// Sink delivers packets to a connected client.
type Sink interface {
	SendPacket(account uint32, p packet.Packet) error
}

// Player is the in-world character a session controls.
type Player interface {
	Name() string
}

// Handler processes one inbound packet on the simulation goroutine.
type Handler func(s *Session, p packet.Packet)

// Session is one authenticated client connection.
type Session struct {
	account     uint32
	linkedID    uint32
	accountName string
	address     string
	connID      uuid.UUID
	perms       Permission
	connectKey  uint64

	sink    Sink
	handler Handler

	mu      sync.Mutex
	inbound []packet.Packet

	player  Player
	loading atomic.Bool
	queued  atomic.Bool

	timeout   time.Duration
	idle      time.Duration
	kickOnce  sync.Once
	done      chan struct{}
	initiated atomic.Bool
}

type SessionOpt func(*Session)

func WithLinkedID(id uint32) SessionOpt {
	return func(s *Session) {
		s.linkedID = id
	}
}

func WithAccountName(name string) SessionOpt {
	return func(s *Session) {
		s.accountName = name
	}
}

func WithAddress(addr string) SessionOpt {
	return func(s *Session) {
		s.address = addr
	}
}

func WithPermissions(p Permission) SessionOpt {
	return func(s *Session) {
		s.perms = p
	}
}

func WithHandler(h Handler) SessionOpt {
	return func(s *Session) {
		s.handler = h
	}
}

// WithTimeout sets the inactivity timeout. Zero disables it.
func WithTimeout(d time.Duration) SessionOpt {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithConnectKey sets the key used to pair an instance socket with this session.
func WithConnectKey(key uint64) SessionOpt {
	return func(s *Session) {
		s.connectKey = key
	}
}

func New(account uint32, sink Sink, opts ...SessionOpt) *Session {
	s := &Session{
		account: account,
		connID:  uuid.New(),
		sink:    sink,
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) AccountID() uint32       { return s.account }
func (s *Session) LinkedID() uint32        { return s.linkedID }
func (s *Session) AccountName() string     { return s.accountName }
func (s *Session) Address() string         { return s.address }
func (s *Session) ConnID() uuid.UUID       { return s.connID }
func (s *Session) ConnectKey() uint64      { return s.connectKey }
func (s *Session) Permissions() Permission { return s.perms }

func (s *Session) HasPermission(p Permission) bool {
	return s.perms&p == p
}

func (s *Session) IsQueued() bool      { return s.queued.Load() }
func (s *Session) SetQueued(q bool)    { s.queued.Store(q) }
func (s *Session) IsInitialized() bool { return s.initiated.Load() }

func (s *Session) Player() Player { return s.player }

func (s *Session) SetPlayer(p Player) {
	s.player = p
}

// IsPlayerLoading reports whether a character is being loaded for this session.
func (s *Session) IsPlayerLoading() bool { return s.loading.Load() }

func (s *Session) SetPlayerLoading(loading bool) { s.loading.Store(loading) }

// Done is closed once the session has been kicked.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsKicked reports whether Kick has been called.
func (s *Session) IsKicked() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Kick marks the session for removal and tells the client why. Only the
// first call has any effect.
func (s *Session) Kick(reason string) {
	s.kickOnce.Do(func() {
		slog.Info("kicking session", "account", s.account, "reason", reason)
		s.SendPacket(packet.MustEncode(packet.OpcodeKickReason, packet.KickReason{Reason: reason}))
		close(s.done)
	})
}

// SendPacket hands p to the network sink. Failures are logged.
func (s *Session) SendPacket(p packet.Packet) {
	if s.sink == nil {
		return
	}
	if err := s.sink.SendPacket(s.account, p); err != nil {
		slog.Warn("sending packet", "account", s.account, "opcode", p.Opcode.String(), "error", err)
	}
}

// QueuePacket appends an inbound packet. It never blocks on the simulation.
func (s *Session) QueuePacket(p packet.Packet) {
	s.mu.Lock()
	s.inbound = append(s.inbound, p)
	s.mu.Unlock()
}

// InitializeSession completes admission: the client is told it is in. The
// inactivity timeout starts counting from here.
func (s *Session) InitializeSession() {
	s.idle = 0
	s.queued.Store(false)
	s.initiated.Store(true)
	s.SendPacket(packet.MustEncode(packet.OpcodeAuthResponse, packet.AuthResponse{Result: packet.AuthOK}))
}

// SendAuthWaitQueue tells the client its queue position. Position zero means
// the wait is over.
func (s *Session) SendAuthWaitQueue(pos int) {
	if pos == 0 {
		s.SendPacket(packet.MustEncode(packet.OpcodeAuthResponse, packet.AuthResponse{Result: packet.AuthOK}))
		return
	}
	s.SendPacket(packet.MustEncode(packet.OpcodeAuthResponse, packet.AuthResponse{
		Result:        packet.AuthWaitQueue,
		QueuePosition: pos,
	}))
}

// Update processes queued inbound packets and the inactivity timeout. A
// session waiting in the admission queue is never idle. It returns false when
// the session should be removed.
func (s *Session) Update(diff time.Duration) bool {
	if s.IsKicked() {
		return false
	}

	s.mu.Lock()
	pending := s.inbound
	s.inbound = nil
	s.mu.Unlock()

	if len(pending) > 0 || s.IsQueued() {
		s.idle = 0
	} else {
		s.idle += diff
	}

	for _, p := range pending {
		if err := s.handle(p); err != nil {
			slog.Error("handling packet", "account", s.account, "opcode", p.Opcode.String(), "error", err)
		}
		if s.IsKicked() {
			return false
		}
	}

	if s.timeout > 0 && s.idle > s.timeout && !s.HasPermission(PermSkipIdleKick) {
		s.Kick("inactivity timeout")
		return false
	}
	return true
}

func (s *Session) handle(p packet.Packet) (err error) {
	if s.handler == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	s.handler(s, p)
	return nil
}
