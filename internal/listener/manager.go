package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pixil98/go-worldserver/internal/messaging"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/session"
	"github.com/pixil98/go-worldserver/internal/world"
)

const (
	defaultHelloTimeout = 5 * time.Second
	defaultLinkTimeout  = 10 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultSendBuffer   = 256
	defaultKickGrace    = 250 * time.Millisecond
)

var (
	ErrBadHello          = errors.New("bad hello")
	ErrUnknownConnectKey = errors.New("unknown connect key")
)

// World is the part of the world manager a connection needs.
type World interface {
	Authenticate(ctx context.Context, name, addr string) (uint32, error)
	AddSession(s *session.Session)
	AddInstanceSocket(sock world.InstanceSocket)
	SessionTimeout() time.Duration
}

// Bus is the subscribing side of the message bus.
type Bus interface {
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// ConnectionManager turns accepted websocket connections into sessions.
type ConnectionManager struct {
	world   World
	bus     Bus
	sink    session.Sink
	handler session.Handler

	helloTimeout time.Duration
	linkTimeout  time.Duration
	writeTimeout time.Duration
	kickGrace    time.Duration
	sendBuffer   int
}

type ConnectionManagerOpt func(*ConnectionManager)

// WithPacketHandler sets the handler every new session dispatches inbound
// packets to.
func WithPacketHandler(h session.Handler) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.handler = h
	}
}

func WithHelloTimeout(d time.Duration) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.helloTimeout = d
	}
}

// WithLinkTimeout bounds how long an instance socket waits to be paired.
func WithLinkTimeout(d time.Duration) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.linkTimeout = d
	}
}

// WithSendBuffer sets how many outbound frames may wait for the socket
// before the session is kicked as a slow consumer.
func WithSendBuffer(n int) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.sendBuffer = n
	}
}

func NewConnectionManager(w World, bus Bus, sink session.Sink, opts ...ConnectionManagerOpt) *ConnectionManager {
	m := &ConnectionManager{
		world:        w,
		bus:          bus,
		sink:         sink,
		helloTimeout: defaultHelloTimeout,
		linkTimeout:  defaultLinkTimeout,
		writeTimeout: defaultWriteTimeout,
		kickGrace:    defaultKickGrace,
		sendBuffer:   defaultSendBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AcceptConnection runs conn until the client leaves, the session is kicked
// or ctx is cancelled. The connection is always closed on return.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn *websocket.Conn, addr string) error {
	hello, err := m.readHello(conn)
	if err != nil {
		m.closeWith(conn, websocket.ClosePolicyViolation, "bad hello")
		return err
	}
	if hello.Instance {
		return m.runInstance(ctx, conn, hello.ConnectKey)
	}
	return m.runSession(ctx, conn, addr, hello)
}

func (m *ConnectionManager) readHello(conn *websocket.Conn) (packet.Hello, error) {
	var hello packet.Hello
	_ = conn.SetReadDeadline(time.Now().Add(m.helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("reading hello: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	p, err := packet.Unmarshal(data)
	if err != nil {
		return hello, fmt.Errorf("%w: %w", ErrBadHello, err)
	}
	if err := packet.Decode(p, packet.OpcodeHello, &hello); err != nil {
		return hello, fmt.Errorf("%w: %w", ErrBadHello, err)
	}
	if hello.Instance && hello.ConnectKey == 0 {
		return hello, fmt.Errorf("%w: instance hello without connect key", ErrBadHello)
	}
	if !hello.Instance && hello.Account == "" {
		return hello, fmt.Errorf("%w: missing account", ErrBadHello)
	}
	return hello, nil
}

func (m *ConnectionManager) runSession(ctx context.Context, conn *websocket.Conn, addr string, hello packet.Hello) error {
	id, err := m.world.Authenticate(ctx, hello.Account, addr)
	if err != nil {
		m.writeAuthFailed(conn)
		m.closeWith(conn, websocket.ClosePolicyViolation, "authentication failed")
		return fmt.Errorf("authenticating %q: %w", hello.Account, err)
	}

	opts := []session.SessionOpt{
		session.WithAccountName(hello.Account),
		session.WithAddress(addr),
		session.WithTimeout(m.world.SessionTimeout()),
		session.WithConnectKey(hello.ConnectKey),
	}
	if m.handler != nil {
		opts = append(opts, session.WithHandler(m.handler))
	}
	s := session.New(id, m.sink, opts...)

	out := make(chan []byte, m.sendBuffer)
	unsubscribe, err := m.bus.Subscribe(messaging.SessionSubject(id), func(data []byte) {
		select {
		case out <- data:
		default:
			s.Kick("send buffer full")
		}
	})
	if err != nil {
		m.closeWith(conn, websocket.CloseInternalServerErr, "")
		return fmt.Errorf("subscribing session %d: %w", id, err)
	}
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.writeLoop(ctx, conn, out, s.Done())
	}()

	m.world.AddSession(s)
	slog.InfoContext(ctx, "session connected", "account", id, "name", hello.Account, "addr", addr, "conn", s.ConnID())

	m.readLoop(conn, s.QueuePacket)
	s.Kick("connection closed")
	wg.Wait()

	slog.InfoContext(ctx, "session disconnected", "account", id, "conn", s.ConnID())
	return nil
}

func (m *ConnectionManager) runInstance(ctx context.Context, conn *websocket.Conn, key uint64) error {
	sock := newInstanceSocket(key)
	m.world.AddInstanceSocket(sock)

	timer := time.NewTimer(m.linkTimeout)
	defer timer.Stop()

	var s *session.Session
	select {
	case s = <-sock.linked:
	case <-sock.closed:
		m.closeWith(conn, websocket.ClosePolicyViolation, "unknown connect key")
		return fmt.Errorf("%w: %d", ErrUnknownConnectKey, key)
	case <-timer.C:
		m.closeWith(conn, websocket.ClosePolicyViolation, "link timeout")
		return fmt.Errorf("linking instance socket %d: timed out", key)
	case <-ctx.Done():
		m.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return nil
	}

	slog.InfoContext(ctx, "instance socket linked", "account", s.AccountID(), "connect_key", key)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-s.Done():
			m.closeWith(conn, websocket.CloseNormalClosure, "session ended")
		case <-sock.closed:
			m.closeWith(conn, websocket.CloseNormalClosure, "")
		case <-ctx.Done():
			m.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		case <-stop:
			_ = conn.Close()
		}
	}()

	m.readLoop(conn, s.QueuePacket)
	close(stop)
	wg.Wait()
	return nil
}

// readLoop forwards inbound frames until the connection fails. Frames that
// are not packets are dropped.
func (m *ConnectionManager) readLoop(conn *websocket.Conn, queue func(packet.Packet)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		p, err := packet.Unmarshal(data)
		if err != nil {
			slog.Warn("dropping malformed frame", "addr", conn.RemoteAddr().String(), "error", err)
			continue
		}
		queue(p)
	}
}

func (m *ConnectionManager) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case data := <-out:
			if err := m.write(conn, data); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			m.drain(conn, out)
			m.closeWith(conn, websocket.CloseNormalClosure, "kicked")
			return
		case <-ctx.Done():
			m.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// drain keeps relaying for a short grace period so the kick reason, which is
// published just before the session closes, reaches the client ahead of the
// close frame.
func (m *ConnectionManager) drain(conn *websocket.Conn, out <-chan []byte) {
	grace := time.NewTimer(m.kickGrace)
	defer grace.Stop()
	for {
		select {
		case data := <-out:
			if err := m.write(conn, data); err != nil {
				return
			}
		case <-grace.C:
			return
		}
	}
}

func (m *ConnectionManager) write(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func (m *ConnectionManager) writeAuthFailed(conn *websocket.Conn) {
	data, err := packet.MustEncode(packet.OpcodeAuthResponse, packet.AuthResponse{Result: packet.AuthFailed}).Marshal()
	if err != nil {
		return
	}
	_ = m.write(conn, data)
}

func (m *ConnectionManager) closeWith(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(m.writeTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	_ = conn.Close()
}

// instanceSocket is a secondary connection waiting for the world to pair it
// with a session.
type instanceSocket struct {
	key       uint64
	linked    chan *session.Session
	closed    chan struct{}
	closeOnce sync.Once
}

func newInstanceSocket(key uint64) *instanceSocket {
	return &instanceSocket{
		key:    key,
		linked: make(chan *session.Session, 1),
		closed: make(chan struct{}),
	}
}

func (i *instanceSocket) ConnectKey() uint64 { return i.key }

func (i *instanceSocket) Link(s *session.Session) {
	select {
	case i.linked <- s:
	default:
	}
}

func (i *instanceSocket) Close() error {
	i.closeOnce.Do(func() { close(i.closed) })
	return nil
}
