package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

type WebsocketListener struct {
	host     string
	port     uint16
	path     string
	cm       *ConnectionManager
	upgrader websocket.Upgrader

	wg sync.WaitGroup
}

type WebsocketListenerOpt func(*WebsocketListener)

func WithListenHost(host string) WebsocketListenerOpt {
	return func(l *WebsocketListener) {
		l.host = host
	}
}

// WithPath sets the HTTP path clients upgrade on.
func WithPath(path string) WebsocketListenerOpt {
	return func(l *WebsocketListener) {
		l.path = path
	}
}

// WithAllowedOrigins restricts browser clients to the given origins. Requests
// without an Origin header are always accepted.
func WithAllowedOrigins(origins ...string) WebsocketListenerOpt {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(l *WebsocketListener) {
		l.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
}

func NewWebsocketListener(port uint16, cm *ConnectionManager, opts ...WebsocketListenerOpt) *WebsocketListener {
	l := &WebsocketListener{
		port: port,
		path: "/ws",
		cm:   cm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(l.host, fmt.Sprint(l.port)))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	// Hijacked connections outlive their request; they run under connCtx,
	// cancelled on shutdown.
	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelConns()

	svr := &http.Server{
		Handler:           l.Handler(connCtx),
		ReadHeaderTimeout: shutdownTimeout,
	}

	stopped := make(chan struct{})
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.WarnContext(ctx, "stopping websocket listener", "error", err)
			}
			cancelConns()
			l.wg.Wait()
		case <-done:
		}
	}()

	slog.InfoContext(ctx, "listening for websocket", "addr", ln.Addr().String(), "path", l.path)

	err = svr.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket on port %d: %w", l.port, err)
	}
	<-stopped
	return nil
}

// Handler serves websocket upgrades on the listener path. Every connection
// runs under ctx.
func (l *WebsocketListener) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(l.path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.WarnContext(ctx, "upgrading websocket", "remote", r.RemoteAddr, "error", err)
			return
		}

		l.wg.Add(1)
		defer l.wg.Done()

		if err := l.cm.AcceptConnection(ctx, conn, remoteIP(r.RemoteAddr)); err != nil {
			slog.WarnContext(ctx, "websocket connection", "remote", r.RemoteAddr, "error", err)
		}
	})
	return mux
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
