package command

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-worldserver/internal/listener"
)

type ListenerType int

const (
	ListenerTypeWebsocket ListenerType = iota
)

func (lt *ListenerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "websocket", "ws":
		*lt = ListenerTypeWebsocket
	default:
		return fmt.Errorf("unknown listener type: %s", text)
	}
	return nil
}

type ListenerConfig struct {
	Protocol       ListenerType `json:"protocol"`
	Host           string       `json:"host,omitempty"`
	Port           uint16       `json:"port"`
	Path           string       `json:"path,omitempty"`
	AllowedOrigins []string     `json:"allowed_origins,omitempty"`
}

func (cl *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}
	if cl.Path != "" && !strings.HasPrefix(cl.Path, "/") {
		el.Add(fmt.Errorf("path %q must start with /", cl.Path))
	}

	return el.Err()
}

func (cl *ListenerConfig) BuildListener(cm *listener.ConnectionManager) (*listener.WebsocketListener, error) {
	switch cl.Protocol {
	case ListenerTypeWebsocket:
		var opts []listener.WebsocketListenerOpt
		if cl.Host != "" {
			opts = append(opts, listener.WithListenHost(cl.Host))
		}
		if cl.Path != "" {
			opts = append(opts, listener.WithPath(cl.Path))
		}
		if len(cl.AllowedOrigins) > 0 {
			opts = append(opts, listener.WithAllowedOrigins(cl.AllowedOrigins...))
		}
		return listener.NewWebsocketListener(cl.Port, cm, opts...), nil
	default:
		return nil, fmt.Errorf("unknown listener type: %v", cl.Protocol)
	}
}
