package messaging

import (
	"fmt"

	"github.com/pixil98/go-worldserver/internal/packet"
)

// Broker is the publishing side of the message bus.
type Broker interface {
	Publish(subject string, data []byte) error
}

// SessionSubject is the subject carrying the outbound packets of account.
func SessionSubject(account uint32) string {
	return fmt.Sprintf("session.%d", account)
}

// Publisher delivers session packets onto their account subject. It is the
// network sink handed to every session.
type Publisher struct {
	broker Broker
}

func NewPublisher(b Broker) *Publisher {
	return &Publisher{broker: b}
}

func (p *Publisher) SendPacket(account uint32, pk packet.Packet) error {
	data, err := pk.Marshal()
	if err != nil {
		return fmt.Errorf("framing %s: %w", pk.Opcode, err)
	}
	if err := p.broker.Publish(SessionSubject(account), data); err != nil {
		return fmt.Errorf("publishing to account %d: %w", account, err)
	}
	return nil
}
