package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-worldserver/internal/packet"
)

func startTestServer(t *testing.T) *NatsServer {
	t.Helper()
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Start(ctx); err != nil {
			t.Errorf("server: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-s.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("server not ready")
	}
	return s
}

func TestPublisher_DeliversToSessionSubject(t *testing.T) {
	s := startTestServer(t)
	received := make(chan []byte, 1)
	unsubscribe, err := s.Subscribe(SessionSubject(7), func(data []byte) {
		received <- data
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	pub := NewPublisher(s)
	sent := packet.MustEncode(packet.OpcodeChatBroadcast, packet.ChatBroadcast{Text: "hello"})
	if err := pub.SendPacket(7, sent); err != nil {
		t.Fatal(err)
	}
	if err := pub.SendPacket(8, sent); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-received:
		got, err := packet.Unmarshal(data)
		if err != nil {
			t.Fatal(err)
		}
		var msg packet.ChatBroadcast
		if err := packet.Decode(got, packet.OpcodeChatBroadcast, &msg); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, "text", msg.Text, "hello")
	case <-time.After(5 * time.Second):
		t.Fatal("nothing delivered")
	}
}

func TestNatsServer_NotStarted(t *testing.T) {
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Publish("x", nil)
	testutil.AssertErrorContains(t, err, "not started")
	_, err = s.Subscribe("x", func([]byte) {})
	testutil.AssertErrorContains(t, err, "not started")
}

type failingBroker struct{}

func (failingBroker) Publish(string, []byte) error { return errors.New("broker down") }

func TestPublisher_BrokerFailure(t *testing.T) {
	err := NewPublisher(failingBroker{}).SendPacket(3, packet.MustEncode(packet.OpcodeMotd, packet.Motd{}))
	testutil.AssertErrorContains(t, err, "publishing to account 3")
	testutil.AssertErrorContains(t, err, "broker down")
}

func TestSessionSubject(t *testing.T) {
	testutil.AssertEqual(t, "subject", SessionSubject(42), "session.42")
}
