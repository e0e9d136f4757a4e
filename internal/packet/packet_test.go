package packet

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestEncode_SmallUpdateIsPlain(t *testing.T) {
	p, err := Encode(OpcodeUpdateObject, ChatBroadcast{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "opcode", p.Opcode, OpcodeUpdateObject)

	var out ChatBroadcast
	if err := Decode(p, OpcodeUpdateObject, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "text", out.Text, "hello")
}

func TestEncode_LargeUpdateIsCompressed(t *testing.T) {
	text := strings.Repeat("block ", 1000)
	p, err := Encode(OpcodeUpdateObject, ChatBroadcast{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "opcode", p.Opcode, OpcodeCompressedUpdateObject)
	if len(p.Body) >= len(text) {
		t.Errorf("expected compressed body to be smaller than %d, got %d", len(text), len(p.Body))
	}

	var out ChatBroadcast
	if err := Decode(p, OpcodeUpdateObject, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "text", out.Text, text)
}

func TestEncode_NonCompressibleOpcodeStaysPlain(t *testing.T) {
	p, err := Encode(OpcodeChatBroadcast, ChatBroadcast{Text: strings.Repeat("x", 4096)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "opcode", p.Opcode, OpcodeChatBroadcast)
}

func TestDecode_OpcodeMismatch(t *testing.T) {
	p := MustEncode(OpcodeMotd, Motd{Lines: []string{"hi"}})
	var out ChatBroadcast
	err := Decode(p, OpcodeChatBroadcast, &out)
	testutil.AssertErrorContains(t, err, "opcode mismatch")
}

func TestPacket_Framing(t *testing.T) {
	p := MustEncode(OpcodeAuthWaitQueue, AuthWaitQueueMsg{Position: 3})
	b, err := p.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var msg AuthWaitQueueMsg
	if err := Decode(got, OpcodeAuthWaitQueue, &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "position", msg.Position, 3)
}
