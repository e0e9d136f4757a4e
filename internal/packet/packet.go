package packet

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// CompressThreshold is the body size above which compressible packets are
// sent in their compressed form.
const CompressThreshold = 1024

var ErrOpcodeMismatch = errors.New("opcode mismatch")

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Packet is an opaque block handed to the network sink.
type Packet struct {
	Opcode Opcode `msgpack:"op"`
	Body   []byte `msgpack:"body"`
}

// Encode serialises v as the body of a packet with the given opcode.
func Encode(op Opcode, v any) (Packet, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return Packet{}, fmt.Errorf("encoding %s: %w", op, err)
	}

	if c, ok := compressed[op]; ok && len(body) > CompressThreshold {
		return Packet{Opcode: c, Body: encoder.EncodeAll(body, nil)}, nil
	}
	return Packet{Opcode: op, Body: body}, nil
}

// MustEncode is Encode for message types that always serialise.
func MustEncode(op Opcode, v any) Packet {
	p, err := Encode(op, v)
	if err != nil {
		panic(err)
	}
	return p
}

// Decode reads the body of p into v, decompressing when needed. op is the
// uncompressed opcode the caller expects.
func Decode(p Packet, op Opcode, v any) error {
	body := p.Body
	plain, isCompressed := p.Opcode.uncompressed()
	if plain != op {
		return fmt.Errorf("%w: got %s, want %s", ErrOpcodeMismatch, p.Opcode, op)
	}
	if isCompressed {
		var err error
		body, err = decoder.DecodeAll(p.Body, nil)
		if err != nil {
			return fmt.Errorf("decompressing %s: %w", p.Opcode, err)
		}
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", op, err)
	}
	return nil
}

// Marshal frames the packet for the wire.
func (p Packet) Marshal() ([]byte, error) {
	return msgpack.Marshal(&p)
}

// Unmarshal reads a framed packet.
func Unmarshal(b []byte) (Packet, error) {
	var p Packet
	err := msgpack.Unmarshal(b, &p)
	return p, err
}
