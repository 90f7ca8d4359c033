// Package frame builds and parses the frames of the game wire protocol.
//
// A frame is a one byte opcode, an optional length prefix, and a payload.
// Payload fields are integers in one of the encodings listed in Variants,
// newline terminated strings, raw bytes, or bit-packed spans.
package frame

import (
	"encoding/binary"
	"fmt"
)

// Framing selects how the payload length is communicated.
type Framing uint8

const (
	// FixedLength frames carry no prefix; both ends know the size per opcode.
	FixedLength Framing = iota
	// VariableByte frames carry a one byte length prefix.
	VariableByte
	// VariableShort frames carry a two byte big-endian length prefix.
	VariableShort
)

func (f Framing) String() string {
	switch f {
	case FixedLength:
		return "fixed"
	case VariableByte:
		return "var-byte"
	case VariableShort:
		return "var-short"
	default:
		return fmt.Sprintf("framing(%d)", uint8(f))
	}
}

// PrefixSize is the number of length bytes following the opcode.
func (f Framing) PrefixSize() int {
	switch f {
	case VariableByte:
		return 1
	case VariableShort:
		return 2
	default:
		return 0
	}
}

// Limit is the largest payload the prefix can describe, or -1 when the
// framing has no prefix.
func (f Framing) Limit() int {
	switch f {
	case VariableByte:
		return 0xFF
	case VariableShort:
		return 0xFFFF
	default:
		return -1
	}
}

// Frame is one complete outbound message. Frames are immutable once built.
type Frame struct {
	opcode  uint8
	framing Framing
	wire    []byte
}

// Opcode returns the message type identifier.
func (f Frame) Opcode() uint8 { return f.opcode }

// Framing returns the frame's length framing.
func (f Frame) Framing() Framing { return f.framing }

// Payload returns the bytes after the opcode and length prefix.
func (f Frame) Payload() []byte {
	if len(f.wire) == 0 {
		return nil
	}
	return f.wire[1+f.framing.PrefixSize():]
}

// Bytes returns the full wire encoding.
func (f Frame) Bytes() []byte { return f.wire }

// Len returns the wire length including opcode and prefix.
func (f Frame) Len() int { return len(f.wire) }

// Parse decodes one frame from the front of data. fixedSize is the payload
// size for FixedLength framing and ignored otherwise. It returns the frame
// and the number of bytes consumed.
func Parse(data []byte, framing Framing, fixedSize int) (Frame, int, error) {
	if len(data) < 1 {
		return Frame{}, 0, ErrShortPayload
	}
	header := 1 + framing.PrefixSize()
	if len(data) < header {
		return Frame{}, 0, ErrShortPayload
	}
	var size int
	switch framing {
	case VariableByte:
		size = int(data[1])
	case VariableShort:
		size = int(binary.BigEndian.Uint16(data[1:3]))
	default:
		size = fixedSize
	}
	if size < 0 || len(data) < header+size {
		return Frame{}, 0, ErrShortPayload
	}
	wire := make([]byte, header+size)
	copy(wire, data)
	return Frame{opcode: data[0], framing: framing, wire: wire}, header + size, nil
}
