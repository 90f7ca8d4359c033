package frame

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// StringTerminator ends every string field.
const StringTerminator = 10

// Smart integers use one byte for values in [SmartByteMin, SmartByteMax]
// (stored as value+SmartBias, high bit clear) and otherwise two bytes
// holding value+SmartShortOffset (high bit set).
const (
	SmartBias        = 64
	SmartShortOffset = 0xC000
	SmartByteMin     = -SmartBias
	SmartByteMax     = 0x7F - SmartBias
	SmartMin         = 0x8000 - SmartShortOffset
	SmartMax         = 0xFFFF - SmartShortOffset
)

const defaultCapacity = 16

// Builder accumulates one frame. It is not safe for concurrent use.
//
// The first failing write is remembered and every later write becomes a
// no-op; Finish reports that error and never yields a partial frame.
type Builder struct {
	opcode  uint8
	framing Framing
	buf     []byte
	header  int
	cursor  *BitCursor
	err     error
}

// BitCursor is the write position inside a bit-mode span.
type BitCursor struct {
	BytePos   int
	BitOffset int
}

func (c *BitCursor) bitPos() int {
	return c.BytePos*8 + c.BitOffset
}

func (c *BitCursor) advance(n int) {
	pos := c.bitPos() + n
	c.BytePos = pos >> 3
	c.BitOffset = pos & 7
}

// Begin starts a frame. sizeHint is the expected payload size and only
// affects allocation. For variable framings a zeroed length prefix is
// reserved right after the opcode and patched by Finish.
func Begin(opcode uint8, framing Framing, sizeHint int) *Builder {
	if sizeHint <= 0 {
		sizeHint = defaultCapacity
	}
	header := 1 + framing.PrefixSize()
	buf := make([]byte, header, header+sizeHint)
	buf[0] = opcode
	return &Builder{opcode: opcode, framing: framing, buf: buf, header: header}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

// Len returns the payload length written so far.
func (b *Builder) Len() int {
	return len(b.buf) - b.header
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) byteMode(op string) bool {
	if b.err != nil {
		return false
	}
	if b.cursor != nil {
		b.fail(&ProtocolStateError{Op: op, Reason: "byte write while bit mode is active"})
		return false
	}
	return true
}

// Put writes value using the given width and variant.
func (b *Builder) Put(w Width, v Variant, value int64) {
	if !b.byteMode("put") {
		return
	}
	out, err := encode(b.buf, w, v, value)
	if err != nil {
		b.fail(err)
		return
	}
	b.buf = out
}

// PutUnsigned writes value like Put but rejects negative values. Put
// accepts anything that fits the width as either signed or unsigned and
// sends negatives in two's complement; ids and counts the client reads as
// unsigned go through here instead.
func (b *Builder) PutUnsigned(w Width, v Variant, value int64) {
	if b.err == nil && value < 0 {
		_, hi := rangeFor(w)
		b.fail(&EncodingRangeError{Field: fmt.Sprintf("%s%d", v.Name, w.Bits()), Value: value, Min: 0, Max: hi})
		return
	}
	b.Put(w, v, value)
}

// PutUShort writes an unsigned 16-bit field, see PutUnsigned.
func (b *Builder) PutUShort(v Variant, value int) {
	b.PutUnsigned(Width16, v, int64(value))
}

func (b *Builder) PutByte(v Variant, value int) {
	b.Put(Width8, v, int64(value))
}

func (b *Builder) PutShort(v Variant, value int) {
	b.Put(Width16, v, int64(value))
}

func (b *Builder) PutTriByte(v Variant, value int) {
	b.Put(Width24, v, int64(value))
}

func (b *Builder) PutInt(v Variant, value int64) {
	b.Put(Width32, v, value)
}

func (b *Builder) PutLong(v Variant, value int64) {
	b.Put(Width64, v, value)
}

// PutSmart writes a smart integer, see SmartBias.
func (b *Builder) PutSmart(value int) {
	if !b.byteMode("put smart") {
		return
	}
	switch {
	case value >= SmartByteMin && value <= SmartByteMax:
		b.buf = append(b.buf, byte(value+SmartBias))
	case value >= SmartMin && value <= SmartMax:
		b.buf = binary.BigEndian.AppendUint16(b.buf, uint16(value+SmartShortOffset))
	default:
		b.fail(&EncodingRangeError{Field: "smart", Value: int64(value), Min: SmartMin, Max: SmartMax})
	}
}

// PutString writes s followed by the terminator byte.
func (b *Builder) PutString(s string) {
	if !b.byteMode("put string") {
		return
	}
	if strings.IndexByte(s, StringTerminator) >= 0 {
		b.fail(&EncodingRangeError{Field: "string", Reason: "contains the terminator byte 0x0a"})
		return
	}
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, StringTerminator)
}

// PutBytes copies length bytes of p starting at offset.
func (b *Builder) PutBytes(p []byte, offset, length int) {
	if !b.byteMode("put bytes") {
		return
	}
	if offset < 0 || length < 0 || offset+length > len(p) {
		b.fail(&EncodingRangeError{Field: "bytes", Value: int64(offset + length), Min: 0, Max: int64(len(p))})
		return
	}
	b.buf = append(b.buf, p[offset:offset+length]...)
}

// EnterBitMode starts a bit-packed span at the current byte boundary.
func (b *Builder) EnterBitMode() {
	if b.err != nil {
		return
	}
	if b.cursor != nil {
		b.fail(&ProtocolStateError{Op: "enter bit mode", Reason: "bit mode already active"})
		return
	}
	b.cursor = &BitCursor{BytePos: len(b.buf)}
}

// PutBits packs the low width bits of value, most significant bit first.
func (b *Builder) PutBits(width int, value uint32) {
	if b.err != nil {
		return
	}
	if b.cursor == nil {
		b.fail(&ProtocolStateError{Op: "put bits", Reason: "bit mode is not active"})
		return
	}
	if width < 1 || width > 32 {
		b.fail(&EncodingRangeError{Field: "bit width", Value: int64(width), Min: 1, Max: 32})
		return
	}
	for width > 0 {
		c := b.cursor
		for len(b.buf) <= c.BytePos {
			b.buf = append(b.buf, 0)
		}
		free := 8 - c.BitOffset
		n := width
		if n > free {
			n = free
		}
		chunk := (value >> uint(width-n)) & (1<<uint(n) - 1)
		b.buf[c.BytePos] |= byte(chunk << uint(free-n))
		c.advance(n)
		width -= n
	}
}

// ExitBitMode closes the span. A partly filled final byte keeps its
// remaining low bits zero and the next write starts on the following byte.
func (b *Builder) ExitBitMode() {
	if b.err != nil {
		return
	}
	if b.cursor == nil {
		b.fail(&ProtocolStateError{Op: "exit bit mode", Reason: "bit mode is not active"})
		return
	}
	end := b.cursor.BytePos
	if b.cursor.BitOffset != 0 {
		end++
	}
	for len(b.buf) < end {
		b.buf = append(b.buf, 0)
	}
	b.cursor = nil
}

// Finish patches the length prefix and returns the frame.
func (b *Builder) Finish() (Frame, error) {
	if b.err != nil {
		return Frame{}, b.err
	}
	if b.cursor != nil {
		return Frame{}, &ProtocolStateError{Op: "finish", Reason: "bit mode still active"}
	}
	size := b.Len()
	if limit := b.framing.Limit(); limit >= 0 && size > limit {
		return Frame{}, &FrameTooLargeError{Opcode: b.opcode, Framing: b.framing, Size: size, Limit: limit}
	}
	switch b.framing {
	case VariableByte:
		b.buf[1] = byte(size)
	case VariableShort:
		binary.BigEndian.PutUint16(b.buf[1:3], uint16(size))
	}
	wire := b.buf
	b.buf = nil
	b.err = &ProtocolStateError{Op: "finish", Reason: "frame already finished"}
	return Frame{opcode: b.opcode, framing: b.framing, wire: wire}, nil
}
