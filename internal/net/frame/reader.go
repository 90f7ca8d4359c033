package frame

import "bytes"

// Reader decodes a payload written by Builder. Like Builder it keeps the
// first error and turns later reads into zero-valued no-ops.
type Reader struct {
	data   []byte
	pos    int
	bitPos int
	inBits bool
	err    error
}

// NewReader reads from payload.
func NewReader(payload []byte) *Reader {
	return &Reader{data: payload}
}

func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) byteMode(op string) bool {
	if r.err != nil {
		return false
	}
	if r.inBits {
		r.fail(&ProtocolStateError{Op: op, Reason: "byte read while bit mode is active"})
		return false
	}
	return true
}

// Get reads an unsigned value of the given width and variant.
func (r *Reader) Get(w Width, v Variant) uint64 {
	if !r.byteMode("get") {
		return 0
	}
	u, err := decode(r.data[r.pos:], w, v)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.pos += int(w)
	return u
}

func (r *Reader) GetByte(v Variant) int {
	return int(r.Get(Width8, v))
}

func (r *Reader) GetShort(v Variant) int {
	return int(r.Get(Width16, v))
}

// GetSignedShort reads a 16-bit value as two's complement.
func (r *Reader) GetSignedShort(v Variant) int {
	return int(int16(r.Get(Width16, v)))
}

func (r *Reader) GetTriByte(v Variant) int {
	return int(r.Get(Width24, v))
}

func (r *Reader) GetInt(v Variant) int64 {
	return int64(r.Get(Width32, v))
}

// GetSignedInt reads a 32-bit value as two's complement.
func (r *Reader) GetSignedInt(v Variant) int64 {
	return int64(int32(r.Get(Width32, v)))
}

func (r *Reader) GetLong(v Variant) int64 {
	return int64(r.Get(Width64, v))
}

// GetSmart reads a smart integer written by Builder.PutSmart.
func (r *Reader) GetSmart() int {
	if !r.byteMode("get smart") {
		return 0
	}
	if r.Remaining() < 1 {
		r.fail(ErrShortPayload)
		return 0
	}
	if r.data[r.pos] < 0x80 {
		value := int(r.data[r.pos]) - SmartBias
		r.pos++
		return value
	}
	return int(r.Get(Width16, Plain)) - SmartShortOffset
}

// GetString reads up to and consuming the terminator byte.
func (r *Reader) GetString() string {
	if !r.byteMode("get string") {
		return ""
	}
	idx := bytes.IndexByte(r.data[r.pos:], StringTerminator)
	if idx < 0 {
		r.fail(ErrShortPayload)
		return ""
	}
	s := string(r.data[r.pos : r.pos+idx])
	r.pos += idx + 1
	return s
}

// GetBytes reads n raw bytes.
func (r *Reader) GetBytes(n int) []byte {
	if !r.byteMode("get bytes") {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.fail(ErrShortPayload)
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out
}

func (r *Reader) EnterBitMode() {
	if r.err != nil {
		return
	}
	if r.inBits {
		r.fail(&ProtocolStateError{Op: "enter bit mode", Reason: "bit mode already active"})
		return
	}
	r.inBits = true
	r.bitPos = r.pos * 8
}

// GetBits reads width bits, most significant bit first.
func (r *Reader) GetBits(width int) uint32 {
	if r.err != nil {
		return 0
	}
	if !r.inBits {
		r.fail(&ProtocolStateError{Op: "get bits", Reason: "bit mode is not active"})
		return 0
	}
	if width < 1 || width > 32 {
		r.fail(&EncodingRangeError{Field: "bit width", Value: int64(width), Min: 1, Max: 32})
		return 0
	}
	if r.bitPos+width > len(r.data)*8 {
		r.fail(ErrShortPayload)
		return 0
	}
	var value uint32
	for width > 0 {
		idx := r.bitPos >> 3
		offset := r.bitPos & 7
		free := 8 - offset
		n := width
		if n > free {
			n = free
		}
		chunk := uint32(r.data[idx]>>uint(free-n)) & (1<<uint(n) - 1)
		value = value<<uint(n) | chunk
		r.bitPos += n
		width -= n
	}
	return value
}

// ExitBitMode skips to the next byte boundary.
func (r *Reader) ExitBitMode() {
	if r.err != nil {
		return
	}
	if !r.inBits {
		r.fail(&ProtocolStateError{Op: "exit bit mode", Reason: "bit mode is not active"})
		return
	}
	r.pos = (r.bitPos + 7) / 8
	r.inBits = false
}
