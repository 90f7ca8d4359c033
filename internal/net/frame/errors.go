package frame

import (
	"errors"
	"fmt"
)

// ErrShortPayload is returned by Reader when a read runs past the payload.
var ErrShortPayload = errors.New("frame: read past end of payload")

// EncodingRangeError reports a value that cannot be represented in the wire
// width or variant it was written with.
type EncodingRangeError struct {
	Field  string
	Value  int64
	Min    int64
	Max    int64
	Reason string
}

func (e *EncodingRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("frame: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("frame: %s value %d outside [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// ProtocolStateError reports a builder or reader call made in the wrong mode,
// such as a byte write while bit mode is active.
type ProtocolStateError struct {
	Op     string
	Reason string
}

func (e *ProtocolStateError) Error() string {
	return fmt.Sprintf("frame: %s: %s", e.Op, e.Reason)
}

// FrameTooLargeError reports a payload that does not fit its length prefix.
type FrameTooLargeError struct {
	Opcode  uint8
	Framing Framing
	Size    int
	Limit   int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame: opcode %d payload of %d bytes exceeds %s limit %d", e.Opcode, e.Size, e.Framing, e.Limit)
}
