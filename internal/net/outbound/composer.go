// Package outbound holds the catalogue of messages sent to game clients.
//
// A Composer targets one session. Every method builds exactly one frame (or
// a fixed sequence of frames for the composite operations) and hands it to
// the session's Writer before returning, so the order frames reach the
// session is the order the methods were called. A Composer is not safe for
// concurrent use; the simulation drives each one from a single goroutine.
package outbound

import (
	"fmt"

	"gridhold/server/internal/net/frame"
)

// Writer is the transmit side of a session. Implementations must deliver
// frames in the order Write is called.
type Writer interface {
	Write(f frame.Frame) error
}

// WriterFunc adapts a function into a Writer.
type WriterFunc func(f frame.Frame) error

func (fn WriterFunc) Write(f frame.Frame) error {
	if fn == nil {
		return nil
	}
	return fn(f)
}

// Recorder observes composed frames, typically for metrics.
type Recorder interface {
	FrameSent(name string, opcode uint8, size int)
	FrameRejected(name string, err error)
}

type nopRecorder struct{}

func (nopRecorder) FrameSent(string, uint8, int) {}
func (nopRecorder) FrameRejected(string, error)  {}

// Composer issues messages to one session.
type Composer struct {
	w   Writer
	rec Recorder
}

// New returns a composer writing to w. rec may be nil.
func New(w Writer, rec Recorder) *Composer {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Composer{w: w, rec: rec}
}

// send builds one frame with fill and writes it. A frame that fails to
// encode is dropped whole and never reaches the writer.
func (c *Composer) send(l Layout, fill func(b *frame.Builder)) error {
	f, err := c.build(l, fill)
	if err != nil {
		return err
	}
	return c.write(l, f)
}

// build encodes one frame without writing it. Messages made of several
// frames build all of them before writing any.
func (c *Composer) build(l Layout, fill func(b *frame.Builder)) (frame.Frame, error) {
	b := frame.Begin(l.Opcode, l.Framing, l.Size)
	if fill != nil {
		fill(b)
	}
	f, err := b.Finish()
	if err == nil && l.Framing == frame.FixedLength && len(f.Payload()) != l.Size {
		err = &frame.ProtocolStateError{
			Op:     "finish",
			Reason: fmt.Sprintf("fixed payload is %d bytes, expected %d", len(f.Payload()), l.Size),
		}
	}
	if err != nil {
		return frame.Frame{}, c.reject(l, err)
	}
	return f, nil
}

func (c *Composer) write(l Layout, f frame.Frame) error {
	if c.w == nil {
		return fmt.Errorf("send %s: no writer", l.Name)
	}
	if err := c.w.Write(f); err != nil {
		return fmt.Errorf("send %s: %w", l.Name, err)
	}
	c.rec.FrameSent(l.Name, l.Opcode, f.Len())
	return nil
}

func (c *Composer) reject(l Layout, err error) error {
	c.rec.FrameRejected(l.Name, err)
	return fmt.Errorf("compose %s: %w", l.Name, err)
}

// Item is one container entry. Count <= 0 is an empty slot and is sent as
// id 0, which the client reads as nothing.
type Item struct {
	ID    int
	Count int
}

// Empty reports whether the slot holds nothing.
func (i Item) Empty() bool {
	return i.Count <= 0
}

func (i Item) wireID() int {
	if i.Empty() {
		return 0
	}
	return i.ID + 1
}

func (i Item) wireCount() int {
	if i.Empty() {
		return 0
	}
	return i.Count
}

// SlotItem pairs an item with its container slot.
type SlotItem struct {
	Slot int
	Item Item
}

// largeCount is the count from which item counts need the extended form.
const largeCount = 255

func boolByte(v bool) int {
	if v {
		return 1
	}
	return 0
}
