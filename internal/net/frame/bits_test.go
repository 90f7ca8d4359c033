package frame

import (
	"errors"
	"testing"
)

func TestBitPackingRoundTrip(t *testing.T) {
	widths := []int{1, 26, 1, 26}
	values := []uint32{1, 0x2ABCDEF, 0, 0x1555555}

	b := Begin(241, VariableShort, 8)
	b.EnterBitMode()
	for i, w := range widths {
		b.PutBits(w, values[i])
	}
	b.ExitBitMode()
	f, err := b.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Payload()) != 7 {
		t.Fatalf("expected 7 bytes for 54 bits, got %d", len(f.Payload()))
	}

	r := NewReader(f.Payload())
	r.EnterBitMode()
	for i, w := range widths {
		if got := r.GetBits(w); got != values[i] {
			t.Fatalf("field %d: expected %#x, got %#x", i, values[i], got)
		}
	}
	r.ExitBitMode()
	if r.Err() != nil {
		t.Fatalf("unexpected read error: %v", r.Err())
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected payload to be consumed, %d bytes left", r.Remaining())
	}
}

func TestBitPackingLayout(t *testing.T) {
	b := Begin(1, FixedLength, 2)
	b.PutByte(Plain, 0xAA)
	b.EnterBitMode()
	b.PutBits(1, 1)
	b.PutBits(3, 0x5)
	b.PutBits(5, 0x1F)
	b.ExitBitMode()
	b.PutByte(Plain, 0x11)
	f, err := b.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xAA, 0xDF, 0x80, 0x11}
	got := f.Payload()
	if len(got) != len(want) {
		t.Fatalf("expected % x, got % x", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected % x, got % x", want, got)
		}
	}
}

func TestBitPackingMasksHighBits(t *testing.T) {
	b := Begin(1, FixedLength, 1)
	b.EnterBitMode()
	b.PutBits(4, 0xFFF3)
	b.ExitBitMode()
	f, err := b.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Payload()[0] != 0x30 {
		t.Fatalf("expected 0x30, got %#02x", f.Payload()[0])
	}
}

func TestBitModeStateErrors(t *testing.T) {
	var stateErr *ProtocolStateError

	t.Run("bits outside bit mode", func(t *testing.T) {
		b := Begin(1, FixedLength, 1)
		b.PutBits(1, 1)
		if _, err := b.Finish(); !errors.As(err, &stateErr) {
			t.Fatalf("expected ProtocolStateError, got %v", err)
		}
	})

	t.Run("byte write inside bit mode", func(t *testing.T) {
		b := Begin(1, FixedLength, 1)
		b.EnterBitMode()
		b.PutByte(Plain, 1)
		b.ExitBitMode()
		if _, err := b.Finish(); !errors.As(err, &stateErr) {
			t.Fatalf("expected ProtocolStateError, got %v", err)
		}
	})

	t.Run("nested enter", func(t *testing.T) {
		b := Begin(1, FixedLength, 1)
		b.EnterBitMode()
		b.EnterBitMode()
		if _, err := b.Finish(); !errors.As(err, &stateErr) {
			t.Fatalf("expected ProtocolStateError, got %v", err)
		}
	})

	t.Run("exit without enter", func(t *testing.T) {
		b := Begin(1, FixedLength, 1)
		b.ExitBitMode()
		if _, err := b.Finish(); !errors.As(err, &stateErr) {
			t.Fatalf("expected ProtocolStateError, got %v", err)
		}
	})

	t.Run("finish inside bit mode", func(t *testing.T) {
		b := Begin(1, FixedLength, 1)
		b.EnterBitMode()
		b.PutBits(3, 1)
		if _, err := b.Finish(); !errors.As(err, &stateErr) {
			t.Fatalf("expected ProtocolStateError, got %v", err)
		}
	})

	t.Run("invalid width", func(t *testing.T) {
		b := Begin(1, FixedLength, 1)
		b.EnterBitMode()
		b.PutBits(33, 1)
		var rangeErr *EncodingRangeError
		if _, err := b.Finish(); !errors.As(err, &rangeErr) {
			t.Fatalf("expected EncodingRangeError, got %v", err)
		}
	})
}
