package outbound

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"gridhold/server/internal/net/frame"
	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
)

type recordingWriter struct {
	mu     sync.Mutex
	frames []frame.Frame
}

func (w *recordingWriter) Write(f frame.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, f)
	return nil
}

func (w *recordingWriter) Frames() []frame.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]frame.Frame(nil), w.frames...)
}

type recordingRecorder struct {
	sent     []string
	rejected []string
}

func (r *recordingRecorder) FrameSent(name string, opcode uint8, size int) {
	r.sent = append(r.sent, name)
}

func (r *recordingRecorder) FrameRejected(name string, err error) {
	r.rejected = append(r.rejected, name)
}

func expectWire(t *testing.T, f frame.Frame, want []byte) {
	t.Helper()
	if !bytes.Equal(f.Bytes(), want) {
		t.Fatalf("expected wire % x, got % x", want, f.Bytes())
	}
}

func TestMessageLayouts(t *testing.T) {
	view := world.ViewFor(world.Position{X: 3222, Y: 3218})

	tests := []struct {
		name    string
		compose func(c *Composer) error
		want    [][]byte
	}{
		{
			name:    "skill update",
			compose: func(c *Composer) error { return c.Skill(0, 1000, 10) },
			want:    [][]byte{{134, 0x00, 0x03, 0xE8, 0x00, 0x00, 0x0A}},
		},
		{
			name:    "text message",
			compose: func(c *Composer) error { return c.Text("hi") },
			want:    [][]byte{{253, 3, 'h', 'i', 10}},
		},
		{
			name:    "region load",
			compose: func(c *Composer) error { return c.LoadRegion(view) },
			want:    [][]byte{{73, 0x92, 0x01, 0x01, 0x92}},
		},
		{
			name:    "details",
			compose: func(c *Composer) error { return c.Details(true, 5) },
			want:    [][]byte{{249, 0x81, 0x85, 0x80}, {107}},
		},
		{
			name: "slot items",
			compose: func(c *Composer) error {
				return c.UpdateSlots(3214, []SlotItem{
					{Slot: 0, Item: Item{ID: 995, Count: 300}},
					{Slot: 1},
				})
			},
			want: [][]byte{{34, 0x00, 14, 0x0C, 0x8E, 0x40, 0x03, 0xE4, 0xFF, 0x00, 0x00, 0x01, 0x2C, 0x41, 0x00, 0x00, 0x00}},
		},
		{
			name: "update items",
			compose: func(c *Composer) error {
				return c.UpdateItems(3214, []Item{{ID: 4151, Count: 1}, {}, {ID: 995, Count: 1000}})
			},
			want: [][]byte{{53, 0x00, 17, 0x0C, 0x8E, 0x00, 0x03, 0x01, 0xB8, 0x90, 0x00, 0x80, 0x80, 0xFF, 0x00, 0x00, 0xE8, 0x03, 0x64, 0x83}},
		},
		{
			name: "object place",
			compose: func(c *Composer) error {
				return c.PlaceObject(view, Object{ID: 1276, Type: 10, Face: 1, Position: world.Position{X: 3225, Y: 3220}})
			},
			want: [][]byte{{85, 0x4C, 0xC7}, {236, 0xFC, 0x04, 0x00, 0x57}},
		},
		{
			name: "object remove",
			compose: func(c *Composer) error {
				return c.RemoveObject(view, Object{Type: 10, Face: 5, Position: world.Position{X: 3225, Y: 3220}})
			},
			want: [][]byte{{85, 0x4C, 0xC7}, {64, 0xD7, 0x00}},
		},
		{
			name:    "interaction option",
			compose: func(c *Composer) error { return c.InteractionOption("Follow", 3, true) },
			want:    [][]byte{{104, 9, 0xFD, 0x80, 'F', 'o', 'l', 'l', 'o', 'w', 10}},
		},
		{
			name:    "interface string",
			compose: func(c *Composer) error { return c.InterfaceString(4443, "ok") },
			want:    [][]byte{{126, 0x00, 5, 'o', 'k', 10, 0x91, 0xDB}},
		},
		{
			name:    "camera shake",
			compose: func(c *Composer) error { return c.CameraShake(4) },
			want:    [][]byte{{35, 0, 4, 4, 4}},
		},
		{
			name:    "config toggle",
			compose: func(c *Composer) error { return c.ConfigToggle(173, 0x01020304) },
			want:    [][]byte{{87, 0xAD, 0x00, 0x03, 0x04, 0x01, 0x02}},
		},
		{
			name:    "friend",
			compose: func(c *Composer) error { return c.Friend(0x0102030405060708, 1) },
			want:    [][]byte{{50, 1, 2, 3, 4, 5, 6, 7, 8, 1}},
		},
		{
			name:    "empty ignore list",
			compose: func(c *Composer) error { return c.IgnoreList(nil) },
			want:    [][]byte{{214, 0x00, 0x00}},
		},
		{
			name:    "logout",
			compose: func(c *Composer) error { return c.Logout() },
			want:    [][]byte{{109}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := &recordingWriter{}
			if err := tc.compose(New(w, nil)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			frames := w.Frames()
			if len(frames) != len(tc.want) {
				t.Fatalf("expected %d frames, got %d", len(tc.want), len(frames))
			}
			for i := range frames {
				expectWire(t, frames[i], tc.want[i])
			}
		})
	}
}

func TestRegionConstructCarriesPaletteSpan(t *testing.T) {
	p, err := palette.Build(world.ChunkCoordinate{X: 402, Y: 402}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := &recordingWriter{}
	if err := New(w, nil).ConstructRegion(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := w.Frames()[0]
	wire := f.Bytes()
	if wire[0] != 241 || wire[1] != 0x00 || wire[2] != 89 {
		t.Fatalf("expected header f1 00 59, got % x", wire[:3])
	}
	payload := f.Payload()
	if payload[0] != 0x92 || payload[1] != 0x01 {
		t.Fatalf("expected little-endian center y first, got % x", payload[:2])
	}
	for i, b := range payload[2:87] {
		if b != 0 {
			t.Fatalf("expected empty presence bits, byte %d is %#02x", i, b)
		}
	}
	if payload[87] != 0x01 || payload[88] != 0x92 {
		t.Fatalf("expected big-endian center x last, got % x", payload[87:])
	}
}

func TestFailedMessagesNeverReachTheWriter(t *testing.T) {
	view := world.ViewFor(world.Position{X: 3222, Y: 3218})

	tests := []struct {
		name    string
		compose func(c *Composer) error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "experience outside 32 bits",
			compose: func(c *Composer) error { return c.Skill(0, 1<<33, 1) },
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name:    "interface id outside 16 bits",
			compose: func(c *Composer) error { return c.Interface(70000) },
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name:    "text with terminator",
			compose: func(c *Composer) error { return c.Text("a\nb") },
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name:    "text over var-byte limit",
			compose: func(c *Composer) error { return c.Text(strings.Repeat("x", 300)) },
			check: func(t *testing.T, err error) {
				var tooLarge *frame.FrameTooLargeError
				if !errors.As(err, &tooLarge) {
					t.Fatalf("expected FrameTooLargeError, got %v", err)
				}
			},
		},
		{
			name: "object outside view",
			compose: func(c *Composer) error {
				return c.PlaceObject(view, Object{ID: 1, Position: world.Position{X: 100, Y: 100}})
			},
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name: "object type too large for its config byte",
			compose: func(c *Composer) error {
				return c.PlaceObject(view, Object{ID: 1, Type: 70, Face: 1, Position: world.Position{X: 3225, Y: 3220}})
			},
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name: "removed object type too large for its config byte",
			compose: func(c *Composer) error {
				return c.RemoveObject(view, Object{Type: 70, Position: world.Position{X: 3225, Y: 3220}})
			},
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name: "negative object id",
			compose: func(c *Composer) error {
				return c.PlaceObject(view, Object{ID: -1, Type: 10, Position: world.Position{X: 3225, Y: 3220}})
			},
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) || rangeErr.Min != 0 {
					t.Fatalf("expected unsigned EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name:    "negative interface id",
			compose: func(c *Composer) error { return c.Interface(-1) },
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) || rangeErr.Value != -1 {
					t.Fatalf("expected EncodingRangeError for -1, got %v", err)
				}
			},
		},
		{
			name: "negative item id",
			compose: func(c *Composer) error {
				return c.UpdateItem(3214, 0, Item{ID: -5, Count: 1})
			},
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
		{
			name: "slot beyond smart range",
			compose: func(c *Composer) error {
				return c.UpdateItem(3214, frame.SmartMax+1, Item{ID: 1, Count: 1})
			},
			check: func(t *testing.T, err error) {
				var rangeErr *frame.EncodingRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected EncodingRangeError, got %v", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := &recordingWriter{}
			rec := &recordingRecorder{}
			err := tc.compose(New(w, rec))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.HasPrefix(err.Error(), "compose ") {
				t.Fatalf("expected compose prefix, got %q", err.Error())
			}
			tc.check(t, err)
			if n := len(w.Frames()); n != 0 {
				t.Fatalf("expected no frames written, got %d", n)
			}
			if len(rec.rejected) != 1 || len(rec.sent) != 0 {
				t.Fatalf("expected one rejection and no sends, got %v / %v", rec.rejected, rec.sent)
			}
		})
	}
}

func TestObjectFramesAreWrittenTogether(t *testing.T) {
	view := world.ViewFor(world.Position{X: 3222, Y: 3218})
	w := &recordingWriter{}
	c := New(w, nil)
	if err := c.PlaceObject(view, Object{ID: 1276, Type: 10, Face: 1, Position: world.Position{X: 3225, Y: 3220}}); err != nil {
		t.Fatalf("place object: %v", err)
	}
	if err := c.PlaceObject(view, Object{ID: 1276, Type: 70, Position: world.Position{X: 3225, Y: 3220}}); err == nil {
		t.Fatalf("expected oversized object type to fail")
	}
	frames := w.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected only the first object's two frames, got %d", len(frames))
	}
	if frames[0].Opcode() != LayoutCoordinates.Opcode || frames[1].Opcode() != LayoutObjectPlace.Opcode {
		t.Fatalf("expected coordinates then object-place, got %d then %d", frames[0].Opcode(), frames[1].Opcode())
	}
}

func TestWriterErrorIsReturned(t *testing.T) {
	sentinel := errors.New("closed")
	c := New(WriterFunc(func(frame.Frame) error { return sentinel }), nil)
	if err := c.CameraReset(); !errors.Is(err, sentinel) {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestPerSessionOrderingUnderConcurrentComposition(t *testing.T) {
	a := &recordingWriter{}
	b := &recordingWriter{}
	other := New(b, nil)

	const noise = 500
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < noise; i++ {
			if err := other.Text("noise"); err != nil {
				t.Errorf("unexpected error on other session: %v", err)
				return
			}
		}
	}()

	close(start)
	c := New(a, nil)
	if err := c.Skill(0, 1000, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Text("hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wg.Wait()

	frames := a.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames on the session, got %d", len(frames))
	}
	if frames[0].Opcode() != LayoutSkill.Opcode || frames[1].Opcode() != LayoutText.Opcode {
		t.Fatalf("expected skill then text, got opcodes %d, %d", frames[0].Opcode(), frames[1].Opcode())
	}
	if n := len(b.Frames()); n != noise {
		t.Fatalf("expected %d frames on the other session, got %d", noise, n)
	}
}

type fixedSkills struct {
	levels []int
}

func (s fixedSkills) Count() int                 { return len(s.levels) }
func (s fixedSkills) Level(skill int) int        { return s.levels[skill] }
func (s fixedSkills) Experience(skill int) int64 { return int64(s.levels[skill]) * 100 }

func TestCompositesIssueInOrder(t *testing.T) {
	t.Run("login", func(t *testing.T) {
		w := &recordingWriter{}
		rec := &recordingRecorder{}
		login := Login{Index: 1, Welcome: "Welcome.", View: world.ViewFor(world.Position{X: 3222, Y: 3218})}
		if err := New(w, rec).SendLogin(login); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []uint8{249, 107, 253, 73}
		for range SidebarTabs {
			want = append(want, LayoutSidebarInterface.Opcode)
		}
		frames := w.Frames()
		if len(frames) != len(want) {
			t.Fatalf("expected %d frames, got %d", len(want), len(frames))
		}
		for i, f := range frames {
			if f.Opcode() != want[i] {
				t.Fatalf("frame %d: expected opcode %d, got %d", i, want[i], f.Opcode())
			}
		}
		if len(rec.sent) != len(want) {
			t.Fatalf("expected %d recorded sends, got %d", len(want), len(rec.sent))
		}
	})

	t.Run("skills", func(t *testing.T) {
		w := &recordingWriter{}
		levels := make([]int, 21)
		for i := range levels {
			levels[i] = i + 1
		}
		if err := New(w, nil).Skills(fixedSkills{levels: levels}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		frames := w.Frames()
		if len(frames) != 21 {
			t.Fatalf("expected 21 frames, got %d", len(frames))
		}
		for i, f := range frames {
			p := f.Payload()
			if int(p[0]) != i || int(p[5]) != i+1 {
				t.Fatalf("frame %d: expected skill %d level %d, got % x", i, i, i+1, p)
			}
		}
	})
}

func TestCatalogueOpcodesAreUnique(t *testing.T) {
	seen := make(map[uint8]string, len(Catalogue))
	for _, l := range Catalogue {
		if prev, ok := seen[l.Opcode]; ok {
			t.Fatalf("opcode %d used by %s and %s", l.Opcode, prev, l.Name)
		}
		seen[l.Opcode] = l.Name
		got, ok := LayoutByOpcode(l.Opcode)
		if !ok || got.Name != l.Name {
			t.Fatalf("expected lookup of %d to return %s, got %+v", l.Opcode, l.Name, got)
		}
	}
	if _, ok := LayoutByOpcode(2); ok {
		t.Fatalf("expected unknown opcode lookup to fail")
	}
}

func TestCollidingOpcodesAreResolved(t *testing.T) {
	tests := []struct {
		layout Layout
		want   uint8
	}{
		{LayoutChatSettings, 206},
		{LayoutCoordinates, 85},
		{LayoutInitializePlayer, 249},
		{LayoutFriend, 50},
		{LayoutInterface, 97},
	}
	for _, tc := range tests {
		if tc.layout.Opcode != tc.want {
			t.Fatalf("expected %s on opcode %d, got %d", tc.layout.Name, tc.want, tc.layout.Opcode)
		}
	}
}

func TestNameEncoding(t *testing.T) {
	if EncodeName("Bob") != EncodeName("bob") {
		t.Fatalf("expected case-insensitive encoding")
	}
	for _, name := range []string{"zezima", "a", "player_1", "abcdefghijkl"} {
		if got := DecodeName(EncodeName(name)); got != name {
			t.Fatalf("expected %q after round trip, got %q", name, got)
		}
	}
	if got := DecodeName(0); got != "invalid_name" {
		t.Fatalf("expected invalid_name, got %q", got)
	}
}
