package terrain

import (
	"testing"

	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
)

func TestStaticResolverMapsWorldChunks(t *testing.T) {
	index := NewChunkSet()
	index.AddRegion(world.RegionCoordinate{X: 50, Y: 50}, 0)
	if index.Len() != 64 {
		t.Fatalf("expected 64 chunks in one region plane, got %d", index.Len())
	}

	center := world.Position{X: 3222, Y: 3218}.Chunk()
	p, err := palette.Build(center, Static(index, center))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tile, ok, err := p.TileAt(6, 6, 0)
	if err != nil || !ok {
		t.Fatalf("expected center cell populated, ok=%v err=%v", ok, err)
	}
	if tile.ChunkX != center.X || tile.ChunkY != center.Y || tile.Rotation != 0 {
		t.Fatalf("expected center cell to map chunk %+v, got %+v", center, tile)
	}

	// Region 50 spans chunks 400..407; view base is 396, so cells 0..3 fall
	// outside the indexed region.
	if _, ok, _ := p.TileAt(3, 6, 0); ok {
		t.Fatalf("expected cell outside the indexed region to be empty")
	}
	if _, ok, _ := p.TileAt(4, 4, 0); !ok {
		t.Fatalf("expected cell (4, 4) to map chunk 400,400")
	}
	if _, ok, _ := p.TileAt(6, 6, 1); ok {
		t.Fatalf("expected plane 1 to be empty")
	}
	if got := p.Populated(); got != 8*8 {
		t.Fatalf("expected 64 populated cells, got %d", got)
	}
}

func TestLayoutPlacesRotatedCopies(t *testing.T) {
	layout := NewLayout()
	source := world.ChunkCoordinate{X: 280, Y: 630}
	if err := layout.Fill(palette.Cell{X: 5, Y: 5}, palette.Cell{X: 7, Y: 7}, 0, source, 2); err != nil {
		t.Fatalf("unexpected fill error: %v", err)
	}
	layout.Clear(palette.Cell{X: 6, Y: 6}, 0)

	p, err := palette.Build(world.ChunkCoordinate{X: 100, Y: 100}, layout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Populated() != 8 {
		t.Fatalf("expected 8 populated cells, got %d", p.Populated())
	}
	tile, ok, _ := p.TileAt(5, 7, 0)
	if !ok || tile.ChunkX != 280 || tile.ChunkY != 630 || tile.Rotation != 2 {
		t.Fatalf("unexpected tile %+v (ok=%v)", tile, ok)
	}

	if err := layout.Place(palette.Cell{X: 13, Y: 0}, 0, palette.Tile{}); err == nil {
		t.Fatalf("expected out of grid placement to fail")
	}
	if err := layout.Place(palette.Cell{X: 0, Y: 0}, 0, palette.Tile{Rotation: 4}); err == nil {
		t.Fatalf("expected invalid rotation to fail")
	}
}

func TestRotateWraps(t *testing.T) {
	tile := palette.Tile{Rotation: 3}
	if got := Rotate(tile, 1).Rotation; got != 0 {
		t.Fatalf("expected rotation 0, got %d", got)
	}
	if got := Rotate(tile, -5).Rotation; got != 2 {
		t.Fatalf("expected rotation 2, got %d", got)
	}
}
