// Package terrain provides chunk resolvers that feed palette construction.
package terrain

import (
	"fmt"
	"sync"

	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
)

// Index reports which source chunks carry terrain data.
type Index interface {
	HasChunk(c world.ChunkCoordinate, plane int) bool
}

type chunkKey struct {
	x, y, plane int
}

// ChunkSet is an in-memory Index. The zero value is empty; it is safe for
// concurrent readers once populated.
type ChunkSet struct {
	mu     sync.RWMutex
	chunks map[chunkKey]struct{}
}

// NewChunkSet returns an empty set.
func NewChunkSet() *ChunkSet {
	return &ChunkSet{chunks: make(map[chunkKey]struct{})}
}

// Add marks a chunk as carrying terrain.
func (s *ChunkSet) Add(c world.ChunkCoordinate, plane int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chunks == nil {
		s.chunks = make(map[chunkKey]struct{})
	}
	s.chunks[chunkKey{c.X, c.Y, plane}] = struct{}{}
}

// AddRegion marks every chunk of a 64x64 region on the given planes.
func (s *ChunkSet) AddRegion(r world.RegionCoordinate, planes ...int) {
	per := world.RegionSize / world.ChunkSize
	for _, plane := range planes {
		for dx := 0; dx < per; dx++ {
			for dy := 0; dy < per; dy++ {
				s.Add(world.ChunkCoordinate{X: r.X*per + dx, Y: r.Y*per + dy}, plane)
			}
		}
	}
}

func (s *ChunkSet) HasChunk(c world.ChunkCoordinate, plane int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[chunkKey{c.X, c.Y, plane}]
	return ok
}

// Len returns the number of chunks in the set.
func (s *ChunkSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Everywhere is an Index that reports terrain for every chunk.
type Everywhere struct{}

func (Everywhere) HasChunk(world.ChunkCoordinate, int) bool { return true }

// Static maps each cell of a view onto the world chunk at the same place,
// unrotated. Chunks the index does not know are left empty.
func Static(index Index, center world.ChunkCoordinate) palette.ChunkResolver {
	if index == nil {
		index = Everywhere{}
	}
	baseX := center.X - palette.Size/2
	baseY := center.Y - palette.Size/2
	return palette.ResolverFunc(func(cell palette.Cell, plane int) (palette.Tile, bool) {
		c := world.ChunkCoordinate{X: baseX + cell.X, Y: baseY + cell.Y}
		if c.X < 0 || c.Y < 0 || !index.HasChunk(c, plane) {
			return palette.Tile{}, false
		}
		return palette.Tile{ChunkX: c.X, ChunkY: c.Y, Plane: plane}, true
	})
}

// Layout is a hand-assembled palette source used for instanced areas.
// Placements are copied when the layout is resolved, so a Layout may be
// reused for many palettes.
type Layout struct {
	cells map[chunkKey]palette.Tile
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{cells: make(map[chunkKey]palette.Tile)}
}

// Place maps tile into the cell on the given plane.
func (l *Layout) Place(cell palette.Cell, plane int, tile palette.Tile) error {
	if cell.X < 0 || cell.X >= palette.Size || cell.Y < 0 || cell.Y >= palette.Size || plane < 0 || plane >= palette.Planes {
		return &palette.BoundsError{X: cell.X, Y: cell.Y, Plane: plane}
	}
	if err := tile.Validate(); err != nil {
		return fmt.Errorf("place cell (%d, %d, %d): %w", cell.X, cell.Y, plane, err)
	}
	l.cells[chunkKey{cell.X, cell.Y, plane}] = tile
	return nil
}

// Fill places the same source chunk in every cell of a rectangle, turning
// each copy by rotation quarter turns.
func (l *Layout) Fill(from, to palette.Cell, plane int, source world.ChunkCoordinate, rotation int) error {
	for x := from.X; x <= to.X; x++ {
		for y := from.Y; y <= to.Y; y++ {
			tile := palette.Tile{ChunkX: source.X, ChunkY: source.Y, Plane: plane, Rotation: rotation}
			if err := l.Place(palette.Cell{X: x, Y: y}, plane, tile); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear removes the placement for a cell.
func (l *Layout) Clear(cell palette.Cell, plane int) {
	delete(l.cells, chunkKey{cell.X, cell.Y, plane})
}

// Resolve implements palette.ChunkResolver.
func (l *Layout) Resolve(cell palette.Cell, plane int) (palette.Tile, bool) {
	tile, ok := l.cells[chunkKey{cell.X, cell.Y, plane}]
	return tile, ok
}

// Rotate turns a tile by additional quarter turns.
func Rotate(tile palette.Tile, quarterTurns int) palette.Tile {
	r := (tile.Rotation + quarterTurns) % palette.Rotations
	if r < 0 {
		r += palette.Rotations
	}
	tile.Rotation = r
	return tile
}
