// Package palette composes the client's visible map area out of reusable
// terrain chunks.
//
// A palette is a 13x13 grid of local cells on each of the 4 planes. Every
// cell either names a source chunk and a rotation or is empty, which the
// client renders as void. Because cells are addressed locally, one source
// chunk may appear in several cells and rotations, which is how instanced
// areas are assembled from shared terrain.
package palette

import (
	"fmt"

	"gridhold/server/internal/world"
)

const (
	// Size is the side of the grid in cells.
	Size = world.ViewChunks
	// Planes is the number of grid layers.
	Planes = world.Planes
	// Cells is the total number of grid cells.
	Cells = Size * Size * Planes

	// Rotations is the number of quarter turns a chunk may be placed at.
	Rotations = 4
	// MaxChunkX and MaxChunkY bound the source chunk coordinates so that
	// they fit their packed fields.
	MaxChunkX = 1<<9 - 1
	MaxChunkY = 1<<10 - 1
)

// Cell addresses one local grid position.
type Cell struct {
	X int
	Y int
}

// Tile names the source chunk mapped into a cell.
type Tile struct {
	ChunkX   int
	ChunkY   int
	Plane    int
	Rotation int
}

// Validate checks that every field fits its packed width.
func (t Tile) Validate() error {
	switch {
	case t.ChunkX < 0 || t.ChunkX > MaxChunkX:
		return fmt.Errorf("chunk x %d outside [0, %d]", t.ChunkX, MaxChunkX)
	case t.ChunkY < 0 || t.ChunkY > MaxChunkY:
		return fmt.Errorf("chunk y %d outside [0, %d]", t.ChunkY, MaxChunkY)
	case t.Plane < 0 || t.Plane >= Planes:
		return fmt.Errorf("plane %d outside [0, %d)", t.Plane, Planes)
	case t.Rotation < 0 || t.Rotation >= Rotations:
		return fmt.Errorf("rotation %d outside [0, %d)", t.Rotation, Rotations)
	}
	return nil
}

// ChunkResolver supplies the tile for a cell on a plane, or false when the
// cell is empty. Implementations wrap the terrain data.
type ChunkResolver interface {
	Resolve(cell Cell, plane int) (Tile, bool)
}

// ResolverFunc adapts a function into a ChunkResolver.
type ResolverFunc func(cell Cell, plane int) (Tile, bool)

func (f ResolverFunc) Resolve(cell Cell, plane int) (Tile, bool) {
	if f == nil {
		return Tile{}, false
	}
	return f(cell, plane)
}

type slot struct {
	tile    Tile
	present bool
}

// Palette is an immutable grid built by Build. A new palette replaces the
// previous one whenever the client's view moves.
type Palette struct {
	center world.ChunkCoordinate
	grid   [Planes][Size][Size]slot
	filled int
}

// Build asks resolver for every cell on every plane. center is the chunk
// the client treats as the middle of the view.
func Build(center world.ChunkCoordinate, resolver ChunkResolver) (*Palette, error) {
	p := &Palette{center: center}
	if resolver == nil {
		return p, nil
	}
	for plane := 0; plane < Planes; plane++ {
		for x := 0; x < Size; x++ {
			for y := 0; y < Size; y++ {
				tile, ok := resolver.Resolve(Cell{X: x, Y: y}, plane)
				if !ok {
					continue
				}
				if err := tile.Validate(); err != nil {
					return nil, fmt.Errorf("palette cell (%d, %d, %d): %w", x, y, plane, err)
				}
				p.grid[plane][x][y] = slot{tile: tile, present: true}
				p.filled++
			}
		}
	}
	return p, nil
}

// Center returns the chunk at the middle of the view.
func (p *Palette) Center() world.ChunkCoordinate {
	return p.center
}

// Populated returns how many cells carry a tile.
func (p *Palette) Populated() int {
	return p.filled
}

// TileAt returns the tile in a cell. Coordinates outside the grid are a
// caller bug and return *BoundsError.
func (p *Palette) TileAt(x, y, plane int) (Tile, bool, error) {
	if x < 0 || x >= Size || y < 0 || y >= Size || plane < 0 || plane >= Planes {
		return Tile{}, false, &BoundsError{X: x, Y: y, Plane: plane}
	}
	s := p.grid[plane][x][y]
	return s.tile, s.present, nil
}

// BoundsError reports a lookup outside the 13x13x4 grid.
type BoundsError struct {
	X     int
	Y     int
	Plane int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("palette: cell (%d, %d, %d) outside %dx%dx%d grid", e.X, e.Y, e.Plane, Size, Size, Planes)
}
