package palette

import (
	"gridhold/server/internal/net/frame"
	"gridhold/server/internal/world"
)

// PackedBits is the width of one present cell's packed field.
const PackedBits = 26

// Packed returns the 26-bit wire form of the tile: chunk x at bit 14,
// chunk y at bit 3, plane at bit 24, rotation at bit 1. Bit 0 is unused.
func (t Tile) Packed() uint32 {
	return uint32(t.ChunkX)<<14 | uint32(t.ChunkY)<<3 | uint32(t.Plane)<<24 | uint32(t.Rotation)<<1
}

// Unpack reverses Packed.
func Unpack(v uint32) Tile {
	return Tile{
		ChunkX:   int(v>>14) & MaxChunkX,
		ChunkY:   int(v>>3) & MaxChunkY,
		Plane:    int(v>>24) & 0x3,
		Rotation: int(v>>1) & 0x3,
	}
}

// EncodeDiff writes the grid as one bit-packed span: planes, then x, then
// y, each cell a presence bit optionally followed by its packed field.
func (p *Palette) EncodeDiff(b *frame.Builder) error {
	b.EnterBitMode()
	for plane := 0; plane < Planes; plane++ {
		for x := 0; x < Size; x++ {
			for y := 0; y < Size; y++ {
				s := p.grid[plane][x][y]
				if !s.present {
					b.PutBits(1, 0)
					continue
				}
				b.PutBits(1, 1)
				b.PutBits(PackedBits, s.tile.Packed())
			}
		}
	}
	b.ExitBitMode()
	return b.Err()
}

// DecodeDiff reads a span written by EncodeDiff back into a palette.
func DecodeDiff(r *frame.Reader, center world.ChunkCoordinate) (*Palette, error) {
	p := &Palette{center: center}
	r.EnterBitMode()
	for plane := 0; plane < Planes; plane++ {
		for x := 0; x < Size; x++ {
			for y := 0; y < Size; y++ {
				if r.GetBits(1) == 0 {
					continue
				}
				p.grid[plane][x][y] = slot{tile: Unpack(r.GetBits(PackedBits)), present: true}
				p.filled++
			}
		}
	}
	r.ExitBitMode()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
