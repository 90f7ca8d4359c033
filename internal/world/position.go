package world

import "fmt"

const (
	// Planes is the number of vertical levels.
	Planes = 4
	// RegionSize is the side of a region in tiles; regions are the unit of
	// map loading.
	RegionSize = 64
	// ChunkSize is the side of a chunk in tiles; chunks are the unit of
	// terrain reuse.
	ChunkSize = 8
	// ViewChunks is the side of the client's visible area in chunks.
	ViewChunks = 13
	// ViewTiles is the side of the client's visible area in tiles.
	ViewTiles = ViewChunks * ChunkSize
	// viewCenterOffset is the chunk distance from the view origin to the
	// player's chunk.
	viewCenterOffset = 6
	// reloadMargin is how close to the view edge, in tiles, a player may
	// walk before the view must be reloaded.
	reloadMargin = 16
)

// Position is an absolute tile coordinate.
type Position struct {
	X     int
	Y     int
	Plane int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Plane)
}

// Valid reports whether the coordinate is non-negative and on a known plane.
func (p Position) Valid() bool {
	return p.X >= 0 && p.Y >= 0 && p.Plane >= 0 && p.Plane < Planes
}

// Region returns the 64x64 region containing the position.
func (p Position) Region() RegionCoordinate {
	return RegionCoordinate{X: p.X >> 6, Y: p.Y >> 6}
}

// Chunk returns the 8x8 chunk containing the position.
func (p Position) Chunk() ChunkCoordinate {
	return ChunkCoordinate{X: p.X >> 3, Y: p.Y >> 3}
}

// ViewBase returns the chunk at local cell (0, 0) of a view centered on
// the position. Messages that carry "region + 6" send ViewBase()+6, which
// is the player's own chunk.
func (p Position) ViewBase() ChunkCoordinate {
	c := p.Chunk()
	return ChunkCoordinate{X: c.X - viewCenterOffset, Y: c.Y - viewCenterOffset}
}

// Translate returns the position moved by the given deltas.
func (p Position) Translate(dx, dy, dplane int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy, Plane: p.Plane + dplane}
}

// RegionCoordinate identifies a 64x64 tile region.
type RegionCoordinate struct {
	X int
	Y int
}

// ChunkCoordinate identifies an 8x8 tile chunk.
type ChunkCoordinate struct {
	X int
	Y int
}

// Origin returns the tile at the chunk's south-west corner.
func (c ChunkCoordinate) Origin() (int, int) {
	return c.X * ChunkSize, c.Y * ChunkSize
}

// View is the area the client was last told to load.
type View struct {
	Base  ChunkCoordinate
	Plane int
}

// ViewFor returns the view centered on p.
func ViewFor(p Position) View {
	return View{Base: p.ViewBase(), Plane: p.Plane}
}

// Center returns the chunk in the middle of the view.
func (v View) Center() ChunkCoordinate {
	return ChunkCoordinate{X: v.Base.X + viewCenterOffset, Y: v.Base.Y + viewCenterOffset}
}

// Local returns p relative to the view's south-west corner.
func (v View) Local(p Position) (int, int) {
	x, y := v.Base.Origin()
	return p.X - x, p.Y - y
}

// NeedsReload reports whether p is close enough to the view edge that the
// client has to be sent a new one.
func (v View) NeedsReload(p Position) bool {
	x, y := v.Local(p)
	return x < reloadMargin || x >= ViewTiles-reloadMargin || y < reloadMargin || y >= ViewTiles-reloadMargin
}

// Contains reports whether p lies inside the view at all.
func (v View) Contains(p Position) bool {
	x, y := v.Local(p)
	return x >= 0 && x < ViewTiles && y >= 0 && y < ViewTiles
}
