package server

import (
	"sort"

	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
	"gridhold/server/internal/world/terrain"
)

// Instance is a private area shown through a constructed region. Resolver
// maps the view centered on a chunk to source terrain.
type Instance struct {
	Name string
	// Entry, when set, is where players are placed on entering.
	Entry    *world.Position
	Resolver func(center world.ChunkCoordinate) palette.ChunkResolver
}

// arenaSource is the chunk the arena floor is tiled from.
var arenaSource = world.ChunkCoordinate{X: 412, Y: 394}

// DefaultInstances returns the built in instances: "mirror" shows the
// world terrain around the player through a constructed region, "arena"
// is a 5x5 chunk floor of one repeated chunk with each ring rotated.
func DefaultInstances(index terrain.Index) map[string]Instance {
	arena := terrain.NewLayout()
	mid := palette.Size / 2
	for ring := 2; ring >= 0; ring-- {
		from := palette.Cell{X: mid - ring, Y: mid - ring}
		to := palette.Cell{X: mid + ring, Y: mid + ring}
		_ = arena.Fill(from, to, 0, arenaSource, ring%palette.Rotations)
	}
	arenaEntry := world.Position{X: 3204, Y: 3204, Plane: 0}

	return map[string]Instance{
		"mirror": {
			Name: "mirror",
			Resolver: func(center world.ChunkCoordinate) palette.ChunkResolver {
				return terrain.Static(index, center)
			},
		},
		"arena": {
			Name:  "arena",
			Entry: &arenaEntry,
			Resolver: func(world.ChunkCoordinate) palette.ChunkResolver {
				return arena
			},
		},
	}
}

// InstanceNames lists the configured instances.
func (h *Hub) InstanceNames() []string {
	names := make([]string, 0, len(h.cfg.Instances))
	for name := range h.cfg.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// enterInstanceLocked switches the player into a constructed region. The
// view is rebuilt on the same tick.
func (h *Hub) enterInstanceLocked(ps *playerState, name string) bool {
	inst, ok := h.cfg.Instances[name]
	if !ok {
		return false
	}
	ps.instance = &inst
	if inst.Entry != nil {
		ps.walkTarget = nil
		ps.MoveTo(*inst.Entry)
	}
	ps.Loaded = false
	return true
}

func (h *Hub) leaveInstanceLocked(ps *playerState) bool {
	if ps.instance == nil {
		return false
	}
	ps.instance = nil
	ps.Palette = nil
	ps.Loaded = false
	return true
}
