// Package game holds per-player state the server reports to clients.
package game

import (
	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
)

// DefaultSpawn is where new players appear.
var DefaultSpawn = world.Position{X: 3222, Y: 3218, Plane: 0}

// Player is the server side state of one connected player. It is owned by
// the simulation goroutine.
type Player struct {
	ID      string
	Index   int
	Name    string
	Members bool
	Rights  int

	Position world.Position
	// View is the area the client was last told to load; Loaded is false
	// until the first load is sent.
	View   world.View
	Loaded bool
	// Palette is set while the player is in a constructed view.
	Palette *palette.Palette

	Skills    *Skills
	Inventory *Container
	Equipment *Container

	RunEnergy int
}

// NewPlayer returns a player at DefaultSpawn with fresh skills and
// empty containers.
func NewPlayer(id string, index int, name string, stackable func(id int) bool) *Player {
	return &Player{
		ID:        id,
		Index:     index,
		Name:      name,
		Position:  DefaultSpawn,
		Skills:    NewSkills(),
		Inventory: NewInventory(stackable),
		Equipment: NewEquipment(),
		RunEnergy: 100,
	}
}

// NeedsViewReload reports whether the client must be sent a new view
// before the player's position can be described relative to it.
func (p *Player) NeedsViewReload() bool {
	if !p.Loaded {
		return true
	}
	if p.Palette != nil && p.Position.Plane != p.View.Plane {
		return true
	}
	return p.View.NeedsReload(p.Position)
}

// MoveTo teleports the player.
func (p *Player) MoveTo(pos world.Position) {
	p.Position = pos
}
