package server

import (
	"errors"
	"fmt"

	"gridhold/server/internal/game"
	"gridhold/server/internal/net/outbound"
	"gridhold/server/internal/script"
	"gridhold/server/internal/world"
)

// registerScriptAPI exposes player operations to scripts. Scripts run on
// the tick goroutine with the hub lock held, so these functions touch
// player state directly and must never take the lock themselves.
func (h *Hub) registerScriptAPI() {
	h.scripts.Register("send_message", h.withPlayer(func(ps *playerState, args []any) ([]any, error) {
		text, err := script.ArgString(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, ps.composer.Text(text)
	}))
	h.scripts.Register("add_item", h.withPlayer(func(ps *playerState, args []any) ([]any, error) {
		id, err := script.ArgInt(args, 1)
		if err != nil {
			return nil, err
		}
		count := 1
		if len(args) > 2 {
			if count, err = script.ArgInt(args, 2); err != nil {
				return nil, err
			}
		}
		_, err = ps.Inventory.Add(game.Item{ID: id, Count: count})
		if errors.Is(err, game.ErrContainerFull) {
			return []any{false}, nil
		}
		return []any{err == nil}, err
	}))
	h.scripts.Register("remove_item", h.withPlayer(func(ps *playerState, args []any) ([]any, error) {
		id, err := script.ArgInt(args, 1)
		if err != nil {
			return nil, err
		}
		count := 1
		if len(args) > 2 {
			if count, err = script.ArgInt(args, 2); err != nil {
				return nil, err
			}
		}
		_, err = ps.Inventory.Remove(id, count)
		if errors.Is(err, game.ErrNotEnough) {
			return []any{false}, nil
		}
		return []any{err == nil}, err
	}))
	h.scripts.Register("add_experience", h.withPlayer(func(ps *playerState, args []any) ([]any, error) {
		skill, err := script.ArgInt(args, 1)
		if err != nil {
			return nil, err
		}
		xp, err := script.ArgInt(args, 2)
		if err != nil {
			return nil, err
		}
		gained, err := ps.Skills.AddExperience(skill, int64(xp))
		return []any{gained}, err
	}))
	h.scripts.Register("teleport", h.withPlayer(func(ps *playerState, args []any) ([]any, error) {
		x, err := script.ArgInt(args, 1)
		if err != nil {
			return nil, err
		}
		y, err := script.ArgInt(args, 2)
		if err != nil {
			return nil, err
		}
		plane := ps.Position.Plane
		if len(args) > 3 {
			if plane, err = script.ArgInt(args, 3); err != nil {
				return nil, err
			}
		}
		return nil, h.teleportLocked(ps, world.Position{X: x, Y: y, Plane: plane})
	}))
	h.scripts.Register("place_object", h.withPlayer(func(ps *playerState, args []any) ([]any, error) {
		id, err := script.ArgInt(args, 1)
		if err != nil {
			return nil, err
		}
		obj := outbound.Object{ID: id, Type: 10, Position: ps.Position}
		if len(args) > 3 {
			if obj.Position.X, err = script.ArgInt(args, 2); err != nil {
				return nil, err
			}
			if obj.Position.Y, err = script.ArgInt(args, 3); err != nil {
				return nil, err
			}
		}
		return nil, h.placeObjectLocked(ps, obj)
	}))
	h.scripts.Register("player_name", h.withPlayer(func(ps *playerState, _ []any) ([]any, error) {
		return []any{ps.Name}, nil
	}))
	h.scripts.Register("object_name", func(args []any) ([]any, error) {
		id, err := script.ArgInt(args, 0)
		if err != nil {
			return nil, err
		}
		def, ok := h.defs.Object(id)
		if !ok {
			return []any{nil}, nil
		}
		return []any{def.Name}, nil
	})
}

// withPlayer resolves the player index passed as the first argument.
func (h *Hub) withPlayer(fn func(ps *playerState, args []any) ([]any, error)) script.Func {
	return func(args []any) ([]any, error) {
		index, err := script.ArgInt(args, 0)
		if err != nil {
			return nil, err
		}
		ps, ok := h.indices[index]
		if !ok || !ps.ready() {
			return nil, fmt.Errorf("no player at index %d", index)
		}
		return fn(ps, args)
	}
}

// invokeScriptLocked calls a script hook. A missing hook is not an error.
func (h *Hub) invokeScriptLocked(name string, args ...any) {
	err := h.scripts.Invoke(name, args...)
	if err != nil && !errors.Is(err, script.ErrNoSuchFunction) {
		h.logger.Printf("script %s: %v", name, err)
	}
}
