package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gridhold/server/internal/game"
	"gridhold/server/internal/net/outbound"
	"gridhold/server/internal/script"
	"gridhold/server/internal/world"
)

type commandFunc func(h *Hub, ps *playerState, args []string) error

// builtinCommands are handled before scripts get a chance.
var builtinCommands = map[string]commandFunc{
	"pos":      cmdPos,
	"tele":     cmdTele,
	"item":     cmdItem,
	"empty":    cmdEmpty,
	"xp":       cmdExperience,
	"object":   cmdObject,
	"instance": cmdInstance,
	"leave":    cmdLeave,
	"shake":    cmdShake,
	"update":   cmdUpdate,
	"logout":   cmdLogout,
}

var errUsage = errors.New("usage")

// runCommandLocked executes one typed command. Unknown names are offered
// to scripts as on_command(index, text).
func (h *Hub) runCommandLocked(_ context.Context, ps *playerState, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	if fn, ok := builtinCommands[name]; ok {
		if err := fn(h, ps, fields[1:]); err != nil {
			if errors.Is(err, errUsage) {
				_ = ps.composer.Text(err.Error())
				return
			}
			_ = ps.composer.Text(fmt.Sprintf("%s failed: %v", name, err))
		}
		return
	}

	err := h.scripts.Invoke("on_command", ps.Index, text)
	switch {
	case err == nil:
	case errors.Is(err, script.ErrNoSuchFunction):
		_ = ps.composer.Text("Unknown command.")
	default:
		h.logger.Printf("on_command %q for %s: %v", text, ps.ID, err)
		_ = ps.composer.Text("Unknown command.")
	}
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

func intArgs(args []string, n int) ([]int, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func cmdPos(_ *Hub, ps *playerState, _ []string) error {
	c := ps.Position.Chunk()
	return ps.composer.Text(fmt.Sprintf("%s chunk (%d, %d)", ps.Position, c.X, c.Y))
}

func cmdTele(h *Hub, ps *playerState, args []string) error {
	v, ok := intArgs(args, 2)
	if !ok || len(v) > 3 {
		return usage("tele x y [plane]")
	}
	pos := world.Position{X: v[0], Y: v[1], Plane: ps.Position.Plane}
	if len(v) == 3 {
		pos.Plane = v[2]
	}
	return h.teleportLocked(ps, pos)
}

func cmdItem(h *Hub, ps *playerState, args []string) error {
	v, ok := intArgs(args, 1)
	if !ok || len(v) > 2 {
		return usage("item id [count]")
	}
	count := 1
	if len(v) == 2 {
		count = v[1]
	}
	if v[0] < 0 || count <= 0 {
		return usage("item id [count]")
	}
	_, err := ps.Inventory.Add(game.Item{ID: v[0], Count: count})
	return err
}

func cmdEmpty(_ *Hub, ps *playerState, _ []string) error {
	ps.Inventory.Clear()
	return nil
}

func cmdExperience(_ *Hub, ps *playerState, args []string) error {
	if len(args) != 2 {
		return usage("xp skill amount")
	}
	skill, ok := game.SkillByName(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("unknown skill %q", args[0])
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return usage("xp skill amount")
	}
	gained, err := ps.Skills.AddExperience(skill, amount)
	if err != nil {
		return err
	}
	if gained > 0 {
		return ps.composer.Text(fmt.Sprintf("Your %s level is now %d.", game.SkillName(skill), ps.Skills.Level(skill)))
	}
	return nil
}

func cmdObject(h *Hub, ps *playerState, args []string) error {
	v, ok := intArgs(args, 1)
	if !ok || len(v) > 3 {
		return usage("object id [type] [face]")
	}
	obj := outbound.Object{ID: v[0], Type: 10, Position: ps.Position}
	if len(v) > 1 {
		obj.Type = v[1]
	}
	if len(v) > 2 {
		obj.Face = v[2]
	}
	return h.placeObjectLocked(ps, obj)
}

func cmdInstance(h *Hub, ps *playerState, args []string) error {
	if len(args) != 1 {
		return usage("instance " + strings.Join(h.InstanceNames(), "|"))
	}
	if !h.enterInstanceLocked(ps, strings.ToLower(args[0])) {
		return fmt.Errorf("no instance named %q", args[0])
	}
	return nil
}

func cmdLeave(h *Hub, ps *playerState, _ []string) error {
	if !h.leaveInstanceLocked(ps) {
		return ps.composer.Text("You are not in an instance.")
	}
	return nil
}

func cmdShake(_ *Hub, ps *playerState, args []string) error {
	intensity := 4
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("shake [intensity]")
		}
		intensity = v
	}
	return ps.composer.CameraShake(intensity)
}

func cmdUpdate(_ *Hub, ps *playerState, args []string) error {
	v, ok := intArgs(args, 1)
	if !ok || len(v) != 1 {
		return usage("update seconds")
	}
	return ps.composer.SystemUpdate(v[0])
}

func cmdLogout(h *Hub, ps *playerState, _ []string) error {
	_ = ps.composer.Logout()
	h.removeLocked(ps, LeaveLogout)
	return nil
}

// placeObjectLocked shows an object to the player. Objects with a known
// definition must fit inside the loaded view.
func (h *Hub) placeObjectLocked(ps *playerState, obj outbound.Object) error {
	if h.defs.ObjectCount() > 0 {
		def, ok := h.defs.Object(obj.ID)
		if !ok {
			return fmt.Errorf("unknown object %d", obj.ID)
		}
		far := obj.Position.Translate(def.SizeX-1, def.SizeY-1, 0)
		if !ps.View.Contains(far) {
			return fmt.Errorf("object %s does not fit the loaded view", def.Name)
		}
	}
	return ps.composer.PlaceObject(ps.View, obj)
}
