package server

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"gridhold/server/internal/game"
	"gridhold/server/internal/net/intake"
	"gridhold/server/internal/net/outbound"
	"gridhold/server/internal/observability"
	"gridhold/server/internal/world"
	"gridhold/server/internal/world/palette"
	"gridhold/server/logging"
	loggingLifecycle "gridhold/server/logging/lifecycle"
)

// RunSimulation advances the world once per tick until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			h.advance(now)
		}
	}
}

// advance runs one tick: timeouts, pending logins, queued commands and
// view reloads, in that order.
func (h *Hub) advance(now time.Time) {
	started := time.Now()
	tick := h.tick.Add(1)
	ctx, span := observability.StartSpan(context.Background(), h.tracer, "hub.tick",
		attribute.Int64("tick", int64(tick)))

	h.mu.Lock()
	h.expireLocked(now)
	for _, ps := range h.sortedLocked() {
		if ps.session == nil {
			continue
		}
		if ps.loginPending {
			h.loginLocked(ctx, ps)
		}
		h.applyCommandsLocked(ctx, ps)
		if _, still := h.players[ps.ID]; !still {
			continue
		}
		h.walkLocked(ps)
		h.reloadViewLocked(ctx, ps)
	}
	h.mu.Unlock()

	observability.EndSpan(span, nil)
	if h.prom != nil {
		h.prom.ObserveTick(time.Since(started))
	}
}

// sortedLocked returns players in index order so each tick issues frames
// deterministically.
func (h *Hub) sortedLocked() []*playerState {
	out := make([]*playerState, 0, len(h.indices))
	for i := 1; i <= MaxPlayers && len(out) < len(h.indices); i++ {
		if ps, ok := h.indices[i]; ok {
			out = append(out, ps)
		}
	}
	return out
}

func (h *Hub) expireLocked(now time.Time) {
	for _, ps := range h.sortedLocked() {
		switch {
		case ps.session != nil && ps.session.Closed():
			h.removeLocked(ps, LeaveSessionClosed)
		case now.Sub(ps.lastHeartbeat) > h.cfg.HeartbeatTimeout:
			h.logger.Printf("player %s timed out after %s", ps.ID, now.Sub(ps.lastHeartbeat).Truncate(time.Millisecond))
			h.removeLocked(ps, LeaveHeartbeatTimeout)
		}
	}
}

// loginLocked sends the login sequence followed by the player's current
// skills, containers and run energy.
func (h *Hub) loginLocked(ctx context.Context, ps *playerState) {
	c := ps.composer
	view := world.ViewFor(ps.Position)
	err := c.SendLogin(outbound.Login{
		Index:   ps.Index,
		Member:  ps.Members,
		Welcome: h.cfg.WelcomeMessage,
		View:    view,
	})
	if err != nil {
		h.logger.Printf("login for %s failed: %v", ps.ID, err)
		ps.session.Abort("login_failed")
		return
	}
	ps.View = view
	ps.Loaded = true
	ps.Palette = nil
	ps.instance = nil
	ps.loginPending = false
	h.publishRegion(ctx, ps, false, 0)

	_ = c.Skills(ps.Skills)
	h.sendContainerLocked(ps, ps.Inventory)
	h.sendContainerLocked(ps, ps.Equipment)
	_ = c.RunEnergy(ps.RunEnergy)
	h.invokeScriptLocked("on_login", ps.Index)
}

func (h *Hub) applyCommandsLocked(ctx context.Context, ps *playerState) {
	if len(ps.commands) == 0 || ps.loginPending {
		return
	}
	commands := ps.commands
	ps.commands = nil
	for _, cmd := range commands {
		switch cmd.Type {
		case intake.CommandMove:
			h.applyMoveLocked(ps, cmd)
		case intake.CommandText:
			h.runCommandLocked(ctx, ps, cmd.Text)
		}
		if _, still := h.players[ps.ID]; !still {
			return
		}
	}
}

func (h *Hub) applyMoveLocked(ps *playerState, cmd intake.Command) {
	target := cmd.Target
	if cmd.KeepPlane {
		target.Plane = ps.Position.Plane
	}
	if !target.Valid() {
		return
	}
	if cmd.Teleport || target.Plane != ps.Position.Plane {
		ps.walkTarget = nil
		ps.MoveTo(target)
		return
	}
	ps.walkTarget = &target
}

// walkLocked moves a walking player one step toward its target.
func (h *Hub) walkLocked(ps *playerState) {
	if ps.walkTarget == nil {
		return
	}
	target := *ps.walkTarget
	dx := clampStep(target.X - ps.Position.X)
	dy := clampStep(target.Y - ps.Position.Y)
	ps.MoveTo(ps.Position.Translate(dx, dy, 0))
	if ps.Position == target {
		ps.walkTarget = nil
	}
}

func clampStep(d int) int {
	return max(-walkStep, min(walkStep, d))
}

// reloadViewLocked sends a new view when the player left the reload area
// of the last one. Players inside an instance get a constructed region.
func (h *Hub) reloadViewLocked(ctx context.Context, ps *playerState) {
	if ps.loginPending || !ps.NeedsViewReload() {
		return
	}
	view := world.ViewFor(ps.Position)
	if ps.instance == nil {
		if err := ps.composer.LoadRegion(view); err != nil {
			return
		}
		ps.View = view
		ps.Palette = nil
		ps.Loaded = true
		h.publishRegion(ctx, ps, false, 0)
		return
	}

	_, span := observability.StartSpan(ctx, h.tracer, "hub.construct_region",
		attribute.String("instance", ps.instance.Name),
		attribute.String("player", ps.ID))
	p, err := palette.Build(view.Center(), ps.instance.Resolver(view.Center()))
	if err == nil {
		err = ps.composer.ConstructRegion(p)
	}
	observability.EndSpan(span, err)
	if err != nil {
		h.logger.Printf("construct region for %s in %s: %v", ps.ID, ps.instance.Name, err)
		return
	}
	if h.prom != nil {
		h.prom.PaletteBuilt()
	}
	ps.View = view
	ps.Palette = p
	ps.Loaded = true
	h.publishRegion(ctx, ps, true, p.Populated())
}

func (h *Hub) publishRegion(ctx context.Context, ps *playerState, constructed bool, cells int) {
	center := ps.View.Center()
	loggingLifecycle.RegionRebuilt(ctx, h.publisher, h.Tick(), logging.PlayerRef(ps.ID), loggingLifecycle.RegionRebuiltPayload{
		CenterX:     center.X,
		CenterY:     center.Y,
		Plane:       ps.View.Plane,
		Constructed: constructed,
		Cells:       cells,
	}, nil)
}

// teleportLocked moves a player immediately; the view follows on the
// same tick.
func (h *Hub) teleportLocked(ps *playerState, pos world.Position) error {
	if !pos.Valid() {
		return fmt.Errorf("invalid position %s", pos)
	}
	ps.walkTarget = nil
	ps.MoveTo(pos)
	return nil
}

var _ outbound.SkillTable = (*game.Skills)(nil)
