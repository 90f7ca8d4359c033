package server

import (
	"gridhold/server/internal/game"
	"gridhold/server/internal/net/outbound"
)

// containerListener mirrors container changes to the player's client.
// Changes made before login completes are covered by the full refresh
// sent with the login sequence.
type containerListener struct {
	hub *Hub
	ps  *playerState
}

func (l *containerListener) SlotsChanged(c *game.Container, slots []int) {
	if !l.ps.ready() {
		return
	}
	items := make([]outbound.SlotItem, 0, len(slots))
	for _, slot := range slots {
		it, err := c.Get(slot)
		if err != nil {
			continue
		}
		items = append(items, outbound.SlotItem{Slot: slot, Item: toOutbound(it)})
	}
	_ = l.ps.composer.UpdateSlots(c.Interface(), items)
}

func (l *containerListener) ItemsChanged(c *game.Container) {
	if !l.ps.ready() {
		return
	}
	l.hub.sendContainerLocked(l.ps, c)
}

func (h *Hub) sendContainerLocked(ps *playerState, c *game.Container) {
	items := c.Items()
	out := make([]outbound.Item, len(items))
	for i, it := range items {
		out[i] = toOutbound(it)
	}
	_ = ps.composer.UpdateItems(c.Interface(), out)
}

func (h *Hub) sendSkillLocked(ps *playerState, skill int) {
	if !ps.ready() {
		return
	}
	_ = ps.composer.Skill(skill, ps.Skills.Experience(skill), ps.Skills.Level(skill))
}

func toOutbound(it game.Item) outbound.Item {
	if it.Empty() {
		return outbound.Item{}
	}
	return outbound.Item{ID: it.ID, Count: it.Count}
}
