package game

import (
	"errors"
	"testing"

	"gridhold/server/internal/world"
)

func TestExperienceTable(t *testing.T) {
	tests := []struct {
		level int
		xp    int64
	}{
		{1, 0},
		{2, 83},
		{10, 1154},
		{50, 101333},
		{99, 13034431},
	}
	for _, tc := range tests {
		if got := ExperienceForLevel(tc.level); got != tc.xp {
			t.Fatalf("expected level %d at %d xp, got %d", tc.level, tc.xp, got)
		}
		if got := LevelForExperience(tc.xp); got != tc.level {
			t.Fatalf("expected %d xp to give level %d, got %d", tc.xp, tc.level, got)
		}
	}
	if got := LevelForExperience(82); got != 1 {
		t.Fatalf("expected 82 xp to stay level 1, got %d", got)
	}
}

func TestSkills(t *testing.T) {
	s := NewSkills()
	if s.Count() != 21 {
		t.Fatalf("expected 21 skills, got %d", s.Count())
	}
	if s.Level(Hitpoints) != 10 || s.Experience(Hitpoints) != 1154 {
		t.Fatalf("expected hitpoints 10 / 1154, got %d / %d", s.Level(Hitpoints), s.Experience(Hitpoints))
	}

	var changed []int
	s.OnChange(func(skill int) { changed = append(changed, skill) })

	gained, err := s.AddExperience(Mining, 1154)
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if gained != 9 || s.Level(Mining) != 10 {
		t.Fatalf("expected 9 levels gained to 10, got %d to %d", gained, s.Level(Mining))
	}
	if _, err := s.AddExperience(Mining, MaxExperience); err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if s.Experience(Mining) != MaxExperience || s.Level(Mining) != MaxLevel {
		t.Fatalf("expected capped experience, got %d at level %d", s.Experience(Mining), s.Level(Mining))
	}
	if _, err := s.AddExperience(SkillCount, 1); err == nil {
		t.Fatalf("expected unknown skill error")
	}
	if _, err := s.AddExperience(Mining, -1); err == nil {
		t.Fatalf("expected negative experience error")
	}
	if err := s.SetLevel(Prayer, 256); err == nil {
		t.Fatalf("expected level range error")
	}
	if len(changed) != 2 || changed[0] != Mining {
		t.Fatalf("expected two mining change callbacks, got %v", changed)
	}

	if id, ok := SkillByName("runecrafting"); !ok || id != Runecrafting {
		t.Fatalf("expected runecrafting lookup, got %d %v", id, ok)
	}
}

type listenerLog struct {
	slots [][]int
	full  int
}

func (l *listenerLog) SlotsChanged(_ *Container, slots []int) {
	l.slots = append(l.slots, append([]int(nil), slots...))
}

func (l *listenerLog) ItemsChanged(*Container) { l.full++ }

func TestContainer(t *testing.T) {
	coins := 995
	inv := NewInventory(func(id int) bool { return id == coins })
	log := &listenerLog{}
	inv.AddListener(log)
	if log.full != 1 {
		t.Fatalf("expected initial full refresh, got %d", log.full)
	}

	t.Run("stackable merges", func(t *testing.T) {
		if _, err := inv.Add(Item{ID: coins, Count: 100}); err != nil {
			t.Fatalf("add: %v", err)
		}
		slots, err := inv.Add(Item{ID: coins, Count: 50})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if len(slots) != 1 || slots[0] != 0 || inv.Count(coins) != 150 {
			t.Fatalf("expected 150 coins in slot 0, got %v / %d", slots, inv.Count(coins))
		}
	})

	t.Run("unstackable spreads", func(t *testing.T) {
		slots, err := inv.Add(Item{ID: 1265, Count: 3})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if len(slots) != 3 || slots[0] != 1 || slots[2] != 3 {
			t.Fatalf("expected slots 1..3, got %v", slots)
		}
		if inv.Used() != 4 {
			t.Fatalf("expected 4 used slots, got %d", inv.Used())
		}
	})

	t.Run("full", func(t *testing.T) {
		if _, err := inv.Add(Item{ID: 1351, Count: 25}); !errors.Is(err, ErrContainerFull) {
			t.Fatalf("expected ErrContainerFull, got %v", err)
		}
		if inv.Used() != 4 {
			t.Fatalf("expected a failed add to change nothing, got %d used", inv.Used())
		}
	})

	t.Run("remove", func(t *testing.T) {
		if _, err := inv.Remove(1265, 4); !errors.Is(err, ErrNotEnough) {
			t.Fatalf("expected ErrNotEnough, got %v", err)
		}
		slots, err := inv.Remove(1265, 2)
		if err != nil {
			t.Fatalf("remove: %v", err)
		}
		if len(slots) != 2 || inv.Count(1265) != 1 {
			t.Fatalf("expected two slots cleared, got %v / %d", slots, inv.Count(1265))
		}
	})

	t.Run("slot bounds", func(t *testing.T) {
		if err := inv.Set(InventoryCapacity, Item{ID: 1, Count: 1}); err == nil {
			t.Fatalf("expected bounds error")
		}
		if _, err := inv.Get(-1); err == nil {
			t.Fatalf("expected bounds error")
		}
	})

	inv.Clear()
	if inv.Used() != 0 || log.full != 2 {
		t.Fatalf("expected empty container and second refresh, got %d / %d", inv.Used(), log.full)
	}
	if len(log.slots) == 0 {
		t.Fatalf("expected slot notifications")
	}
}

func TestPlayerViewReload(t *testing.T) {
	p := NewPlayer("p-1", 1, "zezima", nil)
	if !p.NeedsViewReload() {
		t.Fatalf("expected a fresh player to need a view")
	}
	p.View = world.ViewFor(p.Position)
	p.Loaded = true
	if p.NeedsViewReload() {
		t.Fatalf("expected centered player to keep the view")
	}
	p.MoveTo(p.Position.Translate(40, 0, 0))
	if !p.NeedsViewReload() {
		t.Fatalf("expected a player near the edge to need a reload")
	}
}
