package game

import (
	"fmt"
	"math"
)

// Skill identifiers in client order.
const (
	Attack = iota
	Defence
	Strength
	Hitpoints
	Ranged
	Prayer
	Magic
	Cooking
	Woodcutting
	Fletching
	Fishing
	Firemaking
	Crafting
	Smithing
	Mining
	Herblore
	Agility
	Thieving
	Slayer
	Farming
	Runecrafting
	SkillCount
)

const (
	MaxLevel      = 99
	MaxExperience = 200_000_000
)

var skillNames = [SkillCount]string{
	"attack", "defence", "strength", "hitpoints", "ranged", "prayer", "magic",
	"cooking", "woodcutting", "fletching", "fishing", "firemaking", "crafting",
	"smithing", "mining", "herblore", "agility", "thieving", "slayer",
	"farming", "runecrafting",
}

// SkillName returns the lower case name of a skill.
func SkillName(skill int) string {
	if skill < 0 || skill >= SkillCount {
		return fmt.Sprintf("skill(%d)", skill)
	}
	return skillNames[skill]
}

// SkillByName looks a skill up by its lower case name.
func SkillByName(name string) (int, bool) {
	for i, n := range skillNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// experienceTable[l] is the experience needed for level l+1.
var experienceTable = buildExperienceTable()

func buildExperienceTable() [MaxLevel]int64 {
	var table [MaxLevel]int64
	points := 0.0
	for level := 1; level < MaxLevel; level++ {
		points += math.Floor(float64(level) + 300*math.Pow(2, float64(level)/7))
		table[level] = int64(math.Floor(points / 4))
	}
	return table
}

// ExperienceForLevel returns the experience at which level is reached.
func ExperienceForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return experienceTable[level-1]
}

// LevelForExperience returns the level earned by xp.
func LevelForExperience(xp int64) int {
	for level := MaxLevel; level > 1; level-- {
		if xp >= experienceTable[level-1] {
			return level
		}
	}
	return 1
}

type skillState struct {
	level      int
	experience int64
}

// Skills holds current levels and experience. Current level may differ
// from the experience level while boosted or drained.
type Skills struct {
	skills   [SkillCount]skillState
	onChange func(skill int)
}

// NewSkills returns a fresh table: every skill at level 1 except
// hitpoints at 10.
func NewSkills() *Skills {
	s := &Skills{}
	for i := range s.skills {
		s.skills[i] = skillState{level: 1}
	}
	s.skills[Hitpoints] = skillState{level: 10, experience: ExperienceForLevel(10)}
	return s
}

// OnChange sets the callback invoked after a skill changes.
func (s *Skills) OnChange(fn func(skill int)) {
	s.onChange = fn
}

func (s *Skills) Count() int {
	return SkillCount
}

func (s *Skills) Level(skill int) int {
	if skill < 0 || skill >= SkillCount {
		return 0
	}
	return s.skills[skill].level
}

func (s *Skills) Experience(skill int) int64 {
	if skill < 0 || skill >= SkillCount {
		return 0
	}
	return s.skills[skill].experience
}

// SetLevel overrides the current level of a skill.
func (s *Skills) SetLevel(skill, level int) error {
	if skill < 0 || skill >= SkillCount {
		return fmt.Errorf("unknown skill %d", skill)
	}
	if level < 0 || level > 255 {
		return fmt.Errorf("level %d outside [0, 255]", level)
	}
	s.skills[skill].level = level
	s.changed(skill)
	return nil
}

// AddExperience grants xp, capped at MaxExperience. It returns the number
// of levels gained; the current level rises by the same amount.
func (s *Skills) AddExperience(skill int, xp int64) (int, error) {
	if skill < 0 || skill >= SkillCount {
		return 0, fmt.Errorf("unknown skill %d", skill)
	}
	if xp < 0 {
		return 0, fmt.Errorf("negative experience %d", xp)
	}
	st := &s.skills[skill]
	before := LevelForExperience(st.experience)
	st.experience += xp
	if st.experience > MaxExperience {
		st.experience = MaxExperience
	}
	gained := LevelForExperience(st.experience) - before
	st.level += gained
	s.changed(skill)
	return gained, nil
}

func (s *Skills) changed(skill int) {
	if s.onChange != nil {
		s.onChange(skill)
	}
}
