// Package skillset models a user's skill set: at most one entry per skill
// name, kept in insertion order.
//
// A Set is a plain value owned by whoever loaded it. It is not safe for
// concurrent use; callers serialize access per user.
package skillset

import (
	"strings"

	"github.com/okian/skillup/internal/domain/model"
)

// DefaultLevel is the level given to skills added without one.
const DefaultLevel = 50

// Set is an ordered skill set keyed by name.
type Set struct {
	skills []model.Skill
	index  map[string]int
}

// New builds a set from skills. Later duplicates of a name are dropped and
// levels are clamped.
func New(skills ...model.Skill) *Set {
	s := &Set{index: make(map[string]int, len(skills))}
	for _, sk := range skills {
		s.Add(sk)
	}
	return s
}

// Add inserts skill unless an entry with the same name exists. It reports
// whether the skill was inserted. Existing entries keep their level.
func (s *Set) Add(skill model.Skill) bool {
	name := strings.TrimSpace(skill.Name)
	if name == "" {
		return false
	}
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = len(s.skills)
	s.skills = append(s.skills, model.Skill{Name: name, Level: model.ClampLevel(skill.Level)})
	return true
}

// Remove deletes the named skill if present and reports whether it did.
func (s *Set) Remove(name string) bool {
	name = strings.TrimSpace(name)
	i, ok := s.index[name]
	if !ok {
		return false
	}
	s.skills = append(s.skills[:i], s.skills[i+1:]...)
	delete(s.index, name)
	for j := i; j < len(s.skills); j++ {
		s.index[s.skills[j].Name] = j
	}
	return true
}

// SetLevel updates the level of an existing skill.
func (s *Set) SetLevel(name string, level int) bool {
	i, ok := s.index[strings.TrimSpace(name)]
	if !ok {
		return false
	}
	s.skills[i].Level = model.ClampLevel(level)
	return true
}

// Has reports whether the named skill is present.
func (s *Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Level returns the level of the named skill.
func (s *Set) Level(name string) (int, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.skills[i].Level, true
}

// Len returns the number of skills.
func (s *Set) Len() int { return len(s.skills) }

// Names returns skill names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.skills))
	for i, sk := range s.skills {
		out[i] = sk.Name
	}
	return out
}

// Skills returns a copy of the entries in insertion order.
func (s *Set) Skills() []model.Skill {
	out := make([]model.Skill, len(s.skills))
	copy(out, s.skills)
	return out
}

// AverageLevel returns the mean level, or 0 for an empty set.
func (s *Set) AverageLevel() float64 {
	if len(s.skills) == 0 {
		return 0
	}
	total := 0
	for _, sk := range s.skills {
		total += sk.Level
	}
	return float64(total) / float64(len(s.skills))
}

// ParseList adds every comma separated name in text at level and returns
// the names that were inserted.
func (s *Set) ParseList(text string, level int) []string {
	var added []string
	for _, part := range strings.Split(text, ",") {
		name := strings.TrimSpace(part)
		if s.Add(model.Skill{Name: name, Level: level}) {
			added = append(added, name)
		}
	}
	return added
}
