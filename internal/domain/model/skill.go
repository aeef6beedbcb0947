// Package model contains domain models passed between layers.
package model

// Skill level bounds.
const (
	MinLevel = 0
	MaxLevel = 100
)

// Skill is one entry of a user's skill set.
type Skill struct {
	Name  string `json:"skill"`
	Level int    `json:"level"`
}

// ClampLevel bounds a proficiency level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}
