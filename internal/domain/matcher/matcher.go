// Package matcher computes skill gaps and course recommendations.
//
// All functions are pure: they never mutate their inputs and depend only on
// their arguments. Skill names are compared with exact, case-sensitive
// equality; levels play no part in matching.
package matcher

import (
	"slices"
	"strings"

	"github.com/okian/skillup/internal/domain/model"
)

// Cost filter values.
const (
	CostAll  = "all"
	CostFree = "free"
	CostPaid = "paid"
)

// Filter narrows the course catalog. Empty fields and "all" disable a filter.
type Filter struct {
	// Platform matches the course provider, case-insensitively.
	Platform string
	// Skill matches any course skill containing it, case-insensitively.
	Skill string
	// Cost is one of CostAll, CostFree or CostPaid.
	Cost string
}

// Ranked is a course together with the number of missing skills it covers.
type Ranked struct {
	Course model.Course `json:"course"`
	Score  int          `json:"score"`
}

// MissingSkills returns required minus have, in required order. Duplicate
// entries in required are reported once.
func MissingSkills(required []string, have []string) []string {
	owned := make(map[string]struct{}, len(have))
	for _, h := range have {
		owned[h] = struct{}{}
	}
	missing := make([]string, 0, len(required))
	seen := make(map[string]struct{}, len(required))
	for _, r := range required {
		if _, ok := owned[r]; ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		missing = append(missing, r)
	}
	return missing
}

// LearningPath greedily picks, for each missing skill in order, the first
// catalog course that covers it. A course already on the path is not added
// twice and skills no course covers are skipped.
func LearningPath(missing []string, courses []model.Course) []model.Course {
	path := make([]model.Course, 0, len(missing))
	picked := make(map[string]struct{}, len(missing))
	for _, skill := range missing {
		idx := slices.IndexFunc(courses, func(c model.Course) bool { return c.Covers(skill) })
		if idx < 0 {
			continue
		}
		c := courses[idx]
		if _, ok := picked[c.Title]; ok {
			continue
		}
		picked[c.Title] = struct{}{}
		path = append(path, c)
	}
	return path
}

// Coverage counts how many of missing the course teaches.
func Coverage(c model.Course, missing []string) int {
	n := 0
	for _, s := range c.Skills {
		if slices.Contains(missing, s) {
			n++
		}
	}
	return n
}

// Match reports whether the course passes every active filter.
func (f Filter) Match(c model.Course) bool {
	if p := normalize(f.Platform); p != "" && strings.ToLower(c.Provider) != p {
		return false
	}
	if k := normalize(f.Skill); k != "" {
		if !slices.ContainsFunc(c.Skills, func(s string) bool {
			return strings.Contains(strings.ToLower(s), k)
		}) {
			return false
		}
	}
	switch normalize(f.Cost) {
	case CostFree:
		return c.IsFree()
	case CostPaid:
		return !c.IsFree()
	}
	return true
}

// Rank filters courses and orders them by descending coverage of missing.
// With missing skills, only courses covering at least one are kept. With
// none, every filtered course is returned in catalog order with score 0.
// The sort is stable so equal scores keep catalog order.
func Rank(courses []model.Course, missing []string, f Filter) []Ranked {
	out := make([]Ranked, 0, len(courses))
	for _, c := range courses {
		if !f.Match(c) {
			continue
		}
		score := Coverage(c, missing)
		if len(missing) > 0 && score == 0 {
			continue
		}
		out = append(out, Ranked{Course: c, Score: score})
	}
	slices.SortStableFunc(out, func(a, b Ranked) int { return b.Score - a.Score })
	return out
}

func normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == CostAll {
		return ""
	}
	return v
}
