package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/internal/domain/skillset"
)

// Skills returns the user's skills in insertion order.
func (s *Service) Skills(ctx context.Context, uid string) ([]model.Skill, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	set, err := s.prefs.Skills(ctx, uid)
	if err != nil {
		return nil, err
	}
	return set.Skills(), nil
}

// AddSkill inserts a skill unless one with the same name exists. It
// reports whether the skill was added along with the resulting list.
func (s *Service) AddSkill(ctx context.Context, uid string, skill model.Skill) (bool, []model.Skill, error) {
	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return false, nil, ErrInvalidSkill
	}
	var added bool
	skills, err := s.mutateSkills(ctx, uid, func(set *skillset.Set) bool {
		added = set.Add(skill)
		return added
	})
	return added, skills, err
}

// ParseSkills adds every entry of a comma separated list at level and
// returns the names that were new.
func (s *Service) ParseSkills(ctx context.Context, uid, text string, level int) ([]string, []model.Skill, error) {
	var added []string
	skills, err := s.mutateSkills(ctx, uid, func(set *skillset.Set) bool {
		added = set.ParseList(text, level)
		return len(added) > 0
	})
	if added == nil {
		added = []string{}
	}
	return added, skills, err
}

// SetSkillLevel updates the level of an existing skill.
func (s *Service) SetSkillLevel(ctx context.Context, uid, name string, level int) ([]model.Skill, error) {
	var found bool
	skills, err := s.mutateSkills(ctx, uid, func(set *skillset.Set) bool {
		found = set.SetLevel(name, level)
		return found
	})
	if err == nil && !found {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	return skills, err
}

// RemoveSkill deletes a skill. Removing an absent skill is a no-op.
func (s *Service) RemoveSkill(ctx context.Context, uid, name string) ([]model.Skill, error) {
	return s.mutateSkills(ctx, uid, func(set *skillset.Set) bool {
		return set.Remove(name)
	})
}

// mutateSkills loads the set, applies fn and writes the set back when fn
// reports a change.
func (s *Service) mutateSkills(ctx context.Context, uid string, fn func(*skillset.Set) bool) ([]model.Skill, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	unlock := s.lock(uid)
	defer unlock()

	set, err := s.prefs.Skills(ctx, uid)
	if err != nil {
		return nil, err
	}
	if fn(set) {
		if err := s.prefs.SaveSkills(ctx, uid, set); err != nil {
			return nil, err
		}
	}
	return set.Skills(), nil
}
