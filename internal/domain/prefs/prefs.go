// Package prefs gives typed access to the per-user string key-value store
// that caches skills, career goals, settings and the profile snapshot.
//
// Values are JSON or "true"/"false" strings. Absent keys and values that
// fail to decode read as defaults; decode failures are logged, not returned.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/internal/domain/skillset"
	"github.com/okian/skillup/pkg/logger"
)

// Keys stored per user.
const (
	KeyPersonalDetails     = "personalDetails"
	KeyCareerGoals         = "careerGoals"
	KeyCareerGoalHistory   = "careerGoalHistory"
	KeyCareerNotifications = "careerNotifications"
	KeyCareerWeeklyReports = "careerWeeklyReports"
	KeyUserSkills          = "userSkills"
	KeySkillsList          = "skillsList"
)

// Store is a namespaced string key-value store. ns is the user id.
type Store interface {
	Get(ctx context.Context, ns, key string) (value string, ok bool, err error)
	Set(ctx context.Context, ns, key, value string) error
	Remove(ctx context.Context, ns, key string) error
}

// Prefs wraps a Store with typed accessors.
type Prefs struct {
	store Store
	log   logger.Logger
}

// New creates Prefs over store.
func New(store Store, log logger.Logger) *Prefs {
	if log == nil {
		log = logger.Nop()
	}
	return &Prefs{store: store, log: log}
}

// Settings are the career view toggles.
type Settings struct {
	Notifications bool `json:"notifications"`
	WeeklyReports bool `json:"weeklyReports"`
}

// readJSON decodes key into a fresh T so a partial decode never leaks.
func readJSON[T any](ctx context.Context, p *Prefs, uid, key string) (T, bool, error) {
	var v T
	raw, ok, err := p.store.Get(ctx, uid, key)
	if err != nil {
		return v, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		p.log.Warn(ctx, "discarding undecodable preference",
			logger.String("uid", uid), logger.String("key", key), logger.Error(err))
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

func (p *Prefs) writeJSON(ctx context.Context, uid, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := p.store.Set(ctx, uid, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (p *Prefs) readBool(ctx context.Context, uid, key string) (bool, error) {
	raw, ok, err := p.store.Get(ctx, uid, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.log.Warn(ctx, "discarding undecodable flag",
			logger.String("uid", uid), logger.String("key", key), logger.Error(err))
		return false, nil
	}
	return b, nil
}

func (p *Prefs) writeBool(ctx context.Context, uid, key string, v bool) error {
	if err := p.store.Set(ctx, uid, key, strconv.FormatBool(v)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Skills loads the user's skill set. When only the names mirror is present
// the names are loaded at skillset.DefaultLevel.
func (p *Prefs) Skills(ctx context.Context, uid string) (*skillset.Set, error) {
	skills, ok, err := readJSON[[]model.Skill](ctx, p, uid, KeyUserSkills)
	if err != nil {
		return nil, err
	}
	if ok {
		return skillset.New(skills...), nil
	}
	names, _, err := readJSON[[]string](ctx, p, uid, KeySkillsList)
	if err != nil {
		return nil, err
	}
	set := skillset.New()
	for _, n := range names {
		set.Add(model.Skill{Name: n, Level: skillset.DefaultLevel})
	}
	return set, nil
}

// SaveSkills writes the skill set and its names mirror.
func (p *Prefs) SaveSkills(ctx context.Context, uid string, set *skillset.Set) error {
	if err := p.writeJSON(ctx, uid, KeyUserSkills, set.Skills()); err != nil {
		return err
	}
	return p.writeJSON(ctx, uid, KeySkillsList, set.Names())
}

// Goals returns the selected career ids in selection order.
func (p *Prefs) Goals(ctx context.Context, uid string) ([]string, error) {
	goals, _, err := readJSON[[]string](ctx, p, uid, KeyCareerGoals)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []string{}
	}
	return goals, nil
}

// SaveGoals replaces the selected career ids.
func (p *Prefs) SaveGoals(ctx context.Context, uid string, goals []string) error {
	return p.writeJSON(ctx, uid, KeyCareerGoals, goals)
}

// History returns every career id ever selected.
func (p *Prefs) History(ctx context.Context, uid string) ([]string, error) {
	history, _, err := readJSON[[]string](ctx, p, uid, KeyCareerGoalHistory)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []string{}
	}
	return history, nil
}

// SaveHistory replaces the goal history.
func (p *Prefs) SaveHistory(ctx context.Context, uid string, history []string) error {
	return p.writeJSON(ctx, uid, KeyCareerGoalHistory, history)
}

// ClearHistory removes the goal history.
func (p *Prefs) ClearHistory(ctx context.Context, uid string) error {
	if err := p.store.Remove(ctx, uid, KeyCareerGoalHistory); err != nil {
		return fmt.Errorf("remove %s: %w", KeyCareerGoalHistory, err)
	}
	return nil
}

// Settings returns the notification toggles.
func (p *Prefs) Settings(ctx context.Context, uid string) (Settings, error) {
	n, err := p.readBool(ctx, uid, KeyCareerNotifications)
	if err != nil {
		return Settings{}, err
	}
	w, err := p.readBool(ctx, uid, KeyCareerWeeklyReports)
	if err != nil {
		return Settings{}, err
	}
	return Settings{Notifications: n, WeeklyReports: w}, nil
}

// SetNotifications stores the notifications toggle.
func (p *Prefs) SetNotifications(ctx context.Context, uid string, on bool) error {
	return p.writeBool(ctx, uid, KeyCareerNotifications, on)
}

// SetWeeklyReports stores the weekly reports toggle.
func (p *Prefs) SetWeeklyReports(ctx context.Context, uid string, on bool) error {
	return p.writeBool(ctx, uid, KeyCareerWeeklyReports, on)
}

// PersonalDetails returns the cached profile snapshot, if any.
func (p *Prefs) PersonalDetails(ctx context.Context, uid string) (model.PersonalDetails, bool, error) {
	return readJSON[model.PersonalDetails](ctx, p, uid, KeyPersonalDetails)
}

// CachePersonalDetails stores the profile snapshot.
func (p *Prefs) CachePersonalDetails(ctx context.Context, uid string, d model.PersonalDetails) error {
	return p.writeJSON(ctx, uid, KeyPersonalDetails, d)
}
