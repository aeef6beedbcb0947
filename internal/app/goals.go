package service

import (
	"context"
	"slices"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/internal/domain/prefs"
	"github.com/okian/skillup/pkg/logger"
)

// Goals is the career goals view.
type Goals struct {
	Goals    []model.Career `json:"goals"`
	History  []model.Career `json:"history"`
	Settings prefs.Settings `json:"settings"`
}

// SettingsUpdate carries the toggles to change. Nil fields are untouched.
type SettingsUpdate struct {
	Notifications *bool `json:"notifications"`
	WeeklyReports *bool `json:"weeklyReports"`
}

// Careers searches the career catalog.
func (s *Service) Careers(q string) ([]model.Career, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.SearchCareers(q), nil
}

// Career returns one career. Unknown ids wrap catalog.ErrCareerNotFound.
func (s *Service) Career(id string) (*model.Career, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Career(id)
}

// Categories returns every skill category.
func (s *Service) Categories() ([]model.SkillCategory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Categories(), nil
}

// SuggestSkills lists skills from one category, or all, matching q.
func (s *Service) SuggestSkills(category, q string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.SearchSkills(category, q)
}

// Goals returns the selected careers, the selection history and the
// notification settings.
func (s *Service) Goals(ctx context.Context, uid string) (Goals, error) {
	if err := s.ready(); err != nil {
		return Goals{}, err
	}
	ids, err := s.prefs.Goals(ctx, uid)
	if err != nil {
		return Goals{}, err
	}
	history, err := s.prefs.History(ctx, uid)
	if err != nil {
		return Goals{}, err
	}
	settings, err := s.prefs.Settings(ctx, uid)
	if err != nil {
		return Goals{}, err
	}
	return Goals{
		Goals:    s.resolve(ctx, ids),
		History:  s.resolve(ctx, history),
		Settings: settings,
	}, nil
}

// resolve maps ids to careers, skipping ids the catalog no longer has.
func (s *Service) resolve(ctx context.Context, ids []string) []model.Career {
	out := make([]model.Career, 0, len(ids))
	for _, id := range ids {
		c, err := s.catalog.Career(id)
		if err != nil {
			s.logger.Debug(ctx, "skipping unknown career", logger.String("id", id))
			continue
		}
		out = append(out, *c)
	}
	return out
}

// AddGoal selects a career. It reports false when the career was already
// selected. New selections are also recorded in the history.
func (s *Service) AddGoal(ctx context.Context, uid, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if _, err := s.catalog.Career(id); err != nil {
		return false, err
	}
	unlock := s.lock(uid)
	defer unlock()

	goals, err := s.prefs.Goals(ctx, uid)
	if err != nil {
		return false, err
	}
	if slices.Contains(goals, id) {
		return false, nil
	}
	if err := s.prefs.SaveGoals(ctx, uid, append(goals, id)); err != nil {
		return false, err
	}

	history, err := s.prefs.History(ctx, uid)
	if err != nil {
		return true, err
	}
	if !slices.Contains(history, id) {
		if err := s.prefs.SaveHistory(ctx, uid, append(history, id)); err != nil {
			return true, err
		}
	}
	return true, nil
}

// RemoveGoal deselects a career. Removing an unselected career is a no-op.
func (s *Service) RemoveGoal(ctx context.Context, uid, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	unlock := s.lock(uid)
	defer unlock()

	goals, err := s.prefs.Goals(ctx, uid)
	if err != nil {
		return err
	}
	i := slices.Index(goals, id)
	if i < 0 {
		return nil
	}
	return s.prefs.SaveGoals(ctx, uid, slices.Delete(goals, i, i+1))
}

// ClearHistory forgets previously selected careers.
func (s *Service) ClearHistory(ctx context.Context, uid string) error {
	if err := s.ready(); err != nil {
		return err
	}
	unlock := s.lock(uid)
	defer unlock()
	return s.prefs.ClearHistory(ctx, uid)
}

// UpdateSettings changes the notification toggles and returns the result.
func (s *Service) UpdateSettings(ctx context.Context, uid string, in SettingsUpdate) (prefs.Settings, error) {
	if err := s.ready(); err != nil {
		return prefs.Settings{}, err
	}
	unlock := s.lock(uid)
	defer unlock()

	if in.Notifications != nil {
		if err := s.prefs.SetNotifications(ctx, uid, *in.Notifications); err != nil {
			return prefs.Settings{}, err
		}
	}
	if in.WeeklyReports != nil {
		if err := s.prefs.SetWeeklyReports(ctx, uid, *in.WeeklyReports); err != nil {
			return prefs.Settings{}, err
		}
	}
	return s.prefs.Settings(ctx, uid)
}
