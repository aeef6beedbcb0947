package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/okian/skillup/internal/adapters/repository"
	"github.com/okian/skillup/internal/domain/matcher"
	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/internal/domain/skillset"
	"github.com/okian/skillup/pkg/metrics"
)

// ProfileIncompleteMessage is shown on the dashboard when the profile has
// no personal details yet.
const ProfileIncompleteMessage = "No personal details found. Please complete your profile."

// GapSummary condenses a gap analysis for the dashboard.
type GapSummary struct {
	Career        model.Career `json:"career"`
	MissingSkills []string     `json:"missingSkills"`
	PathLength    int          `json:"pathLength"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	FirstName         string         `json:"firstName,omitempty"`
	ProfileIncomplete bool           `json:"profileIncomplete"`
	Message           string         `json:"message,omitempty"`
	SkillCount        int            `json:"skillCount"`
	AverageLevel      float64        `json:"averageLevel"`
	Goals             []model.Career `json:"goals"`
	Gap               *GapSummary    `json:"gap,omitempty"`
}

// GoalProgress is the coverage of one selected career.
type GoalProgress struct {
	Career       model.Career `json:"career"`
	Required     int          `json:"required"`
	Covered      int          `json:"covered"`
	Percent      int          `json:"percent"`
	AverageLevel float64      `json:"averageLevel"`
}

// Progress summarizes coverage across every selected career.
type Progress struct {
	Goals        []GoalProgress `json:"goals"`
	AverageLevel float64        `json:"averageLevel"`
	SkillCount   int            `json:"skillCount"`
}

// Courses returns the catalog with prices in INR.
func (s *Service) Courses() ([]model.Course, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.localize(s.catalog.Courses()), nil
}

// Gap analyzes careerID against the user's skills. An empty careerID
// falls back to the first selected goal; with no goal there is no target
// and the catalog is returned unscored.
func (s *Service) Gap(ctx context.Context, uid, careerID string, f matcher.Filter) (matcher.Gap, error) {
	if err := s.ready(); err != nil {
		return matcher.Gap{}, err
	}
	career, err := s.target(ctx, uid, careerID)
	if err != nil {
		return matcher.Gap{}, err
	}
	set, err := s.prefs.Skills(ctx, uid)
	if err != nil {
		return matcher.Gap{}, err
	}

	g := matcher.Analyze(career, set.Names(), s.catalog.Courses(), f)
	g.LearningPath = s.localize(g.LearningPath)
	for i := range g.Courses {
		g.Courses[i].Course = s.localizeOne(g.Courses[i].Course)
	}

	mode := "catalog"
	if career != nil {
		mode = "ranked"
		metrics.RecordGap(len(g.MissingSkills), len(g.LearningPath))
	}
	metrics.RecordRecommendations(mode)
	return g, nil
}

func (s *Service) target(ctx context.Context, uid, careerID string) (*model.Career, error) {
	if careerID != "" {
		return s.catalog.Career(careerID)
	}
	goals, err := s.prefs.Goals(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, id := range goals {
		if c, err := s.catalog.Career(id); err == nil {
			return c, nil
		}
	}
	return nil, nil
}

// Progress reports coverage for every selected goal.
func (s *Service) Progress(ctx context.Context, uid string) (Progress, error) {
	if err := s.ready(); err != nil {
		return Progress{}, err
	}
	set, err := s.prefs.Skills(ctx, uid)
	if err != nil {
		return Progress{}, err
	}
	ids, err := s.prefs.Goals(ctx, uid)
	if err != nil {
		return Progress{}, err
	}

	p := Progress{
		Goals:        []GoalProgress{},
		AverageLevel: round1(set.AverageLevel()),
		SkillCount:   set.Len(),
	}
	for _, career := range s.resolve(ctx, ids) {
		p.Goals = append(p.Goals, goalProgress(career, set))
	}
	return p, nil
}

func goalProgress(career model.Career, set *skillset.Set) GoalProgress {
	gp := GoalProgress{Career: career, Required: len(career.RequiredSkills)}
	total := 0
	for _, name := range career.RequiredSkills {
		if lvl, ok := set.Level(name); ok {
			gp.Covered++
			total += lvl
		}
	}
	if gp.Required > 0 {
		gp.Percent = int(math.Round(float64(gp.Covered) * 100 / float64(gp.Required)))
	}
	if gp.Covered > 0 {
		gp.AverageLevel = round1(float64(total) / float64(gp.Covered))
	}
	return gp
}

// Dashboard builds the landing summary. A missing profile or first name
// is reported through ProfileIncomplete rather than as an error.
func (s *Service) Dashboard(ctx context.Context, uid string) (Dashboard, error) {
	if err := s.ready(); err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Goals: []model.Career{}}

	doc, err := s.profiles.Get(ctx, uid)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return Dashboard{}, err
	default:
		d.FirstName = strings.TrimSpace(doc.PersonalDetails.FirstName)
	}
	if d.FirstName == "" {
		d.ProfileIncomplete = true
		d.Message = ProfileIncompleteMessage
	}

	set, err := s.prefs.Skills(ctx, uid)
	if err != nil {
		return Dashboard{}, err
	}
	d.SkillCount = set.Len()
	d.AverageLevel = round1(set.AverageLevel())

	ids, err := s.prefs.Goals(ctx, uid)
	if err != nil {
		return Dashboard{}, err
	}
	d.Goals = s.resolve(ctx, ids)
	if len(d.Goals) > 0 {
		career := d.Goals[0]
		missing := matcher.MissingSkills(career.RequiredSkills, set.Names())
		d.Gap = &GapSummary{
			Career:        career,
			MissingSkills: missing,
			PathLength:    len(matcher.LearningPath(missing, s.catalog.Courses())),
		}
	}
	return d, nil
}

func (s *Service) localize(courses []model.Course) []model.Course {
	out := make([]model.Course, len(courses))
	for i, c := range courses {
		out[i] = s.localizeOne(c)
	}
	return out
}

func (s *Service) localizeOne(c model.Course) model.Course {
	c.Price = s.prices.INR(c.Price)
	if c.OriginalPrice != "" {
		c.OriginalPrice = s.prices.INR(c.OriginalPrice)
	}
	c.Skills = append([]string(nil), c.Skills...)
	return c
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
