package matcher

import "github.com/okian/skillup/internal/domain/model"

// Gap is the derived analysis of one career against a skill set.
type Gap struct {
	Career        *model.Career  `json:"career"`
	MissingSkills []string       `json:"missingSkills"`
	LearningPath  []model.Course `json:"learningPath"`
	Courses       []Ranked       `json:"courses"`
}

// Analyze computes the gap for career. A nil career yields no missing
// skills, an empty path and the filtered catalog unscored.
func Analyze(career *model.Career, have []string, courses []model.Course, f Filter) Gap {
	g := Gap{Career: career, MissingSkills: []string{}, LearningPath: []model.Course{}}
	if career != nil {
		g.MissingSkills = MissingSkills(career.RequiredSkills, have)
		g.LearningPath = LearningPath(g.MissingSkills, courses)
	}
	g.Courses = Rank(courses, g.MissingSkills, f)
	return g
}
