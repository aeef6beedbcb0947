package journey

import (
	"fmt"
	"slices"

	"github.com/okian/skillup/internal/domain/matcher"
	"github.com/okian/skillup/internal/domain/model"
)

// VerifyGap checks a gap returned by the server against the career and the
// skills the user owns.
func VerifyGap(career model.Career, owned []string, g gapResponse) error {
	if g.Career == nil || g.Career.ID != career.ID {
		return fmt.Errorf("gap targets the wrong career")
	}
	want := matcher.MissingSkills(career.RequiredSkills, owned)
	if !slices.Equal(want, g.MissingSkills) {
		return fmt.Errorf("missing skills %v, want %v", g.MissingSkills, want)
	}

	titles := make(map[string]struct{}, len(g.LearningPath))
	for _, c := range g.LearningPath {
		if _, dup := titles[c.Title]; dup {
			return fmt.Errorf("course %q appears twice on the learning path", c.Title)
		}
		titles[c.Title] = struct{}{}
		if matcher.Coverage(c, want) == 0 {
			return fmt.Errorf("course %q covers no missing skill", c.Title)
		}
	}
	if len(g.LearningPath) > len(want) {
		return fmt.Errorf("learning path has %d courses for %d missing skills", len(g.LearningPath), len(want))
	}
	return nil
}

// VerifyRanking checks that recommendations are ordered by descending
// score and that each score matches the course's coverage.
func VerifyRanking(r recommendations) error {
	for i, rc := range r.Courses {
		if got := matcher.Coverage(rc.Course, r.MissingSkills); got != rc.Score {
			return fmt.Errorf("course %q scored %d, covers %d", rc.Course.Title, rc.Score, got)
		}
		if len(r.MissingSkills) > 0 && rc.Score == 0 {
			return fmt.Errorf("course %q covers no missing skill", rc.Course.Title)
		}
		if i > 0 && rc.Score > r.Courses[i-1].Score {
			return fmt.Errorf("ranking not sorted at position %d", i)
		}
	}
	return nil
}
