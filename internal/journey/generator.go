package journey

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/okian/skillup/internal/domain/model"
)

var (
	firstNames = []string{"Aarav", "Diya", "Kabir", "Meera", "Rohan", "Ananya", "Vikram", "Isha", "Arjun", "Neha"}
	lastNames  = []string{"Sharma", "Iyer", "Patel", "Reddy", "Gupta", "Nair", "Singh", "Das", "Menon", "Kapoor"}
	roles      = []string{"Student", "Analyst", "Engineer", "Designer", "Intern"}
	extras     = []string{"Communication", "Excel", "Public Speaking", "Git"}
)

// Generate builds n journey plans over careers. When careerID is set every
// plan targets it; otherwise each plan picks a career at random. Each plan
// owns a random subset of its career's required skills and sometimes an
// unrelated extra skill.
func Generate(n int, careers []model.Career, careerID string, seed uint64) ([]Plan, error) {
	if len(careers) == 0 {
		return nil, fmt.Errorf("no careers to target")
	}
	fixed := -1
	if careerID != "" {
		for i, c := range careers {
			if c.ID == careerID {
				fixed = i
				break
			}
		}
		if fixed < 0 {
			return nil, fmt.Errorf("unknown career %q", careerID)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	plans := make([]Plan, 0, n)
	for i := 0; i < n; i++ {
		c := careers[fixed]
		if fixed < 0 {
			c = careers[rng.IntN(len(careers))]
		}
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]

		var skills []string
		for _, s := range c.RequiredSkills {
			if rng.IntN(2) == 0 {
				skills = append(skills, s)
			}
		}
		if rng.IntN(3) == 0 {
			skills = append(skills, extras[rng.IntN(len(extras))])
		}

		plans = append(plans, Plan{
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s@journey.example.com", slug.Make(first+" "+last), uuid.NewString()[:8]),
			Password:  journeyPassword,
			Role:      roles[rng.IntN(len(roles))],
			CareerID:  c.ID,
			Skills:    skills,
		})
	}
	return plans, nil
}
