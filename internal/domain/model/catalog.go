package model

// Resource is a learning link attached to a career.
type Resource struct {
	Name string `json:"name" yaml:"name"`
	Link string `json:"link" yaml:"link"`
}

// Career is a read-only catalog entry describing a target role.
type Career struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description" yaml:"description"`
	Demand         string     `json:"demand" yaml:"demand"`
	AvgSalary      string     `json:"avgSalary" yaml:"avgSalary"`
	RequiredSkills []string   `json:"requiredSkills" yaml:"requiredSkills"`
	Resources      []Resource `json:"resources,omitempty" yaml:"resources"`
}

// PriceFree marks a course without a price.
const PriceFree = "Free"

// Course is a read-only catalog entry. Price holds the list price as
// written in the catalog, e.g. "Free", "$89.99" or "$49/month".
type Course struct {
	Title         string   `json:"title" yaml:"title"`
	Provider      string   `json:"provider" yaml:"provider"`
	Skills        []string `json:"skills" yaml:"skills"`
	Price         string   `json:"price" yaml:"price"`
	OriginalPrice string   `json:"originalPrice,omitempty" yaml:"originalPrice"`
	Rating        float64  `json:"rating" yaml:"rating"`
	Duration      string   `json:"duration" yaml:"duration"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
	Recommended   bool     `json:"recommended" yaml:"recommended"`
	Link          string   `json:"link" yaml:"link"`
}

// IsFree reports whether the course has no price.
func (c Course) IsFree() bool { return c.Price == PriceFree }

// Covers reports whether the course teaches the named skill (exact match).
func (c Course) Covers(skill string) bool {
	for _, s := range c.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// SkillCategory groups suggested skills in the skills view.
type SkillCategory struct {
	ID     string   `json:"id" yaml:"-"`
	Name   string   `json:"name" yaml:"name"`
	Skills []string `json:"skills" yaml:"skills"`
}
