// Package catalog holds the read-only career, course and skill category data.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/okian/skillup/internal/domain/model"
)

//go:embed catalog.yaml
var embedded []byte

// Catalog is an immutable, indexed view of the static data.
type Catalog struct {
	careers    []model.Career
	byID       map[string]int
	courses    []model.Course
	categories []model.SkillCategory
}

type document struct {
	SkillCategories []model.SkillCategory `yaml:"skillCategories"`
	Courses         []model.Course        `yaml:"courses"`
	Careers         []model.Career        `yaml:"careers"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Decode(bytes.NewReader(embedded))
}

// Open reads a catalog file. An empty path yields the default catalog.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses and validates a YAML catalog.
func Decode(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		byID:       make(map[string]int, len(doc.Careers)),
		courses:    doc.Courses,
		categories: doc.SkillCategories,
	}
	for _, career := range doc.Careers {
		if career.ID == "" {
			return nil, fmt.Errorf("%w: career %q has no id", ErrInvalidCatalog, career.Name)
		}
		if _, dup := c.byID[career.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate career id %q", ErrInvalidCatalog, career.ID)
		}
		career.RequiredSkills = dedupe(career.RequiredSkills)
		c.byID[career.ID] = len(c.careers)
		c.careers = append(c.careers, career)
	}
	titles := make(map[string]struct{}, len(doc.Courses))
	for _, course := range doc.Courses {
		if course.Title == "" {
			return nil, fmt.Errorf("%w: course without title", ErrInvalidCatalog)
		}
		if _, dup := titles[course.Title]; dup {
			return nil, fmt.Errorf("%w: duplicate course title %q", ErrInvalidCatalog, course.Title)
		}
		titles[course.Title] = struct{}{}
	}
	for i := range c.categories {
		c.categories[i].ID = slug.Make(c.categories[i].Name)
	}
	return c, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// Career looks up a career by id.
func (c *Catalog) Career(id string) (*model.Career, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCareerNotFound, id)
	}
	career := c.careers[i]
	return &career, nil
}

// Careers returns every career in catalog order.
func (c *Catalog) Careers() []model.Career { return slices.Clone(c.careers) }

// Courses returns every course in catalog order.
func (c *Catalog) Courses() []model.Course { return slices.Clone(c.courses) }

// Categories returns the skill categories.
func (c *Catalog) Categories() []model.SkillCategory { return slices.Clone(c.categories) }

// SearchCareers returns careers whose name, description or any required
// skill contains q, case-insensitively. An empty q returns all careers.
func (c *Catalog) SearchCareers(q string) []model.Career {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return c.Careers()
	}
	var out []model.Career
	for _, career := range c.careers {
		if contains(career.Name, q) || contains(career.Description, q) ||
			slices.ContainsFunc(career.RequiredSkills, func(s string) bool { return contains(s, q) }) {
			out = append(out, career)
		}
	}
	return out
}

// SearchSkills lists suggested skills. category matches a category id or
// name; an empty category searches all of them. q filters by substring.
func (c *Catalog) SearchSkills(category, q string) ([]string, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []string
	found := category == ""
	for _, cat := range c.categories {
		if category != "" && cat.ID != category && !strings.EqualFold(cat.Name, category) {
			continue
		}
		found = true
		for _, s := range cat.Skills {
			if (q == "" || contains(s, q)) && !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	return out, nil
}

func contains(s, lowered string) bool {
	return strings.Contains(strings.ToLower(s), lowered)
}
