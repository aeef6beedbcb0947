package journey

import (
	"time"

	"github.com/okian/skillup/internal/domain/matcher"
	"github.com/okian/skillup/internal/domain/model"
)

// Config holds configuration for a journey run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Users      int           // Number of users to walk through onboarding
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Career     string        // Fixed target career id; random when empty
	Seed       uint64        // Seed for skill and career selection
	Settle     time.Duration // How long to wait for queued profile writes
	OutputFile string        // Report file; skipped when empty
	Verbose    bool          // Enable verbose logging
}

// Plan is the scripted journey of one user.
type Plan struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	CareerID  string   `json:"careerId"`
	Skills    []string `json:"skills"`
}

// Outcome records what happened to one plan.
type Outcome struct {
	Email     string   `json:"email"`
	CareerID  string   `json:"careerId"`
	Missing   []string `json:"missingSkills,omitempty"`
	PathLen   int      `json:"learningPathLength"`
	Persisted bool     `json:"persisted"`
	Throttled bool     `json:"throttled,omitempty"`
	Err       string   `json:"error,omitempty"`

	violation bool
}

// Stats holds run statistics.
type Stats struct {
	Planned    int
	Completed  int
	Failed     int
	Throttled  int
	Persisted  int
	Violations int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Report is written to Config.OutputFile at the end of a run.
type Report struct {
	Seed     uint64    `json:"seed"`
	Outcomes []Outcome `json:"outcomes"`
}

type session struct {
	UserID string `json:"uid"`
	Token  string `json:"token"`
}

type careersResponse struct {
	Careers []model.Career `json:"careers"`
}

type goalRequest struct {
	CareerID string `json:"careerId"`
}

type skillRequest struct {
	Skill string `json:"skill"`
	Level int    `json:"level"`
}

type gapResponse struct {
	Career        *model.Career  `json:"career"`
	MissingSkills []string       `json:"missingSkills"`
	LearningPath  []model.Course `json:"learningPath"`
}

type recommendations struct {
	MissingSkills []string         `json:"missingSkills"`
	Courses       []matcher.Ranked `json:"courses"`
}
