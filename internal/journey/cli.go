package journey

import (
	"fmt"
	"os"

	"github.com/okian/skillup/pkg/logger"
)

// SetupLogging initializes the global logger for the journey tool.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the journey tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`SkillUp Journey Tool
====================

Walks many users concurrently through signup, onboarding, skills, career
goals and recommendations against a running SkillUp server, and checks every
gap and ranking the server returns.

Usage:
  go run ./cmd/journey [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -users int
        Number of users to walk through (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -career string
        Target career id for every user (default: random per user)
  -seed uint
        Seed for career and skill selection (default: current time)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for queued profile writes (default 5s)
  -output string
        JSON report file (default: none)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/journey -users 1000 -workers 32
  go run ./cmd/journey -career data-scientist -seed 42 -output report.json
`)
}
