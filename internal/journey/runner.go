package journey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// ErrViolations is returned when the server answered with a gap or ranking
// that does not hold up.
var ErrViolations = errors.New("journey found violations")

// Run executes the complete journey test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now(), Planned: config.Users}
	log := logger.Get().Named("journey")

	log.Info(ctx, "starting skillup journey test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.Users),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.String("career", config.Career),
		logger.Any("seed", config.Seed))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if _, err := client.do(ctx, http.MethodGet, "/healthz", "", nil, nil, http.StatusOK); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Read the career catalog through a scout account
	careers, err := fetchCareers(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("career lookup failed: %w", err)
	}

	// Step 3: Plan the journeys
	plans, err := Generate(config.Users, careers, config.Career, config.Seed)
	if err != nil {
		return stats, fmt.Errorf("journey generation failed: %w", err)
	}
	byID := make(map[string]model.Career, len(careers))
	for _, c := range careers {
		byID[c.ID] = c
	}

	// Step 4: Walk every user concurrently
	outcomes := runAll(ctx, client, config, plans, byID)

	// Step 5: Tally
	for _, o := range outcomes {
		switch {
		case o.violation:
			stats.Violations++
			stats.Failed++
		case o.Err != "":
			stats.Failed++
		default:
			stats.Completed++
		}
		if o.Throttled {
			stats.Throttled++
		}
		if o.Persisted {
			stats.Persisted++
		}
	}

	if config.OutputFile != "" {
		if err := saveReport(ctx, config.OutputFile, Report{Seed: config.Seed, Outcomes: outcomes}); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d of %d journeys", ErrViolations, stats.Violations, stats.Planned)
	}
	return stats, nil
}

func fetchCareers(ctx context.Context, client *HTTPClient) ([]model.Career, error) {
	sess, err := signup(ctx, client, Plan{
		FirstName: "Journey",
		LastName:  "Scout",
		Email:     fmt.Sprintf("scout.%d@journey.example.com", time.Now().UnixNano()),
		Password:  journeyPassword,
	})
	if err != nil {
		return nil, err
	}
	var out careersResponse
	if _, err := client.do(ctx, http.MethodGet, "/careers", sess.Token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Careers, nil
}

func runAll(ctx context.Context, client *HTTPClient, config *Config, plans []Plan, careers map[string]model.Career) []Outcome {
	workers := max(config.Workers, 1)
	outcomes := make([]Outcome, len(plans))
	idx := make(chan int, workers*WorkerChannelMultiplier)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range idx {
				outcomes[n] = walk(ctx, client, config, plans[n], careers[plans[n].CareerID])
				if config.Verbose {
					logger.Get().Debug(ctx, "journey finished",
						logger.String("email", outcomes[n].Email),
						logger.String("career", outcomes[n].CareerID),
						logger.String("error", outcomes[n].Err))
				}
			}
		}()
	}

	go func() {
		defer close(idx)
		for n := range plans {
			select {
			case <-ctx.Done():
				return
			case idx <- n:
			}
		}
	}()

	wg.Wait()
	for n := range outcomes {
		if outcomes[n].Email == "" {
			outcomes[n] = Outcome{Email: plans[n].Email, CareerID: plans[n].CareerID, Err: "not run"}
		}
	}
	return outcomes
}

// walk runs one user through signup, onboarding, skills, goal selection and
// recommendations, then waits for the queued profile write to land.
func walk(ctx context.Context, client *HTTPClient, config *Config, p Plan, career model.Career) Outcome {
	out := Outcome{Email: p.Email, CareerID: p.CareerID}
	fail := func(err error) Outcome {
		out.Err = err.Error()
		return out
	}

	sess, err := signup(ctx, client, p)
	if err != nil {
		return fail(err)
	}
	tok := sess.Token

	details := model.PersonalDetails{FirstName: p.FirstName, LastName: p.LastName, Role: p.Role}
	status, err := client.do(ctx, http.MethodPost, "/personal-details", tok, details, nil, http.StatusAccepted, http.StatusTooManyRequests)
	if err != nil {
		return fail(err)
	}
	out.Throttled = status == http.StatusTooManyRequests

	for _, s := range p.Skills {
		if _, err := client.do(ctx, http.MethodPost, "/skills", tok, skillRequest{Skill: s, Level: 60}, nil, http.StatusCreated, http.StatusOK); err != nil {
			return fail(err)
		}
	}
	if _, err := client.do(ctx, http.MethodPost, "/career-goals", tok, goalRequest{CareerID: p.CareerID}, nil, http.StatusCreated); err != nil {
		return fail(err)
	}

	var g gapResponse
	if _, err := client.do(ctx, http.MethodGet, "/gap", tok, nil, &g, http.StatusOK); err != nil {
		return fail(err)
	}
	out.Missing = g.MissingSkills
	out.PathLen = len(g.LearningPath)
	if err := VerifyGap(career, p.Skills, g); err != nil {
		out.violation = true
		return fail(fmt.Errorf("%w: gap: %w", ErrViolations, err))
	}

	var recs recommendations
	if _, err := client.do(ctx, http.MethodGet, "/recommendations", tok, nil, &recs, http.StatusOK); err != nil {
		return fail(err)
	}
	if err := VerifyRanking(recs); err != nil {
		out.violation = true
		return fail(fmt.Errorf("%w: recommendations: %w", ErrViolations, err))
	}

	if !out.Throttled {
		out.Persisted = awaitDetails(ctx, client, tok, p.Role, config.Settle)
	}
	return out
}

func signup(ctx context.Context, client *HTTPClient, p Plan) (session, error) {
	body := map[string]string{
		"firstName":       p.FirstName,
		"lastName":        p.LastName,
		"email":           p.Email,
		"password":        p.Password,
		"confirmPassword": p.Password,
	}
	var s session
	_, err := client.do(ctx, http.MethodPost, "/auth/signup", "", body, &s, http.StatusCreated)
	return s, err
}

// awaitDetails polls the profile until the queued role shows up or settle
// elapses.
func awaitDetails(ctx context.Context, client *HTTPClient, token, role string, settle time.Duration) bool {
	if settle <= 0 {
		settle = DefaultSettle
	}
	deadline := time.Now().Add(settle)
	for {
		var p model.Profile
		if _, err := client.do(ctx, http.MethodGet, "/profile", token, nil, &p, http.StatusOK); err == nil && p.PersonalDetails.Role == role {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(settlePoll):
		}
	}
}

// saveReport writes the outcomes as indented JSON.
func saveReport(ctx context.Context, filename string, r Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Get().Info(ctx, "report saved", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, journeysPerSecond float64
	if stats.Planned > 0 {
		successRate = float64(stats.Completed) / float64(stats.Planned) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		journeysPerSecond = float64(stats.Completed+stats.Failed) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("planned", stats.Planned),
		logger.Int("completed", stats.Completed),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Int("throttled", stats.Throttled),
		logger.Int("persisted", stats.Persisted),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("journeysPerSecond", journeysPerSecond))
}
