package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/skillup/internal/journey"
)

// Default configuration constants.
const (
	defaultUsers       = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		users   = flag.Int("users", defaultUsers, "Number of users to walk through")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		career  = flag.String("career", "", "Target career id for every user (default: random)")
		seed    = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for career and skill selection")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", journey.DefaultSettle, "How long to wait for queued profile writes")
		output  = flag.String("output", "", "JSON report file")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		journey.ShowHelp()
		return
	}

	if err := journey.SetupLogging(*verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &journey.Config{
		BaseURL:    *baseURL,
		Users:      *users,
		Workers:    *workers,
		Timeout:    *timeout,
		Career:     *career,
		Seed:       *seed,
		Settle:     *settle,
		OutputFile: *output,
		Verbose:    *verbose,
	}

	if _, err := journey.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Journey failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
