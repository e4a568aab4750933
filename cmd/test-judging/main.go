package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/juryrank/internal/testjudging"
)

// Default configuration constants.
const (
	defaultProjects      = 60
	defaultJudges        = 12
	defaultCriteria      = 4
	defaultCoverage      = 0.8
	defaultDuplicateRate = 0.05
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultWait          = time.Minute
	defaultTestTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		projects   = flag.Int("projects", defaultProjects, "Number of projects to create")
		judges     = flag.Int("judges", defaultJudges, "Number of judges to create")
		criteria   = flag.Int("criteria", defaultCriteria, "Number of criteria to create")
		coverage   = flag.Float64("coverage", defaultCoverage, "Share of assigned projects each judge scores")
		duplicates = flag.Float64("duplicates", defaultDuplicateRate, "Share of submissions resent with the same id")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		seed       = flag.Uint64("seed", 0, "Generator seed, 0 for a random one")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait       = flag.Duration("wait", defaultWait, "How long to wait for queued scores to apply")
		outputFile = flag.String("output", "", "Output file for the dataset (default: judging_dataset_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file (default: judging_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testjudging.ShowHelp()
		return
	}

	if err := testjudging.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testjudging.Config{
		BaseURL:       *baseURL,
		Projects:      *projects,
		Judges:        *judges,
		Criteria:      *criteria,
		Coverage:      *coverage,
		DuplicateRate: *duplicates,
		Workers:       *workers,
		Seed:          *seed,
		Timeout:       *timeout,
		WaitTimeout:   *wait,
		OutputFile:    *outputFile,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := testjudging.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
