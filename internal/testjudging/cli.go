package testjudging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/juryrank/pkg/logger"
)

const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stdout and a file. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "judging_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return err
		}
	}
	return nil
}

// ShowHelp prints usage information for the judging tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`juryrank judging test tool
==========================

Creates a synthetic event on a running service, submits scores concurrently
and checks the service rankings against a local computation.

Usage:
  go run ./cmd/test-judging [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -projects int
        Number of projects to create (default 60)
  -judges int
        Number of judges to create (default 12)
  -criteria int
        Number of criteria to create (default 4)
  -coverage float
        Share of assigned projects each judge scores (default 0.8)
  -duplicates float
        Share of submissions resent with the same id (default 0.05)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -seed uint
        Generator seed, 0 for a random one
  -timeout duration
        HTTP request timeout (default 30s)
  -wait duration
        How long to wait for queued scores to apply (default 1m)
  -output string
        Output file for the dataset (default: judging_dataset_TIMESTAMP.json)
  -log string
        Log file (default: judging_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/test-judging -projects 200 -judges 30
  go run ./cmd/test-judging -seed 42 -verbose
`)
}
