package testjudging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/juryrank/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete judging test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	if config.Seed == 0 {
		config.Seed = uint64(time.Now().UnixNano())
	}
	if config.Tolerance <= 0 {
		config.Tolerance = DefaultTolerance
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting judging test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("projects", config.Projects),
		logger.Int("judges", config.Judges),
		logger.Int("criteria", config.Criteria),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Any("seed", config.Seed),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service readiness
	if err := checkServiceReady(ctx, client); err != nil {
		return fmt.Errorf("service readiness check failed: %w", err)
	}

	// Step 2: Generate the event
	ds, err := generateDataset(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("dataset generation failed: %w", err)
	}

	// Step 3: Create criteria, judges and projects
	if err := createCatalog(ctx, client, ds, stats); err != nil {
		return fmt.Errorf("catalog creation failed: %w", err)
	}

	var before ServiceStats
	if err := client.getJSON(ctx, "/stats", &before); err != nil {
		return fmt.Errorf("stats retrieval failed: %w", err)
	}

	// Step 4: Submit scores concurrently
	if err := submitScores(ctx, config, client, ds.Scores, stats); err != nil {
		return fmt.Errorf("score submission failed: %w", err)
	}

	// Step 5: Wait for the queue to drain
	if err := waitForDrain(ctx, client, before.Processed+int64(stats.ScoresAccepted), config.WaitTimeout); err != nil {
		return fmt.Errorf("waiting for scores failed: %w", err)
	}

	// Step 6: Compare service rankings with a local computation
	remote, local, err := fetchRankings(ctx, client)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}
	if err := verifyRankings(remote, local, config.Tolerance, stats); err != nil {
		return fmt.Errorf("ranking verification failed: %w", err)
	}
	displayTopProjects(ctx, remote, config.Verbose)

	// Step 7: Save the dataset
	if err := saveDataset(ctx, config, ds); err != nil {
		logger.Get().Warn(ctx, "failed to save dataset", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceReady verifies the service and its store answer.
func checkServiceReady(ctx context.Context, client *HTTPClient) error {
	status, _, err := client.do(ctx, "GET", "/readyz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != StatusOK {
		return fmt.Errorf("service readiness check failed with status: %d", status)
	}
	logger.Get().Info(ctx, "service is ready")
	return nil
}

// waitForDrain polls /stats until want submissions were applied. If the
// queue is empty and the counter stops moving, some submissions were
// rejected by the service; the run continues with what was applied.
func waitForDrain(ctx context.Context, client *HTTPClient, want int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(DrainPollInterval)
	defer ticker.Stop()

	var last int64 = -1
	stable := 0
	for {
		var st ServiceStats
		if err := client.getJSON(ctx, "/stats", &st); err != nil {
			return err
		}
		if st.QueueLength == 0 {
			if st.Processed >= want {
				logger.Get().Info(ctx, "all scores applied", logger.Int("processed", int(st.Processed)))
				return nil
			}
			if st.Processed == last {
				stable++
			} else {
				stable = 0
			}
			if stable >= DrainStablePolls {
				logger.Get().Warn(ctx, "queue drained with rejected submissions",
					logger.Int("processed", int(st.Processed)),
					logger.Int("expected", int(want)),
				)
				return nil
			}
		}
		last = st.Processed

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// saveDataset writes the generated dataset to a JSON file.
func saveDataset(ctx context.Context, config *Config, ds *Dataset) error {
	filename := config.OutputFile
	if filename == "" {
		filename = "judging_dataset_" + time.Now().Format("20060102_150405") + ".json"
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	b, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(filename, b, filePermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	logger.Get().Info(ctx, "dataset saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, scoresPerSecond float64
	if stats.ScoresSubmitted > 0 {
		acceptRate = float64(stats.ScoresAccepted) / float64(stats.ScoresSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		scoresPerSecond = float64(stats.ScoresSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("criteriaCreated", stats.CriteriaCreated),
		logger.Int("judgesCreated", stats.JudgesCreated),
		logger.Int("projectsCreated", stats.ProjectsCreated),
		logger.Int("scoresGenerated", stats.ScoresGenerated),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("scoresAccepted", stats.ScoresAccepted),
		logger.Int("scoresDuplicate", stats.ScoresDuplicate),
		logger.Int("scoresBackpressure", stats.ScoresBackpressure),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("rankedProjects", stats.RankedProjects),
		logger.Float64("maxScoreDelta", stats.MaxScoreDelta),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("scoresPerSecond", scoresPerSecond),
	)
}
