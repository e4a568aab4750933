package testjudging

import (
	"time"

	"github.com/okian/juryrank/internal/domain/model"
)

// Config holds configuration for a judging run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Projects      int           // Number of projects to create
	Judges        int           // Number of judges to create
	Criteria      int           // Number of criteria to create
	Coverage      float64       // Share of assigned projects each judge scores, 0..1
	DuplicateRate float64       // Share of submissions sent twice with the same id, 0..1
	Workers       int           // Number of concurrent submitters
	Seed          uint64        // Generator seed; 0 picks one from the clock
	Timeout       time.Duration // HTTP request timeout
	WaitTimeout   time.Duration // How long to wait for the queue to drain
	Tolerance     float64       // Allowed final score difference during verification
	OutputFile    string        // Output file for the generated dataset
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// Dataset is everything the run creates on the service.
type Dataset struct {
	Seed     uint64            `json:"seed"`
	Criteria []model.Criterion `json:"criteria"`
	Judges   []model.Judge     `json:"judges"`
	Projects []model.Project   `json:"projects"`
	Scores   []Submission      `json:"scores"`
}

// Submission is the body of POST /scores.
type Submission struct {
	SubmissionID string `json:"submission_id"`
	model.Score
}

// AckResponse represents the response from a score submission.
type AckResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

// ServiceStats is the subset of GET /stats the run relies on.
type ServiceStats struct {
	QueueLength  int    `json:"queue_length"`
	Processed    int64  `json:"processed"`
	StateVersion uint64 `json:"state_version"`
}

// Stats holds run statistics.
type Stats struct {
	CriteriaCreated    int
	JudgesCreated      int
	ProjectsCreated    int
	ScoresGenerated    int
	ScoresSubmitted    int
	ScoresAccepted     int
	ScoresDuplicate    int
	ScoresBackpressure int
	ScoresFailed       int
	RankedProjects     int
	MaxScoreDelta      float64
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
