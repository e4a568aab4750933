// Package types contains the wire shapes shared by the HTTP API and its clients
package types

import "github.com/okian/juryrank/internal/domain/model"

// Entry is a compact ranking row
type Entry struct {
	Rank             int         `json:"rank"`
	ProjectID        string      `json:"project_id"`
	ProjectName      string      `json:"project_name"`
	Track            model.Track `json:"track"`
	Stage            model.Stage `json:"trl"`
	FinalScore       float64     `json:"final_score"`
	AvgWeightedScore float64     `json:"avg_weighted_score"`
	Judges           int         `json:"judges"`
}

// EntryFrom condenses a full result into an Entry
func EntryFrom(r model.ProjectResult) Entry {
	return Entry{
		Rank:             r.Rank,
		ProjectID:        r.Project.ID,
		ProjectName:      r.Project.Name,
		Track:            r.Project.Track,
		Stage:            r.Project.Stage,
		FinalScore:       r.FinalScore,
		AvgWeightedScore: r.AvgWeightedScore,
		Judges:           len(r.JudgeStats),
	}
}

// Ack is returned for asynchronous score submissions
type Ack struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

// ScoreSubmission is the body of POST /scores
type ScoreSubmission struct {
	SubmissionID string `json:"submission_id"`
	model.Score
}
