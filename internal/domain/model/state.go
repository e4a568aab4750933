package model

import "time"

// State is the full document the storage layer reads and writes.
type State struct {
	Projects []Project   `json:"projects"`
	Judges   []Judge     `json:"judges"`
	Criteria []Criterion `json:"criteria"`
	Scores   []Score     `json:"scores"`
}

// Clone deep-copies the state so callers can mutate the result freely.
func (s State) Clone() State {
	out := State{
		Projects: make([]Project, len(s.Projects)),
		Judges:   make([]Judge, len(s.Judges)),
		Criteria: make([]Criterion, len(s.Criteria)),
		Scores:   make([]Score, len(s.Scores)),
	}
	for i, p := range s.Projects {
		if p.Links != nil {
			p.Links = append([]Link(nil), p.Links...)
		}
		out.Projects[i] = p
	}
	for i, j := range s.Judges {
		if j.Tracks != nil {
			j.Tracks = append([]Track(nil), j.Tracks...)
		}
		out.Judges[i] = j
	}
	copy(out.Criteria, s.Criteria)
	for i, sc := range s.Scores {
		out.Scores[i] = sc.Clone()
	}
	return out
}

// Submission is a score posted for asynchronous application.
type Submission struct {
	SubmissionID string
	Score        Score
	ReceivedAt   time.Time
}

// Assignments splits the projects in a judge's tracks by whether the judge scored them.
type Assignments struct {
	JudgeID string    `json:"judge_id"`
	ToScore []Project `json:"to_score"`
	Scored  []Project `json:"scored"`
}
