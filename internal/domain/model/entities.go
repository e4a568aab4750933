// Package model contains the hackathon entities passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Rating and weight bounds accepted at the service boundary.
const (
	MinRating = 0
	MaxRating = 10
	MinWeight = 0
	MaxWeight = 100
)

// Link is an external reference attached to a project (repo, demo, deck).
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Project is a hackathon submission.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Track       Track  `json:"track"`
	Stage       Stage  `json:"trl"`
	Links       []Link `json:"links,omitempty"`
}

// Validate checks the fields a caller must supply.
func (p Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: project name is required", ErrInvalid)
	case !p.Track.Valid():
		return fmt.Errorf("%w: unknown track %q", ErrInvalid, p.Track)
	case !p.Stage.Valid():
		return fmt.Errorf("%w: project trl is required", ErrInvalid)
	}
	for _, l := range p.Links {
		if strings.TrimSpace(l.URL) == "" {
			return fmt.Errorf("%w: link %q has no url", ErrInvalid, l.Label)
		}
	}
	return nil
}

// Judge scores projects in the tracks they are assigned to.
type Judge struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Validate checks the fields a caller must supply.
func (j Judge) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("%w: judge name is required", ErrInvalid)
	}
	for _, t := range j.Tracks {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown track %q", ErrInvalid, t)
		}
	}
	return nil
}

// Covers reports whether the judge is assigned to track t.
func (j Judge) Covers(t Track) bool {
	for _, own := range j.Tracks {
		if own == t {
			return true
		}
	}
	return false
}

// Criterion is one axis of evaluation with a weight per stage.
type Criterion struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight Weights `json:"weight"`
}

// Validate checks the name and that both weights are percentages.
func (c Criterion) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: criterion name is required", ErrInvalid)
	}
	for _, s := range Stages {
		if w := c.Weight.For(s); w < MinWeight || w > MaxWeight {
			return fmt.Errorf("%w: %s weight %d outside %d-%d", ErrInvalid, s, w, MinWeight, MaxWeight)
		}
	}
	return nil
}

// Score is one judge's evaluation of one project.
type Score struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"project_id"`
	JudgeID        string         `json:"judge_id"`
	CriteriaScores map[string]int `json:"criteria_scores"`
	// JuryStage is the judge's own readiness assessment. It never affects weighting.
	JuryStage Stage  `json:"jury_trl,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Validate checks references are present and ratings lie within 0-10.
func (s Score) Validate() error {
	switch {
	case strings.TrimSpace(s.ProjectID) == "":
		return fmt.Errorf("%w: project_id is required", ErrInvalid)
	case strings.TrimSpace(s.JudgeID) == "":
		return fmt.Errorf("%w: judge_id is required", ErrInvalid)
	case s.JuryStage != StageUnset && !s.JuryStage.Valid():
		return fmt.Errorf("%w: unknown jury_trl", ErrInvalid)
	}
	for id, r := range s.CriteriaScores {
		if r < MinRating || r > MaxRating {
			return fmt.Errorf("%w: rating %d for criterion %q outside %d-%d", ErrInvalid, r, id, MinRating, MaxRating)
		}
	}
	return nil
}

// Clone returns a copy that shares no maps with s.
func (s Score) Clone() Score {
	out := s
	if s.CriteriaScores != nil {
		out.CriteriaScores = make(map[string]int, len(s.CriteriaScores))
		for k, v := range s.CriteriaScores {
			out.CriteriaScores[k] = v
		}
	}
	return out
}
