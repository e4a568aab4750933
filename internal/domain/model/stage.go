package model

import (
	"fmt"
	"strings"
)

// Stage is a project's technology-readiness bucket.
type Stage uint8

const (
	// StageUnset marks an absent stage, e.g. a score without a jury assessment.
	StageUnset Stage = iota
	// StageIdeation covers TRL 1-3.
	StageIdeation
	// StagePrototype covers TRL 4-6.
	StagePrototype
)

// Stages lists every valid stage in display order.
var Stages = []Stage{StageIdeation, StagePrototype}

const (
	ideationLabel  = "Ideation"
	prototypeLabel = "Prototype"
)

// String returns the short label of the stage.
func (s Stage) String() string {
	switch s {
	case StageIdeation:
		return ideationLabel
	case StagePrototype:
		return prototypeLabel
	default:
		return ""
	}
}

// Valid reports whether s is one of the two defined stages.
func (s Stage) Valid() bool {
	return s == StageIdeation || s == StagePrototype
}

// ParseStage accepts the short labels and the long "(TRL x-y)" labels, case-insensitively.
func ParseStage(v string) (Stage, error) {
	label := strings.ToLower(strings.TrimSpace(v))
	switch {
	case label == "":
		return StageUnset, nil
	case label == "ideation", strings.HasPrefix(label, "ideation ("):
		return StageIdeation, nil
	case label == "prototype", strings.HasPrefix(label, "prototype ("):
		return StagePrototype, nil
	}
	return StageUnset, fmt.Errorf("%w: unknown stage %q", ErrInvalid, v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(b []byte) error {
	parsed, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Weights holds a criterion's percentage weight for each stage.
type Weights struct {
	Ideation  int `json:"ideation"`
	Prototype int `json:"prototype"`
}

// For returns the weight that applies to projects at stage s.
// An unset stage has no weight.
func (w Weights) For(s Stage) int {
	switch s {
	case StageIdeation:
		return w.Ideation
	case StagePrototype:
		return w.Prototype
	default:
		return 0
	}
}
