package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/juryrank/internal/domain/model"
)

// document is the persisted shape. Pointers distinguish a missing collection
// from an empty one.
type document struct {
	Projects *[]model.Project   `json:"projects"`
	Judges   *[]model.Judge     `json:"judges"`
	Criteria *[]model.Criterion `json:"criteria"`
	Scores   *[]model.Score     `json:"scores"`
}

func encodeState(st model.State) ([]byte, error) {
	st = st.Clone()
	b, err := json.Marshal(document{
		Projects: &st.Projects,
		Judges:   &st.Judges,
		Criteria: &st.Criteria,
		Scores:   &st.Scores,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: encode state: %w", err)
	}
	return b, nil
}

func decodeState(b []byte) (model.State, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if doc.Projects == nil || doc.Judges == nil || doc.Criteria == nil || doc.Scores == nil {
		return model.State{}, fmt.Errorf("%w: missing collection", ErrCorruptState)
	}
	return model.State{
		Projects: *doc.Projects,
		Judges:   *doc.Judges,
		Criteria: *doc.Criteria,
		Scores:   *doc.Scores,
	}, nil
}
