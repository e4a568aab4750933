package service

import (
	"context"
	"fmt"

	"github.com/okian/juryrank/internal/adapters/repository"
	"github.com/okian/juryrank/internal/domain/model"
)

// Rankings returns the current ranking, best first. With a track, only that
// track's projects are returned; ranks stay those of the overall ranking.
func (s *Service) Rankings(_ context.Context, track model.Track) ([]model.ProjectResult, error) {
	if track != "" && !track.Valid() {
		return nil, fmt.Errorf("%w: unknown track %q", model.ErrInvalid, track)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ProjectResult, 0, len(s.results))
	for _, r := range s.results {
		if track == "" || r.Project.Track == track {
			out = append(out, r)
		}
	}
	return out, nil
}

// ProjectRank returns the ranking entry of one project. Projects without
// scores yield ErrNotRanked.
func (s *Service) ProjectRank(_ context.Context, id string) (model.ProjectResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.Project.ID == id {
			return r, nil
		}
	}
	if indexOf(s.state.Projects, id, projectID) >= 0 {
		return model.ProjectResult{}, fmt.Errorf("project %q: %w", id, ErrNotRanked)
	}
	return model.ProjectResult{}, fmt.Errorf("project %q: %w", id, repository.ErrNotFound)
}

// Version returns the state version the cached rankings were computed from.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
