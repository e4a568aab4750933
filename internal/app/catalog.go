package service

import (
	"context"
	"fmt"

	"github.com/okian/juryrank/internal/adapters/repository"
	"github.com/okian/juryrank/internal/domain/model"
)

// Projects returns every project in insertion order.
func (s *Service) Projects(_ context.Context) []model.Project {
	return s.snapshot().Projects
}

// Project returns one project or repository.ErrNotFound.
func (s *Service) Project(_ context.Context, id string) (model.Project, error) {
	st := s.snapshot()
	if i := indexOf(st.Projects, id, projectID); i >= 0 {
		return st.Projects[i], nil
	}
	return model.Project{}, fmt.Errorf("project %q: %w", id, repository.ErrNotFound)
}

// CreateProjects validates and stores ps in one write. Missing ids are generated.
func (s *Service) CreateProjects(ctx context.Context, ps []model.Project) ([]model.Project, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no projects given", model.ErrInvalid)
	}
	out := make([]model.Project, len(ps))
	for i, p := range ps {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("project %d: %w", i, err)
		}
		if p.ID == "" {
			p.ID = s.newID()
		}
		out[i] = p
	}
	err := s.mutate(ctx, "create_projects", func(st *model.State) error {
		seen := make(map[string]bool, len(out))
		for _, p := range out {
			if seen[p.ID] || indexOf(st.Projects, p.ID, projectID) >= 0 {
				return fmt.Errorf("project %q: %w", p.ID, ErrConflict)
			}
			seen[p.ID] = true
		}
		st.Projects = append(st.Projects, out...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProject replaces the project with p.ID.
func (s *Service) UpdateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if err := p.Validate(); err != nil {
		return model.Project{}, err
	}
	err := s.mutate(ctx, "update_project", func(st *model.State) error {
		i := indexOf(st.Projects, p.ID, projectID)
		if i < 0 {
			return fmt.Errorf("project %q: %w", p.ID, repository.ErrNotFound)
		}
		st.Projects[i] = p
		return nil
	})
	return p, err
}

// DeleteProject removes the project and every score given to it.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_project", func(st *model.State) error {
		i := indexOf(st.Projects, id, projectID)
		if i < 0 {
			return fmt.Errorf("project %q: %w", id, repository.ErrNotFound)
		}
		st.Projects = append(st.Projects[:i], st.Projects[i+1:]...)
		st.Scores = keepScores(st.Scores, func(sc model.Score) bool { return sc.ProjectID != id })
		return nil
	})
}

// Judges returns every judge in insertion order.
func (s *Service) Judges(_ context.Context) []model.Judge {
	return s.snapshot().Judges
}

// Judge returns one judge or repository.ErrNotFound.
func (s *Service) Judge(_ context.Context, id string) (model.Judge, error) {
	st := s.snapshot()
	if i := indexOf(st.Judges, id, judgeID); i >= 0 {
		return st.Judges[i], nil
	}
	return model.Judge{}, fmt.Errorf("judge %q: %w", id, repository.ErrNotFound)
}

// CreateJudge validates and stores j. A missing id is generated.
func (s *Service) CreateJudge(ctx context.Context, j model.Judge) (model.Judge, error) {
	if err := j.Validate(); err != nil {
		return model.Judge{}, err
	}
	if j.ID == "" {
		j.ID = s.newID()
	}
	err := s.mutate(ctx, "create_judge", func(st *model.State) error {
		if indexOf(st.Judges, j.ID, judgeID) >= 0 {
			return fmt.Errorf("judge %q: %w", j.ID, ErrConflict)
		}
		st.Judges = append(st.Judges, j)
		return nil
	})
	return j, err
}

// UpdateJudge replaces the judge with j.ID.
func (s *Service) UpdateJudge(ctx context.Context, j model.Judge) (model.Judge, error) {
	if err := j.Validate(); err != nil {
		return model.Judge{}, err
	}
	err := s.mutate(ctx, "update_judge", func(st *model.State) error {
		i := indexOf(st.Judges, j.ID, judgeID)
		if i < 0 {
			return fmt.Errorf("judge %q: %w", j.ID, repository.ErrNotFound)
		}
		st.Judges[i] = j
		return nil
	})
	return j, err
}

// DeleteJudge removes the judge and every score they gave.
func (s *Service) DeleteJudge(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_judge", func(st *model.State) error {
		i := indexOf(st.Judges, id, judgeID)
		if i < 0 {
			return fmt.Errorf("judge %q: %w", id, repository.ErrNotFound)
		}
		st.Judges = append(st.Judges[:i], st.Judges[i+1:]...)
		st.Scores = keepScores(st.Scores, func(sc model.Score) bool { return sc.JudgeID != id })
		return nil
	})
}

// Assignments lists the projects in the judge's tracks, split by whether the
// judge has scored them.
func (s *Service) Assignments(_ context.Context, id string) (model.Assignments, error) {
	st := s.snapshot()
	i := indexOf(st.Judges, id, judgeID)
	if i < 0 {
		return model.Assignments{}, fmt.Errorf("judge %q: %w", id, repository.ErrNotFound)
	}
	judge := st.Judges[i]

	scored := make(map[string]bool)
	for _, sc := range st.Scores {
		if sc.JudgeID == id {
			scored[sc.ProjectID] = true
		}
	}
	out := model.Assignments{JudgeID: id, ToScore: []model.Project{}, Scored: []model.Project{}}
	for _, p := range st.Projects {
		if !judge.Covers(p.Track) {
			continue
		}
		if scored[p.ID] {
			out.Scored = append(out.Scored, p)
		} else {
			out.ToScore = append(out.ToScore, p)
		}
	}
	return out, nil
}

// Criteria returns every criterion in insertion order.
func (s *Service) Criteria(_ context.Context) []model.Criterion {
	return s.snapshot().Criteria
}

// Criterion returns one criterion or repository.ErrNotFound.
func (s *Service) Criterion(_ context.Context, id string) (model.Criterion, error) {
	st := s.snapshot()
	if i := indexOf(st.Criteria, id, criterionID); i >= 0 {
		return st.Criteria[i], nil
	}
	return model.Criterion{}, fmt.Errorf("criterion %q: %w", id, repository.ErrNotFound)
}

// CreateCriterion validates and stores c. A missing id is generated.
func (s *Service) CreateCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error) {
	if err := c.Validate(); err != nil {
		return model.Criterion{}, err
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	err := s.mutate(ctx, "create_criterion", func(st *model.State) error {
		if indexOf(st.Criteria, c.ID, criterionID) >= 0 {
			return fmt.Errorf("criterion %q: %w", c.ID, ErrConflict)
		}
		st.Criteria = append(st.Criteria, c)
		return nil
	})
	return c, err
}

// UpdateCriterion replaces the criterion with c.ID.
func (s *Service) UpdateCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error) {
	if err := c.Validate(); err != nil {
		return model.Criterion{}, err
	}
	err := s.mutate(ctx, "update_criterion", func(st *model.State) error {
		i := indexOf(st.Criteria, c.ID, criterionID)
		if i < 0 {
			return fmt.Errorf("criterion %q: %w", c.ID, repository.ErrNotFound)
		}
		st.Criteria[i] = c
		return nil
	})
	return c, err
}

// DeleteCriterion removes the criterion. Ratings already given for it stay on
// the scores and stop contributing to the weighted totals.
func (s *Service) DeleteCriterion(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_criterion", func(st *model.State) error {
		i := indexOf(st.Criteria, id, criterionID)
		if i < 0 {
			return fmt.Errorf("criterion %q: %w", id, repository.ErrNotFound)
		}
		st.Criteria = append(st.Criteria[:i], st.Criteria[i+1:]...)
		return nil
	})
}

func projectID(p model.Project) string     { return p.ID }
func judgeID(j model.Judge) string         { return j.ID }
func criterionID(c model.Criterion) string { return c.ID }
func scoreID(sc model.Score) string        { return sc.ID }

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i, it := range items {
		if key(it) == id {
			return i
		}
	}
	return -1
}

func keepScores(scores []model.Score, keep func(model.Score) bool) []model.Score {
	out := scores[:0]
	for _, sc := range scores {
		if keep(sc) {
			out = append(out, sc)
		}
	}
	return out
}
