package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/juryrank/internal/adapters/mq/queue"
	"github.com/okian/juryrank/internal/adapters/repository"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

// ScoreFilter narrows Scores. Empty fields match everything.
type ScoreFilter struct {
	JudgeID   string
	ProjectID string
}

// Scores returns the scores matching f in insertion order.
func (s *Service) Scores(_ context.Context, f ScoreFilter) []model.Score {
	st := s.snapshot()
	out := make([]model.Score, 0, len(st.Scores))
	for _, sc := range st.Scores {
		if f.JudgeID != "" && sc.JudgeID != f.JudgeID {
			continue
		}
		if f.ProjectID != "" && sc.ProjectID != f.ProjectID {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// checkScore validates sc and its references against st.
func checkScore(st *model.State, sc model.Score) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	if indexOf(st.Projects, sc.ProjectID, projectID) < 0 {
		return fmt.Errorf("%w: unknown project %q", model.ErrInvalid, sc.ProjectID)
	}
	if indexOf(st.Judges, sc.JudgeID, judgeID) < 0 {
		return fmt.Errorf("%w: unknown judge %q", model.ErrInvalid, sc.JudgeID)
	}
	return nil
}

// UpsertScore stores sc. A judge has at most one score per project: when the
// (project, judge) pair is already scored, that score is replaced and keeps
// its id. Otherwise a score with the same id is replaced, or sc is appended.
func (s *Service) UpsertScore(ctx context.Context, sc model.Score) (model.Score, error) {
	sc = sc.Clone()
	err := s.mutate(ctx, "upsert_score", func(st *model.State) error {
		if err := checkScore(st, sc); err != nil {
			return err
		}
		for i, existing := range st.Scores {
			if existing.ProjectID == sc.ProjectID && existing.JudgeID == sc.JudgeID {
				sc.ID = existing.ID
				st.Scores[i] = sc
				return nil
			}
		}
		if sc.ID != "" {
			if i := indexOf(st.Scores, sc.ID, scoreID); i >= 0 {
				st.Scores[i] = sc
				return nil
			}
		} else {
			sc.ID = s.newID()
		}
		st.Scores = append(st.Scores, sc)
		return nil
	})
	if err != nil {
		return model.Score{}, err
	}
	return sc, nil
}

// DeleteScore removes one score.
func (s *Service) DeleteScore(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_score", func(st *model.State) error {
		i := indexOf(st.Scores, id, scoreID)
		if i < 0 {
			return fmt.Errorf("score %q: %w", id, repository.ErrNotFound)
		}
		st.Scores = append(st.Scores[:i], st.Scores[i+1:]...)
		return nil
	})
}

// SubmitResult acknowledges an asynchronous submission.
type SubmitResult struct {
	SubmissionID string
	Duplicate    bool
}

// SubmitScore validates sc and queues it for the workers. A repeated
// submissionID is acknowledged as a duplicate without being queued again.
// An empty submissionID gets a generated one.
func (s *Service) SubmitScore(ctx context.Context, submissionID string, sc model.Score) (SubmitResult, error) {
	s.life.Lock()
	started := s.started
	s.life.Unlock()
	if !started {
		return SubmitResult{}, ErrNotStarted
	}

	s.mu.RLock()
	err := checkScore(&s.state, sc)
	s.mu.RUnlock()
	if err != nil {
		return SubmitResult{}, err
	}

	if submissionID == "" {
		submissionID = s.newID()
	}
	res := SubmitResult{SubmissionID: submissionID}

	if s.deduper.SeenAndRecord(ctx, submissionID) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", submissionID))
		res.Duplicate = true
		return res, nil
	}

	err = s.queue.Enqueue(ctx, model.Submission{
		SubmissionID: submissionID,
		Score:        sc.Clone(),
		ReceivedAt:   time.Now(),
	})
	if err != nil {
		s.deduper.Unrecord(ctx, submissionID)
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return SubmitResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return SubmitResult{}, err
	}
	metrics.RecordSubmissionAccepted()
	return res, nil
}
