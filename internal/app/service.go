// Package service owns the hackathon catalog, the score submission pipeline
// and the cached rankings served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/juryrank/internal/adapters/mq/queue"
	"github.com/okian/juryrank/internal/adapters/mq/worker"
	"github.com/okian/juryrank/internal/adapters/repository"
	"github.com/okian/juryrank/internal/domain/dedupe"
	"github.com/okian/juryrank/internal/domain/fixtures"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/ranking"
	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

// Service implements the API dependencies for the ranking system.
type Service struct {
	// mu guards state, version and results.
	mu      sync.RWMutex
	state   model.State
	version uint64
	results []model.ProjectResult

	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	subs    *subscribers

	workerCount int
	queueSize   int
	dedupeSize  int
	seedDemo    bool
	newID       func() string

	// life guards started.
	life    sync.Mutex
	started bool

	logger logger.Logger
}

// New constructs a Service. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		newID:       uuid.NewString,
		subs:        newSubscribers(),
		results:     []model.ProjectResult{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start loads the state, seeds demo data if configured and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.life.Lock()
	defer s.life.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting ranking service...")

	st, err := s.loadOrSeed(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = st
	s.version++
	s.recompute(ctx)
	s.mu.Unlock()

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("projects", len(st.Projects)),
		logger.Int("scores", len(st.Scores)),
	)
	return nil
}

func (s *Service) loadOrSeed(ctx context.Context) (model.State, error) {
	st, err := s.store.Load(ctx)
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, repository.ErrEmpty), errors.Is(err, repository.ErrCorruptState):
		if errors.Is(err, repository.ErrCorruptState) {
			s.logger.Warn(ctx, "stored state is corrupt, starting over", logger.Error(err))
		}
		st = model.State{}.Clone()
		if s.seedDemo {
			st = fixtures.Demo()
			s.logger.Info(ctx, "seeding demo data")
		}
		if err := s.store.Save(ctx, st); err != nil {
			return model.State{}, fmt.Errorf("save initial state: %w", err)
		}
		return st, nil
	default:
		return model.State{}, fmt.Errorf("load state: %w", err)
	}
}

// Stop drains pending submissions, then closes subscribers and the store.
func (s *Service) Stop(ctx context.Context) error {
	s.life.Lock()
	defer s.life.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping ranking service...")

	_ = s.queue.Close()
	err := s.pool.Shutdown(ctx)
	s.subs.closeAll()
	if cerr := s.store.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	s.started = false

	s.logger.Info(ctx, "ranking service stopped")
	return err
}

// Ping checks the state backend.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// mutate applies fn to a copy of the state, persists it and swaps it in.
// The in-memory state only changes when the save succeeds.
func (s *Service) mutate(ctx context.Context, op string, fn func(*model.State) error) error {
	s.mu.Lock()
	next := s.state.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		s.logger.Error(ctx, "persist state failed", logger.String("op", op), logger.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.state = next
	s.version++
	s.recompute(ctx)
	update := Update{Version: s.version, Results: s.results, At: time.Now()}
	s.mu.Unlock()

	metrics.RecordStateMutation(op)
	s.subs.publish(update)
	return nil
}

// recompute refreshes the cached rankings. Caller holds s.mu for writing.
func (s *Service) recompute(ctx context.Context) {
	start := time.Now()
	s.results = ranking.Rank(s.state.Projects, s.state.Scores, s.state.Criteria)
	elapsed := time.Since(start)

	known := make(map[string]struct{}, len(s.state.Projects))
	for _, p := range s.state.Projects {
		known[p.ID] = struct{}{}
	}
	orphaned := 0
	for _, sc := range s.state.Scores {
		if _, ok := known[sc.ProjectID]; !ok {
			orphaned++
		}
	}

	metrics.RecordRankingComputed(float64(elapsed.Microseconds())/1000, len(s.results), orphaned)
	metrics.UpdateEntityCount("projects", len(s.state.Projects))
	metrics.UpdateEntityCount("judges", len(s.state.Judges))
	metrics.UpdateEntityCount("criteria", len(s.state.Criteria))
	metrics.UpdateEntityCount("scores", len(s.state.Scores))

	if s.logger != nil {
		s.logger.Debug(ctx, "rankings recomputed",
			logger.Int("ranked", len(s.results)),
			logger.Int("orphaned_scores", orphaned),
			logger.Duration("took", elapsed),
		)
	}
}

// snapshot returns a private copy of the current state.
func (s *Service) snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Stats summarizes the service for /stats.
type Stats struct {
	Started        bool   `json:"started"`
	Workers        int    `json:"workers"`
	QueueCapacity  int    `json:"queue_capacity"`
	QueueLength    int    `json:"queue_length"`
	DedupeSize     int64  `json:"dedupe_size"`
	Processed      int64  `json:"processed"`
	Projects       int    `json:"projects"`
	Judges         int    `json:"judges"`
	Criteria       int    `json:"criteria"`
	Scores         int    `json:"scores"`
	RankedProjects int    `json:"ranked_projects"`
	StateVersion   uint64 `json:"state_version"`
	Subscribers    int    `json:"subscribers"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.life.Lock()
	started := s.started
	st := Stats{Started: started, Workers: s.workerCount, QueueCapacity: s.queueSize}
	if started {
		st.QueueLength = s.queue.Len(ctx)
		st.DedupeSize = s.deduper.Size()
		st.Processed = s.pool.Processed()
	}
	s.life.Unlock()

	s.mu.RLock()
	st.Projects = len(s.state.Projects)
	st.Judges = len(s.state.Judges)
	st.Criteria = len(s.state.Criteria)
	st.Scores = len(s.state.Scores)
	st.RankedProjects = len(s.results)
	st.StateVersion = s.version
	s.mu.RUnlock()

	st.Subscribers = s.subs.count()
	return st
}
