// Package worker applies queued score submissions to the catalog.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

const metricsUpdateInterval = 5 * time.Second

// Applier writes a score, returning the stored version.
type Applier interface {
	UpsertScore(ctx context.Context, s model.Score) (model.Score, error)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Submission
}

// InMemoryWorker drains the queue until it is closed or ctx ends.
type InMemoryWorker struct {
	queue     Queue
	applier   Applier
	name      string
	logger    logger.Logger
	onApplied func(model.Submission, model.Score)

	processed *atomic.Int64
	done      chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		applier:   applier,
		name:      "worker",
		processed: &atomic.Int64{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes submissions until the queue channel closes or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	in := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-in:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, sub); err != nil {
				w.logger.Error(ctx, "error applying submission", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, sub model.Submission) error { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	stored, err := w.applier.UpsertScore(ctx, sub.Score)
	if err != nil {
		metrics.RecordSubmissionRejected()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		metrics.RecordErrorByType("apply_error", "high")
		w.logger.Warn(ctx, "submission rejected",
			logger.String("submission_id", sub.SubmissionID),
			logger.String("project_id", sub.Score.ProjectID),
			logger.String("judge_id", sub.Score.JudgeID),
			logger.Error(err),
		)
		return fmt.Errorf("apply submission %s: %w", sub.SubmissionID, err)
	}

	w.processed.Add(1)
	metrics.RecordSubmissionApplied()
	w.logger.Debug(ctx, "submission applied",
		logger.String("submission_id", sub.SubmissionID),
		logger.String("score_id", stored.ID),
		logger.Duration("queued_for", start.Sub(sub.ReceivedAt)),
	)
	if w.onApplied != nil {
		w.onApplied(sub, stored)
	}
	return nil
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers   []*InMemoryWorker
	processed atomic.Int64
	stop      chan struct{}
	stopOnce  sync.Once
	logger    logger.Logger
}

// NewPool creates workerCount workers. Values < 1 use runtime.NumCPU().
func NewPool(workerCount int, q Queue, applier Applier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		stop:    make(chan struct{}),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, applier, wopts...)
		w.processed = &p.processed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Start launches every worker and the throughput reporter.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.reportThroughput(ctx)
}

// Processed returns how many submissions were applied successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

func (p *Pool) reportThroughput(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	last := p.processed.Load()
	lastAt := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case now := <-ticker.C:
			cur := p.processed.Load()
			if secs := now.Sub(lastAt).Seconds(); secs > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(cur-last) / secs)
			}
			last, lastAt = cur, now
		}
	}
}

// Shutdown waits for the workers to drain the queue. The caller must close
// the queue first; workers exit once it is empty.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
