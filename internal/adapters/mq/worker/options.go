package worker

import (
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnApplied registers a hook called after each submission is applied.
func WithOnApplied(fn func(model.Submission, model.Score)) Option {
	return func(w *InMemoryWorker) {
		w.onApplied = fn
	}
}
