// Package repository persists the hackathon state document.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/metrics"
)

// Store loads and saves the whole hackathon state as one document.
type Store interface {
	// Load returns the stored state, or ErrEmpty when nothing was saved yet.
	Load(ctx context.Context) (model.State, error)
	// Save replaces the stored state.
	Save(ctx context.Context, state model.State) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// instrumented records latency and failures of the wrapped store.
type instrumented struct {
	Store
	driver string
}

// Instrument wraps s so each call is reported under the driver label.
func Instrument(s Store, driver string) Store {
	return &instrumented{Store: s, driver: driver}
}

func (i *instrumented) Load(ctx context.Context) (model.State, error) {
	start := time.Now()
	st, err := i.Store.Load(ctx)
	i.observe("load", start, err)
	return st, err
}

func (i *instrumented) Save(ctx context.Context, state model.State) error {
	start := time.Now()
	err := i.Store.Save(ctx, state)
	i.observe("save", start, err)
	return err
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordStoreLatency(i.driver, op, ms)
	if err != nil && !errors.Is(err, ErrEmpty) {
		metrics.RecordStoreError(i.driver, op)
		metrics.RecordErrorByComponent("repository", op)
	}
}
