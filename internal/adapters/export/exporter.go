// Package export writes the current rankings to a JSON file, on demand or on
// a cron schedule.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

// Source provides the rankings to export.
type Source interface {
	Rankings(ctx context.Context, track model.Track) ([]model.ProjectResult, error)
	Version() uint64
}

// Document is the file layout written by the exporter.
type Document struct {
	ExportedAt time.Time             `json:"exported_at"`
	Version    uint64                `json:"version"`
	Rankings   []model.ProjectResult `json:"rankings"`
}

// Exporter writes rankings snapshots to a single path.
type Exporter struct {
	src           Source
	path          string
	spec          string
	skipUnchanged bool
	logger        logger.Logger
	now           func() time.Time

	mu          sync.Mutex // serializes writes
	lastVersion uint64
	exported    bool

	cron *cron.Cron
}

// New creates an exporter writing to path. The schedule, if any, is
// validated here so a bad expression fails at startup.
func New(src Source, path string, opts ...Option) (*Exporter, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	e := &Exporter{src: src, path: path, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("export")
	}
	if e.spec != "" {
		e.cron = cron.New()
		if _, err := e.cron.AddFunc(e.spec, e.scheduled); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrSchedule, e.spec, err)
		}
	}
	return e, nil
}

// Start begins scheduled exports. Without a schedule it does nothing.
func (e *Exporter) Start(ctx context.Context) {
	if e.cron == nil {
		return
	}
	e.cron.Start()
	e.logger.Info(ctx, "export scheduled",
		logger.String("schedule", e.spec),
		logger.String("path", e.path),
	)
}

// Stop halts the schedule and waits for a running export to finish or ctx
// to expire.
func (e *Exporter) Stop(ctx context.Context) error {
	if e.cron == nil {
		return nil
	}
	done := e.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExportNow writes the current rankings to the export path.
func (e *Exporter) ExportNow(ctx context.Context) (Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.write(ctx)
}

func (e *Exporter) scheduled() {
	ctx := context.Background()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.skipUnchanged && e.exported && e.src.Version() == e.lastVersion {
		e.logger.Debug(ctx, "rankings unchanged, export skipped", logger.Int("version", int(e.lastVersion)))
		metrics.RecordExport("skipped", e.now())
		return
	}
	if _, err := e.write(ctx); err != nil {
		e.logger.Error(ctx, "scheduled export failed", logger.Error(err))
	}
}

func (e *Exporter) write(ctx context.Context) (Document, error) {
	version := e.src.Version()
	results, err := e.src.Rankings(ctx, "")
	if err != nil {
		metrics.RecordExport("error", e.now())
		return Document{}, fmt.Errorf("export: rankings: %w", err)
	}
	doc := Document{ExportedAt: e.now().UTC(), Version: version, Rankings: results}

	if err := writeAtomic(e.path, doc); err != nil {
		metrics.RecordExport("error", e.now())
		return Document{}, err
	}
	e.lastVersion = version
	e.exported = true
	metrics.RecordExport("ok", doc.ExportedAt)
	e.logger.Info(ctx, "rankings exported",
		logger.String("path", e.path),
		logger.Int("projects", len(results)),
		logger.Int("version", int(version)),
	)
	return doc, nil
}

func writeAtomic(path string, doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("export: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: rename: %w", err)
	}
	return nil
}
