package testjudging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a JSON request and returns the status and body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, b, nil
}

// getJSON decodes a 200 response from path into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, status, bytes.TrimSpace(body))
	}
	return json.Unmarshal(body, out)
}

// postJSON expects want from POST path and decodes the body into out.
func (c *HTTPClient) postJSON(ctx context.Context, path string, in interface{}, want int, out interface{}) error {
	status, body, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("POST %s: status %d: %s", path, status, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// createCatalog creates criteria, judges and projects. Projects go in one
// bulk request.
func createCatalog(ctx context.Context, client *HTTPClient, ds *Dataset, stats *Stats) error {
	for _, c := range ds.Criteria {
		if err := client.postJSON(ctx, "/criteria", c, StatusCreated, nil); err != nil {
			return fmt.Errorf("create criterion %s: %w", c.ID, err)
		}
		stats.CriteriaCreated++
	}
	for _, j := range ds.Judges {
		if err := client.postJSON(ctx, "/judges", j, StatusCreated, nil); err != nil {
			return fmt.Errorf("create judge %s: %w", j.ID, err)
		}
		stats.JudgesCreated++
	}
	var created []model.Project
	if err := client.postJSON(ctx, "/projects", ds.Projects, StatusCreated, &created); err != nil {
		return fmt.Errorf("create projects: %w", err)
	}
	stats.ProjectsCreated = len(created)

	logger.Get().Info(ctx, "catalog created",
		logger.Int("criteria", stats.CriteriaCreated),
		logger.Int("judges", stats.JudgesCreated),
		logger.Int("projects", stats.ProjectsCreated),
	)
	return nil
}

type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultBackpressure
	resultFailed
)

// submitScores posts every submission through a worker pool. A share of
// them is sent a second time with the same id to exercise deduplication.
func submitScores(ctx context.Context, config *Config, client *HTTPClient, subs []Submission, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting scores", logger.Int("scores", len(subs)), logger.Int("workers", config.Workers))

	g := newGenerator(config.Seed + 1)
	var resend []Submission
	for _, s := range subs {
		if g.rng.Float64() < config.DuplicateRate {
			resend = append(resend, s)
		}
	}
	all := append(append([]Submission(nil), subs...), resend...)

	var counts [resultFailed + 1]atomic.Int64
	var submitted atomic.Int64
	var lastReport atomic.Int64

	work := make(chan Submission, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				res := submitSingleScore(ctx, client, s)
				counts[res].Add(1)
				n := submitted.Add(1)

				now := time.Now().UnixNano()
				if last := lastReport.Load(); now-last >= int64(time.Second) && lastReport.CompareAndSwap(last, now) {
					log.Debug(ctx, "submission progress",
						logger.Int("submitted", int(n)),
						logger.Int("total", len(all)),
						logger.Int("failed", int(counts[resultFailed].Load())),
					)
				}
				if res == resultFailed && config.Verbose {
					log.Warn(ctx, "submission failed", logger.String("submission_id", s.SubmissionID))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, s := range all {
			select {
			case <-ctx.Done():
				return
			case work <- s:
			}
		}
	}()
	wg.Wait()

	stats.ScoresSubmitted = int(submitted.Load())
	stats.ScoresAccepted = int(counts[resultAccepted].Load())
	stats.ScoresDuplicate = int(counts[resultDuplicate].Load())
	stats.ScoresBackpressure = int(counts[resultBackpressure].Load())
	stats.ScoresFailed = int(counts[resultFailed].Load())

	log.Info(ctx, "score submission completed",
		logger.Int("accepted", stats.ScoresAccepted),
		logger.Int("duplicate", stats.ScoresDuplicate),
		logger.Int("backpressure", stats.ScoresBackpressure),
		logger.Int("failed", stats.ScoresFailed),
	)
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// submitSingleScore posts one submission, retrying once on backpressure.
func submitSingleScore(ctx context.Context, client *HTTPClient, s Submission) submitResult {
	for attempt := 0; attempt < 2; attempt++ {
		status, body, err := client.do(ctx, http.MethodPost, "/scores", s)
		if err != nil {
			return resultFailed
		}
		switch status {
		case StatusAccepted:
			return resultAccepted
		case StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
				return resultAccepted
			}
			return resultDuplicate
		case StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return resultBackpressure
			case <-time.After(100 * time.Millisecond):
			}
			continue
		default:
			return resultFailed
		}
	}
	return resultBackpressure
}
