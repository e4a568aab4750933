package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/okian/juryrank/internal/adapters/http/api"
	service "github.com/okian/juryrank/internal/app"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/types"
	"github.com/okian/juryrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// newTestServer starts a demo-seeded service behind the API routes.
func newTestServer(opts ...api.ServerOption) (*httptest.Server, *service.Service) {
	svc := service.New(service.WithSeedDemoData(true), service.WithWorkerCount(2))
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, opts...).Register(mux)
	ts := httptest.NewServer(mux)
	Reset(func() {
		ts.Close()
		_ = svc.Stop(context.Background())
	})
	return ts, svc
}

func do(ts *httptest.Server, method, path, body string, headers ...string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	So(err, ShouldBeNil)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp, b
}

func decode[T any](b []byte) T {
	var v T
	So(json.Unmarshal(b, &v), ShouldBeNil)
	return v
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, _ := newTestServer()

		Convey("When GET /healthz is requested", func() {
			resp, body := do(ts, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus metrics are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "juryrank_")
			})
		})

		Convey("When GET /readyz is requested", func() {
			resp, _ := do(ts, http.MethodGet, "/readyz", "")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When GET /stats is requested", func() {
			resp, body := do(ts, http.MethodGet, "/stats", "")
			st := decode[service.Stats](body)

			Convey("Then service counters are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(st.Started, ShouldBeTrue)
				So(st.Projects, ShouldEqual, 6)
				So(st.RankedProjects, ShouldEqual, 5)
			})
		})

		Convey("When an unsupported method is used", func() {
			resp, _ := do(ts, http.MethodPatch, "/projects", "")

			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyWhenStoreIsDown(t *testing.T) {
	Convey("Given a health handler whose store is unreachable", t, func() {
		h := api.NewHealthHandler(downPinger{})
		rec := httptest.NewRecorder()
		h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		Convey("Then /readyz answers 503 with an error body", func() {
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(rec.Body.String(), ShouldContainSubstring, `"code":"unavailable"`)
		})
	})
}

func TestProjectsAPI(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, _ := newTestServer()

		Convey("When listing projects", func() {
			resp, body := do(ts, http.MethodGet, "/projects", "")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(decode[[]model.Project](body)), ShouldEqual, 6)
		})

		Convey("When one project is posted", func() {
			resp, body := do(ts, http.MethodPost, "/projects",
				`{"name":"Solo","track":"DLT for Operations","trl":"Ideation (TRL 1-3)"}`)

			Convey("Then it is created with an id and returned as an object", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				p := decode[model.Project](body)
				So(p.ID, ShouldNotBeEmpty)
				So(p.Stage, ShouldEqual, model.StageIdeation)
			})
		})

		Convey("When an array of projects is posted", func() {
			resp, body := do(ts, http.MethodPost, "/projects",
				`[{"name":"A","track":"DLT for Operations","trl":"Ideation"},{"name":"B","track":"Cross-Chain Track","trl":"Prototype"}]`)

			Convey("Then all are created and returned as an array", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(len(decode[[]model.Project](body)), ShouldEqual, 2)
			})
		})

		Convey("When a project has an unknown stage", func() {
			resp, body := do(ts, http.MethodPost, "/projects", `{"name":"X","track":"DLT for Operations","trl":"Production"}`)

			Convey("Then 400 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(decode[map[string]string](body)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When a project id is reused", func() {
			resp, _ := do(ts, http.MethodPost, "/projects", `{"id":"p1","name":"X","track":"DLT for Operations","trl":"Ideation"}`)

			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("When a project is fetched, updated and deleted", func() {
			resp, body := do(ts, http.MethodGet, "/projects/p2", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			p := decode[model.Project](body)
			So(p.Name, ShouldNotBeEmpty)

			resp, body = do(ts, http.MethodPut, "/projects/p2",
				`{"name":"Renamed","track":"DLT for Operations","trl":"Prototype"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(decode[model.Project](body).ID, ShouldEqual, "p2")

			resp, _ = do(ts, http.MethodDelete, "/projects/p2", "")
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

			Convey("Then it is gone", func() {
				resp, _ := do(ts, http.MethodGet, "/projects/p2", "")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp, _ = do(ts, http.MethodDelete, "/projects/p2", "")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestJudgesAndCriteriaAPI(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, _ := newTestServer()

		Convey("When a judge is created", func() {
			resp, body := do(ts, http.MethodPost, "/judges", `{"name":"Ada","tracks":["Cross-Chain Track"]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			j := decode[model.Judge](body)

			Convey("Then their assignments list the projects of their tracks", func() {
				resp, body := do(ts, http.MethodGet, "/judges/"+j.ID+"/assignments", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				a := decode[model.Assignments](body)
				So(len(a.ToScore), ShouldEqual, 1)
				So(a.ToScore[0].ID, ShouldEqual, "p5")
				So(a.Scored, ShouldBeEmpty)
			})

			Convey("Then they can be updated and deleted", func() {
				resp, _ := do(ts, http.MethodPut, "/judges/"+j.ID, `{"name":"Ada L","tracks":[]}`)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				resp, _ = do(ts, http.MethodDelete, "/judges/"+j.ID, "")
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			})
		})

		Convey("When a judge without a name is created", func() {
			resp, _ := do(ts, http.MethodPost, "/judges", `{"tracks":[]}`)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When assignments are requested for an unknown judge", func() {
			resp, _ := do(ts, http.MethodGet, "/judges/nope/assignments", "")

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When criteria are managed", func() {
			resp, body := do(ts, http.MethodPost, "/criteria", `{"name":"Impact","weight":{"ideation":10,"prototype":20}}`)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			c := decode[model.Criterion](body)

			resp, body = do(ts, http.MethodGet, "/criteria/"+c.ID, "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(decode[model.Criterion](body).Weight.Prototype, ShouldEqual, 20)

			resp, _ = do(ts, http.MethodPut, "/criteria/"+c.ID, `{"name":"Impact","weight":{"ideation":10,"prototype":101}}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp, _ = do(ts, http.MethodDelete, "/criteria/"+c.ID, "")
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

			resp, body = do(ts, http.MethodGet, "/criteria", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(decode[[]model.Criterion](body)), ShouldEqual, 4)
		})
	})
}

func TestScoresAPI(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, svc := newTestServer()

		Convey("When scores are filtered by judge", func() {
			resp, body := do(ts, http.MethodGet, "/scores?judge_id=j1", "")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(decode[[]model.Score](body)), ShouldEqual, 3)
		})

		Convey("When a score is submitted", func() {
			payload := `{"submission_id":"sub-1","project_id":"p5","judge_id":"j3","criteria_scores":{"c1":8,"c2":7}}`
			resp, body := do(ts, http.MethodPost, "/scores", payload)

			Convey("Then it is accepted and applied asynchronously", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				ack := decode[types.Ack](body)
				So(ack.Status, ShouldEqual, "accepted")
				So(ack.SubmissionID, ShouldEqual, "sub-1")

				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					if _, err := svc.ProjectRank(context.Background(), "p5"); err == nil {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				resp, _ := do(ts, http.MethodGet, "/rankings/p5", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})

			Convey("Then resubmitting the same id is acknowledged as a duplicate", func() {
				resp, body := do(ts, http.MethodPost, "/scores", payload)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(decode[types.Ack](body).Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the submission id comes from the Idempotency-Key header", func() {
			payload := `{"project_id":"p5","judge_id":"j3","criteria_scores":{"c1":8}}`
			do(ts, http.MethodPost, "/scores", payload, "Idempotency-Key", "hdr-1")
			resp, _ := do(ts, http.MethodPost, "/scores", payload, "Idempotency-Key", "hdr-1")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When a submitted rating is out of range", func() {
			resp, _ := do(ts, http.MethodPost, "/scores", `{"project_id":"p5","judge_id":"j3","criteria_scores":{"c1":11}}`)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			resp, _ := do(ts, http.MethodPost, "/scores", `{`)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a score is upserted synchronously", func() {
			resp, body := do(ts, http.MethodPut, "/scores/s1", `{"project_id":"p1","judge_id":"j1","criteria_scores":{"c1":1}}`)

			Convey("Then the stored score is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				sc := decode[model.Score](body)
				So(sc.ID, ShouldEqual, "s1")
				So(sc.CriteriaScores["c1"], ShouldEqual, 1)
			})
		})

		Convey("When a score is deleted", func() {
			resp, _ := do(ts, http.MethodDelete, "/scores/s3", "")
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

			Convey("Then its project is no longer ranked", func() {
				resp, body := do(ts, http.MethodGet, "/rankings/p2", "")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(string(body), ShouldContainSubstring, "no scores")
			})
		})
	})
}

func TestRankingsAPI(t *testing.T) {
	Convey("Given the API server with a results limit of 3", t, func() {
		ts, _ := newTestServer(api.WithMaxResultsLimit(3))

		Convey("When all rankings are requested", func() {
			resp, body := do(ts, http.MethodGet, "/rankings", "")
			results := decode[[]model.ProjectResult](body)

			Convey("Then every ranked project is returned best first", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(results), ShouldEqual, 5)
				for i := 1; i < len(results); i++ {
					So(results[i-1].FinalScore, ShouldBeGreaterThanOrEqualTo, results[i].FinalScore)
					So(results[i].Rank, ShouldEqual, i+1)
				}
				So(results[0].JudgeStats, ShouldNotBeEmpty)
			})
		})

		Convey("When a limit is given", func() {
			resp, body := do(ts, http.MethodGet, "/rankings?limit=2&view=compact", "")

			Convey("Then only the top entries are returned in compact form", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				entries := decode[[]types.Entry](body)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].ProjectName, ShouldNotBeEmpty)
			})
		})

		for _, bad := range []string{"0", "-1", "abc", "4"} {
			Convey(fmt.Sprintf("When limit=%s is given", bad), func() {
				resp, _ := do(ts, http.MethodGet, "/rankings?limit="+bad, "")

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		}

		Convey("When filtering by track", func() {
			resp, body := do(ts, http.MethodGet, "/rankings?track="+url.QueryEscape(string(model.TrackOnchainRWA)), "")
			results := decode[[]model.ProjectResult](body)

			Convey("Then only that track is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(results), ShouldEqual, 2)
			})
		})

		Convey("When an unknown track is given", func() {
			resp, _ := do(ts, http.MethodGet, "/rankings?track=Space", "")

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown project is requested", func() {
			resp, _ := do(ts, http.MethodGet, "/rankings/nope", "")

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given API errors", t, func() {
		Convey("Wrap classifies domain errors", func() {
			err := api.Wrap("op", fmt.Errorf("x: %w", model.ErrInvalid))
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "op: ")
		})

		Convey("Wrap of nil is nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
		})

		Convey("NewKind carries only the kind", func() {
			err := api.NewKind("op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: backpressure")
		})

		Convey("Backpressure from the service is a kind of its own", func() {
			err := api.Wrap("op", fmt.Errorf("%w: queue full", service.ErrBackpressure))
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
		})
	})
}

func TestInstrument(t *testing.T) {
	Convey("Given an instrumented handler", t, func() {
		Convey("When the handler panics", func() {
			h := api.Instrument(func(http.ResponseWriter, *http.Request) { panic("boom") }, "boom")
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

			Convey("Then a 500 error envelope is written", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(rec.Body.String(), ShouldContainSubstring, `"code":"internal_error"`)
				So(rec.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
			})
		})

		Convey("When the client sends a request id", func() {
			h := api.Instrument(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}, "ok")
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set(api.RequestIDHeader, "req-42")
			rec := httptest.NewRecorder()
			h(rec, req)

			Convey("Then it is echoed back with the handler status", func() {
				So(rec.Code, ShouldEqual, http.StatusNoContent)
				So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			})
		})

		Convey("When a route of the API server is hit", func() {
			ts, _ := newTestServer()
			resp, _ := do(ts, http.MethodGet, "/stats", "")

			So(resp.Header.Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})
	})
}
