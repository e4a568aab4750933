package testjudging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/juryrank/internal/adapters/http/api"
	service "github.com/okian/juryrank/internal/app"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerateDataset(t *testing.T) {
	Convey("Given a seeded configuration", t, func() {
		cfg := &Config{Projects: 40, Judges: 10, Criteria: 5, Coverage: 0.8, Seed: 42}
		stats := &Stats{}

		Convey("When a dataset is generated", func() {
			ds, err := generateDataset(context.Background(), cfg, stats)
			So(err, ShouldBeNil)

			Convey("Then the catalog has the requested sizes and is valid", func() {
				So(len(ds.Projects), ShouldEqual, 40)
				So(len(ds.Judges), ShouldEqual, 10)
				So(len(ds.Criteria), ShouldEqual, 5)
				for _, p := range ds.Projects {
					So(p.Validate(), ShouldBeNil)
				}
				for _, j := range ds.Judges {
					So(j.Validate(), ShouldBeNil)
				}
			})

			Convey("Then criterion weights add up to 100 per stage", func() {
				for _, s := range model.Stages {
					sum := 0
					for _, c := range ds.Criteria {
						So(c.Validate(), ShouldBeNil)
						sum += c.Weight.For(s)
					}
					So(sum, ShouldEqual, 100)
				}
			})

			Convey("Then every track has a judge", func() {
				covered := map[model.Track]bool{}
				for _, j := range ds.Judges {
					for _, tr := range j.Tracks {
						covered[tr] = true
					}
				}
				So(len(covered), ShouldEqual, len(model.Tracks))
			})

			Convey("Then scores are valid, in the judge's tracks and unique per pair", func() {
				So(stats.ScoresGenerated, ShouldEqual, len(ds.Scores))
				So(len(ds.Scores), ShouldBeGreaterThan, 0)

				judges := map[string]model.Judge{}
				for _, j := range ds.Judges {
					judges[j.ID] = j
				}
				projects := map[string]model.Project{}
				for _, p := range ds.Projects {
					projects[p.ID] = p
				}
				pairs := map[[2]string]bool{}
				for _, s := range ds.Scores {
					So(s.Validate(), ShouldBeNil)
					So(len(s.CriteriaScores), ShouldEqual, 5)
					So(judges[s.JudgeID].Covers(projects[s.ProjectID].Track), ShouldBeTrue)
					key := [2]string{s.ProjectID, s.JudgeID}
					So(pairs[key], ShouldBeFalse)
					pairs[key] = true
				}
			})

			Convey("Then the same seed yields the same ratings", func() {
				again, err := generateDataset(context.Background(), cfg, &Stats{})
				So(err, ShouldBeNil)
				So(len(again.Scores), ShouldEqual, len(ds.Scores))
				for i := range ds.Criteria {
					So(again.Criteria[i].Weight, ShouldResemble, ds.Criteria[i].Weight)
				}
			})
		})

		Convey("When a size is zero", func() {
			cfg.Judges = 0
			_, err := generateDataset(context.Background(), cfg, stats)

			So(err, ShouldNotBeNil)
		})
	})
}

func TestSplit(t *testing.T) {
	Convey("Given a generator", t, func() {
		g := newGenerator(7)

		Convey("Then split always sums to the total without negatives", func() {
			for n := 1; n <= 12; n++ {
				parts := g.split(100, n)
				So(len(parts), ShouldEqual, n)
				sum := 0
				for _, p := range parts {
					So(p, ShouldBeGreaterThanOrEqualTo, 0)
					sum += p
				}
				So(sum, ShouldEqual, 100)
			}
		})

		Convey("Then ratings stay within range", func() {
			for _, center := range []float64{-5, 0, 5, 10, 15} {
				r := g.rating(center)
				So(r, ShouldBeBetweenOrEqual, model.MinRating, model.MaxRating)
			}
		})
	})
}

func TestVerifyRankings(t *testing.T) {
	Convey("Given two identical rankings", t, func() {
		rank := func(id string, r int, final float64) model.ProjectResult {
			return model.ProjectResult{Project: model.Project{ID: id}, Rank: r, FinalScore: final}
		}
		local := []model.ProjectResult{rank("a", 1, 1), rank("b", 2, 0), rank("c", 3, -1)}
		remote := []model.ProjectResult{rank("a", 1, 1), rank("b", 2, 0), rank("c", 3, -1)}
		stats := &Stats{}

		Convey("Then verification passes", func() {
			So(verifyRankings(remote, local, DefaultTolerance, stats), ShouldBeNil)
			So(stats.RankedProjects, ShouldEqual, 3)
		})

		Convey("When the order differs", func() {
			remote[0], remote[1] = remote[1], remote[0]
			So(verifyRankings(remote, local, DefaultTolerance, stats), ShouldNotBeNil)
		})

		Convey("When a final score drifts", func() {
			remote[2].FinalScore = -1.001
			So(verifyRankings(remote, local, DefaultTolerance, stats), ShouldNotBeNil)
			So(stats.MaxScoreDelta, ShouldBeGreaterThan, 0)
		})

		Convey("When a project is missing", func() {
			So(verifyRankings(remote[:2], local, DefaultTolerance, stats), ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(1000), service.WithSeedDemoData(true))
		So(svc.Start(context.Background()), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc).Register(mux)
		ts := httptest.NewServer(mux)
		Reset(func() {
			ts.Close()
			_ = svc.Stop(context.Background())
		})

		Convey("When the judging test runs against it", func() {
			out := filepath.Join(t.TempDir(), "dataset.json")
			cfg := &Config{
				BaseURL:       ts.URL,
				Projects:      25,
				Judges:        8,
				Criteria:      4,
				Coverage:      0.9,
				DuplicateRate: 0.2,
				Workers:       4,
				Seed:          99,
				Timeout:       5 * time.Second,
				WaitTimeout:   10 * time.Second,
				OutputFile:    out,
			}
			err := Run(context.Background(), cfg)

			Convey("Then rankings match the local computation", func() {
				So(err, ShouldBeNil)
			})

			Convey("Then the dataset is saved", func() {
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})

			Convey("Then the service holds the demo and generated catalog", func() {
				st := svc.GetStats(context.Background())
				So(st.Projects, ShouldEqual, 6+25)
				So(st.Judges, ShouldEqual, 4+8)
			})
		})
	})
}
