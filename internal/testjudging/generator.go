package testjudging

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/pkg/logger"
)

// Ranges for the synthetic event.
const (
	qualityMin     = 3.0
	qualityRange   = 6.0
	biasMax        = 2.0
	noiseMax       = 1.0
	maxJudgeTracks = 2
)

// generator derives a whole event from one seed. Each judge gets a personal
// bias so that raw totals differ across judges while the underlying project
// quality is shared.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// generateDataset builds criteria, judges, projects and one score per
// (judge, project) pair the judge covers and chose to score.
func generateDataset(ctx context.Context, config *Config, stats *Stats) (*Dataset, error) {
	if config.Projects <= 0 || config.Judges <= 0 || config.Criteria <= 0 {
		return nil, fmt.Errorf("projects, judges and criteria must be positive")
	}
	g := newGenerator(config.Seed)
	ds := &Dataset{Seed: config.Seed}

	ds.Criteria = g.criteria(config.Criteria)
	ds.Judges = g.judges(config.Judges)
	ds.Projects = g.projects(config.Projects)
	ds.Scores = g.scores(ds, config.Coverage)

	stats.ScoresGenerated = len(ds.Scores)
	logger.Get().Info(ctx, "generated dataset",
		logger.Int("criteria", len(ds.Criteria)),
		logger.Int("judges", len(ds.Judges)),
		logger.Int("projects", len(ds.Projects)),
		logger.Int("scores", len(ds.Scores)),
		logger.Any("seed", config.Seed),
	)
	return ds, nil
}

func (g *generator) id(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// criteria returns n criteria whose weights add up to 100 per stage.
func (g *generator) criteria(n int) []model.Criterion {
	ideation := g.split(model.MaxWeight, n)
	prototype := g.split(model.MaxWeight, n)
	out := make([]model.Criterion, n)
	for i := range out {
		out[i] = model.Criterion{
			ID:     g.id("crit"),
			Name:   fmt.Sprintf("Criterion %d", i+1),
			Weight: model.Weights{Ideation: ideation[i], Prototype: prototype[i]},
		}
	}
	return out
}

// split divides total into n non-negative parts.
func (g *generator) split(total, n int) []int {
	parts := make([]int, n)
	left := total
	for i := 0; i < n-1; i++ {
		share := 0
		if left > 0 {
			share = g.rng.IntN(left/(n-i)*2 + 1)
			share = min(share, left)
		}
		parts[i] = share
		left -= share
	}
	parts[n-1] = left
	return parts
}

// judges covers every track at least once when n allows it.
func (g *generator) judges(n int) []model.Judge {
	out := make([]model.Judge, n)
	for i := range out {
		tracks := []model.Track{model.Tracks[i%len(model.Tracks)]}
		if extra := model.Tracks[g.rng.IntN(len(model.Tracks))]; extra != tracks[0] && g.rng.IntN(maxJudgeTracks) == 1 {
			tracks = append(tracks, extra)
		}
		out[i] = model.Judge{ID: g.id("judge"), Name: fmt.Sprintf("Judge %d", i+1), Tracks: tracks}
	}
	return out
}

func (g *generator) projects(n int) []model.Project {
	out := make([]model.Project, n)
	for i := range out {
		out[i] = model.Project{
			ID:          g.id("proj"),
			Name:        fmt.Sprintf("Project %03d", i+1),
			Description: "Generated by the judging test tool.",
			Track:       model.Tracks[g.rng.IntN(len(model.Tracks))],
			Stage:       model.Stages[g.rng.IntN(len(model.Stages))],
		}
	}
	return out
}

func (g *generator) scores(ds *Dataset, coverage float64) []Submission {
	quality := make(map[string]float64, len(ds.Projects))
	for _, p := range ds.Projects {
		quality[p.ID] = qualityMin + g.rng.Float64()*qualityRange
	}

	var out []Submission
	for _, j := range ds.Judges {
		bias := (g.rng.Float64()*2 - 1) * biasMax
		for _, p := range ds.Projects {
			if !j.Covers(p.Track) || g.rng.Float64() >= coverage {
				continue
			}
			ratings := make(map[string]int, len(ds.Criteria))
			for _, c := range ds.Criteria {
				ratings[c.ID] = g.rating(quality[p.ID] + bias)
			}
			out = append(out, Submission{
				SubmissionID: g.id("sub"),
				Score: model.Score{
					ProjectID:      p.ID,
					JudgeID:        j.ID,
					CriteriaScores: ratings,
				},
			})
		}
	}
	return out
}

// rating adds noise to center and clamps it to the rating range.
func (g *generator) rating(center float64) int {
	v := math.Round(center + (g.rng.Float64()*2-1)*noiseMax)
	return int(math.Max(model.MinRating, math.Min(model.MaxRating, v)))
}
