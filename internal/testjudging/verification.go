package testjudging

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/ranking"
	"github.com/okian/juryrank/pkg/logger"
)

// fetchRankings reads the service's catalog, scores and rankings and ranks
// the catalog locally for comparison.
func fetchRankings(ctx context.Context, client *HTTPClient) (remote, local []model.ProjectResult, err error) {
	var (
		projects []model.Project
		scores   []model.Score
		criteria []model.Criterion
	)
	if err := client.getJSON(ctx, "/projects", &projects); err != nil {
		return nil, nil, err
	}
	if err := client.getJSON(ctx, "/scores", &scores); err != nil {
		return nil, nil, err
	}
	if err := client.getJSON(ctx, "/criteria", &criteria); err != nil {
		return nil, nil, err
	}
	if err := client.getJSON(ctx, "/rankings", &remote); err != nil {
		return nil, nil, err
	}
	return remote, ranking.Rank(projects, scores, criteria), nil
}

// verifyRankings checks that the service ranks exactly like the engine does
// on the same data: same order, same ranks, final scores within tolerance.
func verifyRankings(remote, local []model.ProjectResult, tolerance float64, stats *Stats) error {
	stats.RankedProjects = len(remote)
	if len(remote) != len(local) {
		return fmt.Errorf("service ranked %d projects, expected %d", len(remote), len(local))
	}
	for i := range remote {
		r, l := remote[i], local[i]
		if r.Project.ID != l.Project.ID {
			return fmt.Errorf("position %d: service has %s, expected %s", i+1, r.Project.ID, l.Project.ID)
		}
		if r.Rank != l.Rank {
			return fmt.Errorf("project %s: rank %d, expected %d", r.Project.ID, r.Rank, l.Rank)
		}
		delta := math.Abs(r.FinalScore - l.FinalScore)
		stats.MaxScoreDelta = math.Max(stats.MaxScoreDelta, delta)
		if delta > tolerance {
			return fmt.Errorf("project %s: final score %.12f, expected %.12f", r.Project.ID, r.FinalScore, l.FinalScore)
		}
		if i > 0 && r.FinalScore > remote[i-1].FinalScore {
			return fmt.Errorf("position %d: final score rises above position %d", i+1, i)
		}
	}
	return nil
}

// displayTopProjects logs the head of the ranking.
func displayTopProjects(ctx context.Context, results []model.ProjectResult, verbose bool) {
	topN := 10
	if verbose {
		topN = len(results)
	}
	topN = min(topN, len(results))

	for _, r := range results[:topN] {
		logger.Get().Info(ctx, "ranked project",
			logger.Int("rank", r.Rank),
			logger.String("project", r.Project.Name),
			logger.String("track", string(r.Project.Track)),
			logger.Float64("final_score", r.FinalScore),
			logger.Float64("avg_weighted_score", r.AvgWeightedScore),
			logger.Int("judges", len(r.JudgeStats)),
		)
	}
}
