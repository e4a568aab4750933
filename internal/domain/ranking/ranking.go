// Package ranking turns judge scores into a fair project ranking.
//
// Each score is first reduced to a weighted total using the criterion weights
// of the project's stage. Totals are then z-scored per judge so that lenient
// and strict judges contribute on the same scale, and finally averaged per
// project and sorted.
package ranking

import (
	"sort"

	"github.com/okian/juryrank/internal/domain/model"
)

// weightScale rescales a 0-100 percentage weight onto the 0-10 rating scale.
const weightScale = 10.0

// weighted is a score that references a known project, with its stage A total.
type weighted struct {
	score *model.Score
	total float64
}

// projectAcc collects per-project values during aggregation.
type projectAcc struct {
	project    model.Project
	normalized []float64
	totals     []float64
	judgeStats map[string]model.JudgeBreakdown
}

// Rank computes the ranked results for every project that received at least
// one score. Scores for unknown projects and ratings for unknown criteria are
// ignored. The inputs are never modified.
//
// Projects with equal final scores keep the order in which they first appear
// in scores.
func Rank(projects []model.Project, scores []model.Score, criteria []model.Criterion) []model.ProjectResult {
	if len(scores) == 0 || len(projects) == 0 {
		return []model.ProjectResult{}
	}

	criteriaByID := make(map[string]model.Criterion, len(criteria))
	for _, c := range criteria {
		criteriaByID[c.ID] = c
	}
	projectsByID := make(map[string]model.Project, len(projects))
	for _, p := range projects {
		projectsByID[p.ID] = p
	}

	// Stage A: weighted total per score.
	totals := make([]weighted, 0, len(scores))
	for i := range scores {
		p, ok := projectsByID[scores[i].ProjectID]
		if !ok {
			continue
		}
		totals = append(totals, weighted{
			score: &scores[i],
			total: weightedTotal(scores[i], p.Stage, criteriaByID),
		})
	}
	if len(totals) == 0 {
		return []model.ProjectResult{}
	}

	// Stage B: per-judge mean and population stdev.
	byJudge := make(map[string][]float64)
	for _, w := range totals {
		byJudge[w.score.JudgeID] = append(byJudge[w.score.JudgeID], w.total)
	}
	judgeStats := make(map[string]stats, len(byJudge))
	for judgeID, values := range byJudge {
		judgeStats[judgeID] = describe(values)
	}

	// Stage C: group by project in first-appearance order.
	order := make([]string, 0)
	byProject := make(map[string]*projectAcc)
	for _, w := range totals {
		pid := w.score.ProjectID
		acc, ok := byProject[pid]
		if !ok {
			acc = &projectAcc{
				project:    projectsByID[pid],
				judgeStats: make(map[string]model.JudgeBreakdown),
			}
			byProject[pid] = acc
			order = append(order, pid)
		}

		z := judgeStats[w.score.JudgeID].zscore(w.total)
		acc.normalized = append(acc.normalized, z)
		acc.totals = append(acc.totals, w.total)
		acc.judgeStats[w.score.JudgeID] = model.JudgeBreakdown{
			Raw:        rawMean(*w.score),
			Weighted:   w.total,
			Normalized: z,
		}
	}

	results := make([]model.ProjectResult, 0, len(order))
	for _, pid := range order {
		acc := byProject[pid]
		results = append(results, model.ProjectResult{
			Project:          cloneProject(acc.project),
			Scores:           scoresFor(pid, scores),
			FinalScore:       mean(acc.normalized),
			AvgWeightedScore: mean(acc.totals),
			JudgeStats:       acc.judgeStats,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// weightedTotal sums rating * weight/10 over the criteria known for the score.
// Criterion ids are visited in sorted order so the float sum is reproducible.
func weightedTotal(s model.Score, stage model.Stage, criteriaByID map[string]model.Criterion) float64 {
	var total float64
	for _, id := range sortedKeys(s.CriteriaScores) {
		c, ok := criteriaByID[id]
		if !ok {
			continue
		}
		total += float64(s.CriteriaScores[id]) * (float64(c.Weight.For(stage)) / weightScale)
	}
	return total
}

// rawMean is the unweighted mean of every rating in the score, known criterion or not.
func rawMean(s model.Score) float64 {
	if len(s.CriteriaScores) == 0 {
		return 0
	}
	var sum float64
	for _, id := range sortedKeys(s.CriteriaScores) {
		sum += float64(s.CriteriaScores[id])
	}
	return sum / float64(len(s.CriteriaScores))
}

func scoresFor(projectID string, scores []model.Score) []model.Score {
	out := make([]model.Score, 0)
	for _, s := range scores {
		if s.ProjectID == projectID {
			out = append(out, s.Clone())
		}
	}
	return out
}

func cloneProject(p model.Project) model.Project {
	if p.Links != nil {
		p.Links = append([]model.Link(nil), p.Links...)
	}
	return p
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
