package ranking_test

import (
	"math"
	"testing"

	"github.com/okian/juryrank/internal/domain/fixtures"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func fullWeight() []model.Criterion {
	return []model.Criterion{{ID: "c1", Name: "Overall", Weight: model.Weights{Ideation: 100, Prototype: 100}}}
}

func score(id, judge, project string, ratings map[string]int) model.Score {
	return model.Score{ID: id, JudgeID: judge, ProjectID: project, CriteriaScores: ratings}
}

func TestRank_EmptyInput(t *testing.T) {
	Convey("Given empty collections", t, func() {
		projects := []model.Project{{ID: "p1", Stage: model.StageIdeation}}

		Convey("When everything is empty", func() {
			out := ranking.Rank(nil, nil, nil)

			Convey("Then the result is empty", func() {
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When only scores are missing", func() {
			out := ranking.Rank(projects, []model.Score{}, fullWeight())

			Convey("Then the result is empty", func() {
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When only projects are missing", func() {
			out := ranking.Rank(nil, []model.Score{score("s1", "j1", "p1", map[string]int{"c1": 8})}, fullWeight())

			Convey("Then the result is empty", func() {
				So(out, ShouldBeEmpty)
			})
		})
	})
}

func TestRank_SingleJudgeSingleProject(t *testing.T) {
	Convey("Given one judge scoring exactly one project", t, func() {
		projects := []model.Project{{ID: "p1", Name: "AI Guardian", Stage: model.StageIdeation}}
		scores := []model.Score{score("s1", "j1", "p1", map[string]int{"c1": 8})}

		out := ranking.Rank(projects, scores, fullWeight())

		Convey("Then the weighted total is 80 and the z-score collapses to 0", func() {
			So(out, ShouldHaveLength, 1)
			So(out[0].Rank, ShouldEqual, 1)
			So(out[0].FinalScore, ShouldEqual, 0)
			So(out[0].AvgWeightedScore, ShouldAlmostEqual, 80, epsilon)
			So(out[0].JudgeStats["j1"].Weighted, ShouldAlmostEqual, 80, epsilon)
			So(out[0].JudgeStats["j1"].Normalized, ShouldEqual, 0)
			So(out[0].JudgeStats["j1"].Raw, ShouldEqual, 8)
		})

		Convey("And the result holds the project's scores", func() {
			So(out[0].Project.ID, ShouldEqual, "p1")
			So(out[0].Scores, ShouldHaveLength, 1)
			So(out[0].Scores[0].ID, ShouldEqual, "s1")
		})
	})
}

func TestRank_WeightRescale(t *testing.T) {
	Convey("Given a criterion weighted 100% rated 10", t, func() {
		projects := []model.Project{{ID: "p1", Stage: model.StagePrototype}}
		scores := []model.Score{score("s1", "j1", "p1", map[string]int{"c1": 10})}

		out := ranking.Rank(projects, scores, fullWeight())

		Convey("Then the weighted total is exactly 100", func() {
			So(out[0].AvgWeightedScore, ShouldEqual, 100)
		})
	})

	Convey("Given weights that differ per stage", t, func() {
		criteria := []model.Criterion{
			{ID: "c1", Weight: model.Weights{Ideation: 25, Prototype: 30}},
			{ID: "c2", Weight: model.Weights{Ideation: 75, Prototype: 70}},
		}
		projects := []model.Project{
			{ID: "idea", Stage: model.StageIdeation},
			{ID: "proto", Stage: model.StagePrototype},
		}
		scores := []model.Score{
			score("s1", "j1", "idea", map[string]int{"c1": 8, "c2": 6}),
			score("s2", "j1", "proto", map[string]int{"c1": 8, "c2": 6}),
		}

		out := ranking.Rank(projects, scores, criteria)
		byID := map[string]model.ProjectResult{}
		for _, r := range out {
			byID[r.Project.ID] = r
		}

		Convey("Then each project is weighted by its own stage", func() {
			So(byID["idea"].AvgWeightedScore, ShouldAlmostEqual, 8*2.5+6*7.5, epsilon)
			So(byID["proto"].AvgWeightedScore, ShouldAlmostEqual, 8*3.0+6*7.0, epsilon)
		})
	})
}

func TestRank_OrphanedReferences(t *testing.T) {
	Convey("Given scores with dangling references", t, func() {
		projects := []model.Project{{ID: "p1", Stage: model.StageIdeation}, {ID: "p2", Stage: model.StageIdeation}}
		scores := []model.Score{
			score("s1", "j1", "ghost", map[string]int{"c1": 10}),
			score("s2", "j1", "p1", map[string]int{"c1": 6, "gone": 10}),
			score("s3", "j1", "p2", map[string]int{"c1": 4}),
		}

		out := ranking.Rank(projects, scores, fullWeight())

		Convey("Then the score for an unknown project is dropped everywhere", func() {
			So(out, ShouldHaveLength, 2)
			for _, r := range out {
				So(r.Project.ID, ShouldNotEqual, "ghost")
				for _, s := range r.Scores {
					So(s.ID, ShouldNotEqual, "s1")
				}
			}
		})

		Convey("And an unknown criterion adds nothing while known ones still count", func() {
			var p1 model.ProjectResult
			for _, r := range out {
				if r.Project.ID == "p1" {
					p1 = r
				}
			}
			So(p1.AvgWeightedScore, ShouldAlmostEqual, 60, epsilon)
			So(p1.JudgeStats["j1"].Raw, ShouldEqual, 8)
		})

		Convey("And the orphan does not shift the judge's statistics", func() {
			// j1 totals are 60 and 40: mean 50, stdev 10.
			So(out[0].Project.ID, ShouldEqual, "p1")
			So(out[0].FinalScore, ShouldAlmostEqual, 1, epsilon)
			So(out[1].FinalScore, ShouldAlmostEqual, -1, epsilon)
		})
	})

	Convey("Given a score with no recognised criteria", t, func() {
		projects := []model.Project{{ID: "p1", Stage: model.StagePrototype}}
		scores := []model.Score{score("s1", "j1", "p1", map[string]int{"zzz": 7})}

		out := ranking.Rank(projects, scores, fullWeight())

		Convey("Then its weighted total is 0", func() {
			So(out[0].AvgWeightedScore, ShouldEqual, 0)
		})
	})
}

func TestRank_ZScore(t *testing.T) {
	Convey("Given a judge giving weighted totals 50, 60 and 70", t, func() {
		projects := []model.Project{
			{ID: "p50", Stage: model.StageIdeation},
			{ID: "p60", Stage: model.StageIdeation},
			{ID: "p70", Stage: model.StageIdeation},
		}
		scores := []model.Score{
			score("s1", "j1", "p50", map[string]int{"c1": 5}),
			score("s2", "j1", "p60", map[string]int{"c1": 6}),
			score("s3", "j1", "p70", map[string]int{"c1": 7}),
		}

		out := ranking.Rank(projects, scores, fullWeight())
		want := 10 / math.Sqrt(200.0/3)

		Convey("Then normalized values use the population stdev", func() {
			So(out, ShouldHaveLength, 3)
			So(out[0].Project.ID, ShouldEqual, "p70")
			So(out[0].FinalScore, ShouldAlmostEqual, want, epsilon)
			So(out[1].FinalScore, ShouldAlmostEqual, 0, epsilon)
			So(out[2].FinalScore, ShouldAlmostEqual, -want, epsilon)
			So(out[0].FinalScore, ShouldAlmostEqual, 1.2247, 1e-4)
		})
	})

	Convey("Given two judges on different scales with the same preference", t, func() {
		projects := []model.Project{{ID: "a", Stage: model.StageIdeation}, {ID: "b", Stage: model.StageIdeation}}
		scores := []model.Score{
			score("s1", "lenient", "a", map[string]int{"c1": 10}),
			score("s2", "lenient", "b", map[string]int{"c1": 9}),
			score("s3", "strict", "a", map[string]int{"c1": 3}),
			score("s4", "strict", "b", map[string]int{"c1": 1}),
		}

		out := ranking.Rank(projects, scores, fullWeight())

		Convey("Then both judges contribute equally after normalisation", func() {
			So(out[0].Project.ID, ShouldEqual, "a")
			So(out[0].FinalScore, ShouldAlmostEqual, 1, epsilon)
			So(out[0].JudgeStats["lenient"].Normalized, ShouldAlmostEqual, 1, epsilon)
			So(out[0].JudgeStats["strict"].Normalized, ShouldAlmostEqual, 1, epsilon)
			So(out[1].FinalScore, ShouldAlmostEqual, -1, epsilon)
		})
	})
}

func TestRank_JuryStageIgnored(t *testing.T) {
	Convey("Given two scores that differ only in the jury's stage", t, func() {
		criteria := []model.Criterion{{ID: "c1", Weight: model.Weights{Ideation: 20, Prototype: 90}}}
		projects := []model.Project{{ID: "p1", Stage: model.StageIdeation}}
		asIdeation := score("s1", "j1", "p1", map[string]int{"c1": 7})
		asIdeation.JuryStage = model.StageIdeation
		asPrototype := score("s1", "j1", "p1", map[string]int{"c1": 7})
		asPrototype.JuryStage = model.StagePrototype

		a := ranking.Rank(projects, []model.Score{asIdeation}, criteria)
		b := ranking.Rank(projects, []model.Score{asPrototype}, criteria)

		Convey("Then the weighted totals are identical and use the project's stage", func() {
			So(a[0].AvgWeightedScore, ShouldEqual, b[0].AvgWeightedScore)
			So(a[0].AvgWeightedScore, ShouldAlmostEqual, 14, epsilon)
		})
	})
}

func TestRank_Ordering(t *testing.T) {
	Convey("Given the demo dataset", t, func() {
		st := fixtures.Demo()

		out := ranking.Rank(st.Projects, st.Scores, st.Criteria)

		Convey("Then final scores never increase with rank", func() {
			So(out, ShouldNotBeEmpty)
			for i := range out {
				So(out[i].Rank, ShouldEqual, i+1)
				if i > 0 {
					So(out[i].FinalScore, ShouldBeLessThanOrEqualTo, out[i-1].FinalScore)
				}
			}
		})

		Convey("Then only scored projects appear", func() {
			for _, r := range out {
				So(r.Project.ID, ShouldNotEqual, "p5")
				So(len(r.Scores), ShouldBeGreaterThan, 0)
			}
			So(out, ShouldHaveLength, 5)
		})

		Convey("Then repeated runs agree exactly", func() {
			again := ranking.Rank(st.Projects, st.Scores, st.Criteria)
			So(again, ShouldResemble, out)
		})
	})

	Convey("Given projects tied on final score", t, func() {
		projects := []model.Project{
			{ID: "first", Stage: model.StageIdeation},
			{ID: "second", Stage: model.StageIdeation},
		}
		scores := []model.Score{
			score("s1", "j1", "second", map[string]int{"c1": 5}),
			score("s2", "j2", "first", map[string]int{"c1": 9}),
		}

		out := ranking.Rank(projects, scores, fullWeight())

		Convey("Then they keep the order in which they first appear in the scores", func() {
			So(out[0].Project.ID, ShouldEqual, "second")
			So(out[1].Project.ID, ShouldEqual, "first")
			So(out[0].FinalScore, ShouldEqual, out[1].FinalScore)
		})
	})
}

func TestRank_DoesNotMutateInputs(t *testing.T) {
	Convey("Given inputs shared with the caller", t, func() {
		st := fixtures.Demo()
		before := st.Clone()

		out := ranking.Rank(st.Projects, st.Scores, st.Criteria)
		out[0].Scores[0].CriteriaScores["c1"] = 0

		Convey("Then the caller's slices and maps are unchanged", func() {
			So(st, ShouldResemble, before)
		})
	})
}
