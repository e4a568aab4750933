package model

// JudgeBreakdown is one judge's contribution to a project's result.
type JudgeBreakdown struct {
	Raw        float64 `json:"raw"`
	Weighted   float64 `json:"weighted"`
	Normalized float64 `json:"normalized"`
}

// ProjectResult is a ranked project. It is derived on every computation and never stored.
type ProjectResult struct {
	Project          Project                   `json:"project"`
	Scores           []Score                   `json:"scores"`
	FinalScore       float64                   `json:"final_score"`
	AvgWeightedScore float64                   `json:"avg_weighted_score"`
	JudgeStats       map[string]JudgeBreakdown `json:"judge_stats"`
	Rank             int                       `json:"rank"`
}
