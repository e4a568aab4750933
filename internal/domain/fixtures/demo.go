// Package fixtures provides the demo event used to seed an empty store.
package fixtures

import "github.com/okian/juryrank/internal/domain/model"

// Demo returns a fresh copy of the demo dataset: four criteria, four judges,
// six projects (one of them unscored) and eight scores.
func Demo() model.State {
	return model.State{
		Criteria: []model.Criterion{
			{ID: "c1", Name: "Technical Innovation & Complexity", Weight: model.Weights{Ideation: 25, Prototype: 30}},
			{ID: "c2", Name: "Hedera Integration & Use Case", Weight: model.Weights{Ideation: 30, Prototype: 30}},
			{ID: "c3", Name: "Feasibility & Business Potential", Weight: model.Weights{Ideation: 25, Prototype: 20}},
			{ID: "c4", Name: "Presentation & Pitch Quality", Weight: model.Weights{Ideation: 20, Prototype: 20}},
		},
		Judges: []model.Judge{
			{ID: "j1", Name: "Dr. Leemon Baird", Tracks: []model.Track{model.TrackAIDepin, model.TrackOnchainRWA}},
			{ID: "j2", Name: "Mance Harmon", Tracks: []model.Track{model.TrackDLTOps, model.TrackImmersive}},
			{ID: "j3", Name: "Shayne Higdon", Tracks: []model.Track{model.TrackCrossChain, model.TrackOnchainRWA}},
			{ID: "j4", Name: "Zenobia Godschalk", Tracks: []model.Track{model.TrackAIDepin, model.TrackImmersive}},
		},
		Projects: []model.Project{
			{
				ID:          "p1",
				Name:        "DeFiYield Pro",
				Description: "An AI-powered yield aggregator for Hedera-based DeFi protocols, optimizing returns for liquidity providers.",
				Track:       model.TrackOnchainRWA,
				Stage:       model.StagePrototype,
				Links:       []model.Link{{Label: "GitHub", URL: "https://github.com"}, {Label: "Demo Video", URL: "https://youtube.com"}},
			},
			{
				ID:          "p2",
				Name:        "VeriSupply",
				Description: "A decentralized supply chain tracking system using Hedera Consensus Service for transparent and immutable logistics.",
				Track:       model.TrackDLTOps,
				Stage:       model.StagePrototype,
			},
			{
				ID:          "p3",
				Name:        "AI Guardian",
				Description: "A concept for a decentralized AI oracle network secured by Hedera, providing tamper-proof data feeds for smart contracts.",
				Track:       model.TrackAIDepin,
				Stage:       model.StageIdeation,
				Links:       []model.Link{{Label: "Pitch Deck", URL: "https://pitch.com"}},
			},
			{
				ID:          "p4",
				Name:        "HederaVerse",
				Description: "A proof-of-concept metaverse platform where in-game assets are tokenized as NFTs on Hedera.",
				Track:       model.TrackImmersive,
				Stage:       model.StageIdeation,
			},
			{
				ID:          "p5",
				Name:        "ChainLink Bridge for HBAR",
				Description: "A cross-chain bridge to enable seamless asset transfer between Ethereum and Hedera networks.",
				Track:       model.TrackCrossChain,
				Stage:       model.StagePrototype,
			},
			{
				ID:          "p6",
				Name:        "RWA Tokenizer",
				Description: "Platform to tokenize real-world assets like real estate and art, leveraging Hedera Token Service.",
				Track:       model.TrackOnchainRWA,
				Stage:       model.StagePrototype,
			},
		},
		Scores: []model.Score{
			{ID: "s1", ProjectID: "p1", JudgeID: "j1", CriteriaScores: map[string]int{"c1": 8, "c2": 9, "c3": 7, "c4": 8}, Notes: "Very strong technical implementation."},
			{ID: "s2", ProjectID: "p1", JudgeID: "j3", CriteriaScores: map[string]int{"c1": 9, "c2": 8, "c3": 8, "c4": 7}, JuryStage: model.StagePrototype},
			{ID: "s3", ProjectID: "p2", JudgeID: "j2", CriteriaScores: map[string]int{"c1": 7, "c2": 8, "c3": 9, "c4": 7}},
			{ID: "s4", ProjectID: "p3", JudgeID: "j1", CriteriaScores: map[string]int{"c1": 9, "c2": 9, "c3": 8, "c4": 7}, JuryStage: model.StageIdeation, Notes: "Great idea, needs a solid roadmap."},
			{ID: "s5", ProjectID: "p3", JudgeID: "j4", CriteriaScores: map[string]int{"c1": 8, "c2": 10, "c3": 7, "c4": 8}},
			{ID: "s6", ProjectID: "p4", JudgeID: "j2", CriteriaScores: map[string]int{"c1": 6, "c2": 7, "c3": 7, "c4": 9}},
			{ID: "s7", ProjectID: "p4", JudgeID: "j4", CriteriaScores: map[string]int{"c1": 7, "c2": 6, "c3": 8, "c4": 8}, Notes: "Pitch was excellent."},
			{ID: "s8", ProjectID: "p6", JudgeID: "j1", CriteriaScores: map[string]int{"c1": 9, "c2": 7, "c3": 9, "c4": 8}},
		},
	}
}
