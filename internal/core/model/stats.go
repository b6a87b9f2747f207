package model

import "time"

// EntityStats is one leaderboard row before ranking. Rebuilt from scratch
// each run; identical input yields identical stats.
type EntityStats struct {
	Key           string  `json:"key"`
	Name          string  `json:"canonical_model"`
	Mentions      int     `json:"mentions"`
	UniqueThreads int     `json:"unique_threads"`
	VoteScore     int     `json:"vote_score"`
	WeightedVotes float64 `json:"weighted_votes"`
	AvgVote       float64 `json:"avg_vote"`
	AvgDocScore   float64 `json:"avg_doc_score"`
	ScoreV2       float64 `json:"score_v2"`
	Variants      string  `json:"variants,omitempty"`
}

// RankedRow is an EntityStats with its 1-based rank for a requested view.
type RankedRow struct {
	Rank int `json:"rank"`
	EntityStats
}

// RunResult is the complete output of one pipeline run.
type RunResult struct {
	RunID         string        `json:"run_id"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	DocsProcessed int           `json:"docs_processed"`
	DocsSkipped   int           `json:"docs_skipped"`
	Records       int           `json:"records"`
	Mentions      int           `json:"mentions"`
	Stats         []EntityStats `json:"stats"`
	Candidates    []Candidate   `json:"candidates"`
}
