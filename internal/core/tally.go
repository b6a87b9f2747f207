package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/threadtally/threadtally/internal/config"
	"github.com/threadtally/threadtally/internal/core/canonical"
	"github.com/threadtally/threadtally/internal/core/extraction"
	"github.com/threadtally/threadtally/internal/core/model"
	"github.com/threadtally/threadtally/internal/core/normalize"
	"github.com/threadtally/threadtally/internal/core/scoring"
)

// ErrRunInProgress is returned when a run is requested while another is
// still executing. Runs are batch and synchronous; callers serialize them.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Tally owns the pipeline stages: normalize -> extract -> canonicalize ->
// aggregate/score. One full run consumes all supplied documents and
// produces one complete stats table; nothing is carried between runs.
type Tally struct {
	Extractor *extraction.Extractor
	Resolver  *canonical.Resolver
	Weights   scoring.Weights

	running atomic.Bool
}

func NewTally(cfg *config.Config) *Tally {
	if cfg == nil {
		cfg = config.Default()
	}

	aliases := make([]canonical.Alias, 0, len(cfg.Aliases))
	for _, a := range cfg.Aliases {
		aliases = append(aliases, canonical.Alias{Alias: a.Alias, Display: a.Display})
	}
	table := canonical.NewAliasTable(aliases)

	lexicon := extraction.Lexicon{
		Brands:       cfg.Lexicon.Brands,
		ContextWords: cfg.Lexicon.ContextWords,
		BadTokens:    cfg.Lexicon.BadTokens,
	}

	return &Tally{
		Extractor: extraction.NewExtractor(lexicon, table),
		Resolver:  canonical.NewResolver(table),
		Weights: scoring.Weights{
			MentionWeight: cfg.Scoring.MentionWeight,
			VoteWeight:    cfg.Scoring.VoteWeight,
			PostBoost:     cfg.Scoring.PostBoost,
		},
	}
}

// Run executes one full pipeline pass over the given documents. Empty
// input yields an empty stats table, not an error; malformed documents are
// skipped and counted, never fatal. A second Run while one is executing
// returns ErrRunInProgress.
func (t *Tally) Run(ctx context.Context, docs []model.RawDocument) (*model.RunResult, error) {
	if !t.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer t.running.Store(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now().UTC()

	records, skipped := normalize.Flatten(docs)
	mentions, candidates := t.Extractor.Extract(records)
	resolved := t.Resolver.Resolve(mentions)
	stats := scoring.Aggregate(resolved, t.Weights)

	return &model.RunResult{
		RunID:         uuid.New().String(),
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
		DocsProcessed: len(docs) - skipped,
		DocsSkipped:   skipped,
		Records:       len(records),
		Mentions:      len(mentions),
		Stats:         stats,
		Candidates:    candidates,
	}, nil
}
