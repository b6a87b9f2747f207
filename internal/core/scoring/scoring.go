package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/threadtally/threadtally/internal/core/model"
)

const maxVariantsInSummary = 6

// Weights is the tunable scoring policy. MentionWeight and VoteWeight
// combine the min-max normalized columns into score_v2; PostBoost gives
// post votes slightly more influence than comment votes in the
// supplemental weighted-vote column.
type Weights struct {
	MentionWeight float64
	VoteWeight    float64
	PostBoost     float64
}

func DefaultWeights() Weights {
	return Weights{MentionWeight: 0.5, VoteWeight: 0.5, PostBoost: 1.35}
}

// VoteWeight converts a raw vote score into a weight: base 1.0 plus a
// log1p boost carrying the score's sign, with posts boosted over comments.
func VoteWeight(score int, isPost bool, postBoost float64) float64 {
	s := float64(score)
	boost := math.Log1p(math.Abs(s))
	if s < 0 {
		boost = -boost
	}
	mult := 1.0
	if isPost {
		mult = postBoost
	}
	return (1.0 + boost) * mult
}

// Aggregate accumulates per-entity statistics over resolved mentions and
// computes score_v2. Entities with zero mentions are never materialized.
// A record's vote contributes once per entity no matter how many times the
// entity is mentioned inside it, so repeating a name in one comment cannot
// inflate its vote score. Output is sorted by canonical key so identical
// input yields identical stats regardless of mention order.
func Aggregate(mentions []model.CanonicalMention, w Weights) []model.EntityStats {
	type acc struct {
		stats    model.EntityStats
		threads  map[string]bool
		records  map[string]bool
		variants map[string]int
	}
	byKey := make(map[string]*acc)

	for _, m := range mentions {
		a := byKey[m.Key]
		if a == nil {
			a = &acc{
				stats:    model.EntityStats{Key: m.Key, Name: m.Name},
				threads:  make(map[string]bool),
				records:  make(map[string]bool),
				variants: make(map[string]int),
			}
			byKey[m.Key] = a
		}
		a.stats.Mentions++
		// Comment ids are only unique within their thread, so record
		// identity is (document, record).
		rk := m.DocumentID + "\x00" + m.RecordID
		if !a.records[rk] {
			a.records[rk] = true
			a.stats.VoteScore += m.VoteScore
			a.stats.WeightedVotes += VoteWeight(m.VoteScore, m.IsPost, w.PostBoost)
		}
		a.threads[m.DocumentID] = true
		a.variants[m.Variant]++
	}

	stats := make([]model.EntityStats, 0, len(byKey))
	for _, a := range byKey {
		a.stats.UniqueThreads = len(a.threads)
		if a.stats.Mentions > 0 {
			a.stats.AvgVote = a.stats.WeightedVotes / float64(a.stats.Mentions)
			a.stats.AvgDocScore = float64(a.stats.VoteScore) / float64(a.stats.Mentions)
		}
		a.stats.Variants = variantSummary(a.variants)
		stats = append(stats, a.stats)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Key < stats[j].Key })

	applyScoreV2(stats, w)
	return stats
}

// applyScoreV2 min-max normalizes mentions and vote score independently
// across the run's entities and combines them with the configured weights.
// More mentions or more votes never lowers the score; a degenerate column
// (all values equal) contributes its full weight to every entity.
func applyScoreV2(stats []model.EntityStats, w Weights) {
	if len(stats) == 0 {
		return
	}
	minM, maxM := stats[0].Mentions, stats[0].Mentions
	minV, maxV := stats[0].VoteScore, stats[0].VoteScore
	for _, s := range stats[1:] {
		if s.Mentions < minM {
			minM = s.Mentions
		}
		if s.Mentions > maxM {
			maxM = s.Mentions
		}
		if s.VoteScore < minV {
			minV = s.VoteScore
		}
		if s.VoteScore > maxV {
			maxV = s.VoteScore
		}
	}
	for i := range stats {
		nm := normalize(float64(stats[i].Mentions), float64(minM), float64(maxM))
		nv := normalize(float64(stats[i].VoteScore), float64(minV), float64(maxV))
		stats[i].ScoreV2 = w.MentionWeight*nm + w.VoteWeight*nv
	}
}

func normalize(v, min, max float64) float64 {
	if max == min {
		return 1.0
	}
	return (v - min) / (max - min)
}

// variantSummary renders the most common cleaned spellings, e.g.
// "KEF Q150 (4) | kef-q150 (1)", for alias curation and debugging.
func variantSummary(variants map[string]int) string {
	type vc struct {
		variant string
		count   int
	}
	list := make([]vc, 0, len(variants))
	for v, c := range variants {
		list = append(list, vc{v, c})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].variant < list[j].variant
	})
	if len(list) > maxVariantsInSummary {
		list = list[:maxVariantsInSummary]
	}
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = fmt.Sprintf("%s (%d)", v.variant, v.count)
	}
	return strings.Join(parts, " | ")
}
