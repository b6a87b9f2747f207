package rank

import (
	"sort"
	"strings"

	"github.com/threadtally/threadtally/internal/core/model"
)

// Top-N bounds. Out-of-range requests clamp rather than fail.
const (
	MinTopN = 1
	MaxTopN = 200
)

// Variant selects the score column a view is ranked by.
type Variant string

const (
	VariantV1 Variant = "v1" // mention-count score
	VariantV2 Variant = "v2" // vote-weighted composite
)

// ParseVariant maps a caller-supplied selector to a variant, defaulting to
// the composite score.
func ParseVariant(s string) Variant {
	if strings.EqualFold(strings.TrimSpace(s), string(VariantV1)) {
		return VariantV1
	}
	return VariantV2
}

// ClampTopN bounds a requested N to the sane range.
func ClampTopN(n int) int {
	if n < MinTopN {
		return MinTopN
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

// Build sorts already-computed stats by the selected variant, assigns dense
// 1-based ranks, and truncates to Top-N. A pure view: the input is not
// modified and no statistics are recomputed, so callers can re-sort by any
// column on demand.
func Build(stats []model.EntityStats, variant Variant, topN int) []model.RankedRow {
	n := ClampTopN(topN)

	sorted := make([]model.EntityStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j], variant)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	rows := make([]model.RankedRow, len(sorted))
	for i, s := range sorted {
		rows[i] = model.RankedRow{Rank: i + 1, EntityStats: s}
	}
	return rows
}

// less is a total order: the score column, then the secondary keys, then a
// case-insensitive ordinal name compare, then the canonical key. The full
// chain keeps output identical across runs and implementations.
func less(a, b model.EntityStats, variant Variant) bool {
	if variant == VariantV2 && a.ScoreV2 != b.ScoreV2 {
		return a.ScoreV2 > b.ScoreV2
	}
	if a.Mentions != b.Mentions {
		return a.Mentions > b.Mentions
	}
	if a.VoteScore != b.VoteScore {
		return a.VoteScore > b.VoteScore
	}
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.Key < b.Key
}
