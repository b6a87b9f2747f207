package canonical

import (
	"github.com/threadtally/threadtally/internal/core/model"
)

// Resolver clusters raw mentions under canonical keys and assigns display
// names. Clustering is a pure function of the normalized surface form plus
// the static alias table, so cluster membership never depends on processing
// order. Display names require the full pass: pass 1 clusters and counts
// casing variants, pass 2 picks the final name. Assigning names greedily on
// first sight would make output order-dependent.
type Resolver struct {
	aliases *AliasTable
}

func NewResolver(aliases *AliasTable) *Resolver {
	if aliases == nil {
		aliases = NewAliasTable(nil)
	}
	return &Resolver{aliases: aliases}
}

type variantCount struct {
	count     int
	firstSeen int
}

// Resolve maps every raw mention to exactly one canonical entity. Mentions
// whose surface normalizes to an empty key are dropped.
func (r *Resolver) Resolve(mentions []model.RawMention) []model.CanonicalMention {
	out := make([]model.CanonicalMention, 0, len(mentions))
	variants := make(map[string]map[string]*variantCount)

	// Pass 1: cluster and count variants.
	for _, m := range mentions {
		variant := NormalizeDisplay(m.Surface)
		key := Key(variant)
		if key == "" {
			continue
		}
		if rec, ok := r.aliases.Lookup(key); ok {
			key = rec.Key
		}
		vc := variants[key]
		if vc == nil {
			vc = make(map[string]*variantCount)
			variants[key] = vc
		}
		if c, ok := vc[variant]; ok {
			c.count++
		} else {
			vc[variant] = &variantCount{count: 1, firstSeen: len(out)}
		}
		out = append(out, model.CanonicalMention{
			RawMention: m,
			Key:        key,
			Variant:    variant,
		})
	}

	// Pass 2: assign final display names. A curated alias wins; otherwise
	// the most frequent variant, first-seen as tie-break.
	names := make(map[string]string, len(variants))
	for key, vc := range variants {
		if name, ok := r.aliases.DisplayFor(key); ok {
			names[key] = name
			continue
		}
		best := ""
		bestCount := -1
		bestSeen := 0
		for variant, c := range vc {
			if c.count > bestCount || (c.count == bestCount && c.firstSeen < bestSeen) {
				best = variant
				bestCount = c.count
				bestSeen = c.firstSeen
			}
		}
		names[key] = best
	}

	for i := range out {
		out[i].Name = names[out[i].Key]
	}
	return out
}
