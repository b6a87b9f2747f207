package extraction

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/threadtally/threadtally/internal/core/canonical"
	"github.com/threadtally/threadtally/internal/core/model"
)

// A model token contains at least one digit and looks like typical model
// formatting (RP-600M, B6.2, Q150, DBR62).
const modelTokenPattern = `[A-Za-z]?[A-Za-z0-9][A-Za-z0-9.\-]{1,20}\d[A-Za-z0-9.\-]{0,20}`

const (
	maxCandidateExamples = 3
	snippetLimit         = 220
)

// Lexicon is the static matching vocabulary, injected at construction so
// tests can substitute a smaller one.
type Lexicon struct {
	Brands       []string
	ContextWords []string
	BadTokens    []string
}

// Extractor scans flattened records for model mentions. Three methods, in
// decreasing confidence: explicit "BRAND MODELTOKEN" matches, standalone
// tokens with a curated alias, and standalone tokens whose brand can be
// inferred from surrounding brand mentions when the record reads like
// speaker talk.
type Extractor struct {
	lexicon      Lexicon
	aliases      *canonical.AliasTable
	mentionRE    *regexp.Regexp
	standaloneRE *regexp.Regexp
	badTokens    map[string]bool
	contextWords []string
}

func NewExtractor(lexicon Lexicon, aliases *canonical.AliasTable) *Extractor {
	if aliases == nil {
		aliases = canonical.NewAliasTable(nil)
	}

	// Longest alternative first so e.g. "MONITOR AUDIO" wins over a
	// shorter brand sharing a prefix.
	brands := dedupeStrings(lexicon.Brands)
	sort.Slice(brands, func(i, j int) bool {
		if len(brands[i]) != len(brands[j]) {
			return len(brands[i]) > len(brands[j])
		}
		return brands[i] < brands[j]
	})
	escaped := make([]string, len(brands))
	for i, b := range brands {
		escaped[i] = regexp.QuoteMeta(b)
	}
	brandAlt := strings.Join(escaped, "|")
	if brandAlt == "" {
		// No brands configured: a NUL byte never occurs in text, so the
		// explicit pass simply matches nothing.
		brandAlt = `\x00`
	}

	bad := make(map[string]bool, len(lexicon.BadTokens))
	for _, t := range lexicon.BadTokens {
		bad[strings.ToUpper(t)] = true
	}

	contextWords := make([]string, 0, len(lexicon.ContextWords))
	for _, w := range lexicon.ContextWords {
		contextWords = append(contextWords, strings.ToLower(w))
	}

	return &Extractor{
		lexicon:      lexicon,
		aliases:      aliases,
		mentionRE:    regexp.MustCompile(`(?i)\b(` + brandAlt + `)[\s-]+(` + modelTokenPattern + `)\b`),
		standaloneRE: regexp.MustCompile(`(?i)\b(` + modelTokenPattern + `)\b`),
		badTokens:    bad,
		contextWords: contextWords,
	}
}

type span struct{ start, end int }

// Extract scans every record and returns the raw mentions plus the
// candidate tokens seen along the way. Matching is case-insensitive; the
// surface form keeps original casing for display-name selection later.
func (e *Extractor) Extract(records []model.FlatRecord) ([]model.RawMention, []model.Candidate) {
	prepared := make([]string, len(records))
	docBrands := make(map[string]map[string]int)

	// Pre-pass: per-document brand counts from explicit matches, used for
	// brand inference on standalone tokens.
	for i, rec := range records {
		text := canonical.PrepareText(rec.Text)
		prepared[i] = text
		for _, m := range e.mentionRE.FindAllStringSubmatchIndex(text, -1) {
			brand := normBrand(text[m[2]:m[3]])
			counts := docBrands[rec.DocumentID]
			if counts == nil {
				counts = make(map[string]int)
				docBrands[rec.DocumentID] = counts
			}
			counts[brand]++
		}
	}

	var mentions []model.RawMention
	candCounts := make(map[string]int)
	candExamples := make(map[string][]string)

	for i, rec := range records {
		text := prepared[i]

		// Pass 1: explicit brand+model. Each match claims its span so
		// substrings of it are never counted again.
		var claimed []span
		recBrands := make(map[string]int)
		for _, m := range e.mentionRE.FindAllStringSubmatchIndex(text, -1) {
			claimed = append(claimed, span{m[0], m[1]})
			recBrands[normBrand(text[m[2]:m[3]])]++
			mentions = append(mentions, model.RawMention{
				DocumentID: rec.DocumentID,
				RecordID:   rec.RecordID,
				Surface:    text[m[0]:m[1]],
				Offset:     m[0],
				Method:     model.MethodBrandToken,
				Confidence: 1.0,
				VoteScore:  rec.VoteScore,
				IsPost:     rec.IsPost,
			})
		}

		hasContext := e.hasSpeakerContext(rec.Text)

		// Pass 2: standalone model-shaped tokens outside claimed spans.
		for _, m := range e.standaloneRE.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(claimed, m[0], m[1]) {
				continue
			}
			raw := text[m[0]:m[1]]
			token := strings.ToUpper(canonical.NormalizeDisplay(raw))
			if !e.looksLikeRealModel(token) {
				continue
			}

			candCounts[token]++
			if len(candExamples[token]) < maxCandidateExamples {
				candExamples[token] = append(candExamples[token], snippet(rec.Text))
			}

			if e.aliases.Has(canonical.Key(token)) {
				mentions = append(mentions, model.RawMention{
					DocumentID: rec.DocumentID,
					RecordID:   rec.RecordID,
					Surface:    raw,
					Offset:     m[0],
					Method:     model.MethodAliasToken,
					Confidence: 0.95,
					VoteScore:  rec.VoteScore,
					IsPost:     rec.IsPost,
				})
				continue
			}

			// Brand inference needs speaker-ish context to avoid tagging
			// random alphanumeric noise.
			if !hasContext {
				continue
			}
			brand := pickBrand(recBrands, docBrands[rec.DocumentID])
			if brand == "" {
				continue
			}
			mentions = append(mentions, model.RawMention{
				DocumentID: rec.DocumentID,
				RecordID:   rec.RecordID,
				Surface:    brand + " " + raw,
				Offset:     m[0],
				Method:     model.MethodInferredBrand,
				Confidence: 0.65,
				VoteScore:  rec.VoteScore,
				IsPost:     rec.IsPost,
			})
		}
	}

	return mentions, buildCandidates(candCounts, candExamples)
}

var digitsPunctOnlyRE = regexp.MustCompile(`^[\d.\-]+$`)

func (e *Extractor) looksLikeRealModel(token string) bool {
	if token == "" {
		return false
	}
	if e.badTokens[token] {
		return false
	}
	if len(token) < 2 || len(token) > 25 {
		return false
	}
	if digitsPunctOnlyRE.MatchString(token) {
		return false
	}
	return true
}

func (e *Extractor) hasSpeakerContext(text string) bool {
	t := strings.ToLower(text)
	for _, w := range e.contextWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// pickBrand prefers brands seen in the same record, then anywhere in the
// document; ties go to the lexicographically smallest brand so inference
// never depends on map order.
func pickBrand(recBrands, docBrands map[string]int) string {
	if b := mostCommon(recBrands); b != "" {
		return b
	}
	return mostCommon(docBrands)
}

func mostCommon(counts map[string]int) string {
	best := ""
	bestCount := 0
	for brand, count := range counts {
		if count > bestCount || (count == bestCount && best != "" && brand < best) {
			best = brand
			bestCount = count
		}
	}
	return best
}

func normBrand(raw string) string {
	b := strings.ToUpper(strings.TrimSpace(raw))
	b = strings.Join(strings.Fields(b), " ")
	b = strings.ReplaceAll(b, "QACOUSTICS", "Q ACOUSTICS")
	switch b {
	case "BW", "BOWERS", "WILKINS":
		b = "B&W"
	}
	return b
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func snippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if len(s) > snippetLimit {
		cut := snippetLimit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func buildCandidates(counts map[string]int, examples map[string][]string) []model.Candidate {
	out := make([]model.Candidate, 0, len(counts))
	for token, count := range counts {
		out = append(out, model.Candidate{
			Token:    token,
			Count:    count,
			Examples: examples[token],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
