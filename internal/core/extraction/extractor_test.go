package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadtally/threadtally/internal/core/canonical"
	"github.com/threadtally/threadtally/internal/core/model"
)

func testLexicon() Lexicon {
	return Lexicon{
		Brands:       []string{"KEF", "ELAC", "POLK"},
		ContextWords: []string{"speakers", "bookshelf"},
		BadTokens:    []string{"2.1"},
	}
}

func record(docID, recID, text string, score int, isPost bool) model.FlatRecord {
	return model.FlatRecord{DocumentID: docID, RecordID: recID, Text: text, VoteScore: score, IsPost: isPost}
}

func TestExtractBrandModelMentions(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)

	mentions, _ := e.Extract([]model.FlatRecord{
		record("t1", "t1", "The KEF Q150 is great, much better than the kef-q150 I had", 10, true),
	})

	require.Len(t, mentions, 2)
	assert.Equal(t, "KEF Q150", mentions[0].Surface)
	assert.Equal(t, "kef-q150", mentions[1].Surface)
	for _, m := range mentions {
		assert.Equal(t, model.MethodBrandToken, m.Method)
		assert.Equal(t, 1.0, m.Confidence)
		assert.Equal(t, 10, m.VoteScore)
		assert.True(t, m.IsPost)
	}
	assert.Less(t, mentions[0].Offset, mentions[1].Offset)
}

func TestExtractClaimedSpansAreNotRecounted(t *testing.T) {
	// "Q150" inside the claimed "KEF Q150" span must not surface again as
	// a standalone token or candidate.
	e := NewExtractor(testLexicon(), nil)

	mentions, candidates := e.Extract([]model.FlatRecord{
		record("t1", "t1", "KEF Q150 > ELAC B6.2", 5, false),
	})

	require.Len(t, mentions, 2)
	assert.Equal(t, "KEF Q150", mentions[0].Surface)
	assert.Equal(t, "ELAC B6.2", mentions[1].Surface)
	assert.Empty(t, candidates)
}

func TestExtractAliasToken(t *testing.T) {
	aliases := canonical.NewAliasTable([]canonical.Alias{{Alias: "dbr62", Display: "ELAC DBR-62"}})
	e := NewExtractor(testLexicon(), aliases)

	mentions, candidates := e.Extract([]model.FlatRecord{
		record("t1", "c1", "Those DBR62 are fantastic", 7, false),
	})

	require.Len(t, mentions, 1)
	assert.Equal(t, model.MethodAliasToken, mentions[0].Method)
	assert.Equal(t, "DBR62", mentions[0].Surface)
	assert.Equal(t, 0.95, mentions[0].Confidence)

	// Alias tokens still show up in the candidate review list.
	require.Len(t, candidates, 1)
	assert.Equal(t, "DBR62", candidates[0].Token)
}

func TestExtractInferredBrandFromRecord(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)

	mentions, _ := e.Extract([]model.FlatRecord{
		record("t1", "t1", "I love my KEF Q150 speakers but the R300 is better", 3, true),
	})

	require.Len(t, mentions, 2)
	inferred := mentions[1]
	assert.Equal(t, model.MethodInferredBrand, inferred.Method)
	assert.Equal(t, "KEF R300", inferred.Surface)
	assert.Equal(t, 0.65, inferred.Confidence)
}

func TestExtractInferredBrandFallsBackToDocument(t *testing.T) {
	// The comment has no brand of its own; inference falls back to brands
	// seen elsewhere in the same document.
	e := NewExtractor(testLexicon(), nil)

	mentions, _ := e.Extract([]model.FlatRecord{
		record("t1", "t1", "Thoughts on the KEF Q150?", 3, true),
		record("t1", "c1", "Get the R300, killer bookshelf speakers", 9, false),
	})

	require.Len(t, mentions, 2)
	assert.Equal(t, "KEF R300", mentions[1].Surface)
	assert.Equal(t, model.MethodInferredBrand, mentions[1].Method)
	assert.Equal(t, "c1", mentions[1].RecordID)
}

func TestExtractNoInferenceWithoutContext(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)

	mentions, candidates := e.Extract([]model.FlatRecord{
		record("t1", "t1", "I ordered a KEF Q150 yesterday", 1, true),
		record("t1", "c1", "The R300 arrived today", 1, false),
	})

	// No speaker context in c1, so R300 stays a candidate only.
	require.Len(t, mentions, 1)
	assert.Equal(t, model.MethodBrandToken, mentions[0].Method)
	require.Len(t, candidates, 1)
	assert.Equal(t, "R300", candidates[0].Token)
	assert.Equal(t, 1, candidates[0].Count)
	assert.NotEmpty(t, candidates[0].Examples)
}

func TestExtractFiltersJunkTokens(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)

	mentions, candidates := e.Extract([]model.FlatRecord{
		record("t1", "t1", "Running a 2.1 setup with bookshelf speakers, budget 500-600", 1, true),
	})

	assert.Empty(t, mentions)
	// "2.1" is a bad token; "500-600" is digits/punctuation only.
	assert.Empty(t, candidates)
}

func TestExtractCandidateOrdering(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)

	_, candidates := e.Extract([]model.FlatRecord{
		record("t1", "t1", "The R300 beats the B20", 1, true),
		record("t1", "c1", "R300 all day", 1, false),
	})

	require.Len(t, candidates, 2)
	assert.Equal(t, "R300", candidates[0].Token)
	assert.Equal(t, 2, candidates[0].Count)
	assert.Equal(t, "B20", candidates[1].Token)
}

func TestExtractBowersAndWilkinsFolding(t *testing.T) {
	lex := testLexicon()
	lex.Brands = append(lex.Brands, "B&W")
	e := NewExtractor(lex, nil)

	mentions, _ := e.Extract([]model.FlatRecord{
		record("t1", "t1", "The Bowers & Wilkins 606 S2 sounds superb", 4, true),
	})

	require.Len(t, mentions, 1)
	assert.Equal(t, model.MethodBrandToken, mentions[0].Method)
	assert.Equal(t, "B&W 606", mentions[0].Surface)
}

func TestCandidateSnippetRespectsRuneBoundaries(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)

	// A multi-byte rune straddles the snippet cut-off; the example must
	// still be valid UTF-8.
	text := "R300 " + strings.Repeat("x", 213) + " " + strings.Repeat("é", 40)
	_, candidates := e.Extract([]model.FlatRecord{record("t1", "t1", text, 1, true)})

	require.Len(t, candidates, 1)
	require.NotEmpty(t, candidates[0].Examples)
	ex := candidates[0].Examples[0]
	assert.LessOrEqual(t, len(ex), snippetLimit)
	assert.True(t, utf8.ValidString(ex))
}

func TestExtractEmptyRecords(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)
	mentions, candidates := e.Extract(nil)
	assert.Empty(t, mentions)
	assert.Empty(t, candidates)
}
