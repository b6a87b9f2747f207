package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadtally/threadtally/internal/core/model"
)

func TestFlattenWalksDepthFirst(t *testing.T) {
	docs := []model.RawDocument{{
		ID:    "t1",
		Title: "Best bookshelf speakers?",
		Body:  "Looking for a pair under $500.",
		Score: 12,
		Comments: []model.Comment{
			{
				ID: "c1", ParentID: "t1", Body: "KEF Q150.", Score: 8,
				Children: []model.Comment{
					{ID: "c2", ParentID: "c1", Body: "Seconded.", Score: 3},
				},
			},
			{ID: "c3", ParentID: "t1", Body: "ELAC B6.2.", Score: 5},
		},
	}}

	records, skipped := Flatten(docs)
	require.Len(t, records, 4)
	assert.Zero(t, skipped)

	// Post first, then comments depth-first in original child order.
	ids := []string{records[0].RecordID, records[1].RecordID, records[2].RecordID, records[3].RecordID}
	assert.Equal(t, []string{"t1", "c1", "c2", "c3"}, ids)

	assert.True(t, records[0].IsPost)
	assert.Equal(t, "Best bookshelf speakers?\n\nLooking for a pair under $500.", records[0].Text)
	assert.Equal(t, 12, records[0].VoteScore)
	assert.Equal(t, "t1", records[2].DocumentID)
	assert.False(t, records[2].IsPost)
}

func TestFlattenDeduplicatesFirstWins(t *testing.T) {
	docs := []model.RawDocument{
		{ID: "t1", Body: "original", Score: 10},
		{ID: "t1", Body: "re-imported", Score: 99},
	}

	records, skipped := Flatten(docs)
	require.Len(t, records, 1)
	assert.Zero(t, skipped)
	assert.Equal(t, "original", records[0].Text)
	assert.Equal(t, 10, records[0].VoteScore)
}

func TestFlattenSkipsMalformedDocuments(t *testing.T) {
	docs := []model.RawDocument{
		{ID: "", Body: "no id"},
		{ID: "t1", Body: "fine"},
	}

	records, skipped := Flatten(docs)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, skipped)
}

func TestFlattenSkipsDeletedAndEmptyBodies(t *testing.T) {
	docs := []model.RawDocument{{
		ID:    "t1",
		Body:  "post body",
		Score: 1,
		Comments: []model.Comment{
			{ID: "c1", Body: "[deleted]", Score: 50},
			{ID: "c2", Body: "[removed]", Score: 50},
			{ID: "c3", Body: "   ", Score: 50},
			{
				ID: "c4", Body: "", Score: 50,
				// Children of an empty comment are still walked.
				Children: []model.Comment{{ID: "c5", Body: "kept", Score: 2}},
			},
		},
	}}

	records, _ := Flatten(docs)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[0].RecordID)
	assert.Equal(t, "c5", records[1].RecordID)
}

func TestFlattenEmptyInput(t *testing.T) {
	records, skipped := Flatten(nil)
	assert.Empty(t, records)
	assert.Zero(t, skipped)
}
