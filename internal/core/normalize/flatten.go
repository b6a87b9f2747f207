package normalize

import (
	"strings"

	"github.com/threadtally/threadtally/internal/core/model"
)

// Bodies left behind by moderation/deletion carry no signal and must not
// contribute mentions or votes.
var deletedSentinels = map[string]bool{
	"[deleted]": true,
	"[removed]": true,
}

// Flatten turns raw documents into the ordered record sequence the
// extractor consumes. Documents are deduplicated by id (first import wins)
// and walked depth-first following original child order, so the output is
// stable for identical input. Returns the records and the number of
// malformed documents skipped.
func Flatten(docs []model.RawDocument) ([]model.FlatRecord, int) {
	records := make([]model.FlatRecord, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	skipped := 0

	for _, doc := range docs {
		if doc.ID == "" {
			skipped++
			continue
		}
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true

		postText := strings.TrimSpace(strings.TrimSpace(doc.Title) + "\n\n" + doc.Body)
		if usable(postText) {
			records = append(records, model.FlatRecord{
				DocumentID: doc.ID,
				RecordID:   doc.ID,
				Text:       postText,
				VoteScore:  doc.Score,
				IsPost:     true,
			})
		}

		for _, c := range doc.Comments {
			records = walkComment(doc.ID, c, records)
		}
	}

	return records, skipped
}

func walkComment(docID string, c model.Comment, records []model.FlatRecord) []model.FlatRecord {
	body := strings.TrimSpace(c.Body)
	if usable(body) && c.ID != "" {
		records = append(records, model.FlatRecord{
			DocumentID: docID,
			RecordID:   c.ID,
			Text:       body,
			VoteScore:  c.Score,
			IsPost:     false,
		})
	}
	for _, child := range c.Children {
		records = walkComment(docID, child, records)
	}
	return records
}

func usable(text string) bool {
	if text == "" {
		return false
	}
	return !deletedSentinels[strings.ToLower(text)]
}
