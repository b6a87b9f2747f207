package common

import (
	"encoding/json"
	"fmt"

	"github.com/threadtally/threadtally/internal/core/model"
)

type documentWrapper struct {
	Documents []json.RawMessage `json:"documents"`
	Threads   []json.RawMessage `json:"threads"`
}

// DecodeDocuments accepts the payload shapes importers produce: a bare
// array of documents, {"documents": [...]}, or the scraper's legacy
// {"threads": [...]} wrapper. Documents are decoded individually so one
// malformed element skips that document, not the whole payload; the second
// return value is the count of skipped elements.
func DecodeDocuments(payload string) ([]model.RawDocument, int, error) {
	raws, err := ParseJSON[[]json.RawMessage](payload)
	if err != nil {
		wrapper, werr := ParseJSON[documentWrapper](payload)
		if werr != nil {
			return nil, 0, fmt.Errorf("payload is neither a document array nor a wrapper object: %w", werr)
		}
		raws = wrapper.Documents
		if len(raws) == 0 {
			raws = wrapper.Threads
		}
	}

	docs := make([]model.RawDocument, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		var doc model.RawDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}
