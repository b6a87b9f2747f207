package model

// RawDocument is one imported discussion thread: a root post plus its
// nested comment tree. Immutable once stored; re-imports of the same id are
// dropped so first-seen vote scores stay stable.
type RawDocument struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Body     string    `json:"body"`
	Score    int       `json:"score"`
	Comments []Comment `json:"comments"`
}

type Comment struct {
	ID       string    `json:"id"`
	ParentID string    `json:"parent_id"`
	Body     string    `json:"body"`
	Score    int       `json:"score"`
	Children []Comment `json:"children"`
}

// FlatRecord is one text-bearing row derived from a document: the post body
// or a single comment body. Rebuilt on every pipeline run, never persisted.
type FlatRecord struct {
	DocumentID string `json:"document_id"`
	RecordID   string `json:"record_id"`
	Text       string `json:"text"`
	VoteScore  int    `json:"vote_score"`
	IsPost     bool   `json:"is_post"`
}
