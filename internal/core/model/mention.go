package model

// Extraction methods, in decreasing confidence order.
const (
	MethodBrandToken    = "brand_token"
	MethodAliasToken    = "alias_token"
	MethodInferredBrand = "inferred_brand"
)

// RawMention is one detected occurrence of a candidate model name inside a
// FlatRecord. Offset is a byte offset into the match-prepared text.
type RawMention struct {
	DocumentID string  `json:"document_id"`
	RecordID   string  `json:"record_id"`
	Surface    string  `json:"surface"`
	Offset     int     `json:"offset"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	VoteScore  int     `json:"vote_score"`
	IsPost     bool    `json:"is_post"`
}

// CanonicalMention is a RawMention resolved to its canonical entity.
// Variant is the cleaned surface form (original casing preserved) used for
// display-name voting; Name is assigned in the second resolution pass.
type CanonicalMention struct {
	RawMention
	Key     string `json:"key"`
	Variant string `json:"variant"`
	Name    string `json:"name"`
}

// Candidate is a standalone model-shaped token that was seen in the corpus,
// kept as a side output for manual alias curation.
type Candidate struct {
	Token    string   `json:"token"`
	Count    int      `json:"count"`
	Examples []string `json:"examples,omitempty"`
}
