package model

// Reference collection names in the document store.
const (
	CollectionBICCodes      = "bic_codes"
	CollectionRatingManuals = "rating_manuals"
	CollectionGuidelines    = "underwriting_guidelines"
	CollectionModifiers     = "modifiers"
)

// Document is one reference passage in a collection, with its embedding and
// (after a search) its similarity score.
type Document struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Name       string            `json:"name,omitempty"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float64         `json:"embedding,omitempty"`
	Score      float64           `json:"score,omitempty"`
}
