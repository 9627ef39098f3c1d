package models

// Review is one customer feedback record collected from an external source.
type Review struct {
	Source   string  `json:"source"`             // google_maps, app_store, review_site
	Brand    string  `json:"brand,omitempty"`
	Location string  `json:"location,omitempty"` // human-readable location name
	PlaceID  string  `json:"place_id,omitempty"`
	Author   string  `json:"author,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Date     string  `json:"date,omitempty"` // YYYY-MM-DD
	Text     string  `json:"text"`
}

// TopicMention is one experience dimension referenced by a review, with a
// short supporting excerpt.
type TopicMention struct {
	Dimension string `json:"dimension"`
	Sentiment string `json:"sentiment"`
	Quote     string `json:"quote,omitempty"`
}

// Classification is the per-review output of the classification service.
// Score is the overall sentiment strength in [-1, 1].
type Classification struct {
	Sentiment string         `json:"sentiment"`
	Emotion   string         `json:"emotion"`
	Score     float64        `json:"score"`
	Topics    []TopicMention `json:"topics"`
}

// NeutralClassification is the defined default substituted when a
// classification call fails for a single item. The batch loop never aborts
// on one bad item; it degrades to this label instead.
func NeutralClassification() Classification {
	return Classification{
		Sentiment: "Neutral",
		Emotion:   "Indifferent",
		Score:     0,
		Topics:    []TopicMention{},
	}
}

// ClassifiedReview is a review merged with its classification by index.
type ClassifiedReview struct {
	Index int `json:"index"`
	Review
	Classification
}

// IndexedResult is one checkpointed {index, result} pair. Index values are
// unique positions into the source collection; the checkpoint list is a
// strict subset of the final per-item results.
type IndexedResult struct {
	Index  int            `json:"index"`
	Result Classification `json:"result"`
}

// Dimension is one analysis axis tracked across reviews.
type Dimension struct {
	Name        string   `json:"dimension"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}
