package models

// Kind-specific queue message payloads. The worker loop passes these
// through opaquely; only the matching handler decodes them.

// ScrapePayload asks the scrape handler to collect reviews for a set of
// brands across their known locations.
type ScrapePayload struct {
	Brands []Brand `json:"brands"`
}

// AnalyzePayload asks the analyze handler to classify a stored review set.
// ArtifactKey references the collected reviews in the artifact store.
type AnalyzePayload struct {
	ArtifactKey string      `json:"artifact_key"`
	Dimensions  []Dimension `json:"dimensions"`
}

// DiscoverPayload asks the discover handler to fan out a location search.
type DiscoverPayload struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
}

// WebsitePayload asks the website-analysis handler for a brand profile.
type WebsitePayload struct {
	Website string `json:"website"`
}

// Kind-specific job results, attached to the Job status record on completion.

// ScrapeResult references the collected review set.
type ScrapeResult struct {
	ArtifactKey string `json:"artifact_key"`
	ReviewCount int    `json:"review_count"`
	BrandCount  int    `json:"brand_count"`
}

// AnalyzeResult references the classified review set.
type AnalyzeResult struct {
	ArtifactKey   string `json:"artifact_key"`
	TotalReviews  int    `json:"total_reviews"`
	AnalyzedCount int    `json:"analyzed_count"`
}

// DiscoverResult carries the merged, deduplicated location list.
type DiscoverResult struct {
	Locations []Location `json:"locations"`
}

// WebsiteResult references the stored brand profile.
type WebsiteResult struct {
	ArtifactKey string `json:"artifact_key"`
}
