package serp

// Provider status codes. The vocabulary follows the DataForSEO-style
// convention: one code family for transport-level success, another for
// task lifecycle.
const (
	statusOK          = 20000 // request / task succeeded
	statusTaskCreated = 20100 // task accepted
	statusInQueue     = 40601 // task queued
	statusProcessing  = 40602 // task processing
	statusNoResults   = 40102 // terminal: no matching data
)

// Endpoint names the task_post/task_get URL pair for one provider API.
type Endpoint struct {
	Post string
	Get  string
}

// EndpointMapsSearch is the business-listing SERP search API.
var EndpointMapsSearch = Endpoint{
	Post: "/serp/google/maps/task_post",
	Get:  "/serp/google/maps/task_get/advanced",
}

// EndpointBusinessReviews is the per-listing reviews API.
var EndpointBusinessReviews = Endpoint{
	Post: "/business_data/google/reviews/task_post",
	Get:  "/business_data/google/reviews/task_get",
}

// MapsSearchTask is the payload for one maps search task.
type MapsSearchTask struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth"`
	Device       string `json:"device"`
}

// ReviewsTask is the payload for one reviews collection task.
type ReviewsTask struct {
	PlaceID      string `json:"place_id,omitempty"`
	Keyword      string `json:"keyword,omitempty"`
	LocationName string `json:"location_name"`
	LanguageName string `json:"language_name"`
	Depth        int    `json:"depth"`
	SortBy       string `json:"sort_by"`
}

// TaskResponse is the provider's envelope for both create and poll calls.
type TaskResponse struct {
	StatusCode int         `json:"status_code"`
	Tasks      []TaskEntry `json:"tasks"`
}

// TaskEntry is one task inside a provider response.
type TaskEntry struct {
	ID            string       `json:"id"`
	StatusCode    int          `json:"status_code"`
	StatusMessage string       `json:"status_message"`
	Result        []TaskResult `json:"result"`
}

// TaskResult is one result page of a finished task.
type TaskResult struct {
	Items []Item `json:"items"`
}

// Item is one result row. Maps-search and reviews tasks share the shape;
// unused fields stay zero.
type Item struct {
	Type        string  `json:"type"`
	Title       string  `json:"title,omitempty"`
	PlaceID     string  `json:"place_id,omitempty"`
	Address     string  `json:"address,omitempty"`
	Rating      *Rating `json:"rating,omitempty"`
	ReviewText  string  `json:"review_text,omitempty"`
	ProfileName string  `json:"profile_name,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Rating carries a listing's score and review volume.
type Rating struct {
	Value      float64 `json:"value"`
	VotesCount int     `json:"votes_count"`
}
