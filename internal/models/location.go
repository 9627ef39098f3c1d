package models

// Location is one discovered business listing.
// PlaceID is the identity key used to deduplicate merged fan-out results;
// Country records which search partition first produced the item.
type Location struct {
	PlaceID      string  `json:"place_id"`
	Name         string  `json:"name"`
	URL          string  `json:"url,omitempty"`
	Address      string  `json:"address,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	ReviewsCount int     `json:"reviews_count,omitempty"`
	Country      string  `json:"country,omitempty"`
}

// Brand describes one company whose feedback is collected.
type Brand struct {
	Name      string     `json:"company_name"`
	Website   string     `json:"website,omitempty"`
	IsMain    bool       `json:"is_main,omitempty"`
	Locations []Location `json:"locations,omitempty"`
}
