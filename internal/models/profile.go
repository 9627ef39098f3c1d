package models

// BrandProfile is the output of a website analysis: what the company does
// and who it competes with, extracted from its public site.
type BrandProfile struct {
	CompanyName string   `json:"company_name"`
	Website     string   `json:"website"`
	Description string   `json:"description,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Competitors []Brand  `json:"competitors,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}
