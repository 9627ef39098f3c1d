package discovery

import "strings"

// RelevancePredicate decides whether a search result title plausibly
// belongs to the company being searched for. Swappable so operators can
// tighten or loosen matching per deployment.
type RelevancePredicate func(companyName, title string) bool

// stopwords are generic business tokens that match everything and
// therefore identify nothing.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "inc": {}, "llc": {}, "ltd": {}, "co": {},
	"corp": {}, "company": {}, "group": {}, "rent": {}, "car": {}, "rental": {},
}

// DefaultRelevance keeps a result when any significant token of the
// company name appears in the title. Significant tokens are 3+ characters
// and not stopwords; a name made entirely of stopwords falls back to its
// first word so the filter never rejects everything.
func DefaultRelevance(companyName, title string) bool {
	tokens := significantTokens(companyName)
	if len(tokens) == 0 {
		return true
	}

	lowerTitle := strings.ToLower(title)
	for _, tok := range tokens {
		if strings.Contains(lowerTitle, tok) {
			return true
		}
	}
	return false
}

func significantTokens(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	var tokens []string
	for _, f := range fields {
		f = strings.Trim(f, ".,&()-")
		if len(f) < 3 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}

	if len(tokens) == 0 && len(fields) > 0 {
		tokens = append(tokens, fields[0])
	}
	return tokens
}
