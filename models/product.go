package models

// MaxProductsPerTerm caps the listings kept for one search term.
const MaxProductsPerTerm = 10

// Search terms, in the order they are scraped.
const (
	TermHeadphones = "headphones"
	TermEarbuds    = "earbuds"
)

// Product is one listing as rendered by the page. Price is kept verbatim
// (currency symbol included).
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ScrapeResult is the success payload of GET /api/get-products.
type ScrapeResult struct {
	Headphones []Product `json:"headphones"`
	Earbuds    []Product `json:"earbuds"`
}

// Set stores products under the key for term. Unknown terms are ignored.
func (r *ScrapeResult) Set(term string, products []Product) {
	if products == nil {
		products = []Product{}
	}
	switch term {
	case TermHeadphones:
		r.Headphones = products
	case TermEarbuds:
		r.Earbuds = products
	}
}

// NewScrapeResult returns a result with empty (non-nil) slices so that
// the JSON encoding never contains null.
func NewScrapeResult() *ScrapeResult {
	return &ScrapeResult{
		Headphones: []Product{},
		Earbuds:    []Product{},
	}
}
