package models

import "strings"

// ScrapeRequest is bound from the query string of GET /api/get-products.
type ScrapeRequest struct {
	// Pincode is the delivery location typed into the site's location
	// search. Opaque; only required to be non-blank.
	Pincode string `form:"pincode" binding:"required"`
}

// Normalize trims surrounding whitespace and reports whether the request
// still carries a pincode.
func (r *ScrapeRequest) Normalize() bool {
	r.Pincode = strings.TrimSpace(r.Pincode)
	return r.Pincode != ""
}
