package keepa

import "encoding/json"

// productResponse is the body of GET /product
type productResponse struct {
	Products   []product       `json:"products"`
	Error      json.RawMessage `json:"error,omitempty"`
	TokensLeft int             `json:"tokensLeft,omitempty"`
}

// apiError is the shape Keepa uses for the top-level error object
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type product struct {
	ASIN  string        `json:"asin"`
	Title string        `json:"title"`
	Stats *productStats `json:"stats"`
}

// productStats holds per-channel price lists. Index 1 is the channel used
// for lookups; -1 means no data.
type productStats struct {
	Current       []int64   `json:"current"`
	Avg30         []int64   `json:"avg30"`
	MaxInInterval [][]int64 `json:"maxInInterval"`
	MinInInterval [][]int64 `json:"minInInterval"`
}
