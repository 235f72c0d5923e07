package domain

import "time"

// LookupResult is the outcome of a successful price lookup
type LookupResult struct {
	ASIN        string         `json:"asin"`
	Title       string         `json:"title"`
	ResolvedURL string         `json:"resolvedUrl"`
	Price       *PriceSnapshot `json:"price,omitempty"`
	BuyDecision *BuyDecision   `json:"buyDecision,omitempty"`
	ReferralURL string         `json:"affiliateUrl"`
	Warning     string         `json:"warning,omitempty"`
	CheckedAt   time.Time      `json:"checkedAt"`
}

// PriceSnapshot holds price points in major currency units (dollars)
type PriceSnapshot struct {
	CurrentPrice  float64  `json:"currentPrice"`
	ThirtyDayAvg  *float64 `json:"thirtyDayAvg,omitempty"`
	ThirtyDayHigh *float64 `json:"thirtyDayHigh,omitempty"`
	ThirtyDayLow  *float64 `json:"thirtyDayLow,omitempty"`
}

// DecisionCategory is the categorical buy recommendation
type DecisionCategory string

const (
	DecisionGood           DecisionCategory = "good"
	DecisionDecent         DecisionCategory = "decent"
	DecisionTrendingHigher DecisionCategory = "trending_higher"
	DecisionNotGood        DecisionCategory = "not_good"
	DecisionIndeterminate  DecisionCategory = "indeterminate"
)

// BuyDecision is derived from the current price versus the 30-day average
type BuyDecision struct {
	Category DecisionCategory `json:"category"`
	Icon     string           `json:"icon"`
	Message  string           `json:"message"`
	// DiffPercent is the rounded difference to the average; negative means below average.
	DiffPercent *int `json:"diffPercent,omitempty"`
}

// PriceStats holds raw pricing API figures in minor currency units (cents).
// A nil field means the API had no data for it.
type PriceStats struct {
	Current *int64
	Avg30   *int64
	High30  *int64
	Low30   *int64
}

// PricingProduct is the subset of a pricing API product record used by lookups
type PricingProduct struct {
	ASIN  string
	Title string
	Stats *PriceStats
}

// Resolution is the outcome of following a redirect chain
type Resolution struct {
	FinalURL string `json:"finalUrl"`
	Hops     int    `json:"hops"`
	Method   string `json:"method"`
}

// ResolveResult is returned by the resolve endpoint
type ResolveResult struct {
	FinalURL string `json:"finalUrl"`
	ASIN     string `json:"asin"`
	Warning  string `json:"warning,omitempty"`
}

// LookupRequest represents a lookup or resolve request body
type LookupRequest struct {
	URL string `json:"url" form:"url" binding:"required"`
}
