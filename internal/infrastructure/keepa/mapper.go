package keepa

import (
	"encoding/json"
	"strings"

	"github.com/pricecheck/backend/internal/domain"
)

// priceChannel is the stats index holding the price used for decisions
const priceChannel = 1

// noData is Keepa's sentinel for a missing figure
const noData = -1

// MapProduct converts a Keepa product record to the domain representation
func MapProduct(p *product) *domain.PricingProduct {
	if p == nil {
		return nil
	}
	return &domain.PricingProduct{
		ASIN:  p.ASIN,
		Title: strings.TrimSpace(p.Title),
		Stats: mapStats(p.Stats),
	}
}

// mapStats extracts minor-unit figures. A nil stats object or a stats object
// without a current list maps to nil.
func mapStats(s *productStats) *domain.PriceStats {
	if s == nil || len(s.Current) == 0 {
		return nil
	}
	return &domain.PriceStats{
		Current: channelPrice(s.Current),
		Avg30:   channelPrice(s.Avg30),
		High30:  intervalPrice(s.MaxInInterval),
		Low30:   intervalPrice(s.MinInInterval),
	}
}

// channelPrice reads list[1], treating short lists and negative sentinels as no data
func channelPrice(list []int64) *int64 {
	if len(list) <= priceChannel {
		return nil
	}
	return validPrice(list[priceChannel])
}

// intervalPrice reads the price of the [time, price] pair at list[1]
func intervalPrice(list [][]int64) *int64 {
	if len(list) <= priceChannel {
		return nil
	}
	pair := list[priceChannel]
	if len(pair) < 2 {
		return nil
	}
	return validPrice(pair[1])
}

func validPrice(v int64) *int64 {
	if v <= noData {
		return nil
	}
	return &v
}

// errorMessage renders the top-level error field, which is usually an object
// but is accepted as a plain string too.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var e apiError
	if err := json.Unmarshal(raw, &e); err == nil && (e.Message != "" || e.Type != "") {
		if e.Message == "" {
			return e.Type
		}
		return e.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
