package usecase

import (
	"math"

	"github.com/pricecheck/backend/internal/domain"
)

// neutralBandPercent is the +/- band around the average treated as "decent".
const neutralBandPercent = 5.0

// Decide computes the buy recommendation from the current price and the
// 30-day average. Branches are evaluated in a fixed order: below average,
// inside the neutral band, far above average, then the fallback. The
// fallback is only reachable when the difference is not a finite number.
func Decide(current float64, average *float64) domain.BuyDecision {
	if average == nil {
		return domain.BuyDecision{
			Category: domain.DecisionIndeterminate,
			Icon:     "❓",
			Message:  "Unable to determine best time to buy",
		}
	}

	avg := *average
	diff := (avg - current) / avg * 100

	var decision domain.BuyDecision
	switch {
	case current < avg:
		decision = domain.BuyDecision{Category: domain.DecisionGood, Icon: "👍", Message: "Good time to buy"}
	case math.Abs(diff) <= neutralBandPercent:
		decision = domain.BuyDecision{Category: domain.DecisionDecent, Icon: "👌", Message: "Decent time to buy"}
	case diff < -neutralBandPercent:
		decision = domain.BuyDecision{Category: domain.DecisionTrendingHigher, Icon: "📈", Message: "Prices trending higher than average right now"}
	default:
		decision = domain.BuyDecision{Category: domain.DecisionNotGood, Icon: "❌", Message: "Not a good time to buy"}
	}

	if !math.IsNaN(diff) && !math.IsInf(diff, 0) {
		// Displayed with the sign flipped: -12 means 12% below average.
		pct := int(math.Round(-diff))
		decision.DiffPercent = &pct
	}

	return decision
}
