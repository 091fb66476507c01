package helper

import (
	"cinema_ticketing/model"
	"math"
	"sort"
)

// DefaultLoyaltyTiers are ordered by ascending MinSpend. The lowest tier must
// start at 0 so every customer has a tier.
var DefaultLoyaltyTiers = []model.LoyaltyTier{
	{Name: "MEMBER", MinSpend: 0, RateBps: 500},
	{Name: "GOLD", MinSpend: 5_000, RateBps: 600},
	{Name: "VIP", MinSpend: 10_000, RateBps: 700},
}

// CalculatePoints returns the points earned for an order given the
// customer's confirmed spend before that order.
func CalculatePoints(orderAmount, priorConfirmedSpend float64) model.LoyaltyResult {
	return CalculatePointsWithTiers(DefaultLoyaltyTiers, orderAmount, priorConfirmedSpend)
}

func CalculatePointsWithTiers(tiers []model.LoyaltyTier, orderAmount, priorConfirmedSpend float64) model.LoyaltyResult {
	tier := TierFor(tiers, priorConfirmedSpend)
	points := int64(math.Floor(orderAmount * float64(tier.RateBps) / 10000))
	if points < 0 {
		points = 0
	}
	return model.LoyaltyResult{Points: points, TierName: tier.Name}
}

// TierFor picks the highest tier whose threshold is <= spend, falling back to
// the lowest tier.
func TierFor(tiers []model.LoyaltyTier, spend float64) model.LoyaltyTier {
	if len(tiers) == 0 {
		return model.LoyaltyTier{}
	}
	sorted := make([]model.LoyaltyTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinSpend < sorted[j].MinSpend })

	for i := len(sorted) - 1; i >= 0; i-- {
		if spend >= sorted[i].MinSpend {
			return sorted[i]
		}
	}
	return sorted[0]
}
