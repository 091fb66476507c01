package model

// LoyaltyTier is static configuration: a customer whose confirmed spend
// reaches MinSpend earns RateBps basis points of every order.
type LoyaltyTier struct {
	Name     string
	MinSpend float64
	RateBps  int
}

func (t LoyaltyTier) Rate() float64 {
	return float64(t.RateBps) / 10000
}

type LoyaltyResult struct {
	Points   int64  `json:"points"`
	TierName string `json:"tierName"`
}
