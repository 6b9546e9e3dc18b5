package models

// Rate is one current-rate lookup result.
type Rate struct {
	Symbol  string  `json:"symbol"`
	USDRate float64 `json:"usd_rate"`
}

// DatedRate is one observation of a historical rate series. Fiat series
// (central-bank feeds) are weekday-only and need gap filling downstream.
type DatedRate struct {
	Date    string  `json:"date"`
	USDRate float64 `json:"usd_rate"`
}

// LoyaltyTier is the reward level derived from the share of the platform's
// native token in the portfolio.
type LoyaltyTier string

const (
	TierBase     LoyaltyTier = "BASE"
	TierSilver   LoyaltyTier = "SILVER"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
)
