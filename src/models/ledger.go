package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot records the running coin balance right after a contributing
// transaction. The sequence is used to reconstruct historical valuation.
type BalanceSnapshot struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// CurrencyBalance accumulates everything known about one currency symbol
// during an ingestion session.
type CurrencyBalance struct {
	Symbol string `json:"symbol"`

	// Amount is the net coin balance, mutated only through signed adds.
	Amount decimal.Decimal `json:"amount"`

	// FiatEquivalent is Amount * the latest known USD rate. Zero until a
	// price feed delivers a rate for this symbol.
	FiatEquivalent float64 `json:"fiat_equivalent"`

	InterestEarnedInKind decimal.Decimal `json:"interest_earned_in_kind"`
	InterestEarnedInFiat float64         `json:"interest_earned_in_fiat"`

	CashbackEarnedInKind decimal.Decimal `json:"cashback_earned_in_kind"`
	CashbackEarnedInFiat float64         `json:"cashback_earned_in_fiat"`

	Snapshots []BalanceSnapshot `json:"snapshots,omitempty"`
}

// NewCurrencyBalance returns a zero-valued balance for symbol.
func NewCurrencyBalance(symbol string) *CurrencyBalance {
	return &CurrencyBalance{Symbol: symbol}
}

// Add applies a signed coin amount and records the new running balance for
// the given date.
func (b *CurrencyBalance) Add(amount decimal.Decimal, date string) {
	b.Amount = b.Amount.Add(amount)
	b.Snapshots = append(b.Snapshots, BalanceSnapshot{Date: date, Amount: b.Amount})
}

// AddInterest accrues in-kind interest. Interest is never negative at the
// source, so the accumulator is monotonically non-decreasing.
func (b *CurrencyBalance) AddInterest(amount decimal.Decimal) {
	b.InterestEarnedInKind = b.InterestEarnedInKind.Add(amount)
}

// AddCashback accrues in-kind exchange cashback.
func (b *CurrencyBalance) AddCashback(amount decimal.Decimal) {
	b.CashbackEarnedInKind = b.CashbackEarnedInKind.Add(amount)
}

// PortfolioTotals carries the portfolio-level accumulators.
type PortfolioTotals struct {
	// TotalCryptoDeposited sums the USD equivalent of Deposit rows.
	TotalCryptoDeposited decimal.Decimal `json:"total_crypto_deposited"`
	// TotalFiatDeposited sums the USD equivalent of DepositToExchange rows.
	TotalFiatDeposited decimal.Decimal `json:"total_fiat_deposited"`
	// TotalReferralBonus sums ReferralBonus amounts in kind. The platform
	// pays these in its native token.
	TotalReferralBonus decimal.Decimal `json:"total_referral_bonus"`
}

// LedgerState is the output of one aggregation run: per-currency balances
// plus portfolio totals. It is owned and mutated exclusively by the
// aggregation engine until handed out, after which only SetRate mutates it.
type LedgerState struct {
	Balances map[string]*CurrencyBalance `json:"balances"`
	Totals   PortfolioTotals             `json:"totals"`
}

// NewLedgerState returns an empty state.
func NewLedgerState() *LedgerState {
	return &LedgerState{Balances: make(map[string]*CurrencyBalance)}
}

// Balance returns the accumulator for symbol, creating it lazily. First
// reference to a symbol is expected, never an error.
func (s *LedgerState) Balance(symbol string) *CurrencyBalance {
	b, ok := s.Balances[symbol]
	if !ok {
		b = NewCurrencyBalance(symbol)
		s.Balances[symbol] = b
	}
	return b
}

// SetRate assigns the latest USD rate for one symbol and recomputes the
// derived fiat figures. Calls are commutative across symbols and idempotent
// per symbol, so out-of-order price-feed callbacks are safe.
func (s *LedgerState) SetRate(symbol string, usdPerUnit float64) {
	b, ok := s.Balances[symbol]
	if !ok {
		return
	}
	b.FiatEquivalent = b.Amount.InexactFloat64() * usdPerUnit
	b.InterestEarnedInFiat = b.InterestEarnedInKind.InexactFloat64() * usdPerUnit
	b.CashbackEarnedInFiat = b.CashbackEarnedInKind.InexactFloat64() * usdPerUnit
}

// Symbols returns the tracked currency symbols in deterministic order.
func (s *LedgerState) Symbols() []string {
	syms := make([]string, 0, len(s.Balances))
	for sym := range s.Balances {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
