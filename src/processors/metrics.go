package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/utils"
)

// DatedValue is one point of a per-day USD series.
type DatedValue struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// DayCashFlow merges deposits and withdrawals that fall on the same day.
type DayCashFlow struct {
	Date       string          `json:"date"`
	Deposit    decimal.Decimal `json:"deposit"`
	Withdrawal decimal.Decimal `json:"withdrawal"`
}

// DepotValueUSD sums the fiat equivalents of all tracked balances. Unpriced
// currencies contribute 0 rather than failing.
func DepotValueUSD(state *models.LedgerState) float64 {
	var value float64
	for _, b := range state.Balances {
		value += b.FiatEquivalent
	}
	return value
}

// Loyalty derives the reward tier from the native token's share of the depot
// value. Boundaries are lower-bound inclusive: exactly 1% is SILVER, 5% GOLD,
// 10% PLATINUM.
func Loyalty(state *models.LedgerState) (models.LoyaltyTier, error) {
	native, ok := state.Balances[NativeToken]
	if !ok {
		return models.TierBase, nil
	}

	depot := DepotValueUSD(state)
	if depot == 0 && native.FiatEquivalent == 0 {
		// Nothing priced yet; treat as unpriced rather than failing.
		return models.TierBase, nil
	}
	if depot <= 0 {
		return "", fmt.Errorf("depot value %0.2f cannot rank loyalty, ledger data is inconsistent", depot)
	}

	p := 100 * native.FiatEquivalent / depot
	if p < 0 || p > 100 {
		// Only reachable with corrupted input data; report instead of
		// defaulting to a tier.
		return "", fmt.Errorf("loyalty share %0.2f%% outside valid range, ledger data is inconsistent", p)
	}

	switch {
	case p < 1:
		return models.TierBase, nil
	case p < 5:
		return models.TierSilver, nil
	case p < 10:
		return models.TierGold, nil
	default:
		return models.TierPlatinum, nil
	}
}

// GroupByDay buckets the USD equivalent of matching records per calendar day.
// sign scales each contribution (+1 deposits, -1 withdrawals). Accumulation
// is decimal-exact; rounding is left to presentation. Pending and rejected
// rows never contribute.
func GroupByDay(records []models.Transaction, match func(models.Transaction) bool, sign int) []DatedValue {
	buckets := make(map[string]decimal.Decimal)
	for _, t := range records {
		if t.IsPendingOrRejected() || !match(t) {
			continue
		}
		v := decimal.NewFromFloat(t.USDEquivalent)
		if sign < 0 {
			v = v.Neg()
		}
		buckets[t.Date()] = buckets[t.Date()].Add(v)
	}

	series := make([]DatedValue, 0, len(buckets))
	for date, value := range buckets {
		series = append(series, DatedValue{Date: date, Value: value})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// InterestSeries is the per-day interest chart input.
func InterestSeries(records []models.Transaction) []DatedValue {
	return GroupByDay(records, func(t models.Transaction) bool {
		return t.Type == models.TypeInterest
	}, 1)
}

// DepositSeries covers crypto and fiat deposits.
func DepositSeries(records []models.Transaction) []DatedValue {
	return GroupByDay(records, func(t models.Transaction) bool {
		return t.Type == models.TypeDeposit || t.Type == models.TypeDepositToExchange
	}, 1)
}

// WithdrawalSeries covers crypto and fiat withdrawals, negated for charting.
func WithdrawalSeries(records []models.Transaction) []DatedValue {
	return GroupByDay(records, func(t models.Transaction) bool {
		return t.Type == models.TypeWithdrawal || t.Type == models.TypeWithdrawExchanged
	}, -1)
}

// CashFlowSeries merges the deposit and withdrawal series into one
// date-sorted sequence with both figures per day.
func CashFlowSeries(records []models.Transaction) []DayCashFlow {
	deposits := DepositSeries(records)
	withdrawals := WithdrawalSeries(records)

	byDate := make(map[string]*DayCashFlow, len(deposits)+len(withdrawals))
	for _, d := range deposits {
		byDate[d.Date] = &DayCashFlow{Date: d.Date, Deposit: d.Value}
	}
	for _, w := range withdrawals {
		if entry, ok := byDate[w.Date]; ok {
			entry.Withdrawal = w.Value
		} else {
			byDate[w.Date] = &DayCashFlow{Date: w.Date, Withdrawal: w.Value}
		}
	}

	series := make([]DayCashFlow, 0, len(byDate))
	for _, entry := range byDate {
		series = append(series, *entry)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// DateBounds returns the first and last transaction dates of the record set.
// Gap filling takes these as explicit parameters; there is no process-wide
// first/last state.
func DateBounds(records []models.Transaction) (first, last string) {
	for _, t := range records {
		d := t.Date()
		if d == "" {
			continue
		}
		if first == "" || d < first {
			first = d
		}
		if d > last {
			last = d
		}
	}
	return first, last
}

// FillSnapshotGaps expands a sparse snapshot sequence into one entry per
// calendar day from the first snapshot through `until`, holding the last
// known balance across gaps. Historical valuation is best-effort; weekday-only
// fiat rate series are filled the same way against these dates.
func FillSnapshotGaps(snaps []models.BalanceSnapshot, until string) []models.BalanceSnapshot {
	if len(snaps) == 0 {
		return nil
	}

	start, err := utils.ParseDate(snaps[0].Date)
	if err != nil {
		return snaps
	}
	end, err := utils.ParseDate(until)
	if err != nil || end.Before(start) {
		return snaps
	}

	// Last snapshot of each day wins; intra-day ordering is already
	// chronological after aggregation.
	lastOfDay := make(map[string]decimal.Decimal, len(snaps))
	for _, s := range snaps {
		lastOfDay[s.Date] = s.Amount
	}

	var filled []models.BalanceSnapshot
	current := snaps[0].Amount
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(utils.DateFormat)
		if amount, ok := lastOfDay[date]; ok {
			current = amount
		}
		filled = append(filled, models.BalanceSnapshot{Date: date, Amount: current})
	}
	return filled
}

// AssetBreakdown splits the depot value across asset classes for the
// portfolio division view.
func AssetBreakdown(state *models.LedgerState) map[string]float64 {
	breakdown := map[string]float64{
		ClassFiat.String():       0,
		ClassStableCoin.String(): 0,
		ClassCrypto.String():     0,
	}
	for sym, b := range state.Balances {
		switch Lookup(sym).Class {
		case ClassFiat:
			breakdown[ClassFiat.String()] += b.FiatEquivalent
		case ClassStableCoin:
			breakdown[ClassStableCoin.String()] += b.FiatEquivalent
		default:
			breakdown[ClassCrypto.String()] += b.FiatEquivalent
		}
	}
	return breakdown
}
