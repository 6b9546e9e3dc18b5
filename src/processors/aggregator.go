package processors

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
)

// balanceNeutral lists the transaction types that move value between
// sub-accounts of the same platform. They never touch per-currency balances;
// net holdings stay the same.
var balanceNeutral = map[models.TransactionType]bool{
	models.TypeLockingTermDeposit:   true,
	models.TypeUnlockingTermDeposit: true,
	models.TypeExchangeToWithdraw:   true,
	models.TypeExchangeDepositedOn:  true,
	models.TypeTransferIn:           true,
	models.TypeTransferOut:          true,
	models.TypeCreditCardStatus:     true,
}

// Aggregator folds an ordered transaction sequence into a LedgerState.
type Aggregator struct {
	// oldestFirst indicates the caller already ordered the records
	// chronologically. Exports are newest-first, so the default is to
	// reverse before folding; snapshots must grow monotonically in time.
	oldestFirst bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// NewOrderedAggregator skips the input reversal for callers that supply
// records oldest-first already.
func NewOrderedAggregator() *Aggregator {
	return &Aggregator{oldestFirst: true}
}

// Aggregate consumes the records in chronological order and returns the
// resulting balances and portfolio totals. Any error is fatal for the whole
// file; no partial state is returned.
func (a *Aggregator) Aggregate(records []models.Transaction) (*models.LedgerState, error) {
	state := models.NewLedgerState()

	ordered := records
	if !a.oldestFirst {
		ordered = make([]models.Transaction, len(records))
		for i, t := range records {
			ordered[len(records)-1-i] = t
		}
	}

	for _, t := range ordered {
		if err := a.apply(state, t); err != nil {
			return nil, err
		}
	}
	return state, nil
}

func (a *Aggregator) apply(state *models.LedgerState, t models.Transaction) error {
	// Pending and rejected rows stay visible in the raw view but must not
	// affect any balance, total or interest accumulator.
	if t.IsPendingOrRejected() {
		logger.L.Debug("skipping non-final transaction", "id", t.ID, "details", t.Details)
		return nil
	}

	switch t.Type {
	case models.TypeDeposit:
		state.Totals.TotalCryptoDeposited = state.Totals.TotalCryptoDeposited.
			Add(decimal.NewFromFloat(t.USDEquivalent))
	case models.TypeDepositToExchange:
		state.Totals.TotalFiatDeposited = state.Totals.TotalFiatDeposited.
			Add(decimal.NewFromFloat(t.USDEquivalent))
	case models.TypeReferralBonus:
		amt, err := singleAmount(t)
		if err != nil {
			return err
		}
		state.Totals.TotalReferralBonus = state.Totals.TotalReferralBonus.Add(amt)
	}

	if !balanceNeutral[t.Type] {
		if err := a.addCurrency(state, t, t.Currency, t.Amount); err != nil {
			return err
		}
	}

	// Interest and cashback are a balance increase and a statistic at the
	// same time, so this comes on top of the balance mutation above.
	switch t.Type {
	case models.TypeInterest, models.TypeFixedTermInterest:
		amt, err := singleAmount(t)
		if err != nil {
			return err
		}
		state.Balance(t.Currency).AddInterest(amt)
	case models.TypeExchangeCashback:
		amt, err := singleAmount(t)
		if err != nil {
			return err
		}
		state.Balance(t.Currency).AddCashback(amt)
	}

	return nil
}

// addCurrency applies one signed coin movement, splitting pair rows into
// their two legs first. The recursion terminates because split components
// never contain another "/".
func (a *Aggregator) addCurrency(state *models.LedgerState, t models.Transaction, currency, amount string) error {
	if strings.Contains(amount, "/") {
		curs := strings.SplitN(currency, "/", 2)
		amts := strings.SplitN(amount, "/", 2)
		if len(curs) != 2 {
			return aggregationErrorf(t.ID, "pair amount %q without pair currency %q", amount, currency)
		}
		if err := a.addCurrency(state, t, NormalizeFiatX(curs[0]), amts[0]); err != nil {
			return err
		}
		return a.addCurrency(state, t, NormalizeFiatX(curs[1]), amts[1])
	}

	amt, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		// A silently dropped amount corrupts the balance permanently, so
		// this aborts the whole file.
		return aggregationErrorf(t.ID, "unparseable amount %q for currency %s", amount, currency)
	}

	state.Balance(currency).Add(amt, t.Date())
	return nil
}

// singleAmount parses a non-pair amount field.
func singleAmount(t models.Transaction) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(strings.TrimSpace(t.Amount))
	if err != nil {
		return decimal.Decimal{}, aggregationErrorf(t.ID, "unparseable amount %q", t.Amount)
	}
	return amt, nil
}
