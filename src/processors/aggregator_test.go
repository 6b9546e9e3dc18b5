package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/src/models"
)

func tx(id string, txType models.TransactionType, currency, amount string, usd float64, details, dateTime string) models.Transaction {
	return models.Transaction{
		ID:            id,
		Type:          txType,
		Currency:      currency,
		Amount:        amount,
		USDEquivalent: usd,
		Details:       details,
		DateTime:      dateTime,
	}
}

func TestAggregateDepositAndInterest(t *testing.T) {
	// Export order is newest-first; the aggregator reverses before folding.
	records := []models.Transaction{
		tx("NXT2", models.TypeInterest, "BTC", "0.00100000", 0.10, "approved / Interest earned", "2021-07-29 00:00:02"),
		tx("NXT1", models.TypeDeposit, "BTC", "1.00000000", 100.00, "approved / abc123hash", "2021-07-28 19:54:53"),
	}

	state, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	btc := state.Balances["BTC"]
	require.NotNil(t, btc)
	assert.Equal(t, "1.001", btc.Amount.String())
	assert.Equal(t, "0.001", btc.InterestEarnedInKind.String())
	assert.InDelta(t, 100.00, state.Totals.TotalCryptoDeposited.InexactFloat64(), 1e-9)

	// Snapshots grow chronologically: deposit first, then interest.
	require.Len(t, btc.Snapshots, 2)
	assert.Equal(t, "2021-07-28", btc.Snapshots[0].Date)
	assert.Equal(t, "1", btc.Snapshots[0].Amount.String())
	assert.Equal(t, "2021-07-29", btc.Snapshots[1].Date)
	assert.Equal(t, "1.001", btc.Snapshots[1].Amount.String())
}

func TestAggregateSplitsPairRows(t *testing.T) {
	records := []models.Transaction{
		tx("NXT1", models.TypeExchange, "EUR/BTC", "-100.00/0.00210000", 118.00, "approved / Exchange", "2021-08-02 10:00:00"),
	}

	state, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	assert.Equal(t, "-100", state.Balances["EUR"].Amount.String())
	assert.Equal(t, "0.0021", state.Balances["BTC"].Amount.String())
}

func TestAggregateNormalizesPeggedFiatLegs(t *testing.T) {
	records := []models.Transaction{
		tx("NXT2", models.TypeExchange, "EURX/BTC", "-50.00/0.00100000", 59.00, "approved / Exchange", "2021-08-03 10:00:00"),
		tx("NXT1", models.TypeExchangeDepositedOn, "EUR", "150.00", 177.00, "approved", "2021-08-01 09:00:00"),
	}

	state, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	// The EURX leg lands on EUR; no separate EURX balance ever exists. The
	// ExchangeDepositedOn row is balance-neutral and contributes nothing.
	require.NotContains(t, state.Balances, "EURX")
	assert.Equal(t, "-50", state.Balances["EUR"].Amount.String())
}

func TestAggregateSkipsPendingAndRejected(t *testing.T) {
	records := []models.Transaction{
		tx("NXT3", models.TypeWithdrawal, "BTC", "-0.50000000", 50.00, "rejected / Withdrawal", "2021-08-02 10:00:00"),
		tx("NXT2", models.TypeDeposit, "BTC", "2.00000000", 200.00, "pending / confirmation", "2021-08-01 10:00:00"),
		tx("NXT1", models.TypeDeposit, "BTC", "1.00000000", 100.00, "approved / hash", "2021-07-28 19:54:53"),
	}

	state, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	btc := state.Balances["BTC"]
	assert.Equal(t, "1", btc.Amount.String())
	assert.Len(t, btc.Snapshots, 1)
	assert.InDelta(t, 100.00, state.Totals.TotalCryptoDeposited.InexactFloat64(), 1e-9)
}

func TestAggregateBalanceNeutralTypes(t *testing.T) {
	neutral := []models.TransactionType{
		models.TypeLockingTermDeposit,
		models.TypeUnlockingTermDeposit,
		models.TypeExchangeToWithdraw,
		models.TypeExchangeDepositedOn,
		models.TypeTransferIn,
		models.TypeTransferOut,
		models.TypeCreditCardStatus,
	}

	records := []models.Transaction{
		tx("NXT1", models.TypeDeposit, "BTC", "1.00000000", 100.00, "approved", "2021-07-28 19:54:53"),
	}
	for _, nt := range neutral {
		records = append(records, tx("NXTN", nt, "BTC", "5.00000000", 500.00, "approved", "2021-08-01 10:00:00"))
	}

	state, err := NewOrderedAggregator().Aggregate(records)
	require.NoError(t, err)

	// Net holdings are unchanged by sub-account shuffling.
	assert.Equal(t, "1", state.Balances["BTC"].Amount.String())
	assert.Len(t, state.Balances["BTC"].Snapshots, 1)
}

func TestAggregateReferralBonus(t *testing.T) {
	records := []models.Transaction{
		tx("NXT1", models.TypeReferralBonus, "NEXO", "10.00000000", 12.50, "approved / Referral", "2021-08-01 10:00:00"),
	}

	state, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	// Referral bonuses count as a statistic and as real holdings.
	assert.Equal(t, "10", state.Totals.TotalReferralBonus.String())
	assert.Equal(t, "10", state.Balances["NEXO"].Amount.String())
}

func TestAggregateAccruesCashback(t *testing.T) {
	records := []models.Transaction{
		tx("NXT1", models.TypeExchangeCashback, "BTC", "0.00001000", 0.01, "approved / Cashback", "2021-08-01 10:00:00"),
	}

	state, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	btc := state.Balances["BTC"]
	assert.Equal(t, "0.00001", btc.Amount.String())
	assert.Equal(t, "0.00001", btc.CashbackEarnedInKind.String())
}

func TestAggregateConservation(t *testing.T) {
	// Folding signed movements one by one must land exactly on the sum of
	// the inputs, with no float drift on awkward decimal fractions.
	amounts := []string{"0.1", "0.2", "-0.1", "0.30000001", "0.001", "-0.2"}
	var records []models.Transaction
	for _, a := range amounts {
		records = append(records, tx("NXT", models.TypeExchange, "BTC", a, 1.0, "approved", "2021-08-01 10:00:00"))
	}

	state, err := NewOrderedAggregator().Aggregate(records)
	require.NoError(t, err)

	want := decimal.Zero
	for _, a := range amounts {
		want = want.Add(decimal.RequireFromString(a))
	}
	assert.True(t, state.Balances["BTC"].Amount.Equal(want),
		"got %s, want %s", state.Balances["BTC"].Amount, want)
}

func TestAggregateIsDeterministic(t *testing.T) {
	records := []models.Transaction{
		tx("NXT3", models.TypeInterest, "BTC", "0.00100000", 0.10, "approved", "2021-07-30 00:00:02"),
		tx("NXT2", models.TypeExchange, "EUR/BTC", "-100.00/0.00210000", 118.00, "approved", "2021-07-29 10:00:00"),
		tx("NXT1", models.TypeDeposit, "BTC", "1.00000000", 100.00, "approved", "2021-07-28 19:54:53"),
	}

	first, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)
	second, err := NewAggregator().Aggregate(records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateRejectsUnparseableAmount(t *testing.T) {
	records := []models.Transaction{
		tx("NXT1", models.TypeDeposit, "BTC", "one point five", 100.00, "approved", "2021-07-28 19:54:53"),
	}

	_, err := NewAggregator().Aggregate(records)
	require.Error(t, err)

	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "NXT1", aggErr.TxID)
}

func TestAggregateRejectsPairAmountWithoutPairCurrency(t *testing.T) {
	records := []models.Transaction{
		tx("NXT1", models.TypeExchange, "BTC", "-100.00/0.0021", 118.00, "approved", "2021-07-28 19:54:53"),
	}

	_, err := NewAggregator().Aggregate(records)
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
}
