package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/src/models"
)

const legacyHeaderLine = "Transaction,Type,Currency,Amount,USD Equivalent,Details,Outstanding Loan,Date / Time"

const v2HeaderLine = "Transaction,Type,Input Currency,Input Amount,Output Currency,Output Amount,USD Equivalent,Details,Outstanding Loan,Date / Time"

func newTestParser() *LedgerParser {
	return NewLedgerParser(DefaultOptions())
}

func TestParseLegacyExport(t *testing.T) {
	input := strings.Join([]string{
		legacyHeaderLine,
		"NXT2,Interest,BTC,0.00100000,$0.10,approved / Interest earned,$0.00,2021-07-29 00:00:02",
		"NXT1,Deposit,BTC,1.00000000,$100.00,approved / abc123hash,$0.00,2021-07-28 19:54:53",
	}, "\n")

	txs, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "NXT2", txs[0].ID)
	assert.Equal(t, models.TypeInterest, txs[0].Type)
	assert.Equal(t, "BTC", txs[0].Currency)
	assert.Equal(t, "0.00100000", txs[0].Amount)
	assert.InDelta(t, 0.10, txs[0].USDEquivalent, 1e-9)
	assert.Equal(t, "2021-07-29", txs[0].Date())

	assert.Equal(t, models.TypeDeposit, txs[1].Type)
	assert.InDelta(t, 100.00, txs[1].USDEquivalent, 1e-9)
	assert.Equal(t, "abc123hash", txs[1].TxHash())
}

func TestParseNormalizesDoubledNativeToken(t *testing.T) {
	input := strings.Join([]string{
		legacyHeaderLine,
		"NXT1,Interest,NEXONEXO,1.50000000,$1.50,approved / Interest earned,$0.00,2021-07-28 00:00:02",
	}, "\n")

	txs, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "NEXO", txs[0].Currency)
}

func TestParseStopsAtTrailingBlankLines(t *testing.T) {
	input := strings.Join([]string{
		legacyHeaderLine,
		"NXT1,Deposit,BTC,1.00000000,$100.00,approved / ,$0.00,2021-07-28 19:54:53",
		",,,,,,,",
		",,,,,,,",
	}, "\n")

	txs, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestParseRejectsWrongHeaderArity(t *testing.T) {
	// 7 columns: not a known export generation.
	input := "Transaction,Type,Currency,Amount,USD Equivalent,Details,Date / Time\n" +
		"NXT1,Deposit,BTC,1.0,$100.00,approved,2021-07-28 19:54:53\n"

	_, err := newTestParser().Parse(strings.NewReader(input))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, parseErr.Row)
	assert.Contains(t, parseErr.Error(), "header mismatch")
}

func TestParseRejectsForcedArityMismatch(t *testing.T) {
	parser := NewLedgerParser(Options{ExpectedColumns: 10, ApplyLoanFixes: true})
	input := legacyHeaderLine + "\n"

	_, err := parser.Parse(strings.NewReader(input))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, parseErr.Row)
}

func TestParseRejectsMisnamedColumn(t *testing.T) {
	input := "Transaction,Type,Coin,Amount,USD Equivalent,Details,Outstanding Loan,Date / Time\n"

	_, err := newTestParser().Parse(strings.NewReader(input))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), `missing column "Currency"`)
}

func TestParseRejectsUnparseableNumericField(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"garbage usd equivalent", "NXT1,Deposit,BTC,1.0,$oops,approved,$0.00,2021-07-28 19:54:53"},
		{"empty usd equivalent", "NXT1,Deposit,BTC,1.0,,approved,$0.00,2021-07-28 19:54:53"},
		{"garbage outstanding loan", "NXT1,Deposit,BTC,1.0,$100.00,approved,$x,2021-07-28 19:54:53"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := legacyHeaderLine + "\n" + tc.row + "\n"
			_, err := newTestParser().Parse(strings.NewReader(input))

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 1, parseErr.Row)
		})
	}
}

func TestParseV2JoinsSides(t *testing.T) {
	input := strings.Join([]string{
		v2HeaderLine,
		"NXT2,Exchange,EUR,-100.00,BTC,0.00210000,$118.00,approved / Exchange,$0.00,2021-08-02 10:00:00",
		"NXT1,Deposit,BTC,1.00000000,BTC,1.00000000,$100.00,approved / abc123hash,$0.00,2021-07-28 19:54:53",
	}, "\n")

	txs, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Distinct sides become a pair.
	assert.Equal(t, "EUR/BTC", txs[0].Currency)
	assert.Equal(t, "-100.00/0.00210000", txs[0].Amount)
	assert.True(t, txs[0].IsPair())

	// Identical sides collapse to a single movement.
	assert.Equal(t, "BTC", txs[1].Currency)
	assert.Equal(t, "1.00000000", txs[1].Amount)
	assert.False(t, txs[1].IsPair())
}

func TestParseV2RepaymentSignFix(t *testing.T) {
	row := "NXT1,Repayment,BTC,0.00500000,,,$250.00,approved / Repayment,$0.00,2021-09-01 12:00:00"
	input := v2HeaderLine + "\n" + row + "\n"

	txs, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "-0.00500000", txs[0].Amount)

	// Already-negative rows pass through untouched.
	fixed := "NXT1,Repayment,BTC,-0.00500000,,,$250.00,approved / Repayment,$0.00,2021-09-01 12:00:00"
	txs, err = newTestParser().Parse(strings.NewReader(v2HeaderLine + "\n" + fixed + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "-0.00500000", txs[0].Amount)
}

func TestParseV2LiquidationOutputRewrite(t *testing.T) {
	row := "NXT1,Liquidation,BTC,-0.01500000,BTC,-0.01500000,$672.50,approved / Liquidation,$0.00,2021-09-02 12:00:00"
	input := v2HeaderLine + "\n" + row + "\n"

	txs, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "BTC/USD", txs[0].Currency)
	assert.Equal(t, "-0.01500000/672.50", txs[0].Amount)
}

func TestParseV2LoanFixesDisabled(t *testing.T) {
	parser := NewLedgerParser(Options{ApplyLoanFixes: false})
	row := "NXT1,Repayment,BTC,0.00500000,,,$250.00,approved / Repayment,$0.00,2021-09-01 12:00:00"

	txs, err := parser.Parse(strings.NewReader(v2HeaderLine + "\n" + row + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "0.00500000", txs[0].Amount)
}
