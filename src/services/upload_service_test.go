package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/parsers"
	"github.com/username/cryptofolio/src/processors"
)

// stubPriceService prices from a fixed table, no network.
type stubPriceService struct {
	rates map[string]float64
}

func (s *stubPriceService) CurrentRate(_ context.Context, symbol string) (models.Rate, error) {
	if r, ok := s.rates[symbol]; ok {
		return models.Rate{Symbol: symbol, USDRate: r}, nil
	}
	return models.Rate{}, ErrUnsupportedCurrency
}

func (s *stubPriceService) HistoricalRates(_ context.Context, symbol string, _, _ time.Time) ([]models.DatedRate, error) {
	return nil, ErrUnsupportedCurrency
}

func (s *stubPriceService) EnrichLedger(_ context.Context, state *models.LedgerState) []string {
	var unpriced []string
	for _, symbol := range state.Symbols() {
		r, ok := s.rates[symbol]
		if !ok {
			unpriced = append(unpriced, symbol)
			continue
		}
		state.SetRate(symbol, r)
	}
	return unpriced
}

func newTestUploadService(t *testing.T, rates map[string]float64) UploadService {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	return NewUploadService(
		parsers.NewLedgerParser(parsers.DefaultOptions()),
		processors.NewAggregator(),
		&stubPriceService{rates: rates},
		cache.New(DefaultCacheExpiration, CacheCleanupInterval),
	)
}

const testExport = `Transaction,Type,Currency,Amount,USD Equivalent,Details,Outstanding Loan,Date / Time
NXT2,Interest,BTC,0.00100000,$0.10,approved / Interest earned,$0.00,2021-07-29 00:00:02
NXT1,Deposit,BTC,1.00000000,$100.00,approved / abc123hash,$0.00,2021-07-28 19:54:53
`

func TestProcessUpload(t *testing.T) {
	svc := newTestUploadService(t, map[string]float64{"BTC": 40000})

	result, err := svc.ProcessUpload(context.Background(), strings.NewReader(testExport))
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionID)
	assert.Len(t, result.Transactions, 2)
	assert.Equal(t, "1.001", result.State.Balances["BTC"].Amount.String())
	assert.InDelta(t, 1.001*40000, result.DepotValueUSD, 1e-6)
	assert.InDelta(t, 0.001*40000, result.TotalInterestUSD, 1e-6)
	assert.Equal(t, models.TierBase, result.LoyaltyTier)
	assert.Empty(t, result.UnpricedSymbols)
	assert.Equal(t, "2021-07-28", result.FirstDate)
	assert.Equal(t, "2021-07-29", result.LastDate)

	require.Len(t, result.InterestSeries, 1)
	assert.Equal(t, "2021-07-29", result.InterestSeries[0].Date)

	// Snapshots are gap-filled through the last transaction day.
	require.Len(t, result.State.Balances["BTC"].Snapshots, 2)
}

func TestProcessUploadRejectsMalformedFile(t *testing.T) {
	svc := newTestUploadService(t, nil)

	_, err := svc.ProcessUpload(context.Background(), strings.NewReader("Not,A,Ledger\n1,2,3\n"))
	require.ErrorIs(t, err, ErrParsingFailed)
	assert.True(t, IsClientError(err))
}

func TestProcessUploadRejectsInconsistentLedger(t *testing.T) {
	// A negative depot makes the loyalty share underivable; that is a fault
	// in the file's numbers and must reject the upload like any other
	// aggregation failure.
	svc := newTestUploadService(t, map[string]float64{"NEXO": 1, "BTC": 40000})

	export := "Transaction,Type,Currency,Amount,USD Equivalent,Details,Outstanding Loan,Date / Time\n" +
		"NXT2,Withdrawal,BTC,-1.00000000,$40000.00,approved / Withdrawal,$0.00,2021-07-29 00:00:00\n" +
		"NXT1,Deposit,NEXO,10.00000000,$10.00,approved / hash,$0.00,2021-07-28 00:00:00\n"

	_, err := svc.ProcessUpload(context.Background(), strings.NewReader(export))
	require.ErrorIs(t, err, ErrAggregationFailed)
	assert.True(t, IsClientError(err))
	assert.Contains(t, err.Error(), "inconsistent")
}

func TestProcessUploadRejectsEmptyFile(t *testing.T) {
	svc := newTestUploadService(t, nil)

	header := "Transaction,Type,Currency,Amount,USD Equivalent,Details,Outstanding Loan,Date / Time\n"
	_, err := svc.ProcessUpload(context.Background(), strings.NewReader(header))
	require.ErrorIs(t, err, ErrParsingFailed)
}

func TestGetResultRebuildsFromDatabase(t *testing.T) {
	svc := newTestUploadService(t, map[string]float64{"BTC": 40000})

	uploaded, err := svc.ProcessUpload(context.Background(), strings.NewReader(testExport))
	require.NoError(t, err)

	// Expire the cached result; the session must survive via storage.
	svc.(*uploadServiceImpl).resultCache.Flush()

	rebuilt, err := svc.GetResult(uploaded.SessionID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.SessionID, rebuilt.SessionID)
	assert.Equal(t, "1.001", rebuilt.State.Balances["BTC"].Amount.String())
	assert.Len(t, rebuilt.Transactions, 2)
}

func TestGetResultIgnoresForeignCacheEntry(t *testing.T) {
	svc := newTestUploadService(t, map[string]float64{"BTC": 40000})

	uploaded, err := svc.ProcessUpload(context.Background(), strings.NewReader(testExport))
	require.NoError(t, err)

	// A non-result value under the session key must not panic the lookup;
	// the session is rebuilt from storage instead.
	impl := svc.(*uploadServiceImpl)
	impl.resultCache.Set(fmt.Sprintf(ckUploadResult, uploaded.SessionID), "bogus", cache.DefaultExpiration)

	rebuilt, err := svc.GetResult(uploaded.SessionID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.SessionID, rebuilt.SessionID)
	assert.Equal(t, "1.001", rebuilt.State.Balances["BTC"].Amount.String())
}

func TestGetResultUnknownSession(t *testing.T) {
	svc := newTestUploadService(t, nil)

	_, err := svc.GetResult("no-such-session")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	svc := newTestUploadService(t, map[string]float64{"BTC": 40000})

	uploaded, err := svc.ProcessUpload(context.Background(), strings.NewReader(testExport))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(uploaded.SessionID))

	_, err = svc.GetResult(uploaded.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrParsingFailed))
	assert.True(t, IsClientError(ErrAggregationFailed))
	assert.False(t, IsClientError(context.DeadlineExceeded))
}
