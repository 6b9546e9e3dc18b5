package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/processors"
)

var (
	ErrParsingFailed     = errors.New("error parsing transaction file")
	ErrAggregationFailed = errors.New("error aggregating transactions")
	ErrSessionNotFound   = errors.New("ingestion session not found")

	// ErrUnsupportedCurrency marks symbols the enrichment layer has no price
	// feed mapping for. Recoverable: the currency stays unpriced.
	ErrUnsupportedCurrency = errors.New("currency not supported by any price feed")
)

// PriceService delivers USD rates from external market-data providers. All
// lookups are rate-limited and cached; individual failures never abort the
// enrichment of other currencies.
type PriceService interface {
	// CurrentRate returns the latest USD rate for one symbol.
	CurrentRate(ctx context.Context, symbol string) (models.Rate, error)
	// HistoricalRates returns a per-day USD rate series for the given range.
	// Fiat series are weekday-only; callers gap-fill against their own
	// transaction dates.
	HistoricalRates(ctx context.Context, symbol string, from, to time.Time) ([]models.DatedRate, error)
	// EnrichLedger prices every balance in the state via SetRate and
	// returns the symbols that stayed unpriced.
	EnrichLedger(ctx context.Context, state *models.LedgerState) []string
}

// UploadResult is the presentation-ready outcome of one ingestion session.
type UploadResult struct {
	SessionID string `json:"session_id"`

	// Transactions is the raw, unfiltered view in the export's own order.
	// Pending and rejected rows appear here even though they never touch
	// balances.
	Transactions []models.Transaction `json:"transactions"`

	State *models.LedgerState `json:"state"`

	DepotValueUSD    float64            `json:"depot_value_usd"`
	LoyaltyTier      models.LoyaltyTier `json:"loyalty_tier"`
	TotalInterestUSD float64            `json:"total_interest_usd"`
	UnpricedSymbols  []string           `json:"unpriced_symbols,omitempty"`

	InterestSeries []processors.DatedValue  `json:"interest_series"`
	CashFlowSeries []processors.DayCashFlow `json:"cash_flow_series"`
	AssetBreakdown map[string]float64       `json:"asset_breakdown"`

	FirstDate string `json:"first_date"`
	LastDate  string `json:"last_date"`
}

// UploadService orchestrates parse, aggregation, persistence and enrichment
// of one uploaded ledger export.
type UploadService interface {
	ProcessUpload(ctx context.Context, fileReader io.Reader) (*UploadResult, error)
	GetResult(sessionID string) (*UploadResult, error)
	DeleteSession(sessionID string) error
}
