package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/parsers"
	"github.com/username/cryptofolio/src/processors"
	"github.com/username/cryptofolio/src/utils"
)

const (
	ckUploadResult = "res_upload_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type uploadServiceImpl struct {
	parser       parsers.Parser
	aggregator   *processors.Aggregator
	priceService PriceService
	resultCache  *cache.Cache
}

func NewUploadService(parser parsers.Parser, aggregator *processors.Aggregator, priceService PriceService, resultCache *cache.Cache) UploadService {
	return &uploadServiceImpl{
		parser:       parser,
		aggregator:   aggregator,
		priceService: priceService,
		resultCache:  resultCache,
	}
}

// ProcessUpload runs one full ingestion session: parse, aggregate, persist,
// price-enrich, derive. Parse and aggregation failures are fatal for the
// file and leave nothing persisted; enrichment failures only leave
// currencies unpriced.
func (s *uploadServiceImpl) ProcessUpload(ctx context.Context, fileReader io.Reader) (*UploadResult, error) {
	startTime := time.Now()
	sessionID := uuid.NewString()
	logger.L.Info("ProcessUpload START", "sessionID", sessionID)

	txs, err := s.parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: file contains no transactions", ErrParsingFailed)
	}

	state, err := s.aggregator.Aggregate(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregationFailed, err)
	}

	if err := database.InsertTransactions(sessionID, txs); err != nil {
		return nil, fmt.Errorf("error persisting transactions: %w", err)
	}

	result, err := s.buildResult(ctx, sessionID, txs, state)
	if err != nil {
		// Fatal for the file; drop the rows so nothing partial survives.
		if delErr := database.DeleteSession(sessionID); delErr != nil {
			logger.L.Error("Failed to clean up rejected session", "sessionID", sessionID, "error", delErr)
		}
		return nil, err
	}
	s.resultCache.Set(fmt.Sprintf(ckUploadResult, sessionID), result, cache.DefaultExpiration)

	logger.L.Info("ProcessUpload END",
		"sessionID", sessionID,
		"transactions", len(txs),
		"currencies", len(state.Balances),
		"duration", time.Since(startTime))
	return result, nil
}

func (s *uploadServiceImpl) buildResult(ctx context.Context, sessionID string, txs []models.Transaction, state *models.LedgerState) (*UploadResult, error) {
	unpriced := s.priceService.EnrichLedger(ctx, state)

	first, last := processors.DateBounds(txs)
	for _, b := range state.Balances {
		b.Snapshots = processors.FillSnapshotGaps(b.Snapshots, last)
	}

	// A fully unpriced ledger derives BASE; anything else Loyalty rejects
	// means the file's numbers are inconsistent, which is fatal like any
	// other aggregation failure.
	tier, err := processors.Loyalty(state)
	if err != nil {
		logger.L.Error("Loyalty tier could not be derived", "sessionID", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAggregationFailed, err)
	}

	var totalInterestUSD float64
	for _, b := range state.Balances {
		totalInterestUSD += b.InterestEarnedInFiat
	}

	return &UploadResult{
		SessionID:        sessionID,
		Transactions:     txs,
		State:            state,
		DepotValueUSD:    utils.RoundFloat(processors.DepotValueUSD(state), 2),
		LoyaltyTier:      tier,
		TotalInterestUSD: utils.RoundFloat(totalInterestUSD, 2),
		UnpricedSymbols:  unpriced,
		InterestSeries:   processors.InterestSeries(txs),
		CashFlowSeries:   processors.CashFlowSeries(txs),
		AssetBreakdown:   processors.AssetBreakdown(state),
		FirstDate:        first,
		LastDate:         last,
	}, nil
}

// GetResult returns a cached session result, rebuilding it from the stored
// rows when the cache has expired.
func (s *uploadServiceImpl) GetResult(sessionID string) (*UploadResult, error) {
	if cached, ok := s.resultCache.Get(fmt.Sprintf(ckUploadResult, sessionID)); ok {
		if result, ok := cached.(*UploadResult); ok {
			return result, nil
		}
		// Foreign entry under our key; rebuild from storage instead.
		logger.L.Warn("Unexpected cache entry type for session, rebuilding", "sessionID", sessionID)
	}

	txs, err := database.TransactionsBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("error loading session %s: %w", sessionID, err)
	}
	if len(txs) == 0 {
		return nil, ErrSessionNotFound
	}

	state, err := s.aggregator.Aggregate(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregationFailed, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := s.buildResult(ctx, sessionID, txs, state)
	if err != nil {
		return nil, err
	}
	s.resultCache.Set(fmt.Sprintf(ckUploadResult, sessionID), result, cache.DefaultExpiration)
	return result, nil
}

func (s *uploadServiceImpl) DeleteSession(sessionID string) error {
	s.resultCache.Delete(fmt.Sprintf(ckUploadResult, sessionID))
	if err := database.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("error deleting session %s: %w", sessionID, err)
	}
	return nil
}

// IsClientError reports whether an upload failure was caused by the file
// itself, so the handler can ask for a corrected re-upload instead of
// reporting a server fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrParsingFailed) || errors.Is(err, ErrAggregationFailed)
}
