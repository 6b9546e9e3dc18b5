package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/processors"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type PortfolioHandler struct {
	uploadService services.UploadService
}

func NewPortfolioHandler(service services.UploadService) *PortfolioHandler {
	return &PortfolioHandler{uploadService: service}
}

// PortfolioResponse is the balance-centric view of one ingestion session.
type PortfolioResponse struct {
	SessionID       string                    `json:"session_id"`
	Balances        []*models.CurrencyBalance `json:"balances"`
	Totals          models.PortfolioTotals    `json:"totals"`
	DepotValueUSD   float64                   `json:"depot_value_usd"`
	LoyaltyTier     models.LoyaltyTier        `json:"loyalty_tier"`
	UnpricedSymbols []string                  `json:"unpriced_symbols,omitempty"`
}

// StatisticsResponse carries the derived time-series metrics.
type StatisticsResponse struct {
	SessionID        string                   `json:"session_id"`
	TotalInterestUSD float64                  `json:"total_interest_usd"`
	InterestSeries   []processors.DatedValue  `json:"interest_series"`
	CashFlowSeries   []processors.DayCashFlow `json:"cash_flow_series"`
	AssetBreakdown   map[string]float64       `json:"asset_breakdown"`
	FirstDate        string                   `json:"first_date"`
	LastDate         string                   `json:"last_date"`
}

func (h *PortfolioHandler) sessionResult(w http.ResponseWriter, r *http.Request) (*services.UploadResult, bool) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		utils.SendJSONError(w, "Missing required 'session' query parameter", http.StatusBadRequest)
		return nil, false
	}
	result, err := h.uploadService.GetResult(sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			utils.SendJSONError(w, "Session not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to load session result", "sessionID", sessionID, "error", err)
			utils.SendJSONError(w, "Failed to load session data", http.StatusInternalServerError)
		}
		return nil, false
	}
	return result, true
}

func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	result, ok := h.sessionResult(w, r)
	if !ok {
		return
	}

	balances := make([]*models.CurrencyBalance, 0, len(result.State.Balances))
	for _, symbol := range result.State.Symbols() {
		balances = append(balances, result.State.Balances[symbol])
	}
	response := PortfolioResponse{
		SessionID:       result.SessionID,
		Balances:        balances,
		Totals:          result.State.Totals,
		DepotValueUSD:   result.DepotValueUSD,
		LoyaltyTier:     result.LoyaltyTier,
		UnpricedSymbols: result.UnpricedSymbols,
	}
	writeCacheableJSON(w, r, response)
}

func (h *PortfolioHandler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	result, ok := h.sessionResult(w, r)
	if !ok {
		return
	}
	response := StatisticsResponse{
		SessionID:        result.SessionID,
		TotalInterestUSD: result.TotalInterestUSD,
		InterestSeries:   result.InterestSeries,
		CashFlowSeries:   result.CashFlowSeries,
		AssetBreakdown:   result.AssetBreakdown,
		FirstDate:        result.FirstDate,
		LastDate:         result.LastDate,
	}
	writeCacheableJSON(w, r, response)
}

// writeCacheableJSON serves the payload with an ETag so unchanged session
// views cost the client nothing on refresh.
func writeCacheableJSON(w http.ResponseWriter, r *http.Request, payload interface{}) {
	etag, err := utils.GenerateETag(payload)
	if err != nil {
		logger.L.Error("Failed to generate ETag", "error", err)
		utils.SendJSONError(w, "Failed to prepare response", http.StatusInternalServerError)
		return
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
