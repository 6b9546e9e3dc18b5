package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type PriceHandler struct {
	priceService services.PriceService
}

func NewPriceHandler(service services.PriceService) *PriceHandler {
	return &PriceHandler{priceService: service}
}

// HandleGetRateHistory serves the historical USD rate series for one symbol
// over a date range. Fiat series are weekday-only as published upstream.
func (h *PriceHandler) HandleGetRateHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		utils.SendJSONError(w, "Missing required 'symbol' query parameter", http.StatusBadRequest)
		return
	}

	from, err := utils.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		utils.SendJSONError(w, "Invalid 'from' date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := utils.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		utils.SendJSONError(w, "Invalid 'to' date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		utils.SendJSONError(w, "'to' date precedes 'from' date", http.StatusBadRequest)
		return
	}

	series, err := h.priceService.HistoricalRates(r.Context(), symbol, from, to)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedCurrency) {
			utils.SendJSONError(w, "No price feed available for this currency", http.StatusNotFound)
			return
		}
		logger.L.Error("Historical rate lookup failed", "symbol", symbol, "error", err)
		utils.SendJSONError(w, "Failed to fetch historical rates", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(series)
}
