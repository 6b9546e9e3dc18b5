package handlers

import (
	"errors"
	"net/http"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type TransactionHandler struct {
	uploadService services.UploadService
}

func NewTransactionHandler(service services.UploadService) *TransactionHandler {
	return &TransactionHandler{uploadService: service}
}

// HandleGetTransactions returns the raw parsed rows of a session, in the
// export's own order, including rows that were excluded from balances.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		utils.SendJSONError(w, "Missing required 'session' query parameter", http.StatusBadRequest)
		return
	}
	result, err := h.uploadService.GetResult(sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			utils.SendJSONError(w, "Session not found", http.StatusNotFound)
		} else {
			logger.L.Error("Failed to load session transactions", "sessionID", sessionID, "error", err)
			utils.SendJSONError(w, "Failed to load session data", http.StatusInternalServerError)
		}
		return
	}
	writeCacheableJSON(w, r, result.Transactions)
}

func (h *TransactionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		utils.SendJSONError(w, "Missing required 'session' query parameter", http.StatusBadRequest)
		return
	}
	if err := h.uploadService.DeleteSession(sessionID); err != nil {
		logger.L.Error("Failed to delete session", "sessionID", sessionID, "error", err)
		utils.SendJSONError(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}
	logger.L.Info("Session deleted", "sessionID", sessionID)
	w.WriteHeader(http.StatusNoContent)
}
