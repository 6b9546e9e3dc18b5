package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/cryptofolio/src/config"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(service services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: service}
}

// HandleUpload ingests one ledger export file. A malformed file is rejected
// outright with a message asking for a corrected re-upload; nothing is
// partially ingested.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing upload request", "filename", fileHeader.Filename, "size", fileHeader.Size)
	result, err := h.uploadService.ProcessUpload(r.Context(), file)
	if err != nil {
		if services.IsClientError(err) {
			logger.L.Warn("Upload rejected", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Invalid transaction file, please re-upload a corrected export: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}
