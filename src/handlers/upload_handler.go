package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/pitfolio/backend/src/config"
	"github.com/username/pitfolio/backend/src/logger"
	"github.com/username/pitfolio/backend/src/services"
	"github.com/username/pitfolio/backend/src/utils"
)

type UploadHandler struct {
	calcService services.CalculationService
}

func NewUploadHandler(service services.CalculationService) *UploadHandler {
	return &UploadHandler{
		calcService: service,
	}
}

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
		logger.L.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	source := strings.TrimSpace(r.FormValue("source"))
	if source == "" {
		source = "trading212"
	}

	result, err := h.calcService.ProcessUpload(file, source)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed):
			logger.L.Warn("Upload parsing failed", "filename", fileHeader.Filename, "source", source, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Could not parse the uploaded file: %v", err), http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrCalculationFailed):
			logger.L.Error("Calculation failed after upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("The uploaded data could not be processed: %v", err), http.StatusUnprocessableEntity)
		default:
			logger.L.Error("Error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "Internal error processing the upload", http.StatusInternalServerError)
		}
		return
	}

	logger.L.Info("Upload processed", "filename", fileHeader.Filename, "runID", result.RunID, "inserted", result.InsertedCount, "duplicates", result.DuplicateCount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "error", err)
	}
}

func (h *UploadHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.calcService.DeleteAllData(); err != nil {
		logger.L.Error("Error deleting stored data", "error", err)
		utils.SendJSONError(w, "Internal error deleting stored data", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
