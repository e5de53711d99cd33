package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/username/pitfolio/backend/src/calculator"
	"github.com/username/pitfolio/backend/src/logger"
	"github.com/username/pitfolio/backend/src/services"
	"github.com/username/pitfolio/backend/src/utils"
)

type ReportHandler struct {
	calcService services.CalculationService
}

func NewReportHandler(service services.CalculationService) *ReportHandler {
	return &ReportHandler{
		calcService: service,
	}
}

func yearParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1990 || year > 2100 {
		return 0, fmt.Errorf("invalid year: %q", raw)
	}
	return year, nil
}

// sendError maps service failures onto HTTP statuses shared by all report
// endpoints.
func sendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoTransactions):
		utils.SendJSONError(w, "No transactions uploaded yet", http.StatusNotFound)
	case errors.Is(err, services.ErrCalculationFailed):
		utils.SendJSONError(w, fmt.Sprintf("Calculation failed: %v", err), http.StatusUnprocessableEntity)
	default:
		utils.SendJSONError(w, "Internal error generating the report", http.StatusInternalServerError)
	}
}

// writeJSONWithETag encodes data with an ETag so the frontend can poll
// cheaply between uploads.
func writeJSONWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	currentETag, etagErr := utils.GenerateETag(data)

	w.Header().Set("Cache-Control", "no-cache, private")
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

func (h *ReportHandler) HandleGetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.calcService.GetYears()
	if err != nil {
		logger.L.Warn("Error listing report years", "error", err)
		sendError(w, err)
		return
	}
	writeJSONWithETag(w, r, map[string][]int{"years": years})
}

func (h *ReportHandler) HandleGetTaxReport(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.calcService.GetTaxReport(year)
	if err != nil {
		logger.L.Warn("Error building tax report", "year", year, "error", err)
		sendError(w, err)
		return
	}
	if report.RealizedGains == nil {
		report.RealizedGains = []calculator.RealizedGain{}
	}
	if report.Dividends == nil {
		report.Dividends = []calculator.DividendRecord{}
	}
	writeJSONWithETag(w, r, report)
}

func (h *ReportHandler) HandleDownloadTaxReportXLSX(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Build the workbook in memory first so failures still get a proper
	// error response instead of a truncated download.
	var buf bytes.Buffer
	if err := h.calcService.WriteTaxReportXLSX(year, &buf); err != nil {
		logger.L.Warn("Error building XLSX report", "year", year, "error", err)
		sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"pit38-%d.xlsx\"", year))
	if _, err := buf.WriteTo(w); err != nil {
		logger.L.Error("Error streaming XLSX report", "year", year, "error", err)
	}
}

func (h *ReportHandler) HandleGetRealizedGains(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.calcService.GetTaxReport(year)
	if err != nil {
		logger.L.Warn("Error listing realized gains", "year", year, "error", err)
		sendError(w, err)
		return
	}
	gains := report.RealizedGains
	if gains == nil {
		gains = []calculator.RealizedGain{}
	}
	writeJSONWithETag(w, r, gains)
}

// HandleGetDividendSummary returns the per-country dividend tax rows of one
// year together with the converted payment detail.
func (h *ReportHandler) HandleGetDividendSummary(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.calcService.GetTaxReport(year)
	if err != nil {
		logger.L.Warn("Error building dividend summary", "year", year, "error", err)
		sendError(w, err)
		return
	}
	dividends := report.Dividends
	if dividends == nil {
		dividends = []calculator.DividendRecord{}
	}
	writeJSONWithETag(w, r, map[string]interface{}{
		"year":      year,
		"countries": report.Forms.PIT38.Dividends,
		"payments":  dividends,
	})
}

func (h *ReportHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.calcService.GetHoldings()
	if err != nil {
		logger.L.Warn("Error listing holdings", "error", err)
		sendError(w, err)
		return
	}
	writeJSONWithETag(w, r, holdings)
}
