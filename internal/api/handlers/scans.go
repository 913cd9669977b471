package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/history"
	"github.com/wonny/leapscope/pkg/logger"
)

// ScanHistory is the scan archive surface the handler reads from
type ScanHistory interface {
	GetScan(ctx context.Context, id string) (*contracts.ScanRecord, error)
	LatestScan(ctx context.Context) (*contracts.ScanRecord, error)
	PreviousScan(ctx context.Context, beforeID string) (*contracts.ScanRecord, error)
	RecentScans(ctx context.Context, limit int) ([]contracts.ScanRecord, error)
}

// ScanRunner triggers an on-demand scan
type ScanRunner interface {
	ScanSymbols(ctx context.Context, symbols []string) (*contracts.ScanRecord, *contracts.ScanComparison, error)
}

// ScanHandler serves scan history and on-demand scans
type ScanHandler struct {
	history ScanHistory
	runner  ScanRunner
	symbols []string // default universe for triggered scans
	logger  *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(hist ScanHistory, runner ScanRunner, symbols []string, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		history: hist,
		runner:  runner,
		symbols: symbols,
		logger:  log,
	}
}

// Latest returns the most recent scan
// GET /api/scans/latest
func (h *ScanHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.history.LatestScan(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest scan")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest scan")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "No scans recorded yet")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Get returns one scan by id
// GET /api/scans/{id}
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.history.GetScan(r.Context(), id)
	if err != nil {
		h.logger.WithField("scan_id", id).WithError(err).Error("Failed to load scan")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scan")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "Scan not found")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Recent returns scan summaries, newest first
// GET /api/scans?limit=20
func (h *ScanHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	recs, err := h.history.RecentScans(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list scans")
		respondError(w, http.StatusInternalServerError, "Failed to list scans")
		return
	}

	respondJSON(w, http.StatusOK, recs)
}

// Comparison diffs a scan against the one before it. The id "latest"
// compares the two most recent scans.
// GET /api/scans/{id}/comparison
func (h *ScanHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var current *contracts.ScanRecord
	var err error
	if id == "latest" {
		current, err = h.history.LatestScan(ctx)
	} else {
		current, err = h.history.GetScan(ctx, id)
	}
	if err != nil {
		h.logger.WithField("scan_id", id).WithError(err).Error("Failed to load scan for comparison")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scan")
		return
	}
	if current == nil {
		respondError(w, http.StatusNotFound, "Scan not found")
		return
	}

	previous, err := h.history.PreviousScan(ctx, current.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load previous scan")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve previous scan")
		return
	}

	respondJSON(w, http.StatusOK, history.Compare(current, previous))
}

// TriggerRequest optionally narrows a triggered scan to given symbols
type TriggerRequest struct {
	Symbols []string `json:"symbols,omitempty"`
}

// Trigger runs a scan synchronously and returns the record
// POST /api/scan
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = h.symbols
	}
	if len(symbols) == 0 {
		respondError(w, http.StatusBadRequest, "No symbols configured")
		return
	}

	rec, cmp, err := h.runner.ScanSymbols(r.Context(), symbols)
	if err != nil {
		h.logger.WithError(err).Error("Triggered scan failed")
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scan":       rec,
		"comparison": cmp,
	})
}
