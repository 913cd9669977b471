package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/pkg/logger"
)

// AlertService is the alert surface the handler reads and acknowledges
type AlertService interface {
	Recent(ctx context.Context, limit int, unacknowledgedOnly bool) ([]contracts.Alert, error)
	Acknowledge(ctx context.Context, id string) error
}

// ValidationSource serves signal outcome statistics
type ValidationSource interface {
	ValidationStats(ctx context.Context) (*contracts.ValidationStats, error)
}

// AlertHandler serves alerts and signal validation stats
type AlertHandler struct {
	alerts     AlertService
	validation ValidationSource
	logger     *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts AlertService, validation ValidationSource, log *logger.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, validation: validation, logger: log}
}

// Recent returns recent alerts, newest first
// GET /api/alerts?limit=50&unacknowledged=true
func (h *AlertHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	unacknowledged := r.URL.Query().Get("unacknowledged") == "true"

	alerts, err := h.alerts.Recent(r.Context(), limit, unacknowledged)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		respondError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

// Acknowledge marks one alert as seen
// POST /api/alerts/{id}/ack
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.alerts.Acknowledge(r.Context(), id); err != nil {
		h.logger.WithField("alert_id", id).WithError(err).Warn("Alert acknowledge failed")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Validation returns tracked-signal outcome statistics
// GET /api/signals/validation
func (h *AlertHandler) Validation(w http.ResponseWriter, r *http.Request) {
	stats, err := h.validation.ValidationStats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute validation stats")
		respondError(w, http.StatusInternalServerError, "Failed to compute validation stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
