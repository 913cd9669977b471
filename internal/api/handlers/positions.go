package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/portfolio"
	"github.com/wonny/leapscope/pkg/logger"
)

// PositionManager is the portfolio surface the handler drives
type PositionManager interface {
	OpenPosition(ctx context.Context, pos *contracts.Position) error
	GetPosition(ctx context.Context, id string) (*contracts.Position, error)
	ListPositions(ctx context.Context, status contracts.PositionStatus) ([]contracts.Position, error)
	ClosePosition(ctx context.Context, id, notes string) error
	RollPosition(ctx context.Context, id, notes string) error
	RefreshAll(ctx context.Context) ([]portfolio.ManagedPosition, error)
	RefreshPosition(ctx context.Context, id string) (*portfolio.ManagedPosition, error)
	Summarize(managed []portfolio.ManagedPosition) portfolio.Summary
	SignalDigest(managed []portfolio.ManagedPosition) []contracts.Signal
}

// PositionHandler serves portfolio endpoints
type PositionHandler struct {
	manager PositionManager
	logger  *logger.Logger
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(manager PositionManager, log *logger.Logger) *PositionHandler {
	return &PositionHandler{manager: manager, logger: log}
}

// List returns positions, optionally filtered by status
// GET /api/positions?status=OPEN
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := contracts.PositionStatus(r.URL.Query().Get("status"))

	positions, err := h.manager.ListPositions(r.Context(), status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list positions")
		respondError(w, http.StatusInternalServerError, "Failed to list positions")
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// CreatePositionRequest is the open-position payload
type CreatePositionRequest struct {
	Symbol          string  `json:"symbol"`
	OptionType      string  `json:"option_type"` // CALL or PUT
	Strike          float64 `json:"strike"`
	Expiration      string  `json:"expiration"` // YYYY-MM-DD
	Contracts       int     `json:"contracts"`
	EntryPrice      float64 `json:"entry_price"`
	EntryDate       string  `json:"entry_date,omitempty"` // YYYY-MM-DD, default today
	EntryUnderlying float64 `json:"entry_underlying,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// Create opens a new position
// POST /api/positions
func (h *PositionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expiration, err := time.Parse("2006-01-02", req.Expiration)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid expiration, expected YYYY-MM-DD")
		return
	}

	entryDate := time.Now().UTC()
	if req.EntryDate != "" {
		entryDate, err = time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid entry_date, expected YYYY-MM-DD")
			return
		}
	}

	optionType := contracts.OptionType(req.OptionType)
	if optionType == "" {
		optionType = contracts.OptionCall
	}

	pos := &contracts.Position{
		Symbol:          req.Symbol,
		OptionType:      optionType,
		Strike:          req.Strike,
		Expiration:      expiration,
		Contracts:       req.Contracts,
		EntryPrice:      req.EntryPrice,
		EntryDate:       entryDate,
		EntryUnderlying: req.EntryUnderlying,
		Notes:           req.Notes,
	}

	if err := h.manager.OpenPosition(r.Context(), pos); err != nil {
		h.logger.WithField("symbol", req.Symbol).WithError(err).Warn("Position rejected")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, pos)
}

// Get returns one position
// GET /api/positions/{id}
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	pos, err := h.manager.GetPosition(r.Context(), id)
	if err != nil {
		h.logger.WithField("position_id", id).WithError(err).Error("Failed to load position")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve position")
		return
	}
	if pos == nil {
		respondError(w, http.StatusNotFound, "Position not found")
		return
	}

	respondJSON(w, http.StatusOK, pos)
}

// CloseRequest carries optional close/roll notes
type CloseRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Close marks a position closed
// POST /api/positions/{id}/close
func (h *PositionHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.ClosePosition)
}

// Roll marks a position rolled into a new contract
// POST /api/positions/{id}/roll
func (h *PositionHandler) Roll(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.RollPosition)
}

func (h *PositionHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, string) error) {
	id := mux.Vars(r)["id"]

	var req CloseRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if err := apply(r.Context(), id, req.Notes); err != nil {
		h.logger.WithField("position_id", id).WithError(err).Warn("Position transition failed")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Refresh reprices one position and evaluates its signal
// POST /api/positions/{id}/refresh
func (h *PositionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	managed, err := h.manager.RefreshPosition(r.Context(), id)
	if err != nil {
		h.logger.WithField("position_id", id).WithError(err).Error("Position refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to refresh position")
		return
	}
	if managed == nil {
		respondError(w, http.StatusNotFound, "Position not found")
		return
	}

	respondJSON(w, http.StatusOK, managed)
}

// Summary reprices every open position and aggregates the portfolio
// GET /api/portfolio/summary
func (h *PositionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	managed, err := h.manager.RefreshAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Portfolio refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to refresh portfolio")
		return
	}

	respondJSON(w, http.StatusOK, h.manager.Summarize(managed))
}

// Signals reprices every open position and returns the non-HOLD signals
// GET /api/portfolio/signals
func (h *PositionHandler) Signals(w http.ResponseWriter, r *http.Request) {
	managed, err := h.manager.RefreshAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Portfolio refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to refresh portfolio")
		return
	}

	respondJSON(w, http.StatusOK, h.manager.SignalDigest(managed))
}
