package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/pkg/logger"
)

// PositionStore is the persistence surface for positions
type PositionStore interface {
	Insert(ctx context.Context, pos *contracts.Position) error
	Update(ctx context.Context, pos *contracts.Position) error
	Get(ctx context.Context, id string) (*contracts.Position, error)
	List(ctx context.Context, status contracts.PositionStatus) ([]contracts.Position, error)
	Delete(ctx context.Context, id string) error
}

// ManagedPosition pairs a priced position with its active signal
type ManagedPosition struct {
	Position contracts.Position `json:"position"`
	Signal   contracts.Signal   `json:"signal"`
}

// SymbolSummary aggregates positions sharing an underlying
type SymbolSummary struct {
	Positions     int     `json:"positions"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Summary is the portfolio-level rollup
type Summary struct {
	TotalPositions    int                           `json:"total_positions"`
	PricedPositions   int                           `json:"priced_positions"`
	UnpricedPositions int                           `json:"unpriced_positions"`
	MarketValue       float64                       `json:"market_value"`
	CostBasis         float64                       `json:"cost_basis"`
	UnrealizedPnL     float64                       `json:"unrealized_pnl"`
	UnrealizedPnLPct  float64                       `json:"unrealized_pnl_pct"`
	SignalCounts      map[contracts.SignalType]int  `json:"signal_counts"`
	CriticalCount     int                           `json:"critical_count"`
	BySymbol          map[string]SymbolSummary      `json:"by_symbol"`
	RefreshedAt       time.Time                     `json:"refreshed_at"`
}

// Manager owns the position lifecycle: open, refresh with pricing and
// signals, close or roll. Snapshot updates are best-effort; a failed
// write is logged and the refreshed state still returned.
type Manager struct {
	store   PositionStore
	pricer  *Pricer
	machine *SignalMachine
	logger  *logger.Logger
	now     func() time.Time
}

// NewManager creates a new portfolio manager
func NewManager(store PositionStore, pricer *Pricer, machine *SignalMachine, log *logger.Logger) *Manager {
	return &Manager{
		store:   store,
		pricer:  pricer,
		machine: machine,
		logger:  log,
		now:     time.Now,
	}
}

// OpenPosition records a new open position
func (m *Manager) OpenPosition(ctx context.Context, pos *contracts.Position) error {
	if pos.Symbol == "" || pos.Strike <= 0 || pos.Contracts <= 0 || pos.EntryPrice <= 0 {
		return fmt.Errorf("invalid position: symbol, strike, contracts and entry price are required")
	}
	if pos.Expiration.Before(m.now()) {
		return fmt.Errorf("invalid position: expiration %s is in the past", pos.Expiration.Format("2006-01-02"))
	}

	pos.ID = uuid.NewString()
	pos.Status = contracts.PositionOpen
	pos.CreatedAt = m.now()
	pos.UpdatedAt = pos.CreatedAt

	if err := m.store.Insert(ctx, pos); err != nil {
		return fmt.Errorf("failed to open position: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"position_id": pos.ID,
		"symbol":      pos.Symbol,
		"contract":    pos.ContractSymbol(),
	}).Info("Position opened")
	return nil
}

// GetPosition loads one position
func (m *Manager) GetPosition(ctx context.Context, id string) (*contracts.Position, error) {
	return m.store.Get(ctx, id)
}

// ListPositions lists positions, optionally filtered by status
// (empty status means all)
func (m *Manager) ListPositions(ctx context.Context, status contracts.PositionStatus) ([]contracts.Position, error) {
	return m.store.List(ctx, status)
}

// ClosePosition marks a position closed
func (m *Manager) ClosePosition(ctx context.Context, id, notes string) error {
	return m.setStatus(ctx, id, contracts.PositionClosed, notes)
}

// RollPosition marks a position rolled; the replacement contract is
// opened separately
func (m *Manager) RollPosition(ctx context.Context, id, notes string) error {
	return m.setStatus(ctx, id, contracts.PositionRolled, notes)
}

func (m *Manager) setStatus(ctx context.Context, id string, status contracts.PositionStatus, notes string) error {
	pos, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if pos == nil {
		return fmt.Errorf("position %s not found", id)
	}

	pos.Status = status
	if notes != "" {
		pos.Notes = notes
	}
	pos.UpdatedAt = m.now()

	if err := m.store.Update(ctx, pos); err != nil {
		return fmt.Errorf("failed to update position status: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"position_id": id,
		"status":      status,
	}).Info("Position status changed")
	return nil
}

// RefreshAll reprices every open position and recomputes its signal.
// Snapshot persistence is best-effort.
func (m *Manager) RefreshAll(ctx context.Context) ([]ManagedPosition, error) {
	positions, err := m.store.List(ctx, contracts.PositionOpen)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		m.logger.Info("No open positions to refresh")
		return nil, nil
	}

	managed := make([]ManagedPosition, 0, len(positions))
	for i := range positions {
		if ctx.Err() != nil {
			return managed, ctx.Err()
		}
		pos := &positions[i]

		m.pricer.Refresh(ctx, pos)
		sig := m.machine.Evaluate(ctx, pos)

		pos.UpdatedAt = m.now()
		if err := m.store.Update(ctx, pos); err != nil {
			m.logger.WithField("position_id", pos.ID).WithError(err).Error("Failed to persist snapshot")
		}

		managed = append(managed, ManagedPosition{Position: *pos, Signal: sig})
	}

	m.logger.WithField("count", len(managed)).Info("Portfolio refreshed")
	return managed, nil
}

// RefreshPosition reprices a single position and recomputes its signal
func (m *Manager) RefreshPosition(ctx context.Context, id string) (*ManagedPosition, error) {
	pos, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, fmt.Errorf("position %s not found", id)
	}

	m.pricer.Refresh(ctx, pos)
	sig := m.machine.Evaluate(ctx, pos)

	pos.UpdatedAt = m.now()
	if err := m.store.Update(ctx, pos); err != nil {
		m.logger.WithField("position_id", pos.ID).WithError(err).Error("Failed to persist snapshot")
	}

	return &ManagedPosition{Position: *pos, Signal: sig}, nil
}

// Summarize rolls refreshed positions up into portfolio totals
func (m *Manager) Summarize(managed []ManagedPosition) Summary {
	summary := Summary{
		TotalPositions: len(managed),
		SignalCounts:   make(map[contracts.SignalType]int),
		BySymbol:       make(map[string]SymbolSummary),
		RefreshedAt:    m.now(),
	}

	for _, mp := range managed {
		pos := mp.Position
		summary.SignalCounts[mp.Signal.Type]++
		if mp.Signal.Severity == contracts.SeverityCritical {
			summary.CriticalCount++
		}

		sym := summary.BySymbol[pos.Symbol]
		sym.Positions++

		mv := pos.MarketValue()
		if mv == nil {
			summary.UnpricedPositions++
			summary.BySymbol[pos.Symbol] = sym
			continue
		}

		summary.PricedPositions++
		summary.MarketValue += *mv
		summary.CostBasis += pos.CostBasis()

		if pnl, _ := pos.PnL(); pnl != nil {
			summary.UnrealizedPnL += *pnl
			sym.UnrealizedPnL += *pnl
		}
		sym.MarketValue += *mv
		summary.BySymbol[pos.Symbol] = sym
	}

	if summary.CostBasis > 0 {
		summary.UnrealizedPnLPct = summary.UnrealizedPnL / summary.CostBasis * 100
	}
	return summary
}

// SignalDigest lists all non-HOLD signals, most severe first
func (m *Manager) SignalDigest(managed []ManagedPosition) []contracts.Signal {
	var signals []contracts.Signal
	for _, mp := range managed {
		if mp.Signal.Type != contracts.SignalHold {
			signals = append(signals, mp.Signal)
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return severityRank(signals[i].Severity) < severityRank(signals[j].Severity)
	})
	return signals
}

func severityRank(s contracts.Severity) int {
	switch s {
	case contracts.SeverityCritical:
		return 0
	case contracts.SeverityWarn:
		return 1
	default:
		return 2
	}
}
