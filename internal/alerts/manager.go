package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/portfolio"
	"github.com/wonny/leapscope/pkg/logger"
)

// AlertStore is the persistence surface for alerts
type AlertStore interface {
	Save(ctx context.Context, alert *contracts.Alert) error
	Recent(ctx context.Context, limit int, unacknowledgedOnly bool) ([]contracts.Alert, error)
	Acknowledge(ctx context.Context, id string, at time.Time) error
	AcknowledgeAll(ctx context.Context, at time.Time) (int64, error)
}

// Notifier delivers an alert to an external channel. Delivery is
// fire-and-forget; a failed notifier never blocks alert creation.
type Notifier interface {
	Notify(ctx context.Context, alert contracts.Alert) error
}

// Manager creates alerts from scan diffs and portfolio signals,
// persists them, and fans them out to notifiers
type Manager struct {
	store     AlertStore
	notifiers []Notifier
	logger    *logger.Logger
	now       func() time.Time
}

// NewManager creates a new alert manager
func NewManager(store AlertStore, log *logger.Logger, notifiers ...Notifier) *Manager {
	return &Manager{
		store:     store,
		notifiers: notifiers,
		logger:    log,
		now:       time.Now,
	}
}

// Emit persists the alert and delivers it to every notifier
func (m *Manager) Emit(ctx context.Context, alert contracts.Alert) contracts.Alert {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = m.now()
	}

	if err := m.store.Save(ctx, &alert); err != nil {
		m.logger.WithField("alert_type", alert.Type).WithError(err).Error("Failed to persist alert")
	}

	for _, n := range m.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			m.logger.WithField("alert_id", alert.ID).WithError(err).Warn("Alert delivery failed")
		}
	}

	m.logger.WithFields(map[string]interface{}{
		"alert_type": alert.Type,
		"severity":   alert.Severity,
		"symbol":     alert.Symbol,
	}).Info(alert.Title)
	return alert
}

// FromComparison raises alerts for a scan diff: one per new GO signal
// and one per upgrade that did not reach GO (new-GO upgrades are already
// covered by the new-GO alert).
func (m *Manager) FromComparison(ctx context.Context, cmp *contracts.ScanComparison, current *contracts.ScanRecord) []contracts.Alert {
	if cmp == nil {
		return nil
	}

	scores := make(map[string]float64, len(current.Results))
	for _, res := range current.Results {
		scores[res.Symbol] = res.Conviction.Score
	}

	var emitted []contracts.Alert
	for _, symbol := range cmp.NewGoSignals {
		emitted = append(emitted, m.Emit(ctx, contracts.Alert{
			Type:     contracts.AlertNewGo,
			Severity: contracts.AlertInfo,
			Symbol:   symbol,
			Title:    fmt.Sprintf("New GO signal: %s", symbol),
			Message:  fmt.Sprintf("Scanner flagged %s GO with conviction %.1f", symbol, scores[symbol]),
			ScanID:   cmp.CurrentID,
		}))
	}

	for _, change := range cmp.Upgraded {
		if change.To == contracts.VerdictGo {
			continue
		}
		emitted = append(emitted, m.Emit(ctx, contracts.Alert{
			Type:     contracts.AlertUpgrade,
			Severity: contracts.AlertInfo,
			Symbol:   change.Symbol,
			Title:    fmt.Sprintf("Verdict upgrade: %s", change.Symbol),
			Message:  fmt.Sprintf("%s upgraded from %s to %s", change.Symbol, change.From, change.To),
			ScanID:   cmp.CurrentID,
		}))
	}
	return emitted
}

// FromPortfolioSignals raises an alert for every critical position signal
func (m *Manager) FromPortfolioSignals(ctx context.Context, managed []portfolio.ManagedPosition) []contracts.Alert {
	var emitted []contracts.Alert
	for _, mp := range managed {
		if mp.Signal.Severity != contracts.SeverityCritical {
			continue
		}

		message := mp.Signal.RecommendedAction
		if len(mp.Signal.Reasons) > 0 {
			message = mp.Signal.Reasons[0] + ". " + message
		}

		emitted = append(emitted, m.Emit(ctx, contracts.Alert{
			Type:     contracts.AlertPortfolioSignal,
			Severity: contracts.AlertCritical,
			Symbol:   mp.Position.Symbol,
			Title:    fmt.Sprintf("%s: %s", mp.Signal.Type, mp.Position.Symbol),
			Message:  message,
		}))
	}
	return emitted
}

// ScanFailed raises a critical alert when a scheduled scan errors out
func (m *Manager) ScanFailed(ctx context.Context, err error) contracts.Alert {
	return m.Emit(ctx, contracts.Alert{
		Type:     contracts.AlertScanFailed,
		Severity: contracts.AlertCritical,
		Title:    "Scan failed",
		Message:  err.Error(),
	})
}

// Recent proxies the store for the API layer
func (m *Manager) Recent(ctx context.Context, limit int, unacknowledgedOnly bool) ([]contracts.Alert, error) {
	return m.store.Recent(ctx, limit, unacknowledgedOnly)
}

// Acknowledge marks one alert acknowledged
func (m *Manager) Acknowledge(ctx context.Context, id string) error {
	return m.store.Acknowledge(ctx, id, m.now())
}
