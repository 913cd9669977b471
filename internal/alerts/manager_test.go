package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/portfolio"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

type fakeAlertStore struct {
	saved   []contracts.Alert
	saveErr error
}

func (f *fakeAlertStore) Save(_ context.Context, alert *contracts.Alert) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *alert)
	return nil
}

func (f *fakeAlertStore) Recent(context.Context, int, bool) ([]contracts.Alert, error) {
	return f.saved, nil
}

func (f *fakeAlertStore) Acknowledge(context.Context, string, time.Time) error { return nil }

func (f *fakeAlertStore) AcknowledgeAll(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeNotifier struct {
	delivered []contracts.Alert
	err       error
}

func (f *fakeNotifier) Notify(_ context.Context, alert contracts.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, alert)
	return nil
}

func TestEmitAssignsIdentityAndFansOut(t *testing.T) {
	store := &fakeAlertStore{}
	notifier := &fakeNotifier{}
	m := NewManager(store, testLogger(), notifier)

	alert := m.Emit(context.Background(), contracts.Alert{
		Type:     contracts.AlertNewGo,
		Severity: contracts.AlertInfo,
		Symbol:   "AAPL",
		Title:    "New GO signal: AAPL",
	})

	assert.NotEmpty(t, alert.ID)
	assert.False(t, alert.CreatedAt.IsZero())
	require.Len(t, store.saved, 1)
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, alert.ID, notifier.delivered[0].ID)
}

func TestEmitSurvivesStoreAndNotifierFailures(t *testing.T) {
	store := &fakeAlertStore{saveErr: errors.New("db down")}
	notifier := &fakeNotifier{err: errors.New("broker down")}
	m := NewManager(store, testLogger(), notifier)

	alert := m.Emit(context.Background(), contracts.Alert{Type: contracts.AlertNewGo, Title: "x"})

	// Creation never fails; failures are logged
	assert.NotEmpty(t, alert.ID)
}

func comparisonFixture() (*contracts.ScanComparison, *contracts.ScanRecord) {
	cmp := &contracts.ScanComparison{
		CurrentID:    "scan_2",
		PreviousID:   "scan_1",
		NewGoSignals: []string{"AAPL"},
		Upgraded: []contracts.VerdictChange{
			{Symbol: "AAPL", From: contracts.VerdictWatch, To: contracts.VerdictGo},
			{Symbol: "MSFT", From: contracts.VerdictNoGo, To: contracts.VerdictWatch},
		},
	}
	rec := &contracts.ScanRecord{
		ID: "scan_2",
		Results: []contracts.ScanResult{
			{Symbol: "AAPL", Conviction: contracts.ConvictionResult{Score: 82.5}},
			{Symbol: "MSFT", Conviction: contracts.ConvictionResult{Score: 55}},
		},
	}
	return cmp, rec
}

func TestFromComparison(t *testing.T) {
	store := &fakeAlertStore{}
	m := NewManager(store, testLogger())
	cmp, rec := comparisonFixture()

	emitted := m.FromComparison(context.Background(), cmp, rec)

	// One new-GO alert for AAPL, one upgrade alert for MSFT; the
	// AAPL upgrade is subsumed by its new-GO alert
	require.Len(t, emitted, 2)
	assert.Equal(t, contracts.AlertNewGo, emitted[0].Type)
	assert.Equal(t, "AAPL", emitted[0].Symbol)
	assert.Contains(t, emitted[0].Message, "82.5")
	assert.Equal(t, contracts.AlertUpgrade, emitted[1].Type)
	assert.Equal(t, "MSFT", emitted[1].Symbol)
	assert.Equal(t, "scan_2", emitted[1].ScanID)
}

func TestFromComparisonNilIsNoop(t *testing.T) {
	m := NewManager(&fakeAlertStore{}, testLogger())
	assert.Empty(t, m.FromComparison(context.Background(), nil, nil))
}

func TestFromPortfolioSignalsCriticalOnly(t *testing.T) {
	store := &fakeAlertStore{}
	m := NewManager(store, testLogger())

	managed := []portfolio.ManagedPosition{
		{
			Position: contracts.Position{Symbol: "AAPL"},
			Signal: contracts.Signal{
				Type:              contracts.SignalStopLoss,
				Severity:          contracts.SeverityCritical,
				Reasons:           []string{"Position down 35.0% (threshold: -30%)"},
				RecommendedAction: "Consider closing the position.",
			},
		},
		{
			Position: contracts.Position{Symbol: "MSFT"},
			Signal:   contracts.Signal{Type: contracts.SignalTakeProfit, Severity: contracts.SeverityWarn},
		},
	}

	emitted := m.FromPortfolioSignals(context.Background(), managed)

	require.Len(t, emitted, 1)
	assert.Equal(t, contracts.AlertPortfolioSignal, emitted[0].Type)
	assert.Equal(t, contracts.AlertCritical, emitted[0].Severity)
	assert.Equal(t, "AAPL", emitted[0].Symbol)
	assert.Contains(t, emitted[0].Message, "down 35.0%")
}

func TestScanFailedAlert(t *testing.T) {
	store := &fakeAlertStore{}
	m := NewManager(store, testLogger())

	alert := m.ScanFailed(context.Background(), errors.New("provider timeout"))

	assert.Equal(t, contracts.AlertScanFailed, alert.Type)
	assert.Equal(t, contracts.AlertCritical, alert.Severity)
	assert.Contains(t, alert.Message, "provider timeout")
}
