package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/leapscope/internal/contracts"
)

// SignalStore persists tracked signals and their forward outcomes
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore creates a new signal store
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// SaveSignals inserts freshly tracked signals in a single batch and
// fills in their ids
func (s *SignalStore) SaveSignals(ctx context.Context, sigs []*contracts.TrackedSignal) error {
	if len(sigs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tracked_signals (
			scan_id, symbol, verdict, conviction_score,
			price_at_signal, signal_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	batch := &pgx.Batch{}
	for _, sig := range sigs {
		batch.Queue(query,
			sig.ScanID, sig.Symbol, sig.Verdict, sig.ConvictionScore,
			sig.PriceAtSignal, sig.SignalDate, sig.UpdatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, sig := range sigs {
		if err := br.QueryRow().Scan(&sig.ID); err != nil {
			return fmt.Errorf("failed to insert tracked signals: %w", err)
		}
	}
	return nil
}

// PendingOutcomes lists signals old enough for the given horizon whose
// forward price at that horizon is still unset
func (s *SignalStore) PendingOutcomes(ctx context.Context, horizonDays int, asOf time.Time) ([]contracts.TrackedSignal, error) {
	col, err := priceColumn(horizonDays)
	if err != nil {
		return nil, err
	}
	cutoff := asOf.AddDate(0, 0, -horizonDays)

	query := fmt.Sprintf(`
		SELECT id, scan_id, symbol, verdict, conviction_score,
		       price_at_signal, signal_date
		FROM tracked_signals
		WHERE signal_date <= $1 AND %s IS NULL
		ORDER BY signal_date
	`, col)

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending outcomes: %w", err)
	}
	defer rows.Close()

	var signals []contracts.TrackedSignal
	for rows.Next() {
		var sig contracts.TrackedSignal
		if err := rows.Scan(
			&sig.ID, &sig.ScanID, &sig.Symbol, &sig.Verdict,
			&sig.ConvictionScore, &sig.PriceAtSignal, &sig.SignalDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return signals, nil
}

// SetOutcome records the observed price and return at one horizon
func (s *SignalStore) SetOutcome(ctx context.Context, id int64, horizonDays int, price, returnPct float64, asOf time.Time) error {
	priceCol, err := priceColumn(horizonDays)
	if err != nil {
		return err
	}
	returnCol, _ := returnColumn(horizonDays)

	query := fmt.Sprintf(`
		UPDATE tracked_signals
		SET %s = $1, %s = $2, updated_at = $3
		WHERE id = $4
	`, priceCol, returnCol)

	if _, err := s.pool.Exec(ctx, query, price, returnPct, asOf, id); err != nil {
		return fmt.Errorf("failed to update signal outcome: %w", err)
	}
	return nil
}

// RecentSignals lists the most recent tracked signals, optionally
// filtered by verdict
func (s *SignalStore) RecentSignals(ctx context.Context, verdict contracts.Verdict, limit int) ([]contracts.TrackedSignal, error) {
	query := `
		SELECT id, scan_id, symbol, verdict, conviction_score,
		       price_at_signal, signal_date,
		       price_30d, price_60d, price_90d,
		       return_30d, return_60d, return_90d, updated_at
		FROM tracked_signals
	`
	args := []interface{}{}
	if verdict != "" {
		query += ` WHERE verdict = $1 ORDER BY signal_date DESC LIMIT $2`
		args = append(args, verdict, limit)
	} else {
		query += ` ORDER BY signal_date DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	var signals []contracts.TrackedSignal
	for rows.Next() {
		var sig contracts.TrackedSignal
		if err := rows.Scan(
			&sig.ID, &sig.ScanID, &sig.Symbol, &sig.Verdict,
			&sig.ConvictionScore, &sig.PriceAtSignal, &sig.SignalDate,
			&sig.Price30D, &sig.Price60D, &sig.Price90D,
			&sig.Return30D, &sig.Return60D, &sig.Return90D, &sig.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return signals, nil
}

// GoSignalReturns loads realized returns for GO signals at one horizon
func (s *SignalStore) GoSignalReturns(ctx context.Context, horizonDays int) ([]float64, error) {
	col, err := returnColumn(horizonDays)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM tracked_signals
		WHERE verdict = $1 AND %s IS NOT NULL
	`, col, col)

	rows, err := s.pool.Query(ctx, query, contracts.VerdictGo)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal returns: %w", err)
	}
	defer rows.Close()

	var returns []float64
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		returns = append(returns, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return returns, nil
}

func priceColumn(horizonDays int) (string, error) {
	switch horizonDays {
	case 30:
		return "price_30d", nil
	case 60:
		return "price_60d", nil
	case 90:
		return "price_90d", nil
	}
	return "", fmt.Errorf("unsupported outcome horizon: %d days", horizonDays)
}

func returnColumn(horizonDays int) (string, error) {
	switch horizonDays {
	case 30:
		return "return_30d", nil
	case 60:
		return "return_60d", nil
	case 90:
		return "return_90d", nil
	}
	return "", fmt.Errorf("unsupported outcome horizon: %d days", horizonDays)
}
