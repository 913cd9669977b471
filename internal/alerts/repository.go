package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/leapscope/internal/contracts"
)

// AlertRepository persists alerts in PostgreSQL
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

var _ AlertStore = (*AlertRepository)(nil)

// Save inserts a new alert
func (r *AlertRepository) Save(ctx context.Context, alert *contracts.Alert) error {
	query := `
		INSERT INTO alerts (
			id, alert_type, severity, symbol, title, message,
			scan_id, acknowledged, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		alert.ID, alert.Type, alert.Severity, alert.Symbol, alert.Title,
		alert.Message, alert.ScanID, alert.Acknowledged, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Recent lists the most recent alerts, optionally unacknowledged only
func (r *AlertRepository) Recent(ctx context.Context, limit int, unacknowledgedOnly bool) ([]contracts.Alert, error) {
	query := `
		SELECT id, alert_type, severity, symbol, title, message,
		       scan_id, acknowledged, created_at
		FROM alerts
	`
	if unacknowledgedOnly {
		query += ` WHERE acknowledged = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []contracts.Alert
	for rows.Next() {
		var a contracts.Alert
		if err := rows.Scan(
			&a.ID, &a.Type, &a.Severity, &a.Symbol, &a.Title, &a.Message,
			&a.ScanID, &a.Acknowledged, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return alerts, nil
}

// Acknowledge marks one alert acknowledged
func (r *AlertRepository) Acknowledge(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE alerts SET acknowledged = TRUE, acknowledged_at = $1 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

// AcknowledgeAll marks every open alert acknowledged, returning the count
func (r *AlertRepository) AcknowledgeAll(ctx context.Context, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE alerts SET acknowledged = TRUE, acknowledged_at = $1 WHERE acknowledged = FALSE`,
		at,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to acknowledge alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}
