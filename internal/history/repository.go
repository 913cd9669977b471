package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/leapscope/internal/contracts"
)

// NewScanID builds a sortable scan id from the scan time plus a short
// random suffix to disambiguate scans within the same second.
func NewScanID(ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return ts.UTC().Format("20060102_150405") + "_" + suffix
}

// ScanStore persists scan records. Writes are one insert per scan so a
// reader can never observe a partially written record.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a new scan store
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// SaveScan appends a scan record. The record is never updated afterwards.
func (s *ScanStore) SaveScan(ctx context.Context, rec *contracts.ScanRecord) error {
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal scan results: %w", err)
	}

	query := `
		INSERT INTO scans (
			id, scanned_at, config_fingerprint,
			symbol_count, go_count, watch_count, no_go_count, results
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.Timestamp, rec.ConfigFingerprint,
		rec.SymbolCount, rec.GoCount, rec.WatchCount, rec.NoGoCount, results,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	return nil
}

const scanColumns = `
	id, scanned_at, config_fingerprint,
	symbol_count, go_count, watch_count, no_go_count, results
`

// GetScan loads one scan by id, or nil when it does not exist
func (s *ScanStore) GetScan(ctx context.Context, id string) (*contracts.ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = $1`
	return s.scanRow(s.pool.QueryRow(ctx, query, id))
}

// LatestScan loads the most recent scan, or nil when none exist
func (s *ScanStore) LatestScan(ctx context.Context) (*contracts.ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scans ORDER BY scanned_at DESC LIMIT 1`
	return s.scanRow(s.pool.QueryRow(ctx, query))
}

// PreviousScan loads the scan immediately before the given one.
// With an empty id it returns the second most recent scan.
func (s *ScanStore) PreviousScan(ctx context.Context, beforeID string) (*contracts.ScanRecord, error) {
	if beforeID == "" {
		query := `SELECT ` + scanColumns + ` FROM scans ORDER BY scanned_at DESC LIMIT 1 OFFSET 1`
		return s.scanRow(s.pool.QueryRow(ctx, query))
	}

	query := `
		SELECT ` + scanColumns + `
		FROM scans
		WHERE scanned_at < (SELECT scanned_at FROM scans WHERE id = $1)
		ORDER BY scanned_at DESC
		LIMIT 1
	`
	return s.scanRow(s.pool.QueryRow(ctx, query, beforeID))
}

// RecentScans lists recent scan summaries without loading results
func (s *ScanStore) RecentScans(ctx context.Context, limit int) ([]contracts.ScanRecord, error) {
	query := `
		SELECT id, scanned_at, config_fingerprint,
		       symbol_count, go_count, watch_count, no_go_count
		FROM scans
		ORDER BY scanned_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scans: %w", err)
	}
	defer rows.Close()

	var records []contracts.ScanRecord
	for rows.Next() {
		var rec contracts.ScanRecord
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.ConfigFingerprint,
			&rec.SymbolCount, &rec.GoCount, &rec.WatchCount, &rec.NoGoCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// CleanupOlderThan removes scans past the retention window and returns
// how many were deleted
func (s *ScanStore) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE scanned_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old scans: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *ScanStore) scanRow(row pgx.Row) (*contracts.ScanRecord, error) {
	var rec contracts.ScanRecord
	var results []byte

	err := row.Scan(
		&rec.ID, &rec.Timestamp, &rec.ConfigFingerprint,
		&rec.SymbolCount, &rec.GoCount, &rec.WatchCount, &rec.NoGoCount, &results,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if len(results) > 0 {
		if err := json.Unmarshal(results, &rec.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan results: %w", err)
		}
	}
	return &rec, nil
}
