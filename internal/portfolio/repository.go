package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/leapscope/internal/contracts"
)

// PositionRepository is the pgx-backed PositionStore
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

var _ PositionStore = (*PositionRepository)(nil)

// Insert stores a new position
func (r *PositionRepository) Insert(ctx context.Context, pos *contracts.Position) error {
	snapshot, err := json.Marshal(pos.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO positions (
			id, symbol, option_type, strike, expiration, contracts,
			entry_price, entry_date, entry_underlying, status, notes,
			snapshot, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.pool.Exec(ctx, query,
		pos.ID, pos.Symbol, pos.OptionType, pos.Strike, pos.Expiration, pos.Contracts,
		pos.EntryPrice, pos.EntryDate, pos.EntryUnderlying, pos.Status, pos.Notes,
		snapshot, pos.CreatedAt, pos.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

// Update rewrites a position's mutable fields: status, notes, snapshot
func (r *PositionRepository) Update(ctx context.Context, pos *contracts.Position) error {
	snapshot, err := json.Marshal(pos.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		UPDATE positions
		SET status = $1, notes = $2, snapshot = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := r.pool.Exec(ctx, query, pos.Status, pos.Notes, snapshot, pos.UpdatedAt, pos.ID)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %s not found", pos.ID)
	}
	return nil
}

const positionColumns = `
	id, symbol, option_type, strike, expiration, contracts,
	entry_price, entry_date, entry_underlying, status, notes,
	snapshot, created_at, updated_at
`

// Get loads one position by id, or nil when it does not exist
func (r *PositionRepository) Get(ctx context.Context, id string) (*contracts.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	pos, err := scanPosition(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pos, nil
}

// List returns positions ordered by entry date; an empty status means all
func (r *PositionRepository) List(ctx context.Context, status contracts.PositionStatus) ([]contracts.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY entry_date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []contracts.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return positions, nil
}

// Delete removes a position permanently
func (r *PositionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %s not found", id)
	}
	return nil
}

func scanPosition(row pgx.Row) (*contracts.Position, error) {
	var pos contracts.Position
	var snapshot []byte

	err := row.Scan(
		&pos.ID, &pos.Symbol, &pos.OptionType, &pos.Strike, &pos.Expiration, &pos.Contracts,
		&pos.EntryPrice, &pos.EntryDate, &pos.EntryUnderlying, &pos.Status, &pos.Notes,
		&snapshot, &pos.CreatedAt, &pos.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &pos.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
	}
	return &pos, nil
}
