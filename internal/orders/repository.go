package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketRepository stores draft tickets in Postgres
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// SaveAll inserts a batch of draft tickets
func (r *TicketRepository) SaveAll(ctx context.Context, tickets []*DraftTicket) error {
	if len(tickets) == 0 {
		return nil
	}

	query := `
		INSERT INTO draft_tickets (
			id, created_at, symbol, asset_type, contract_symbol,
			strike, expiration, option_type, side, order_type,
			quantity, limit_price, rationale, conviction_score,
			scan_id, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(query,
			t.ID, t.CreatedAt, t.Symbol, t.AssetType, t.ContractSymbol,
			t.Strike, t.Expiration, t.OptionType, t.Side, t.OrderType,
			t.Quantity, t.LimitPrice, t.Rationale, t.ConvictionScore,
			t.ScanID, t.Status, t.Notes,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range tickets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert draft ticket: %w", err)
		}
	}
	return nil
}

// Recent lists the most recently drafted tickets
func (r *TicketRepository) Recent(ctx context.Context, limit int) ([]DraftTicket, error) {
	query := `
		SELECT id, created_at, symbol, asset_type, contract_symbol,
		       strike, expiration, option_type, side, order_type,
		       quantity, limit_price, rationale, conviction_score,
		       scan_id, status, notes
		FROM draft_tickets
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query draft tickets: %w", err)
	}
	defer rows.Close()

	var tickets []DraftTicket
	for rows.Next() {
		var t DraftTicket
		if err := rows.Scan(
			&t.ID, &t.CreatedAt, &t.Symbol, &t.AssetType, &t.ContractSymbol,
			&t.Strike, &t.Expiration, &t.OptionType, &t.Side, &t.OrderType,
			&t.Quantity, &t.LimitPrice, &t.Rationale, &t.ConvictionScore,
			&t.ScanID, &t.Status, &t.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tickets, nil
}
