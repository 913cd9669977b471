package contracts

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// Positions: durable contract terms plus an ephemeral pricing snapshot.
// The snapshot is recomputed on every refresh and is not authoritative
// history; only identity, terms and status persist.
// =============================================================================

// PositionStatus is the position lifecycle state
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
	PositionRolled PositionStatus = "ROLLED"
)

// OptionType distinguishes long calls from long puts
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// Pricing sources, ordered from most to least trustworthy
const (
	PricingSourceLiveQuote   = "live_quote"
	PricingSourceChain       = "chain"
	PricingSourceTheoretical = "theoretical"
)

// PricingSnapshot is the ephemeral mark attached to a position on refresh
type PricingSnapshot struct {
	UnderlyingPrice  *float64  `json:"underlying_price,omitempty"`
	UnderlyingSource string    `json:"underlying_source,omitempty"`
	OptionBid        *float64  `json:"option_bid,omitempty"`
	OptionAsk        *float64  `json:"option_ask,omitempty"`
	OptionLast       *float64  `json:"option_last,omitempty"`
	Mark             *float64  `json:"mark,omitempty"` // per-contract premium used for valuation
	IV               *float64  `json:"iv,omitempty"`
	Greeks           Greeks    `json:"greeks"`
	PricingSource    string    `json:"pricing_source,omitempty"`
	Confidence       Confidence `json:"confidence,omitempty"`
	RefreshedAt      time.Time `json:"refreshed_at"`
}

// Position is a held LEAPS contract
type Position struct {
	ID              string         `json:"id"`
	Symbol          string         `json:"symbol"`
	OptionType      OptionType     `json:"option_type"`
	Strike          float64        `json:"strike"`
	Expiration      time.Time      `json:"expiration"`
	Contracts       int            `json:"contracts"`
	EntryPrice      float64        `json:"entry_price"` // per-contract premium paid
	EntryDate       time.Time      `json:"entry_date"`
	EntryUnderlying float64        `json:"entry_underlying"`
	Status          PositionStatus `json:"status"`
	Notes           string         `json:"notes,omitempty"`

	Snapshot PricingSnapshot `json:"snapshot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContractSymbol renders the OCC option symbol,
// e.g. AAPL261218C00200000.
func (p *Position) ContractSymbol() string {
	side := "C"
	if p.OptionType == OptionPut {
		side = "P"
	}
	return fmt.Sprintf("%s%s%s%08d",
		p.Symbol,
		p.Expiration.Format("060102"),
		side,
		int(math.Round(p.Strike*1000)),
	)
}

// CostBasis is the total premium paid. One contract covers 100 shares.
func (p *Position) CostBasis() float64 {
	return p.EntryPrice * float64(p.Contracts) * 100
}

// MarketValue values the position at the current mark.
// Nil when no mark is available.
func (p *Position) MarketValue() *float64 {
	if p.Snapshot.Mark == nil {
		return nil
	}
	v := *p.Snapshot.Mark * float64(p.Contracts) * 100
	return &v
}

// PnL returns the unrealized profit and its percentage of cost basis.
// Nil when the position cannot be valued.
func (p *Position) PnL() (pnl, pnlPct *float64) {
	mv := p.MarketValue()
	if mv == nil {
		return nil, nil
	}
	basis := p.CostBasis()
	if basis == 0 {
		return nil, nil
	}
	profit := *mv - basis
	pct := profit / basis * 100
	return &profit, &pct
}

// DaysToExpiry counts whole days until expiration
func (p *Position) DaysToExpiry(now time.Time) int {
	return int(p.Expiration.Sub(now).Hours() / 24)
}
