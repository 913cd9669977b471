package orders

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/leapscope/internal/contracts"
)

// =============================================================================
// Draft order tickets. These are review material for manual broker
// entry: nothing in this package submits, routes, or executes anything.
// =============================================================================

// Side is the order direction on a ticket
type Side string

const (
	SideBuyToOpen   Side = "BUY_TO_OPEN"
	SideSellToClose Side = "SELL_TO_CLOSE"
)

// OrderType is the order style. Only limit orders are drafted; a market
// order on a long-dated contract gives away the whole spread.
type OrderType string

const OrderLimit OrderType = "LIMIT"

// StatusDraft is the only status a ticket ever has
const StatusDraft = "DRAFT"

// maxTicketReasons caps how much decision context a ticket carries
const maxTicketReasons = 5

// DraftTicket is a pre-filled order for the operator to review and, if
// they choose, enter manually with their broker.
type DraftTicket struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Symbol    string              `json:"symbol"`
	AssetType contracts.AssetType `json:"asset_type"`

	ContractSymbol string               `json:"contract_symbol"`
	Strike         float64              `json:"strike"`
	Expiration     time.Time            `json:"expiration"`
	OptionType     contracts.OptionType `json:"option_type"`

	Side       Side      `json:"side"`
	OrderType  OrderType `json:"order_type"`
	Quantity   int       `json:"quantity"`
	LimitPrice *float64  `json:"limit_price,omitempty"`

	Rationale       string   `json:"rationale"`
	ConvictionScore float64  `json:"conviction_score"`
	Reasons         []string `json:"reasons,omitempty"`

	ScanID string `json:"scan_id,omitempty"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// FromScanResult drafts a BUY_TO_OPEN ticket from the top option
// candidate of a GO or WATCH result. Returns nil when the verdict does
// not warrant one or the result carries no candidates.
func FromScanResult(res *contracts.ScanResult, quantity int, now time.Time) *DraftTicket {
	if res == nil {
		return nil
	}
	verdict := res.Decision.Verdict
	if verdict != contracts.VerdictGo && verdict != contracts.VerdictWatch {
		return nil
	}
	if res.Options == nil || len(res.Options.Candidates) == 0 {
		return nil
	}
	if quantity < 1 {
		quantity = 1
	}

	cand := res.Options.Candidates[0]
	reasons := res.Decision.Reasons
	if len(reasons) > maxTicketReasons {
		reasons = reasons[:maxTicketReasons]
	}

	return &DraftTicket{
		ID:              uuid.New().String(),
		CreatedAt:       now,
		Symbol:          res.Symbol,
		AssetType:       res.AssetType,
		ContractSymbol:  cand.ContractSymbol,
		Strike:          cand.Strike,
		Expiration:      cand.Expiration,
		OptionType:      contracts.OptionCall,
		Side:            SideBuyToOpen,
		OrderType:       OrderLimit,
		Quantity:        quantity,
		LimitPrice:      limitPrice(cand),
		Rationale:       fmt.Sprintf("%s signal with %s conviction", verdict, res.Conviction.Band),
		ConvictionScore: res.Conviction.Score,
		Reasons:         reasons,
		Status:          StatusDraft,
	}
}

// FromScanRecord drafts one ticket per actionable result, in the
// record's conviction order
func FromScanRecord(rec *contracts.ScanRecord, quantity int, now time.Time) []*DraftTicket {
	if rec == nil {
		return nil
	}
	var tickets []*DraftTicket
	for i := range rec.Results {
		t := FromScanResult(&rec.Results[i], quantity, now)
		if t == nil {
			continue
		}
		t.ScanID = rec.ID
		tickets = append(tickets, t)
	}
	return tickets
}

// limitPrice suggests a conservative entry: just under the midpoint
// when both sides are quoted, otherwise whatever single print exists.
// Nil when the candidate carries no usable price at all.
func limitPrice(cand contracts.OptionCandidate) *float64 {
	var price float64
	switch {
	case cand.Bid > 0 && cand.Ask > 0:
		price = math.Round((cand.Bid+cand.Ask)/2*0.98*100) / 100
	case cand.Last > 0:
		price = cand.Last
	case cand.Bid > 0:
		price = cand.Bid
	case cand.Ask > 0:
		price = cand.Ask
	default:
		return nil
	}
	return &price
}

// Display formats a ticket for terminal review
func (t *DraftTicket) Display() string {
	limit := "N/A"
	if t.LimitPrice != nil {
		limit = fmt.Sprintf("$%.2f", *t.LimitPrice)
	}

	var b strings.Builder
	divider := strings.Repeat("-", 50)
	fmt.Fprintln(&b, divider)
	fmt.Fprintln(&b, "DRAFT ORDER TICKET (not for execution)")
	fmt.Fprintln(&b, divider)
	fmt.Fprintf(&b, "Symbol:      %s (%s)\n", t.Symbol, t.AssetType)
	fmt.Fprintf(&b, "Contract:    %s\n", t.ContractSymbol)
	fmt.Fprintf(&b, "             %.2f %s exp %s\n", t.Strike, t.OptionType, t.Expiration.Format("2006-01-02"))
	fmt.Fprintf(&b, "Action:      %s %s\n", t.Side, t.OrderType)
	fmt.Fprintf(&b, "Quantity:    %d contract(s)\n", t.Quantity)
	fmt.Fprintf(&b, "Limit Price: %s\n", limit)
	fmt.Fprintf(&b, "Conviction:  %.1f\n", t.ConvictionScore)
	fmt.Fprintf(&b, "Rationale:   %s\n", t.Rationale)
	fmt.Fprintln(&b, divider)
	fmt.Fprintln(&b, "Review and enter manually with your broker.")
	return b.String()
}
