package contracts

import "time"

// ScanResult is the full evaluation of one symbol in one scan
type ScanResult struct {
	Symbol       string             `json:"symbol"`
	AssetType    AssetType          `json:"asset_type"`
	CurrentPrice *float64           `json:"current_price,omitempty"`
	PriceSource  string             `json:"price_source,omitempty"`
	EarningsDate *time.Time         `json:"earnings_date,omitempty"`
	Decision     Decision           `json:"decision"`
	Conviction   ConvictionResult   `json:"conviction"`
	Technical    *TechnicalReport   `json:"technical,omitempty"`
	Fundamentals *FundamentalReport `json:"fundamentals,omitempty"`
	Options      *OptionsReport     `json:"options,omitempty"`
}

// ScanRecord is one complete scan run. Append-only, identified by an
// opaque id; results keep the order the scanner produced.
type ScanRecord struct {
	ID                string       `json:"id"`
	Timestamp         time.Time    `json:"timestamp"`
	ConfigFingerprint string       `json:"config_fingerprint"`
	SymbolCount       int          `json:"symbol_count"`
	GoCount           int          `json:"go_count"`
	WatchCount        int          `json:"watch_count"`
	NoGoCount         int          `json:"no_go_count"`
	Results           []ScanResult `json:"results"`
}

// VerdictBySymbol indexes the record's verdicts for diffing
func (r *ScanRecord) VerdictBySymbol() map[string]Verdict {
	out := make(map[string]Verdict, len(r.Results))
	for _, res := range r.Results {
		out[res.Symbol] = res.Decision.Verdict
	}
	return out
}

// Tally recomputes the verdict counters from the results
func (r *ScanRecord) Tally() {
	r.SymbolCount = len(r.Results)
	r.GoCount, r.WatchCount, r.NoGoCount = 0, 0, 0
	for _, res := range r.Results {
		switch res.Decision.Verdict {
		case VerdictGo:
			r.GoCount++
		case VerdictWatch:
			r.WatchCount++
		default:
			r.NoGoCount++
		}
	}
}

// VerdictChange records one symbol moving between verdicts across scans
type VerdictChange struct {
	Symbol string  `json:"symbol"`
	From   Verdict `json:"from"`
	To     Verdict `json:"to"`
}

// ScanComparison is the diff between two scans
type ScanComparison struct {
	CurrentID  string `json:"current_id"`
	PreviousID string `json:"previous_id,omitempty"`

	// Symbols newly at GO, whether newly observed or upgraded
	NewGoSignals []string `json:"new_go_signals"`

	Upgraded   []VerdictChange `json:"upgraded"`
	Downgraded []VerdictChange `json:"downgraded"`

	NewSymbols     []string `json:"new_symbols"`
	DroppedSymbols []string `json:"dropped_symbols"`
}
