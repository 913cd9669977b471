package history

import (
	"sort"

	"github.com/wonny/leapscope/internal/contracts"
)

// =============================================================================
// Scan-to-scan diff. Verdicts compare by ordinal (NO_GO < WATCH < GO),
// so any ordinal increase is an upgrade and any decrease a downgrade.
// =============================================================================

// Compare diffs the current scan against the previous one. With no
// previous scan, every GO is a new signal and every symbol is new.
// Output lists are sorted by symbol for stable presentation.
func Compare(current, previous *contracts.ScanRecord) *contracts.ScanComparison {
	cmp := &contracts.ScanComparison{CurrentID: current.ID}

	currMap := current.VerdictBySymbol()

	if previous == nil {
		for symbol, verdict := range currMap {
			cmp.NewSymbols = append(cmp.NewSymbols, symbol)
			if verdict == contracts.VerdictGo {
				cmp.NewGoSignals = append(cmp.NewGoSignals, symbol)
			}
		}
		sortComparison(cmp)
		return cmp
	}

	cmp.PreviousID = previous.ID
	prevMap := previous.VerdictBySymbol()

	for symbol, verdict := range currMap {
		prevVerdict, seen := prevMap[symbol]
		if !seen {
			cmp.NewSymbols = append(cmp.NewSymbols, symbol)
			if verdict == contracts.VerdictGo {
				cmp.NewGoSignals = append(cmp.NewGoSignals, symbol)
			}
			continue
		}

		switch {
		case verdict.Ordinal() > prevVerdict.Ordinal():
			cmp.Upgraded = append(cmp.Upgraded, contracts.VerdictChange{
				Symbol: symbol, From: prevVerdict, To: verdict,
			})
			if verdict == contracts.VerdictGo {
				cmp.NewGoSignals = append(cmp.NewGoSignals, symbol)
			}
		case verdict.Ordinal() < prevVerdict.Ordinal():
			cmp.Downgraded = append(cmp.Downgraded, contracts.VerdictChange{
				Symbol: symbol, From: prevVerdict, To: verdict,
			})
		}
	}

	for symbol := range prevMap {
		if _, ok := currMap[symbol]; !ok {
			cmp.DroppedSymbols = append(cmp.DroppedSymbols, symbol)
		}
	}

	sortComparison(cmp)
	return cmp
}

func sortComparison(cmp *contracts.ScanComparison) {
	sort.Strings(cmp.NewGoSignals)
	sort.Strings(cmp.NewSymbols)
	sort.Strings(cmp.DroppedSymbols)
	sort.Slice(cmp.Upgraded, func(i, j int) bool { return cmp.Upgraded[i].Symbol < cmp.Upgraded[j].Symbol })
	sort.Slice(cmp.Downgraded, func(i, j int) bool { return cmp.Downgraded[i].Symbol < cmp.Downgraded[j].Symbol })
}
