package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
)

func record(id string, verdicts map[string]contracts.Verdict) *contracts.ScanRecord {
	rec := &contracts.ScanRecord{ID: id}
	for symbol, v := range verdicts {
		rec.Results = append(rec.Results, contracts.ScanResult{
			Symbol:   symbol,
			Decision: contracts.Decision{Symbol: symbol, Verdict: v},
		})
	}
	rec.Tally()
	return rec
}

func TestCompareUpgradeToGo(t *testing.T) {
	previous := record("scan_1", map[string]contracts.Verdict{"AAPL": contracts.VerdictWatch})
	current := record("scan_2", map[string]contracts.Verdict{"AAPL": contracts.VerdictGo})

	cmp := Compare(current, previous)

	assert.Equal(t, []string{"AAPL"}, cmp.NewGoSignals)
	require.Len(t, cmp.Upgraded, 1)
	assert.Equal(t, contracts.VerdictChange{Symbol: "AAPL", From: contracts.VerdictWatch, To: contracts.VerdictGo}, cmp.Upgraded[0])
	assert.Empty(t, cmp.Downgraded)
	assert.Empty(t, cmp.NewSymbols)
	assert.Empty(t, cmp.DroppedSymbols)
}

func TestCompareNoPreviousScan(t *testing.T) {
	current := record("scan_1", map[string]contracts.Verdict{
		"AAPL": contracts.VerdictGo,
		"MSFT": contracts.VerdictWatch,
		"XOM":  contracts.VerdictNoGo,
	})

	cmp := Compare(current, nil)

	assert.Equal(t, []string{"AAPL"}, cmp.NewGoSignals)
	assert.Equal(t, []string{"AAPL", "MSFT", "XOM"}, cmp.NewSymbols)
	assert.Empty(t, cmp.Upgraded)
	assert.Empty(t, cmp.Downgraded)
	assert.Empty(t, cmp.DroppedSymbols)
	assert.Empty(t, cmp.PreviousID)
}

func TestCompareAllTransitions(t *testing.T) {
	previous := record("scan_1", map[string]contracts.Verdict{
		"UP1":  contracts.VerdictNoGo,  // -> WATCH: upgraded, not new-go
		"UP2":  contracts.VerdictNoGo,  // -> GO: upgraded and new-go
		"DN1":  contracts.VerdictGo,    // -> WATCH: downgraded
		"DN2":  contracts.VerdictWatch, // -> NO_GO: downgraded
		"SAME": contracts.VerdictGo,    // unchanged: no entry anywhere
		"GONE": contracts.VerdictWatch, // absent now: dropped
	})
	current := record("scan_2", map[string]contracts.Verdict{
		"UP1":  contracts.VerdictWatch,
		"UP2":  contracts.VerdictGo,
		"DN1":  contracts.VerdictWatch,
		"DN2":  contracts.VerdictNoGo,
		"SAME": contracts.VerdictGo,
		"FRSH": contracts.VerdictGo, // newly observed at GO
	})

	cmp := Compare(current, previous)

	assert.Equal(t, []string{"FRSH", "UP2"}, cmp.NewGoSignals)
	assert.Equal(t, []contracts.VerdictChange{
		{Symbol: "UP1", From: contracts.VerdictNoGo, To: contracts.VerdictWatch},
		{Symbol: "UP2", From: contracts.VerdictNoGo, To: contracts.VerdictGo},
	}, cmp.Upgraded)
	assert.Equal(t, []contracts.VerdictChange{
		{Symbol: "DN1", From: contracts.VerdictGo, To: contracts.VerdictWatch},
		{Symbol: "DN2", From: contracts.VerdictWatch, To: contracts.VerdictNoGo},
	}, cmp.Downgraded)
	assert.Equal(t, []string{"FRSH"}, cmp.NewSymbols)
	assert.Equal(t, []string{"GONE"}, cmp.DroppedSymbols)
	assert.Equal(t, "scan_1", cmp.PreviousID)
}

func TestCompareUnchangedGoIsNotNewGo(t *testing.T) {
	previous := record("scan_1", map[string]contracts.Verdict{"AAPL": contracts.VerdictGo})
	current := record("scan_2", map[string]contracts.Verdict{"AAPL": contracts.VerdictGo})

	cmp := Compare(current, previous)

	assert.Empty(t, cmp.NewGoSignals)
	assert.Empty(t, cmp.Upgraded)
	assert.Empty(t, cmp.Downgraded)
}

// Reversing the comparison direction must mirror upgrades into
// downgrades: a symbol cannot gain ordinal both ways.
func TestCompareDirectionComplementarity(t *testing.T) {
	a := record("scan_a", map[string]contracts.Verdict{
		"S1": contracts.VerdictNoGo,
		"S2": contracts.VerdictWatch,
		"S3": contracts.VerdictGo,
		"S4": contracts.VerdictWatch,
	})
	b := record("scan_b", map[string]contracts.Verdict{
		"S1": contracts.VerdictGo,
		"S2": contracts.VerdictWatch,
		"S3": contracts.VerdictNoGo,
		"S4": contracts.VerdictGo,
	})

	forward := Compare(b, a)
	backward := Compare(a, b)

	require.Len(t, forward.Upgraded, len(backward.Downgraded))
	for i, up := range forward.Upgraded {
		down := backward.Downgraded[i]
		assert.Equal(t, up.Symbol, down.Symbol)
		assert.Equal(t, up.From, down.To)
		assert.Equal(t, up.To, down.From)
	}

	for _, symbol := range forward.NewGoSignals {
		assert.NotContains(t, backward.NewGoSignals, symbol)
	}
}
