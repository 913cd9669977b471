package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlackScholesCallATM(t *testing.T) {
	// S=100, K=100, T=1y, sigma=20%, r=5%: canonical textbook case
	res := BlackScholesCall(BlackScholesInput{
		Spot:         100,
		Strike:       100,
		TimeToExpiry: 1.0,
		Volatility:   0.20,
		RiskFreeRate: 0.05,
	})

	assert.InDelta(t, 10.45, res.Price, 0.01)
	assert.InDelta(t, 0.6368, res.Delta, 0.001)
	assert.InDelta(t, 0.0188, res.Gamma, 0.0005)
	assert.InDelta(t, 0.3752, res.Vega, 0.001)
	assert.Less(t, res.Theta, 0.0)
	assert.Greater(t, res.Rho, 0.0)
}

func TestBlackScholesDeepITM(t *testing.T) {
	res := BlackScholesCall(BlackScholesInput{
		Spot:         200,
		Strike:       100,
		TimeToExpiry: 1.0,
		Volatility:   0.25,
		RiskFreeRate: 0.045,
	})

	assert.Greater(t, res.Delta, 0.95)
	// Deep ITM call is worth at least intrinsic value
	assert.Greater(t, res.Price, 100.0)
}

func TestBlackScholesInvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		in   BlackScholesInput
	}{
		{"expired", BlackScholesInput{Spot: 100, Strike: 100, TimeToExpiry: 0, Volatility: 0.2}},
		{"negative time", BlackScholesInput{Spot: 100, Strike: 100, TimeToExpiry: -0.5, Volatility: 0.2}},
		{"zero vol", BlackScholesInput{Spot: 100, Strike: 100, TimeToExpiry: 1, Volatility: 0}},
		{"zero spot", BlackScholesInput{Spot: 0, Strike: 100, TimeToExpiry: 1, Volatility: 0.2}},
		{"zero strike", BlackScholesInput{Spot: 100, Strike: 0, TimeToExpiry: 1, Volatility: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := BlackScholesCall(tt.in)
			assert.Equal(t, BlackScholesResult{}, res)
		})
	}
}

func TestNormCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normCDF(0), 1e-9)
	assert.InDelta(t, 0.8413, normCDF(1), 0.0001)
	assert.InDelta(t, 0.1587, normCDF(-1), 0.0001)
}

func TestGreeksConversion(t *testing.T) {
	res := BlackScholesCall(BlackScholesInput{
		Spot: 100, Strike: 100, TimeToExpiry: 1, Volatility: 0.2, RiskFreeRate: 0.05,
	})
	g := res.Greeks()

	if assert.NotNil(t, g.Delta) {
		assert.True(t, math.Abs(*g.Delta-res.Delta) < 1e-12)
	}
	assert.NotNil(t, g.Gamma)
	assert.NotNil(t, g.Theta)
	assert.NotNil(t, g.Vega)
	assert.NotNil(t, g.Rho)
}
