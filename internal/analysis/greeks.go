package analysis

import (
	"math"

	"github.com/wonny/leapscope/internal/contracts"
)

// =============================================================================
// Black-Scholes pricing and greeks for European calls.
// Used as the theoretical fallback when no market quote is available.
// =============================================================================

// BlackScholesInput holds the pricing parameters. TimeToExpiry is in
// years, Volatility and RiskFreeRate are annualized decimals.
type BlackScholesInput struct {
	Spot         float64
	Strike       float64
	TimeToExpiry float64
	Volatility   float64
	RiskFreeRate float64
}

// BlackScholesResult is the theoretical price with its greeks.
// Theta is per calendar day, vega and rho are per 1% move.
type BlackScholesResult struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// valid reports whether the inputs admit a meaningful price
func (in BlackScholesInput) valid() bool {
	return in.Spot > 0 && in.Strike > 0 && in.TimeToExpiry > 0 && in.Volatility > 0
}

// normCDF is the standard normal cumulative distribution
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal density
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// BlackScholesCall prices a European call. Invalid inputs (expired or
// non-positive parameters) return the zero result rather than NaN.
func BlackScholesCall(in BlackScholesInput) BlackScholesResult {
	if !in.valid() {
		return BlackScholesResult{}
	}

	sqrtT := math.Sqrt(in.TimeToExpiry)
	d1 := (math.Log(in.Spot/in.Strike) + (in.RiskFreeRate+in.Volatility*in.Volatility/2)*in.TimeToExpiry) / (in.Volatility * sqrtT)
	d2 := d1 - in.Volatility*sqrtT

	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	discount := math.Exp(-in.RiskFreeRate * in.TimeToExpiry)

	price := in.Spot*nd1 - in.Strike*discount*nd2

	thetaAnnual := -in.Spot*normPDF(d1)*in.Volatility/(2*sqrtT) -
		in.RiskFreeRate*in.Strike*discount*nd2

	return BlackScholesResult{
		Price: price,
		Delta: nd1,
		Gamma: normPDF(d1) / (in.Spot * in.Volatility * sqrtT),
		Theta: thetaAnnual / 365,
		Vega:  in.Spot * sqrtT * normPDF(d1) * 0.01,
		Rho:   in.Strike * in.TimeToExpiry * discount * nd2 * 0.01,
	}
}

// Greeks converts the result into the shared contracts shape
func (r BlackScholesResult) Greeks() contracts.Greeks {
	delta, gamma, theta, vega, rho := r.Delta, r.Gamma, r.Theta, r.Vega, r.Rho
	return contracts.Greeks{
		Delta: &delta,
		Gamma: &gamma,
		Theta: &theta,
		Vega:  &vega,
		Rho:   &rho,
	}
}
