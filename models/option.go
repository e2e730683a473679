package models

import (
	"fmt"
	"time"
)

// DaysPerYear converts a calendar day count into year fractions. The
// pricing convention divides by 365 regardless of leap years.
const DaysPerYear = 365.0

// OptionKind selects the payoff side of a European option.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// Validate rejects anything outside {call, put}.
func (k OptionKind) Validate() error {
	switch k {
	case Call, Put:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedOptionKind, string(k))
}

// MarketParams holds the market inputs of a single pricing request.
type MarketParams struct {
	Spot   float64 `json:"spot"`   // current asset price, > 0
	Strike float64 `json:"strike"` // exercise price, > 0
	Vol    float64 `json:"vol"`    // annualized volatility, >= 0
	Rate   float64 `json:"rate"`   // continuously compounded risk-free rate
	TTM    float64 `json:"ttm"`    // time to maturity in years, > 0
}

// TimeToMaturity converts a start/end date pair into a year fraction
// using the days/365 convention of the pricing model.
func TimeToMaturity(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / DaysPerYear
}

// Validate checks the parameters at the pipeline boundary, before any
// simulation runs. Zero volatility is valid and yields a deterministic
// terminal price.
func (p MarketParams) Validate() error {
	if p.Spot <= 0 {
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidInput, p.Spot)
	}
	if p.Strike <= 0 {
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidInput, p.Strike)
	}
	if p.Vol < 0 {
		return fmt.Errorf("%w: volatility must not be negative, got %v", ErrInvalidInput, p.Vol)
	}
	if p.TTM <= 0 {
		return fmt.Errorf("%w: time to maturity must be positive, got %v", ErrInvalidInput, p.TTM)
	}
	return nil
}

// SimGrid sizes a Monte Carlo run.
type SimGrid struct {
	Steps int `json:"steps"` // time steps per path, >= 1
	Paths int `json:"paths"` // simulated paths, >= 2
}

// Validate rejects grids too small to estimate a standard error. A
// single path would leave the Bessel-corrected sample deviation
// undefined, so the minimum is two paths.
func (g SimGrid) Validate() error {
	if g.Steps < 1 {
		return fmt.Errorf("%w: steps must be at least 1, got %d", ErrInvalidInput, g.Steps)
	}
	if g.Paths < 2 {
		return fmt.Errorf("%w: paths must be at least 2, got %d", ErrInvalidInput, g.Paths)
	}
	return nil
}

// Valuation is a Monte Carlo price estimate together with the standard
// error of the estimator.
type Valuation struct {
	Price    float64 `json:"price"`
	StdError float64 `json:"std_error"`
}

// Band returns the interval spanning n standard errors around the
// price. The estimator's sampling distribution is Normal(price, se),
// so callers use the band edges to report confidence ranges.
func (v Valuation) Band(n float64) (lo, hi float64) {
	return v.Price - n*v.StdError, v.Price + n*v.StdError
}

// Quote pairs the call and put valuations priced from one shared
// terminal batch.
type Quote struct {
	Call Valuation `json:"call"`
	Put  Valuation `json:"put"`
}

// GreeksResult carries the finite-difference sensitivities for one
// option side. Delta is an empirical in-the-money probability, not the
// analytic Black-Scholes delta.
type GreeksResult struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Surface is a dense call-price grid over spot and volatility ranges.
// Prices has len(Spots) rows and len(Vols) columns.
type Surface struct {
	Spots  []float64   `json:"spots"`
	Vols   []float64   `json:"vols"`
	Prices [][]float64 `json:"prices"`
}

// NewSurface allocates a zeroed surface for the given axes.
func NewSurface(spots, vols []float64) *Surface {
	prices := make([][]float64, len(spots))
	for i := range prices {
		prices[i] = make([]float64, len(vols))
	}
	return &Surface{Spots: spots, Vols: vols, Prices: prices}
}

// At returns the call price for the i-th spot and j-th volatility.
func (s *Surface) At(i, j int) float64 {
	return s.Prices[i][j]
}
