// Package pricer turns simulated terminal prices into option values,
// Monte Carlo standard errors and finite-difference sensitivities.
package pricer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"optionflow/models"
)

// Payoffs applies the payoff clamp element-wise over the terminal
// prices: max(0, ST-K) for calls, max(0, K-ST) for puts. Every entry is
// non-negative by construction.
func Payoffs(terminal []float64, strike float64, kind models.OptionKind) ([]float64, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	out := make([]float64, len(terminal))
	switch kind {
	case models.Call:
		for i, st := range terminal {
			out[i] = math.Max(0, st-strike)
		}
	case models.Put:
		for i, st := range terminal {
			out[i] = math.Max(0, strike-st)
		}
	}
	return out, nil
}

// Value prices one option side from a terminal batch: the discounted
// mean payoff plus the Monte Carlo standard error of the estimate.
//
// The standard error divides the undiscounted payoff's Bessel-corrected
// sample deviation by sqrt(M). It matches the standard error of the
// discounted mean only when r*T is small; the simplification is part of
// the estimator's contract, not an oversight to correct here.
func Value(terminal []float64, strike, rate, ttm float64, kind models.OptionKind) (models.Valuation, error) {
	m := len(terminal)
	if m < 2 {
		return models.Valuation{}, fmt.Errorf("%w: standard error needs at least 2 paths, got %d", models.ErrInvalidInput, m)
	}
	payoffs, err := Payoffs(terminal, strike, kind)
	if err != nil {
		return models.Valuation{}, err
	}

	price := math.Exp(-rate*ttm) * stat.Mean(payoffs, nil)
	se := stat.StdDev(payoffs, nil) / math.Sqrt(float64(m))
	return models.Valuation{Price: price, StdError: se}, nil
}

// ValueBoth prices call and put from the same terminal batch. Sharing
// the batch keeps the two estimates on common sampling noise, so
// put-call parity holds within a few standard errors.
func ValueBoth(terminal []float64, strike, rate, ttm float64) (models.Quote, error) {
	call, err := Value(terminal, strike, rate, ttm, models.Call)
	if err != nil {
		return models.Quote{}, err
	}
	put, err := Value(terminal, strike, rate, ttm, models.Put)
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{Call: call, Put: put}, nil
}
