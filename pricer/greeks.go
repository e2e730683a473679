package pricer

import (
	"fmt"

	"optionflow/models"
	"optionflow/simulator"
)

// Greeks computes finite-difference sensitivities for one option side.
// The caller draws one normal batch and every perturbed re-simulation
// reuses it (common random numbers); dropping that reuse would swamp
// the differences in independent sampling noise. Each sensitivity costs
// one extra full Steps-by-Paths pass, five passes for the full report.
//
// Delta is the fraction of paths finishing in the money, an empirical
// probability rather than the analytic Black-Scholes delta. Gamma is a
// central difference of that proxy and is shared by call and put.
func Greeks(p models.MarketParams, g models.SimGrid, z simulator.NormalBatch, kind models.OptionKind) (models.GreeksResult, error) {
	if err := kind.Validate(); err != nil {
		return models.GreeksResult{}, err
	}
	if err := p.Validate(); err != nil {
		return models.GreeksResult{}, err
	}
	if err := g.Validate(); err != nil {
		return models.GreeksResult{}, err
	}

	base, err := terminalFor(p, g, z)
	if err != nil {
		return models.GreeksResult{}, err
	}
	baseVal, err := Value(base, p.Strike, p.Rate, p.TTM, kind)
	if err != nil {
		return models.GreeksResult{}, err
	}

	var out models.GreeksResult
	out.Delta = itmFraction(base, p.Strike, kind)

	// Gamma: shift every draw by +-1 so the diffusion term moves by one
	// per-step volatility unit along the same paths.
	epsSpot := 0.01 * p.Spot
	up, err := terminalFor(p, g, z.Shifted(1))
	if err != nil {
		return models.GreeksResult{}, err
	}
	down, err := terminalFor(p, g, z.Shifted(-1))
	if err != nil {
		return models.GreeksResult{}, err
	}
	out.Gamma = (itmFraction(up, p.Strike, kind) - itmFraction(down, p.Strike, kind)) / (2 * epsSpot)

	// Vega: forward difference with a volatility-scaled bump so the
	// relative perturbation stays 1% at any spot level.
	epsVol := 0.01 * p.Vol
	if p.Vol == 0 {
		epsVol = 0.01
	}
	bumped := p
	bumped.Vol += epsVol
	vegaVal, err := valueFor(bumped, g, z, kind)
	if err != nil {
		return models.GreeksResult{}, err
	}
	out.Vega = (vegaVal.Price - baseVal.Price) / epsVol

	// Theta: one time step closer to expiry, same draws, drift and
	// diffusion rescaled through the shorter maturity.
	dt := p.TTM / float64(g.Steps)
	shrunk := p
	shrunk.TTM = p.TTM - dt
	thetaVal, err := valueFor(shrunk, g, z, kind)
	if err != nil {
		return models.GreeksResult{}, err
	}
	out.Theta = (thetaVal.Price - baseVal.Price) / dt

	// Rho: forward difference on the rate, reusing the spot-scaled
	// epsilon so the two first-order bumps stay comparable.
	raised := p
	raised.Rate += epsSpot
	rhoVal, err := valueFor(raised, g, z, kind)
	if err != nil {
		return models.GreeksResult{}, err
	}
	out.Rho = (rhoVal.Price - baseVal.Price) / epsSpot

	return out, nil
}

// terminalFor rebuilds paths for perturbed parameters on a fixed normal
// batch and returns the terminal prices.
func terminalFor(p models.MarketParams, g models.SimGrid, z simulator.NormalBatch) ([]float64, error) {
	batch, err := simulator.Build(p, g, z)
	if err != nil {
		return nil, fmt.Errorf("greeks re-simulation: %w", err)
	}
	return batch.Terminal(), nil
}

// valueFor prices one side on a fixed normal batch under perturbed
// parameters, discounting with the perturbed rate and maturity.
func valueFor(p models.MarketParams, g models.SimGrid, z simulator.NormalBatch, kind models.OptionKind) (models.Valuation, error) {
	terminal, err := terminalFor(p, g, z)
	if err != nil {
		return models.Valuation{}, err
	}
	return Value(terminal, p.Strike, p.Rate, p.TTM, kind)
}

// itmFraction counts the paths finishing in the money. Ties at the
// strike count for neither side.
func itmFraction(terminal []float64, strike float64, kind models.OptionKind) float64 {
	hits := 0
	for _, st := range terminal {
		switch kind {
		case models.Call:
			if st > strike {
				hits++
			}
		case models.Put:
			if st < strike {
				hits++
			}
		}
	}
	return float64(hits) / float64(len(terminal))
}
