// Package simulator draws risk-neutral geometric Brownian motion price
// paths in log space. The discretization is exact: log increments are
// i.i.d. Gaussian, so the step count changes only the path resolution,
// never the distribution of the terminal price.
package simulator

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"optionflow/models"
)

// NormalBatch is a Steps-by-Paths matrix of independent standard normal
// draws. Greeks re-simulations reuse one batch across perturbed runs so
// finite differences measure the bump instead of fresh sampling noise.
type NormalBatch [][]float64

// NewSource returns a seedable random source. A zero seed falls back to
// the wall clock for non-reproducible runs.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewSource(seed)
}

// DrawNormals fills a batch with standard normal variates from src.
func DrawNormals(grid models.SimGrid, src rand.Source) NormalBatch {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	z := make(NormalBatch, grid.Steps)
	for i := range z {
		row := make([]float64, grid.Paths)
		for j := range row {
			row[j] = normal.Rand()
		}
		z[i] = row
	}
	return z
}

// Shifted returns a copy of the batch with c added to every draw. The
// gamma bump shifts the diffusion term by whole per-step volatility
// units this way, scaling the existing paths instead of re-drawing.
func (z NormalBatch) Shifted(c float64) NormalBatch {
	out := make(NormalBatch, len(z))
	for i, row := range z {
		shifted := make([]float64, len(row))
		for j, v := range row {
			shifted[j] = v + c
		}
		out[i] = shifted
	}
	return out
}

// PathBatch holds simulated log-price levels. Row 0 is ln(spot)
// broadcast across all paths; each later row adds one GBM increment per
// path, so rows within a column form a cumulative sum.
type PathBatch struct {
	Steps     int
	Paths     int
	LogPrices [][]float64 // Steps+1 rows, Paths columns
}

// Build accumulates the batch from precomputed normal draws. The
// per-step drift is (r - vol^2/2)*T/N and the per-step diffusion scale
// is vol*sqrt(T/N).
func Build(p models.MarketParams, g models.SimGrid, z NormalBatch) (*PathBatch, error) {
	if len(z) != g.Steps {
		return nil, fmt.Errorf("%w: normal batch has %d step rows, grid wants %d", models.ErrInvalidInput, len(z), g.Steps)
	}
	for i, row := range z {
		if len(row) != g.Paths {
			return nil, fmt.Errorf("%w: normal batch row %d has %d paths, grid wants %d", models.ErrInvalidInput, i, len(row), g.Paths)
		}
	}

	dt := p.TTM / float64(g.Steps)
	nudt := (p.Rate - 0.5*p.Vol*p.Vol) * dt
	volsdt := p.Vol * math.Sqrt(dt)
	lnS := math.Log(p.Spot)

	rows := make([][]float64, g.Steps+1)
	first := make([]float64, g.Paths)
	for j := range first {
		first[j] = lnS
	}
	rows[0] = first

	prev := first
	for i := 1; i <= g.Steps; i++ {
		row := make([]float64, g.Paths)
		zi := z[i-1]
		for j := 0; j < g.Paths; j++ {
			row[j] = prev[j] + nudt + volsdt*zi[j]
		}
		rows[i] = row
		prev = row
	}

	return &PathBatch{Steps: g.Steps, Paths: g.Paths, LogPrices: rows}, nil
}

// Simulate validates the inputs, draws a fresh normal batch from src
// and builds the paths. Output is a pure function of the inputs and the
// consumed draws.
func Simulate(p models.MarketParams, g models.SimGrid, src rand.Source) (*PathBatch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return Build(p, g, DrawNormals(g, src))
}

// Terminal exponentiates the last row of the batch, giving the
// simulated asset prices at maturity. All values are positive by
// construction.
func (b *PathBatch) Terminal() []float64 {
	last := b.LogPrices[b.Steps]
	out := make([]float64, len(last))
	for j, v := range last {
		out[j] = math.Exp(v)
	}
	return out
}
