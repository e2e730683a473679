// Package sweep prices a call-value surface over the Cartesian product
// of spot and volatility ranges. Cells are fully independent, so the
// grid is fanned out over a worker pool.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"optionflow/logger"
	"optionflow/models"
	"optionflow/pricer"
	"optionflow/simulator"
)

// Sweeper runs surface sweeps with a fixed worker count and base seed.
type Sweeper struct {
	workers  int
	baseSeed uint64
	log      *logger.Log
}

// NewSweeper creates a sweeper. A non-positive worker count falls back
// to GOMAXPROCS. A zero base seed makes every run time-seeded;
// otherwise cell (i, j) draws from baseSeed + i*len(vols) + j, so a
// fixed base seed reproduces the whole surface regardless of how the
// scheduler spreads cells over workers.
func NewSweeper(workers int, baseSeed uint64) *Sweeper {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sweeper{
		workers:  workers,
		baseSeed: baseSeed,
		log:      logger.GetLogger(),
	}
}

// Span builds an inclusive range axis with the given number of points.
func Span(min, max float64, points int) ([]float64, error) {
	if points < 1 {
		return nil, fmt.Errorf("%w: range needs at least 1 point, got %d", models.ErrInvalidInput, points)
	}
	if min > max {
		return nil, fmt.Errorf("%w: range min %v above max %v", models.ErrInvalidInput, min, max)
	}
	if points == 1 {
		return []float64{min}, nil
	}
	return floats.Span(make([]float64, points), min, max), nil
}

type cell struct {
	i, j int
}

// Run prices every (spot, vol) pair with an independent simulate+price
// pipeline and returns the len(spots) x len(vols) call-price matrix.
// Cancellation is honored between cells: a cancelled context stops
// feeding the pool and returns ctx.Err() once in-flight cells drain.
func (s *Sweeper) Run(ctx context.Context, spots, vols []float64, fixed models.MarketParams, grid models.SimGrid) (*models.Surface, error) {
	if len(spots) == 0 || len(vols) == 0 {
		return nil, fmt.Errorf("%w: sweep needs non-empty spot and vol axes", models.ErrInvalidInput)
	}
	for _, spot := range spots {
		probe := fixed
		probe.Spot = spot
		if err := probe.Validate(); err != nil {
			return nil, err
		}
	}
	for _, vol := range vols {
		if vol < 0 {
			return nil, fmt.Errorf("%w: volatility axis must not be negative, got %v", models.ErrInvalidInput, vol)
		}
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	baseSeed := s.baseSeed
	if baseSeed == 0 {
		baseSeed = uint64(time.Now().UnixNano())
	}

	log := s.log.WithComponent("surface_sweep").WithFields(logger.Fields{
		"spots":   len(spots),
		"vols":    len(vols),
		"workers": s.workers,
	})
	log.Info("starting surface sweep")
	start := time.Now()

	surface := models.NewSurface(spots, vols)
	cells := make(chan cell)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range cells {
				params := fixed
				params.Spot = spots[c.i]
				params.Vol = vols[c.j]

				seed := baseSeed + uint64(c.i*len(vols)+c.j)
				src := rand.NewSource(seed)

				batch, err := simulator.Simulate(params, grid, src)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				val, err := pricer.Value(batch.Terminal(), params.Strike, params.Rate, params.TTM, models.Call)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				surface.Prices[c.i][c.j] = val.Price
				logger.IncrementSweepCell(grid.Paths)
			}
		}()
	}

	var cancelled error
feed:
	for i := range spots {
		for j := range vols {
			// Done takes priority over feeding so a cancelled run never
			// races the pool for the next cell.
			select {
			case <-ctx.Done():
				cancelled = ctx.Err()
				break feed
			default:
			}
			select {
			case <-ctx.Done():
				cancelled = ctx.Err()
				break feed
			case cells <- cell{i: i, j: j}:
			}
		}
	}
	close(cells)
	wg.Wait()

	if cancelled != nil {
		log.WithError(cancelled).Warn("surface sweep cancelled")
		return nil, cancelled
	}
	if firstErr != nil {
		return nil, firstErr
	}

	log.WithFields(logger.Fields{
		"cells":       len(spots) * len(vols),
		"duration_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
	}).Info("surface sweep finished")
	return surface, nil
}
