// priceeuro prices a single European option from command line flags,
// printing the valuation, the standard-error band and optionally the
// finite-difference Greeks.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"optionflow/logger"
	"optionflow/models"
	"optionflow/pricer"
	"optionflow/simulator"
)

func main() {
	log := logger.GetLogger()

	var (
		kind        = flag.String("kind", "call", "Option kind: call or put")
		spot        = flag.Float64("spot", 150.0, "Current asset price (S)")
		strike      = flag.Float64("strike", 155.0, "Strike price (K)")
		vol         = flag.Float64("vol", 0.2, "Annualized volatility as a decimal")
		rate        = flag.Float64("rate", 0.05, "Risk-free rate as a decimal")
		steps       = flag.Int("steps", 252, "Number of time steps (N)")
		paths       = flag.Int("paths", 10000, "Number of simulated paths (M)")
		marketValue = flag.Float64("market", 0, "Observed market price for comparison (0 = none)")
		startDate   = flag.String("start", "", "Valuation date, YYYY-MM-DD (default today)")
		endDate     = flag.String("end", "", "Expiry date, YYYY-MM-DD")
		seed        = flag.Uint64("seed", 0, "Random seed (0 = time-seeded)")
		withGreeks  = flag.Bool("greeks", false, "Also compute finite-difference Greeks")
	)
	flag.Parse()

	ttm, err := maturity(*startDate, *endDate)
	if err != nil {
		log.WithError(err).Error("invalid date pair")
		os.Exit(1)
	}

	params := models.MarketParams{Spot: *spot, Strike: *strike, Vol: *vol, Rate: *rate, TTM: ttm}
	grid := models.SimGrid{Steps: *steps, Paths: *paths}
	optKind := models.OptionKind(*kind)

	if err := optKind.Validate(); err != nil {
		log.WithError(err).Error("invalid option kind")
		os.Exit(1)
	}
	if err := params.Validate(); err != nil {
		log.WithError(err).Error("invalid market parameters")
		os.Exit(1)
	}
	if err := grid.Validate(); err != nil {
		log.WithError(err).Error("invalid simulation grid")
		os.Exit(1)
	}

	fmt.Printf("Time to maturity (T) is: %.4f years\n", ttm)

	src := simulator.NewSource(*seed)
	z := simulator.DrawNormals(grid, src)
	batch, err := simulator.Build(params, grid, z)
	if err != nil {
		log.WithError(err).Error("simulation failed")
		os.Exit(1)
	}

	val, err := pricer.Value(batch.Terminal(), params.Strike, params.Rate, params.TTM, optKind)
	if err != nil {
		log.WithError(err).Error("valuation failed")
		os.Exit(1)
	}

	fmt.Printf("%s value is $%.2f with SE +/- $%.2f\n", title(optKind), val.Price, val.StdError)
	lo, hi := val.Band(3)
	fmt.Printf("3 SE band: [$%.2f, $%.2f]\n", lo, hi)
	if *marketValue > 0 {
		fmt.Printf("Market value: $%.2f (difference $%+.2f)\n", *marketValue, val.Price-*marketValue)
	}

	if *withGreeks {
		greeks, err := pricer.Greeks(params, grid, z, optKind)
		if err != nil {
			log.WithError(err).Error("greeks computation failed")
			os.Exit(1)
		}
		fmt.Printf("delta: %.6f (in-the-money fraction)\n", greeks.Delta)
		fmt.Printf("gamma: %.6f\n", greeks.Gamma)
		fmt.Printf("vega:  %.6f\n", greeks.Vega)
		fmt.Printf("theta: %.6f\n", greeks.Theta)
		fmt.Printf("rho:   %.6f\n", greeks.Rho)
	}
}

// maturity derives the year fraction from the date pair; an empty start
// means today, an empty end means one year out.
func maturity(start, end string) (float64, error) {
	const layout = "2006-01-02"

	startAt := time.Now().Truncate(24 * time.Hour)
	if start != "" {
		parsed, err := time.Parse(layout, start)
		if err != nil {
			return 0, fmt.Errorf("start date: %w", err)
		}
		startAt = parsed
	}

	endAt := startAt.AddDate(1, 0, 0)
	if end != "" {
		parsed, err := time.Parse(layout, end)
		if err != nil {
			return 0, fmt.Errorf("end date: %w", err)
		}
		endAt = parsed
	}

	return models.TimeToMaturity(startAt, endAt), nil
}

func title(kind models.OptionKind) string {
	if kind == models.Put {
		return "Put"
	}
	return "Call"
}
