package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"optionflow/config"
	"optionflow/engine"
	"optionflow/internal/channel"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/sweep"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Optionflow.Name,
		"version":     cfg.Optionflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting optionflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel, log)

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	channels := channel.NewChannels(cfg.Channels.RequestBuffer, cfg.Channels.ResultBuffer)
	defer channels.Close()

	go channels.StartMetricsReporting(ctx)

	requests, err := buildRequests(cfg)
	if err != nil {
		log.WithError(err).Error("failed to build pricing requests")
		os.Exit(1)
	}

	eng := engine.NewEngine(cfg, channels)
	if err := eng.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start pricing engine")
		os.Exit(1)
	}

	go func() {
		for _, req := range requests {
			if !channels.SendRequest(ctx, req) {
				return
			}
		}
	}()

	received := 0
	for received < len(requests) {
		select {
		case <-ctx.Done():
			eng.Stop()
			return
		case res := <-channels.Results:
			logResult(log, cfg, res)
			received++
		}
	}

	cancel()
	eng.Stop()
	log.Info("optionflow finished")
}

func handleShutdown(cancel context.CancelFunc, log *logger.Log) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	cancel()
}

// buildRequests turns the configured scopes into one pricing request
// each, sharing the market parameters and grid.
func buildRequests(cfg *config.Config) ([]models.PricingRequest, error) {
	params, err := cfg.MarketParams()
	if err != nil {
		return nil, err
	}
	grid := cfg.SimGrid()

	var spots, vols []float64
	for _, scope := range cfg.Scopes() {
		if scope != models.ScopeSurface {
			continue
		}
		spots, err = sweep.Span(cfg.Sweep.Spot.Min, cfg.Sweep.Spot.Max, cfg.Sweep.Spot.Points)
		if err != nil {
			return nil, err
		}
		vols, err = sweep.Span(cfg.Sweep.Vol.Min, cfg.Sweep.Vol.Max, cfg.Sweep.Vol.Points)
		if err != nil {
			return nil, err
		}
		break
	}

	requests := make([]models.PricingRequest, 0, len(cfg.Scopes()))
	for _, scope := range cfg.Scopes() {
		req := models.PricingRequest{
			Scope:       scope,
			Kind:        models.OptionKind(cfg.Pricing.Kind),
			Params:      params,
			Grid:        grid,
			Seed:        cfg.Engine.Seed,
			MarketValue: cfg.Pricing.MarketValue,
			SubmittedAt: time.Now(),
		}
		if scope == models.ScopeSurface {
			req.Spots = spots
			req.Vols = vols
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// logResult reports the plain numeric outputs; rendering beyond that is
// the presentation layer's job.
func logResult(log *logger.Log, cfg *config.Config, res models.PricingResult) {
	entry := log.WithComponent("results").WithFields(logger.Fields{
		"request_id":  res.RequestID,
		"scope":       string(res.Scope),
		"duration_ms": float64(res.Elapsed.Nanoseconds()) / 1e6,
	})
	if res.Err != nil {
		entry.WithError(res.Err).Error("pricing failed")
		return
	}

	switch res.Scope {
	case models.ScopeValue, models.ScopeGreeks:
		q := res.Quote
		callLo, callHi := q.Call.Band(3)
		putLo, putHi := q.Put.Band(3)
		fields := logger.Fields{
			"call_price":     q.Call.Price,
			"call_std_error": q.Call.StdError,
			"call_band_low":  callLo,
			"call_band_high": callHi,
			"put_price":      q.Put.Price,
			"put_std_error":  q.Put.StdError,
			"put_band_low":   putLo,
			"put_band_high":  putHi,
		}
		// The estimator's sampling distribution is Normal(price, se);
		// the mass above the observed market value is the comparison
		// the presentation layer shades in its density plot.
		if mv := cfg.Pricing.MarketValue; mv > 0 && q.Call.StdError > 0 {
			dist := distuv.Normal{Mu: q.Call.Price, Sigma: q.Call.StdError}
			fields["market_value"] = mv
			fields["prob_call_above_market"] = 1 - dist.CDF(mv)
		}
		entry.WithFields(fields).Info("valuation")

		if res.Greeks != nil {
			entry.WithFields(logger.Fields{
				"kind":  cfg.Pricing.Kind,
				"delta": res.Greeks.Delta,
				"gamma": res.Greeks.Gamma,
				"vega":  res.Greeks.Vega,
				"theta": res.Greeks.Theta,
				"rho":   res.Greeks.Rho,
			}).Info("greeks")
		}

	case models.ScopeSurface:
		s := res.Surface
		lo := s.Prices[0][0]
		hi := s.Prices[0][0]
		for _, row := range s.Prices {
			if m := floats.Min(row); m < lo {
				lo = m
			}
			if m := floats.Max(row); m > hi {
				hi = m
			}
		}
		entry.WithFields(logger.Fields{
			"rows":      len(s.Spots),
			"cols":      len(s.Vols),
			"min_price": lo,
			"max_price": hi,
		}).Info("surface")
	}
}
