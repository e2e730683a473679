// Package engine drives the pricing pipeline. It consumes pricing
// requests from a channel, runs the simulate and estimate stages for
// the requested scope and publishes one result per request.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "optionflow/config"
	"optionflow/internal/channel"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/pricer"
	"optionflow/simulator"
	"optionflow/sweep"
)

// Engine prices requests with a pool of workers. Every request is
// priced from fresh state; the only shared inputs are the read-only
// configuration and the channels.
type Engine struct {
	config   *appconfig.Config
	channels *channel.Channels
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	log      *logger.Log

	handled int64
	failed  int64
}

// NewEngine creates a new engine instance.
func NewEngine(cfg *appconfig.Config, channels *channel.Channels) *Engine {
	return &Engine{
		config:   cfg,
		channels: channels,
		wg:       &sync.WaitGroup{},
		log:      logger.GetLogger(),
	}
}

// start launches the worker pool.
func (e *Engine) start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("pricing engine already running")
	}
	e.running = true
	e.ctx = ctx
	e.mu.Unlock()

	log := e.log.WithComponent("pricing_engine").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting pricing engine")

	workers := e.config.Engine.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}

	e.wg.Add(1)
	go e.metricsReporter(ctx)

	log.Info("pricing engine started successfully")
	return nil
}

// stop signals the workers and waits for in-flight requests.
func (e *Engine) stop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	e.log.WithComponent("pricing_engine").Info("stopping pricing engine")
	e.wg.Wait()
	e.log.WithComponent("pricing_engine").Info("pricing engine stopped")
}

// Start exposes the start method for external callers.
func (e *Engine) Start(ctx context.Context) error { return e.start(ctx) }

// Stop exposes the stop method for external callers.
func (e *Engine) Stop() { e.stop() }

func (e *Engine) worker(id int) {
	defer e.wg.Done()

	log := e.log.WithComponent("pricing_engine").WithFields(logger.Fields{"worker_id": id})
	for {
		select {
		case <-e.ctx.Done():
			return
		case req, ok := <-e.channels.Requests:
			if !ok {
				return
			}
			res := e.handle(req)
			e.count(res)
			if res.Err != nil {
				log.WithError(res.Err).WithFields(logger.Fields{
					"request_id": res.RequestID,
					"scope":      string(res.Scope),
				}).Error("pricing request failed")
			}
			if !e.channels.SendResult(e.ctx, res) {
				log.WithFields(logger.Fields{"request_id": res.RequestID}).Warn("result dropped during shutdown")
				return
			}
		}
	}
}

// handle runs one request end to end and never panics the worker: all
// boundary failures come back as the result's Err.
func (e *Engine) handle(req models.PricingRequest) models.PricingResult {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	res := models.PricingResult{RequestID: req.ID, Scope: req.Scope}
	if err := req.Validate(); err != nil {
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}

	src := simulator.NewSource(req.Seed)

	switch req.Scope {
	case models.ScopeValue:
		batch, err := simulator.Simulate(req.Params, req.Grid, src)
		if err != nil {
			res.Err = err
			break
		}
		quote, err := pricer.ValueBoth(batch.Terminal(), req.Params.Strike, req.Params.Rate, req.Params.TTM)
		if err != nil {
			res.Err = err
			break
		}
		res.Quote = &quote
		logger.IncrementValuation(req.Grid.Paths)

	case models.ScopeGreeks:
		// One normal batch feeds the valuation and every perturbed
		// re-simulation of the Greeks (common random numbers).
		z := simulator.DrawNormals(req.Grid, src)
		batch, err := simulator.Build(req.Params, req.Grid, z)
		if err != nil {
			res.Err = err
			break
		}
		quote, err := pricer.ValueBoth(batch.Terminal(), req.Params.Strike, req.Params.Rate, req.Params.TTM)
		if err != nil {
			res.Err = err
			break
		}
		greeks, err := pricer.Greeks(req.Params, req.Grid, z, req.Kind)
		if err != nil {
			res.Err = err
			break
		}
		res.Quote = &quote
		res.Greeks = &greeks
		logger.IncrementGreeks(req.Grid.Paths)

	case models.ScopeSurface:
		sweeper := sweep.NewSweeper(e.config.Sweep.MaxWorkers, req.Seed)
		surface, err := sweeper.Run(e.ctx, req.Spots, req.Vols, req.Params, req.Grid)
		if err != nil {
			res.Err = err
			break
		}
		res.Surface = surface
	}

	res.Elapsed = time.Since(start)
	if res.Err == nil {
		logger.LogPerformanceEntry(
			e.log.WithFields(logger.Fields{"request_id": req.ID, "scope": string(req.Scope)}),
			"pricing_engine", "price_request", res.Elapsed, nil,
		)
	}
	return res
}

func (e *Engine) count(res models.PricingResult) {
	e.mu.Lock()
	e.handled++
	if res.Err != nil {
		e.failed++
	}
	e.mu.Unlock()
}

func (e *Engine) metricsReporter(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.RLock()
			handled, failed := e.handled, e.failed
			e.mu.RUnlock()
			e.log.WithComponent("pricing_engine").WithFields(logger.Fields{
				"requests_handled": handled,
				"requests_failed":  failed,
				"request_queue":    len(e.channels.Requests),
			}).Debug("engine metrics")
		}
	}
}
