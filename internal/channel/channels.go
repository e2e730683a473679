package channel

import (
	"context"
	"sync"
	"time"

	"optionflow/logger"
	"optionflow/models"
)

type ChannelStats struct {
	RequestsSent    int64
	ResultsSent     int64
	RequestsDropped int64
	ResultsDropped  int64
}

// Channels bundles the request and result channels between the
// presentation callers and the pricing engine.
type Channels struct {
	Requests chan models.PricingRequest
	Results  chan models.PricingResult

	stats      ChannelStats
	statsMutex sync.RWMutex
	log        *logger.Log
}

func NewChannels(requestBufferSize, resultBufferSize int) *Channels {
	log := logger.GetLogger()
	c := &Channels{
		Requests: make(chan models.PricingRequest, requestBufferSize),
		Results:  make(chan models.PricingResult, resultBufferSize),
		log:      log,
	}

	log.WithComponent("pricing_channels").WithFields(logger.Fields{
		"request_buffer_size": requestBufferSize,
		"result_buffer_size":  resultBufferSize,
	}).Info("pricing channels initialized")

	return c
}

func (c *Channels) Close() {
	close(c.Requests)
	close(c.Results)
	c.log.WithComponent("pricing_channels").Info("pricing channels closed")
}

func (c *Channels) IncrementRequestsSent() {
	c.statsMutex.Lock()
	c.stats.RequestsSent++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementResultsSent() {
	c.statsMutex.Lock()
	c.stats.ResultsSent++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementRequestsDropped() {
	c.statsMutex.Lock()
	c.stats.RequestsDropped++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementResultsDropped() {
	c.statsMutex.Lock()
	c.stats.ResultsDropped++
	c.statsMutex.Unlock()
}

// SendRequest blocks until the engine accepts the request or the
// context is cancelled. Requests are never silently dropped.
func (c *Channels) SendRequest(ctx context.Context, req models.PricingRequest) bool {
	select {
	case c.Requests <- req:
		c.IncrementRequestsSent()
		logger.RecordChannelMessage("pricing_requests", 1)
		return true
	case <-ctx.Done():
		c.IncrementRequestsDropped()
		return false
	}
}

// SendResult blocks until the consumer accepts the result or the
// context is cancelled; a cancelled send counts as a dropped result.
func (c *Channels) SendResult(ctx context.Context, res models.PricingResult) bool {
	select {
	case c.Results <- res:
		c.IncrementResultsSent()
		logger.RecordChannelMessage("pricing_results", 1)
		return true
	case <-ctx.Done():
		c.IncrementResultsDropped()
		return false
	}
}

func (c *Channels) GetStats() ChannelStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}

// StartMetricsReporting periodically logs queue depths and send/drop
// counters until the context is cancelled.
func (c *Channels) StartMetricsReporting(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.GetStats()
			c.log.WithComponent("pricing_channels").WithFields(logger.Fields{
				"request_queue":    len(c.Requests),
				"request_capacity": cap(c.Requests),
				"result_queue":     len(c.Results),
				"result_capacity":  cap(c.Results),
				"requests_sent":    stats.RequestsSent,
				"results_sent":     stats.ResultsSent,
				"requests_dropped": stats.RequestsDropped,
				"results_dropped":  stats.ResultsDropped,
			}).Debug("channel metrics")
		}
	}
}
