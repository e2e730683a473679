package models

import (
	"fmt"
	"time"
)

// Scope selects which subset of outputs a pricing request wants. The
// presentation variants all reuse the same pipeline and differ only in
// scope.
type Scope string

const (
	ScopeValue   Scope = "value"   // call/put valuation only
	ScopeGreeks  Scope = "greeks"  // valuation plus finite-difference sensitivities
	ScopeSurface Scope = "surface" // call-price grid over spot and volatility ranges
)

// Validate rejects unknown scopes.
func (s Scope) Validate() error {
	switch s {
	case ScopeValue, ScopeGreeks, ScopeSurface:
		return nil
	}
	return fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, string(s))
}

// PricingRequest is one unit of work for the pricing engine. Every
// request is priced independently with fresh state; nothing is cached
// between requests.
type PricingRequest struct {
	ID     string       `json:"id"`
	Scope  Scope        `json:"scope"`
	Kind   OptionKind   `json:"kind"` // greeks side; valuation always prices both
	Params MarketParams `json:"params"`
	Grid   SimGrid      `json:"grid"`

	// Seed fixes the random source for reproducible runs. Zero means
	// time-seeded draws.
	Seed uint64 `json:"seed"`

	// MarketValue is an observed option price carried through for
	// comparison in the result log. Zero means no comparison.
	MarketValue float64 `json:"market_value"`

	// Spots and Vols are the sweep axes, used only when Scope is
	// ScopeSurface.
	Spots []float64 `json:"spots,omitempty"`
	Vols  []float64 `json:"vols,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// Validate checks everything the request's scope will need.
func (r PricingRequest) Validate() error {
	if err := r.Scope.Validate(); err != nil {
		return err
	}
	if err := r.Params.Validate(); err != nil {
		return err
	}
	if err := r.Grid.Validate(); err != nil {
		return err
	}
	switch r.Scope {
	case ScopeGreeks:
		if err := r.Kind.Validate(); err != nil {
			return err
		}
	case ScopeSurface:
		if len(r.Spots) == 0 || len(r.Vols) == 0 {
			return fmt.Errorf("%w: surface request needs spot and vol axes", ErrInvalidInput)
		}
	}
	return nil
}

// PricingResult is the engine's answer to one request. Exactly the
// fields implied by the request scope are populated; Err carries any
// boundary or pipeline failure.
type PricingResult struct {
	RequestID string        `json:"request_id"`
	Scope     Scope         `json:"scope"`
	Quote     *Quote        `json:"quote,omitempty"`
	Greeks    *GreeksResult `json:"greeks,omitempty"`
	Surface   *Surface      `json:"surface,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Err       error         `json:"-"`
}
