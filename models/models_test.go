package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestOptionKindValidate(t *testing.T) {
	if err := Call.Validate(); err != nil {
		t.Errorf("call should validate: %v", err)
	}
	if err := Put.Validate(); err != nil {
		t.Errorf("put should validate: %v", err)
	}
	if err := OptionKind("binary").Validate(); !errors.Is(err, ErrUnsupportedOptionKind) {
		t.Errorf("expected ErrUnsupportedOptionKind, got %v", err)
	}
}

func TestScopeValidate(t *testing.T) {
	for _, s := range []Scope{ScopeValue, ScopeGreeks, ScopeSurface} {
		if err := s.Validate(); err != nil {
			t.Errorf("%s should validate: %v", s, err)
		}
	}
	if err := Scope("histogram").Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTimeToMaturity(t *testing.T) {
	start := time.Date(2022, 9, 30, 0, 0, 0, 0, time.UTC)

	if got := TimeToMaturity(start, start.AddDate(0, 0, 365)); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("365 days = %v years, want 1.0", got)
	}
	if got := TimeToMaturity(start, start.AddDate(0, 0, 28)); math.Abs(got-28.0/365.0) > 1e-9 {
		t.Errorf("28 days = %v years, want %v", got, 28.0/365.0)
	}
	if got := TimeToMaturity(start, start); got != 0 {
		t.Errorf("same-day maturity = %v, want 0", got)
	}
}

func TestMarketParamsValidate(t *testing.T) {
	base := MarketParams{Spot: 100, Strike: 100, Vol: 0.2, Rate: 0.03, TTM: 1}
	if err := base.Validate(); err != nil {
		t.Fatalf("base params should validate: %v", err)
	}

	zeroVol := base
	zeroVol.Vol = 0
	if err := zeroVol.Validate(); err != nil {
		t.Errorf("zero volatility is valid: %v", err)
	}

	negRate := base
	negRate.Rate = -0.01
	if err := negRate.Validate(); err != nil {
		t.Errorf("negative rate is valid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*MarketParams)
	}{
		{"zero spot", func(p *MarketParams) { p.Spot = 0 }},
		{"negative strike", func(p *MarketParams) { p.Strike = -1 }},
		{"negative vol", func(p *MarketParams) { p.Vol = -0.01 }},
		{"zero maturity", func(p *MarketParams) { p.TTM = 0 }},
		{"negative maturity", func(p *MarketParams) { p.TTM = -0.5 }},
	}
	for _, tc := range cases {
		p := base
		tc.mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestSimGridValidate(t *testing.T) {
	if err := (SimGrid{Steps: 1, Paths: 2}).Validate(); err != nil {
		t.Errorf("minimal grid should validate: %v", err)
	}
	if err := (SimGrid{Steps: 0, Paths: 100}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero steps: expected ErrInvalidInput, got %v", err)
	}
	if err := (SimGrid{Steps: 10, Paths: 1}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("single path: expected ErrInvalidInput, got %v", err)
	}
}

func TestValuationBand(t *testing.T) {
	v := Valuation{Price: 10, StdError: 0.5}
	lo, hi := v.Band(3)
	if lo != 8.5 || hi != 11.5 {
		t.Errorf("3 SE band = [%v, %v], want [8.5, 11.5]", lo, hi)
	}
}

func TestSurface(t *testing.T) {
	spots := []float64{90, 100}
	vols := []float64{0.1, 0.2, 0.3}
	s := NewSurface(spots, vols)

	if len(s.Prices) != 2 {
		t.Fatalf("surface has %d rows, want 2", len(s.Prices))
	}
	for i, row := range s.Prices {
		if len(row) != 3 {
			t.Fatalf("row %d has %d cols, want 3", i, len(row))
		}
	}

	s.Prices[1][2] = 4.2
	if s.At(1, 2) != 4.2 {
		t.Errorf("At(1, 2) = %v, want 4.2", s.At(1, 2))
	}
}

func TestPricingRequestValidate(t *testing.T) {
	base := PricingRequest{
		Scope:  ScopeValue,
		Kind:   Call,
		Params: MarketParams{Spot: 100, Strike: 100, Vol: 0.2, Rate: 0.03, TTM: 1},
		Grid:   SimGrid{Steps: 10, Paths: 100},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("value request should validate: %v", err)
	}

	// Value scope tolerates a missing kind; both sides are priced anyway.
	noKind := base
	noKind.Kind = ""
	if err := noKind.Validate(); err != nil {
		t.Errorf("value request without kind should validate: %v", err)
	}

	greeks := base
	greeks.Scope = ScopeGreeks
	greeks.Kind = ""
	if err := greeks.Validate(); !errors.Is(err, ErrUnsupportedOptionKind) {
		t.Errorf("greeks request without kind: expected ErrUnsupportedOptionKind, got %v", err)
	}

	surface := base
	surface.Scope = ScopeSurface
	if err := surface.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("surface request without axes: expected ErrInvalidInput, got %v", err)
	}
	surface.Spots = []float64{90, 110}
	surface.Vols = []float64{0.1, 0.3}
	if err := surface.Validate(); err != nil {
		t.Errorf("surface request with axes should validate: %v", err)
	}
}
