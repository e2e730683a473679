package simulator

import (
	"math"
	"testing"

	"optionflow/models"
)

func testParams() models.MarketParams {
	return models.MarketParams{Spot: 100, Strike: 100, Vol: 0.2, Rate: 0.03, TTM: 1.0}
}

func TestSimulateShape(t *testing.T) {
	grid := models.SimGrid{Steps: 10, Paths: 50}
	batch, err := Simulate(testParams(), grid, NewSource(7))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if len(batch.LogPrices) != grid.Steps+1 {
		t.Fatalf("expected %d rows, got %d", grid.Steps+1, len(batch.LogPrices))
	}
	for i, row := range batch.LogPrices {
		if len(row) != grid.Paths {
			t.Fatalf("row %d has %d paths, want %d", i, len(row), grid.Paths)
		}
	}

	lnS := math.Log(100.0)
	for j, v := range batch.LogPrices[0] {
		if v != lnS {
			t.Fatalf("row 0 col %d = %v, want ln(spot) = %v", j, v, lnS)
		}
	}
}

func TestSimulateZeroVolIsDeterministic(t *testing.T) {
	p := testParams()
	p.Vol = 0
	grid := models.SimGrid{Steps: 252, Paths: 10}

	batch, err := Simulate(p, grid, NewSource(1))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	want := p.Spot * math.Exp(p.Rate*p.TTM)
	for j, st := range batch.Terminal() {
		if math.Abs(st-want) > 1e-9 {
			t.Fatalf("path %d terminal = %v, want %v", j, st, want)
		}
	}
}

func TestSimulateSeedReproducible(t *testing.T) {
	grid := models.SimGrid{Steps: 20, Paths: 100}

	a, err := Simulate(testParams(), grid, NewSource(42))
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := Simulate(testParams(), grid, NewSource(42))
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	ta, tb := a.Terminal(), b.Terminal()
	for j := range ta {
		if ta[j] != tb[j] {
			t.Fatalf("path %d diverged: %v vs %v", j, ta[j], tb[j])
		}
	}
}

func TestSimulateRejectsInvalidInputs(t *testing.T) {
	grid := models.SimGrid{Steps: 10, Paths: 10}

	cases := []struct {
		name   string
		mutate func(*models.MarketParams, *models.SimGrid)
	}{
		{"zero spot", func(p *models.MarketParams, _ *models.SimGrid) { p.Spot = 0 }},
		{"negative strike", func(p *models.MarketParams, _ *models.SimGrid) { p.Strike = -5 }},
		{"negative vol", func(p *models.MarketParams, _ *models.SimGrid) { p.Vol = -0.1 }},
		{"zero maturity", func(p *models.MarketParams, _ *models.SimGrid) { p.TTM = 0 }},
		{"zero steps", func(_ *models.MarketParams, g *models.SimGrid) { g.Steps = 0 }},
		{"one path", func(_ *models.MarketParams, g *models.SimGrid) { g.Paths = 1 }},
	}
	for _, tc := range cases {
		p, g := testParams(), grid
		tc.mutate(&p, &g)
		if _, err := Simulate(p, g, NewSource(1)); err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}
}

func TestBuildRejectsMismatchedBatch(t *testing.T) {
	grid := models.SimGrid{Steps: 5, Paths: 4}
	z := DrawNormals(models.SimGrid{Steps: 3, Paths: 4}, NewSource(1))
	if _, err := Build(testParams(), grid, z); err == nil {
		t.Fatal("expected error for wrong step count, got nil")
	}

	z = DrawNormals(models.SimGrid{Steps: 5, Paths: 2}, NewSource(1))
	if _, err := Build(testParams(), grid, z); err == nil {
		t.Fatal("expected error for wrong path count, got nil")
	}
}

func TestShifted(t *testing.T) {
	z := NormalBatch{{1, -1}, {0, 2}}
	up := z.Shifted(0.5)

	want := [][]float64{{1.5, -0.5}, {0.5, 2.5}}
	for i := range want {
		for j := range want[i] {
			if up[i][j] != want[i][j] {
				t.Fatalf("shifted[%d][%d] = %v, want %v", i, j, up[i][j], want[i][j])
			}
		}
	}
	// Original batch stays untouched.
	if z[0][0] != 1 || z[1][1] != 2 {
		t.Fatal("Shifted mutated the source batch")
	}
}
