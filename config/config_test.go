package config

import (
	"os"
	"strings"
	"testing"
)

// writeTempConfig creates a complete configuration file for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

const validConfig = `optionflow:
  name: "TestApp"
  version: "1.0"
channels:
  request_buffer: 4
  result_buffer: 4
engine:
  max_workers: 2
  seed: 42
pricing:
  spot: 101.15
  strike: 98.01
  vol: 0.0991
  rate: 0.01
  start_date: "2022-09-30"
  end_date: "2022-10-28"
  steps: 10
  paths: 1000
  market_value: 3.86
  scopes: ["value", "greeks"]
logging:
  level: "info"
  output: "stdout"
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, validConfig)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Optionflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Optionflow.Name)
	}
	if cfg.Engine.MaxWorkers != 2 {
		t.Errorf("unexpected max workers: %d", cfg.Engine.MaxWorkers)
	}
	if cfg.Engine.Seed != 42 {
		t.Errorf("unexpected seed: %d", cfg.Engine.Seed)
	}
	// Kind defaults to call when omitted.
	if cfg.Pricing.Kind != "call" {
		t.Errorf("unexpected default kind: %s", cfg.Pricing.Kind)
	}
	if cfg.Logging.Format == "" {
		t.Error("logging format should default to a non-empty value")
	}
}

func TestLoadConfigSeedOverride(t *testing.T) {
	path := writeTempConfig(t, validConfig)
	defer os.Remove(path)

	t.Setenv("PRICING_SEED", "777")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Engine.Seed != 777 {
		t.Errorf("PRICING_SEED override ignored: seed = %d", cfg.Engine.Seed)
	}

	t.Setenv("PRICING_SEED", "not-a-number")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed PRICING_SEED, got nil")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			"missing name",
			func(s string) string { return strings.Replace(s, `name: "TestApp"`, `name: ""`, 1) },
			"optionflow.name",
		},
		{
			"zero spot",
			func(s string) string { return strings.Replace(s, "spot: 101.15", "spot: 0", 1) },
			"pricing.spot",
		},
		{
			"negative vol",
			func(s string) string { return strings.Replace(s, "vol: 0.0991", "vol: -0.1", 1) },
			"pricing.vol",
		},
		{
			"one path",
			func(s string) string { return strings.Replace(s, "paths: 1000", "paths: 1", 1) },
			"pricing.paths",
		},
		{
			"dates out of order",
			func(s string) string { return strings.Replace(s, `end_date: "2022-10-28"`, `end_date: "2022-09-30"`, 1) },
			"end_date",
		},
		{
			"unknown scope",
			func(s string) string { return strings.Replace(s, `scopes: ["value", "greeks"]`, `scopes: ["vols"]`, 1) },
			"pricing.scopes",
		},
		{
			"zero workers",
			func(s string) string { return strings.Replace(s, "max_workers: 2", "max_workers: 0", 1) },
			"engine.max_workers",
		},
	}
	for _, tc := range cases {
		path := writeTempConfig(t, tc.mangle(validConfig))
		_, err := LoadConfig(path)
		os.Remove(path)
		if err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestLoadConfigSurfaceNeedsRanges(t *testing.T) {
	content := strings.Replace(validConfig, `scopes: ["value", "greeks"]`, `scopes: ["surface"]`, 1)
	path := writeTempConfig(t, content)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("surface scope without sweep ranges should fail validation")
	}

	withSweep := content + `sweep:
  max_workers: 2
  spot:
    min: 80
    max: 120
    points: 5
  vol:
    min: 0.1
    max: 0.3
    points: 3
`
	path2 := writeTempConfig(t, withSweep)
	defer os.Remove(path2)

	cfg, err := LoadConfig(path2)
	if err != nil {
		t.Fatalf("LoadConfig with sweep ranges failed: %v", err)
	}
	if cfg.Sweep.Spot.Points != 5 || cfg.Sweep.Vol.Points != 3 {
		t.Errorf("unexpected sweep ranges: %+v", cfg.Sweep)
	}
}

func TestMarketParamsFromConfig(t *testing.T) {
	path := writeTempConfig(t, validConfig)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	params, err := cfg.MarketParams()
	if err != nil {
		t.Fatalf("MarketParams failed: %v", err)
	}
	// 2022-09-30 to 2022-10-28 is 28 days.
	want := 28.0 / 365.0
	if diff := params.TTM - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TTM = %v, want %v", params.TTM, want)
	}
	if err := params.Validate(); err != nil {
		t.Errorf("configured params should validate: %v", err)
	}
}
