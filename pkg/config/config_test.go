package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "clickhouse:\n  host: ch.internal\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ClickHouse.Host != "ch.internal" {
		t.Fatalf("host not taken from file: %s", c.ClickHouse.Host)
	}
	if c.Screener.MinAbsRetZ != 2.0 || c.Screener.MinRVol != 2.0 {
		t.Fatalf("threshold defaults not applied: %+v", c.Screener)
	}
	if c.Screener.MaxWorkers != 4 {
		t.Fatalf("max_workers default not applied: %d", c.Screener.MaxWorkers)
	}
	if c.FMP.RateLimitPerMinute != 750 {
		t.Fatalf("rate limit default not applied: %d", c.FMP.RateLimitPerMinute)
	}
	if c.Screener.PriceLookbackDays != 252 || c.Screener.RetLookbackDays != 60 {
		t.Fatalf("lookback defaults not applied: %+v", c.Screener)
	}
}

func TestLoadKeepsExplicitZeroValues(t *testing.T) {
	path := writeConfig(t, "metrics:\n  enabled: false\nscreener:\n  rs_bottom_pct: 0\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Metrics.Enabled {
		t.Fatalf("explicit metrics.enabled: false must not revert to the default")
	}
	if c.Screener.RSBottomPct != 0 {
		t.Fatalf("explicit zero threshold must survive, got %v", c.Screener.RSBottomPct)
	}
	if c.Screener.PriceLookbackDays != 252 {
		t.Fatalf("fields absent from the file still get defaults, got %d", c.Screener.PriceLookbackDays)
	}
}

func TestLoadRejectsBadRunDate(t *testing.T) {
	path := writeConfig(t, "screener:\n  run_date: \"22/08/2025\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected run_date validation error")
	}
}

func TestLoadWithEnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, "fmp:\n  api_key: from-file\n")
	t.Setenv("FMP_API_KEY", "from-env")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.FMP.APIKey != "from-env" {
		t.Fatalf("env override not applied: %s", c.FMP.APIKey)
	}
}

func TestDefaultsValid(t *testing.T) {
	c := Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
