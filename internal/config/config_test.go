package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flipper.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const minimalYAML = `
instance:
  id: flipper-1
gateway:
  url: ws://localhost:9001/session
`

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.RestURL != DefaultRestURL {
		t.Errorf("API.RestURL = %q, want default", cfg.API.RestURL)
	}
	if cfg.Timing.RefreshCycle != DefaultRefreshCycle {
		t.Errorf("Timing.RefreshCycle = %v, want %v", cfg.Timing.RefreshCycle, DefaultRefreshCycle)
	}
	if !cfg.Flips.Purchasing {
		t.Error("Flips.Purchasing should default to true")
	}
	if !cfg.Normalize.ExcludeReforges || !cfg.Normalize.ExcludeStars ||
		!cfg.Normalize.ExcludeSpecials || !cfg.Normalize.ExcludePetLevel {
		t.Error("token exclusion flags should default to true")
	}
	if cfg.Normalize.ExcludeRarities || cfg.Normalize.ExcludeRaritiesForPets {
		t.Error("rarity exclusion flags should default to false")
	}
	if cfg.Flips.StockMin != DefaultStockMin {
		t.Errorf("Flips.StockMin = %d, want %d", cfg.Flips.StockMin, DefaultStockMin)
	}
	if cfg.Database.Enabled() {
		t.Error("database mirror should be disabled without a host")
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	path := writeTempConfig(t, minimalYAML+`
flips:
  purchasing: false
normalize:
  exclude_stars: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Flips.Purchasing {
		t.Error("explicit purchasing: false should override the default")
	}
	if cfg.Normalize.ExcludeStars {
		t.Error("explicit exclude_stars: false should override the default")
	}
	// Untouched siblings keep their defaults.
	if !cfg.Normalize.ExcludeReforges {
		t.Error("exclude_reforges should keep its default")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("FLIPPER_DB_PASSWORD", "s3cret")

	path := writeTempConfig(t, minimalYAML+`
database:
  host: localhost
  name: skyflip
  user: flipper
  password: ${FLIPPER_DB_PASSWORD}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("Database.Password = %q, want expanded env value", cfg.Database.Password)
	}
	if !cfg.Database.Enabled() {
		t.Error("database mirror should be enabled when host is set")
	}
}

func TestLoadAndValidate_MissingInstanceID(t *testing.T) {
	path := writeTempConfig(t, `
gateway:
  url: ws://localhost:9001/session
`)

	_, err := LoadAndValidate(path)
	if err == nil || !strings.Contains(err.Error(), "instance.id") {
		t.Errorf("expected instance.id error, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BotConfig)
		wantSub string
	}{
		{"missing gateway url", func(c *BotConfig) { c.Gateway.URL = "" }, "gateway.url"},
		{"undercut over 100", func(c *BotConfig) { c.Flips.ListUnderSecondLBin = 120 }, "list_under_2nd_lbin"},
		{"stock min below 2", func(c *BotConfig) { c.Flips.StockMin = 1 }, "stock_min"},
		{"zero relist attempts", func(c *BotConfig) { c.Claims.RelistAttempts = 0 }, "relist_attempts"},
		{"zero retention", func(c *BotConfig) { c.Store.Retention = 0 }, "retention"},
		{"mirror without user", func(c *BotConfig) {
			c.Database.Host = "localhost"
			c.Database.Name = "skyflip"
			c.Database.Password = "pw"
		}, "database.user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Instance.ID = "flipper-1"
			cfg.Gateway.URL = "ws://localhost:9001/session"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantSub)
			}
		})
	}
}

func TestUnderbidFraction(t *testing.T) {
	f := FlipConfig{ListUnderSecondLBin: 15}
	if got := f.UnderbidFraction(); got != 0.15 {
		t.Errorf("UnderbidFraction() = %v, want 0.15", got)
	}
}

func TestLoad_DurationSyntax(t *testing.T) {
	path := writeTempConfig(t, minimalYAML+`
timing:
  refresh_cycle: 90s
claims:
  claim_interval: 10m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timing.RefreshCycle != 90*time.Second {
		t.Errorf("RefreshCycle = %v, want 90s", cfg.Timing.RefreshCycle)
	}
	if cfg.Claims.ClaimInterval != 10*time.Minute {
		t.Errorf("ClaimInterval = %v, want 10m", cfg.Claims.ClaimInterval)
	}
}
