package config_test

import (
	"testing"

	"pnl-engine/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("MIN_CONFIDENCE", "70")
	t.Setenv("MATCH_WINDOW_DAYS", "14")
	t.Setenv("AMOUNT_TOLERANCE_PCT", "2.5")
	t.Setenv("MATCH_CROSS_BRAND", "true")
	t.Setenv("FORECAST_HORIZON_DAYS", "120")
	t.Setenv("SCENARIO_PESSIMISTIC_BURN", "1.5")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 70.0, cfg.MinConfidence)
	assert.Equal(t, 14, cfg.MatchWindowDays)
	assert.True(t, cfg.AmountTolerancePct.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, cfg.CrossBrand)
	assert.Equal(t, 120, cfg.HorizonDays)
	assert.Equal(t, 1.5, cfg.Scenarios[2].BurnMultiplier)
}

func TestLoadFromEnv_BadValues(t *testing.T) {
	t.Setenv("MATCH_WINDOW_DAYS", "a week")
	t.Setenv("MIN_CONFIDENCE", "lots")

	_, err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATCH_WINDOW_DAYS")
	assert.Contains(t, err.Error(), "MIN_CONFIDENCE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"confidence out of range", func(c *config.Config) { c.MinConfidence = 120 }, "min confidence"},
		{"zero horizon", func(c *config.Config) { c.HorizonDays = 0 }, "horizon"},
		{"thresholds inverted", func(c *config.Config) { c.WarningRunwayDays = 10 }, "runway thresholds"},
		{"optimistic worse than baseline", func(c *config.Config) { c.Scenarios[1].BurnMultiplier = 1.3 }, "optimistic"},
		{"pessimistic better than baseline", func(c *config.Config) { c.Scenarios[2].InflowMultiplier = 1.2 }, "pessimistic"},
		{"missing baseline", func(c *config.Config) { c.Scenarios = c.Scenarios[1:] }, "baseline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
