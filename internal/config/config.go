package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

// Config is the engine configuration, loaded from the environment (and an optional .env file).
type Config struct {
	// Matching
	MinConfidence      float64
	MatchWindowDays    int
	AmountTolerancePct decimal.Decimal
	CrossBrand         bool

	// Projection
	HorizonDays    int
	BurnWindowDays int
	Scenarios      []ScenarioConfig

	// Alerts
	CriticalRunwayDays int
	WarningRunwayDays  int
	EarlyWarningDays   int

	// Infrastructure
	DatabaseURL    string
	RedisAddress   string
	DataFile       string
	LogLevel       string
	ServerPort     string
	AllowedOrigins string
}

// ScenarioConfig holds the multipliers applied by one projection scenario.
type ScenarioConfig struct {
	Name              string
	BurnMultiplier    float64
	InflowMultiplier  float64
	OutflowMultiplier float64
	InflowDelayDays   int
}

// Default returns the configuration used when no environment overrides are present.
func Default() *Config {
	return &Config{
		MinConfidence:      50,
		MatchWindowDays:    7,
		AmountTolerancePct: decimal.NewFromInt(5),
		HorizonDays:        90,
		BurnWindowDays:     90,
		Scenarios: []ScenarioConfig{
			{Name: "baseline", BurnMultiplier: 1.0, InflowMultiplier: 1.0, OutflowMultiplier: 1.0},
			{Name: "optimistic", BurnMultiplier: 0.8, InflowMultiplier: 1.1, OutflowMultiplier: 1.0},
			{Name: "pessimistic", BurnMultiplier: 1.2, InflowMultiplier: 0.9, OutflowMultiplier: 1.1, InflowDelayDays: 7},
		},
		CriticalRunwayDays: 30,
		WarningRunwayDays:  90,
		EarlyWarningDays:   30,
		LogLevel:           "info",
		ServerPort:         "8080",
		DataFile:           "data/snapshot.json",
	}
}

// LoadFromEnv starts from Default and applies any environment overrides.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	var errs error

	cfg.MinConfidence = envFloat("MIN_CONFIDENCE", cfg.MinConfidence, &errs)
	cfg.MatchWindowDays = envInt("MATCH_WINDOW_DAYS", cfg.MatchWindowDays, &errs)
	if v := os.Getenv("AMOUNT_TOLERANCE_PCT"); v != "" {
		tol, err := decimal.NewFromString(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("AMOUNT_TOLERANCE_PCT: %w", err))
		} else {
			cfg.AmountTolerancePct = tol
		}
	}
	cfg.CrossBrand = envBool("MATCH_CROSS_BRAND", cfg.CrossBrand, &errs)

	cfg.HorizonDays = envInt("FORECAST_HORIZON_DAYS", cfg.HorizonDays, &errs)
	cfg.BurnWindowDays = envInt("BURN_WINDOW_DAYS", cfg.BurnWindowDays, &errs)
	for i := range cfg.Scenarios {
		prefix := "SCENARIO_" + strings.ToUpper(cfg.Scenarios[i].Name) + "_"
		sc := &cfg.Scenarios[i]
		sc.BurnMultiplier = envFloat(prefix+"BURN", sc.BurnMultiplier, &errs)
		sc.InflowMultiplier = envFloat(prefix+"INFLOW", sc.InflowMultiplier, &errs)
		sc.OutflowMultiplier = envFloat(prefix+"OUTFLOW", sc.OutflowMultiplier, &errs)
		sc.InflowDelayDays = envInt(prefix+"INFLOW_DELAY_DAYS", sc.InflowDelayDays, &errs)
	}

	cfg.CriticalRunwayDays = envInt("CRITICAL_RUNWAY_DAYS", cfg.CriticalRunwayDays, &errs)
	cfg.WarningRunwayDays = envInt("WARNING_RUNWAY_DAYS", cfg.WarningRunwayDays, &errs)
	cfg.EarlyWarningDays = envInt("EARLY_WARNING_DAYS", cfg.EarlyWarningDays, &errs)

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisAddress = os.Getenv("REDIS_ADDRESS")
	cfg.DataFile = envString("DATA_FILE", cfg.DataFile)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.ServerPort = envString("SERVER_PORT", cfg.ServerPort)
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	if errs != nil {
		return nil, errs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the scenario ordering required for monotonic projections.
func (c *Config) Validate() error {
	var errs error
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = multierror.Append(errs, errors.New("min confidence must be between 0 and 100"))
	}
	if c.MatchWindowDays < 0 {
		errs = multierror.Append(errs, errors.New("match window days must not be negative"))
	}
	if c.AmountTolerancePct.IsNegative() || c.AmountTolerancePct.GreaterThan(decimal.NewFromInt(100)) {
		errs = multierror.Append(errs, errors.New("amount tolerance percent must be between 0 and 100"))
	}
	if c.HorizonDays <= 0 {
		errs = multierror.Append(errs, errors.New("horizon days must be positive"))
	}
	if c.BurnWindowDays <= 1 {
		errs = multierror.Append(errs, errors.New("burn window days must be greater than 1"))
	}
	if c.CriticalRunwayDays < 0 || c.WarningRunwayDays < c.CriticalRunwayDays {
		errs = multierror.Append(errs, errors.New("runway thresholds must satisfy 0 <= critical <= warning"))
	}
	if c.EarlyWarningDays < 0 {
		errs = multierror.Append(errs, errors.New("early warning days must not be negative"))
	}
	if err := validateScenarios(c.Scenarios); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

func validateScenarios(scenarios []ScenarioConfig) error {
	byName := make(map[string]ScenarioConfig, len(scenarios))
	var errs error
	for _, s := range scenarios {
		if s.BurnMultiplier < 0 || s.InflowMultiplier < 0 || s.OutflowMultiplier < 0 || s.InflowDelayDays < 0 {
			errs = multierror.Append(errs, fmt.Errorf("scenario %s: multipliers and delay must not be negative", s.Name))
		}
		byName[s.Name] = s
	}
	base, ok := byName["baseline"]
	if !ok {
		return multierror.Append(errs, errors.New("a baseline scenario is required"))
	}
	if opt, ok := byName["optimistic"]; ok && !atLeastAsGood(opt, base) {
		errs = multierror.Append(errs, errors.New("optimistic scenario must not be worse than baseline"))
	}
	if pes, ok := byName["pessimistic"]; ok && !atLeastAsGood(base, pes) {
		errs = multierror.Append(errs, errors.New("pessimistic scenario must not be better than baseline"))
	}
	return errs
}

// atLeastAsGood reports whether a's multipliers can never produce a lower balance than b's.
func atLeastAsGood(a, b ScenarioConfig) bool {
	return a.BurnMultiplier <= b.BurnMultiplier &&
		a.InflowMultiplier >= b.InflowMultiplier &&
		a.OutflowMultiplier <= b.OutflowMultiplier &&
		a.InflowDelayDays <= b.InflowDelayDays
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, errs *error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envFloat(key string, def float64, errs *error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func envBool(key string, def bool, errs *error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
