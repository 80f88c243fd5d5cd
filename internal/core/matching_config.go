package core

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

// Signal weights. They sum to 100 so the confidence reads as a percentage.
const (
	AmountWeight = 50.0
	DateWeight   = 30.0
	NameWeight   = 20.0
)

// MatchingConfig tunes the matching engine.
type MatchingConfig struct {
	// MinConfidence is the lowest score (0-100) a pair needs to be suggested.
	MinConfidence float64 `json:"min_confidence"`
	// MatchWindowDays is the largest order/invoice date gap that earns date credit.
	MatchWindowDays int `json:"match_window_days"`
	// AmountTolerancePct is the relative difference beyond which amounts earn no credit.
	AmountTolerancePct decimal.Decimal `json:"amount_tolerance_pct"`
	// RoundingTolerance is the absolute difference treated as ledger rounding.
	RoundingTolerance decimal.Decimal `json:"rounding_tolerance"`
	// CrossBrand allows pairing an order with an invoice from another brand.
	CrossBrand bool `json:"cross_brand"`
}

// DefaultMatchingConfig returns the settings used by the dashboard.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		MinConfidence:      50,
		MatchWindowDays:    7,
		AmountTolerancePct: decimal.NewFromInt(5),
		RoundingTolerance:  decimal.RequireFromString("0.01"),
	}
}

// Validate checks the configuration ranges.
func (c MatchingConfig) Validate() error {
	var errs error
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = multierror.Append(errs, fmt.Errorf("min confidence %.2f outside 0-100", c.MinConfidence))
	}
	if c.MatchWindowDays < 0 {
		errs = multierror.Append(errs, errors.New("match window days must not be negative"))
	}
	if c.AmountTolerancePct.IsNegative() {
		errs = multierror.Append(errs, errors.New("amount tolerance must not be negative"))
	}
	if c.RoundingTolerance.IsNegative() {
		errs = multierror.Append(errs, errors.New("rounding tolerance must not be negative"))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errs)
	}
	return nil
}

// GetAmountTolerance returns the absolute tolerance for an amount.
func (c MatchingConfig) GetAmountTolerance(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs().Mul(c.AmountTolerancePct).Div(decimal.NewFromInt(100))
}
