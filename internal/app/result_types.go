package app

import (
	"time"

	"pnl-engine/internal/core"
)

// SuggestionDetail is a suggestion with the two records it pairs, for display.
type SuggestionDetail struct {
	core.MatchSuggestion
	Order   core.Order   `json:"order"`
	Invoice core.Invoice `json:"invoice"`
}

// SuggestionResult is returned by SuggestMatches.
type SuggestionResult struct {
	Brand             string               `json:"brand"`
	MinConfidence     float64              `json:"min_confidence"`
	Suggestions       []SuggestionDetail   `json:"suggestions"`
	UnmatchedOrders   []string             `json:"unmatched_orders"`
	UnmatchedInvoices []string             `json:"unmatched_invoices"`
	Skipped           []core.SkippedRecord `json:"skipped,omitempty"`
}

// LinkResult is returned by LinkMatch.
type LinkResult struct {
	Order   *core.Order   `json:"order"`
	Invoice *core.Invoice `json:"invoice"`
}

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.Order `json:"order"`
}

// InvoiceResult is returned by TransitionInvoice.
type InvoiceResult struct {
	Invoice *core.Invoice `json:"invoice"`
}

// PositionResult is returned by GetCashPosition.
type PositionResult struct {
	Brand    string            `json:"brand"`
	Position core.CashPosition `json:"position"`
}

// ForecastResult is returned by GetForecast.
type ForecastResult struct {
	Brand      string             `json:"brand"`
	AsOf       time.Time          `json:"as_of"`
	Position   core.CashPosition  `json:"position"`
	Burn       core.BurnMetrics   `json:"burn"`
	Runway     core.RunwayMetrics `json:"runway"`
	Projection *core.Projection   `json:"projection"`
	Alerts     []core.CashAlert   `json:"alerts"`
}
