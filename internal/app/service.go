package app

import (
	"context"
	"errors"
)

// ErrReconciliationBusy is returned when another reviewer holds the pass lock for a brand.
var ErrReconciliationBusy = errors.New("a reconciliation pass is already running for this brand")

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// SuggestMatches loads the brand's unmatched orders and pending invoices and
	// returns ranked one-to-one link suggestions. An empty brand scans every brand.
	SuggestMatches(ctx context.Context, req SuggestRequest) (*SuggestionResult, error)

	// LinkMatch confirms a suggestion (or a manual pairing) and returns both records.
	LinkMatch(ctx context.Context, orderID, invoiceID string) (*LinkResult, error)

	// UnlinkMatch removes a confirmed link, returning the order to the backlog.
	UnlinkMatch(ctx context.Context, orderID string) (*OrderResult, error)

	// ExcludeOrder takes an order out of matching; IncludeOrder puts it back.
	ExcludeOrder(ctx context.Context, orderID string) (*OrderResult, error)
	IncludeOrder(ctx context.Context, orderID string) (*OrderResult, error)

	// TransitionInvoice applies approve, ignore or reopen to an invoice.
	TransitionInvoice(ctx context.Context, invoiceID, action string) (*InvoiceResult, error)

	// GetCashPosition totals the brand's current account balances.
	GetCashPosition(ctx context.Context, brand string) (*PositionResult, error)

	// GetForecast returns position, burn, runway, the scenario projection and alerts.
	GetForecast(ctx context.Context, req ForecastRequest) (*ForecastResult, error)
}
