package core

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderState is the reconciliation state of an order.
type OrderState string

const (
	OrderUnmatched OrderState = "unmatched"
	OrderMatched   OrderState = "matched"
	OrderExcluded  OrderState = "excluded"
)

// InvoiceStatus is the review status of a synced accounting invoice.
type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "pending"
	InvoiceApproved InvoiceStatus = "approved"
	InvoiceIgnored  InvoiceStatus = "ignored"
)

// Order is an internally recorded B2B sale. Orders are soft-excluded, never deleted.
type Order struct {
	ID               string          `json:"id" validate:"required"`
	Brand            string          `json:"brand" validate:"required"`
	OrderDate        time.Time       `json:"order_date" validate:"required"`
	CustomerName     string          `json:"customer_name"`
	AltCustomerNames []string        `json:"alt_customer_names,omitempty"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency" validate:"required,len=3,alpha"`
	RawSource        json.RawMessage `json:"raw_source,omitempty"`
	State            OrderState      `json:"state" validate:"omitempty,oneof=unmatched matched excluded"`
	MatchedInvoiceID *string         `json:"matched_invoice_id,omitempty"`
}

// IsLinked reports whether the order already has a confirmed invoice.
func (o *Order) IsLinked() bool {
	return o.MatchedInvoiceID != nil && *o.MatchedInvoiceID != ""
}

// Invoice is an invoice pulled from the external accounting provider.
type Invoice struct {
	ID             string          `json:"id" validate:"required"`
	Brand          string          `json:"brand" validate:"required"`
	InvoiceNumber  string          `json:"invoice_number"`
	ContactName    string          `json:"contact_name"`
	InvoiceDate    time.Time       `json:"invoice_date" validate:"required"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency" validate:"required,len=3,alpha"`
	Status         InvoiceStatus   `json:"status" validate:"omitempty,oneof=pending approved ignored"`
	MatchedOrderID *string         `json:"matched_order_id,omitempty"`
}

// IsLinked reports whether the invoice already has a confirmed order.
func (i *Invoice) IsLinked() bool {
	return i.MatchedOrderID != nil && *i.MatchedOrderID != ""
}

// SignalBreakdown is the contribution of each matching signal to a confidence score.
type SignalBreakdown struct {
	Amount float64 `json:"amount"`
	Date   float64 `json:"date"`
	Name   float64 `json:"name"`
}

// MatchSuggestion is a transient proposal that an order and an invoice are the same sale.
type MatchSuggestion struct {
	OrderID    string          `json:"order_id"`
	InvoiceID  string          `json:"invoice_id"`
	Confidence float64         `json:"confidence"`
	Reasons    []string        `json:"reasons"`
	Signals    SignalBreakdown `json:"signals"`
}

// SkippedRecord names an input record that could not take part in matching.
type SkippedRecord struct {
	Kind   string `json:"kind"` // "order" or "invoice"
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// MatchResult is the outcome of a suggestion pass.
type MatchResult struct {
	Suggestions       []MatchSuggestion `json:"suggestions"`
	UnmatchedOrders   []string          `json:"unmatched_orders"`
	UnmatchedInvoices []string          `json:"unmatched_invoices"`
	Skipped           []SkippedRecord   `json:"skipped,omitempty"`
}
