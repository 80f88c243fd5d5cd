package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pnl-engine/internal/logging"
	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type matchOptions struct {
	scorer NameScorer
	logger logrus.FieldLogger
}

// MatchOption customises a suggestion pass.
type MatchOption func(*matchOptions)

// WithNameScorer replaces the default name similarity strategy.
func WithNameScorer(s NameScorer) MatchOption {
	return func(o *matchOptions) { o.scorer = s }
}

// WithLogger sets the logger used to report skipped records.
func WithLogger(l logrus.FieldLogger) MatchOption {
	return func(o *matchOptions) { o.logger = l }
}

type candidate struct {
	order      *Order
	invoice    *Invoice
	confidence float64
	reasons    []string
	signals    SignalBreakdown
}

// SuggestMatches scores every eligible order/invoice pair and greedily selects a
// one-to-one assignment, highest confidence first. Inputs are not modified.
//
// Ties are broken by earlier invoice date, then invoice id, then order id, so the
// same inputs always produce the same suggestions in the same order.
func SuggestMatches(ctx context.Context, orders []Order, invoices []Invoice, cfg MatchingConfig, opts ...MatchOption) (*MatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := matchOptions{scorer: DefaultNameScorer(), logger: logging.GetLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	result := &MatchResult{
		Suggestions:       []MatchSuggestion{},
		UnmatchedOrders:   []string{},
		UnmatchedInvoices: []string{},
	}
	skip := func(kind, id, reason string, err error) {
		result.Skipped = append(result.Skipped, SkippedRecord{Kind: kind, ID: id, Reason: reason})
		if err != nil {
			logging.LogError(o.logger, "matching", "SuggestMatches", "skipping "+kind, id, err)
		}
	}

	pool := eligibleOrders(orders, skip)
	invPool := eligibleInvoices(invoices, skip)

	var candidates []candidate
	for _, ord := range pool {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("matching cancelled: %w", err)
		}
		names := ord.CandidateNames()
		for _, inv := range invPool {
			if !cfg.CrossBrand && ord.Brand != inv.Brand {
				continue
			}
			c, ok := scorePair(ord, inv, names, cfg, o.scorer)
			if !ok || c.confidence < cfg.MinConfidence || c.confidence <= 0 {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.confidence != b.confidence {
			return a.confidence > b.confidence
		}
		if !a.invoice.InvoiceDate.Equal(b.invoice.InvoiceDate) {
			return a.invoice.InvoiceDate.Before(b.invoice.InvoiceDate)
		}
		if a.invoice.ID != b.invoice.ID {
			return a.invoice.ID < b.invoice.ID
		}
		return a.order.ID < b.order.ID
	})

	takenOrders := make(map[string]bool, len(pool))
	takenInvoices := make(map[string]bool, len(invPool))
	for _, c := range candidates {
		if takenOrders[c.order.ID] || takenInvoices[c.invoice.ID] {
			continue
		}
		takenOrders[c.order.ID] = true
		takenInvoices[c.invoice.ID] = true
		result.Suggestions = append(result.Suggestions, MatchSuggestion{
			OrderID:    c.order.ID,
			InvoiceID:  c.invoice.ID,
			Confidence: c.confidence,
			Reasons:    c.reasons,
			Signals:    c.signals,
		})
	}

	for _, ord := range pool {
		if !takenOrders[ord.ID] {
			result.UnmatchedOrders = append(result.UnmatchedOrders, ord.ID)
		}
	}
	for _, inv := range invPool {
		if !takenInvoices[inv.ID] {
			result.UnmatchedInvoices = append(result.UnmatchedInvoices, inv.ID)
		}
	}
	return result, nil
}

func eligibleOrders(orders []Order, skip func(kind, id, reason string, err error)) []*Order {
	out := make([]*Order, 0, len(orders))
	seen := make(map[string]bool, len(orders))
	for i := range orders {
		ord := orders[i]
		ord.Normalize()
		switch {
		case seen[ord.ID]:
			skip("order", ord.ID, "duplicate id", nil)
			continue
		case ord.State == OrderExcluded:
			skip("order", ord.ID, "excluded", nil)
			continue
		case ord.IsLinked() || ord.State == OrderMatched:
			skip("order", ord.ID, "already linked", nil)
			continue
		}
		if err := ord.Validate(); err != nil {
			skip("order", ord.ID, "invalid record", err)
			continue
		}
		if ord.Subtotal.IsZero() && ord.Total.IsZero() {
			skip("order", ord.ID, "zero amount", nil)
			continue
		}
		seen[ord.ID] = true
		out = append(out, &ord)
	}
	return out
}

func eligibleInvoices(invoices []Invoice, skip func(kind, id, reason string, err error)) []*Invoice {
	out := make([]*Invoice, 0, len(invoices))
	seen := make(map[string]bool, len(invoices))
	for i := range invoices {
		inv := invoices[i]
		inv.Normalize()
		switch {
		case seen[inv.ID]:
			skip("invoice", inv.ID, "duplicate id", nil)
			continue
		case inv.IsLinked():
			skip("invoice", inv.ID, "already linked", nil)
			continue
		case inv.Status != InvoicePending:
			skip("invoice", inv.ID, "status "+string(inv.Status), nil)
			continue
		}
		if err := inv.Validate(); err != nil {
			skip("invoice", inv.ID, "invalid record", err)
			continue
		}
		if inv.Subtotal.IsZero() && inv.Total.IsZero() {
			skip("invoice", inv.ID, "zero amount", nil)
			continue
		}
		seen[inv.ID] = true
		out = append(out, &inv)
	}
	return out
}

// scorePair returns false when the pair is disqualified outright (currency mismatch).
func scorePair(ord *Order, inv *Invoice, names []string, cfg MatchingConfig, scorer NameScorer) (candidate, bool) {
	if ord.Currency != inv.Currency {
		return candidate{}, false
	}
	c := candidate{order: ord, invoice: inv}

	amountPts, amountReason := scoreAmount(ord.Subtotal, inv.Subtotal, "Amount", ord.Currency, cfg)
	if amountPts == 0 {
		amountPts, amountReason = scoreAmount(ord.Total, inv.Total, "Total", ord.Currency, cfg)
	}
	datePts, dateReason := scoreDate(ord.OrderDate, inv.InvoiceDate, cfg.MatchWindowDays)

	var namePts float64
	var nameReason string
	for _, n := range names {
		if pts, reason := scorer.Score(n, inv.ContactName, NameWeight); pts > namePts {
			namePts, nameReason = clamp(pts, 0, NameWeight), reason
		}
	}

	for _, r := range []string{amountReason, dateReason, nameReason} {
		if r != "" {
			c.reasons = append(c.reasons, r)
		}
	}
	c.signals = SignalBreakdown{Amount: round2(amountPts), Date: round2(datePts), Name: round2(namePts)}
	c.confidence = clamp(round2(amountPts+datePts+namePts), 0, 100)
	return c, true
}

func scoreAmount(a, b decimal.Decimal, label, currency string, cfg MatchingConfig) (float64, string) {
	if a.IsZero() && b.IsZero() {
		return 0, ""
	}
	diff := a.Sub(b).Abs()
	if money.Round(diff).IsZero() {
		return AmountWeight, label + " matches exactly"
	}
	if diff.LessThanOrEqual(cfg.RoundingTolerance) {
		return AmountWeight * 0.9, fmt.Sprintf("%s matches within %s", label, money.Format(cfg.RoundingTolerance, currency))
	}
	if !cfg.AmountTolerancePct.IsPositive() {
		return 0, ""
	}
	base := a.Abs()
	if base.IsZero() {
		base = b.Abs()
	}
	tolerance := cfg.GetAmountTolerance(base)
	if diff.GreaterThan(tolerance) {
		return 0, ""
	}
	pct := money.Percentage(diff, base)
	ratio, _ := diff.Div(tolerance).Float64()
	pts := AmountWeight * 0.8 * (1 - ratio)
	if pts <= 0 {
		return 0, ""
	}
	return pts, fmt.Sprintf("%s within %s%% (%s difference)", label, pct.StringFixed(2), money.Format(diff, currency))
}

func scoreDate(orderDate, invoiceDate time.Time, window int) (float64, string) {
	days := money.DaysBetween(orderDate, invoiceDate)
	abs := days
	if abs < 0 {
		abs = -abs
	}
	if abs == 0 {
		return DateWeight, "Invoice dated same day as order"
	}
	if abs > window {
		return 0, ""
	}
	pts := DateWeight * (1 - float64(abs)/float64(window+1))
	unit := "days"
	if abs == 1 {
		unit = "day"
	}
	dir := "after"
	if days < 0 {
		dir = "before"
	}
	return pts, fmt.Sprintf("Invoice date %d %s %s order date", abs, unit, dir)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
