package repl

import (
	"fmt"
	"io"
	"strings"

	"pnl-engine/internal/app"
	"pnl-engine/internal/core"
	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func brandOrAll(brand string) string {
	if brand == "" {
		return "all brands"
	}
	return brand
}

func amount(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.StringFixed(2)
	}
	return money.Format(d, currency)
}

// PrintSuggestions renders a suggestion pass as a table.
func PrintSuggestions(w io.Writer, result *app.SuggestionResult) {
	fmt.Fprintln(w)
	rule(w, "=", 78)
	fmt.Fprintf(w, "  MATCH SUGGESTIONS: %s (min confidence %.0f)\n", brandOrAll(result.Brand), result.MinConfidence)
	rule(w, "=", 78)
	if len(result.Suggestions) == 0 {
		fmt.Fprintln(w, "  No suggestions.")
	} else {
		fmt.Fprintf(w, "  %-12s %-12s %6s  %-22s %14s\n", "ORDER", "INVOICE", "SCORE", "CUSTOMER", "AMOUNT")
		rule(w, "-", 78)
		for _, s := range result.Suggestions {
			fmt.Fprintf(w, "  %-12s %-12s %6.2f  %-22s %14s\n",
				s.OrderID, s.InvoiceID, s.Confidence, truncate(s.Order.CustomerName, 22),
				amount(s.Order.Subtotal, s.Order.Currency))
		}
	}
	rule(w, "-", 78)
	fmt.Fprintf(w, "  Unmatched orders: %d   Unmatched invoices: %d   Skipped: %d\n",
		len(result.UnmatchedOrders), len(result.UnmatchedInvoices), len(result.Skipped))
	rule(w, "=", 78)
}

// PrintSuggestion renders one suggestion with its reasons, for review.
func PrintSuggestion(w io.Writer, n, total int, s app.SuggestionDetail) {
	fmt.Fprintf(w, "\n[%d/%d] Confidence %.2f\n", n, total, s.Confidence)
	fmt.Fprintf(w, "  ORDER   %-12s %s  %-24s %s\n", s.Order.ID, s.Order.OrderDate.Format("2006-01-02"),
		truncate(s.Order.CustomerName, 24), amount(s.Order.Subtotal, s.Order.Currency))
	fmt.Fprintf(w, "  INVOICE %-12s %s  %-24s %s\n", s.Invoice.ID, s.Invoice.InvoiceDate.Format("2006-01-02"),
		truncate(s.Invoice.ContactName, 24), amount(s.Invoice.Subtotal, s.Invoice.Currency))
	for _, r := range s.Reasons {
		fmt.Fprintf(w, "    - %s\n", r)
	}
}

// PrintPosition renders a cash position with its accounts.
func PrintPosition(w io.Writer, result *app.PositionResult) {
	p := result.Position
	fmt.Fprintln(w)
	rule(w, "=", 62)
	fmt.Fprintf(w, "  CASH POSITION: %s\n", brandOrAll(result.Brand))
	rule(w, "=", 62)
	if p.AccountCount == 0 {
		fmt.Fprintln(w, "  No cash accounts.")
		rule(w, "=", 62)
		return
	}
	fmt.Fprintf(w, "  %-30s %-8s %20s\n", "ACCOUNT", "TYPE", "BALANCE")
	rule(w, "-", 62)
	for _, a := range p.Accounts {
		fmt.Fprintf(w, "  %-30s %-8s %20s\n", truncate(a.Name, 30), a.Type, amount(a.Balance, a.Currency))
	}
	rule(w, "-", 62)
	fmt.Fprintf(w, "  %-39s %20s\n", "Cash", amount(p.TotalCash, p.Currency))
	fmt.Fprintf(w, "  %-39s %20s\n", "Credit", amount(p.TotalCredit, p.Currency))
	fmt.Fprintf(w, "  %-39s %20s\n", "NET POSITION", amount(p.NetPosition, p.Currency))
	if p.MixedCurrency {
		fmt.Fprintln(w, "  (accounts span several currencies; totals are not converted)")
	}
	rule(w, "=", 62)
}

// PrintForecast renders burn, runway, scenario outcomes and alerts.
func PrintForecast(w io.Writer, result *app.ForecastResult) {
	cur := result.Position.Currency
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  CASH FORECAST: %s as of %s (%d days)\n",
		brandOrAll(result.Brand), result.AsOf.Format("2006-01-02"), result.Projection.HorizonDays)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  Net position : %s\n", amount(result.Position.NetPosition, cur))
	if result.Burn.IsAccumulating {
		fmt.Fprintf(w, "  Burn         : none, accumulating %s/day\n", amount(result.Burn.DailyBurnRate.Neg(), cur))
	} else {
		fmt.Fprintf(w, "  Burn         : %s/day, %s/month\n",
			amount(result.Burn.DailyBurnRate, cur), amount(result.Burn.MonthlyBurnRate, cur))
	}
	if result.Runway.DaysRemaining != nil {
		fmt.Fprintf(w, "  Runway       : %.1f days (%.1f months), until %s\n",
			*result.Runway.DaysRemaining, *result.Runway.MonthsRemaining, result.Runway.RunwayDate.Format("2006-01-02"))
	} else {
		fmt.Fprintln(w, "  Runway       : not limited by current burn")
	}

	rule(w, "-", 72)
	fmt.Fprintf(w, "  %-12s %16s %16s %8s  %s\n", "SCENARIO", "END", "MIN", "CHANGE", "NEGATIVE FROM")
	rule(w, "-", 72)
	for _, o := range result.Projection.Comparison.Scenarios {
		neg := "-"
		if o.FirstNegativeDate != nil {
			neg = fmt.Sprintf("%s (day %d)", o.FirstNegativeDate.Format("2006-01-02"), *o.DaysUntilNegative)
		}
		change := money.PercentChange(result.Position.NetPosition, o.EndBalance)
		fmt.Fprintf(w, "  %-12s %16s %16s %7s%%  %s\n",
			o.Name, amount(o.EndBalance, cur), amount(o.MinBalance, cur), change.StringFixed(1), neg)
	}
	rule(w, "-", 72)
	fmt.Fprintf(w, "  Risk: %s\n  %s\n", strings.ToUpper(string(result.Projection.Comparison.RiskAssessment)),
		result.Projection.Comparison.Recommendation)

	if len(result.Alerts) > 0 {
		rule(w, "-", 72)
		for _, a := range result.Alerts {
			fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(string(a.Severity)), a.Message)
		}
	}
	rule(w, "=", 72)
}

// PrintOrder prints a one-line order status.
func PrintOrder(w io.Writer, o *core.Order) {
	linked := ""
	if o.MatchedInvoiceID != nil {
		linked = " -> invoice " + *o.MatchedInvoiceID
	}
	fmt.Fprintf(w, "Order %s is %s%s.\n", o.ID, strings.ToUpper(string(o.State)), linked)
}

// PrintInvoice prints a one-line invoice status.
func PrintInvoice(w io.Writer, i *core.Invoice) {
	fmt.Fprintf(w, "Invoice %s is %s.\n", i.ID, strings.ToUpper(string(i.Status)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
