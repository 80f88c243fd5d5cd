package core

import (
	"fmt"
	"sort"
	"strings"

	"pnl-engine/internal/money"
)

// AlertConfig holds the runway thresholds, in days.
type AlertConfig struct {
	CriticalRunwayDays int
	WarningRunwayDays  int
}

var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityWarning:  2,
	SeverityInfo:     1,
}

// ComputeAlerts derives advisory alerts from the position, runway and projection.
// projection may be nil. Alerts are ordered most severe first, then by code.
func ComputeAlerts(position CashPosition, runway RunwayMetrics, projection *Projection, cfg AlertConfig) []CashAlert {
	alerts := []CashAlert{}
	add := func(sev Severity, code, msg string) {
		alerts = append(alerts, CashAlert{Severity: sev, Code: code, Message: msg})
	}

	if position.AccountCount == 0 {
		add(SeverityInfo, "NO_ACCOUNTS", "No cash accounts are connected; figures are zero.")
	}
	if position.MixedCurrency {
		add(SeverityWarning, "MIXED_CURRENCY", "Accounts are held in more than one currency; totals are not converted.")
	}
	if position.NetPosition.IsNegative() {
		add(SeverityCritical, "NEGATIVE_POSITION",
			fmt.Sprintf("Net cash position is %s.", money.Format(position.NetPosition, position.Currency)))
	}

	if runway.DaysRemaining != nil {
		days := *runway.DaysRemaining
		switch {
		case days < float64(cfg.CriticalRunwayDays):
			add(SeverityCritical, "RUNWAY_CRITICAL",
				fmt.Sprintf("Runway is %.0f days, below the %d-day critical threshold.", days, cfg.CriticalRunwayDays))
		case days < float64(cfg.WarningRunwayDays):
			add(SeverityWarning, "RUNWAY_LOW",
				fmt.Sprintf("Runway is %.0f days, below the %d-day warning threshold.", days, cfg.WarningRunwayDays))
		}
	}

	if projection != nil {
		for _, o := range projection.Comparison.Scenarios {
			if !o.GoesNegative {
				continue
			}
			sev := SeverityWarning
			if o.Name == ScenarioBaseline || o.Name == ScenarioOptimistic {
				sev = SeverityCritical
			}
			add(sev, "SCENARIO_NEGATIVE_"+strings.ToUpper(o.Name),
				fmt.Sprintf("The %s scenario goes negative on %s (day %d).",
					o.Name, o.FirstNegativeDate.Format("2006-01-02"), *o.DaysUntilNegative))
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if severityRank[alerts[i].Severity] != severityRank[alerts[j].Severity] {
			return severityRank[alerts[i].Severity] > severityRank[alerts[j].Severity]
		}
		return alerts[i].Code < alerts[j].Code
	})
	return alerts
}
