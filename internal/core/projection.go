package core

import (
	"fmt"
	"sort"
	"time"

	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
)

// Scenario names used by risk assessment and alerts.
const (
	ScenarioBaseline    = "baseline"
	ScenarioOptimistic  = "optimistic"
	ScenarioPessimistic = "pessimistic"
)

// DefaultScenarios returns the standard three-scenario set.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: ScenarioBaseline, BurnMultiplier: 1.0, InflowMultiplier: 1.0, OutflowMultiplier: 1.0},
		{Name: ScenarioOptimistic, BurnMultiplier: 0.8, InflowMultiplier: 1.1, OutflowMultiplier: 1.0},
		{Name: ScenarioPessimistic, BurnMultiplier: 1.2, InflowMultiplier: 0.9, OutflowMultiplier: 1.1, InflowDelayDays: 7},
	}
}

// ProjectionConfig controls a scenario run.
type ProjectionConfig struct {
	HorizonDays      int
	EarlyWarningDays int
	Scenarios        []Scenario
}

var recommendations = map[RiskLevel]string{
	RiskLow:    "Cash stays positive in every scenario over the next %d days. Keep reviewing the forecast weekly.",
	RiskMedium: "Cash goes negative in the %s scenario within %d days. Review upcoming outflows and chase overdue receivables.",
	RiskHigh:   "Cash is projected to go negative within %d days. Defer discretionary spend, secure credit and accelerate collections now.",
}

// Project simulates each scenario day by day from the current net position.
// Each day applies the burn-derived drift (scaled by the scenario) and any events dated
// that day. Events on or before asOf, or beyond the horizon, are ignored and counted.
func Project(position CashPosition, burn BurnMetrics, events []CashEvent, cfg ProjectionConfig, asOf time.Time) (*Projection, error) {
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d: %w", cfg.HorizonDays, ErrInvalidInput)
	}
	scenarios := cfg.Scenarios
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}
	start := money.Date(asOf)

	type dated struct {
		day   int
		event CashEvent
	}
	var scheduled []dated
	ignored := 0
	for _, e := range events {
		if e.Validate() != nil {
			ignored++
			continue
		}
		d := money.DaysBetween(start, e.Date)
		if d <= 0 || d > cfg.HorizonDays {
			ignored++
			continue
		}
		scheduled = append(scheduled, dated{day: d, event: e})
	}

	p := &Projection{
		AsOf:          start,
		HorizonDays:   cfg.HorizonDays,
		Scenarios:     scenarios,
		ChartData:     make([]ChartPoint, cfg.HorizonDays+1),
		IgnoredEvents: ignored,
	}
	for d := range p.ChartData {
		p.ChartData[d] = ChartPoint{Day: d, Date: start.AddDate(0, 0, d), Balances: make(map[string]decimal.Decimal, len(scenarios))}
	}

	outcomes := make([]ScenarioOutcome, 0, len(scenarios))
	for _, sc := range scenarios {
		deltas := make([]decimal.Decimal, cfg.HorizonDays+1)
		for _, s := range scheduled {
			day := s.day
			var amt decimal.Decimal
			if s.event.Direction == Inflow {
				day += sc.InflowDelayDays
				amt = s.event.Amount.Mul(decimal.NewFromFloat(sc.InflowMultiplier))
			} else {
				amt = s.event.Amount.Mul(decimal.NewFromFloat(sc.OutflowMultiplier)).Neg()
			}
			if day > cfg.HorizonDays {
				continue
			}
			deltas[day] = deltas[day].Add(amt)
		}

		drift := scenarioDrift(burn, sc)
		balance := position.NetPosition
		out := ScenarioOutcome{Name: sc.Name, MinBalance: balance}
		for d := 0; d <= cfg.HorizonDays; d++ {
			if d > 0 {
				balance = balance.Add(drift).Add(deltas[d])
			}
			rounded := money.Round(balance)
			p.ChartData[d].Balances[sc.Name] = rounded
			if rounded.LessThan(out.MinBalance) {
				out.MinBalance = rounded
			}
			if rounded.IsNegative() && !out.GoesNegative {
				out.GoesNegative = true
				day := d
				when := start.AddDate(0, 0, d)
				out.DaysUntilNegative = &day
				out.FirstNegativeDate = &when
			}
		}
		out.EndBalance = money.Round(balance)
		out.MinBalance = money.Round(out.MinBalance)
		outcomes = append(outcomes, out)
	}

	p.Comparison = compareScenarios(outcomes, cfg)
	inWindow := make([]CashEvent, len(scheduled))
	for i, s := range scheduled {
		inWindow[i] = s.event
	}
	p.EventSummary = summarizeEvents(inWindow)
	return p, nil
}

// scenarioDrift is the daily balance change before events. While burning the burn is
// scaled; while accumulating the growth is scaled like an inflow.
func scenarioDrift(burn BurnMetrics, sc Scenario) decimal.Decimal {
	if burn.IsAccumulating {
		growth := burn.DailyBurnRate.Neg()
		if growth.IsNegative() {
			growth = decimal.Zero
		}
		return growth.Mul(decimal.NewFromFloat(sc.InflowMultiplier))
	}
	return burn.DailyBurnRate.Mul(decimal.NewFromFloat(sc.BurnMultiplier)).Neg()
}

func compareScenarios(outcomes []ScenarioOutcome, cfg ProjectionConfig) Comparison {
	c := Comparison{Scenarios: outcomes, RiskAssessment: RiskLow}

	negatives := 0
	earliest := -1
	earliestName := ""
	baselineNegative := false
	for _, o := range outcomes {
		if !o.GoesNegative {
			continue
		}
		negatives++
		if o.Name == ScenarioBaseline {
			baselineNegative = true
		}
		if earliest < 0 || *o.DaysUntilNegative < earliest {
			earliest = *o.DaysUntilNegative
			earliestName = o.Name
		}
	}

	switch {
	case negatives == 0:
		c.RiskAssessment = RiskLow
		c.Recommendation = fmt.Sprintf(recommendations[RiskLow], cfg.HorizonDays)
	case baselineNegative || negatives >= 2 || earliest <= cfg.EarlyWarningDays:
		c.RiskAssessment = RiskHigh
		c.Recommendation = fmt.Sprintf(recommendations[RiskHigh], earliest)
	default:
		c.RiskAssessment = RiskMedium
		c.Recommendation = fmt.Sprintf(recommendations[RiskMedium], earliestName, earliest)
	}
	return c
}

// summarizeEvents totals scheduled events per ISO week, unscaled by any scenario.
func summarizeEvents(events []CashEvent) []EventBucket {
	buckets := map[time.Time]*EventBucket{}
	for _, e := range events {
		startOfWeek := money.Bucket(e.Date, money.Week)
		b, ok := buckets[startOfWeek]
		if !ok {
			b = &EventBucket{
				Period:   money.Label(e.Date, money.Week),
				Start:    startOfWeek,
				Inflows:  decimal.Zero,
				Outflows: decimal.Zero,
			}
			buckets[startOfWeek] = b
		}
		if e.Direction == Inflow {
			b.Inflows = b.Inflows.Add(e.Amount)
		} else {
			b.Outflows = b.Outflows.Add(e.Amount)
		}
	}

	out := make([]EventBucket, 0, len(buckets))
	for _, b := range buckets {
		b.Inflows = money.Round(b.Inflows)
		b.Outflows = money.Round(b.Outflows)
		b.Net = b.Inflows.Sub(b.Outflows)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
