package core

import (
	"math"
	"sort"
	"time"

	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// BurnMethod names how BurnMetrics were derived.
const BurnMethod = "ols_slope"

var (
	daysPerWeek  = decimal.NewFromInt(7)
	daysPerMonth = decimal.NewFromFloat(money.DaysPerMonth)
)

// ComputePosition totals account balances. Bank balances sum into TotalCash; credit
// balances count as owed (-|balance|) into TotalCredit. Accounts of any other type are
// listed but not totalled. No accounts yields an all-zero position.
func ComputePosition(accounts []CashAccount) CashPosition {
	pos := CashPosition{
		TotalCash:    decimal.Zero,
		TotalCredit:  decimal.Zero,
		NetPosition:  decimal.Zero,
		AccountCount: len(accounts),
		Accounts:     append([]CashAccount{}, accounts...),
	}
	for _, a := range accounts {
		if pos.Currency == "" {
			pos.Currency = a.Currency
		} else if a.Currency != pos.Currency {
			pos.MixedCurrency = true
		}
		switch a.Type {
		case AccountBank:
			pos.TotalCash = pos.TotalCash.Add(a.Balance)
		case AccountCredit:
			pos.TotalCredit = pos.TotalCredit.Sub(a.Balance.Abs())
		}
	}
	pos.TotalCash = money.Round(pos.TotalCash)
	pos.TotalCredit = money.Round(pos.TotalCredit)
	pos.NetPosition = pos.TotalCash.Add(pos.TotalCredit)
	return pos
}

// ComputeBurn fits an ordinary least-squares line to net position against elapsed days
// over the trailing windowDays of history. DailyBurnRate is the negated slope, so a
// falling balance gives a positive burn. Fewer than two distinct days gives zero burn.
func ComputeBurn(history CashHistory, windowDays int) BurnMetrics {
	m := BurnMetrics{
		DailyBurnRate:   decimal.Zero,
		WeeklyBurnRate:  decimal.Zero,
		MonthlyBurnRate: decimal.Zero,
		IsAccumulating:  true,
		Method:          BurnMethod,
		WindowDays:      windowDays,
	}

	points := dailyPoints(history.Points)
	if len(points) > 0 && windowDays > 0 {
		cutoff := points[len(points)-1].Date.AddDate(0, 0, -windowDays)
		i := sort.Search(len(points), func(i int) bool { return points[i].Date.After(cutoff) })
		points = points[i:]
	}
	m.SampleSize = len(points)
	if len(points) < 2 {
		return m
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(money.DaysBetween(points[0].Date, p.Date))
		ys[i], _ = p.NetPosition.Float64()
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		slope = 0
	}

	daily := decimal.NewFromFloat(-slope)
	m.DailyBurnRate = money.Round(daily)
	m.WeeklyBurnRate = money.Round(daily.Mul(daysPerWeek))
	m.MonthlyBurnRate = money.Round(daily.Mul(daysPerMonth))
	m.IsAccumulating = slope >= 0 || m.DailyBurnRate.IsZero()
	return m
}

// dailyPoints sorts points by date keeping the last reading for each calendar day.
func dailyPoints(in []BalancePoint) []BalancePoint {
	byDay := make(map[time.Time]BalancePoint, len(in))
	for _, p := range in {
		byDay[money.Date(p.Date)] = BalancePoint{Date: money.Date(p.Date), NetPosition: p.NetPosition}
	}
	out := make([]BalancePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
