package core

import (
	"math"
	"time"

	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
)

// RunwayCheckpointWeeks are the fixed offsets reported in RunwayMetrics.ProjectedBalance.
var RunwayCheckpointWeeks = []int{4, 8, 12}

// ComputeRunway derives how long the current net position lasts at the current burn.
// Runway is nil when cash is accumulating or burn is zero; otherwise it is
// net/dailyBurn floored at zero.
func ComputeRunway(position CashPosition, burn BurnMetrics, asOf time.Time) RunwayMetrics {
	var r RunwayMetrics

	for _, w := range RunwayCheckpointWeeks {
		days := decimal.NewFromInt(int64(w * 7))
		r.ProjectedBalance = append(r.ProjectedBalance, Checkpoint{
			Week:    w,
			Date:    money.Date(asOf).AddDate(0, 0, w*7),
			Balance: money.Round(position.NetPosition.Sub(burn.DailyBurnRate.Mul(days))),
		})
	}

	if burn.IsAccumulating || !burn.DailyBurnRate.IsPositive() {
		return r
	}

	net, _ := position.NetPosition.Float64()
	daily, _ := burn.DailyBurnRate.Float64()
	days := math.Max(0, net/daily)
	weeks := days / 7
	months := days / money.DaysPerMonth

	days, weeks, months = round2(days), round2(weeks), round2(months)
	r.DaysRemaining = &days
	r.WeeksRemaining = &weeks
	r.MonthsRemaining = &months

	end := money.Date(asOf).AddDate(0, 0, int(math.Floor(days)))
	r.RunwayDate = &end
	return r
}
