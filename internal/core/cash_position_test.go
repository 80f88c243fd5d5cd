package core_test

import (
	"testing"
	"time"

	"pnl-engine/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePosition(t *testing.T) {
	pos := core.ComputePosition([]core.CashAccount{
		{ID: "a1", Type: core.AccountBank, Balance: dec("12000.50"), Currency: "GBP"},
		{ID: "a2", Type: core.AccountBank, Balance: dec("-200.00"), Currency: "GBP"},
		{ID: "c1", Type: core.AccountCredit, Balance: dec("-1500.00"), Currency: "GBP"},
		{ID: "c2", Type: core.AccountCredit, Balance: dec("300.25"), Currency: "GBP"},
	})

	assert.True(t, pos.TotalCash.Equal(dec("11800.50")), pos.TotalCash.String())
	assert.True(t, pos.TotalCredit.Equal(dec("-1800.25")), pos.TotalCredit.String())
	assert.True(t, pos.NetPosition.Equal(dec("10000.25")), pos.NetPosition.String())
	assert.Equal(t, "GBP", pos.Currency)
	assert.False(t, pos.MixedCurrency)
	assert.Equal(t, 4, pos.AccountCount)
}

func TestComputePosition_Empty(t *testing.T) {
	pos := core.ComputePosition(nil)
	assert.True(t, pos.TotalCash.IsZero())
	assert.True(t, pos.TotalCredit.IsZero())
	assert.True(t, pos.NetPosition.IsZero())
	assert.Equal(t, 0, pos.AccountCount)
	assert.NotNil(t, pos.Accounts)
}

func TestComputePosition_MixedCurrency(t *testing.T) {
	pos := core.ComputePosition([]core.CashAccount{
		{ID: "a1", Type: core.AccountBank, Balance: dec("10"), Currency: "GBP"},
		{ID: "a2", Type: core.AccountBank, Balance: dec("10"), Currency: "EUR"},
	})
	assert.True(t, pos.MixedCurrency)
}

func linearHistory(start time.Time, days int, opening, perDay string) core.CashHistory {
	h := core.CashHistory{}
	for d := 0; d < days; d++ {
		h.Points = append(h.Points, core.BalancePoint{
			Date:        start.AddDate(0, 0, d),
			NetPosition: dec(opening).Add(dec(perDay).Mul(decimal.NewFromInt(int64(d)))),
		})
	}
	return h
}

func TestComputeBurn_Declining(t *testing.T) {
	burn := core.ComputeBurn(linearHistory(date("2024-01-01"), 30, "20000", "-500"), 90)

	assert.False(t, burn.IsAccumulating)
	assert.True(t, burn.DailyBurnRate.Equal(dec("500")), burn.DailyBurnRate.String())
	assert.True(t, burn.WeeklyBurnRate.Equal(dec("3500")), burn.WeeklyBurnRate.String())
	assert.True(t, burn.MonthlyBurnRate.Equal(dec("15218.75")), burn.MonthlyBurnRate.String())
	assert.Equal(t, 30, burn.SampleSize)
	assert.Equal(t, core.BurnMethod, burn.Method)
}

func TestComputeBurn_Accumulating(t *testing.T) {
	burn := core.ComputeBurn(linearHistory(date("2024-01-01"), 10, "1000", "25"), 90)
	assert.True(t, burn.IsAccumulating)
	assert.True(t, burn.DailyBurnRate.Equal(dec("-25")), burn.DailyBurnRate.String())
}

func TestComputeBurn_Flat(t *testing.T) {
	burn := core.ComputeBurn(linearHistory(date("2024-01-01"), 10, "1000", "0"), 90)
	assert.True(t, burn.IsAccumulating)
	assert.True(t, burn.DailyBurnRate.IsZero())
}

func TestComputeBurn_TooFewPoints(t *testing.T) {
	burn := core.ComputeBurn(core.CashHistory{Points: []core.BalancePoint{{Date: date("2024-01-01"), NetPosition: dec("5")}}}, 90)
	assert.True(t, burn.IsAccumulating)
	assert.True(t, burn.DailyBurnRate.IsZero())
	assert.Equal(t, 1, burn.SampleSize)

	// two readings on the same day collapse to one
	burn = core.ComputeBurn(core.CashHistory{Points: []core.BalancePoint{
		{Date: date("2024-01-01"), NetPosition: dec("5")},
		{Date: date("2024-01-01").Add(5 * time.Hour), NetPosition: dec("1")},
	}}, 90)
	assert.Equal(t, 1, burn.SampleSize)
	assert.True(t, burn.IsAccumulating)
}

func TestComputeBurn_UsesTrailingWindow(t *testing.T) {
	// 60 days of growth followed by 30 days of decline; a 30-day window sees only the decline.
	h := linearHistory(date("2024-01-01"), 60, "1000", "100")
	tail := linearHistory(date("2024-03-01"), 30, "7000", "-200")
	h.Points = append(h.Points, tail.Points...)

	burn := core.ComputeBurn(h, 30)
	assert.False(t, burn.IsAccumulating)
	assert.True(t, burn.DailyBurnRate.Equal(dec("200")), burn.DailyBurnRate.String())
	assert.Equal(t, 30, burn.SampleSize)
}

func TestComputeRunway(t *testing.T) {
	pos := core.CashPosition{NetPosition: dec("10000")}
	burn := core.BurnMetrics{DailyBurnRate: dec("500"), IsAccumulating: false}
	asOf := date("2024-03-01")

	r := core.ComputeRunway(pos, burn, asOf)
	require.NotNil(t, r.DaysRemaining)
	assert.Equal(t, 20.0, *r.DaysRemaining)
	assert.InDelta(t, 2.86, *r.WeeksRemaining, 0.001)
	assert.InDelta(t, 0.66, *r.MonthsRemaining, 0.001)
	require.NotNil(t, r.RunwayDate)
	assert.Equal(t, date("2024-03-21"), *r.RunwayDate)

	require.Len(t, r.ProjectedBalance, 3)
	assert.Equal(t, 4, r.ProjectedBalance[0].Week)
	assert.True(t, r.ProjectedBalance[0].Balance.Equal(dec("-4000")))
	assert.True(t, r.ProjectedBalance[2].Balance.Equal(dec("-32000")))
}

func TestComputeRunway_NullCases(t *testing.T) {
	pos := core.CashPosition{NetPosition: dec("10000")}

	accumulating := core.ComputeRunway(pos, core.BurnMetrics{DailyBurnRate: dec("9999"), IsAccumulating: true}, date("2024-03-01"))
	assert.Nil(t, accumulating.DaysRemaining)
	assert.Nil(t, accumulating.WeeksRemaining)
	assert.Nil(t, accumulating.RunwayDate)

	zero := core.ComputeRunway(pos, core.BurnMetrics{DailyBurnRate: decimal.Zero}, date("2024-03-01"))
	assert.Nil(t, zero.DaysRemaining)
}

func TestComputeRunway_FloorsAtZero(t *testing.T) {
	pos := core.CashPosition{NetPosition: dec("-500")}
	r := core.ComputeRunway(pos, core.BurnMetrics{DailyBurnRate: dec("100")}, date("2024-03-01"))
	require.NotNil(t, r.DaysRemaining)
	assert.Equal(t, 0.0, *r.DaysRemaining)
}
