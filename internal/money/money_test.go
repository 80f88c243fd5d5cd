package money_test

import (
	"testing"
	"time"

	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRound(t *testing.T) {
	assert.True(t, money.Round(d("10.005")).Equal(d("10.01")))
	assert.True(t, money.Round(d("-10.005")).Equal(d("-10.01")))
	assert.True(t, money.Equal(d("99.999"), d("100")))
}

func TestPercentageHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"percentage", money.Percentage(d("25"), d("200")), "12.5"},
		{"percentage zero whole", money.Percentage(d("25"), decimal.Zero), "0"},
		{"ratio", money.Ratio(d("1"), d("3")), "0.3333"},
		{"ratio zero denominator", money.Ratio(d("1"), decimal.Zero), "0"},
		{"change up", money.PercentChange(d("100"), d("150")), "50"},
		{"change from negative", money.PercentChange(d("-100"), d("-50")), "50"},
		{"change from zero", money.PercentChange(decimal.Zero, d("50")), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.got.Equal(d(tt.want)), "got %s want %s", tt.got, tt.want)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "£1,234.50", money.Format(d("1234.5"), "GBP"))
	assert.Equal(t, "-$10.00", money.Format(d("-10"), "usd"))
	assert.Equal(t, "99.99 SEK", money.Format(d("99.99"), "SEK"))
}

func TestBucketAndLabel(t *testing.T) {
	// Wednesday 17 January 2024
	ts := time.Date(2024, time.January, 17, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period money.Period
		bucket time.Time
		label  string
	}{
		{money.Day, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), "2024-01-17"},
		{money.Week, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2024-W03"},
		{money.Month, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01"},
		{money.Quarter, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-Q1"},
		{money.Year, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, tt.bucket, money.Bucket(ts, tt.period))
			assert.Equal(t, tt.label, money.Label(ts, tt.period))
		})
	}

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2024, time.January, 21, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), money.Bucket(sunday, money.Week))
}

func TestParsePeriod(t *testing.T) {
	p, err := money.ParsePeriod(" Quarter ")
	require.NoError(t, err)
	assert.Equal(t, money.Quarter, p)

	_, err = money.ParsePeriod("fortnight")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, money.DaysBetween(a, b))
	assert.Equal(t, -1, money.DaysBetween(b, a))
	assert.Equal(t, 0, money.DaysBetween(a, a))
	// leap day
	assert.Equal(t, 2, money.DaysBetween(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), a))

	// each side keeps the date it carries in its own zone
	sydney := time.FixedZone("AEDT", 11*3600)
	morning := time.Date(2024, 3, 2, 8, 0, 0, 0, sydney) // 2024-03-01 21:00 UTC
	assert.Equal(t, 0, money.DaysBetween(morning, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, money.DaysBetween(morning, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)))
}

func TestDate(t *testing.T) {
	london := time.FixedZone("BST", 3600)
	got := money.Date(time.Date(2024, 6, 10, 0, 30, 0, 0, london))
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}
