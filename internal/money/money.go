package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Places is the number of decimal places currency amounts are rounded to.
const Places = 2

// DaysPerMonth is the average Gregorian month length used for unit conversions.
const DaysPerMonth = 30.4375

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.BritishEnglish)
)

var symbols = map[string]string{
	"GBP": "£",
	"USD": "$",
	"EUR": "€",
	"AUD": "A$",
	"CAD": "C$",
	"NZD": "NZ$",
	"JPY": "¥",
	"CHF": "CHF ",
	"INR": "₹",
}

// Round rounds a currency amount to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Equal reports whether two amounts are equal once rounded to currency precision.
func Equal(a, b decimal.Decimal) bool {
	return Round(a).Equal(Round(b))
}

// Percentage returns part as a percentage of whole. A zero whole yields zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(Places)
}

// Ratio returns a/b rounded to four places. A zero denominator yields zero.
func Ratio(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b).Round(4)
}

// PercentChange returns the change from previous to current as a percentage of |previous|.
// A zero previous value yields zero.
func PercentChange(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(Places)
}

// Symbol returns the display symbol for an ISO-4217 code.
func Symbol(currency string) (string, bool) {
	s, ok := symbols[strings.ToUpper(currency)]
	return s, ok
}

// Format renders an amount with grouping and the currency symbol, e.g. "£1,234.50".
// Currencies without a known symbol are rendered as "1,234.50 SEK".
func Format(amount decimal.Decimal, currency string) string {
	f, _ := Round(amount).Float64()
	sym, ok := Symbol(currency)
	if !ok {
		return printer.Sprintf("%.2f %s", f, strings.ToUpper(currency))
	}
	if f < 0 {
		return printer.Sprintf("-%s%.2f", sym, -f)
	}
	return printer.Sprintf("%s%.2f", sym, f)
}
