package money

import (
	"fmt"
	"strings"
	"time"
)

// Period is a reporting granularity used to bucket dated amounts.
type Period string

const (
	Day     Period = "day"
	Week    Period = "week"
	Month   Period = "month"
	Quarter Period = "quarter"
	Year    Period = "year"
)

// ParsePeriod converts a user-supplied string into a Period.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Day, Week, Month, Quarter, Year:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Bucket returns the first instant of the period containing t.
// Weeks start on Monday (ISO-8601).
func Bucket(t time.Time, p Period) time.Time {
	day := StartOfDay(t)
	switch p {
	case Week:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Month:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	case Quarter:
		q := (int(day.Month()) - 1) / 3
		return time.Date(day.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, day.Location())
	case Year:
		return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

// Label renders the bucket containing t, e.g. "2024-W03", "2024-02", "2024-Q1".
func Label(t time.Time, p Period) string {
	b := Bucket(t, p)
	switch p {
	case Week:
		y, w := b.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Month:
		return b.Format("2006-01")
	case Quarter:
		return fmt.Sprintf("%d-Q%d", b.Year(), (int(b.Month())-1)/3+1)
	case Year:
		return b.Format("2006")
	default:
		return b.Format("2006-01-02")
	}
}

// Date returns the calendar date of t, read in t's own location, as midnight UTC.
// Values from different zones can then be compared as dates.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
// Each value contributes the date it carries in its own location; time of day is ignored.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
