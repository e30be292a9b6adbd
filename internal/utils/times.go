package utils

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date used as the key of daily entries.
const DateLayout = "2006-01-02"

// DateKey formats t as a day key in its own zone.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay returns local midnight of t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TrailingDates returns n consecutive date keys ending on the day of end,
// oldest first.
func TrailingDates(end time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	day := StartOfDay(end)
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		// AddDate keeps DST days at calendar granularity.
		dates[i] = DateKey(day.AddDate(0, 0, i-(n-1)))
	}
	return dates
}

// FirstDayOfISOWeek returns the Monday of the given ISO week.
func FirstDayOfISOWeek(year, week int, loc *time.Location) time.Time {
	date := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	isoYear, isoWeek := date.ISOWeek()

	for date.Weekday() != time.Monday {
		date = date.AddDate(0, 0, -1)
		isoYear, isoWeek = date.ISOWeek()
	}

	for isoYear < year {
		date = date.AddDate(0, 0, 7)
		isoYear, isoWeek = date.ISOWeek()
	}

	for isoWeek < week {
		date = date.AddDate(0, 0, 7)
		_, isoWeek = date.ISOWeek()
	}

	return date
}

// FormatDistance renders meters the way the app shows them.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}
