package app

import (
	"time"

	"billvault/internal/domain/billing"
)

const (
	secondsPerDay   int64 = 86400
	daysPerMonth    int64 = 30 // fixed 30-day month approximation
	secondsPerMonth       = daysPerMonth * secondsPerDay
	minLeadTime           = 7 * secondsPerDay
)

// All calendar math is done in UTC so that day-of-month and month boundaries
// are independent of server locale.

// yearMonth returns t as a YYYYMM marker, e.g. 202608.
func yearMonth(t time.Time) uint32 {
	utc := t.UTC()
	return uint32(utc.Year())*100 + uint32(utc.Month())
}

// dayOfMonth returns the calendar day (1-31) of a unix timestamp.
func dayOfMonth(ts int64) int {
	return time.Unix(ts, 0).UTC().Day()
}

// sameCalendarDay reports whether two unix timestamps fall on the same UTC day.
func sameCalendarDay(a, b int64) bool {
	return a/secondsPerDay == b/secondsPerDay
}

// addOneMonth moves a unix timestamp forward by one true calendar month,
// preserving the day of month and clamping to the last day when the next
// month is shorter (Jan 31 -> Feb 28).
func addOneMonth(ts int64) (int64, error) {
	if ts < 0 {
		return 0, billing.ErrInvalidTimestamp
	}
	t := time.Unix(ts, 0).UTC()

	year, month := t.Year(), t.Month()
	nextMonth := month + 1
	nextYear := year
	if month == time.December {
		nextMonth = time.January
		nextYear++
	}

	// Day 0 of the month after next is the last day of the next month.
	lastDay := time.Date(nextYear, nextMonth+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}

	next := time.Date(nextYear, nextMonth, day, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return next.Unix(), nil
}
