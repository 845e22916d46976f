package timeutil

import (
	"fmt"
	"time"
)

// BillingBlock is the fixed unit every logged interval is rounded up to.
const BillingBlock = 6 * time.Minute

// DayKeyFormat is the calendar-day key layout (local wall clock, not UTC).
const DayKeyFormat = "2006-01-02"

// DayKey returns the local calendar date of t as "YYYY-MM-DD". Local fields
// are used deliberately so the key never drifts across a UTC midnight.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// ParseDayKey parses a "YYYY-MM-DD" key into local midnight of that day.
func ParseDayKey(key string) (time.Time, error) {
	d, err := time.ParseInLocation(DayKeyFormat, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return d, nil
}

// RoundUpToBillingBlock converts a raw elapsed interval into a billed length:
// ceil to the next 6-minute block, with a floor of one block. A zero or
// negative raw duration still bills exactly one block. Applied exactly once,
// at finalization time.
func RoundUpToBillingBlock(d time.Duration) time.Duration {
	if d <= 0 {
		return BillingBlock
	}
	blocks := (d + BillingBlock - 1) / BillingBlock
	return blocks * BillingBlock
}

// TimeOfDayHours returns the hour of day including fractional minutes,
// e.g. 14:30 -> 14.5. Used for axis placement.
func TimeOfDayHours(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// StartOfDay returns 00:00:00 of t's day in the same location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of t's day in the same location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AtTimeOfDay places an "HH:MM" wall-clock time onto day's calendar date.
func AtTimeOfDay(day time.Time, hhmm string) (time.Time, error) {
	tod, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time of day %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, day.Location()), nil
}

// AtHour places a whole hour onto day's calendar date.
func AtHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// SnapToQuarterHour rounds t to the nearest 15-minute mark.
func SnapToQuarterHour(t time.Time) time.Time {
	return t.Round(15 * time.Minute)
}

// DaysBetween returns the number of whole calendar days from a to b,
// measured on day boundaries rather than elapsed time so DST shifts
// cannot skew the count.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatHours renders a duration as decimal hours, e.g. "1.5h".
func FormatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

// FormatClock renders the wall-clock time of t as "15:04".
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}
