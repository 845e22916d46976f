package store

import (
	"strconv"
	"strings"
	"time"
)

type Setting struct {
	Key   string
	Value string
}

// Timestamps are stored as RFC3339 text. Parsing is forgiving (a malformed
// cell yields the zero time rather than failing a whole load) and results
// are normalized to the local zone, since day keys are local wall-clock.

func fmtTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	if t.IsZero() {
		return t
	}
	return t.Local()
}

// Weekday sets are stored as a comma-separated list of ints, e.g. "1,3".

func joinWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func splitWeekdays(s string) []time.Weekday {
	if s == "" {
		return nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
