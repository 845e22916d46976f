// Package schedule holds the interactive rescheduling math: drag-to-move
// snapping and clamping, gap detection between busy intervals, and
// safe-duration computation for fill-gap actions. Everything here is pure;
// callers own the mutation and persistence.
package schedule

import (
	"sort"
	"time"

	"github.com/mfriis/stint/internal/timeutil"
)

const (
	// GapThreshold is how close a neighbor's edge must be for no gap to
	// exist next to a session.
	GapThreshold = 5 * time.Minute

	// MinFillDuration is the hard floor for fill-gap durations. It can
	// produce an overlap when less than 5 minutes of space remain; that
	// tradeoff is inherited from the interaction model.
	MinFillDuration = 5 * time.Minute
)

// Busy is an occupied interval on the day: a session or a planned activity.
type Busy struct {
	Start time.Time
	End   time.Time
}

// Window is the visible hour range of the displayed day.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow builds the visible window for a day from whole start/end hours.
func DayWindow(day time.Time, startHour, endHour int) Window {
	return Window{
		Start: timeutil.AtHour(day, startHour),
		End:   timeutil.AtHour(day, endHour),
	}
}

// Gap is an unoccupied stretch inside the window.
type Gap struct {
	Start time.Time
	End   time.Time
}

func (g Gap) Duration() time.Duration { return g.End.Sub(g.Start) }

// DragTarget converts an accumulated pointer drag into a candidate start
// time: the vertical delta maps through pixelsPerHour to minutes, the result
// snaps to the nearest quarter hour and is clamped so the interval stays
// inside the window. This is the single path for both mouse drags and
// keyboard nudges.
func DragTarget(origStart time.Time, duration time.Duration, deltaY, pixelsPerHour float64, win Window) time.Time {
	if pixelsPerHour <= 0 {
		return origStart
	}
	deltaMin := deltaY / pixelsPerHour * 60
	moved := origStart.Add(time.Duration(deltaMin * float64(time.Minute)))
	snapped := timeutil.SnapToQuarterHour(moved)
	return ClampStart(snapped, duration, win)
}

// ClampStart forces a start time into the window, keeping the full interval
// visible when it fits. Intervals longer than the window pin to the window
// start.
func ClampStart(start time.Time, duration time.Duration, win Window) time.Time {
	latest := win.End.Add(-duration)
	if latest.Before(win.Start) {
		latest = win.Start
	}
	if start.Before(win.Start) {
		return win.Start
	}
	if start.After(latest) {
		return latest
	}
	return start
}

// Gaps finds the unoccupied stretches of the window between the given busy
// intervals. A stretch shorter than the threshold does not count: a neighbor
// ending within 5 minutes of the next start means no gap. The window's own
// boundaries act as implicit neighbors at the edges of the day.
func Gaps(busy []Busy, win Window) []Gap {
	intervals := normalize(busy)

	var gaps []Gap
	cursor := win.Start
	for _, b := range intervals {
		if b.End.Before(win.Start) || !win.End.After(b.Start) {
			continue
		}
		if b.Start.Sub(cursor) > GapThreshold {
			gaps = append(gaps, Gap{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if win.End.Sub(cursor) > GapThreshold {
		gaps = append(gaps, Gap{Start: cursor, End: win.End})
	}
	return gaps
}

// SafeDuration computes how long an interval starting at candidateStart may
// run: until the next busy interval starting strictly after it, or the
// window end when none follows. The desired duration is clamped into
// [MinFillDuration, available]; the floor wins even when less than 5 minutes
// of space remain.
func SafeDuration(candidateStart time.Time, desired time.Duration, busy []Busy, win Window) time.Duration {
	limit := win.End
	for _, b := range normalize(busy) {
		if b.Start.After(candidateStart) {
			limit = b.Start
			break
		}
	}
	available := limit.Sub(candidateStart)
	d := desired
	if d > available {
		d = available
	}
	if d < MinFillDuration {
		d = MinFillDuration
	}
	return d
}

// FillBefore computes the interval that fills the gap ending at next.Start:
// it reaches back to the previous busy interval's end (or the window start)
// and is floored at MinFillDuration, which may push the start before the
// gap when the gap is very small.
func FillBefore(next Busy, busy []Busy, win Window) (time.Time, time.Duration) {
	prevEnd := win.Start
	for _, b := range normalize(busy) {
		if !b.End.After(next.Start) && b.End.After(prevEnd) {
			prevEnd = b.End
		}
	}
	d := next.Start.Sub(prevEnd)
	if d < MinFillDuration {
		d = MinFillDuration
	}
	return next.Start.Add(-d), d
}

// ClampManualEntry forces an explicit start/end pair into the visible
// window. The third return is false when clamping collapses the interval to
// zero or negative length, in which case nothing must be created.
func ClampManualEntry(start, end time.Time, win Window) (time.Time, time.Time, bool) {
	s := clampTime(start, win)
	e := clampTime(end, win)
	if !e.After(s) {
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}

func clampTime(t time.Time, win Window) time.Time {
	if t.Before(win.Start) {
		return win.Start
	}
	if t.After(win.End) {
		return win.End
	}
	return t
}

func normalize(busy []Busy) []Busy {
	out := make([]Busy, 0, len(busy))
	for _, b := range busy {
		if b.End.After(b.Start) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
