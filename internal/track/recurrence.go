package track

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/mfriis/stint/internal/timeutil"
)

// ItemIndex provides the two work-item lookups the core needs. A nil index
// disables completeness suppression.
type ItemIndex interface {
	ItemComplete(id string) bool
	SubItemTitle(id string) (string, bool)
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// OccurrenceFor decides whether rule fires on the given calendar date and, if
// so, returns the virtual occurrence for that day. Rules whose linked work
// item is complete never fire. The rule's anchor date bounds every frequency:
// no occurrence is produced before it.
func OccurrenceFor(rule RecurringActivity, date time.Time, items ItemIndex) (Occurrence, bool) {
	if rule.ItemID != "" && items != nil && items.ItemComplete(rule.ItemID) {
		return Occurrence{}, false
	}

	opt, ok := rule.roption()
	if !ok {
		return Occurrence{}, false
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return Occurrence{}, false
	}

	hits := r.Between(timeutil.StartOfDay(date), timeutil.EndOfDay(date), true)
	if len(hits) == 0 {
		return Occurrence{}, false
	}

	start, err := timeutil.AtTimeOfDay(date, rule.TimeOfDay)
	if err != nil {
		start = timeutil.StartOfDay(date)
	}
	dayKey := timeutil.DayKey(date)

	return Occurrence{
		Virtual: true,
		PlannedActivity: PlannedActivity{
			ID:          VirtualID(rule.ID, dayKey),
			Day:         dayKey,
			Start:       start,
			DurationMin: rule.DurationMin,
			Kind:        rule.Kind,
			ItemID:      rule.ItemID,
			CategoryID:  rule.CategoryID,
			Title:       rule.Title,
			Logged:      false,
			RuleID:      rule.ID,
		},
	}, true
}

// roption compiles the rule into an RRULE. The second return is false for
// rules whose frequency parameters can never fire (empty weekday set, missing
// month day), which callers treat as "no occurrence" rather than an error.
func (r RecurringActivity) roption() (rrule.ROption, bool) {
	opt := rrule.ROption{Dtstart: timeutil.StartOfDay(r.Anchor)}

	switch r.Frequency {
	case FreqDaily:
		// Plain weekdays only; weekend exclusion is a business rule, not
		// configurable per rule.
		opt.Freq = rrule.DAILY
		opt.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

	case FreqWeekly:
		if len(r.WeekDays) == 0 {
			return opt, false
		}
		opt.Freq = rrule.WEEKLY
		for _, wd := range r.WeekDays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
		}

	case FreqFortnightly:
		// Every 14 whole calendar days from the anchor. RRULE iterates on
		// calendar dates, so DST shifts cannot skew the cadence.
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2

	case FreqMonthly:
		if r.MonthDay < 1 || r.MonthDay > 31 {
			return opt, false
		}
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{r.MonthDay}

	case FreqMonthlyNth:
		if r.NthWeek < 1 || r.NthWeek > 5 {
			return opt, false
		}
		nth := r.NthWeek
		if nth == 5 {
			// "5th" means the last occurrence of that weekday in the month.
			nth = -1
		}
		opt.Freq = rrule.MONTHLY
		wd := rruleWeekdays[r.NthWeekDay]
		opt.Byweekday = []rrule.Weekday{wd.Nth(nth)}

	default:
		return opt, false
	}

	return opt, true
}
