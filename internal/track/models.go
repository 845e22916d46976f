package track

import (
	"fmt"
	"time"
)

// Kind distinguishes full task slots from quick untracked-work slots.
type Kind string

const (
	KindTask  Kind = "task"
	KindQuick Kind = "quick"
)

// Frequency enumerates the supported recurrence frequencies.
type Frequency string

const (
	FreqDaily       Frequency = "daily"
	FreqWeekly      Frequency = "weekly"
	FreqFortnightly Frequency = "fortnightly"
	FreqMonthly     Frequency = "monthly"
	FreqMonthlyNth  Frequency = "monthly-nth"
)

// WorkItem is the minimal shape of the external work-item collaborator the
// core needs: completeness suppression and sub-item titles. Sub-items are
// rows whose ParentID points at their parent item.
type WorkItem struct {
	ID         string
	ParentID   string
	CategoryID string
	Title      string
	Complete   bool
}

// Session is a completed (or still-open) work interval. The open session, if
// any, mirrors the active timer; everything else has an end time.
type Session struct {
	ID          string
	ItemID      string
	SubItemID   string
	CategoryID  string
	ProjectID   string
	MilestoneID string
	Title       string
	Start       time.Time
	End         *time.Time
	Notes       string
	Manual      bool
}

// Duration returns the session length, zero while still open.
func (s Session) Duration() time.Duration {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// PlannedActivity is a materialized single-occurrence plan. Invariant:
// DurationMin > 0 and Start's calendar date equals Day.
type PlannedActivity struct {
	ID          string
	Day         string // YYYY-MM-DD
	Start       time.Time
	DurationMin int
	Kind        Kind
	ItemID      string
	CategoryID  string
	Title       string
	Logged      bool
	RuleID      string // back-reference to the generating rule, if any
}

// End returns the activity's end timestamp.
func (p PlannedActivity) End() time.Time {
	return p.Start.Add(time.Duration(p.DurationMin) * time.Minute)
}

// RecurringActivity is a repeating-plan rule. It never expires on its own.
type RecurringActivity struct {
	ID          string
	Anchor      time.Time // rule start date; bounds every frequency below
	Kind        Kind
	ItemID      string
	CategoryID  string
	Title       string
	TimeOfDay   string // "HH:MM"
	DurationMin int
	Frequency   Frequency
	WeekDays    []time.Weekday // weekly
	MonthDay    int            // monthly
	NthWeek     int            // monthly-nth; 5 means "last of month"
	NthWeekDay  time.Weekday   // monthly-nth
}

// ActiveTimer is the single in-progress work interval. At most one exists
// per process, owned exclusively by the timer Machine.
type ActiveTimer struct {
	ItemID    string
	SubItemID string
	Start     time.Time
}

// Occurrence is one calendar-day instance of a plan: either a materialized
// PlannedActivity or a virtual one computed from a recurring rule. The
// Virtual tag is the type-level distinction; virtual occurrences carry a
// synthetic id and must be materialized before any mutation.
type Occurrence struct {
	PlannedActivity
	Virtual bool
}

// VirtualID encodes a (rule, day) pair into the synthetic id a virtual
// occurrence carries until it is materialized.
func VirtualID(ruleID, dayKey string) string {
	return fmt.Sprintf("%s@%s", ruleID, dayKey)
}
