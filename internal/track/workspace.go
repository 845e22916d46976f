package track

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mfriis/stint/internal/timeutil"
)

// Collection names the persisted entity sets. They double as the store names
// of the persistence collaborator.
type Collection string

const (
	CollSessions Collection = "sessions"
	CollPlans    Collection = "plannedActivities"
	CollRules    Collection = "recurringActivities"
	CollItems    Collection = "workItems"
	CollTimer    Collection = "activeTimer"
)

// Persister is the write half of the persistence collaborator. Each Save
// replaces the named collection wholesale.
type Persister interface {
	SaveSessions([]Session) error
	SavePlans([]PlannedActivity) error
	SaveRules([]RecurringActivity) error
	SaveItems([]WorkItem) error
	SaveActiveTimer(*ActiveTimer) error
}

// Workspace holds the in-memory entity collections that are the source of
// truth for a running process. Mutations mark their collection dirty;
// Flush pushes dirty collections to the persister and is gated by the
// hydrated flag so pre-load default state is never written back over
// previously persisted data.
type Workspace struct {
	sessions []Session
	plans    []PlannedActivity
	rules    []RecurringActivity
	items    []WorkItem

	timer    *Machine
	hydrated bool
	dirty    map[Collection]bool

	now   func() time.Time
	newID func() string
}

func NewWorkspace() *Workspace {
	w := &Workspace{
		dirty: make(map[Collection]bool),
		now:   time.Now,
		newID: uuid.NewString,
	}
	w.timer = NewMachine(w)
	return w
}

// Hydrate installs the persisted collections, runs the rollover pass, and
// restores a persisted active timer. It runs once; later calls are no-ops.
func (w *Workspace) Hydrate(sessions []Session, plans []PlannedActivity, rules []RecurringActivity, items []WorkItem, timer *ActiveTimer) {
	if w.hydrated {
		return
	}
	w.sessions = sessions
	w.plans = plans
	w.rules = rules
	w.items = items
	if timer != nil {
		w.timer.Restore(*timer)
	}
	if w.rollover(timeutil.DayKey(w.now())) > 0 {
		w.dirty[CollPlans] = true
	}
	w.hydrated = true
}

func (w *Workspace) Hydrated() bool { return w.hydrated }

// Flush persists every dirty collection. Failed collections stay dirty so a
// later flush retries them; in-memory state remains the source of truth
// either way.
func (w *Workspace) Flush(p Persister) error {
	if !w.hydrated {
		return nil
	}
	var errs []error
	save := func(c Collection, fn func() error) {
		if !w.dirty[c] {
			return
		}
		if err := fn(); err != nil {
			errs = append(errs, err)
			return
		}
		delete(w.dirty, c)
	}
	save(CollSessions, func() error { return p.SaveSessions(w.sessions) })
	save(CollPlans, func() error { return p.SavePlans(w.plans) })
	save(CollRules, func() error { return p.SaveRules(w.rules) })
	save(CollItems, func() error { return p.SaveItems(w.items) })
	save(CollTimer, func() error {
		if t, ok := w.timer.Active(); ok {
			return p.SaveActiveTimer(&t)
		}
		return p.SaveActiveTimer(nil)
	})
	return errors.Join(errs...)
}

// rollover relocates stale incomplete single-occurrence plans to today,
// preserving time-of-day. Logged and rule-linked rows are never touched.
// Day keys compare lexicographically.
func (w *Workspace) rollover(today string) int {
	day, err := timeutil.ParseDayKey(today)
	if err != nil {
		return 0
	}
	moved := 0
	for i := range w.plans {
		p := &w.plans[i]
		if p.RuleID != "" || p.Logged || p.Day >= today {
			continue
		}
		p.Start = time.Date(day.Year(), day.Month(), day.Day(),
			p.Start.Hour(), p.Start.Minute(), p.Start.Second(), 0, day.Location())
		p.Day = today
		moved++
	}
	return moved
}

// ============================================================
// ItemIndex
// ============================================================

func (w *Workspace) ItemComplete(id string) bool {
	for _, it := range w.items {
		if it.ID == id {
			return it.Complete
		}
	}
	return false
}

func (w *Workspace) SubItemTitle(id string) (string, bool) {
	for _, it := range w.items {
		if it.ID == id && it.ParentID != "" {
			return it.Title, true
		}
	}
	return "", false
}

// TopItems returns incomplete top-level work items for pickers.
func (w *Workspace) TopItems() []WorkItem {
	var out []WorkItem
	for _, it := range w.items {
		if it.ParentID == "" && !it.Complete {
			out = append(out, it)
		}
	}
	return out
}

// SubItemsOf returns incomplete sub-items of the given item.
func (w *Workspace) SubItemsOf(itemID string) []WorkItem {
	var out []WorkItem
	for _, it := range w.items {
		if it.ParentID == itemID && !it.Complete {
			out = append(out, it)
		}
	}
	return out
}

func (w *Workspace) itemTitle(id string) string {
	for _, it := range w.items {
		if it.ID == id {
			return it.Title
		}
	}
	return ""
}

// ============================================================
// Plan store: merged occurrence view
// ============================================================

// OccurrencesFor merges materialized plans for the day with virtual
// occurrences expanded from the rules. Materialized rows win over virtual
// ones for the same (rule, day); rows linked to a complete work item are
// hidden unless already logged. Materialized rows group before virtual ones
// for stable rendering.
func (w *Workspace) OccurrencesFor(date time.Time) []Occurrence {
	dayKey := timeutil.DayKey(date)
	var out []Occurrence
	claimed := make(map[string]bool)

	for _, p := range w.plans {
		if p.Day != dayKey {
			continue
		}
		if p.RuleID != "" {
			claimed[p.RuleID] = true
		}
		if !p.Logged && p.ItemID != "" && w.ItemComplete(p.ItemID) {
			continue
		}
		out = append(out, Occurrence{PlannedActivity: p})
	}

	for _, r := range w.rules {
		if claimed[r.ID] {
			continue
		}
		if occ, ok := OccurrenceFor(r, date, w); ok {
			out = append(out, occ)
		}
	}
	return out
}

// Materialize turns a virtual occurrence into a persisted plan with a fresh
// id, preserving the rule back-reference. Materialized input is returned as
// is (looked up so the caller gets current field values).
func (w *Workspace) Materialize(occ Occurrence) PlannedActivity {
	if !occ.Virtual {
		if p := w.planByID(occ.ID); p != nil {
			return *p
		}
		return occ.PlannedActivity
	}
	p := occ.PlannedActivity
	p.ID = w.newID()
	w.plans = append(w.plans, p)
	w.dirty[CollPlans] = true
	return p
}

// CreatePlan adds a single-occurrence plan. Rejected when durationMin is not
// positive. The day key is derived from the start timestamp, keeping the
// day/date invariant by construction.
func (w *Workspace) CreatePlan(start time.Time, durationMin int, kind Kind, itemID, categoryID, title string) (PlannedActivity, bool) {
	if durationMin <= 0 {
		return PlannedActivity{}, false
	}
	p := PlannedActivity{
		ID:          w.newID(),
		Day:         timeutil.DayKey(start),
		Start:       start,
		DurationMin: durationMin,
		Kind:        kind,
		ItemID:      itemID,
		CategoryID:  categoryID,
		Title:       title,
	}
	w.plans = append(w.plans, p)
	w.dirty[CollPlans] = true
	return p, true
}

// MoveOccurrence commits a new start time, materializing first when needed.
// Logged occurrences cannot move.
func (w *Workspace) MoveOccurrence(occ Occurrence, newStart time.Time) (PlannedActivity, bool) {
	if occ.Logged {
		return PlannedActivity{}, false
	}
	m := w.Materialize(occ)
	p := w.planByID(m.ID)
	if p == nil {
		return PlannedActivity{}, false
	}
	p.Start = newStart
	p.Day = timeutil.DayKey(newStart)
	w.dirty[CollPlans] = true
	return *p, true
}

// DeleteOccurrence removes a plan. Deleting a virtual occurrence is
// reinterpreted as deleting the underlying rule and all its occurrences.
func (w *Workspace) DeleteOccurrence(occ Occurrence) bool {
	if occ.Virtual {
		return w.DeleteRule(occ.RuleID)
	}
	for i := range w.plans {
		if w.plans[i].ID == occ.ID {
			w.plans = append(w.plans[:i], w.plans[i+1:]...)
			w.dirty[CollPlans] = true
			return true
		}
	}
	return false
}

// LogOccurrence creates a manually-logged session covering the planned slot
// and marks the plan logged, materializing it first when virtual. A plan
// already logged is a no-op.
func (w *Workspace) LogOccurrence(occ Occurrence) (Session, bool) {
	m := w.Materialize(occ)
	p := w.planByID(m.ID)
	if p == nil || p.Logged {
		return Session{}, false
	}
	end := p.End()
	s := Session{
		ID:         w.newID(),
		ItemID:     p.ItemID,
		CategoryID: p.CategoryID,
		Title:      p.Title,
		Start:      p.Start,
		End:        &end,
		Manual:     true,
	}
	p.Logged = true
	w.sessions = append(w.sessions, s)
	w.dirty[CollPlans] = true
	w.dirty[CollSessions] = true
	return s, true
}

// ============================================================
// Recurring rules
// ============================================================

func (w *Workspace) Rules() []RecurringActivity { return w.rules }

// CreateRule validates and adds a recurring rule.
func (w *Workspace) CreateRule(r RecurringActivity) (RecurringActivity, bool) {
	if r.DurationMin <= 0 {
		return RecurringActivity{}, false
	}
	if _, err := timeutil.AtTimeOfDay(w.now(), r.TimeOfDay); err != nil {
		return RecurringActivity{}, false
	}
	if _, ok := r.roption(); !ok {
		return RecurringActivity{}, false
	}
	r.ID = w.newID()
	if r.Anchor.IsZero() {
		r.Anchor = w.now()
	}
	w.rules = append(w.rules, r)
	w.dirty[CollRules] = true
	return r, true
}

// DeleteRule removes the rule and every materialized, still-unlogged plan
// that back-references it, past dates included. Logged plans survive as
// historical fact.
func (w *Workspace) DeleteRule(id string) bool {
	found := false
	for i := range w.rules {
		if w.rules[i].ID == id {
			w.rules = append(w.rules[:i], w.rules[i+1:]...)
			w.dirty[CollRules] = true
			found = true
			break
		}
	}
	if !found {
		return false
	}
	kept := w.plans[:0]
	for _, p := range w.plans {
		if p.RuleID == id && !p.Logged {
			w.dirty[CollPlans] = true
			continue
		}
		kept = append(kept, p)
	}
	w.plans = kept
	return true
}

// ============================================================
// Sessions
// ============================================================

// SessionsFor returns the day's sessions sorted by start time.
func (w *Workspace) SessionsFor(date time.Time) []Session {
	var out []Session
	for _, s := range w.sessions {
		if timeutil.SameDay(s.Start, date) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// BilledFor sums the day's closed session durations.
func (w *Workspace) BilledFor(date time.Time) time.Duration {
	var total time.Duration
	for _, s := range w.sessions {
		if s.End != nil && timeutil.SameDay(s.Start, date) {
			total += s.Duration()
		}
	}
	return total
}

// AddManualSession records an explicitly entered interval. The caller clamps
// to the visible window first; a non-positive interval is rejected here as
// the last line of defense.
func (w *Workspace) AddManualSession(start, end time.Time, title, categoryID, notes string) (Session, bool) {
	if !end.After(start) {
		return Session{}, false
	}
	e := end
	s := Session{
		ID:         w.newID(),
		CategoryID: categoryID,
		Title:      title,
		Start:      start,
		End:        &e,
		Notes:      notes,
		Manual:     true,
	}
	w.sessions = append(w.sessions, s)
	w.dirty[CollSessions] = true
	return s, true
}

// DeleteSession removes a session by id.
func (w *Workspace) DeleteSession(id string) bool {
	for i := range w.sessions {
		if w.sessions[i].ID == id {
			w.sessions = append(w.sessions[:i], w.sessions[i+1:]...)
			w.dirty[CollSessions] = true
			return true
		}
	}
	return false
}

// UpdateSessionNotes replaces a session's notes.
func (w *Workspace) UpdateSessionNotes(id, notes string) bool {
	for i := range w.sessions {
		if w.sessions[i].ID == id {
			w.sessions[i].Notes = notes
			w.dirty[CollSessions] = true
			return true
		}
	}
	return false
}

// ============================================================
// Timer
// ============================================================

func (w *Workspace) TimerRunning() bool { return w.timer.Running() }

func (w *Workspace) ActiveTimer() (ActiveTimer, bool) { return w.timer.Active() }

func (w *Workspace) TimerElapsed() time.Duration { return w.timer.Elapsed() }

// StartTimer starts (or chains into) a timer for the given reference. A
// chained finalize appends its session before the new timer starts.
func (w *Workspace) StartTimer(itemID, subItemID string, startAt *time.Time) bool {
	chained, started := w.timer.Start(itemID, subItemID, startAt)
	if chained != nil {
		w.adoptSession(chained)
	}
	if started {
		w.dirty[CollTimer] = true
	}
	return started
}

// RequestStopTimer applies the two-phase stop. A finalized session is
// adopted into the workspace; StopNeedsNotes leaves the timer running until
// FinalizeTimer.
func (w *Workspace) RequestStopTimer() (StopOutcome, *Session) {
	outcome, s := w.timer.RequestStop()
	if s != nil {
		w.adoptSession(s)
	}
	return outcome, s
}

// FinalizeTimer stops the active timer now with the collected notes.
func (w *Workspace) FinalizeTimer(notes string) *Session {
	s := w.timer.Finalize(notes, w.now())
	if s != nil {
		w.adoptSession(s)
	}
	return s
}

// CancelTimer discards the active timer; no session is created.
func (w *Workspace) CancelTimer() bool {
	if !w.timer.Cancel() {
		return false
	}
	w.dirty[CollTimer] = true
	return true
}

func (w *Workspace) adoptSession(s *Session) {
	if s.Title == "" {
		if s.SubItemID != "" {
			s.Title = w.itemTitle(s.SubItemID)
		} else if s.ItemID != "" {
			s.Title = w.itemTitle(s.ItemID)
		}
	}
	w.sessions = append(w.sessions, *s)
	w.dirty[CollSessions] = true
	w.dirty[CollTimer] = true
}

// ============================================================
// Upcoming plans
// ============================================================

// UpcomingOccurrence reports the next non-logged occurrence of today that
// starts within the given window from now, for the tick-driven notice.
func (w *Workspace) UpcomingOccurrence(now time.Time, within time.Duration) (Occurrence, bool) {
	var best Occurrence
	found := false
	for _, occ := range w.OccurrencesFor(now) {
		if occ.Logged {
			continue
		}
		if occ.Start.After(now) && !occ.Start.After(now.Add(within)) {
			if !found || occ.Start.Before(best.Start) {
				best = occ
				found = true
			}
		}
	}
	return best, found
}

func (w *Workspace) planByID(id string) *PlannedActivity {
	for i := range w.plans {
		if w.plans[i].ID == id {
			return &w.plans[i]
		}
	}
	return nil
}
