package track

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mfriis/stint/internal/timeutil"
)

// testNow is a Wednesday morning.
var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.Local)

func newTestWorkspace() *Workspace {
	w := NewWorkspace()
	w.now = func() time.Time { return testNow }
	n := 0
	w.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	w.timer.now = w.now
	w.timer.newID = w.newID
	return w
}

func hydrated(w *Workspace) *Workspace {
	w.Hydrate(nil, nil, nil, nil, nil)
	return w
}

// fakePersister records wholesale saves and can fail on demand.
type fakePersister struct {
	saved  map[Collection]int
	failOn map[Collection]bool
}

func newFakePersister() *fakePersister {
	return &fakePersister{saved: make(map[Collection]int), failOn: make(map[Collection]bool)}
}

func (f *fakePersister) save(c Collection) error {
	if f.failOn[c] {
		return errors.New("disk full")
	}
	f.saved[c]++
	return nil
}

func (f *fakePersister) SaveSessions([]Session) error { return f.save(CollSessions) }
func (f *fakePersister) SavePlans([]PlannedActivity) error { return f.save(CollPlans) }
func (f *fakePersister) SaveRules([]RecurringActivity) error { return f.save(CollRules) }
func (f *fakePersister) SaveItems([]WorkItem) error { return f.save(CollItems) }
func (f *fakePersister) SaveActiveTimer(*ActiveTimer) error { return f.save(CollTimer) }

func planOn(day time.Time, hour int, id string) PlannedActivity {
	start := timeutil.AtHour(day, hour)
	return PlannedActivity{
		ID:          id,
		Day:         timeutil.DayKey(day),
		Start:       start,
		DurationMin: 60,
		Kind:        KindTask,
		Title:       "plan " + id,
	}
}

// ============================================================
// Rollover
// ============================================================

func TestRolloverMovesStalePlans(t *testing.T) {
	w := newTestWorkspace()
	threeDaysAgo := testNow.AddDate(0, 0, -3)
	stale := planOn(threeDaysAgo, 14, "p-stale")

	w.Hydrate(nil, []PlannedActivity{stale}, nil, nil, nil)

	p := w.planByID("p-stale")
	if p.Day != timeutil.DayKey(testNow) {
		t.Fatalf("day key = %q, want today", p.Day)
	}
	if p.Start.Hour() != 14 || p.Start.Minute() != 0 || !timeutil.SameDay(p.Start, testNow) {
		t.Fatalf("start = %v, want today 14:00", p.Start)
	}
	if !w.dirty[CollPlans] {
		t.Fatal("rollover must mark plans dirty")
	}
}

func TestRolloverSkipsLoggedAndRecurring(t *testing.T) {
	w := newTestWorkspace()
	old := testNow.AddDate(0, 0, -2)
	logged := planOn(old, 9, "p-logged")
	logged.Logged = true
	ruled := planOn(old, 11, "p-ruled")
	ruled.RuleID = "rule-1"

	w.Hydrate(nil, []PlannedActivity{logged, ruled}, nil, nil, nil)

	if w.planByID("p-logged").Day != timeutil.DayKey(old) {
		t.Fatal("logged plan must not roll over")
	}
	if w.planByID("p-ruled").Day != timeutil.DayKey(old) {
		t.Fatal("rule-linked plan must not roll over")
	}
}

// ============================================================
// Occurrence merging
// ============================================================

func TestOccurrencesMergeMaterializedAndVirtual(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	rule.Anchor = testNow.AddDate(0, 0, -30)
	plain := planOn(testNow, 8, "p-1")

	w.Hydrate(nil, []PlannedActivity{plain}, []RecurringActivity{rule}, nil, nil)

	occs := w.OccurrencesFor(testNow)
	if len(occs) != 2 {
		t.Fatalf("expected materialized + virtual, got %d: %+v", len(occs), occs)
	}
	if occs[0].Virtual || occs[0].ID != "p-1" {
		t.Fatal("materialized rows must group first")
	}
	if !occs[1].Virtual || occs[1].RuleID != rule.ID {
		t.Fatalf("second occurrence should be the rule's ghost: %+v", occs[1])
	}
}

func TestMaterializedRowShadowsVirtual(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	rule.Anchor = testNow.AddDate(0, 0, -30)
	mat := planOn(testNow, 9, "p-mat")
	mat.RuleID = rule.ID

	w.Hydrate(nil, []PlannedActivity{mat}, []RecurringActivity{rule}, nil, nil)

	occs := w.OccurrencesFor(testNow)
	if len(occs) != 1 {
		t.Fatalf("materialized row must shadow the virtual one, got %d", len(occs))
	}
	if occs[0].Virtual {
		t.Fatal("the surviving occurrence should be the materialized row")
	}

	// Other days are unaffected: the ghost still appears tomorrow.
	tomorrow := testNow.AddDate(0, 0, 1)
	occs = w.OccurrencesFor(tomorrow)
	if len(occs) != 1 || !occs[0].Virtual {
		t.Fatalf("tomorrow should still get the ghost, got %+v", occs)
	}
}

func TestCompleteItemHidesUnloggedPlan(t *testing.T) {
	w := newTestWorkspace()
	item := WorkItem{ID: "item-1", Title: "Project X", Complete: true}
	hidden := planOn(testNow, 9, "p-hidden")
	hidden.ItemID = "item-1"
	visible := planOn(testNow, 11, "p-visible")
	visible.ItemID = "item-1"
	visible.Logged = true

	w.Hydrate(nil, []PlannedActivity{hidden, visible}, nil, []WorkItem{item}, nil)

	occs := w.OccurrencesFor(testNow)
	if len(occs) != 1 || occs[0].ID != "p-visible" {
		t.Fatalf("only the logged plan should show, got %+v", occs)
	}
}

// ============================================================
// Materialization
// ============================================================

func TestMaterializeVirtualOccurrence(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	rule.Anchor = testNow.AddDate(0, 0, -30)
	w.Hydrate(nil, nil, []RecurringActivity{rule}, nil, nil)

	occs := w.OccurrencesFor(testNow)
	p := w.Materialize(occs[0])

	if p.ID == occs[0].ID {
		t.Fatal("materialization must mint a fresh id")
	}
	if p.RuleID != rule.ID {
		t.Fatal("back-reference must be preserved")
	}

	// The merged view now shows exactly one, materialized, occurrence.
	occs = w.OccurrencesFor(testNow)
	if len(occs) != 1 || occs[0].Virtual {
		t.Fatalf("after materializing: %+v", occs)
	}
}

func TestMaterializeIsIdempotentForMaterialized(t *testing.T) {
	w := hydrated(newTestWorkspace())
	p, _ := w.CreatePlan(timeutil.AtHour(testNow, 9), 30, KindTask, "", "", "x")
	again := w.Materialize(Occurrence{PlannedActivity: p})
	if again.ID != p.ID || len(w.plans) != 1 {
		t.Fatal("materializing a materialized occurrence must not duplicate it")
	}
}

func TestDeleteMaterializedGhostRemovesRule(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	rule.Anchor = testNow.AddDate(0, 0, -30)
	w.Hydrate(nil, nil, []RecurringActivity{rule}, nil, nil)

	// Deleting a ghost is reinterpreted as deleting the underlying rule,
	// not as creating-then-deleting a single materialized row.
	occ := w.OccurrencesFor(testNow)[0]
	if !w.DeleteOccurrence(occ) {
		t.Fatal("delete failed")
	}
	if len(w.rules) != 0 {
		t.Fatal("deleting a virtual occurrence must remove the underlying rule")
	}

	// No future occurrences of that rule appear on any later date.
	for d := 0; d < 30; d++ {
		if occs := w.OccurrencesFor(testNow.AddDate(0, 0, d)); len(occs) != 0 {
			t.Fatalf("rule still produces occurrences %d days on: %+v", d, occs)
		}
	}
}

func TestDeleteRuleRemovesUnloggedKeepsLogged(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	unlogged := planOn(testNow.AddDate(0, 0, -5), 9, "p-un")
	unlogged.RuleID = rule.ID
	unlogged.Logged = false
	loggedP := planOn(testNow.AddDate(0, 0, -4), 9, "p-lg")
	loggedP.RuleID = rule.ID
	loggedP.Logged = true

	w.Hydrate(nil, []PlannedActivity{unlogged, loggedP}, []RecurringActivity{rule}, nil, nil)

	if !w.DeleteRule(rule.ID) {
		t.Fatal("delete rule failed")
	}
	if w.planByID("p-un") != nil {
		t.Fatal("unlogged back-referencing plan must vanish with the rule")
	}
	if w.planByID("p-lg") == nil {
		t.Fatal("logged plan survives rule deletion as historical fact")
	}
}

// ============================================================
// Moving and logging occurrences
// ============================================================

func TestMoveVirtualOccurrenceMaterializesFirst(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	rule.Anchor = testNow.AddDate(0, 0, -30)
	w.Hydrate(nil, nil, []RecurringActivity{rule}, nil, nil)

	occ := w.OccurrencesFor(testNow)[0]
	newStart := timeutil.AtHour(testNow, 16)
	p, ok := w.MoveOccurrence(occ, newStart)
	if !ok {
		t.Fatal("move failed")
	}
	if !p.Start.Equal(newStart) || p.Day != timeutil.DayKey(newStart) {
		t.Fatalf("moved plan = %+v", p)
	}
	if p.RuleID != rule.ID {
		t.Fatal("move must preserve the back-reference")
	}
	if len(w.plans) != 1 {
		t.Fatal("move should have materialized exactly one plan")
	}
}

func TestMoveLoggedOccurrenceRejected(t *testing.T) {
	w := hydrated(newTestWorkspace())
	p, _ := w.CreatePlan(timeutil.AtHour(testNow, 9), 30, KindTask, "", "", "x")
	w.planByID(p.ID).Logged = true
	occ := Occurrence{PlannedActivity: *w.planByID(p.ID)}
	if _, ok := w.MoveOccurrence(occ, timeutil.AtHour(testNow, 12)); ok {
		t.Fatal("logged occurrences must not move")
	}
}

func TestLogOccurrenceCreatesManualSession(t *testing.T) {
	w := newTestWorkspace()
	rule := baseRule(FreqDaily)
	rule.Anchor = testNow.AddDate(0, 0, -30)
	w.Hydrate(nil, nil, []RecurringActivity{rule}, nil, nil)

	occ := w.OccurrencesFor(testNow)[0]
	s, ok := w.LogOccurrence(occ)
	if !ok {
		t.Fatal("log failed")
	}
	if !s.Manual {
		t.Fatal("session must be flagged manually logged")
	}
	if s.End == nil || s.End.Sub(s.Start) != 30*time.Minute {
		t.Fatalf("session should cover the planned slot, got %v", s.End.Sub(s.Start))
	}

	occs := w.OccurrencesFor(testNow)
	if len(occs) != 1 || !occs[0].Logged {
		t.Fatalf("plan should now be materialized and logged: %+v", occs)
	}

	// Logging again is a no-op.
	if _, ok := w.LogOccurrence(occs[0]); ok {
		t.Fatal("double log must be rejected")
	}
	if len(w.sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(w.sessions))
	}
}

func TestCreatePlanRejectsNonPositiveDuration(t *testing.T) {
	w := hydrated(newTestWorkspace())
	if _, ok := w.CreatePlan(testNow, 0, KindTask, "", "", "x"); ok {
		t.Fatal("zero duration must be rejected")
	}
	if _, ok := w.CreatePlan(testNow, -15, KindQuick, "", "", "x"); ok {
		t.Fatal("negative duration must be rejected")
	}
}

func TestCreatePlanDerivesDayKey(t *testing.T) {
	w := hydrated(newTestWorkspace())
	start := time.Date(2026, 4, 16, 23, 45, 0, 0, time.Local)
	p, ok := w.CreatePlan(start, 30, KindTask, "", "", "late")
	if !ok {
		t.Fatal("create failed")
	}
	if p.Day != "2026-04-16" {
		t.Fatalf("day key = %q", p.Day)
	}
}

// ============================================================
// Sessions and goal arithmetic
// ============================================================

func TestSessionsForSortsByStart(t *testing.T) {
	w := hydrated(newTestWorkspace())
	w.AddManualSession(timeutil.AtHour(testNow, 14), timeutil.AtHour(testNow, 15), "b", "", "")
	w.AddManualSession(timeutil.AtHour(testNow, 9), timeutil.AtHour(testNow, 10), "a", "", "")
	w.AddManualSession(timeutil.AtHour(testNow.AddDate(0, 0, 1), 9), timeutil.AtHour(testNow.AddDate(0, 0, 1), 10), "other day", "", "")

	got := w.SessionsFor(testNow)
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions today, got %d", len(got))
	}
	if got[0].Title != "a" || got[1].Title != "b" {
		t.Fatal("sessions not sorted by start")
	}
}

func TestBilledFor(t *testing.T) {
	w := hydrated(newTestWorkspace())
	w.AddManualSession(timeutil.AtHour(testNow, 9), timeutil.AtHour(testNow, 10), "a", "", "")
	w.AddManualSession(timeutil.AtHour(testNow, 11), timeutil.AtHour(testNow, 11).Add(30*time.Minute), "b", "", "")
	if got := w.BilledFor(testNow); got != 90*time.Minute {
		t.Fatalf("BilledFor = %v, want 90m", got)
	}
	if got := w.BilledFor(testNow.AddDate(0, 0, 1)); got != 0 {
		t.Fatalf("other day should bill 0, got %v", got)
	}
}

func TestAddManualSessionRejectsCollapsed(t *testing.T) {
	w := hydrated(newTestWorkspace())
	at := timeutil.AtHour(testNow, 9)
	if _, ok := w.AddManualSession(at, at, "x", "", ""); ok {
		t.Fatal("zero-length interval must be rejected")
	}
	if _, ok := w.AddManualSession(at, at.Add(-time.Hour), "x", "", ""); ok {
		t.Fatal("negative interval must be rejected")
	}
}

// ============================================================
// Timer integration
// ============================================================

func TestStartTimerChainProducesOneSession(t *testing.T) {
	w := hydrated(newTestWorkspace())
	if !w.StartTimer("item-1", "", nil) {
		t.Fatal("first start failed")
	}
	if !w.StartTimer("item-2", "", nil) {
		t.Fatal("chained start failed")
	}

	if len(w.sessions) != 1 {
		t.Fatalf("chain must finalize exactly one session, got %d", len(w.sessions))
	}
	at, ok := w.ActiveTimer()
	if !ok || at.ItemID != "item-2" {
		t.Fatalf("active timer = %+v, want item-2", at)
	}
}

func TestRequestStopTimerTwoPhase(t *testing.T) {
	w := newTestWorkspace()
	items := []WorkItem{
		{ID: "item-1", Title: "Client portal"},
		{ID: "sub-1", ParentID: "item-1", Title: "fix navbar"},
	}
	w.Hydrate(nil, nil, nil, items, nil)

	// Sub-linked: auto-finalize with the sub title as notes.
	w.StartTimer("item-1", "sub-1", nil)
	outcome, s := w.RequestStopTimer()
	if outcome != StopFinalized || s == nil || s.Notes != "fix navbar" {
		t.Fatalf("outcome=%v session=%+v", outcome, s)
	}
	if s.Title != "fix navbar" {
		t.Fatalf("session title should come from the sub-item, got %q", s.Title)
	}

	// Top-level: needs notes, then finalize.
	w.StartTimer("item-1", "", nil)
	outcome, _ = w.RequestStopTimer()
	if outcome != StopNeedsNotes {
		t.Fatalf("outcome = %v, want StopNeedsNotes", outcome)
	}
	s2 := w.FinalizeTimer("did the thing")
	if s2 == nil || s2.Notes != "did the thing" || s2.Title != "Client portal" {
		t.Fatalf("finalized session = %+v", s2)
	}
	if len(w.sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(w.sessions))
	}
}

func TestCancelTimerCreatesNoSession(t *testing.T) {
	w := hydrated(newTestWorkspace())
	w.StartTimer("item-1", "", nil)
	if !w.CancelTimer() {
		t.Fatal("cancel failed")
	}
	if len(w.sessions) != 0 {
		t.Fatal("cancel must not create a session")
	}
	if w.CancelTimer() {
		t.Fatal("cancel while idle is a no-op")
	}
}

func TestHydrateRestoresTimer(t *testing.T) {
	w := newTestWorkspace()
	at := ActiveTimer{ItemID: "item-1", Start: testNow.Add(-20 * time.Minute)}
	w.Hydrate(nil, nil, nil, nil, &at)
	if !w.TimerRunning() {
		t.Fatal("persisted timer should resume")
	}
	if w.TimerElapsed() != 20*time.Minute {
		t.Fatalf("elapsed = %v", w.TimerElapsed())
	}
}

// ============================================================
// Flush gating and dirty tracking
// ============================================================

func TestFlushBeforeHydrationIsNoop(t *testing.T) {
	w := newTestWorkspace()
	p := newFakePersister()
	if err := w.Flush(p); err != nil {
		t.Fatal(err)
	}
	if len(p.saved) != 0 {
		t.Fatal("pre-hydration flush must never write")
	}
}

func TestFlushWritesOnlyDirtyCollections(t *testing.T) {
	w := hydrated(newTestWorkspace())
	w.CreatePlan(timeutil.AtHour(testNow, 9), 30, KindTask, "", "", "x")

	p := newFakePersister()
	if err := w.Flush(p); err != nil {
		t.Fatal(err)
	}
	if p.saved[CollPlans] != 1 {
		t.Fatal("plans should have been saved")
	}
	if p.saved[CollSessions] != 0 || p.saved[CollRules] != 0 {
		t.Fatalf("clean collections must not be written: %+v", p.saved)
	}

	// Second flush with nothing new writes nothing.
	if err := w.Flush(p); err != nil {
		t.Fatal(err)
	}
	if p.saved[CollPlans] != 1 {
		t.Fatal("clean plans flushed again")
	}
}

func TestFlushFailureKeepsCollectionDirty(t *testing.T) {
	w := hydrated(newTestWorkspace())
	w.CreatePlan(timeutil.AtHour(testNow, 9), 30, KindTask, "", "", "x")

	p := newFakePersister()
	p.failOn[CollPlans] = true
	if err := w.Flush(p); err == nil {
		t.Fatal("expected flush error")
	}

	// The write is retried once the persister recovers.
	p.failOn[CollPlans] = false
	if err := w.Flush(p); err != nil {
		t.Fatal(err)
	}
	if p.saved[CollPlans] != 1 {
		t.Fatal("failed collection should stay dirty and retry")
	}
}

// ============================================================
// Upcoming occurrences
// ============================================================

func TestUpcomingOccurrence(t *testing.T) {
	w := hydrated(newTestWorkspace())
	w.CreatePlan(testNow.Add(30*time.Second), 30, KindTask, "", "", "imminent")
	w.CreatePlan(testNow.Add(3*time.Hour), 30, KindTask, "", "", "later")

	occ, ok := w.UpcomingOccurrence(testNow, time.Minute)
	if !ok || occ.Title != "imminent" {
		t.Fatalf("got %+v ok=%v", occ, ok)
	}

	if _, ok := w.UpcomingOccurrence(testNow.Add(2*time.Minute), time.Minute); ok {
		t.Fatal("window should have passed")
	}
}
