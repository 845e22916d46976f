package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfriis/stint/internal/store"
	"github.com/mfriis/stint/internal/track"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestTimeline builds a hydrated workspace over an in-memory store and a
// timeline pointed at today. Fixture times are hours on today's date so the
// rollover pass leaves them alone.
func newTestTimeline(t *testing.T, sessions []track.Session, plans []track.PlannedActivity, rules []track.RecurringActivity, items []track.WorkItem) (timelineModel, *track.Workspace) {
	t.Helper()
	st := newTestStore(t)
	ws := track.NewWorkspace()
	ws.Hydrate(sessions, plans, rules, items, nil)

	tl := newTimelineModel(ws, st)
	tl.setSize(120, 40)
	return tl, ws
}

func todayAt(hour, min int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.Local)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

// ============================================================
// Timeline: day view building
// ============================================================

func TestTimelineRebuildMergesSessionsAndOccurrences(t *testing.T) {
	end := todayAt(10, 0)
	sessions := []track.Session{
		{ID: "s-1", Title: "morning work", Start: todayAt(9, 0), End: &end},
		{ID: "s-open", Title: "running", Start: todayAt(10, 0)}, // open, belongs to the timer readout
	}
	plans := []track.PlannedActivity{
		{ID: "p-1", Day: dayKeyToday(), Start: todayAt(14, 0), DurationMin: 60, Kind: track.KindTask, Title: "review"},
	}
	tl, _ := newTestTimeline(t, sessions, plans, nil, nil)

	if len(tl.entries) != 2 {
		t.Fatalf("expected 2 entries (closed session + plan), got %d", len(tl.entries))
	}
	if !tl.entries[0].isSession || tl.entries[0].sess.ID != "s-1" {
		t.Fatalf("first entry = %+v", tl.entries[0])
	}
	if tl.entries[1].isSession || tl.entries[1].occ.ID != "p-1" {
		t.Fatalf("second entry = %+v", tl.entries[1])
	}
}

func TestTimelineShowsVirtualOccurrences(t *testing.T) {
	rule := track.RecurringActivity{
		ID:          "r-1",
		Anchor:      todayAt(0, 0).AddDate(0, 0, -30),
		Kind:        track.KindTask,
		Title:       "standup",
		TimeOfDay:   "09:30",
		DurationMin: 15,
		Frequency:   track.FreqWeekly,
		WeekDays:    []time.Weekday{time.Now().Weekday()},
	}
	tl, _ := newTestTimeline(t, nil, nil, []track.RecurringActivity{rule}, nil)

	if len(tl.entries) != 1 {
		t.Fatalf("expected 1 virtual entry, got %d", len(tl.entries))
	}
	if !tl.entries[0].occ.Virtual {
		t.Fatal("rule occurrence should be virtual")
	}
}

func TestTimelineEntryAt(t *testing.T) {
	end := todayAt(10, 0)
	tl, _ := newTestTimeline(t, []track.Session{
		{ID: "s-1", Start: todayAt(9, 0), End: &end},
	}, nil, nil, nil)

	// Window starts at 06:00 by default; 09:00 is 3 hours = 6 rows in.
	y := gridTopRow + (9-6)*rowsPerHour
	if got := tl.entryAt(y); got != 0 {
		t.Fatalf("entryAt(%d) = %d, want 0", y, got)
	}
	// 12:00 slot is empty.
	if got := tl.entryAt(gridTopRow + (12-6)*rowsPerHour); got != -1 {
		t.Fatal("empty slot should map to -1")
	}
	// Above the grid.
	if got := tl.entryAt(0); got != -1 {
		t.Fatal("header rows should map to -1")
	}
}

func TestTimelineGridPlacesEntriesByHour(t *testing.T) {
	end := todayAt(10, 30)
	tl, _ := newTestTimeline(t, []track.Session{
		{ID: "s-1", Title: "morning work", Start: todayAt(9, 30), End: &end},
	}, nil, nil, nil)

	lines := strings.Split(tl.renderGrid(), "\n")

	// 09:30 with a 06:00 window start is three and a half hours in: row 7.
	row := (9-6)*rowsPerHour + 1
	if !strings.Contains(lines[row], "morning work") {
		t.Fatalf("row %d = %q, want the 09:30 entry", row, lines[row])
	}
	// The half-hour row above holds only the hour rail.
	if strings.Contains(lines[row-1], "morning work") {
		t.Fatal("entry rendered a row early")
	}
	// Continuation marker on the second half hour of the session.
	if !strings.Contains(lines[row+1], "┆") {
		t.Fatalf("row %d = %q, want a continuation marker", row+1, lines[row+1])
	}
}

// ============================================================
// Timeline: keyboard move mode
// ============================================================

func TestTimelineKeyboardMove(t *testing.T) {
	plans := []track.PlannedActivity{
		{ID: "p-1", Day: dayKeyToday(), Start: todayAt(14, 0), DurationMin: 60, Kind: track.KindTask, Title: "review"},
	}
	tl, ws := newTestTimeline(t, nil, plans, nil, nil)

	tl, _ = tl.update(keyRune('m'))
	if !tl.moving {
		t.Fatal("m should enter move mode on a plan")
	}

	// Two nudges up = 30 minutes earlier.
	tl, _ = tl.update(tea.KeyMsg{Type: tea.KeyUp})
	tl, _ = tl.update(tea.KeyMsg{Type: tea.KeyUp})
	tl, cmd := tl.update(tea.KeyMsg{Type: tea.KeyEnter})
	if tl.moving {
		t.Fatal("enter should leave move mode")
	}
	runCmd(t, cmd)

	occs := ws.OccurrencesFor(time.Now())
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	want := todayAt(13, 30)
	if !occs[0].Start.Equal(want) {
		t.Fatalf("moved start = %v, want %v", occs[0].Start, want)
	}
}

func TestTimelineMoveRejectsLogged(t *testing.T) {
	plans := []track.PlannedActivity{
		{ID: "p-1", Day: dayKeyToday(), Start: todayAt(14, 0), DurationMin: 60, Kind: track.KindTask, Logged: true},
	}
	tl, _ := newTestTimeline(t, nil, plans, nil, nil)

	tl, cmd := tl.update(keyRune('m'))
	if tl.moving {
		t.Fatal("logged plans must not enter move mode")
	}
	msg := runCmd(t, cmd)
	if sm, ok := msg.(statusMsg); !ok || !sm.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// ============================================================
// Timeline: mouse drag
// ============================================================

func TestTimelineMouseDrag(t *testing.T) {
	plans := []track.PlannedActivity{
		{ID: "p-1", Day: dayKeyToday(), Start: todayAt(14, 0), DurationMin: 60, Kind: track.KindTask},
	}
	tl, ws := newTestTimeline(t, nil, plans, nil, nil)

	// Press on the plan (14:00 = 8 hours past 06:00 = row 16).
	pressY := gridTopRow + (14-6)*rowsPerHour
	tl, _ = tl.update(tea.MouseMsg{Y: pressY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !tl.dragging {
		t.Fatal("press on a plan should start a drag")
	}

	// Drag two rows down = +1 hour.
	tl, _ = tl.update(tea.MouseMsg{Y: pressY + 2, Action: tea.MouseActionMotion})
	tl, cmd := tl.update(tea.MouseMsg{Y: pressY + 2, Action: tea.MouseActionRelease})
	if tl.dragging {
		t.Fatal("release should end the drag")
	}
	runCmd(t, cmd)

	occs := ws.OccurrencesFor(time.Now())
	want := todayAt(15, 0)
	if !occs[0].Start.Equal(want) {
		t.Fatalf("dragged start = %v, want %v", occs[0].Start, want)
	}
}

// ============================================================
// Timeline: timer flows
// ============================================================

func TestTimelineStopWithoutTimer(t *testing.T) {
	tl, _ := newTestTimeline(t, nil, nil, nil, nil)
	tl, cmd := tl.stopTimer()
	if tl.formActive {
		t.Fatal("no form expected")
	}
	msg := runCmd(t, cmd)
	if sm, ok := msg.(statusMsg); !ok || sm.text != "No timer running" {
		t.Fatalf("got %#v", msg)
	}
}

func TestTimelineTwoPhaseStop(t *testing.T) {
	items := []track.WorkItem{{ID: "i-1", Title: "Client portal"}}
	tl, ws := newTestTimeline(t, nil, nil, nil, items)
	ws.StartTimer("i-1", "", nil)

	// Top-level timer: stop must collect notes first.
	tl, _ = tl.stopTimer()
	if !tl.formActive || tl.formKind != formNotes {
		t.Fatal("top-level stop should open the notes form")
	}
	if !ws.TimerRunning() {
		t.Fatal("timer must keep running until notes are submitted")
	}

	*tl.fNotes = "wrapped up the header"
	tl.formActive = false
	tl, cmd := tl.submitNotes()
	runCmd(t, cmd)

	if ws.TimerRunning() {
		t.Fatal("finalize should stop the timer")
	}
	sessions := ws.SessionsFor(time.Now())
	if len(sessions) != 1 || sessions[0].Notes != "wrapped up the header" {
		t.Fatalf("sessions = %+v", sessions)
	}
}

func TestTimelineSubItemStopFinalizesDirectly(t *testing.T) {
	items := []track.WorkItem{
		{ID: "i-1", Title: "Client portal"},
		{ID: "sub-1", ParentID: "i-1", Title: "fix navbar"},
	}
	tl, ws := newTestTimeline(t, nil, nil, nil, items)
	ws.StartTimer("i-1", "sub-1", nil)

	tl, cmd := tl.stopTimer()
	if tl.formActive {
		t.Fatal("sub-item stop needs no notes form")
	}
	runCmd(t, cmd)
	if ws.TimerRunning() {
		t.Fatal("timer should be finalized")
	}
	sessions := ws.SessionsFor(time.Now())
	if len(sessions) != 1 || sessions[0].Notes != "fix navbar" {
		t.Fatalf("sessions = %+v", sessions)
	}
}

// ============================================================
// Timeline: fill gap
// ============================================================

func TestTimelineFillGap(t *testing.T) {
	end1 := todayAt(10, 30)
	end2 := todayAt(12, 0)
	sessions := []track.Session{
		{ID: "s-1", Start: todayAt(10, 0), End: &end1},
		{ID: "s-2", Start: todayAt(11, 0), End: &end2},
	}
	tl, ws := newTestTimeline(t, sessions, nil, nil, nil)

	// Fill before the 11:00 session: prior busy edge is 10:30.
	tl.cursor = 1
	tl, _ = tl.update(keyRune('f'))
	if !tl.formActive || tl.formKind != formFill {
		t.Fatal("f should open the fill form")
	}
	if !tl.fillStart.Equal(todayAt(10, 30)) {
		t.Fatalf("fill start = %v, want 10:30", tl.fillStart)
	}

	// Asking for 60 minutes must be capped at the 30 available.
	*tl.fTitle = "email triage"
	*tl.fDuration = "60"
	tl.formActive = false
	tl, cmd := tl.submitFill()
	runCmd(t, cmd)

	got := ws.SessionsFor(time.Now())
	if len(got) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got))
	}
	filled := got[1]
	if !filled.Start.Equal(todayAt(10, 30)) || !filled.End.Equal(todayAt(11, 0)) {
		t.Fatalf("filled = %v–%v, want 10:30–11:00", filled.Start, filled.End)
	}
}

// ============================================================
// Timeline: upcoming notice
// ============================================================

func TestTimelineUpcomingNoticeFiresOnce(t *testing.T) {
	tl, ws := newTestTimeline(t, nil, nil, nil, nil)
	ws.CreatePlan(time.Now().Add(30*time.Second), 30, track.KindTask, "", "", "standup")
	tl.rebuild()

	tl, cmd := tl.checkUpcoming()
	msg := runCmd(t, cmd)
	sm, ok := msg.(statusMsg)
	if !ok || !strings.Contains(sm.text, "standup") {
		t.Fatalf("got %#v", msg)
	}

	// Same occurrence must not be announced twice.
	_, cmd = tl.checkUpcoming()
	if cmd != nil {
		t.Fatal("notice should be one-shot per occurrence")
	}
}

// ============================================================
// Planner
// ============================================================

func TestPlannerSubmitCreatesRule(t *testing.T) {
	ws := track.NewWorkspace()
	ws.Hydrate(nil, nil, nil, nil, nil)
	p := newPlannerModel(ws)

	*p.pTitle = "standup"
	*p.pTime = "09:30"
	*p.pDuration = "15"
	*p.pFreq = string(track.FreqWeekly)
	*p.pDays = []string{"1", "3"}

	p, cmd := p.submit()
	runCmd(t, cmd)

	rules := ws.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.TimeOfDay != "09:30" || len(r.WeekDays) != 2 || r.WeekDays[0] != time.Monday {
		t.Fatalf("rule = %+v", r)
	}
	if r.Anchor.IsZero() {
		t.Fatal("anchor should default to now")
	}
}

func TestPlannerSubmitRejectsBadDuration(t *testing.T) {
	ws := track.NewWorkspace()
	ws.Hydrate(nil, nil, nil, nil, nil)
	p := newPlannerModel(ws)

	*p.pDuration = "zero"
	p, cmd := p.submit()
	msg := runCmd(t, cmd)
	if sm, ok := msg.(statusMsg); !ok || !sm.isError {
		t.Fatalf("got %#v", msg)
	}
	if len(ws.Rules()) != 0 {
		t.Fatal("no rule should be created")
	}
}

func TestDescribeRule(t *testing.T) {
	anchor := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	tests := []struct {
		rule track.RecurringActivity
		want string
	}{
		{track.RecurringActivity{Frequency: track.FreqDaily}, "every weekday"},
		{track.RecurringActivity{Frequency: track.FreqWeekly, WeekDays: []time.Weekday{time.Monday, time.Wednesday}}, "weekly on Mon, Wed"},
		{track.RecurringActivity{Frequency: track.FreqWeekly}, "weekly (no days)"},
		{track.RecurringActivity{Frequency: track.FreqFortnightly, Anchor: anchor}, "every 2 weeks from Mar 02"},
		{track.RecurringActivity{Frequency: track.FreqMonthly, MonthDay: 15}, "monthly on day 15"},
		{track.RecurringActivity{Frequency: track.FreqMonthlyNth, NthWeek: 2, NthWeekDay: time.Tuesday}, "second Tuesday of the month"},
		{track.RecurringActivity{Frequency: track.FreqMonthlyNth, NthWeek: 5, NthWeekDay: time.Friday}, "last Friday of the month"},
	}
	for _, tt := range tests {
		if got := describeRule(tt.rule); got != tt.want {
			t.Errorf("describeRule(%s) = %q, want %q", tt.rule.Frequency, got, tt.want)
		}
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsSaveValidates(t *testing.T) {
	st := newTestStore(t)
	s := newSettingsModel(st)

	*s.dayStart = "8"
	*s.dayEnd = "18"
	*s.dailyGoal = "6"
	if err := s.saveSettings(); err != nil {
		t.Fatal(err)
	}
	start, end := st.DayWindowHours()
	if start != 8 || end != 18 {
		t.Fatalf("window = %d-%d", start, end)
	}
	if st.DailyGoalHours() != 6 {
		t.Fatalf("goal = %v", st.DailyGoalHours())
	}

	*s.dayEnd = "7" // before start
	if err := s.saveSettings(); err == nil {
		t.Fatal("end before start should be rejected")
	}
	*s.dayEnd = "18"
	*s.dailyGoal = "-1"
	if err := s.saveSettings(); err == nil {
		t.Fatal("negative goal should be rejected")
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, val, want string
	}{
		{"day_start_hour", "6", "06:00"},
		{"day_end_hour", "22", "22:00"},
		{"daily_goal_hours", "7.5", "7.5 hours"},
		{"day_start_hour", "invalid", "invalid"},
		{"unknown_key", "raw", "raw"},
	}
	for _, tt := range tests {
		got := formatSettingValue(tt.key, tt.val)
		if got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.val, got, tt.want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) App {
	t.Helper()
	st := newTestStore(t)
	ws := track.NewWorkspace()
	ws.Hydrate(nil, nil, nil, nil, nil)
	return NewApp(ws, st)
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.activeView != viewTimeline {
		t.Fatal("default view should be the timeline")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.isCapturing() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	if app.View() != "Loading..." {
		t.Fatal("unsized app should show the loading screen")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40
	app.timeline.setSize(120, 36)
	app.planner.setSize(120, 36)
	app.reports.setSize(120, 36)
	app.settings.setSize(120, 36)
	app.reports.rebuild()

	for _, v := range []viewState{viewTimeline, viewPlanner, viewReports, viewSettings} {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40
	app.status = "test status"

	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppTickFlushes(t *testing.T) {
	st := newTestStore(t)
	ws := track.NewWorkspace()
	ws.Hydrate(nil, nil, nil, nil, nil)
	app := NewApp(ws, st)

	ws.CreatePlan(todayAt(14, 0), 60, track.KindTask, "", "", "review")

	model, _ := app.Update(tickMsg(time.Now()))
	app = model.(App)

	plans, err := st.LoadPlans()
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 || plans[0].Title != "review" {
		t.Fatalf("tick should flush dirty plans, got %+v", plans)
	}
}

// ============================================================
// View state and key bindings
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	expected := []string{"Timeline", "Planner", "Reports", "Settings"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewTimeline != 0 || viewPlanner != 1 || viewReports != 2 || viewSettings != 3 {
		t.Fatal("view state constants out of order")
	}
}

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"ghost", func() string { return ghostStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

func dayKeyToday() string {
	return time.Now().Format("2006-01-02")
}
