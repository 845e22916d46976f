package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfriis/stint/internal/schedule"
	"github.com/mfriis/stint/internal/store"
	"github.com/mfriis/stint/internal/timeutil"
	"github.com/mfriis/stint/internal/track"
)

// rowsPerHour is the vertical resolution of the day grid: one terminal row
// per 30 minutes. It doubles as the pixels-per-hour scale of the drag math,
// so a one-row pointer drag moves an activity by half an hour before the
// quarter-hour snap.
const rowsPerHour = 2

// gridTopRow is the absolute terminal row where the day grid begins: app
// header (2 rows) plus the date, timer and spacer lines rendered above the
// grid. Mouse hit-testing subtracts it from event coordinates.
const gridTopRow = 5

const (
	formNotes = "notes"
	formPlan  = "plan"
	formEntry = "entry"
	formFill  = "fill"
)

// timelineEntry is one rendered block on the day grid: a closed session or a
// merged occurrence (materialized or virtual).
type timelineEntry struct {
	isSession bool
	sess      track.Session
	occ       track.Occurrence
	start     time.Time
	end       time.Time
}

func (e timelineEntry) title() string {
	var s string
	if e.isSession {
		s = e.sess.Title
	} else {
		s = e.occ.Title
	}
	if s == "" {
		s = "(untitled)"
	}
	return s
}

type timelineModel struct {
	ws     *track.Workspace
	st     *store.Store
	width  int
	height int

	date               time.Time
	startHour, endHour int

	entries []timelineEntry
	cursor  int

	// Keyboard move mode: accumulated delta in grid rows.
	moving    bool
	moveDelta float64

	// Mouse drag state.
	dragging  bool
	dragIdx   int
	dragFromY int
	dragDelta float64

	// Work-item picker for starting a timer.
	picking    bool
	pickSub    bool
	pickItems  []track.WorkItem
	pickCursor int
	pickParent track.WorkItem

	formActive bool
	form       *huh.Form
	formKind   string
	fillStart  time.Time

	// Form field pointers (survive value copies)
	fTitle    *string
	fNotes    *string
	fStart    *string
	fEnd      *string
	fDuration *string
	fKind     *string

	// Upcoming-plan notice dedup: id of the last occurrence announced.
	noticedID string
}

func newTimelineModel(ws *track.Workspace, st *store.Store) timelineModel {
	title, notes, start, end, dur := "", "", "", "", ""
	kind := string(track.KindTask)
	m := timelineModel{
		ws:        ws,
		st:        st,
		date:      time.Now(),
		fTitle:    &title,
		fNotes:    &notes,
		fStart:    &start,
		fEnd:      &end,
		fDuration: &dur,
		fKind:     &kind,
	}
	m.rebuild()
	return m
}

func (t *timelineModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// captures reports whether the timeline is in a mode that must see every key
// before the app-level bindings do.
func (t timelineModel) captures() bool {
	return t.formActive || t.picking || t.moving || t.dragging
}

// rebuild refreshes the merged day view: occurrences (materialized plus
// virtual) and closed sessions, ordered by start. The open session, if any,
// is represented by the timer readout instead.
func (t *timelineModel) rebuild() {
	t.startHour, t.endHour = t.st.DayWindowHours()

	var es []timelineEntry
	for _, occ := range t.ws.OccurrencesFor(t.date) {
		es = append(es, timelineEntry{occ: occ, start: occ.Start, end: occ.End()})
	}
	for _, s := range t.ws.SessionsFor(t.date) {
		if s.End == nil {
			continue
		}
		es = append(es, timelineEntry{isSession: true, sess: s, start: s.Start, end: *s.End})
	}
	sort.Slice(es, func(i, j int) bool { return es[i].start.Before(es[j].start) })
	t.entries = es
	if t.cursor >= len(es) {
		t.cursor = max(0, len(es)-1)
	}
}

func (t timelineModel) window() schedule.Window {
	return schedule.DayWindow(t.date, t.startHour, t.endHour)
}

func (t timelineModel) busy() []schedule.Busy {
	out := make([]schedule.Busy, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, schedule.Busy{Start: e.start, End: e.end})
	}
	return out
}

func (t timelineModel) selected() (timelineEntry, bool) {
	if t.cursor < 0 || t.cursor >= len(t.entries) {
		return timelineEntry{}, false
	}
	return t.entries[t.cursor], true
}

func (t timelineModel) update(msg tea.Msg) (timelineModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		return t.checkUpcoming()

	case tea.MouseMsg:
		return t.updateMouse(msg)

	case tea.KeyMsg:
		if t.picking {
			return t.updatePicker(msg)
		}
		if t.moving {
			return t.updateMove(msg)
		}
		return t.updateNormal(msg)
	}
	return t, nil
}

// checkUpcoming surfaces a one-shot notice when a non-logged occurrence of
// today starts within the next minute.
func (t timelineModel) checkUpcoming() (timelineModel, tea.Cmd) {
	occ, ok := t.ws.UpcomingOccurrence(time.Now(), time.Minute)
	if !ok || occ.ID == t.noticedID {
		return t, nil
	}
	t.noticedID = occ.ID
	title := occ.Title
	if title == "" {
		title = "planned activity"
	}
	return t, statusCmd(fmt.Sprintf("Up next at %s: %s", timeutil.FormatClock(occ.Start), title))
}

func (t timelineModel) updateNormal(msg tea.KeyMsg) (timelineModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < len(t.entries)-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Left):
		t.date = t.date.AddDate(0, 0, -1)
		t.rebuild()
	case key.Matches(msg, keys.Right):
		t.date = t.date.AddDate(0, 0, 1)
		t.rebuild()
	case key.Matches(msg, keys.Today):
		t.date = time.Now()
		t.rebuild()

	case key.Matches(msg, keys.Start):
		items := t.ws.TopItems()
		if len(items) == 0 {
			return t, errorCmd("No open work items. Import a snapshot to add some.")
		}
		t.picking = true
		t.pickSub = false
		t.pickItems = items
		t.pickCursor = 0

	case key.Matches(msg, keys.Stop):
		return t.stopTimer()

	case key.Matches(msg, keys.Cancel):
		if t.ws.CancelTimer() {
			return t, statusCmd("Timer discarded")
		}
		return t, statusCmd("No timer running")

	case key.Matches(msg, keys.New):
		return t.openPlanForm()

	case key.Matches(msg, keys.Add):
		return t.openEntryForm()

	case key.Matches(msg, keys.Log):
		e, ok := t.selected()
		if !ok || e.isSession {
			return t, nil
		}
		if e.occ.Logged {
			return t, statusCmd("Already logged")
		}
		if _, ok := t.ws.LogOccurrence(e.occ); ok {
			t.rebuild()
			return t, statusCmd("Logged " + e.title())
		}

	case key.Matches(msg, keys.Move):
		e, ok := t.selected()
		if !ok || e.isSession {
			return t, nil
		}
		if e.occ.Logged {
			return t, errorCmd("Logged activities cannot move")
		}
		t.moving = true
		t.moveDelta = 0

	case key.Matches(msg, keys.Fill):
		e, ok := t.selected()
		if !ok {
			return t, nil
		}
		start, d := schedule.FillBefore(schedule.Busy{Start: e.start, End: e.end}, t.busy(), t.window())
		return t.openFillForm(start, d)

	case key.Matches(msg, keys.Delete):
		e, ok := t.selected()
		if !ok {
			return t, nil
		}
		if e.isSession {
			if t.ws.DeleteSession(e.sess.ID) {
				t.rebuild()
				return t, statusCmd("Session deleted")
			}
			return t, nil
		}
		wasVirtual := e.occ.Virtual
		if t.ws.DeleteOccurrence(e.occ) {
			t.rebuild()
			if wasVirtual {
				return t, statusCmd("Recurring rule and its pending occurrences deleted")
			}
			return t, statusCmd("Planned activity deleted")
		}
	}
	return t, nil
}

func (t timelineModel) updateMove(msg tea.KeyMsg) (timelineModel, tea.Cmd) {
	e, ok := t.selected()
	if !ok || e.isSession {
		t.moving = false
		return t, nil
	}
	switch {
	case key.Matches(msg, keys.Up):
		t.moveDelta -= 0.5 // one quarter hour per nudge
	case key.Matches(msg, keys.Down):
		t.moveDelta += 0.5
	case key.Matches(msg, keys.Enter):
		target := schedule.DragTarget(e.occ.Start, e.end.Sub(e.start), t.moveDelta, rowsPerHour, t.window())
		t.moving = false
		if _, ok := t.ws.MoveOccurrence(e.occ, target); ok {
			t.rebuild()
			return t, statusCmd("Moved to " + timeutil.FormatClock(target))
		}
	case key.Matches(msg, keys.Back):
		t.moving = false
	}
	return t, nil
}

func (t timelineModel) updateMouse(msg tea.MouseMsg) (timelineModel, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return t, nil
		}
		idx := t.entryAt(msg.Y)
		if idx < 0 {
			return t, nil
		}
		t.cursor = idx
		e := t.entries[idx]
		if !e.isSession && !e.occ.Logged {
			t.dragging = true
			t.dragIdx = idx
			t.dragFromY = msg.Y
			t.dragDelta = 0
		}

	case tea.MouseActionMotion:
		if t.dragging {
			t.dragDelta = float64(msg.Y - t.dragFromY)
		}

	case tea.MouseActionRelease:
		if !t.dragging {
			return t, nil
		}
		t.dragging = false
		if t.dragIdx >= len(t.entries) {
			return t, nil
		}
		e := t.entries[t.dragIdx]
		if t.dragDelta == 0 {
			return t, nil
		}
		target := schedule.DragTarget(e.occ.Start, e.end.Sub(e.start), t.dragDelta, rowsPerHour, t.window())
		if _, ok := t.ws.MoveOccurrence(e.occ, target); ok {
			t.rebuild()
			return t, statusCmd("Moved to " + timeutil.FormatClock(target))
		}
	}
	return t, nil
}

// entryAt maps an absolute terminal row to the entry occupying that grid
// slot, -1 when the row is empty or outside the grid.
func (t timelineModel) entryAt(y int) int {
	row := y - gridTopRow
	if row < 0 {
		return -1
	}
	win := t.window()
	slot := win.Start.Add(time.Duration(float64(row) / rowsPerHour * float64(time.Hour)))
	for i, e := range t.entries {
		if !slot.Before(e.start) && slot.Before(e.end) {
			return i
		}
	}
	return -1
}

func (t timelineModel) updatePicker(msg tea.KeyMsg) (timelineModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.pickCursor > 0 {
			t.pickCursor--
		}
	case key.Matches(msg, keys.Down):
		limit := len(t.pickItems) - 1
		if t.pickSub {
			limit++ // trailing "(whole item)" row
		}
		if t.pickCursor < limit {
			t.pickCursor++
		}
	case key.Matches(msg, keys.Enter):
		return t.pickConfirm()
	case key.Matches(msg, keys.Back):
		t.picking = false
	}
	return t, nil
}

func (t timelineModel) pickConfirm() (timelineModel, tea.Cmd) {
	if !t.pickSub {
		if t.pickCursor >= len(t.pickItems) {
			t.picking = false
			return t, nil
		}
		item := t.pickItems[t.pickCursor]
		subs := t.ws.SubItemsOf(item.ID)
		if len(subs) == 0 {
			t.picking = false
			return t.startTimer(item.ID, "")
		}
		t.pickSub = true
		t.pickParent = item
		t.pickItems = subs
		t.pickCursor = 0
		return t, nil
	}

	t.picking = false
	// Last row of the sub-item picker is "(whole item)".
	if t.pickCursor >= len(t.pickItems) {
		return t.startTimer(t.pickParent.ID, "")
	}
	return t.startTimer(t.pickParent.ID, t.pickItems[t.pickCursor].ID)
}

func (t timelineModel) startTimer(itemID, subItemID string) (timelineModel, tea.Cmd) {
	chaining := t.ws.TimerRunning()
	if !t.ws.StartTimer(itemID, subItemID, nil) {
		return t, statusCmd("Timer already running for that item")
	}
	t.rebuild()
	if chaining {
		return t, statusCmd("Previous timer logged, new timer started")
	}
	return t, statusCmd("Timer started")
}

func (t timelineModel) stopTimer() (timelineModel, tea.Cmd) {
	outcome, s := t.ws.RequestStopTimer()
	switch outcome {
	case track.StopNoTimer:
		return t, statusCmd("No timer running")
	case track.StopFinalized:
		t.rebuild()
		return t, statusCmd("Logged " + timeutil.FormatDuration(s.Duration()))
	case track.StopNeedsNotes:
		return t.openNotesForm()
	}
	return t, nil
}

// ============================================================
// Forms
// ============================================================

func (t timelineModel) openNotesForm() (timelineModel, tea.Cmd) {
	*t.fNotes = ""
	t.formKind = formNotes
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("What did you work on?").Value(t.fNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)
	t.formActive = true
	return t, t.form.Init()
}

func (t timelineModel) openPlanForm() (timelineModel, tea.Cmd) {
	*t.fTitle = ""
	*t.fStart = timeutil.FormatClock(timeutil.SnapToQuarterHour(time.Now()))
	*t.fDuration = "30"
	*t.fKind = string(track.KindTask)
	t.formKind = formPlan

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.fTitle),
			huh.NewInput().Title("Start (HH:MM)").Value(t.fStart),
			huh.NewInput().Title("Duration (min)").Value(t.fDuration),
			huh.NewSelect[string]().Title("Kind").
				Options(
					huh.NewOption("Task", string(track.KindTask)),
					huh.NewOption("Quick", string(track.KindQuick)),
				).Value(t.fKind),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timelineModel) openEntryForm() (timelineModel, tea.Cmd) {
	*t.fTitle = ""
	*t.fNotes = ""
	*t.fStart = ""
	*t.fEnd = ""
	t.formKind = formEntry

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.fTitle),
			huh.NewInput().Title("Start (HH:MM)").Value(t.fStart),
			huh.NewInput().Title("End (HH:MM)").Value(t.fEnd),
			huh.NewInput().Title("Notes").Value(t.fNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timelineModel) openFillForm(start time.Time, d time.Duration) (timelineModel, tea.Cmd) {
	*t.fTitle = ""
	*t.fDuration = strconv.Itoa(int(d.Minutes()))
	t.fillStart = start
	t.formKind = formFill

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.fTitle),
			huh.NewInput().
				Title(fmt.Sprintf("Duration from %s (min)", timeutil.FormatClock(start))).
				Value(t.fDuration),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timelineModel) updateForm(msg tea.Msg) (timelineModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		switch t.formKind {
		case formNotes:
			return t.submitNotes()
		case formPlan:
			return t.submitPlan()
		case formEntry:
			return t.submitEntry()
		case formFill:
			return t.submitFill()
		}
	}
	return t, cmd
}

func (t timelineModel) submitNotes() (timelineModel, tea.Cmd) {
	s := t.ws.FinalizeTimer(*t.fNotes)
	if s == nil {
		return t, errorCmd("No timer to finalize")
	}
	t.rebuild()
	return t, statusCmd("Logged " + timeutil.FormatDuration(s.Duration()))
}

func (t timelineModel) submitPlan() (timelineModel, tea.Cmd) {
	at, err := timeutil.AtTimeOfDay(t.date, *t.fStart)
	if err != nil {
		return t, errorCmd("Bad start time, expected HH:MM")
	}
	mins, err := strconv.Atoi(strings.TrimSpace(*t.fDuration))
	if err != nil || mins <= 0 {
		return t, errorCmd("Duration must be a positive number of minutes")
	}
	start := timeutil.SnapToQuarterHour(at)
	if _, ok := t.ws.CreatePlan(start, mins, track.Kind(*t.fKind), "", "", *t.fTitle); !ok {
		return t, errorCmd("Could not create planned activity")
	}
	t.rebuild()
	return t, statusCmd("Planned at " + timeutil.FormatClock(start))
}

func (t timelineModel) submitEntry() (timelineModel, tea.Cmd) {
	start, err := timeutil.AtTimeOfDay(t.date, *t.fStart)
	if err != nil {
		return t, errorCmd("Bad start time, expected HH:MM")
	}
	end, err := timeutil.AtTimeOfDay(t.date, *t.fEnd)
	if err != nil {
		return t, errorCmd("Bad end time, expected HH:MM")
	}
	cs, ce, ok := schedule.ClampManualEntry(start, end, t.window())
	if !ok {
		return t, errorCmd("Entry falls outside the visible day")
	}
	if _, ok := t.ws.AddManualSession(cs, ce, *t.fTitle, "", *t.fNotes); !ok {
		return t, errorCmd("Could not add entry")
	}
	t.rebuild()
	return t, statusCmd("Entry added")
}

func (t timelineModel) submitFill() (timelineModel, tea.Cmd) {
	mins, err := strconv.Atoi(strings.TrimSpace(*t.fDuration))
	if err != nil || mins <= 0 {
		return t, errorCmd("Duration must be a positive number of minutes")
	}
	d := schedule.SafeDuration(t.fillStart, time.Duration(mins)*time.Minute, t.busy(), t.window())
	if _, ok := t.ws.AddManualSession(t.fillStart, t.fillStart.Add(d), *t.fTitle, "", ""); !ok {
		return t, errorCmd("Could not fill gap")
	}
	t.rebuild()
	return t, statusCmd(fmt.Sprintf("Filled %s from %s", timeutil.FormatDuration(d), timeutil.FormatClock(t.fillStart)))
}

// ============================================================
// View
// ============================================================

func (t timelineModel) view() string {
	if t.width < 20 {
		return "Terminal too small"
	}
	w := t.width - 4

	if t.formActive && t.form != nil {
		titles := map[string]string{
			formNotes: "Stop Timer",
			formPlan:  "New Planned Activity",
			formEntry: "Manual Entry",
			formFill:  "Fill Gap",
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(titles[t.formKind]), "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if t.picking {
		return t.renderPicker(w)
	}

	header := t.renderHeader()
	timerLine := t.renderTimerLine()
	grid := t.renderGrid()
	hints := t.renderHints()

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		timerLine,
		"",
		grid,
		hints,
	)
}

func (t timelineModel) renderHeader() string {
	dateLabel := titleStyle.Render(t.date.Format("Mon Jan 02 2006"))
	if timeutil.SameDay(t.date, time.Now()) {
		dateLabel += mutedStyle.Render("  (today)")
	}

	billed := t.ws.BilledFor(t.date)
	goal := t.st.DailyGoalHours()
	billedStr := timeutil.FormatHours(billed)
	goalStr := fmt.Sprintf("%.1fh", goal)
	var billedView string
	if billed.Hours() >= goal {
		billedView = successStyle.Render(billedStr + " / " + goalStr)
	} else {
		billedView = warningStyle.Render(billedStr + " / " + goalStr)
	}

	return headerStyle.Render(dateLabel + "   " + mutedStyle.Render("billed ") + billedView)
}

func (t timelineModel) renderTimerLine() string {
	if !t.ws.TimerRunning() {
		return headerStyle.Render(mutedStyle.Render("■  no timer — s to start"))
	}
	elapsed := timerRunningStyle.Render("●  " + timeutil.FormatDuration(t.ws.TimerElapsed()))
	at, _ := t.ws.ActiveTimer()
	since := mutedStyle.Render("  since " + timeutil.FormatClock(at.Start) + "  (x: stop, c: discard)")
	return headerStyle.Render(elapsed + since)
}

func (t timelineModel) renderGrid() string {
	win := t.window()
	totalRows := (t.endHour - t.startHour) * rowsPerHour
	if totalRows <= 0 {
		return ""
	}

	lines := make([]string, totalRows)
	for r := 0; r < totalRows; r++ {
		label := "     "
		if r%rowsPerHour == 0 {
			label = win.Start.Add(time.Duration(r/rowsPerHour) * time.Hour).Format("15:04")
		}
		lines[r] = mutedStyle.Render(label + " │")
	}

	rowFor := func(at time.Time) int {
		return int((timeutil.TimeOfDayHours(at) - float64(t.startHour)) * rowsPerHour)
	}

	for i, e := range t.entries {
		sr := rowFor(e.start)
		er := rowFor(e.end)
		if er <= sr {
			er = sr + 1
		}
		if sr < 0 {
			sr = 0
		}
		if er > totalRows {
			er = totalRows
		}
		if sr >= totalRows {
			continue
		}
		lines[sr] += " " + t.renderEntry(i, e)
		for r := sr + 1; r < er; r++ {
			lines[r] += mutedStyle.Render("   ┆")
		}
	}

	return strings.Join(lines, "\n")
}

func (t timelineModel) renderEntry(i int, e timelineEntry) string {
	span := fmt.Sprintf("%s–%s", timeutil.FormatClock(e.start), timeutil.FormatClock(e.end))
	label := span + "  " + e.title()

	var badge string
	style := normalItemStyle
	switch {
	case e.isSession:
		style = successStyle
		badge = " ✓"
	case e.occ.Logged:
		style = mutedStyle
		badge = " ✓ logged"
	case e.occ.Virtual:
		style = ghostStyle
		badge = " ↻"
	default:
		style = highlightStyle
	}

	cursor := "  "
	if i == t.cursor {
		cursor = "> "
		if !e.isSession {
			style = selectedItemStyle
		}
	}

	line := cursor + label + badge

	if t.moving && i == t.cursor && !e.isSession {
		target := schedule.DragTarget(e.occ.Start, e.end.Sub(e.start), t.moveDelta, rowsPerHour, t.window())
		line += accentStyle.Render("  → " + timeutil.FormatClock(target))
	}
	if t.dragging && i == t.dragIdx {
		target := schedule.DragTarget(e.occ.Start, e.end.Sub(e.start), t.dragDelta, rowsPerHour, t.window())
		line += accentStyle.Render("  → " + timeutil.FormatClock(target))
	}

	return style.Render(line)
}

func (t timelineModel) renderHints() string {
	if t.moving {
		return footerStyle.Render("↑/↓: nudge 15 min  enter: place  esc: cancel")
	}
	return footerStyle.Render("s: timer  x: stop  n: plan  a: entry  l: log  m: move  f: fill  d: delete  ←/→: day")
}

func (t timelineModel) renderPicker(w int) string {
	title := titleStyle.Render("Start Timer")
	subtitle := mutedStyle.Render("Pick a work item")
	if t.pickSub {
		subtitle = mutedStyle.Render("Pick a sub-item of " + t.pickParent.Title)
	}

	var rows []string
	rows = append(rows, title, subtitle, "")
	for i, it := range t.pickItems {
		cursor := "  "
		style := normalItemStyle
		if i == t.pickCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+it.Title))
	}
	if t.pickSub {
		cursor := "  "
		style := normalItemStyle
		if t.pickCursor == len(t.pickItems) {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+"(whole item)"))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
