package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfriis/stint/internal/track"
)

// plannerModel lists the recurring-activity rules and owns their create and
// delete flows. Occurrence expansion itself lives in the timeline; this view
// manages the rules only.
type plannerModel struct {
	ws     *track.Workspace
	width  int
	height int

	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	pTitle    *string
	pKind     *string
	pTime     *string
	pDuration *string
	pFreq     *string
	pDays     *[]string
	pMonthDay *string
	pNth      *string
	pNthDay   *string
}

func newPlannerModel(ws *track.Workspace) plannerModel {
	title, tod, dur := "", "09:00", "30"
	kind := string(track.KindTask)
	freq := string(track.FreqWeekly)
	monthDay, nth, nthDay := "1", "1", "1"
	days := []string{}
	return plannerModel{
		ws:        ws,
		pTitle:    &title,
		pKind:     &kind,
		pTime:     &tod,
		pDuration: &dur,
		pFreq:     &freq,
		pDays:     &days,
		pMonthDay: &monthDay,
		pNth:      &nth,
		pNthDay:   &nthDay,
	}
}

func (p *plannerModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p plannerModel) update(msg tea.Msg) (plannerModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	rules := p.ws.Rules()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(rules)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.New):
			return p.showForm()
		case key.Matches(msg, keys.Delete):
			if p.cursor < len(rules) {
				r := rules[p.cursor]
				if p.ws.DeleteRule(r.ID) {
					if p.cursor >= len(p.ws.Rules()) {
						p.cursor = max(0, len(p.ws.Rules())-1)
					}
					return p, statusCmd("Rule deleted, pending occurrences removed")
				}
			}
		}
	}
	return p, nil
}

func (p plannerModel) showForm() (plannerModel, tea.Cmd) {
	*p.pTitle = ""
	*p.pKind = string(track.KindTask)
	*p.pTime = "09:00"
	*p.pDuration = "30"
	*p.pFreq = string(track.FreqWeekly)
	*p.pDays = nil
	*p.pMonthDay = "1"
	*p.pNth = "1"
	*p.pNthDay = "1"

	dayOptions := make([]huh.Option[string], 7)
	for i, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		dayOptions[i] = huh.NewOption(d.String(), strconv.Itoa(int(d)))
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(p.pTitle),
			huh.NewSelect[string]().Title("Kind").
				Options(
					huh.NewOption("Task", string(track.KindTask)),
					huh.NewOption("Quick", string(track.KindQuick)),
				).Value(p.pKind),
			huh.NewInput().Title("Time of day (HH:MM)").Value(p.pTime),
			huh.NewInput().Title("Duration (min)").Value(p.pDuration),
			huh.NewSelect[string]().Title("Repeats").
				Options(
					huh.NewOption("Daily (weekdays)", string(track.FreqDaily)),
					huh.NewOption("Weekly", string(track.FreqWeekly)),
					huh.NewOption("Every 2 weeks", string(track.FreqFortnightly)),
					huh.NewOption("Monthly (day of month)", string(track.FreqMonthly)),
					huh.NewOption("Monthly (nth weekday)", string(track.FreqMonthlyNth)),
				).Value(p.pFreq),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Weekdays (weekly only)").
				Options(dayOptions...).Value(p.pDays),
			huh.NewInput().Title("Day of month (monthly only)").Value(p.pMonthDay),
			huh.NewSelect[string]().Title("Week of month (nth only)").
				Options(
					huh.NewOption("First", "1"),
					huh.NewOption("Second", "2"),
					huh.NewOption("Third", "3"),
					huh.NewOption("Fourth", "4"),
					huh.NewOption("Last", "5"),
				).Value(p.pNth),
			huh.NewSelect[string]().Title("Weekday (nth only)").
				Options(dayOptions...).Value(p.pNthDay),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p plannerModel) updateForm(msg tea.Msg) (plannerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		return p.submit()
	}
	return p, cmd
}

func (p plannerModel) submit() (plannerModel, tea.Cmd) {
	mins, err := strconv.Atoi(strings.TrimSpace(*p.pDuration))
	if err != nil || mins <= 0 {
		return p, errorCmd("Duration must be a positive number of minutes")
	}

	r := track.RecurringActivity{
		Kind:        track.Kind(*p.pKind),
		Title:       *p.pTitle,
		TimeOfDay:   strings.TrimSpace(*p.pTime),
		DurationMin: mins,
		Frequency:   track.Frequency(*p.pFreq),
	}

	switch r.Frequency {
	case track.FreqWeekly:
		for _, d := range *p.pDays {
			if n, err := strconv.Atoi(d); err == nil {
				r.WeekDays = append(r.WeekDays, time.Weekday(n))
			}
		}
	case track.FreqMonthly:
		r.MonthDay, _ = strconv.Atoi(strings.TrimSpace(*p.pMonthDay))
	case track.FreqMonthlyNth:
		r.NthWeek, _ = strconv.Atoi(*p.pNth)
		if n, err := strconv.Atoi(*p.pNthDay); err == nil {
			r.NthWeekDay = time.Weekday(n)
		}
	}

	if _, ok := p.ws.CreateRule(r); !ok {
		return p, errorCmd("Invalid rule, check time and repeat fields")
	}
	return p, statusCmd("Recurring activity created")
}

func (p plannerModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("New Recurring Activity"), "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Recurring Activities")
	rules := p.ws.Rules()

	if len(rules) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No recurring activities. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-6s %-6s %-24s %s", "Time", "Len", "Title", "Repeats"))
	rows = append(rows, header)

	for i, r := range rules {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-6s %-6s %-24s", cursor, r.TimeOfDay, fmt.Sprintf("%dm", r.DurationMin), r.Title)) +
			mutedStyle.Render(describeRule(r))
		rows = append(rows, row)
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  d: delete (removes pending occurrences)"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// describeRule renders a rule's repeat pattern for the list view.
func describeRule(r track.RecurringActivity) string {
	switch r.Frequency {
	case track.FreqDaily:
		return "every weekday"
	case track.FreqWeekly:
		if len(r.WeekDays) == 0 {
			return "weekly (no days)"
		}
		names := make([]string, len(r.WeekDays))
		for i, d := range r.WeekDays {
			names[i] = d.String()[:3]
		}
		return "weekly on " + strings.Join(names, ", ")
	case track.FreqFortnightly:
		return "every 2 weeks from " + r.Anchor.Format("Jan 02")
	case track.FreqMonthly:
		return fmt.Sprintf("monthly on day %d", r.MonthDay)
	case track.FreqMonthlyNth:
		ord := map[int]string{1: "first", 2: "second", 3: "third", 4: "fourth", 5: "last"}
		o, ok := ord[r.NthWeek]
		if !ok {
			return "monthly (invalid week)"
		}
		return fmt.Sprintf("%s %s of the month", o, r.NthWeekDay)
	}
	return string(r.Frequency)
}
