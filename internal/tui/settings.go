package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfriis/stint/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	dayStart  *string
	dayEnd    *string
	dailyGoal *string
}

func newSettingsModel(s *store.Store) settingsModel {
	ds, de, dg := "", "", ""
	return settingsModel{
		store:     s,
		dayStart:  &ds,
		dayEnd:    &de,
		dailyGoal: &dg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	start, end := s.store.DayWindowHours()
	*s.dayStart = strconv.Itoa(start)
	*s.dayEnd = strconv.Itoa(end)
	*s.dailyGoal = fmt.Sprintf("%.1f", s.store.DailyGoalHours())

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Day starts at (hour, 0–23)").Value(s.dayStart),
			huh.NewInput().Title("Day ends at (hour, 1–24)").Value(s.dayEnd),
			huh.NewInput().Title("Daily goal (hours)").Value(s.dailyGoal),
		).Title("Day window"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errorCmd(err.Error())
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved"))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	start, err := strconv.Atoi(*s.dayStart)
	if err != nil || start < 0 || start > 23 {
		return fmt.Errorf("day start must be an hour between 0 and 23")
	}
	end, err := strconv.Atoi(*s.dayEnd)
	if err != nil || end <= start || end > 24 {
		return fmt.Errorf("day end must be an hour after day start, at most 24")
	}
	goal, err := strconv.ParseFloat(*s.dailyGoal, 64)
	if err != nil || goal <= 0 {
		return fmt.Errorf("daily goal must be a positive number of hours")
	}

	s.store.SetSetting("day_start_hour", strconv.Itoa(start))
	s.store.SetSetting("day_end_hour", strconv.Itoa(end))
	s.store.SetSetting("daily_goal_hours", fmt.Sprintf("%g", goal))
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "day_start_hour", "day_end_hour":
		if h, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%02d:00", h)
		}
	case "daily_goal_hours":
		if hours, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf("%.1f hours", hours)
		}
	}
	return v
}
