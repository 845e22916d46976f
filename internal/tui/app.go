package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfriis/stint/internal/store"
	"github.com/mfriis/stint/internal/timeutil"
	"github.com/mfriis/stint/internal/track"
)

// App is the root Bubble Tea model. The workspace is the in-memory source of
// truth; the store is only touched to flush dirty collections (every tick)
// and to read settings.
type App struct {
	ws     *track.Workspace
	store  *store.Store
	width  int
	height int

	activeView viewState
	showHelp   bool

	timeline timelineModel
	planner  plannerModel
	reports  reportsModel
	settings settingsModel

	help   help.Model
	status string
}

func NewApp(ws *track.Workspace, s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	return App{
		ws:         ws,
		store:      s,
		activeView: viewTimeline,
		timeline:   newTimelineModel(ws, s),
		planner:    newPlannerModel(ws),
		reports:    newReportsModel(ws, s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.settings.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timeline.setSize(a.width, contentHeight)
		a.planner.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.reports.rebuild()
		return a, nil

	case tea.KeyMsg:
		// Forms, pickers and move mode see every key first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.ws.Flush(a.store)
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimeline
			a.timeline.rebuild()
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewPlanner
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			a.reports.rebuild()
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// Persist dirty collections each second; failed saves stay dirty
		// and retry on the next tick.
		if err := a.ws.Flush(a.store); err != nil {
			a.status = "save failed: " + err.Error()
		}
		var cmd tea.Cmd
		a.timeline, cmd = a.timeline.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case tea.MouseMsg:
		if a.activeView == viewTimeline {
			var cmd tea.Cmd
			a.timeline, cmd = a.timeline.update(msg)
			return a, cmd
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimeline:
		a.timeline, cmd = a.timeline.update(msg)
	case viewPlanner:
		a.planner, cmd = a.planner.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTimeline:
		return a.timeline.captures()
	case viewPlanner:
		return a.planner.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a *App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimeline:
		a.timeline.rebuild()
	case viewReports:
		a.reports.rebuild()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimeline:
		content = a.timeline.view()
	case viewPlanner:
		content = a.planner.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("stint")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Timer indicator in footer, visible from every tab.
	timerInfo := ""
	if a.ws.TimerRunning() {
		timerInfo = successStyle.Render(" ● " + timeutil.FormatDuration(a.ws.TimerElapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
