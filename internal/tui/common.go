package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimeline viewState = iota
	viewPlanner
	viewReports
	viewSettings
)

var viewNames = []string{"Timeline", "Planner", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}
