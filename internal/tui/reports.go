package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfriis/stint/internal/store"
	"github.com/mfriis/stint/internal/timeutil"
	"github.com/mfriis/stint/internal/track"
)

// reportsModel charts billed hours per day against the daily goal, one bar
// per day of a 7-day block. Billed = sum of closed session durations, which
// are already block-rounded at finalization.
type reportsModel struct {
	ws     *track.Workspace
	st     *store.Store
	width  int
	height int

	offset int // 7-day blocks back from today (0 = current)
	goal   float64

	chart barchart.Model
}

func newReportsModel(ws *track.Workspace, st *store.Store) reportsModel {
	return reportsModel{
		ws:    ws,
		st:    st,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// dateRange returns the half-open [from, to) block of 7 days.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	today := timeutil.StartOfDay(time.Now())
	to := today.AddDate(0, 0, 1-7*r.offset)
	return to.AddDate(0, 0, -7), to
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.rebuild()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.rebuild()
		}
	}
	return r, nil
}

func (r *reportsModel) rebuild() {
	r.goal = r.st.DailyGoalHours()

	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		hours := r.ws.BilledFor(d).Hours()

		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if hours >= r.goal && r.goal > 0 {
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		}
		if hours == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}

		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{
				{Name: "billed", Value: hours, Style: style},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))
	goalLabel := highlightStyle.Render(fmt.Sprintf("goal %.1fh/day", r.st.DailyGoalHours()))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel, "  ", goalLabel,
	)

	chartView := r.chart.View()
	tableView := r.renderTable(from, to)
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", tableView, "", nav,
		),
	)
}

func (r reportsModel) renderTable(from, to time.Time) string {
	goal := r.st.DailyGoalHours()

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s", "Date", "Billed", "vs goal"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", 34)))

	var total time.Duration
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		billed := r.ws.BilledFor(d)
		total += billed

		delta := billed.Hours() - goal
		var deltaView string
		switch {
		case billed == 0:
			deltaView = mutedStyle.Render("         —")
		case delta >= 0:
			deltaView = successStyle.Render(fmt.Sprintf("%+9.1fh", delta))
		default:
			deltaView = warningStyle.Render(fmt.Sprintf("%+9.1fh", delta))
		}

		rows = append(rows, fmt.Sprintf("  %-12s %10s %s",
			d.Format("Mon Jan 02"), timeutil.FormatHours(billed), deltaView))
	}

	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", 34)))
	rows = append(rows, fmt.Sprintf("  %-12s %10s", "Total", timeutil.FormatHours(total)))

	return strings.Join(rows, "\n")
}
