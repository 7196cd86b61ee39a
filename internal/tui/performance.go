package tui

import (
	"context"
	"fmt"
	"strings"

	"argus/internal/service"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Performance message types.
type perfReportMsg *service.PerformanceReport
type perfErrMsg struct{ err error }
type modelStatsMsg struct{ correct, total int }

const (
	perfViewAccuracy = 0
	perfViewRecent   = 1

	perfWindowDays  = 30
	perfRecentLimit = 50
)

// PerformanceModel is the Bubble Tea model for the signal performance screen.
type PerformanceModel struct {
	services     Services
	report       *service.PerformanceReport
	modelCorrect int
	modelTotal   int
	activeView   int
	loading      bool
	err          error
	width        int
	height       int
}

// NewPerformanceModel creates a new performance viewer model.
func NewPerformanceModel(svc Services) PerformanceModel {
	return PerformanceModel{
		services: svc,
		loading:  true,
	}
}

// Init fires initial data fetch commands.
func (m PerformanceModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchReportCmd(),
		m.fetchModelStatsCmd(),
	)
}

// Update handles incoming messages.
func (m PerformanceModel) Update(msg tea.Msg) (PerformanceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case perfReportMsg:
		m.report = (*service.PerformanceReport)(msg)
		m.loading = false
		m.err = nil
		return m, nil

	case perfErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case modelStatsMsg:
		m.modelCorrect = msg.correct
		m.modelTotal = msg.total
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.ToggleView):
			m.activeView = 1 - m.activeView
			return m, nil

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, tea.Batch(
				m.fetchReportCmd(),
				m.fetchModelStatsCmd(),
			)
		}
	}

	return m, nil
}

// View renders the performance viewer.
func (m PerformanceModel) View() string {
	var sections []string

	// Header with view toggle
	viewLabel := "[Accuracy]  Recent"
	if m.activeView == perfViewRecent {
		viewLabel = " Accuracy  [Recent]"
	}
	sections = append(sections, HeaderStyle.Render("  Signal Performance")+"  "+SubtextStyle.Render(viewLabel))
	sections = append(sections, "")

	if m.loading {
		sections = append(sections, SubtextStyle.Render("  Loading outcome data..."))
		return strings.Join(sections, "\n")
	}

	if m.err != nil {
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	}

	if m.activeView == perfViewAccuracy {
		sections = append(sections, m.renderAccuracyView()...)
	} else {
		sections = append(sections, m.renderRecentView()...)
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [v] toggle view  [R] refresh"))

	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *PerformanceModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// ActiveView returns the current view index (for testing).
func (m PerformanceModel) ActiveView() int { return m.activeView }

// HasData returns whether any outcome data is loaded.
func (m PerformanceModel) HasData() bool {
	if m.report == nil {
		return false
	}
	return len(m.report.ByType) > 0 || len(m.report.Daily) > 0 || len(m.report.Recent) > 0
}

func (m PerformanceModel) barWidth() int {
	w := m.width/3 - 5
	if w < 10 {
		w = 10
	}
	if w > 30 {
		w = 30
	}
	return w
}

func (m PerformanceModel) renderAccuracyView() []string {
	var lines []string

	if !m.HasData() && m.modelTotal == 0 {
		lines = append(lines, SubtextStyle.Render("  No resolved outcomes yet. Accuracy appears once signals age past their horizon."))
		return lines
	}

	barWidth := m.barWidth()

	if m.report != nil && len(m.report.ByType) > 0 {
		lines = append(lines, HeaderStyle.Render("  Accuracy by Signal Type"))
		lines = append(lines, "")
		for _, a := range m.report.ByType {
			bar := RenderBarChart(string(a.Type), a.Accuracy, barWidth)
			avgSign := ""
			if a.AvgReturnPct > 0 {
				avgSign = "+"
			}
			lines = append(lines, fmt.Sprintf("  %s  (%d, avg %s%.2f%%)", bar, a.Resolved, avgSign, a.AvgReturnPct))
		}
		lines = append(lines, "")
	}

	if m.modelTotal > 0 {
		rate := float64(m.modelCorrect) / float64(m.modelTotal)
		lines = append(lines, HeaderStyle.Render("  Direction Model"))
		lines = append(lines, "")
		bar := RenderBarChart("next-day direction", rate, barWidth)
		lines = append(lines, fmt.Sprintf("  %s  (%d/%d over %dd)", bar, m.modelCorrect, m.modelTotal, perfWindowDays))
		lines = append(lines, "")
	}

	if m.report != nil && len(m.report.Daily) > 0 {
		lines = append(lines, HeaderStyle.Render(fmt.Sprintf("  Daily Accuracy (Last %d Days)", perfWindowDays)))
		lines = append(lines, "")

		count := len(m.report.Daily)
		maxRows := m.height - 15
		if maxRows < 5 {
			maxRows = 5
		}
		if count > maxRows {
			count = maxRows
		}

		for i := 0; i < count; i++ {
			d := m.report.Daily[i]
			label := d.DayUTC.Format("2006-01-02")
			bar := RenderBarChart(label, d.Accuracy, barWidth)
			lines = append(lines, fmt.Sprintf("  %s  (%d/%d)", bar, d.Correct, d.Total))
		}
	}

	return lines
}

func (m PerformanceModel) renderRecentView() []string {
	var lines []string

	if m.report == nil || len(m.report.Recent) == 0 {
		lines = append(lines, SubtextStyle.Render("  No resolved outcomes available."))
		return lines
	}

	lines = append(lines, HeaderStyle.Render("  Recent Resolved Outcomes"))
	lines = append(lines, "")
	lines = append(lines, SubtextStyle.Render(
		fmt.Sprintf("  %-7s %-6s %-21s %-8s %-9s %-8s %s",
			"Signal", "Symbol", "Type", "Horizon", "Return", "Correct", "Resolved"),
	))
	lines = append(lines, SubtextStyle.Render("  "+strings.Repeat("─", 75)))

	maxRows := m.height - 10
	if maxRows < 5 {
		maxRows = 5
	}
	count := len(m.report.Recent)
	if count > maxRows {
		count = maxRows
	}

	for i := 0; i < count; i++ {
		o := m.report.Recent[i]

		correctStr := PriceDownStyle.Render("NO ")
		if o.Correct {
			correctStr = PriceUpStyle.Render("YES")
		}

		sign := ""
		if o.ReturnPct > 0 {
			sign = "+"
		}

		lines = append(lines, fmt.Sprintf("  #%-6d %-6s %s %-8s %-9s %s      %s",
			o.SignalID,
			o.Symbol,
			sentimentStyle(o.Type.Sentiment()).Render(fmt.Sprintf("%-21s", string(o.Type))),
			fmt.Sprintf("%dd", o.HorizonDays),
			fmt.Sprintf("%s%.2f%%", sign, o.ReturnPct),
			correctStr,
			SubtextStyle.Render(o.ResolvedAt.Format("2006-01-02")),
		))
	}

	if len(m.report.Recent) > maxRows {
		lines = append(lines, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d of %d outcomes", count, len(m.report.Recent)),
		))
	}

	return lines
}

func (m PerformanceModel) fetchReportCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Performance == nil {
			return perfErrMsg{err: fmt.Errorf("performance service not available")}
		}
		report, err := m.services.Performance.Performance(context.Background(), perfWindowDays, perfRecentLimit)
		if err != nil {
			return perfErrMsg{err: err}
		}
		return perfReportMsg(report)
	}
}

func (m PerformanceModel) fetchModelStatsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Models == nil {
			return nil
		}
		correct, total, err := m.services.Models.DirectionHitRate(context.Background(), perfWindowDays)
		if err != nil {
			return nil // Non-critical
		}
		return modelStatsMsg{correct: correct, total: total}
	}
}
