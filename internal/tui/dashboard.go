package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"argus/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dashboard message types.
type screenMsg *domain.ScreenerResponse
type screenErrMsg struct{ err error }
type signalsMsg []domain.Signal
type signalsErrMsg struct{ err error }
type dashTickMsg time.Time

// dashScreenLimit bounds the snapshot screen; the full run stays behind
// the HTTP API.
const dashScreenLimit = 30

// DashboardModel is the Bubble Tea model for the market overview screen:
// the default 20-week screen plus the latest signals.
type DashboardModel struct {
	services Services
	screen   *domain.ScreenerResponse
	signals  []domain.Signal
	loading  bool
	err      error
	width    int
	height   int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		loading:  true,
	}
}

// Init fires initial data fetch commands.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchScreenCmd(),
		m.fetchSignalsCmd(),
		m.tickCmd(),
	)
}

// Update handles incoming messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case screenMsg:
		m.screen = (*domain.ScreenerResponse)(msg)
		m.loading = false
		m.err = nil
		return m, nil

	case screenErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case signalsMsg:
		m.signals = []domain.Signal(msg)
		return m, nil

	case signalsErrMsg:
		// Non-critical; the screen table is the primary content.
		return m, nil

	case dashTickMsg:
		return m, tea.Batch(
			m.fetchScreenCmd(),
			m.fetchSignalsCmd(),
			m.tickCmd(),
		)
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.loading && m.screen == nil {
		return SubtextStyle.Render("Running screen...")
	}
	if m.err != nil && m.screen == nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var sections []string

	// Screen table + heat map side by side
	screenTable := m.renderScreenTable()
	heatMap := m.renderHeatMapSection()

	tableWidth := m.width*2/3 - 2
	if tableWidth < 40 {
		tableWidth = 40
	}
	heatWidth := m.width - tableWidth - 4
	if heatWidth < 15 {
		heatWidth = 15
	}

	tableBox := BorderStyle.Width(tableWidth).Render(screenTable)
	heatBox := BorderStyle.Width(heatWidth).Render(heatMap)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, tableBox, heatBox)
	sections = append(sections, topRow)

	// Latest signals
	signalSection := m.renderSignals()
	signalBox := BorderStyle.Width(m.width - 2).Render(signalSection)
	sections = append(sections, signalBox)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Screen returns the current screener response (for testing).
func (m DashboardModel) Screen() *domain.ScreenerResponse { return m.screen }

// Signals returns the current signals (for testing).
func (m DashboardModel) Signals() []domain.Signal { return m.signals }

func (m DashboardModel) renderScreenTable() string {
	title := "  20W Screen"
	if m.screen != nil && m.screen.Cached {
		title += SubtextStyle.Render("  (cached)")
	}
	var lines []string
	lines = append(lines, HeaderStyle.Render(title))
	lines = append(lines, SubtextStyle.Render("  Symbol        Price    Change    vs MA"))
	lines = append(lines, SubtextStyle.Render("  "+strings.Repeat("─", 52)))

	if m.screen != nil {
		rows := len(m.screen.Results)
		maxRows := m.height - 14
		if maxRows < 8 {
			maxRows = 8
		}
		if rows > maxRows {
			rows = maxRows
		}
		for i := 0; i < rows; i++ {
			lines = append(lines, "  "+FormatScreenerEntry(m.screen.Results[i]))
		}
		if len(m.screen.Results) == 0 {
			lines = append(lines, SubtextStyle.Render("  No symbols within range of their average"))
		}
		lines = append(lines, SubtextStyle.Render(
			fmt.Sprintf("  %d matches, %d skipped", m.screen.Total, m.screen.SkippedCount),
		))
	} else {
		lines = append(lines, SubtextStyle.Render("  No screen data available"))
	}

	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderHeatMapSection() string {
	header := HeaderStyle.Render("  Day Change")
	heatWidth := m.width/3 - 4
	if heatWidth < 15 {
		heatWidth = 15
	}
	var entries []domain.ScreenerEntry
	if m.screen != nil {
		entries = m.screen.Results
	}
	heatMap := RenderHeatMap(entries, heatWidth)
	return header + "\n" + heatMap
}

func (m DashboardModel) renderSignals() string {
	header := HeaderStyle.Render("  Latest Signals")
	var lines []string
	lines = append(lines, header)

	count := len(m.signals)
	if count > 10 {
		count = 10
	}

	for i := 0; i < count; i++ {
		lines = append(lines, "  "+FormatSignal(m.signals[i]))
	}

	if len(m.signals) == 0 {
		lines = append(lines, SubtextStyle.Render("  No signals recorded yet"))
	}

	return strings.Join(lines, "\n")
}

func (m DashboardModel) fetchScreenCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Screener == nil {
			return screenErrMsg{err: fmt.Errorf("screener service not available")}
		}
		req := domain.DefaultScreenerRequest()
		req.Limit = dashScreenLimit
		resp, err := m.services.Screener.Run(context.Background(), req)
		if err != nil {
			return screenErrMsg{err: err}
		}
		return screenMsg(resp)
	}
}

func (m DashboardModel) fetchSignalsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Signals == nil {
			return signalsErrMsg{err: fmt.Errorf("signal service not available")}
		}
		signals, err := m.services.Signals.ListSignals(context.Background(), domain.SignalFilter{Limit: 10})
		if err != nil {
			return signalsErrMsg{err: err}
		}
		return signalsMsg(signals)
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}
