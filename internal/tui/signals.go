package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"argus/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Signal explorer message types.
type filteredSignalsMsg []domain.Signal
type filteredSignalsErrMsg struct{ err error }

var (
	sentimentOptions = []string{"ALL", "bullish", "bearish", "neutral"}
	windowOptions    = []string{"24H", "3D", "7D", "30D"}
	windowHours      = []int{24, 72, 168, 720}

	typeOptions = func() []string {
		opts := []string{"ALL"}
		for _, t := range domain.AllSignalTypes() {
			opts = append(opts, string(t))
		}
		return opts
	}()
)

// SignalExplorerModel is the Bubble Tea model for the signal explorer screen.
type SignalExplorerModel struct {
	services     Services
	signals      []domain.Signal
	sentimentIdx int
	windowIdx    int
	typeIdx      int
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewSignalExplorerModel creates a new signal explorer model.
func NewSignalExplorerModel(svc Services) SignalExplorerModel {
	return SignalExplorerModel{
		services: svc,
		loading:  true,
	}
}

// Init fires initial signal fetch.
func (m SignalExplorerModel) Init() tea.Cmd {
	return m.fetchSignalsCmd()
}

// Update handles incoming messages.
func (m SignalExplorerModel) Update(msg tea.Msg) (SignalExplorerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case filteredSignalsMsg:
		m.signals = []domain.Signal(msg)
		m.loading = false
		m.scrollOffset = 0
		m.err = nil
		return m, nil

	case filteredSignalsErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.FilterSentiment):
			// Sentiment and type chips are mutually exclusive so the
			// displayed state matches the query exactly.
			m.sentimentIdx = (m.sentimentIdx + 1) % len(sentimentOptions)
			m.typeIdx = 0
			m.loading = true
			return m, m.fetchSignalsCmd()

		case key.Matches(msg, DefaultKeyMap.FilterWindow):
			m.windowIdx = (m.windowIdx + 1) % len(windowOptions)
			m.loading = true
			return m, m.fetchSignalsCmd()

		case key.Matches(msg, DefaultKeyMap.FilterType):
			m.typeIdx = (m.typeIdx + 1) % len(typeOptions)
			m.sentimentIdx = 0
			m.loading = true
			return m, m.fetchSignalsCmd()

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.fetchSignalsCmd()

		case msg.String() == "j" || msg.String() == "down":
			maxVisible := m.visibleRows()
			if m.scrollOffset < len(m.signals)-maxVisible {
				m.scrollOffset++
			}
			return m, nil

		case msg.String() == "k" || msg.String() == "up":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
			return m, nil
		}
	}

	return m, nil
}

// View renders the signal explorer.
func (m SignalExplorerModel) View() string {
	var sections []string

	// Header
	sections = append(sections, HeaderStyle.Render("  Signal Explorer"))
	sections = append(sections, "")

	// Filter chips
	sections = append(sections, m.renderFilters()...)
	sections = append(sections, SubtextStyle.Render(strings.Repeat("─", m.width-2)))

	if m.loading {
		sections = append(sections, SubtextStyle.Render("  Loading..."))
		return strings.Join(sections, "\n")
	}

	if m.err != nil {
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	}

	if len(m.signals) == 0 {
		sections = append(sections, SubtextStyle.Render("  No signals match the current filters"))
		return strings.Join(sections, "\n")
	}

	// Table header
	sections = append(sections, SubtextStyle.Render(
		fmt.Sprintf("  %-6s %-6s %-21s %10s  %s",
			"ID", "Symbol", "Type", "Price", "Bar Date"),
	))

	// Table rows
	maxVisible := m.visibleRows()
	end := m.scrollOffset + maxVisible
	if end > len(m.signals) {
		end = len(m.signals)
	}

	for i := m.scrollOffset; i < end; i++ {
		sections = append(sections, "  "+FormatSignal(m.signals[i]))
	}

	// Scroll indicator
	if len(m.signals) > maxVisible {
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d-%d of %d (j/k to scroll)", m.scrollOffset+1, end, len(m.signals)),
		))
	}

	// Help
	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [s] sentiment  [w] window  [t] type  [R] refresh  [j/k] scroll"))

	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *SignalExplorerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// FilterState returns current filter indices (for testing).
func (m SignalExplorerModel) FilterState() (sentimentIdx, windowIdx, typeIdx int) {
	return m.sentimentIdx, m.windowIdx, m.typeIdx
}

// SignalCount returns the number of loaded signals (for testing).
func (m SignalExplorerModel) SignalCount() int { return len(m.signals) }

func (m SignalExplorerModel) renderFilters() []string {
	sentimentChip := m.renderChip("Sentiment", sentimentOptions, m.sentimentIdx, nil)
	windowChip := m.renderChip("Window", windowOptions, m.windowIdx, nil)
	typeChip := m.renderChip("Type", typeOptions, m.typeIdx, func(opt string) string {
		if opt == "ALL" {
			return "ALL"
		}
		return ShortSignalType(domain.SignalType(opt))
	})
	return []string{
		"  " + lipgloss.JoinHorizontal(lipgloss.Top, sentimentChip, "  ", windowChip),
		"  " + typeChip,
	}
}

func (m SignalExplorerModel) renderChip(label string, options []string, active int, display func(string) string) string {
	var parts []string
	parts = append(parts, SubtextStyle.Render(label+": "))
	for i, opt := range options {
		shown := strings.ToUpper(opt)
		if display != nil {
			shown = display(opt)
		}
		if i == active {
			parts = append(parts, ActiveTabStyle.Render(shown))
		} else {
			parts = append(parts, SubtextStyle.Render(shown))
		}
		parts = append(parts, " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m SignalExplorerModel) buildFilter() domain.SignalFilter {
	filter := domain.SignalFilter{
		Limit: 100,
		Since: time.Now().Add(-time.Duration(windowHours[m.windowIdx]) * time.Hour),
	}

	if m.typeIdx > 0 && m.typeIdx < len(typeOptions) {
		filter.Types = []domain.SignalType{domain.SignalType(typeOptions[m.typeIdx])}
	} else if m.sentimentIdx > 0 && m.sentimentIdx < len(sentimentOptions) {
		want := domain.SignalSentiment(sentimentOptions[m.sentimentIdx])
		for _, t := range domain.AllSignalTypes() {
			if t.Sentiment() == want {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	return filter
}

func (m SignalExplorerModel) fetchSignalsCmd() tea.Cmd {
	filter := m.buildFilter()
	return func() tea.Msg {
		if m.services.Signals == nil {
			return filteredSignalsErrMsg{err: fmt.Errorf("signal service not available")}
		}
		signals, err := m.services.Signals.ListSignals(context.Background(), filter)
		if err != nil {
			return filteredSignalsErrMsg{err: err}
		}
		return filteredSignalsMsg(signals)
	}
}

func (m SignalExplorerModel) visibleRows() int {
	// Account for header, filters, table header, help footer
	available := m.height - 11
	if available < 5 {
		return 5
	}
	return available
}
