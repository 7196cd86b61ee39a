package tui

import (
	"testing"
	"time"

	"argus/internal/domain"
	"argus/internal/repository"
	"argus/internal/service"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPerformanceModelInitialState(t *testing.T) {
	m := NewPerformanceModel(testServices())
	if m.ActiveView() != perfViewAccuracy {
		t.Fatalf("expected accuracy view, got %d", m.ActiveView())
	}
	if m.HasData() {
		t.Fatal("expected no data initially")
	}
}

func TestPerformanceModelToggleView(t *testing.T) {
	m := NewPerformanceModel(testServices())
	m.SetSize(120, 40)

	// Press 'v' to toggle
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if updated.ActiveView() != perfViewRecent {
		t.Fatalf("expected recent view after toggle, got %d", updated.ActiveView())
	}

	// Toggle back
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if updated.ActiveView() != perfViewAccuracy {
		t.Fatalf("expected accuracy view after second toggle, got %d", updated.ActiveView())
	}
}

func TestPerformanceModelUpdateReport(t *testing.T) {
	m := NewPerformanceModel(testServices())
	m.SetSize(120, 40)

	report := &service.PerformanceReport{
		ByType: []domain.TypeAccuracy{
			{Type: domain.SignalRSIOversold, Resolved: 40, Correct: 26, Accuracy: 0.65, AvgReturnPct: 1.1},
		},
		Daily: []repository.DailyAccuracy{
			{DayUTC: time.Now().UTC(), Total: 12, Correct: 9, Accuracy: 0.75},
		},
	}

	updated, _ := m.Update(perfReportMsg(report))
	if !updated.HasData() {
		t.Fatal("expected data after report update")
	}
	if updated.loading {
		t.Fatal("expected loading cleared after report update")
	}
}

func TestPerformanceModelUpdateModelStats(t *testing.T) {
	m := NewPerformanceModel(testServices())
	m.SetSize(120, 40)

	updated, _ := m.Update(modelStatsMsg{correct: 11, total: 20})
	if updated.modelCorrect != 11 || updated.modelTotal != 20 {
		t.Fatalf("expected 11/20 model stats, got %d/%d", updated.modelCorrect, updated.modelTotal)
	}
}

func TestPerformanceModelViewEmpty(t *testing.T) {
	m := NewPerformanceModel(testServices())
	m.SetSize(120, 40)
	m.loading = false

	view := m.View()
	if view == "" {
		t.Fatal("expected non-empty view")
	}
}

func TestPerformanceModelViewWithData(t *testing.T) {
	m := NewPerformanceModel(testServices())
	m.SetSize(120, 40)
	m.loading = false
	m.modelCorrect = 11
	m.modelTotal = 20
	m.report = &service.PerformanceReport{
		ByType: []domain.TypeAccuracy{
			{Type: domain.SignalMACDBullishCross, Resolved: 80, Correct: 44, Accuracy: 0.55, AvgReturnPct: 0.4},
		},
		Recent: []domain.SignalOutcome{
			{SignalID: 7, Symbol: "AAPL", Type: domain.SignalMACDBullishCross, HorizonDays: 5, ReturnPct: 2.4, Correct: true, ResolvedAt: time.Now().UTC()},
		},
	}

	for _, view := range []int{perfViewAccuracy, perfViewRecent} {
		m.activeView = view
		if m.View() == "" {
			t.Fatalf("expected non-empty render for view %d", view)
		}
	}
}
