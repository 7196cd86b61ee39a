package tui

import (
	"testing"
	"time"

	"argus/internal/domain"
)

func TestDashboardUpdateScreenMsg(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)

	resp := &domain.ScreenerResponse{
		Results: []domain.ScreenerEntry{
			{Symbol: "AAPL", Price: 189.50, ChangePercent: 1.2, MAPeriod: domain.MA20W, DistancePercent: 2.1, Position: domain.PositionAbove},
			{Symbol: "MSFT", Price: 410.10, ChangePercent: -0.4, MAPeriod: domain.MA20W, DistancePercent: -1.7, Position: domain.PositionBelow},
		},
		Total: 2,
	}

	updated, _ := m.Update(screenMsg(resp))
	if updated.Screen() == nil || len(updated.Screen().Results) != 2 {
		t.Fatalf("expected 2 screen entries, got %+v", updated.Screen())
	}
	if updated.Screen().Results[0].Symbol != "AAPL" {
		t.Fatalf("expected AAPL, got %s", updated.Screen().Results[0].Symbol)
	}
}

func TestDashboardUpdateSignalsMsg(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)

	signals := []domain.Signal{
		{ID: 1, Symbol: "AAPL", Type: domain.SignalRSIOversold, Price: 189.50, Timestamp: time.Now()},
	}

	updated, _ := m.Update(signalsMsg(signals))
	if len(updated.Signals()) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(updated.Signals()))
	}
}

func TestDashboardViewEmpty(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)
	m.loading = false

	view := m.View()
	if view == "" {
		t.Fatal("expected non-empty view")
	}
}

func TestDashboardViewWithData(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)

	m.screen = &domain.ScreenerResponse{
		Results: []domain.ScreenerEntry{
			{Symbol: "AAPL", Price: 189.50, ChangePercent: 1.2, MAPeriod: domain.MA20W, DistancePercent: 2.1, Position: domain.PositionAbove},
		},
		Total: 1,
	}
	m.signals = []domain.Signal{
		{ID: 1, Symbol: "AAPL", Type: domain.SignalNew52WHigh, Price: 189.50, Timestamp: time.Now()},
	}
	m.loading = false

	view := m.View()
	if view == "" {
		t.Fatal("expected non-empty view with data")
	}
}
