package mcp

import (
	"testing"
	"time"

	"argus/internal/domain"
)

func TestNormalizeSymbol(t *testing.T) {
	s, err := normalizeSymbol(" aapl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "AAPL" {
		t.Fatalf("expected AAPL, got %s", s)
	}

	if _, err := normalizeSymbol("  "); err == nil {
		t.Fatal("expected missing symbol error")
	}
}

func TestNormalizeSymbolList(t *testing.T) {
	got := normalizeSymbolList([]string{" aapl", "AAPL", "", "msft "})
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Fatalf("expected deduped upper symbols, got %v", got)
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	tf, err := normalizeTimeframe("")
	if err != nil || tf != domain.TimeframeDaily {
		t.Fatalf("expected daily default, got %s err=%v", tf, err)
	}

	tf, err = normalizeTimeframe("WEEKLY")
	if err != nil || tf != domain.TimeframeWeekly {
		t.Fatalf("expected weekly, got %s err=%v", tf, err)
	}

	if _, err := normalizeTimeframe("hourly"); err == nil {
		t.Fatal("expected unsupported timeframe error")
	}
}

func TestNormalizeMAType(t *testing.T) {
	mt, err := normalizeMAType("")
	if err != nil || mt != domain.MASimple {
		t.Fatalf("expected sma default, got %s err=%v", mt, err)
	}

	mt, err = normalizeMAType("EMA")
	if err != nil || mt != domain.MAExponential {
		t.Fatalf("expected ema, got %s err=%v", mt, err)
	}

	if _, err := normalizeMAType("hull"); err == nil {
		t.Fatal("expected unsupported ma_type error")
	}
}

func TestNormalizeSignalFilter(t *testing.T) {
	filter, err := normalizeSignalFilter(signalsListInput{
		Symbols: []string{"aapl"},
		Types:   []string{"RSI_OVERSOLD"},
		Hours:   48,
		Limit:   999,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filter.Symbols) != 1 || filter.Symbols[0] != "AAPL" {
		t.Fatalf("expected symbols [AAPL], got %v", filter.Symbols)
	}
	if len(filter.Types) != 1 || filter.Types[0] != domain.SignalRSIOversold {
		t.Fatalf("expected rsi_oversold, got %v", filter.Types)
	}
	if filter.Limit != maxSignalLimit {
		t.Fatalf("expected capped signal limit %d, got %d", maxSignalLimit, filter.Limit)
	}
	wantSince := time.Now().Add(-48 * time.Hour)
	if filter.Since.Before(wantSince.Add(-time.Minute)) || filter.Since.After(wantSince.Add(time.Minute)) {
		t.Fatalf("since %v not near %v", filter.Since, wantSince)
	}

	if _, err := normalizeSignalFilter(signalsListInput{Types: []string{"golden_unicorn"}}); err == nil {
		t.Fatal("expected unsupported signal type error")
	}
	if _, err := normalizeSignalFilter(signalsListInput{Hours: 200}); err == nil {
		t.Fatal("expected hours range error")
	}
}

func TestNormalizeScreenerRequest(t *testing.T) {
	below := false
	req, err := normalizeScreenerRequest(screenerRunInput{
		MAFilter:     "50w",
		IncludeBelow: &below,
		Limit:        25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MAFilter != domain.MA50W {
		t.Fatalf("expected MA50W, got %s", req.MAFilter)
	}
	if req.IncludeBelow || !req.IncludeAbove {
		t.Fatalf("expected include_below=false include_above=true, got %+v", req)
	}
	if req.MAType != domain.MASimple || req.SortBy != "distance" {
		t.Fatalf("expected untouched defaults, got %+v", req)
	}
	if req.Limit != 25 {
		t.Fatalf("expected limit 25, got %d", req.Limit)
	}

	if _, err := normalizeScreenerRequest(screenerRunInput{SortBy: "volume"}); err == nil {
		t.Fatal("expected sort_by validation error")
	}
	if _, err := normalizeScreenerRequest(screenerRunInput{MAFilter: "13W"}); err == nil {
		t.Fatal("expected ma_filter validation error")
	}
}
