package mcp

import (
	"context"
	"testing"
	"time"

	"argus/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, stocks, signals, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(tools.Tools) < 6 {
		t.Fatalf("expected at least 6 tools, got %d", len(tools.Tools))
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "quote_get", Arguments: map[string]any{"symbol": "aapl"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "history_list",
		Arguments: map[string]any{"symbol": "AAPL", "timeframe": "weekly", "limit": 10},
	})
	if err != nil {
		t.Fatalf("history tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected history tool error: %+v", res.Content)
	}
	if stocks.lastHistoryTimeframe != domain.TimeframeWeekly || stocks.lastHistoryLimit != 10 {
		t.Fatalf("history called with timeframe=%s limit=%d", stocks.lastHistoryTimeframe, stocks.lastHistoryLimit)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "signals_detect", Arguments: map[string]any{"symbols": []string{"msft"}}})
	if err != nil {
		t.Fatalf("detect tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected detect tool error: %+v", res.Content)
	}
	if len(signals.lastDetectSymbols) != 1 || signals.lastDetectSymbols[0] != "MSFT" {
		t.Fatalf("unexpected detect symbols: %+v", signals.lastDetectSymbols)
	}
}

func TestDetectToolScansUniverseByDefault(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, signals, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "signals_detect", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("detect tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected detect tool error: %+v", res.Content)
	}
	if len(signals.lastDetectSymbols) != 2 {
		t.Fatalf("expected the active universe, got %+v", signals.lastDetectSymbols)
	}
}

func TestScreenerToolAppliesDefaults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _, screener := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "screener_run",
		Arguments: map[string]any{"ma_filter": "50w", "include_below": false},
	})
	if err != nil {
		t.Fatalf("screener tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected screener tool error: %+v", res.Content)
	}
	if screener.lastRequest.MAFilter != domain.MA50W {
		t.Fatalf("expected MA50W filter, got %s", screener.lastRequest.MAFilter)
	}
	if screener.lastRequest.IncludeBelow || !screener.lastRequest.IncludeAbove {
		t.Fatalf("expected include_below=false include_above=true, got %+v", screener.lastRequest)
	}
	if screener.lastRequest.MAType != domain.MASimple {
		t.Fatalf("expected default sma, got %s", screener.lastRequest.MAType)
	}
}

func TestToolsValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "history_list",
		Arguments: map[string]any{"symbol": "AAPL", "timeframe": "hourly"},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error")
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "screener_run",
		Arguments: map[string]any{"sort_by": "volume"},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected screener validation error")
	}
}
