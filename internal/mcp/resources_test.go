package mcp

import (
	"context"
	"testing"
	"time"

	"argus/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestResourcesStaticAndTemplated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, signals, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	list, err := session.ListResources(ctx, &sdkmcp.ListResourcesParams{})
	if err != nil {
		t.Fatalf("list resources failed: %v", err)
	}
	if len(list.Resources) < 3 {
		t.Fatalf("expected at least 3 static resources, got %d", len(list.Resources))
	}

	templates, err := session.ListResourceTemplates(ctx, &sdkmcp.ListResourceTemplatesParams{})
	if err != nil {
		t.Fatalf("list templates failed: %v", err)
	}
	if len(templates.ResourceTemplates) < 3 {
		t.Fatalf("expected at least 3 resource templates, got %d", len(templates.ResourceTemplates))
	}

	readRes, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "universe://symbols"})
	if err != nil {
		t.Fatalf("read universe resource failed: %v", err)
	}
	var entries []domain.UniverseEntry
	if err := decodeResourceJSON(readRes, &entries); err != nil {
		t.Fatalf("decode universe failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 universe entries, got %d", len(entries))
	}

	readRes, err = session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "quotes://AAPL"})
	if err != nil {
		t.Fatalf("read quote resource failed: %v", err)
	}
	var quoteOut quoteGetOutput
	if err := decodeResourceJSON(readRes, &quoteOut); err != nil {
		t.Fatalf("decode quote failed: %v", err)
	}
	if quoteOut.Quote == nil || quoteOut.Quote.Symbol != "AAPL" {
		t.Fatalf("unexpected quote payload: %+v", quoteOut.Quote)
	}

	readRes, err = session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "signals://latest?symbols=AAPL&types=rsi_oversold&hours=48&limit=10"})
	if err != nil {
		t.Fatalf("read signals resource failed: %v", err)
	}
	var out signalsListOutput
	if err := decodeResourceJSON(readRes, &out); err != nil {
		t.Fatalf("decode signal output failed: %v", err)
	}
	if len(out.Signals) == 0 {
		t.Fatal("expected signals payload")
	}
	if len(signals.lastFilter.Symbols) != 1 || signals.lastFilter.Symbols[0] != "AAPL" {
		t.Fatalf("expected filter symbols [AAPL], got %v", signals.lastFilter.Symbols)
	}
	if len(signals.lastFilter.Types) != 1 || signals.lastFilter.Types[0] != domain.SignalRSIOversold {
		t.Fatalf("expected rsi_oversold filter, got %v", signals.lastFilter.Types)
	}
	if signals.lastFilter.Limit != 10 {
		t.Fatalf("expected filter limit 10, got %d", signals.lastFilter.Limit)
	}
}

func TestSignalTypeCatalogResource(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	readRes, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "market://signal-types"})
	if err != nil {
		t.Fatalf("read signal types failed: %v", err)
	}
	var catalog []struct {
		Type      domain.SignalType      `json:"type"`
		Sentiment domain.SignalSentiment `json:"sentiment"`
	}
	if err := decodeResourceJSON(readRes, &catalog); err != nil {
		t.Fatalf("decode catalog failed: %v", err)
	}
	if len(catalog) != len(domain.AllSignalTypes()) {
		t.Fatalf("expected the full catalog, got %d entries", len(catalog))
	}
}

func TestUnknownResourceURI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	if _, err = session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "signal-image://2"}); err == nil {
		t.Fatal("expected resource not found error for signal-image://2")
	}
}
