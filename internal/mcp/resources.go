package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"argus/internal/domain"
	"argus/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, stocks StockReader, signals SignalReaderWriter, universe UniverseReader) {
	server.AddResource(&mcp.Resource{
		URI:         "universe://symbols",
		Name:        "universe-symbols",
		Description: "Stocks currently tracked by the screener",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if universe == nil {
			return nil, fmt.Errorf("universe unavailable")
		}
		entries, err := universe.ActiveEntries(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, entries)
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://signal-types",
		Name:        "signal-types",
		Description: "Catalog of detectable signal types with descriptions and sentiment",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, service.SignalTypes())
	})

	server.AddResource(&mcp.Resource{
		URI:         "screener://defaults",
		Name:        "screener-defaults",
		Description: "Default screener request applied when fields are omitted",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, domain.DefaultScreenerRequest())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "quotes://{symbol}",
		Name:        "quote-by-symbol",
		Description: "Latest quote for a specific stock",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if stocks == nil {
			return nil, fmt.Errorf("stock service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "quotes" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol, err := normalizeSymbol(parsed.Host)
		if err != nil {
			return nil, err
		}

		quote, err := stocks.GetQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, quoteGetOutput{Quote: quote})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "history://{symbol}/{timeframe}{?limit}",
		Name:        "history-by-symbol-timeframe",
		Description: "OHLCV bars for a symbol and timeframe; optional limit query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if stocks == nil {
			return nil, fmt.Errorf("stock service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "history" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol, err := normalizeSymbol(parsed.Host)
		if err != nil {
			return nil, err
		}
		timeframe, err := normalizeTimeframe(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}

		limit := defaultBarLimit
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			limit = normalizeBarLimit(n)
		}

		bars, err := stocks.GetHistory(ctx, symbol, timeframe, limit)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, historyListOutput{Symbol: symbol, Timeframe: timeframe, Bars: bars})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "signals://latest{?symbols,types,hours,limit}",
		Name:        "signals-latest",
		Description: "Recently detected signals with optional symbols/types/hours/limit query params",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if signals == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "signals" || parsed.Host != "latest" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		input := signalsListInput{}
		if raw := strings.TrimSpace(parsed.Query().Get("symbols")); raw != "" {
			input.Symbols = strings.Split(raw, ",")
		}
		if raw := strings.TrimSpace(parsed.Query().Get("types")); raw != "" {
			input.Types = strings.Split(raw, ",")
		}
		if rawHours := strings.TrimSpace(parsed.Query().Get("hours")); rawHours != "" {
			n, err := strconv.Atoi(rawHours)
			if err != nil {
				return nil, fmt.Errorf("invalid hours: %s", rawHours)
			}
			input.Hours = n
		}
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			input.Limit = n
		}

		filter, err := normalizeSignalFilter(input)
		if err != nil {
			return nil, err
		}
		list, err := signals.ListSignals(ctx, filter)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, signalsListOutput{Signals: list})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
