package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, stocks StockReader, screener ScreenerRunner, signals SignalReaderWriter, universe UniverseReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "quote_get",
		Description: "Get the latest quote for one stock",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in quoteGetInput) (*mcp.CallToolResult, quoteGetOutput, error) {
		if stocks == nil {
			return nil, quoteGetOutput{}, fmt.Errorf("stock service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, quoteGetOutput{}, err
		}
		quote, err := stocks.GetQuote(ctx, symbol)
		if err != nil {
			return nil, quoteGetOutput{}, err
		}
		return nil, quoteGetOutput{Quote: quote}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "history_list",
		Description: "Get daily or weekly OHLCV bars for a stock",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in historyListInput) (*mcp.CallToolResult, historyListOutput, error) {
		if stocks == nil {
			return nil, historyListOutput{}, fmt.Errorf("stock service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, historyListOutput{}, err
		}
		timeframe, err := normalizeTimeframe(in.Timeframe)
		if err != nil {
			return nil, historyListOutput{}, err
		}
		limit := normalizeBarLimit(in.Limit)

		bars, err := stocks.GetHistory(ctx, symbol, timeframe, limit)
		if err != nil {
			return nil, historyListOutput{}, err
		}
		return nil, historyListOutput{Symbol: symbol, Timeframe: timeframe, Bars: bars}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "indicators_get",
		Description: "Get the latest technical indicator snapshot (moving averages, RSI, MACD, 52-week range) for a stock",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in indicatorsGetInput) (*mcp.CallToolResult, indicatorsGetOutput, error) {
		if stocks == nil {
			return nil, indicatorsGetOutput{}, fmt.Errorf("stock service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, indicatorsGetOutput{}, err
		}
		maType, err := normalizeMAType(in.MAType)
		if err != nil {
			return nil, indicatorsGetOutput{}, err
		}
		snapshot, err := stocks.GetIndicators(ctx, symbol, maType)
		if err != nil {
			return nil, indicatorsGetOutput{}, err
		}
		return nil, indicatorsGetOutput{Indicators: snapshot}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "screener_run",
		Description: "Screen the tracked universe against a weekly moving average; omitted fields use the documented defaults",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in screenerRunInput) (*mcp.CallToolResult, screenerRunOutput, error) {
		if screener == nil {
			return nil, screenerRunOutput{}, fmt.Errorf("screener service unavailable")
		}
		req, err := normalizeScreenerRequest(in)
		if err != nil {
			return nil, screenerRunOutput{}, err
		}
		resp, err := screener.Run(ctx, req)
		if err != nil {
			return nil, screenerRunOutput{}, err
		}
		return nil, screenerRunOutput{Response: resp}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_list",
		Description: "Get recently detected signals with optional symbol/type/lookback filters",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsListInput) (*mcp.CallToolResult, signalsListOutput, error) {
		if signals == nil {
			return nil, signalsListOutput{}, fmt.Errorf("signal service unavailable")
		}
		filter, err := normalizeSignalFilter(in)
		if err != nil {
			return nil, signalsListOutput{}, err
		}
		result, err := signals.ListSignals(ctx, filter)
		if err != nil {
			return nil, signalsListOutput{}, err
		}
		return nil, signalsListOutput{Signals: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_detect",
		Description: "Run signal detection and persist the findings; empty symbol list scans the whole active universe",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsDetectInput) (*mcp.CallToolResult, signalsDetectOutput, error) {
		if signals == nil {
			return nil, signalsDetectOutput{}, fmt.Errorf("signal service unavailable")
		}
		symbols := normalizeSymbolList(in.Symbols)
		if len(symbols) == 0 {
			if universe == nil {
				return nil, signalsDetectOutput{}, fmt.Errorf("universe unavailable")
			}
			active, err := universe.ActiveSymbols(ctx)
			if err != nil {
				return nil, signalsDetectOutput{}, err
			}
			symbols = active
		}

		result, err := signals.DetectBatch(ctx, symbols)
		if err != nil {
			return nil, signalsDetectOutput{}, err
		}
		return nil, signalsDetectOutput{
			Symbols:  result.Symbols,
			Detected: result.Detected,
			Saved:    result.Saved,
			Skipped:  result.Skipped,
			Errors:   result.Errors,
			Signals:  result.Signals,
		}, nil
	})
}
