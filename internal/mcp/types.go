package mcp

import (
	"fmt"
	"strings"
	"time"

	"argus/internal/domain"
)

const (
	defaultBarLimit    = 100
	maxBarLimit        = 500
	defaultSignalLimit = 50
	maxSignalLimit     = 200
	maxSignalHours     = 168
)

type quoteGetInput struct {
	Symbol string `json:"symbol" jsonschema:"stock ticker (e.g. AAPL, MSFT)"`
}

type quoteGetOutput struct {
	Quote *domain.Quote `json:"quote"`
}

type historyListInput struct {
	Symbol    string `json:"symbol" jsonschema:"stock ticker (e.g. AAPL, MSFT)"`
	Timeframe string `json:"timeframe,omitempty" jsonschema:"bar timeframe: daily or weekly (default daily)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of bars to return, max 500"`
}

type historyListOutput struct {
	Symbol    string           `json:"symbol"`
	Timeframe domain.Timeframe `json:"timeframe"`
	Bars      []domain.Bar     `json:"bars"`
}

type indicatorsGetInput struct {
	Symbol string `json:"symbol" jsonschema:"stock ticker (e.g. AAPL, MSFT)"`
	MAType string `json:"ma_type,omitempty" jsonschema:"moving average type: sma or ema (default sma)"`
}

type indicatorsGetOutput struct {
	Indicators *domain.IndicatorSnapshot `json:"indicators"`
}

type screenerRunInput struct {
	MAFilter     string  `json:"ma_filter,omitempty" jsonschema:"weekly moving average: 20W, 50W, 100W, 200W (default 20W)"`
	MAType       string  `json:"ma_type,omitempty" jsonschema:"moving average type: sma or ema (default sma)"`
	DistancePct  float64 `json:"distance_pct,omitempty" jsonschema:"max distance from the average in percent, 0-100"`
	IncludeBelow *bool   `json:"include_below,omitempty" jsonschema:"include stocks below the average (default true)"`
	IncludeAbove *bool   `json:"include_above,omitempty" jsonschema:"include stocks above the average (default true)"`
	SortBy       string  `json:"sort_by,omitempty" jsonschema:"sort field: symbol, name, price, distance, market_cap, change"`
	SortOrder    string  `json:"sort_order,omitempty" jsonschema:"asc or desc"`
	Limit        int     `json:"limit,omitempty" jsonschema:"page size, max 500"`
	Offset       int     `json:"offset,omitempty" jsonschema:"page offset"`
}

type screenerRunOutput struct {
	Response *domain.ScreenerResponse `json:"response"`
}

type signalsListInput struct {
	Symbols []string `json:"symbols,omitempty" jsonschema:"optional ticker filter"`
	Types   []string `json:"types,omitempty" jsonschema:"optional signal type filter (see market://signal-types)"`
	Hours   int      `json:"hours,omitempty" jsonschema:"lookback window in hours, max 168 (default 24)"`
	Limit   int      `json:"limit,omitempty" jsonschema:"number of signals to return, max 200"`
}

type signalsListOutput struct {
	Signals []domain.Signal `json:"signals"`
}

type signalsDetectInput struct {
	Symbols []string `json:"symbols,omitempty" jsonschema:"tickers to scan; empty scans the whole active universe"`
}

type signalsDetectOutput struct {
	Symbols  int             `json:"symbols"`
	Detected int             `json:"detected"`
	Saved    int             `json:"saved"`
	Skipped  int             `json:"skipped"`
	Errors   int             `json:"errors"`
	Signals  []domain.Signal `json:"signals,omitempty"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return symbol, nil
}

func normalizeSymbolList(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		if _, exists := seen[symbol]; exists {
			continue
		}
		seen[symbol] = struct{}{}
		result = append(result, symbol)
	}
	return result
}

func normalizeTimeframe(raw string) (domain.Timeframe, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return domain.TimeframeDaily, nil
	}
	tf := domain.Timeframe(raw)
	if !tf.IsValid() {
		return "", fmt.Errorf("unsupported timeframe: %s", raw)
	}
	return tf, nil
}

func normalizeMAType(raw string) (domain.MAType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return domain.MASimple, nil
	}
	mt := domain.MAType(raw)
	if !mt.IsValid() {
		return "", fmt.Errorf("unsupported ma_type: %s", raw)
	}
	return mt, nil
}

func normalizeBarLimit(limit int) int {
	if limit <= 0 {
		return defaultBarLimit
	}
	if limit > maxBarLimit {
		return maxBarLimit
	}
	return limit
}

func normalizeSignalLimit(limit int) int {
	if limit <= 0 {
		return defaultSignalLimit
	}
	if limit > maxSignalLimit {
		return maxSignalLimit
	}
	return limit
}

func normalizeSignalFilter(in signalsListInput) (domain.SignalFilter, error) {
	filter := domain.SignalFilter{
		Symbols: normalizeSymbolList(in.Symbols),
		Limit:   normalizeSignalLimit(in.Limit),
	}

	for _, raw := range in.Types {
		st := domain.SignalType(strings.ToLower(strings.TrimSpace(raw)))
		if !st.IsValid() {
			return domain.SignalFilter{}, fmt.Errorf("unsupported signal type: %s", raw)
		}
		filter.Types = append(filter.Types, st)
	}

	hours := in.Hours
	if hours < 0 || hours > maxSignalHours {
		return domain.SignalFilter{}, fmt.Errorf("hours must be between 0 and %d", maxSignalHours)
	}
	if hours == 0 {
		hours = 24
	}
	filter.Since = time.Now().Add(-time.Duration(hours) * time.Hour)

	return filter, nil
}

func normalizeScreenerRequest(in screenerRunInput) (domain.ScreenerRequest, error) {
	req := domain.DefaultScreenerRequest()

	if raw := strings.TrimSpace(in.MAFilter); raw != "" {
		req.MAFilter = domain.MAPeriod(strings.ToUpper(raw))
	}
	if raw := strings.TrimSpace(in.MAType); raw != "" {
		req.MAType = domain.MAType(strings.ToLower(raw))
	}
	if in.DistancePct != 0 {
		req.DistancePct = in.DistancePct
	}
	if in.IncludeBelow != nil {
		req.IncludeBelow = *in.IncludeBelow
	}
	if in.IncludeAbove != nil {
		req.IncludeAbove = *in.IncludeAbove
	}
	if raw := strings.TrimSpace(in.SortBy); raw != "" {
		req.SortBy = strings.ToLower(raw)
	}
	if raw := strings.TrimSpace(in.SortOrder); raw != "" {
		req.SortOrder = strings.ToLower(raw)
	}
	if in.Limit != 0 {
		req.Limit = in.Limit
	}
	if in.Offset != 0 {
		req.Offset = in.Offset
	}

	if err := req.Validate(); err != nil {
		return domain.ScreenerRequest{}, err
	}
	return req, nil
}
