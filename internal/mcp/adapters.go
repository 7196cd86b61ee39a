package mcp

import (
	"context"

	"argus/internal/domain"
	"argus/internal/service"
)

// StockReader exposes read operations for quotes, bars, and indicators.
type StockReader interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetHistory(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error)
	GetIndicators(ctx context.Context, symbol string, maType domain.MAType) (*domain.IndicatorSnapshot, error)
}

// ScreenerRunner runs a screen over the active universe.
type ScreenerRunner interface {
	Run(ctx context.Context, req domain.ScreenerRequest) (*domain.ScreenerResponse, error)
}

// SignalReaderWriter exposes read/detect operations for signals.
type SignalReaderWriter interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
	DetectBatch(ctx context.Context, symbols []string) (*service.DetectBatchResult, error)
}

// UniverseReader lists the tracked universe.
type UniverseReader interface {
	ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error)
	ActiveSymbols(ctx context.Context) ([]string, error)
}
