package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"argus/internal/domain"
	"argus/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubStockService struct {
	quotes     map[string]*domain.Quote
	bars       map[string][]domain.Bar
	indicators map[string]*domain.IndicatorSnapshot

	lastHistoryTimeframe domain.Timeframe
	lastHistoryLimit     int
	lastMAType           domain.MAType
}

func (s *stubStockService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	quote, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no quote for %s", domain.ErrNotFound, symbol)
	}
	out := *quote
	return &out, nil
}

func (s *stubStockService) GetHistory(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error) {
	s.lastHistoryTimeframe = timeframe
	s.lastHistoryLimit = limit
	bars := s.bars[symbol]
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return append([]domain.Bar(nil), bars...), nil
}

func (s *stubStockService) GetIndicators(ctx context.Context, symbol string, maType domain.MAType) (*domain.IndicatorSnapshot, error) {
	s.lastMAType = maType
	snap, ok := s.indicators[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no indicators for %s", domain.ErrNotFound, symbol)
	}
	out := *snap
	return &out, nil
}

type stubScreenerService struct {
	lastRequest domain.ScreenerRequest
	response    *domain.ScreenerResponse
}

func (s *stubScreenerService) Run(ctx context.Context, req domain.ScreenerRequest) (*domain.ScreenerResponse, error) {
	s.lastRequest = req
	return s.response, nil
}

type stubSignalService struct {
	listed   []domain.Signal
	detected *service.DetectBatchResult

	lastFilter        domain.SignalFilter
	lastDetectSymbols []string
}

func (s *stubSignalService) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	s.lastFilter = filter
	return append([]domain.Signal(nil), s.listed...), nil
}

func (s *stubSignalService) DetectBatch(ctx context.Context, symbols []string) (*service.DetectBatchResult, error) {
	s.lastDetectSymbols = append([]string(nil), symbols...)
	return s.detected, nil
}

type stubUniverse struct {
	entries []domain.UniverseEntry
}

func (s *stubUniverse) ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error) {
	return append([]domain.UniverseEntry(nil), s.entries...), nil
}

func (s *stubUniverse) ActiveSymbols(ctx context.Context) ([]string, error) {
	symbols := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		symbols = append(symbols, e.Symbol)
	}
	return symbols, nil
}

func testServer() (*sdkmcp.Server, *stubStockService, *stubSignalService, *stubScreenerService) {
	price := 231.5
	stocks := &stubStockService{
		quotes: map[string]*domain.Quote{
			"AAPL": {Symbol: "AAPL", Price: 231.5, Change: 2.3, ChangePercent: 1.0, Volume: 52_000_000, UpdatedAt: time.Unix(0, 0).UTC()},
		},
		bars: map[string][]domain.Bar{
			"AAPL": {{Timestamp: time.Unix(0, 0).UTC(), Open: 230, High: 233, Low: 229, Close: 231.5, Volume: 52_000_000}},
		},
		indicators: map[string]*domain.IndicatorSnapshot{
			"AAPL": {Symbol: "AAPL", Timeframe: domain.TimeframeDaily, Price: &price},
		},
	}
	screener := &stubScreenerService{
		response: &domain.ScreenerResponse{
			Results:  []domain.ScreenerEntry{{Symbol: "AAPL", Price: 231.5, Position: domain.PositionAbove}},
			Total:    1,
			MAFilter: domain.MA20W,
			MAType:   domain.MASimple,
		},
	}
	signals := &stubSignalService{
		listed: []domain.Signal{{
			ID: 1, Symbol: "AAPL", Type: domain.SignalRSIOversold, Price: 231.5, Timestamp: time.Unix(0, 0).UTC(),
		}},
		detected: &service.DetectBatchResult{
			Symbols: 2, Detected: 1, Saved: 1,
			Signals: []domain.Signal{{ID: 2, Symbol: "MSFT", Type: domain.SignalNew52WHigh, Price: 512, Timestamp: time.Unix(1, 0).UTC()}},
		},
	}
	universe := &stubUniverse{entries: []domain.UniverseEntry{
		{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology"},
	}}

	srv := NewServer(nil, stocks, screener, signals, universe, ServerConfig{RequestTimeout: time.Second})
	return srv, stocks, signals, screener
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
