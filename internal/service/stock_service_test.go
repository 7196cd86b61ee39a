package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"argus/internal/cache"
	"argus/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewStore(client)
}

func dailyFixture(n int, start float64) []domain.Bar {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		c := start + float64(i)*0.25
		bars[i] = domain.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c - 0.1,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    10_000,
		}
	}
	return bars
}

type stubMarketData struct {
	quote    *domain.Quote
	quoteErr error
	info     *domain.StockInfo
	infoErr  error
	daily    []domain.Bar
	weekly   []domain.Bar
	dailyErr error

	quoteCalls    int
	lastDailyDays int
	lastWeekly    int
}

func (s *stubMarketData) FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error) {
	s.lastDailyDays = days
	return s.daily, s.dailyErr
}

func (s *stubMarketData) FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]domain.Bar, error) {
	s.lastWeekly = weeks
	return s.weekly, nil
}

func (s *stubMarketData) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	s.quoteCalls++
	return s.quote, s.quoteErr
}

func (s *stubMarketData) FetchStockInfo(ctx context.Context, symbol string) (*domain.StockInfo, error) {
	return s.info, s.infoErr
}

type stubStockUniverse struct {
	entries   []domain.UniverseEntry
	searchOut []domain.UniverseEntry
	lastQuery string
	lastLimit int
}

func (s *stubStockUniverse) ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error) {
	return s.entries, nil
}

func (s *stubStockUniverse) Search(ctx context.Context, query string, limit int) ([]domain.UniverseEntry, error) {
	s.lastQuery = query
	s.lastLimit = limit
	return s.searchOut, nil
}

type stubBarSink struct {
	calls         int
	lastSymbol    string
	lastTimeframe domain.Timeframe
	lastCount     int
}

func (s *stubBarSink) UpsertBars(ctx context.Context, symbol string, timeframe domain.Timeframe, bars []domain.Bar) error {
	s.calls++
	s.lastSymbol = symbol
	s.lastTimeframe = timeframe
	s.lastCount = len(bars)
	return nil
}

func TestStockServiceGetQuoteRejectsEmptySymbol(t *testing.T) {
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), &stubMarketData{}, nil, nil, nil)

	if _, err := svc.GetQuote(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestStockServiceGetQuoteServedFromCacheOnSecondCall(t *testing.T) {
	provider := &stubMarketData{
		quote: &domain.Quote{Symbol: "AAPL", Price: 231.5, ChangePercent: 1.2},
	}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, nil, nil, newTestStore(t))

	first, err := svc.GetQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.quoteCalls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", provider.quoteCalls)
	}
	if first.Price != second.Price || second.Price != 231.5 {
		t.Fatalf("cache round trip changed the quote: %v vs %v", first.Price, second.Price)
	}
}

func TestStockServiceGetStockInfoFillsSectorFromUniverse(t *testing.T) {
	provider := &stubMarketData{
		info: &domain.StockInfo{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NMS"},
	}
	universe := &stubStockUniverse{
		entries: []domain.UniverseEntry{{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology"}},
	}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, universe, nil, nil)

	info, err := svc.GetStockInfo(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Sector != "Technology" {
		t.Fatalf("expected sector from catalog, got %q", info.Sector)
	}
}

func TestStockServiceGetHistoryDefaultsAndWritesThrough(t *testing.T) {
	provider := &stubMarketData{daily: dailyFixture(10, 100)}
	sink := &stubBarSink{}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, nil, sink, nil)

	bars, err := svc.GetHistory(context.Background(), "msft", domain.TimeframeDaily, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 10 {
		t.Fatalf("expected 10 bars, got %d", len(bars))
	}
	if provider.lastDailyDays != historyDefaultDaily {
		t.Fatalf("expected default limit %d, got %d", historyDefaultDaily, provider.lastDailyDays)
	}
	if sink.calls != 1 || sink.lastSymbol != "MSFT" || sink.lastTimeframe != domain.TimeframeDaily {
		t.Fatalf("expected one daily write-through for MSFT, got %+v", sink)
	}
}

func TestStockServiceGetHistoryCapsLimitAndSkipsWeeklyWriteThrough(t *testing.T) {
	provider := &stubMarketData{weekly: dailyFixture(5, 100)}
	sink := &stubBarSink{}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, nil, sink, nil)

	if _, err := svc.GetHistory(context.Background(), "MSFT", domain.TimeframeWeekly, 99999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastWeekly != historyMaxWeekly {
		t.Fatalf("expected capped limit %d, got %d", historyMaxWeekly, provider.lastWeekly)
	}
	if sink.calls != 0 {
		t.Fatalf("weekly bars must not reach the warehouse, got %d calls", sink.calls)
	}
}

func TestStockServiceGetHistoryRejectsUnknownTimeframe(t *testing.T) {
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), &stubMarketData{}, nil, nil, nil)

	_, err := svc.GetHistory(context.Background(), "MSFT", domain.Timeframe("hourly"), 10)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestStockServiceGetIndicatorsSnapshotShape(t *testing.T) {
	provider := &stubMarketData{daily: dailyFixture(250, 100)}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, nil, nil, nil)

	snap, err := svc.GetIndicators(context.Background(), "AAPL", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastDailyDays != indicatorLookbackDays {
		t.Fatalf("expected lookback %d, got %d", indicatorLookbackDays, provider.lastDailyDays)
	}
	if snap.Price == nil || *snap.Price != provider.daily[249].Close {
		t.Fatalf("expected price from last close, got %v", snap.Price)
	}
	if len(snap.MAs) != 4 {
		t.Fatalf("expected 4 moving averages, got %d", len(snap.MAs))
	}
	// 250 bars define the 20W and 50W averages but not the longer two.
	if snap.MAs[0].CurrentValue == nil || snap.MAs[1].CurrentValue == nil {
		t.Fatal("expected 20W and 50W averages defined")
	}
	if snap.MAs[2].CurrentValue != nil || snap.MAs[3].CurrentValue != nil {
		t.Fatal("expected 100W and 200W averages null on short history")
	}
	if snap.RSI == nil || snap.RSI.CurrentValue == nil {
		t.Fatal("expected RSI defined")
	}
	if snap.MACD == nil || snap.MACD.CurrentMACD == nil {
		t.Fatal("expected MACD defined")
	}
	if len(snap.MAs[0].Series) != 0 || len(snap.RSI.Series) != 0 {
		t.Fatal("snapshot must omit series")
	}
}

func TestStockServiceGetIndicatorsRejectsUnknownMAType(t *testing.T) {
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), &stubMarketData{}, nil, nil, nil)

	_, err := svc.GetIndicators(context.Background(), "AAPL", domain.MAType("hull"))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestStockServiceGetChartDataSlicesDailyWindow(t *testing.T) {
	provider := &stubMarketData{daily: dailyFixture(400, 100)}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, nil, nil, nil)

	data, err := svc.GetChartData(context.Background(), "AAPL", "3m", domain.TimeframeDaily, domain.MASimple)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Period != "3M" {
		t.Fatalf("expected normalized period 3M, got %s", data.Period)
	}
	if len(data.Bars) != 63 {
		t.Fatalf("expected 63 bars in window, got %d", len(data.Bars))
	}
	if len(data.MAs) != 4 || len(data.MAs[0].Series) != 63 {
		t.Fatalf("expected sliced MA series, got %d points", len(data.MAs[0].Series))
	}
	// Indicators run over the full history, so the 20W average is defined at
	// the left edge of the window.
	if data.MAs[0].Series[0].Value == nil {
		t.Fatal("expected 20W average defined at window start")
	}
	if len(data.RSI.Series) != 63 || len(data.MACD.MACDLine) != 63 {
		t.Fatalf("expected sliced oscillator series, got %d/%d", len(data.RSI.Series), len(data.MACD.MACDLine))
	}
	if !data.AsOf.Equal(provider.daily[399].Timestamp) {
		t.Fatalf("expected as_of from last bar, got %v", data.AsOf)
	}
}

func TestStockServiceGetChartDataResamplesWeekly(t *testing.T) {
	provider := &stubMarketData{daily: dailyFixture(400, 100)}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), provider, nil, nil, nil)

	data, err := svc.GetChartData(context.Background(), "AAPL", "3M", domain.TimeframeWeekly, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Timeframe != domain.TimeframeWeekly {
		t.Fatalf("expected weekly timeframe, got %s", data.Timeframe)
	}
	if len(data.Bars) != 13 {
		t.Fatalf("expected 13 weekly bars, got %d", len(data.Bars))
	}
	if len(data.MAs[0].Series) != 13 {
		t.Fatalf("expected 13 MA points, got %d", len(data.MAs[0].Series))
	}
}

func TestStockServiceGetChartDataRejectsUnknownPeriod(t *testing.T) {
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), &stubMarketData{}, nil, nil, nil)

	_, err := svc.GetChartData(context.Background(), "AAPL", "9Y", domain.TimeframeDaily, domain.MASimple)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestStockServiceSearchDelegatesWithDefaultLimit(t *testing.T) {
	universe := &stubStockUniverse{
		searchOut: []domain.UniverseEntry{{Symbol: "AAPL", Name: "Apple Inc."}},
	}
	svc := NewStockService(trace.NewNoopTracerProvider().Tracer("test"), &stubMarketData{}, universe, nil, nil)

	out, err := svc.Search(context.Background(), " apple ", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one hit, got %d", len(out))
	}
	if universe.lastQuery != "apple" || universe.lastLimit != searchDefaultLimit {
		t.Fatalf("unexpected delegate args: %q %d", universe.lastQuery, universe.lastLimit)
	}

	if _, err := svc.Search(context.Background(), "   ", 5); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for empty query, got %v", err)
	}
}

func TestResampleWeeklyFoldsSessions(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	daily := []domain.Bar{
		{Timestamp: day(2), Open: 10, High: 15, Low: 9, Close: 10.5, Volume: 100},
		{Timestamp: day(3), Open: 11, High: 15, Low: 9, Close: 11.5, Volume: 100},
		{Timestamp: day(4), Open: 12, High: 20, Low: 9, Close: 12.5, Volume: 100},
		{Timestamp: day(5), Open: 13, High: 15, Low: 5, Close: 13.5, Volume: 100},
		{Timestamp: day(6), Open: 14, High: 15, Low: 9, Close: 14.5, Volume: 100},
		{Timestamp: day(9), Open: 15, High: 16, Low: 14, Close: 15.5, Volume: 200},
		{Timestamp: day(10), Open: 15.5, High: 17, Low: 15, Close: 16, Volume: 200},
	}

	weekly := ResampleWeekly(daily)
	if len(weekly) != 2 {
		t.Fatalf("expected 2 weekly bars, got %d", len(weekly))
	}
	first := weekly[0]
	if first.Open != 10 || first.Close != 14.5 {
		t.Fatalf("unexpected open/close: %v/%v", first.Open, first.Close)
	}
	if first.High != 20 || first.Low != 5 {
		t.Fatalf("unexpected high/low: %v/%v", first.High, first.Low)
	}
	if first.Volume != 500 {
		t.Fatalf("expected summed volume 500, got %v", first.Volume)
	}
	if !first.Timestamp.Equal(day(6)) {
		t.Fatalf("expected last session timestamp, got %v", first.Timestamp)
	}
	second := weekly[1]
	if second.Open != 15 || second.Close != 16 || second.Volume != 400 {
		t.Fatalf("unexpected second week: %+v", second)
	}
}
