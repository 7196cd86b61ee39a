package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"argus/internal/cache"
	"argus/internal/domain"
	"argus/internal/indicator"

	"go.opentelemetry.io/otel/trace"
)

const (
	historyDefaultDaily  = 365
	historyDefaultWeekly = 156
	historyMaxDaily      = 2520
	historyMaxWeekly     = 520

	// Snapshot lookback covers the 1000-trading-day MA with some margin.
	indicatorLookbackDays = 1100
	chartLookbackDays     = 2520

	searchDefaultLimit = 10
)

// chartPeriodDays maps a chart period to the slice it keeps after computing
// indicators over the full history, so averages are defined at the left edge
// of the window.
var chartPeriodDays = map[string]int{
	"3M": 63,
	"6M": 126,
	"1Y": 252,
	"2Y": 504,
	"5Y": 1260,
}

var chartPeriodWeeks = map[string]int{
	"3M": 13,
	"6M": 26,
	"1Y": 52,
	"2Y": 104,
	"5Y": 260,
}

type MarketData interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error)
	FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]domain.Bar, error)
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	FetchStockInfo(ctx context.Context, symbol string) (*domain.StockInfo, error)
}

type StockUniverse interface {
	ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error)
	Search(ctx context.Context, query string, limit int) ([]domain.UniverseEntry, error)
}

// StockBarSink receives fetched daily bars so the warehouse stays current
// without a separate sync pass.
type StockBarSink interface {
	UpsertBars(ctx context.Context, symbol string, timeframe domain.Timeframe, bars []domain.Bar) error
}

type StockService struct {
	tracer   trace.Tracer
	provider MarketData
	universe StockUniverse
	barSink  StockBarSink
	store    *cache.Store
}

func NewStockService(
	tracer trace.Tracer,
	provider MarketData,
	universe StockUniverse,
	barSink StockBarSink,
	store *cache.Store,
) *StockService {
	return &StockService{
		tracer:   tracer,
		provider: provider,
		universe: universe,
		barSink:  barSink,
		store:    store,
	}
}

// ChartData is the full payload behind the chart endpoint: bars plus every
// overlay series, sliced to the requested window.
type ChartData struct {
	Symbol    string            `json:"symbol"`
	Timeframe domain.Timeframe  `json:"timeframe"`
	Period    string            `json:"period"`
	Bars      []domain.Bar      `json:"bars"`
	MAs       []domain.MAResult `json:"moving_averages"`
	RSI       domain.RSIResult  `json:"rsi"`
	MACD      domain.MACDResult `json:"macd"`
	AsOf      time.Time         `json:"as_of"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}
	return symbol, nil
}

func (s *StockService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.get-quote")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, fmt.Errorf("stock service is not fully initialized")
	}

	key := cache.Key("quote", symbol)
	var cached domain.Quote
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}

	quote, err := s.provider.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetJSON(ctx, key, quote, cache.ClassQuote); err != nil {
		log.Printf("quote cache set for %s failed: %v", symbol, err)
	}
	return quote, nil
}

func (s *StockService) GetStockInfo(ctx context.Context, symbol string) (*domain.StockInfo, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.get-stock-info")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, fmt.Errorf("stock service is not fully initialized")
	}

	key := cache.Key("info", symbol)
	var cached domain.StockInfo
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}

	info, err := s.provider.FetchStockInfo(ctx, symbol)
	if err != nil {
		return nil, err
	}
	// The chart payload has no sector; the universe catalog does.
	if info.Sector == "" && s.universe != nil {
		if entries, err := s.universe.ActiveEntries(ctx); err == nil {
			for _, e := range entries {
				if e.Symbol == symbol {
					info.Sector = e.Sector
					break
				}
			}
		}
	}
	if err := s.store.SetJSON(ctx, key, info, cache.ClassStockInfo); err != nil {
		log.Printf("info cache set for %s failed: %v", symbol, err)
	}
	return info, nil
}

// GetHistory returns OHLCV bars, newest last. Daily fetches flow through to
// the bar warehouse when one is wired.
func (s *StockService) GetHistory(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.get-history")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if !timeframe.IsValid() {
		return nil, fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidRequest, string(timeframe))
	}
	if s.provider == nil {
		return nil, fmt.Errorf("stock service is not fully initialized")
	}

	class := cache.ClassOHLCVDaily
	switch timeframe {
	case domain.TimeframeDaily:
		if limit <= 0 {
			limit = historyDefaultDaily
		}
		if limit > historyMaxDaily {
			limit = historyMaxDaily
		}
	case domain.TimeframeWeekly:
		class = cache.ClassOHLCVWeekly
		if limit <= 0 {
			limit = historyDefaultWeekly
		}
		if limit > historyMaxWeekly {
			limit = historyMaxWeekly
		}
	}

	key := cache.Key("bars", symbol, string(timeframe), fmt.Sprintf("%d", limit))
	var cached []domain.Bar
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	var bars []domain.Bar
	if timeframe == domain.TimeframeWeekly {
		bars, err = s.provider.FetchWeeklyBars(ctx, symbol, limit)
	} else {
		bars, err = s.provider.FetchDailyBars(ctx, symbol, limit)
	}
	if err != nil {
		return nil, err
	}

	if timeframe == domain.TimeframeDaily && s.barSink != nil {
		if err := s.barSink.UpsertBars(ctx, symbol, timeframe, bars); err != nil {
			log.Printf("bar write-through for %s failed: %v", symbol, err)
		}
	}
	if err := s.store.SetJSON(ctx, key, bars, class); err != nil {
		log.Printf("bars cache set for %s failed: %v", symbol, err)
	}
	return bars, nil
}

// GetIndicators builds the per-symbol summary: all four weekly MAs, RSI(14)
// and MACD(12,26,9), series omitted. Missing history shows up as nulls, not
// errors.
func (s *StockService) GetIndicators(ctx context.Context, symbol string, maType domain.MAType) (*domain.IndicatorSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.get-indicators")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if maType == "" {
		maType = domain.MASimple
	}
	if !maType.IsValid() {
		return nil, fmt.Errorf("%w: unknown ma_type %q", domain.ErrInvalidRequest, string(maType))
	}
	if s.provider == nil {
		return nil, fmt.Errorf("stock service is not fully initialized")
	}

	key := cache.Key("indicators", symbol, string(maType))
	var cached domain.IndicatorSnapshot
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}

	bars, err := s.provider.FetchDailyBars(ctx, symbol, indicatorLookbackDays)
	if err != nil {
		return nil, err
	}
	snapshot := buildSnapshot(symbol, domain.TimeframeDaily, bars, maType)
	if err := s.store.SetJSON(ctx, key, snapshot, cache.ClassIndicators); err != nil {
		log.Printf("indicators cache set for %s failed: %v", symbol, err)
	}
	return snapshot, nil
}

func buildSnapshot(symbol string, timeframe domain.Timeframe, bars []domain.Bar, maType domain.MAType) *domain.IndicatorSnapshot {
	snapshot := &domain.IndicatorSnapshot{
		Symbol:    symbol,
		Timeframe: timeframe,
	}
	if len(bars) > 0 {
		last := bars[len(bars)-1]
		price := last.Close
		snapshot.Price = &price
		snapshot.AsOf = last.Timestamp
	}
	for _, label := range domain.AllMAPeriods() {
		snapshot.MAs = append(snapshot.MAs, indicator.MovingAverage(bars, label, maType, false))
	}
	rsi := indicator.RelativeStrength(bars, indicator.RSIPeriod, false)
	snapshot.RSI = &rsi
	macd := indicator.Convergence(bars, indicator.MACDFastPeriod, indicator.MACDSlowPeriod, indicator.MACDSignalPeriod, false)
	snapshot.MACD = &macd
	return snapshot
}

// GetChartData computes indicators over the full history and slices the
// requested window, so overlays are defined from the first visible bar.
func (s *StockService) GetChartData(ctx context.Context, symbol, period string, timeframe domain.Timeframe, maType domain.MAType) (*ChartData, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.get-chart-data")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	period = strings.ToUpper(strings.TrimSpace(period))
	if period == "" {
		period = "1Y"
	}
	if _, ok := chartPeriodDays[period]; !ok {
		return nil, fmt.Errorf("%w: unknown period %q", domain.ErrInvalidRequest, period)
	}
	if timeframe == "" {
		timeframe = domain.TimeframeDaily
	}
	if !timeframe.IsValid() {
		return nil, fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidRequest, string(timeframe))
	}
	if maType == "" {
		maType = domain.MASimple
	}
	if !maType.IsValid() {
		return nil, fmt.Errorf("%w: unknown ma_type %q", domain.ErrInvalidRequest, string(maType))
	}
	if s.provider == nil {
		return nil, fmt.Errorf("stock service is not fully initialized")
	}

	type chartKey struct {
		Symbol    string
		Period    string
		Timeframe domain.Timeframe
		MAType    domain.MAType
	}
	key := cache.ParamsKey("chart", chartKey{symbol, period, timeframe, maType})
	var cached ChartData
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}

	daily, err := s.provider.FetchDailyBars(ctx, symbol, chartLookbackDays)
	if err != nil {
		return nil, err
	}

	bars := daily
	window := chartPeriodDays[period]
	if timeframe == domain.TimeframeWeekly {
		bars = ResampleWeekly(daily)
		window = chartPeriodWeeks[period]
	}

	data := &ChartData{
		Symbol:    symbol,
		Timeframe: timeframe,
		Period:    period,
	}
	for _, label := range domain.AllMAPeriods() {
		samples, _ := label.Days()
		if timeframe == domain.TimeframeWeekly {
			samples, _ = label.Weeks()
		}
		ma := indicator.MovingAverageSampled(bars, label, samples, maType, true)
		ma.Series = sliceSeries(ma.Series, window)
		data.MAs = append(data.MAs, ma)
	}
	rsi := indicator.RelativeStrength(bars, indicator.RSIPeriod, true)
	rsi.Series = sliceSeries(rsi.Series, window)
	data.RSI = rsi

	macd := indicator.Convergence(bars, indicator.MACDFastPeriod, indicator.MACDSlowPeriod, indicator.MACDSignalPeriod, true)
	macd.MACDLine = sliceSeries(macd.MACDLine, window)
	macd.SignalLine = sliceSeries(macd.SignalLine, window)
	macd.Histogram = sliceSeries(macd.Histogram, window)
	data.MACD = macd

	data.Bars = sliceBars(bars, window)
	if len(data.Bars) > 0 {
		data.AsOf = data.Bars[len(data.Bars)-1].Timestamp
	}

	if err := s.store.SetJSON(ctx, key, data, cache.ClassIndicators); err != nil {
		log.Printf("chart cache set for %s failed: %v", symbol, err)
	}
	return data, nil
}

func (s *StockService) Search(ctx context.Context, query string, limit int) ([]domain.UniverseEntry, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = searchDefaultLimit
	}
	if s.universe == nil {
		return nil, fmt.Errorf("stock service is not fully initialized")
	}

	type searchKey struct {
		Query string
		Limit int
	}
	key := cache.ParamsKey("search", searchKey{strings.ToLower(query), limit})
	var cached []domain.UniverseEntry
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	entries, err := s.universe.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetJSON(ctx, key, entries, cache.ClassSearch); err != nil {
		log.Printf("search cache set failed: %v", err)
	}
	return entries, nil
}

// ResampleWeekly folds daily bars into ISO-week bars: open of the first
// session, high max, low min, close and timestamp of the last session,
// volume summed. Input must be chronological.
func ResampleWeekly(daily []domain.Bar) []domain.Bar {
	if len(daily) == 0 {
		return nil
	}
	var out []domain.Bar
	var curYear, curWeek int
	for _, b := range daily {
		year, week := b.Timestamp.ISOWeek()
		if len(out) == 0 || year != curYear || week != curWeek {
			out = append(out, b)
			curYear, curWeek = year, week
			continue
		}
		last := &out[len(out)-1]
		if b.High > last.High {
			last.High = b.High
		}
		if b.Low < last.Low {
			last.Low = b.Low
		}
		last.Close = b.Close
		last.Volume += b.Volume
		last.Timestamp = b.Timestamp
	}
	return out
}

func sliceBars(bars []domain.Bar, n int) []domain.Bar {
	if n <= 0 || n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}

func sliceSeries(series domain.IndicatorSeries, n int) domain.IndicatorSeries {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}
