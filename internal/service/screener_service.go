package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"argus/internal/cache"
	"argus/internal/domain"
	"argus/internal/indicator"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultScreenerConcurrency = 10

type ScreenerUniverse interface {
	ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error)
}

type ScreenerMarketData interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error)
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type ScreenerService struct {
	tracer      trace.Tracer
	universe    ScreenerUniverse
	provider    ScreenerMarketData
	store       *cache.Store
	concurrency int
}

func NewScreenerService(
	tracer trace.Tracer,
	universe ScreenerUniverse,
	provider ScreenerMarketData,
	store *cache.Store,
	concurrency int,
) *ScreenerService {
	if concurrency <= 0 {
		concurrency = defaultScreenerConcurrency
	}
	return &ScreenerService{
		tracer:      tracer,
		universe:    universe,
		provider:    provider,
		store:       store,
		concurrency: concurrency,
	}
}

// Run screens the active universe against the requested moving average.
// Per-symbol fetches run concurrently with a bounded worker count; a failed
// symbol is skipped and counted, never fatal to the batch.
func (s *ScreenerService) Run(ctx context.Context, req domain.ScreenerRequest) (*domain.ScreenerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "screener-service.run")
	defer span.End()

	if s.universe == nil || s.provider == nil {
		return nil, fmt.Errorf("screener service is not fully initialized")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.ParamsKey("screener", req)
	var cached domain.ScreenerResponse
	if ok, err := s.store.GetJSON(ctx, key, &cached); err == nil && ok {
		cached.Cached = true
		ts := cached.GeneratedAt
		cached.CacheTimestamp = &ts
		return &cached, nil
	}

	entries, err := s.universe.ActiveEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	maDays, _ := req.MAFilter.Days()

	type slot struct {
		row domain.ScreenerEntry
		ok  bool
	}
	slots := make([]slot, len(entries))

	// Each worker pulls symbol indexes off the channel and writes only its
	// own slot, so no locking is needed around the results.
	jobs := make(chan int, len(entries))
	for i := range entries {
		jobs <- i
	}
	close(jobs)

	g, gctx := errgroup.WithContext(ctx)
	workers := s.concurrency
	if workers > len(entries) {
		workers = len(entries)
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				row, ok := s.evaluateSymbol(gctx, entries[i], req, maDays)
				slots[i] = slot{row: row, ok: ok}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]domain.ScreenerEntry, 0, len(slots))
	skipped := 0
	for _, sl := range slots {
		if !sl.ok {
			skipped++
			continue
		}
		rows = append(rows, sl.row)
	}

	filtered := filterScreenerRows(rows, req)
	sortScreenerRows(filtered, req.SortBy, req.SortOrder)
	total := len(filtered)

	resp := &domain.ScreenerResponse{
		Results:      paginateScreenerRows(filtered, req.Offset, req.Limit),
		Total:        total,
		SkippedCount: skipped,
		MAFilter:     req.MAFilter,
		MAType:       req.MAType,
		DistancePct:  req.DistancePct,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.store.SetJSON(ctx, key, resp, cache.ClassScreener); err != nil {
		log.Printf("screener cache set failed: %v", err)
	}
	return resp, nil
}

// InvalidateCache drops every cached screener page, for use after a quote
// refresh pass.
func (s *ScreenerService) InvalidateCache(ctx context.Context) (int, error) {
	return s.store.InvalidatePattern(ctx, cache.Pattern("screener"))
}

func (s *ScreenerService) evaluateSymbol(ctx context.Context, meta domain.UniverseEntry, req domain.ScreenerRequest, maDays int) (domain.ScreenerEntry, bool) {
	bars, err := s.provider.FetchDailyBars(ctx, meta.Symbol, maDays)
	if err != nil {
		log.Printf("screener: fetch bars for %s failed: %v", meta.Symbol, err)
		return domain.ScreenerEntry{}, false
	}
	quote, err := s.provider.FetchQuote(ctx, meta.Symbol)
	if err != nil || quote == nil {
		log.Printf("screener: fetch quote for %s failed: %v", meta.Symbol, err)
		return domain.ScreenerEntry{}, false
	}

	maValue, ok := indicator.LatestMA(bars, req.MAFilter, req.MAType)
	if !ok {
		// Too little history to define the average; the symbol cannot be
		// screened against it.
		log.Printf("screener: %s has insufficient history for %s", meta.Symbol, req.MAFilter)
		return domain.ScreenerEntry{}, false
	}

	price := quote.Price
	if price == 0 && len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}
	dist, ok := indicator.DistanceFromMA(price, maValue)
	if !ok {
		return domain.ScreenerEntry{}, false
	}
	// Filter, sort and position all work off the published (rounded)
	// distance so the response is self-consistent.
	dist = roundTo(dist, 2)

	return domain.ScreenerEntry{
		Symbol:          meta.Symbol,
		Name:            meta.Name,
		Sector:          meta.Sector,
		Price:           price,
		Change:          quote.Change,
		ChangePercent:   quote.ChangePercent,
		MarketCap:       quote.MarketCap,
		MAValue:         roundTo(maValue, 2),
		MAPeriod:        req.MAFilter,
		Distance:        roundTo(price-maValue, 2),
		DistancePercent: dist,
		Position:        indicator.Classify(dist),
	}, true
}

func filterScreenerRows(rows []domain.ScreenerEntry, req domain.ScreenerRequest) []domain.ScreenerEntry {
	out := make([]domain.ScreenerEntry, 0, len(rows))
	for _, r := range rows {
		if math.Abs(r.DistancePercent) > req.DistancePct {
			continue
		}
		switch r.Position {
		case domain.PositionBelow:
			if !req.IncludeBelow {
				continue
			}
		case domain.PositionAbove:
			if !req.IncludeAbove {
				continue
			}
		default:
			// "at" passes whenever either side is wanted.
			if !req.IncludeBelow && !req.IncludeAbove {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func sortScreenerRows(rows []domain.ScreenerEntry, sortBy, order string) {
	desc := order == "desc"
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareScreenerRows(rows[i], rows[j], sortBy)
		if c == 0 {
			return rows[i].Symbol < rows[j].Symbol
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareScreenerRows(a, b domain.ScreenerEntry, sortBy string) int {
	switch sortBy {
	case "symbol":
		return strings.Compare(a.Symbol, b.Symbol)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "price":
		return compareFloat(a.Price, b.Price)
	case "distance":
		return compareFloat(math.Abs(a.DistancePercent), math.Abs(b.DistancePercent))
	case "market_cap":
		return compareFloat(floatOrZero(a.MarketCap), floatOrZero(b.MarketCap))
	case "change":
		return compareFloat(a.Change, b.Change)
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func paginateScreenerRows(rows []domain.ScreenerEntry, offset, limit int) []domain.ScreenerEntry {
	if offset >= len(rows) {
		return []domain.ScreenerEntry{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
