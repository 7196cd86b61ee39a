package job

import (
	"context"
	"log"
	"time"

	"argus/internal/cache"
	"argus/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRefreshBatchSize  = 20
	defaultRefreshBatchDelay = 500 * time.Millisecond
)

// SymbolSource lists the symbols a background cycle should cover.
type SymbolSource interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// QuoteFetcher pulls a live quote straight from the provider, bypassing any
// cache the read path keeps.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// ScreenerInvalidator drops cached screener runs once their quotes are stale.
type ScreenerInvalidator interface {
	InvalidateCache(ctx context.Context) (int, error)
}

// Refresher re-warms the quote cache for the whole universe in rate-limited
// batches, then invalidates cached screener runs so the next screen
// recomputes against the fresh quotes.
type Refresher struct {
	tracer     trace.Tracer
	universe   SymbolSource
	quotes     QuoteFetcher
	store      *cache.Store
	screener   ScreenerInvalidator
	batchSize  int
	batchDelay time.Duration
}

func NewRefresher(
	tracer trace.Tracer,
	universe SymbolSource,
	quotes QuoteFetcher,
	store *cache.Store,
	screener ScreenerInvalidator,
) *Refresher {
	return &Refresher{
		tracer:     tracer,
		universe:   universe,
		quotes:     quotes,
		store:      store,
		screener:   screener,
		batchSize:  defaultRefreshBatchSize,
		batchDelay: defaultRefreshBatchDelay,
	}
}

func (r *Refresher) WithBatching(size int, delay time.Duration) *Refresher {
	if size > 0 {
		r.batchSize = size
	}
	if delay >= 0 {
		r.batchDelay = delay
	}
	return r
}

// Run refreshes every active symbol's quote and reports how many updated
// and how many failed. A failing symbol is counted and skipped; only a
// universe lookup failure is fatal to the cycle.
func (r *Refresher) Run(ctx context.Context) (updated, failed int, err error) {
	ctx, span := r.tracer.Start(ctx, "refresh-job.run")
	defer span.End()

	start := time.Now()

	symbols, err := r.universe.ActiveSymbols(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(symbols) == 0 {
		log.Println("refresh: no active symbols to refresh")
		return 0, 0, nil
	}

	for i := 0; i < len(symbols); i += r.batchSize {
		end := i + r.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		for _, symbol := range symbols[i:end] {
			quote, qErr := r.quotes.FetchQuote(ctx, symbol)
			if qErr != nil {
				log.Printf("refresh: quote for %s failed: %v", symbol, qErr)
				failed++
				continue
			}
			if cErr := r.store.SetJSON(ctx, cache.Key("quote", symbol), quote, cache.ClassQuote); cErr != nil {
				log.Printf("refresh: cache set for %s failed: %v", symbol, cErr)
			}
			updated++
		}

		// The provider rate-limits aggressive bursts; space the batches.
		if end < len(symbols) && r.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return updated, failed, ctx.Err()
			case <-time.After(r.batchDelay):
			}
		}
	}

	if r.screener != nil {
		if _, sErr := r.screener.InvalidateCache(ctx); sErr != nil {
			log.Printf("refresh: screener cache invalidation failed: %v", sErr)
		}
	}

	span.SetAttributes(
		attribute.Int("updated", updated),
		attribute.Int("failed", failed),
	)
	log.Printf("refresh: completed, updated=%d failed=%d total=%d duration=%.2fs",
		updated, failed, len(symbols), time.Since(start).Seconds())
	return updated, failed, nil
}
