package job

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

func jobTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("job-test")
}

func newJobStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewStore(client), mr
}

type refreshUniverseStub struct {
	symbols []string
	err     error
}

func (u *refreshUniverseStub) ActiveSymbols(ctx context.Context) ([]string, error) {
	return u.symbols, u.err
}

type refreshQuoteStub struct {
	failing map[string]bool
	fetched []string
	onFetch func(symbol string)
}

func (q *refreshQuoteStub) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	q.fetched = append(q.fetched, symbol)
	if q.onFetch != nil {
		q.onFetch(symbol)
	}
	if q.failing[symbol] {
		return nil, errors.New("provider timeout")
	}
	return &domain.Quote{Symbol: symbol, Price: 100, UpdatedAt: time.Now().UTC()}, nil
}

type refreshInvalidatorStub struct {
	calls int
	err   error
}

func (s *refreshInvalidatorStub) InvalidateCache(ctx context.Context) (int, error) {
	s.calls++
	return 3, s.err
}

func TestRefresherRunWarmsQuoteCache(t *testing.T) {
	t.Parallel()

	store, mr := newJobStore(t)
	universe := &refreshUniverseStub{symbols: []string{"AAPL", "MSFT", "NVDA"}}
	quotes := &refreshQuoteStub{failing: map[string]bool{"MSFT": true}}
	screener := &refreshInvalidatorStub{}

	r := NewRefresher(jobTracer(), universe, quotes, store, screener).WithBatching(2, 0)

	updated, failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if updated != 2 || failed != 1 {
		t.Fatalf("updated=%d failed=%d, want 2 and 1", updated, failed)
	}
	if len(quotes.fetched) != 3 {
		t.Fatalf("fetched %d quotes, want 3", len(quotes.fetched))
	}
	if !mr.Exists("argus:quote:AAPL") || !mr.Exists("argus:quote:NVDA") {
		t.Fatal("expected refreshed quotes in the cache")
	}
	if mr.Exists("argus:quote:MSFT") {
		t.Fatal("failed symbol must not be cached")
	}
	if screener.calls != 1 {
		t.Fatalf("screener invalidated %d times, want 1", screener.calls)
	}
}

func TestRefresherRunUniverseErrorIsFatal(t *testing.T) {
	t.Parallel()

	store, _ := newJobStore(t)
	universe := &refreshUniverseStub{err: errors.New("db down")}
	quotes := &refreshQuoteStub{}

	r := NewRefresher(jobTracer(), universe, quotes, store, nil).WithBatching(2, 0)

	if _, _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected universe error to surface")
	}
	if len(quotes.fetched) != 0 {
		t.Fatalf("fetched %d quotes after universe failure, want 0", len(quotes.fetched))
	}
}

func TestRefresherRunEmptyUniverse(t *testing.T) {
	t.Parallel()

	store, _ := newJobStore(t)
	screener := &refreshInvalidatorStub{}
	r := NewRefresher(jobTracer(), &refreshUniverseStub{}, &refreshQuoteStub{}, store, screener)

	updated, failed, err := r.Run(context.Background())
	if err != nil || updated != 0 || failed != 0 {
		t.Fatalf("Run = (%d, %d, %v), want (0, 0, nil)", updated, failed, err)
	}
	if screener.calls != 0 {
		t.Fatal("empty cycle must not invalidate the screener cache")
	}
}

func TestRefresherRunStopsBetweenBatches(t *testing.T) {
	t.Parallel()

	store, _ := newJobStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	universe := &refreshUniverseStub{symbols: []string{"AAPL", "MSFT", "NVDA"}}
	quotes := &refreshQuoteStub{onFetch: func(string) { cancel() }}

	r := NewRefresher(jobTracer(), universe, quotes, store, nil).WithBatching(1, 10*time.Millisecond)

	updated, failed, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if updated != 1 || failed != 0 {
		t.Fatalf("updated=%d failed=%d, want the first batch only", updated, failed)
	}
}

func TestRefresherWithBatchingIgnoresBadValues(t *testing.T) {
	t.Parallel()

	store, _ := newJobStore(t)
	r := NewRefresher(jobTracer(), &refreshUniverseStub{}, &refreshQuoteStub{}, store, nil).
		WithBatching(0, -1*time.Second)

	if r.batchSize != defaultRefreshBatchSize {
		t.Fatalf("batchSize = %d, want default %d", r.batchSize, defaultRefreshBatchSize)
	}
	if r.batchDelay != defaultRefreshBatchDelay {
		t.Fatalf("batchDelay = %v, want default %v", r.batchDelay, defaultRefreshBatchDelay)
	}
}
