package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"argus/internal/domain"
	"argus/internal/provider"
	"argus/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDays           = 730
	defaultFetchTimeout   = 30 * time.Second
	defaultRunTimeout     = 60 * time.Minute
	defaultTimeframesFlag = "daily,weekly"
)

var (
	loadEnvFunc = godotenv.Load
	openPool    = pgxpool.New
)

type options struct {
	days       int
	symbols    []string
	timeframes []domain.Timeframe
}

func main() {
	loadEnvFunc()

	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("parse options: %v", err)
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	pool, err := openPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	tracer := trace.NewNoopTracerProvider().Tracer("backfill")
	barRepo := repository.NewBarRepository(pool, tracer)
	if err := barRepo.RunMigrations(ctx); err != nil {
		log.Fatalf("run bar migrations: %v", err)
	}
	marketData := provider.NewYahooProvider(fetchTimeout(os.Getenv), os.Getenv("MARKET_DATA_PROXY_URL"))

	symbols := opts.symbols
	if len(symbols) == 0 {
		universeRepo := repository.NewUniverseRepository(pool, tracer)
		entries, err := universeRepo.ListActive(ctx)
		if err != nil {
			log.Fatalf("list universe: %v", err)
		}
		for _, e := range entries {
			symbols = append(symbols, e.Symbol)
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols to backfill; pass -symbols or seed the universe first")
	}

	log.Printf(
		"starting bar backfill: days=%d symbols=%d timeframes=%s",
		opts.days,
		len(symbols),
		joinTimeframes(opts.timeframes),
	)

	totalUpserted := 0
	failedFetches := 0
	for _, symbol := range symbols {
		for _, timeframe := range opts.timeframes {
			bars, err := fetchBars(ctx, marketData, symbol, timeframe, opts.days)
			if err != nil {
				log.Printf("fetch %s bars for %s: %v", timeframe, symbol, err)
				failedFetches++
				continue
			}
			if len(bars) == 0 {
				log.Printf("no %s bars returned for %s", timeframe, symbol)
				continue
			}
			if err := barRepo.UpsertBars(ctx, symbol, timeframe, bars); err != nil {
				log.Fatalf("upsert %s bars for %s: %v", timeframe, symbol, err)
			}
			totalUpserted += len(bars)
		}
	}

	log.Printf(
		"backfill complete: symbols=%d total_bars=%d failed_fetches=%d days=%d",
		len(symbols),
		totalUpserted,
		failedFetches,
		opts.days,
	)
}

func fetchBars(ctx context.Context, p *provider.YahooProvider, symbol string, timeframe domain.Timeframe, days int) ([]domain.Bar, error) {
	if timeframe == domain.TimeframeWeekly {
		return p.FetchWeeklyBars(ctx, symbol, (days+6)/7)
	}
	return p.FetchDailyBars(ctx, symbol, days)
}

func parseOptions(args []string, getenv func(string) string) (options, error) {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	daysDefault := defaultBackfillDays(getenv)
	days := fs.Int("days", daysDefault, "number of historical days to backfill (default from BACKFILL_DAYS, then ML_TRAIN_WINDOW_DAYS, else 730)")
	symbolsRaw := fs.String("symbols", "", "comma-separated symbols to backfill (default: the active universe)")
	timeframesRaw := fs.String("timeframes", defaultTimeframesFlag, "comma-separated bar timeframes to backfill (daily, weekly)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *days <= 0 {
		return options{}, fmt.Errorf("days must be > 0")
	}

	symbols, err := normalizeSymbols(*symbolsRaw)
	if err != nil {
		return options{}, err
	}
	timeframes, err := normalizeTimeframes(*timeframesRaw)
	if err != nil {
		return options{}, err
	}

	return options{
		days:       *days,
		symbols:    symbols,
		timeframes: timeframes,
	}, nil
}

func defaultBackfillDays(getenv func(string) string) int {
	for _, key := range []string{"BACKFILL_DAYS", "ML_TRAIN_WINDOW_DAYS"} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return defaultDays
}

func fetchTimeout(getenv func(string) string) time.Duration {
	if v := strings.TrimSpace(getenv("MARKET_DATA_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultFetchTimeout
}

// normalizeSymbols uppercases, trims and dedupes. An empty flag means the
// caller should fall back to the stored universe.
func normalizeSymbols(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.ToUpper(strings.TrimSpace(p))
		if s == "" {
			continue
		}
		if _, exists := seen[s]; exists {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("symbols cannot be empty")
	}
	return out, nil
}

func normalizeTimeframes(raw string) ([]domain.Timeframe, error) {
	parts := strings.Split(raw, ",")
	seen := make(map[domain.Timeframe]struct{}, len(parts))
	out := make([]domain.Timeframe, 0, len(parts))
	for _, part := range parts {
		tf := domain.Timeframe(strings.ToLower(strings.TrimSpace(part)))
		if tf == "" {
			continue
		}
		if !tf.IsValid() {
			return nil, fmt.Errorf("unsupported timeframe: %s", tf)
		}
		if _, exists := seen[tf]; exists {
			continue
		}
		seen[tf] = struct{}{}
		out = append(out, tf)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("timeframes cannot be empty")
	}
	return out, nil
}

func joinTimeframes(timeframes []domain.Timeframe) string {
	parts := make([]string, 0, len(timeframes))
	for _, tf := range timeframes {
		parts = append(parts, string(tf))
	}
	return strings.Join(parts, ",")
}
