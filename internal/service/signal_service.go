package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"argus/internal/domain"
	"argus/internal/repository"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	// The 200W average spans 1000 trading days; one extra pair of bars
	// covers the crossover lookback.
	signalLookbackDays = 1010

	signalImageTTL        = 24 * time.Hour
	signalImageRetryDelay = 5 * time.Minute
	defaultImageRetryMax  = 3

	defaultDetectConcurrency = 5
	defaultDedupeWindow      = 24 * time.Hour
	defaultOutcomeHorizon    = 5

	signalListDefaultLimit = 100
)

type SignalMarketData interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error)
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type SignalStore interface {
	SaveSignal(ctx context.Context, s domain.Signal, window time.Duration) (domain.Signal, bool, error)
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
}

type SignalEngine interface {
	DetectAll(symbol string, bars []domain.Bar, high52w, low52w *float64) []domain.Signal
}

type SignalImageRepository interface {
	UpsertSignalImageReady(
		ctx context.Context,
		signalID int64,
		imageBytes []byte,
		mimeType string,
		width, height int,
		expiresAt time.Time,
	) (*domain.SignalImageRef, error)
	UpsertSignalImageFailure(
		ctx context.Context,
		signalID int64,
		errorText string,
		nextRetryAt time.Time,
		expiresAt time.Time,
	) error
	GetSignalImageBySignalID(ctx context.Context, signalID int64) (*domain.SignalImageData, error)
	ListRetryCandidates(ctx context.Context, limit int, maxRetryCount int) ([]domain.Signal, error)
	DeleteExpiredSignalImages(ctx context.Context) (int64, error)
}

type SignalChartRenderer interface {
	RenderSignalChart(bars []domain.Bar, sig domain.Signal) (*domain.SignalImageData, error)
}

type OutcomeStore interface {
	ListUnresolvedSignals(ctx context.Context, cutoff time.Time, excludeTypes []string, limit int) ([]domain.Signal, error)
	RecordOutcome(ctx context.Context, o domain.SignalOutcome) error
	TypeAccuracySummary(ctx context.Context) ([]domain.TypeAccuracy, error)
	GetDailyAccuracy(ctx context.Context, days int) ([]repository.DailyAccuracy, error)
	ListRecentOutcomes(ctx context.Context, limit int) ([]domain.SignalOutcome, error)
}

type SignalService struct {
	tracer      trace.Tracer
	provider    SignalMarketData
	signalRepo  SignalStore
	engine      SignalEngine
	imageRepo   SignalImageRepository
	chartRender SignalChartRenderer
	outcomeRepo OutcomeStore

	dedupeWindow   time.Duration
	concurrency    int
	outcomeHorizon int
	maxImageRetry  int
}

func NewSignalService(
	tracer trace.Tracer,
	provider SignalMarketData,
	signalRepo SignalStore,
	engine SignalEngine,
) *SignalService {
	return &SignalService{
		tracer:         tracer,
		provider:       provider,
		signalRepo:     signalRepo,
		engine:         engine,
		dedupeWindow:   defaultDedupeWindow,
		concurrency:    defaultDetectConcurrency,
		outcomeHorizon: defaultOutcomeHorizon,
		maxImageRetry:  defaultImageRetryMax,
	}
}

func (s *SignalService) WithImages(imageRepo SignalImageRepository, chartRender SignalChartRenderer) *SignalService {
	s.imageRepo = imageRepo
	s.chartRender = chartRender
	return s
}

func (s *SignalService) WithOutcomes(outcomeRepo OutcomeStore) *SignalService {
	s.outcomeRepo = outcomeRepo
	return s
}

func (s *SignalService) WithDedupeWindow(window time.Duration) *SignalService {
	if window > 0 {
		s.dedupeWindow = window
	}
	return s
}

func (s *SignalService) WithConcurrency(n int) *SignalService {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

func (s *SignalService) WithOutcomeHorizon(days int) *SignalService {
	if days > 0 {
		s.outcomeHorizon = days
	}
	return s
}

// DetectForSymbol runs every detector against one symbol and persists the
// candidates that survive deduplication. Returns the stored signals, the
// candidate count, and how many candidates the dedupe window suppressed.
func (s *SignalService) DetectForSymbol(ctx context.Context, symbol string) ([]domain.Signal, int, int, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.detect-for-symbol")
	defer span.End()

	if s.provider == nil || s.signalRepo == nil || s.engine == nil {
		return nil, 0, 0, fmt.Errorf("signal service is not fully initialized")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, 0, 0, fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}

	bars, err := s.provider.FetchDailyBars(ctx, symbol, signalLookbackDays)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("get bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, 0, 0, nil
	}

	var high52w, low52w *float64
	if quote, qErr := s.provider.FetchQuote(ctx, symbol); qErr == nil && quote != nil {
		high52w = quote.High52W
		low52w = quote.Low52W
	} else if qErr != nil {
		// The 52-week detectors just sit this run out.
		log.Printf("quote for %s unavailable during detection: %v", symbol, qErr)
	}

	candidates := s.engine.DetectAll(symbol, bars, high52w, low52w)
	saved := make([]domain.Signal, 0, len(candidates))
	suppressed := 0
	for _, cand := range candidates {
		stored, ok, err := s.signalRepo.SaveSignal(ctx, cand, s.dedupeWindow)
		if err != nil {
			return saved, len(candidates), suppressed, fmt.Errorf("save signal %s/%s: %w", cand.Symbol, cand.Type, err)
		}
		if !ok {
			suppressed++
			continue
		}
		saved = append(saved, stored)
	}

	s.attachSignalImages(ctx, saved, bars)
	return saved, len(candidates), suppressed, nil
}

// DetectBatchResult aggregates a multi-symbol detection run.
type DetectBatchResult struct {
	Symbols  int             `json:"symbols"`
	Detected int             `json:"detected"`
	Saved    int             `json:"saved"`
	Skipped  int             `json:"skipped"`
	Errors   int             `json:"errors"`
	Signals  []domain.Signal `json:"signals,omitempty"`
}

// DetectBatch fans detection out over the given symbols with a bounded
// worker count. A failing symbol is counted and skipped, never fatal.
func (s *SignalService) DetectBatch(ctx context.Context, symbols []string) (*DetectBatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.detect-batch")
	defer span.End()

	if s.provider == nil || s.signalRepo == nil || s.engine == nil {
		return nil, fmt.Errorf("signal service is not fully initialized")
	}

	type slot struct {
		saved      []domain.Signal
		detected   int
		suppressed int
		failed     bool
	}
	slots := make([]slot, len(symbols))

	jobs := make(chan int, len(symbols))
	for i := range symbols {
		jobs <- i
	}
	close(jobs)

	workers := s.concurrency
	if workers > len(symbols) {
		workers = len(symbols)
	}

	// Each worker pulls symbol indexes off the channel and writes only its
	// own slots, so no locking is needed around the results.
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				saved, detected, suppressed, err := s.DetectForSymbol(gctx, symbols[i])
				if err != nil {
					log.Printf("detection for %s failed: %v", symbols[i], err)
					slots[i] = slot{failed: true}
					continue
				}
				slots[i] = slot{saved: saved, detected: detected, suppressed: suppressed}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &DetectBatchResult{Symbols: len(symbols)}
	for _, sl := range slots {
		if sl.failed {
			result.Errors++
			continue
		}
		result.Detected += sl.detected
		result.Skipped += sl.suppressed
		result.Saved += len(sl.saved)
		result.Signals = append(result.Signals, sl.saved...)
	}
	return result, nil
}

func (s *SignalService) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.list-signals")
	defer span.End()

	if s.signalRepo == nil {
		return nil, fmt.Errorf("signal service is not fully initialized")
	}

	for _, t := range filter.Types {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: unknown signal type %q", domain.ErrInvalidRequest, string(t))
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = signalListDefaultLimit
	}
	return s.signalRepo.ListSignals(ctx, filter)
}

// SignalTypeInfo is one catalog row for the signal types endpoint.
type SignalTypeInfo struct {
	Type        domain.SignalType      `json:"type"`
	Description string                 `json:"description"`
	Sentiment   domain.SignalSentiment `json:"sentiment"`
}

func SignalTypes() []SignalTypeInfo {
	types := domain.AllSignalTypes()
	out := make([]SignalTypeInfo, 0, len(types))
	for _, t := range types {
		out = append(out, SignalTypeInfo{
			Type:        t,
			Description: t.Description(),
			Sentiment:   t.Sentiment(),
		})
	}
	return out
}

func (s *SignalService) GetSignalImage(ctx context.Context, signalID int64) (*domain.SignalImageData, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-signal-image")
	defer span.End()

	if signalID <= 0 {
		return nil, fmt.Errorf("%w: invalid signal id", domain.ErrInvalidRequest)
	}
	if s.imageRepo == nil {
		return nil, nil
	}
	return s.imageRepo.GetSignalImageBySignalID(ctx, signalID)
}

func (s *SignalService) RetryFailedImages(ctx context.Context, limit int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.retry-failed-images")
	defer span.End()

	if s.imageRepo == nil || s.chartRender == nil || s.provider == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 20
	}

	candidates, err := s.imageRepo.ListRetryCandidates(ctx, limit, s.maxImageRetry)
	if err != nil {
		return 0, err
	}

	successes := 0
	for _, sig := range candidates {
		bars, err := s.provider.FetchDailyBars(ctx, sig.Symbol, signalLookbackDays)
		if err != nil {
			s.recordImageFailure(ctx, sig, fmt.Errorf("get bars for retry: %w", err))
			continue
		}
		if len(bars) == 0 {
			s.recordImageFailure(ctx, sig, fmt.Errorf("no bars available for retry"))
			continue
		}
		if _, err := s.renderAndStoreImage(ctx, sig, bars); err != nil {
			continue
		}
		successes++
	}
	return successes, nil
}

func (s *SignalService) DeleteExpiredSignalImages(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.delete-expired-signal-images")
	defer span.End()

	if s.imageRepo == nil {
		return 0, nil
	}
	return s.imageRepo.DeleteExpiredSignalImages(ctx)
}

// ResolveOutcomes records the realized forward return of signals whose
// horizon has elapsed. Neutral-sentiment types carry no direction to score,
// so they are excluded.
func (s *SignalService) ResolveOutcomes(ctx context.Context, limit int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.resolve-outcomes")
	defer span.End()

	if s.outcomeRepo == nil || s.provider == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 100
	}

	// Five trading days fit inside seven calendar days; the per-signal bar
	// check below still decides whether the horizon has really elapsed.
	cutoff := time.Now().UTC().AddDate(0, 0, -(s.outcomeHorizon + 2))
	pending, err := s.outcomeRepo.ListUnresolvedSignals(ctx, cutoff, neutralSignalTypes(), limit)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, sig := range pending {
		bars, err := s.provider.FetchDailyBars(ctx, sig.Symbol, s.outcomeHorizon+25)
		if err != nil {
			log.Printf("outcome bars for %s failed: %v", sig.Symbol, err)
			continue
		}
		exit, ok := closeAfterHorizon(bars, sig.Timestamp, s.outcomeHorizon)
		if !ok || sig.Price == 0 {
			continue
		}
		ret := ((exit - sig.Price) / sig.Price) * 100
		correct := false
		switch sig.Type.Sentiment() {
		case domain.SentimentBullish:
			correct = ret > 0
		case domain.SentimentBearish:
			correct = ret < 0
		}
		outcome := domain.SignalOutcome{
			SignalID:    sig.ID,
			Symbol:      sig.Symbol,
			Type:        sig.Type,
			HorizonDays: s.outcomeHorizon,
			EntryPrice:  sig.Price,
			ExitPrice:   exit,
			ReturnPct:   ret,
			Correct:     correct,
			ResolvedAt:  time.Now().UTC(),
		}
		if err := s.outcomeRepo.RecordOutcome(ctx, outcome); err != nil {
			return resolved, fmt.Errorf("record outcome for signal %d: %w", sig.ID, err)
		}
		resolved++
	}
	return resolved, nil
}

// PerformanceReport is the payload behind the performance endpoint and the
// terminal performance tab.
type PerformanceReport struct {
	ByType []domain.TypeAccuracy      `json:"by_type"`
	Daily  []repository.DailyAccuracy `json:"daily"`
	Recent []domain.SignalOutcome     `json:"recent"`
}

func (s *SignalService) Performance(ctx context.Context, days, recentLimit int) (*PerformanceReport, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.performance")
	defer span.End()

	if s.outcomeRepo == nil {
		return nil, fmt.Errorf("%w: outcome tracking is not configured", domain.ErrUnavailable)
	}
	if days <= 0 {
		days = 30
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}

	byType, err := s.outcomeRepo.TypeAccuracySummary(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.outcomeRepo.GetDailyAccuracy(ctx, days)
	if err != nil {
		return nil, err
	}
	recent, err := s.outcomeRepo.ListRecentOutcomes(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	return &PerformanceReport{ByType: byType, Daily: daily, Recent: recent}, nil
}

func (s *SignalService) attachSignalImages(ctx context.Context, saved []domain.Signal, bars []domain.Bar) {
	if s.imageRepo == nil || s.chartRender == nil || len(bars) == 0 {
		return
	}
	for i := range saved {
		ref, err := s.renderAndStoreImage(ctx, saved[i], bars)
		if err != nil {
			continue
		}
		saved[i].Image = ref
	}
}

func (s *SignalService) renderAndStoreImage(ctx context.Context, sig domain.Signal, bars []domain.Bar) (*domain.SignalImageRef, error) {
	rendered, err := s.chartRender.RenderSignalChart(bars, sig)
	if err != nil {
		s.recordImageFailure(ctx, sig, err)
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(signalImageTTL)
	ref, err := s.imageRepo.UpsertSignalImageReady(
		ctx,
		sig.ID,
		rendered.Bytes,
		rendered.Ref.MimeType,
		rendered.Ref.Width,
		rendered.Ref.Height,
		expiresAt,
	)
	if err != nil {
		s.recordImageFailure(ctx, sig, fmt.Errorf("persist image: %w", err))
		return nil, err
	}
	return ref, nil
}

func (s *SignalService) recordImageFailure(ctx context.Context, sig domain.Signal, err error) {
	if s.imageRepo == nil || sig.ID <= 0 {
		return
	}
	expiresAt := time.Now().UTC().Add(signalImageTTL)
	nextRetry := time.Now().UTC().Add(signalImageRetryDelay)
	if upsertErr := s.imageRepo.UpsertSignalImageFailure(ctx, sig.ID, err.Error(), nextRetry, expiresAt); upsertErr != nil {
		log.Printf("signal image failure upsert error for signal %d: %v", sig.ID, upsertErr)
	}
}

// closeAfterHorizon finds the close of the horizon-th trading bar after the
// given bar time. Not enough bars yet means the horizon has not elapsed.
func closeAfterHorizon(bars []domain.Bar, after time.Time, horizon int) (float64, bool) {
	first := -1
	for i, b := range bars {
		if b.Timestamp.After(after) {
			first = i
			break
		}
	}
	if first < 0 {
		return 0, false
	}
	exit := first + horizon - 1
	if exit >= len(bars) {
		return 0, false
	}
	return bars[exit].Close, true
}

func neutralSignalTypes() []string {
	var out []string
	for _, t := range domain.AllSignalTypes() {
		if t.Sentiment() == domain.SentimentNeutral {
			out = append(out, string(t))
		}
	}
	return out
}
