package job

import (
	"context"
	"log"

	"argus/internal/domain"
	"argus/internal/markethours"
	"argus/internal/service"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Cron specs are evaluated in the exchange's timezone. The market window
// entries mirror the regular session; 16:05 catches the closing prints.
const (
	refreshSpec      = "*/5 9-15 * * 1-5"
	refreshOpenSpec  = "30 9 * * 1-5"
	detectSpec       = "*/5 9-15 * * 1-5"
	detectCloseSpec  = "5 16 * * 1-5"
	nightlySpec      = "0 2 * * 2-6"
	imageRetrySpec   = "@every 5m"
	imageCleanupSpec = "@every 1h"

	nightlyResolveLimit        = 500
	defaultImageRetryBatchSize = 20
)

type SignalDetector interface {
	DetectBatch(ctx context.Context, symbols []string) (*service.DetectBatchResult, error)
}

type OutcomeResolver interface {
	ResolveOutcomes(ctx context.Context, limit int) (int, error)
}

type ImageMaintainer interface {
	RetryFailedImages(ctx context.Context, limit int) (int, error)
	DeleteExpiredSignalImages(ctx context.Context) (int64, error)
}

type ModelTrainer interface {
	RunNightly(ctx context.Context) error
}

type SignalBroadcaster interface {
	BroadcastSignals(signals []domain.Signal)
}

// Scheduler drives the background cycles: quote refresh and signal
// detection inside market hours, outcome resolution and model training
// overnight, and the signal image retry/cleanup sweeps.
type Scheduler struct {
	tracer    trace.Tracer
	cron      *cron.Cron
	refresher *Refresher
	universe  SymbolSource
	detector  SignalDetector

	resolver   OutcomeResolver
	trainer    ModelTrainer
	maintainer ImageMaintainer
	broadcast  SignalBroadcaster
}

func NewScheduler(
	tracer trace.Tracer,
	refresher *Refresher,
	universe SymbolSource,
	detector SignalDetector,
) *Scheduler {
	return &Scheduler{
		tracer: tracer,
		cron: cron.New(
			cron.WithLocation(markethours.Location()),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		refresher: refresher,
		universe:  universe,
		detector:  detector,
	}
}

func (s *Scheduler) WithResolver(resolver OutcomeResolver) *Scheduler {
	s.resolver = resolver
	return s
}

func (s *Scheduler) WithTrainer(trainer ModelTrainer) *Scheduler {
	s.trainer = trainer
	return s
}

func (s *Scheduler) WithImageMaintainer(maintainer ImageMaintainer) *Scheduler {
	s.maintainer = maintainer
	return s
}

func (s *Scheduler) WithBroadcaster(broadcast SignalBroadcaster) *Scheduler {
	s.broadcast = broadcast
	return s
}

// Start registers the cron entries and blocks until ctx is cancelled, then
// waits for any in-flight job to finish.
func (s *Scheduler) Start(ctx context.Context) {
	if s.refresher == nil || s.universe == nil || s.detector == nil {
		log.Println("Scheduler disabled: missing refresh or detection dependencies")
		<-ctx.Done()
		return
	}

	s.register(ctx)
	s.cron.Start()
	log.Println("Scheduler started")

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) register(ctx context.Context) {
	addFunc := func(spec string, fn func()) {
		if _, err := s.cron.AddFunc(spec, fn); err != nil {
			log.Printf("scheduler: bad cron spec %q: %v", spec, err)
		}
	}

	addFunc(refreshSpec, func() { s.runRefresh(ctx) })
	addFunc(refreshOpenSpec, func() { s.runRefresh(ctx) })
	addFunc(detectSpec, func() { s.runDetect(ctx) })
	addFunc(detectCloseSpec, func() { s.runDetect(ctx) })

	if s.resolver != nil || s.trainer != nil {
		addFunc(nightlySpec, func() { s.runNightly(ctx) })
	}
	if s.maintainer != nil {
		addFunc(imageRetrySpec, func() { s.runImageRetry(ctx) })
		addFunc(imageCleanupSpec, func() { s.runImageCleanup(ctx) })
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	if _, _, err := s.refresher.Run(ctx); err != nil {
		log.Printf("scheduler: refresh cycle failed: %v", err)
	}
}

func (s *Scheduler) runDetect(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "scheduler.detect-cycle")
	defer span.End()

	symbols, err := s.universe.ActiveSymbols(ctx)
	if err != nil {
		log.Printf("scheduler: universe lookup failed: %v", err)
		return
	}
	if len(symbols) == 0 {
		log.Println("scheduler: no active symbols for detection")
		return
	}

	result, err := s.detector.DetectBatch(ctx, symbols)
	if err != nil {
		log.Printf("scheduler: detection cycle failed: %v", err)
		return
	}
	span.SetAttributes(
		attribute.Int("detected", result.Detected),
		attribute.Int("saved", result.Saved),
	)
	log.Printf("scheduler: detection completed, symbols=%d detected=%d saved=%d skipped=%d errors=%d",
		result.Symbols, result.Detected, result.Saved, result.Skipped, result.Errors)

	if s.broadcast != nil && len(result.Signals) > 0 {
		s.broadcast.BroadcastSignals(result.Signals)
	}
}

func (s *Scheduler) runNightly(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "scheduler.nightly-cycle")
	defer span.End()

	if s.resolver != nil {
		resolved, err := s.resolver.ResolveOutcomes(ctx, nightlyResolveLimit)
		if err != nil {
			log.Printf("scheduler: outcome resolution failed: %v", err)
		} else if resolved > 0 {
			log.Printf("scheduler: resolved %d signal outcome(s)", resolved)
		}
	}

	if s.trainer != nil {
		if err := s.trainer.RunNightly(ctx); err != nil {
			log.Printf("scheduler: nightly training failed: %v", err)
		}
	}
}

func (s *Scheduler) runImageRetry(ctx context.Context) {
	count, err := s.maintainer.RetryFailedImages(ctx, defaultImageRetryBatchSize)
	if err != nil {
		log.Printf("scheduler: signal image retry failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("scheduler: signal image retry succeeded for %d signal(s)", count)
	}
}

func (s *Scheduler) runImageCleanup(ctx context.Context) {
	deleted, err := s.maintainer.DeleteExpiredSignalImages(ctx)
	if err != nil {
		log.Printf("scheduler: signal image cleanup failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("scheduler: signal image cleanup removed %d row(s)", deleted)
	}
}
