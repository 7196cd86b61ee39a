package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"argus/internal/domain"
	"argus/internal/ml/common"
	"argus/internal/ml/features"
	"argus/internal/ml/inference"
	"argus/internal/ml/training"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type MLBarReader interface {
	GetBars(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error)
	GetBarsInRange(ctx context.Context, symbol string, timeframe domain.Timeframe, from, to time.Time) ([]domain.Bar, error)
}

type MLSymbolSource interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
}

type MLFeatureWriter interface {
	UpsertRows(ctx context.Context, rows []domain.MLFeatureRow) error
}

type MLPredictionStore interface {
	ListUnresolvedDue(ctx context.Context, modelKey string, asOf time.Time, limit int) ([]domain.MLPrediction, error)
	ResolvePrediction(ctx context.Context, id int64, actualUp, isCorrect bool, realizedReturn float64) error
	ModelHitRate(ctx context.Context, modelKey string, since time.Time) (correct, total int, err error)
}

// MLService drives the nightly model cycle: rebuild feature rows from
// stored daily bars, retrain, score the latest row per symbol, and
// grade yesterday's direction calls.
type MLService struct {
	tracer       trace.Tracer
	bars         MLBarReader
	universe     MLSymbolSource
	engine       *features.Engine
	featureRepo  MLFeatureWriter
	trainingSvc  *training.Service
	inferenceSvc *inference.Service
	predictions  MLPredictionStore

	trainWindowDays int
}

type MLServiceConfig struct {
	TrainWindowDays int
}

func NewMLService(
	tracer trace.Tracer,
	bars MLBarReader,
	universe MLSymbolSource,
	engine *features.Engine,
	featureRepo MLFeatureWriter,
	trainingSvc *training.Service,
	inferenceSvc *inference.Service,
	predictions MLPredictionStore,
	cfg MLServiceConfig,
) *MLService {
	if cfg.TrainWindowDays <= 0 {
		cfg.TrainWindowDays = 730
	}
	if engine == nil {
		engine = features.NewEngine()
	}
	return &MLService{
		tracer:          tracer,
		bars:            bars,
		universe:        universe,
		engine:          engine,
		featureRepo:     featureRepo,
		trainingSvc:     trainingSvc,
		inferenceSvc:    inferenceSvc,
		predictions:     predictions,
		trainWindowDays: cfg.TrainWindowDays,
	}
}

func (s *MLService) RefreshFeatures(ctx context.Context) (int, error) {
	_, span := s.tracer.Start(ctx, "ml-service.refresh-features")
	defer span.End()

	if s.bars == nil || s.universe == nil || s.featureRepo == nil {
		return 0, fmt.Errorf("ml feature refresh dependencies are not initialized")
	}

	symbols, err := s.universe.ActiveSymbols(ctx)
	if err != nil {
		return 0, err
	}

	limit := dailyBarLimit(s.trainWindowDays)
	rowsCount := 0
	for _, symbol := range symbols {
		bars, err := s.bars.GetBars(ctx, symbol, domain.TimeframeDaily, limit)
		if err != nil {
			return rowsCount, fmt.Errorf("get bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			continue
		}
		rows := s.engine.BuildRows(symbol, bars)
		if len(rows) == 0 {
			continue
		}
		if err := s.featureRepo.UpsertRows(ctx, rows); err != nil {
			return rowsCount, fmt.Errorf("upsert feature rows for %s: %w", symbol, err)
		}
		rowsCount += len(rows)
	}
	return rowsCount, nil
}

func (s *MLService) RunTraining(ctx context.Context) ([]training.ModelTrainResult, error) {
	_, span := s.tracer.Start(ctx, "ml-service.run-training")
	defer span.End()

	if s.trainingSvc == nil {
		return nil, nil
	}
	return s.trainingSvc.TrainAll(ctx, time.Now().UTC())
}

func (s *MLService) RunInference(ctx context.Context) (inference.RunResult, error) {
	_, span := s.tracer.Start(ctx, "ml-service.run-inference")
	defer span.End()

	if s.inferenceSvc == nil {
		return inference.RunResult{}, nil
	}
	return s.inferenceSvc.RunLatest(ctx, time.Now().UTC())
}

// ResolveOutcomes grades due direction predictions against the first
// close after the prediction day, so weekends and holidays resolve on
// the next session instead of never.
func (s *MLService) ResolveOutcomes(ctx context.Context, limit int) (int, error) {
	_, span := s.tracer.Start(ctx, "ml-service.resolve-outcomes")
	defer span.End()

	if s.predictions == nil || s.bars == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 200
	}

	pending, err := s.predictions.ListUnresolvedDue(ctx, common.ModelKeyGBDT, time.Now().UTC(), limit)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range pending {
		pred := pending[i]
		bars, err := s.bars.GetBarsInRange(ctx, pred.Symbol, domain.TimeframeDaily, pred.Day, pred.Day.AddDate(0, 0, 7))
		if err != nil {
			return resolved, err
		}
		baseClose, nextClose, ok := closeAndNextClose(bars, pred.Day)
		if !ok || baseClose == 0 {
			continue
		}
		actualUp := nextClose > baseClose
		predictedUp := pred.ProbUp >= 0.5
		if pred.Direction == domain.PredictionUp {
			predictedUp = true
		} else if pred.Direction == domain.PredictionDown {
			predictedUp = false
		}
		realized := (nextClose / baseClose) - 1
		if err := s.predictions.ResolvePrediction(ctx, pred.ID, actualUp, predictedUp == actualUp, realized); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

// DirectionHitRate reports how many resolved direction calls landed
// over the trailing window.
func (s *MLService) DirectionHitRate(ctx context.Context, days int) (correct, total int, err error) {
	_, span := s.tracer.Start(ctx, "ml-service.direction-hit-rate")
	defer span.End()

	if s.predictions == nil {
		return 0, 0, nil
	}
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.predictions.ModelHitRate(ctx, common.ModelKeyGBDT, since)
}

// RunNightly is the scheduler entry point. A failed training pass is
// routine while the feature table is still thin, so it only logs.
func (s *MLService) RunNightly(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "ml-service.run-nightly")
	defer span.End()

	rowCount, err := s.RefreshFeatures(ctx)
	if err != nil {
		return err
	}

	results, err := s.RunTraining(ctx)
	if err != nil {
		log.Printf("ml training skipped: %v", err)
	}
	for _, r := range results {
		if r.PromoteError != nil {
			log.Printf("ml model %s v%d promote failed: %v", r.ModelKey, r.Version, r.PromoteError)
			continue
		}
		log.Printf("ml model %s v%d trained: samples=%d auc=%.4f promoted=%v", r.ModelKey, r.Version, r.SampleCount, r.AUC, r.Promoted)
	}

	runResult, err := s.RunInference(ctx)
	if err != nil {
		return err
	}

	resolvedCount, err := s.ResolveOutcomes(ctx, 0)
	if err != nil {
		return err
	}

	log.Printf("ml nightly cycle: features=%d predictions=%d signals=%d resolved=%d",
		rowCount, runResult.Predictions, runResult.Signals, resolvedCount)
	return nil
}

func dailyBarLimit(windowDays int) int {
	limit := windowDays + 320
	if limit < 600 {
		limit = 600
	}
	return limit
}

// closeAndNextClose picks the close on the prediction day and the first
// close strictly after it.
func closeAndNextClose(bars []domain.Bar, day time.Time) (float64, float64, bool) {
	if len(bars) == 0 {
		return 0, 0, false
	}
	sorted := append([]domain.Bar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	dayTS := day.UTC().Unix()
	baseClose := 0.0
	hasBase := false
	for _, b := range sorted {
		ts := b.Timestamp.UTC().Unix()
		if ts == dayTS {
			baseClose = b.Close
			hasBase = true
			continue
		}
		if ts > dayTS {
			if !hasBase {
				return 0, 0, false
			}
			return baseClose, b.Close, true
		}
	}
	return 0, 0, false
}
