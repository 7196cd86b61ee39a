package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"argus/internal/domain"
	"argus/internal/ml/common"
	"argus/internal/ml/models/gbdt"
	iforestmodel "argus/internal/ml/models/iforest"

	"go.opentelemetry.io/otel/trace"
)

type FeatureReader interface {
	ListLatest(ctx context.Context) ([]domain.MLFeatureRow, error)
}

type ModelRegistry interface {
	GetActiveModel(ctx context.Context, modelKey string) (*domain.MLModelVersion, error)
}

type PredictionStore interface {
	UpsertPrediction(ctx context.Context, prediction domain.MLPrediction) (domain.MLPrediction, error)
	AttachSignalID(ctx context.Context, predictionID, signalID int64) error
}

type SignalSink interface {
	SaveSignal(ctx context.Context, s domain.Signal, window time.Duration) (domain.Signal, bool, error)
}

type Config struct {
	LongThreshold    float64
	ShortThreshold   float64
	AnomalyThreshold float64
	DedupeWindow     time.Duration
}

// Service scores the newest feature row of every symbol against the
// active models. The direction model only records predictions; the
// anomaly model is the one that emits signals.
type Service struct {
	tracer      trace.Tracer
	features    FeatureReader
	registry    ModelRegistry
	predictions PredictionStore
	signals     SignalSink
	cfg         Config
}

type RunResult struct {
	Predictions int
	Signals     int
}

func NewService(
	tracer trace.Tracer,
	features FeatureReader,
	registry ModelRegistry,
	predictions PredictionStore,
	signals SignalSink,
	cfg Config,
) *Service {
	if cfg.LongThreshold <= 0 || cfg.LongThreshold >= 1 {
		cfg.LongThreshold = 0.55
	}
	if cfg.ShortThreshold <= 0 || cfg.ShortThreshold >= 1 {
		cfg.ShortThreshold = 0.45
	}
	if cfg.AnomalyThreshold <= 0 || cfg.AnomalyThreshold >= 1 {
		cfg.AnomalyThreshold = 0.62
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = 24 * time.Hour
	}
	return &Service{
		tracer:      tracer,
		features:    features,
		registry:    registry,
		predictions: predictions,
		signals:     signals,
		cfg:         cfg,
	}
}

func (s *Service) RunLatest(ctx context.Context, now time.Time) (RunResult, error) {
	_, span := s.tracer.Start(ctx, "ml-inference.run-latest")
	defer span.End()

	if s.features == nil || s.registry == nil || s.predictions == nil || s.signals == nil {
		return RunResult{}, fmt.Errorf("ml inference service is not fully initialized")
	}

	gbdtVersion, gbdtPredict, err := s.loadDirectional(ctx)
	if err != nil {
		return RunResult{}, err
	}
	anomalyVersion, anomalyPredict, err := s.loadAnomaly(ctx)
	if err != nil {
		return RunResult{}, err
	}
	if gbdtPredict == nil && anomalyPredict == nil {
		return RunResult{}, nil
	}

	rows, err := s.features.ListLatest(ctx)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{}
	for i := range rows {
		row := rows[i]
		targetDay := row.Day.UTC().AddDate(0, 0, 1)
		vector := common.FeatureVector(row)

		if anomalyPredict != nil {
			score := common.Clamp01(anomalyPredict(vector))
			saved, err := s.persistAnomaly(ctx, row, anomalyVersion, score, targetDay)
			if err != nil {
				return result, err
			}
			result.Predictions++
			if saved {
				result.Signals++
			}
		}

		if gbdtPredict != nil {
			prob := common.Clamp01(gbdtPredict(vector))
			if err := s.persistDirectional(ctx, row, gbdtVersion, prob, targetDay); err != nil {
				return result, err
			}
			result.Predictions++
		}
	}

	return result, nil
}

func (s *Service) persistDirectional(ctx context.Context, row domain.MLFeatureRow, modelVersion int, probUp float64, targetDay time.Time) error {
	confidence := common.Confidence(probUp)
	direction := common.DirectionFromProb(probUp, s.cfg.LongThreshold, s.cfg.ShortThreshold)

	_, err := s.predictions.UpsertPrediction(ctx, domain.MLPrediction{
		Symbol:       row.Symbol,
		Day:          row.Day.UTC(),
		TargetDay:    targetDay,
		ModelKey:     common.ModelKeyGBDT,
		ModelVersion: modelVersion,
		ProbUp:       probUp,
		Confidence:   confidence,
		Direction:    direction,
		DetailsJSON: mustDetailsJSON(map[string]any{
			"model_key":     common.ModelKeyGBDT,
			"model_version": modelVersion,
			"prob_up":       roundFloat(probUp),
			"confidence":    roundFloat(confidence),
			"target":        "1d",
		}),
	})
	return err
}

func (s *Service) persistAnomaly(ctx context.Context, row domain.MLFeatureRow, modelVersion int, score float64, targetDay time.Time) (bool, error) {
	pred, err := s.predictions.UpsertPrediction(ctx, domain.MLPrediction{
		Symbol:       row.Symbol,
		Day:          row.Day.UTC(),
		TargetDay:    targetDay,
		ModelKey:     common.ModelKeyAnomaly,
		ModelVersion: modelVersion,
		ProbUp:       0.5,
		Confidence:   score,
		Direction:    domain.PredictionFlat,
		DetailsJSON: mustDetailsJSON(map[string]any{
			"model_key":     common.ModelKeyAnomaly,
			"model_version": modelVersion,
			"anomaly_score": roundFloat(score),
			"threshold":     roundFloat(s.cfg.AnomalyThreshold),
		}),
	})
	if err != nil {
		return false, err
	}
	if score < s.cfg.AnomalyThreshold {
		return false, nil
	}

	sig, saved, err := s.signals.SaveSignal(ctx, domain.Signal{
		Symbol:    row.Symbol,
		Type:      domain.SignalAnomaly,
		Timestamp: row.Day.UTC(),
		Price:     row.Close,
		Details: map[string]any{
			"anomaly_score": roundFloat(score),
			"threshold":     roundFloat(s.cfg.AnomalyThreshold),
			"model_version": modelVersion,
		},
	}, s.cfg.DedupeWindow)
	if err != nil {
		return false, err
	}
	if !saved {
		return false, nil
	}
	if sig.ID > 0 {
		if err := s.predictions.AttachSignalID(ctx, pred.ID, sig.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Service) loadDirectional(ctx context.Context) (int, func([]float64) float64, error) {
	active, err := s.registry.GetActiveModel(ctx, common.ModelKeyGBDT)
	if err != nil || active == nil {
		return 0, nil, err
	}
	model, err := gbdt.UnmarshalBinary(active.ArtifactBlob)
	if err != nil {
		return 0, nil, err
	}
	return active.Version, model.PredictProb, nil
}

func (s *Service) loadAnomaly(ctx context.Context) (int, func([]float64) float64, error) {
	active, err := s.registry.GetActiveModel(ctx, common.ModelKeyAnomaly)
	if err != nil || active == nil {
		return 0, nil, err
	}
	model, err := iforestmodel.UnmarshalBinary(active.ArtifactBlob)
	if err != nil {
		return 0, nil, err
	}
	return active.Version, model.PredictScore, nil
}

func mustDetailsJSON(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func roundFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10000) / 10000
}
