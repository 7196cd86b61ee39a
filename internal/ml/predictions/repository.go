// Package predictions persists model outputs per symbol and day and
// resolves them against the next session's close.
package predictions

import (
	"context"
	"encoding/json"
	"time"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/trace"
)

type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool   Pool
	tracer trace.Tracer
}

func NewRepository(pool Pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "prediction-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ml_predictions (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			day TIMESTAMPTZ NOT NULL,
			target_day TIMESTAMPTZ NOT NULL,
			model_key TEXT NOT NULL,
			model_version INT NOT NULL,
			prob_up DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			direction TEXT NOT NULL,
			signal_id BIGINT,
			details JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ,
			actual_up BOOLEAN,
			is_correct BOOLEAN,
			realized_return DOUBLE PRECISION,
			UNIQUE (symbol, day, model_key, model_version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ml_predictions_unresolved ON ml_predictions (model_key, target_day) WHERE resolved_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_ml_predictions_symbol_day ON ml_predictions (symbol, day DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const predictionReturning = `id, symbol, day, target_day, model_key, model_version,
	prob_up, confidence, direction, signal_id, details, created_at,
	resolved_at, actual_up, is_correct, realized_return`

// UpsertPrediction inserts or refreshes the row keyed by
// (symbol, day, model_key, model_version). Re-running inference for a
// day must not clobber a signal link or an already resolved outcome.
func (r *Repository) UpsertPrediction(ctx context.Context, p domain.MLPrediction) (domain.MLPrediction, error) {
	_, span := r.tracer.Start(ctx, "prediction-repo.upsert-prediction")
	defer span.End()

	details := p.DetailsJSON
	if !json.Valid([]byte(details)) {
		details = `{"raw":"invalid"}`
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO ml_predictions
			(symbol, day, target_day, model_key, model_version, prob_up, confidence, direction, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (symbol, day, model_key, model_version) DO UPDATE SET
			target_day = EXCLUDED.target_day,
			prob_up = EXCLUDED.prob_up,
			confidence = EXCLUDED.confidence,
			direction = EXCLUDED.direction,
			details = EXCLUDED.details
		 RETURNING `+predictionReturning,
		p.Symbol,
		p.Day.UTC(),
		p.TargetDay.UTC(),
		p.ModelKey,
		p.ModelVersion,
		p.ProbUp,
		p.Confidence,
		string(p.Direction),
		details,
	)
	return scanPrediction(row)
}

func (r *Repository) AttachSignalID(ctx context.Context, predictionID, signalID int64) error {
	_, span := r.tracer.Start(ctx, "prediction-repo.attach-signal-id")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE ml_predictions SET signal_id = $2 WHERE id = $1`,
		predictionID,
		signalID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListUnresolvedDue returns predictions of one model key whose target
// day has passed. Keying on the model keeps anomaly rows, which are
// never resolved, from clogging the queue.
func (r *Repository) ListUnresolvedDue(ctx context.Context, modelKey string, asOf time.Time, limit int) ([]domain.MLPrediction, error) {
	_, span := r.tracer.Start(ctx, "prediction-repo.list-unresolved-due")
	defer span.End()

	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+predictionReturning+`
		 FROM ml_predictions
		 WHERE model_key = $1 AND resolved_at IS NULL AND target_day <= $2
		 ORDER BY target_day ASC
		 LIMIT $3`,
		modelKey,
		asOf.UTC(),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MLPrediction, 0, limit)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) ResolvePrediction(ctx context.Context, id int64, actualUp, isCorrect bool, realizedReturn float64) error {
	_, span := r.tracer.Start(ctx, "prediction-repo.resolve-prediction")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE ml_predictions
		 SET resolved_at = NOW(), actual_up = $2, is_correct = $3, realized_return = $4
		 WHERE id = $1 AND resolved_at IS NULL`,
		id,
		actualUp,
		isCorrect,
		realizedReturn,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ModelHitRate reports resolved prediction accuracy for a model key
// since the given time.
func (r *Repository) ModelHitRate(ctx context.Context, modelKey string, since time.Time) (correct, total int, err error) {
	_, span := r.tracer.Start(ctx, "prediction-repo.model-hit-rate")
	defer span.End()

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE is_correct), COUNT(*)
		 FROM ml_predictions
		 WHERE model_key = $1 AND resolved_at IS NOT NULL AND day >= $2`,
		modelKey,
		since.UTC(),
	).Scan(&correct, &total)
	if err != nil {
		return 0, 0, err
	}
	return correct, total, nil
}

func scanPrediction(row pgx.Row) (domain.MLPrediction, error) {
	var (
		p          domain.MLPrediction
		direction  string
		signalID   *int64
		resolvedAt pgtype.Timestamptz
		actualUp   pgtype.Bool
		isCorrect  pgtype.Bool
		realized   pgtype.Float8
	)
	err := row.Scan(
		&p.ID,
		&p.Symbol,
		&p.Day,
		&p.TargetDay,
		&p.ModelKey,
		&p.ModelVersion,
		&p.ProbUp,
		&p.Confidence,
		&direction,
		&signalID,
		&p.DetailsJSON,
		&p.CreatedAt,
		&resolvedAt,
		&actualUp,
		&isCorrect,
		&realized,
	)
	if err != nil {
		return domain.MLPrediction{}, err
	}
	p.Day = p.Day.UTC()
	p.TargetDay = p.TargetDay.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.Direction = domain.PredictionDirection(direction)
	p.SignalID = signalID
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		p.ResolvedAt = &t
	}
	if actualUp.Valid {
		v := actualUp.Bool
		p.ActualUp = &v
	}
	if isCorrect.Valid {
		v := isCorrect.Bool
		p.IsCorrect = &v
	}
	if realized.Valid {
		v := realized.Float64
		p.RealizedRet = &v
	}
	return p, nil
}
