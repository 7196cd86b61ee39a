package repository

import (
	"context"
	"time"

	"argus/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// DailyAccuracy is one day of resolved-signal hit rate.
type DailyAccuracy struct {
	DayUTC   time.Time `json:"day"`
	Total    int       `json:"total"`
	Correct  int       `json:"correct"`
	Accuracy float64   `json:"accuracy"`
}

type OutcomeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewOutcomeRepository(pool PgxPool, tracer trace.Tracer) *OutcomeRepository {
	return &OutcomeRepository{pool: pool, tracer: tracer}
}

func (r *OutcomeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "outcome-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_outcomes (
			signal_id BIGINT PRIMARY KEY REFERENCES signals(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			horizon_days INT NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			exit_price DOUBLE PRECISION NOT NULL,
			return_pct DOUBLE PRECISION NOT NULL,
			correct BOOLEAN NOT NULL,
			resolved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_outcomes_type ON signal_outcomes (signal_type)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_outcomes_resolved ON signal_outcomes (resolved_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ListUnresolvedSignals returns signals fired at or before the cutoff with no
// outcome row yet. excludeTypes keeps non-scorable types out of the queue.
func (r *OutcomeRepository) ListUnresolvedSignals(ctx context.Context, cutoff time.Time, excludeTypes []string, limit int) ([]domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "outcome-repo.list-unresolved")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	if excludeTypes == nil {
		excludeTypes = []string{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.symbol, s.signal_type, s.timestamp, s.price, s.details, s.created_at
		 FROM signals s
		 LEFT JOIN signal_outcomes so ON so.signal_id = s.id
		 WHERE so.signal_id IS NULL
		   AND s.timestamp <= $1
		   AND NOT (s.signal_type = ANY($2))
		 ORDER BY s.timestamp ASC
		 LIMIT $3`,
		cutoff.UTC(), excludeTypes, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Signal, 0, limit)
	for rows.Next() {
		var s domain.Signal
		var signalType string
		if err := rows.Scan(&s.ID, &s.Symbol, &signalType, &s.Timestamp, &s.Price, &s.Details, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Type = domain.SignalType(signalType)
		s.Timestamp = s.Timestamp.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *OutcomeRepository) RecordOutcome(ctx context.Context, o domain.SignalOutcome) error {
	_, span := r.tracer.Start(ctx, "outcome-repo.record-outcome")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO signal_outcomes (signal_id, symbol, signal_type, horizon_days, entry_price, exit_price, return_pct, correct, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 ON CONFLICT (signal_id) DO NOTHING`,
		o.SignalID, o.Symbol, string(o.Type), o.HorizonDays, o.EntryPrice, o.ExitPrice, o.ReturnPct, o.Correct,
	)
	return err
}

func (r *OutcomeRepository) TypeAccuracySummary(ctx context.Context) ([]domain.TypeAccuracy, error) {
	_, span := r.tracer.Start(ctx, "outcome-repo.type-accuracy-summary")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT signal_type,
		        COUNT(*)::INT AS resolved,
		        COUNT(*) FILTER (WHERE correct)::INT AS correct,
		        COUNT(*) FILTER (WHERE correct)::DOUBLE PRECISION / COUNT(*)::DOUBLE PRECISION AS accuracy,
		        AVG(return_pct) AS avg_return_pct
		 FROM signal_outcomes
		 GROUP BY signal_type
		 ORDER BY signal_type`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TypeAccuracy
	for rows.Next() {
		var a domain.TypeAccuracy
		var signalType string
		if err := rows.Scan(&signalType, &a.Resolved, &a.Correct, &a.Accuracy, &a.AvgReturnPct); err != nil {
			return nil, err
		}
		a.Type = domain.SignalType(signalType)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *OutcomeRepository) GetDailyAccuracy(ctx context.Context, days int) ([]DailyAccuracy, error) {
	_, span := r.tracer.Start(ctx, "outcome-repo.get-daily-accuracy")
	defer span.End()

	if days <= 0 {
		days = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', resolved_at) AS day_utc,
		        COUNT(*)::INT AS total,
		        COUNT(*) FILTER (WHERE correct)::INT AS correct,
		        COUNT(*) FILTER (WHERE correct)::DOUBLE PRECISION / COUNT(*)::DOUBLE PRECISION AS accuracy
		 FROM signal_outcomes
		 WHERE resolved_at >= NOW() - make_interval(days => $1)
		 GROUP BY 1
		 ORDER BY 1 DESC`,
		days,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyAccuracy
	for rows.Next() {
		var d DailyAccuracy
		if err := rows.Scan(&d.DayUTC, &d.Total, &d.Correct, &d.Accuracy); err != nil {
			return nil, err
		}
		d.DayUTC = d.DayUTC.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *OutcomeRepository) ListRecentOutcomes(ctx context.Context, limit int) ([]domain.SignalOutcome, error) {
	_, span := r.tracer.Start(ctx, "outcome-repo.list-recent-outcomes")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx,
		`SELECT signal_id, symbol, signal_type, horizon_days, entry_price, exit_price, return_pct, correct, resolved_at
		 FROM signal_outcomes
		 ORDER BY resolved_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SignalOutcome
	for rows.Next() {
		var o domain.SignalOutcome
		var signalType string
		if err := rows.Scan(&o.SignalID, &o.Symbol, &signalType, &o.HorizonDays, &o.EntryPrice, &o.ExitPrice, &o.ReturnPct, &o.Correct, &o.ResolvedAt); err != nil {
			return nil, err
		}
		o.Type = domain.SignalType(signalType)
		o.ResolvedAt = o.ResolvedAt.UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}
