package repository

import (
	"context"
	"errors"
	"time"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type BarRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBarRepository(pool PgxPool, tracer trace.Tracer) *BarRepository {
	return &BarRepository{pool: pool, tracer: tracer}
}

func (r *BarRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "bar-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (symbol, timeframe, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_symbol_tf_ts ON bars (symbol, timeframe, ts DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *BarRepository) UpsertBars(ctx context.Context, symbol string, timeframe domain.Timeframe, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "bar-repo.upsert-bars")
	defer span.End()

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(
			`INSERT INTO bars (symbol, timeframe, ts, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (symbol, timeframe, ts) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume`,
			symbol, string(timeframe), b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range bars {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetBars returns the most recent limit bars, oldest first. The limit is
// applied against the newest rows so indicator warm-up always sees the
// tail of the series.
func (r *BarRepository) GetBars(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.get-bars")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT ts, open, high, low, close, volume
		 FROM bars
		 WHERE symbol = $1 AND timeframe = $2
		 ORDER BY ts DESC
		 LIMIT $3`,
		symbol, string(timeframe), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	// Rows come back newest-first; flip to chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (r *BarRepository) GetBarsInRange(ctx context.Context, symbol string, timeframe domain.Timeframe, from, to time.Time) ([]domain.Bar, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.get-bars-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT ts, open, high, low, close, volume
		 FROM bars
		 WHERE symbol = $1 AND timeframe = $2 AND ts >= $3 AND ts <= $4
		 ORDER BY ts ASC`,
		symbol, string(timeframe), from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBars(rows)
}

// LatestTimestamp reports the newest stored bar time, zero when the series
// is empty. Incremental fetches start from here.
func (r *BarRepository) LatestTimestamp(ctx context.Context, symbol string, timeframe domain.Timeframe) (time.Time, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.latest-timestamp")
	defer span.End()

	var ts time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT ts FROM bars WHERE symbol = $1 AND timeframe = $2 ORDER BY ts DESC LIMIT 1`,
		symbol, string(timeframe),
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func scanBars(rows pgx.Rows) ([]domain.Bar, error) {
	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Timestamp = b.Timestamp.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
