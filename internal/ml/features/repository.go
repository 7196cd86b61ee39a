package features

import (
	"context"
	"time"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	pool   Pool
	tracer trace.Tracer
}

func NewRepository(pool Pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "feature-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ml_feature_rows (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			day TIMESTAMPTZ NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			ret_1d DOUBLE PRECISION NOT NULL,
			ret_5d DOUBLE PRECISION NOT NULL,
			ret_20d DOUBLE PRECISION NOT NULL,
			volatility_20d DOUBLE PRECISION NOT NULL,
			volume_z_20d DOUBLE PRECISION NOT NULL,
			rsi_14 DOUBLE PRECISION NOT NULL,
			macd_line DOUBLE PRECISION NOT NULL,
			macd_signal DOUBLE PRECISION NOT NULL,
			macd_hist DOUBLE PRECISION NOT NULL,
			ma_20w_dist DOUBLE PRECISION NOT NULL,
			ma_50w_dist DOUBLE PRECISION NOT NULL,
			range_pos_52w DOUBLE PRECISION NOT NULL,
			forward_ret_1d DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (symbol, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ml_feature_rows_day ON ml_feature_rows (day DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ml_feature_rows_labeled ON ml_feature_rows (day) WHERE forward_ret_1d IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRows rewrites each (symbol, day) row in full. Re-running a build
// over the same window is how unlabeled tail rows pick up their forward
// return once the next session closes.
func (r *Repository) UpsertRows(ctx context.Context, rows []domain.MLFeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "feature-repo.upsert-rows")
	defer span.End()

	batch := &pgx.Batch{}
	for i := range rows {
		row := rows[i]
		batch.Queue(
			`INSERT INTO ml_feature_rows (
				symbol, day, close,
				ret_1d, ret_5d, ret_20d,
				volatility_20d, volume_z_20d, rsi_14,
				macd_line, macd_signal, macd_hist,
				ma_20w_dist, ma_50w_dist, range_pos_52w,
				forward_ret_1d
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (symbol, day) DO UPDATE SET
				close = EXCLUDED.close,
				ret_1d = EXCLUDED.ret_1d,
				ret_5d = EXCLUDED.ret_5d,
				ret_20d = EXCLUDED.ret_20d,
				volatility_20d = EXCLUDED.volatility_20d,
				volume_z_20d = EXCLUDED.volume_z_20d,
				rsi_14 = EXCLUDED.rsi_14,
				macd_line = EXCLUDED.macd_line,
				macd_signal = EXCLUDED.macd_signal,
				macd_hist = EXCLUDED.macd_hist,
				ma_20w_dist = EXCLUDED.ma_20w_dist,
				ma_50w_dist = EXCLUDED.ma_50w_dist,
				range_pos_52w = EXCLUDED.range_pos_52w,
				forward_ret_1d = COALESCE(EXCLUDED.forward_ret_1d, ml_feature_rows.forward_ret_1d)`,
			row.Symbol, row.Day.UTC(), row.Close,
			row.Ret1D, row.Ret5D, row.Ret20D,
			row.Volatility20D, row.VolumeZ20D, row.RSI14,
			row.MACDLine, row.MACDSignal, row.MACDHist,
			row.MA20WDist, row.MA50WDist, row.RangePos52W,
			row.ForwardRet1D,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListLabeledRows returns rows with a known forward return inside [from, to],
// oldest first. Chronological order is what the train/test split relies on.
func (r *Repository) ListLabeledRows(ctx context.Context, from, to time.Time) ([]domain.MLFeatureRow, error) {
	_, span := r.tracer.Start(ctx, "feature-repo.list-labeled-rows")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		selectFeatureColumns+`
		 WHERE forward_ret_1d IS NOT NULL AND day >= $1 AND day <= $2
		 ORDER BY day ASC, symbol ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeatureRows(rows)
}

func (r *Repository) ListRows(ctx context.Context, from, to time.Time) ([]domain.MLFeatureRow, error) {
	_, span := r.tracer.Start(ctx, "feature-repo.list-rows")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		selectFeatureColumns+`
		 WHERE day >= $1 AND day <= $2
		 ORDER BY day ASC, symbol ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeatureRows(rows)
}

// ListLatest returns each symbol's newest feature row.
func (r *Repository) ListLatest(ctx context.Context) ([]domain.MLFeatureRow, error) {
	_, span := r.tracer.Start(ctx, "feature-repo.list-latest")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (symbol)
			id, symbol, day, close,
			ret_1d, ret_5d, ret_20d,
			volatility_20d, volume_z_20d, rsi_14,
			macd_line, macd_signal, macd_hist,
			ma_20w_dist, ma_50w_dist, range_pos_52w,
			forward_ret_1d, created_at
		 FROM ml_feature_rows
		 ORDER BY symbol ASC, day DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeatureRows(rows)
}

const selectFeatureColumns = `SELECT
	id, symbol, day, close,
	ret_1d, ret_5d, ret_20d,
	volatility_20d, volume_z_20d, rsi_14,
	macd_line, macd_signal, macd_hist,
	ma_20w_dist, ma_50w_dist, range_pos_52w,
	forward_ret_1d, created_at
 FROM ml_feature_rows`

func scanFeatureRows(rows pgx.Rows) ([]domain.MLFeatureRow, error) {
	out := make([]domain.MLFeatureRow, 0, 64)
	for rows.Next() {
		var row domain.MLFeatureRow
		if err := rows.Scan(
			&row.ID, &row.Symbol, &row.Day, &row.Close,
			&row.Ret1D, &row.Ret5D, &row.Ret20D,
			&row.Volatility20D, &row.VolumeZ20D, &row.RSI14,
			&row.MACDLine, &row.MACDSignal, &row.MACDHist,
			&row.MA20WDist, &row.MA50WDist, &row.RangePos52W,
			&row.ForwardRet1D, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		row.Day = row.Day.UTC()
		row.CreatedAt = row.CreatedAt.UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}
