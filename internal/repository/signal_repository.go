package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			details JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_dedupe ON signals (symbol, signal_type, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals (created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSignal inserts the candidate unless a signal of the same (symbol, type)
// was already created inside the window. The existence check and the insert
// run as a single statement, so concurrent detectors cannot both get through.
// Returns false with no error when the window suppressed the insert.
func (r *SignalRepository) SaveSignal(ctx context.Context, s domain.Signal, window time.Duration) (domain.Signal, bool, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.save-signal")
	defer span.End()

	details := s.Details
	if details == nil {
		details = map[string]any{}
	}

	var id int64
	var createdAt time.Time
	err := r.pool.QueryRow(ctx,
		`INSERT INTO signals (symbol, signal_type, timestamp, price, details, created_at)
		 SELECT $1, $2, $3, $4, $5, NOW()
		 WHERE NOT EXISTS (
		     SELECT 1 FROM signals
		     WHERE symbol = $1
		       AND signal_type = $2
		       AND created_at >= NOW() - make_interval(secs => $6)
		 )
		 RETURNING id, created_at`,
		s.Symbol,
		string(s.Type),
		s.Timestamp.UTC(),
		s.Price,
		details,
		window.Seconds(),
	).Scan(&id, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Signal{}, false, nil
	}
	if err != nil {
		return domain.Signal{}, false, err
	}

	out := s
	out.ID = id
	out.CreatedAt = createdAt.UTC()
	return out, true, nil
}

func (r *SignalRepository) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list-signals")
	defer span.End()

	args := make([]any, 0, 4)
	var sb strings.Builder
	sb.WriteString(`SELECT s.id, s.symbol, s.signal_type, s.timestamp, s.price, s.details, s.created_at,
               COALESCE(si.id, 0), COALESCE(si.mime_type, ''), COALESCE(si.width, 0), COALESCE(si.height, 0),
               COALESCE(si.expires_at, to_timestamp(0))
		FROM signals s
		LEFT JOIN signal_images si
		  ON si.signal_id = s.id
		 AND si.render_status = 'ready'
		 AND si.expires_at > NOW()
		WHERE 1=1`)

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		sb.WriteString(fmt.Sprintf(" AND s.signal_type = ANY($%d)", len(args)))
	}
	if len(filter.Symbols) > 0 {
		symbols := make([]string, len(filter.Symbols))
		for i, sym := range filter.Symbols {
			symbols[i] = strings.ToUpper(sym)
		}
		args = append(args, symbols)
		sb.WriteString(fmt.Sprintf(" AND s.symbol = ANY($%d)", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		sb.WriteString(fmt.Sprintf(" AND s.created_at >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]domain.Signal, 0, limit)
	for rows.Next() {
		s, err := scanSignalWithImage(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}

	return signals, rows.Err()
}

func scanSignalWithImage(rows pgx.Rows) (domain.Signal, error) {
	var s domain.Signal
	var signalType string
	var ts time.Time
	var createdAt time.Time
	var imageID int64
	var mimeType string
	var width int
	var height int
	var expiresAt time.Time

	if err := rows.Scan(
		&s.ID,
		&s.Symbol,
		&signalType,
		&ts,
		&s.Price,
		&s.Details,
		&createdAt,
		&imageID,
		&mimeType,
		&width,
		&height,
		&expiresAt,
	); err != nil {
		return domain.Signal{}, err
	}
	s.Type = domain.SignalType(signalType)
	s.Timestamp = ts.UTC()
	s.CreatedAt = createdAt.UTC()
	if imageID > 0 {
		s.Image = &domain.SignalImageRef{
			ImageID:   imageID,
			MimeType:  mimeType,
			Width:     width,
			Height:    height,
			ExpiresAt: expiresAt.UTC(),
		}
	}
	return s, nil
}
