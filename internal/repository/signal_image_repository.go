package repository

import (
	"context"
	"errors"
	"time"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type SignalImageRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalImageRepository(pool PgxPool, tracer trace.Tracer) *SignalImageRepository {
	return &SignalImageRepository{pool: pool, tracer: tracer}
}

func (r *SignalImageRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-image-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_images (
			id BIGSERIAL PRIMARY KEY,
			signal_id BIGINT NOT NULL UNIQUE REFERENCES signals(id) ON DELETE CASCADE,
			mime_type TEXT NOT NULL,
			image_bytes BYTEA NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			render_status TEXT NOT NULL,
			error_text TEXT NOT NULL DEFAULT '',
			retry_count INT NOT NULL DEFAULT 0,
			next_retry_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_images_retry ON signal_images (render_status, next_retry_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_images_expires ON signal_images (expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *SignalImageRepository) UpsertSignalImageReady(
	ctx context.Context,
	signalID int64,
	imageBytes []byte,
	mimeType string,
	width, height int,
	expiresAt time.Time,
) (*domain.SignalImageRef, error) {
	_, span := r.tracer.Start(ctx, "signal-image-repo.upsert-ready")
	defer span.End()

	var out domain.SignalImageRef
	err := r.pool.QueryRow(ctx, `
INSERT INTO signal_images (
    signal_id, mime_type, image_bytes, width, height, render_status, error_text, retry_count, next_retry_at, expires_at
) VALUES ($1, $2, $3, $4, $5, 'ready', '', 0, NOW(), $6)
ON CONFLICT (signal_id) DO UPDATE SET
    mime_type = EXCLUDED.mime_type,
    image_bytes = EXCLUDED.image_bytes,
    width = EXCLUDED.width,
    height = EXCLUDED.height,
    render_status = 'ready',
    error_text = '',
    retry_count = 0,
    next_retry_at = NOW(),
    expires_at = EXCLUDED.expires_at
RETURNING id, mime_type, width, height, expires_at
`, signalID, mimeType, imageBytes, width, height, expiresAt.UTC()).
		Scan(&out.ImageID, &out.MimeType, &out.Width, &out.Height, &out.ExpiresAt)
	if err != nil {
		return nil, err
	}
	out.ExpiresAt = out.ExpiresAt.UTC()
	return &out, nil
}

func (r *SignalImageRepository) UpsertSignalImageFailure(
	ctx context.Context,
	signalID int64,
	errorText string,
	nextRetryAt time.Time,
	expiresAt time.Time,
) error {
	_, span := r.tracer.Start(ctx, "signal-image-repo.upsert-failure")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
INSERT INTO signal_images (
    signal_id, mime_type, image_bytes, width, height, render_status, error_text, retry_count, next_retry_at, expires_at
) VALUES ($1, 'image/png', ''::bytea, 0, 0, 'failed', $2, 1, $3, $4)
ON CONFLICT (signal_id) DO UPDATE SET
    render_status = 'failed',
    error_text = EXCLUDED.error_text,
    retry_count = signal_images.retry_count + 1,
    next_retry_at = EXCLUDED.next_retry_at,
    expires_at = EXCLUDED.expires_at
`, signalID, errorText, nextRetryAt.UTC(), expiresAt.UTC())
	return err
}

func (r *SignalImageRepository) GetSignalImageBySignalID(
	ctx context.Context,
	signalID int64,
) (*domain.SignalImageData, error) {
	_, span := r.tracer.Start(ctx, "signal-image-repo.get-by-signal-id")
	defer span.End()

	var out domain.SignalImageData
	err := r.pool.QueryRow(ctx, `
SELECT id, mime_type, width, height, expires_at, image_bytes
FROM signal_images
WHERE signal_id = $1
  AND render_status = 'ready'
  AND expires_at > NOW()
`, signalID).Scan(
		&out.Ref.ImageID,
		&out.Ref.MimeType,
		&out.Ref.Width,
		&out.Ref.Height,
		&out.Ref.ExpiresAt,
		&out.Bytes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	out.Ref.ExpiresAt = out.Ref.ExpiresAt.UTC()
	return &out, nil
}

// ListRetryCandidates returns signals whose chart render failed and is due
// for another attempt.
func (r *SignalImageRepository) ListRetryCandidates(
	ctx context.Context,
	limit int,
	maxRetryCount int,
) ([]domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "signal-image-repo.list-retry-candidates")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	if maxRetryCount <= 0 {
		maxRetryCount = 3
	}

	rows, err := r.pool.Query(ctx, `
SELECT s.id, s.symbol, s.signal_type, s.timestamp, s.price, s.details, s.created_at
FROM signal_images si
JOIN signals s ON s.id = si.signal_id
WHERE si.render_status = 'failed'
  AND si.retry_count < $1
  AND si.next_retry_at <= NOW()
ORDER BY si.next_retry_at ASC
LIMIT $2
`, maxRetryCount, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Signal, 0, limit)
	for rows.Next() {
		var s domain.Signal
		var signalType string
		if err := rows.Scan(
			&s.ID,
			&s.Symbol,
			&signalType,
			&s.Timestamp,
			&s.Price,
			&s.Details,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.Type = domain.SignalType(signalType)
		s.Timestamp = s.Timestamp.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SignalImageRepository) DeleteExpiredSignalImages(ctx context.Context) (int64, error) {
	_, span := r.tracer.Start(ctx, "signal-image-repo.delete-expired")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM signal_images WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
