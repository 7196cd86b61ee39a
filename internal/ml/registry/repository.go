// Package registry stores trained model artifacts and tracks which
// version of each model key is live.
package registry

import (
	"context"
	"errors"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	pool   Pool
	tracer trace.Tracer
}

func NewRepository(pool Pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "model-registry.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ml_model_versions (
			id BIGSERIAL PRIMARY KEY,
			model_key TEXT NOT NULL,
			version INT NOT NULL,
			feature_spec_version INT NOT NULL,
			trained_from TIMESTAMPTZ NOT NULL,
			trained_to TIMESTAMPTZ NOT NULL,
			hyperparams JSONB NOT NULL DEFAULT '{}'::jsonb,
			metrics JSONB NOT NULL DEFAULT '{}'::jsonb,
			artifact_format TEXT NOT NULL,
			artifact BYTEA NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (model_key, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ml_model_versions_active ON ml_model_versions (model_key) WHERE is_active`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) NextVersion(ctx context.Context, modelKey string) (int, error) {
	_, span := r.tracer.Start(ctx, "model-registry.next-version")
	defer span.End()

	var version int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM ml_model_versions WHERE model_key = $1`,
		modelKey,
	).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (r *Repository) InsertModelVersion(ctx context.Context, model domain.MLModelVersion) (*domain.MLModelVersion, error) {
	_, span := r.tracer.Start(ctx, "model-registry.insert-model-version")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO ml_model_versions
			(model_key, version, feature_spec_version, trained_from, trained_to,
			 hyperparams, metrics, artifact_format, artifact, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		model.ModelKey,
		model.Version,
		model.FeatureSpecVersion,
		model.TrainedFrom.UTC(),
		model.TrainedTo.UTC(),
		model.HyperparamsJSON,
		model.MetricsJSON,
		model.ArtifactFormat,
		model.ArtifactBlob,
		model.IsActive,
	).Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		return nil, err
	}
	model.CreatedAt = model.CreatedAt.UTC()
	return &model, nil
}

// GetActiveModel returns nil without error when no version of the key
// has been promoted yet; callers treat that as "model not deployed".
func (r *Repository) GetActiveModel(ctx context.Context, modelKey string) (*domain.MLModelVersion, error) {
	_, span := r.tracer.Start(ctx, "model-registry.get-active-model")
	defer span.End()

	var model domain.MLModelVersion
	err := r.pool.QueryRow(ctx,
		`SELECT id, model_key, version, feature_spec_version, trained_from, trained_to,
			hyperparams, metrics, artifact_format, artifact, is_active, created_at
		 FROM ml_model_versions
		 WHERE model_key = $1 AND is_active
		 ORDER BY version DESC
		 LIMIT 1`,
		modelKey,
	).Scan(
		&model.ID,
		&model.ModelKey,
		&model.Version,
		&model.FeatureSpecVersion,
		&model.TrainedFrom,
		&model.TrainedTo,
		&model.HyperparamsJSON,
		&model.MetricsJSON,
		&model.ArtifactFormat,
		&model.ArtifactBlob,
		&model.IsActive,
		&model.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	model.TrainedFrom = model.TrainedFrom.UTC()
	model.TrainedTo = model.TrainedTo.UTC()
	model.CreatedAt = model.CreatedAt.UTC()
	return &model, nil
}

func (r *Repository) GetModelVersion(ctx context.Context, modelKey string, version int) (*domain.MLModelVersion, error) {
	_, span := r.tracer.Start(ctx, "model-registry.get-model-version")
	defer span.End()

	var model domain.MLModelVersion
	err := r.pool.QueryRow(ctx,
		`SELECT id, model_key, version, feature_spec_version, trained_from, trained_to,
			hyperparams, metrics, artifact_format, artifact, is_active, created_at
		 FROM ml_model_versions
		 WHERE model_key = $1 AND version = $2`,
		modelKey,
		version,
	).Scan(
		&model.ID,
		&model.ModelKey,
		&model.Version,
		&model.FeatureSpecVersion,
		&model.TrainedFrom,
		&model.TrainedTo,
		&model.HyperparamsJSON,
		&model.MetricsJSON,
		&model.ArtifactFormat,
		&model.ArtifactBlob,
		&model.IsActive,
		&model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	model.TrainedFrom = model.TrainedFrom.UTC()
	model.TrainedTo = model.TrainedTo.UTC()
	model.CreatedAt = model.CreatedAt.UTC()
	return &model, nil
}

// ActivateModel flips the active flag to the given version inside one
// transaction so readers never observe two live versions of a key.
func (r *Repository) ActivateModel(ctx context.Context, modelKey string, version int) error {
	_, span := r.tracer.Start(ctx, "model-registry.activate-model")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE ml_model_versions SET is_active = FALSE WHERE model_key = $1 AND is_active`,
		modelKey,
	); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE ml_model_versions SET is_active = TRUE WHERE model_key = $1 AND version = $2`,
		modelKey,
		version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
