package repository

import (
	"context"
	"strings"

	"argus/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type UniverseRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewUniverseRepository(pool PgxPool, tracer trace.Tracer) *UniverseRepository {
	return &UniverseRepository{pool: pool, tracer: tracer}
}

func (r *UniverseRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "universe-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS universe (
			symbol TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			sector TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_universe_active ON universe (is_active, symbol)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *UniverseRepository) Count(ctx context.Context) (int, error) {
	_, span := r.tracer.Start(ctx, "universe-repo.count")
	defer span.End()

	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM universe`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertEntries refreshes name and sector for known symbols and inserts the
// rest. is_active and added_at are left alone so operator deactivations
// survive a reseed.
func (r *UniverseRepository) UpsertEntries(ctx context.Context, entries []domain.UniverseEntry) error {
	if len(entries) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "universe-repo.upsert-entries")
	defer span.End()

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO universe (symbol, name, sector, is_active)
			 VALUES ($1, $2, $3, TRUE)
			 ON CONFLICT (symbol) DO UPDATE SET
			     name = EXCLUDED.name,
			     sector = EXCLUDED.sector`,
			strings.ToUpper(e.Symbol), e.Name, e.Sector,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *UniverseRepository) ListActive(ctx context.Context) ([]domain.UniverseEntry, error) {
	_, span := r.tracer.Start(ctx, "universe-repo.list-active")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, name, sector, is_active, added_at
		 FROM universe
		 WHERE is_active = TRUE
		 ORDER BY symbol ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUniverseEntries(rows)
}

// Search matches the query as a substring of the symbol or the name,
// case-insensitive, active symbols only.
func (r *UniverseRepository) Search(ctx context.Context, query string, limit int) ([]domain.UniverseEntry, error) {
	_, span := r.tracer.Start(ctx, "universe-repo.search")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + strings.TrimSpace(query) + "%"

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, name, sector, is_active, added_at
		 FROM universe
		 WHERE is_active = TRUE
		   AND (symbol ILIKE $1 OR name ILIKE $1)
		 ORDER BY symbol ASC
		 LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUniverseEntries(rows)
}

func (r *UniverseRepository) SetActive(ctx context.Context, symbol string, active bool) error {
	_, span := r.tracer.Start(ctx, "universe-repo.set-active")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE universe SET is_active = $2 WHERE symbol = $1`,
		strings.ToUpper(symbol), active,
	)
	return err
}

func scanUniverseEntries(rows pgx.Rows) ([]domain.UniverseEntry, error) {
	var entries []domain.UniverseEntry
	for rows.Next() {
		var e domain.UniverseEntry
		if err := rows.Scan(&e.Symbol, &e.Name, &e.Sector, &e.Active, &e.AddedAt); err != nil {
			return nil, err
		}
		e.AddedAt = e.AddedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
