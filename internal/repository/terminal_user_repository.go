package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// TerminalUser is an SSH principal allowed into the terminal dashboard.
// Fingerprint is the SHA256 fingerprint of the public key.
type TerminalUser struct {
	ID          int64
	Username    string
	DisplayName string
	PublicKey   string
	KeyType     string
	Fingerprint string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TerminalUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTerminalUserRepository(pool PgxPool, tracer trace.Tracer) *TerminalUserRepository {
	return &TerminalUserRepository{pool: pool, tracer: tracer}
}

func (r *TerminalUserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "terminal-user-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS terminal_users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			public_key TEXT NOT NULL,
			key_type TEXT NOT NULL,
			fingerprint TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	)
	return err
}

func (r *TerminalUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*TerminalUser, error) {
	_, span := r.tracer.Start(ctx, "terminal-user-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, username, display_name, public_key, key_type, fingerprint,
		        is_active, last_login_at, created_at, updated_at
		 FROM terminal_users
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	var u TerminalUser
	var lastLogin *time.Time
	err := row.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.PublicKey, &u.KeyType,
		&u.Fingerprint, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.LastLoginAt = lastLogin
	return &u, nil
}

// UpsertUser provisions a key, reactivating and refreshing it when the
// fingerprint is already known.
func (r *TerminalUserRepository) UpsertUser(ctx context.Context, u TerminalUser) (int64, error) {
	_, span := r.tracer.Start(ctx, "terminal-user-repo.upsert-user")
	defer span.End()

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO terminal_users (username, display_name, public_key, key_type, fingerprint, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		     username = EXCLUDED.username,
		     display_name = EXCLUDED.display_name,
		     public_key = EXCLUDED.public_key,
		     key_type = EXCLUDED.key_type,
		     is_active = TRUE,
		     updated_at = NOW()
		 RETURNING id`,
		u.Username, u.DisplayName, u.PublicKey, u.KeyType, u.Fingerprint,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TerminalUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, span := r.tracer.Start(ctx, "terminal-user-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE terminal_users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`,
		userID,
	)
	return err
}

func (r *TerminalUserRepository) ListActive(ctx context.Context) ([]TerminalUser, error) {
	_, span := r.tracer.Start(ctx, "terminal-user-repo.list-active")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, username, display_name, public_key, key_type, fingerprint,
		        is_active, last_login_at, created_at, updated_at
		 FROM terminal_users
		 WHERE is_active = TRUE
		 ORDER BY username ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []TerminalUser
	for rows.Next() {
		var u TerminalUser
		var lastLogin *time.Time
		if err := rows.Scan(
			&u.ID, &u.Username, &u.DisplayName, &u.PublicKey, &u.KeyType,
			&u.Fingerprint, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		u.LastLoginAt = lastLogin
		users = append(users, u)
	}
	return users, rows.Err()
}
