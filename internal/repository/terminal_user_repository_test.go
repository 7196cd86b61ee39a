package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

func TestTerminalUserRunMigrationsExecutesSchema(t *testing.T) {
	pool := &termStubPool{}
	repo := NewTerminalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.execCount != 1 {
		t.Fatalf("expected 1 exec call, got %d", pool.execCount)
	}
}

func TestFindByFingerprintMissingIsNil(t *testing.T) {
	pool := &termStubPool{queryRowErr: pgx.ErrNoRows}
	repo := NewTerminalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	u, err := repo.FindByFingerprint(context.Background(), "SHA256:nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil user, got %+v", u)
	}
}

func TestFindByFingerprintScansUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	pool := &termStubPool{queryRowValues: []any{
		int64(4), "ada", "Ada L.", "ssh-ed25519 AAAA...", "ssh-ed25519", "SHA256:abc",
		true, nil, now, now,
	}}
	repo := NewTerminalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	u, err := repo.FindByFingerprint(context.Background(), "SHA256:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil || u.ID != 4 || u.Username != "ada" || !u.IsActive {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.LastLoginAt != nil {
		t.Fatalf("expected no last login, got %v", u.LastLoginAt)
	}
}

func TestUpsertUserReturnsID(t *testing.T) {
	pool := &termStubPool{queryRowValues: []any{int64(12)}}
	repo := NewTerminalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	id, err := repo.UpsertUser(context.Background(), TerminalUser{
		Username:    "ada",
		PublicKey:   "ssh-ed25519 AAAA...",
		KeyType:     "ssh-ed25519",
		Fingerprint: "SHA256:abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 12 {
		t.Fatalf("expected id 12, got %d", id)
	}
}

func TestUpdateLastLoginExecs(t *testing.T) {
	pool := &termStubPool{}
	repo := NewTerminalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.UpdateLastLogin(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.execCount != 1 {
		t.Fatalf("expected 1 exec call, got %d", pool.execCount)
	}
}

func TestTerminalUserListActiveScansRows(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	login := now.Add(-time.Hour)
	pool := &termStubPool{rowsData: [][]any{{
		int64(4), "ada", "Ada L.", "ssh-ed25519 AAAA...", "ssh-ed25519", "SHA256:abc",
		true, login, now, now,
	}}}
	repo := NewTerminalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	users, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].Username != "ada" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if users[0].LastLoginAt == nil || !users[0].LastLoginAt.Equal(login) {
		t.Fatalf("expected last login %v, got %v", login, users[0].LastLoginAt)
	}
}

type termStubPool struct {
	execCount      int
	rowsData       [][]any
	queryRowValues []any
	queryRowErr    error
}

func (s *termStubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execCount++
	return pgconn.CommandTag{}, nil
}

func (s *termStubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return &signalStubBatchResults{}
}

func (s *termStubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.rowsData == nil {
		return &termStubRows{}, nil
	}
	dataCopy := make([][]any, len(s.rowsData))
	for i := range s.rowsData {
		row := make([]any, len(s.rowsData[i]))
		copy(row, s.rowsData[i])
		dataCopy[i] = row
	}
	return &termStubRows{data: dataCopy}, nil
}

func (s *termStubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &termStubRow{values: s.queryRowValues, err: s.queryRowErr}
}

type termStubRows struct {
	data [][]any
	idx  int
}

func (r *termStubRows) Close() {}

func (r *termStubRows) Err() error { return nil }

func (r *termStubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *termStubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *termStubRows) Next() bool {
	if len(r.data) == 0 || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *termStubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	return scanTerminalUserRow(r.data[r.idx-1], dest)
}

func (r *termStubRows) Values() ([]any, error) { return nil, nil }

func (r *termStubRows) RawValues() [][]byte { return nil }

func (r *termStubRows) Conn() *pgx.Conn { return nil }

type termStubRow struct {
	values []any
	err    error
}

func (r *termStubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("destination count mismatch")
	}
	return scanTerminalUserRow(r.values, dest)
}

func scanTerminalUserRow(row []any, dest []any) error {
	for i, d := range dest {
		switch ptr := d.(type) {
		case *int64:
			*ptr = row[i].(int64)
		case *string:
			*ptr = row[i].(string)
		case *bool:
			*ptr = row[i].(bool)
		case *time.Time:
			*ptr = row[i].(time.Time)
		case **time.Time:
			if row[i] == nil {
				*ptr = nil
			} else {
				v := row[i].(time.Time)
				*ptr = &v
			}
		default:
			return fmt.Errorf("unsupported dest type %T", d)
		}
	}
	return nil
}
