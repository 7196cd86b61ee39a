// Package universe maintains the set of symbols the screener and the
// detector operate on. The set lives in Postgres, is seeded from the
// built-in catalog when empty, and the active slice is cached in Redis.
package universe

import (
	"context"
	"fmt"
	"log"
	"strings"

	"argus/internal/cache"
	"argus/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type Repository interface {
	Count(ctx context.Context) (int, error)
	UpsertEntries(ctx context.Context, entries []domain.UniverseEntry) error
	ListActive(ctx context.Context) ([]domain.UniverseEntry, error)
	Search(ctx context.Context, query string, limit int) ([]domain.UniverseEntry, error)
	SetActive(ctx context.Context, symbol string, active bool) error
}

type Manager struct {
	tracer trace.Tracer
	repo   Repository
	store  *cache.Store
}

func NewManager(tracer trace.Tracer, repo Repository, store *cache.Store) *Manager {
	return &Manager{tracer: tracer, repo: repo, store: store}
}

func activeKey() string {
	return cache.Key("universe", "active")
}

// EnsureSeeded loads the default catalog into an empty universe table.
// Returns the number of symbols seeded, zero when the table was already
// populated.
func (m *Manager) EnsureSeeded(ctx context.Context) (int, error) {
	ctx, span := m.tracer.Start(ctx, "universe-manager.ensure-seeded")
	defer span.End()

	if m.repo == nil {
		return 0, fmt.Errorf("universe manager is not fully initialized")
	}

	n, err := m.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count universe: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	entries := DefaultEntries()
	if err := m.repo.UpsertEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("seed universe: %w", err)
	}
	m.invalidate(ctx)
	log.Printf("universe: seeded %d symbols", len(entries))
	return len(entries), nil
}

// ActiveEntries returns the active universe, cache-first.
func (m *Manager) ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error) {
	ctx, span := m.tracer.Start(ctx, "universe-manager.active-entries")
	defer span.End()

	if m.repo == nil {
		return nil, fmt.Errorf("universe manager is not fully initialized")
	}

	var cached []domain.UniverseEntry
	if ok, err := m.store.GetJSON(ctx, activeKey(), &cached); err == nil && ok {
		return cached, nil
	}

	entries, err := m.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	if len(entries) > 0 {
		if err := m.store.SetJSON(ctx, activeKey(), entries, cache.ClassUniverse); err != nil {
			log.Printf("universe: cache set failed: %v", err)
		}
	}
	return entries, nil
}

// ActiveSymbols returns just the symbols of the active universe.
func (m *Manager) ActiveSymbols(ctx context.Context) ([]string, error) {
	entries, err := m.ActiveEntries(ctx)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return symbols, nil
}

func (m *Manager) Search(ctx context.Context, query string, limit int) ([]domain.UniverseEntry, error) {
	ctx, span := m.tracer.Start(ctx, "universe-manager.search")
	defer span.End()

	if m.repo == nil {
		return nil, fmt.Errorf("universe manager is not fully initialized")
	}
	return m.repo.Search(ctx, query, limit)
}

// Add inserts or reactivates a symbol.
func (m *Manager) Add(ctx context.Context, symbol, name, sector string) error {
	ctx, span := m.tracer.Start(ctx, "universe-manager.add")
	defer span.End()

	if m.repo == nil {
		return fmt.Errorf("universe manager is not fully initialized")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}

	entry := domain.UniverseEntry{Symbol: symbol, Name: name, Sector: sector}
	if err := m.repo.UpsertEntries(ctx, []domain.UniverseEntry{entry}); err != nil {
		return err
	}
	// Upsert leaves is_active untouched for known symbols, so flip it
	// explicitly in case the symbol was deactivated earlier.
	if err := m.repo.SetActive(ctx, symbol, true); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

// Remove deactivates a symbol. The row stays so history keeps its context.
func (m *Manager) Remove(ctx context.Context, symbol string) error {
	ctx, span := m.tracer.Start(ctx, "universe-manager.remove")
	defer span.End()

	if m.repo == nil {
		return fmt.Errorf("universe manager is not fully initialized")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}
	if err := m.repo.SetActive(ctx, symbol, false); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

func (m *Manager) invalidate(ctx context.Context) {
	if err := m.store.Delete(ctx, activeKey()); err != nil {
		log.Printf("universe: cache invalidate failed: %v", err)
	}
}
