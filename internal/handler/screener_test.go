package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"argus/internal/domain"
	"argus/internal/service"

	"github.com/gin-gonic/gin"
)

type handlerScreenerUniverseStub struct {
	entries []domain.UniverseEntry
}

func (s *handlerScreenerUniverseStub) ActiveEntries(ctx context.Context) ([]domain.UniverseEntry, error) {
	return append([]domain.UniverseEntry(nil), s.entries...), nil
}

type handlerScreenerDataStub struct {
	bars   map[string][]domain.Bar
	quotes map[string]*domain.Quote
}

func (s *handlerScreenerDataStub) FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error) {
	return append([]domain.Bar(nil), s.bars[symbol]...), nil
}

func (s *handlerScreenerDataStub) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if q, ok := s.quotes[symbol]; ok {
		return q, nil
	}
	return nil, domain.ErrNotFound
}

func flatScreenerBars(n int) []domain.Bar {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, domain.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    500_000,
		})
	}
	return bars
}

func newScreenerHandler() (*Handler, *handlerScreenerDataStub) {
	tracer := testTracer()
	universe := &handlerScreenerUniverseStub{
		entries: []domain.UniverseEntry{
			{Symbol: "AAA", Name: "Alpha Corp", Active: true},
			{Symbol: "BBB", Name: "Beta Corp", Active: true},
		},
	}
	data := &handlerScreenerDataStub{
		bars: map[string][]domain.Bar{
			"AAA": flatScreenerBars(100),
			"BBB": flatScreenerBars(100),
		},
		quotes: map[string]*domain.Quote{
			"AAA": {Symbol: "AAA", Price: 103, ChangePercent: 1.0},
			"BBB": {Symbol: "BBB", Price: 96, ChangePercent: -2.0},
		},
	}
	screenerService := service.NewScreenerService(tracer, universe, data, nil, 1)
	return New(tracer, nil, screenerService, nil), data
}

func TestRunScreenerDefaultsOnEmptyBody(t *testing.T) {
	h, _ := newScreenerHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screener/screen", nil)

	router := gin.New()
	router.POST("/api/v1/screener/screen", h.RunScreener)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.ScreenerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.MAFilter != domain.MA20W || resp.MAType != domain.MASimple {
		t.Fatalf("expected default MA filter, got %s/%s", resp.MAFilter, resp.MAType)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected both symbols to pass the default 5%% band, got %+v", resp)
	}
}

func TestRunScreenerBindsOverDefaults(t *testing.T) {
	h, _ := newScreenerHandler()

	body := `{"include_below": false, "limit": 1}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screener/screen", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	router := gin.New()
	router.POST("/api/v1/screener/screen", h.RunScreener)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.ScreenerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	// Only the above-MA row survives; absent fields kept their defaults.
	if resp.Total != 1 || len(resp.Results) != 1 || resp.Results[0].Symbol != "AAA" {
		t.Fatalf("unexpected results: %+v", resp)
	}
	if resp.MAFilter != domain.MA20W {
		t.Fatalf("expected default ma_filter to survive partial body, got %s", resp.MAFilter)
	}
}

func TestRunScreenerRejectsMalformedBody(t *testing.T) {
	h, _ := newScreenerHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screener/screen", strings.NewReader(`{"limit": `))
	req.Header.Set("Content-Type", "application/json")

	router := gin.New()
	router.POST("/api/v1/screener/screen", h.RunScreener)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRunScreenerRejectsInvalidSort(t *testing.T) {
	h, _ := newScreenerHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screener/screen", strings.NewReader(`{"sort_by":"volume"}`))
	req.Header.Set("Content-Type", "application/json")

	router := gin.New()
	router.POST("/api/v1/screener/screen", h.RunScreener)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRunScreenerWithoutServiceIs503(t *testing.T) {
	h := New(testTracer(), nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screener/screen", nil)

	router := gin.New()
	router.POST("/api/v1/screener/screen", h.RunScreener)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
