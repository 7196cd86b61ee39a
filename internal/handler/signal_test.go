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

type handlerSignalMarketStub struct {
	bars map[string][]domain.Bar
}

func (s *handlerSignalMarketStub) FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error) {
	return append([]domain.Bar(nil), s.bars[symbol]...), nil
}

func (s *handlerSignalMarketStub) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return &domain.Quote{Symbol: symbol, Price: 100}, nil
}

type handlerSignalStoreStub struct {
	lastFilter domain.SignalFilter
	resp       []domain.Signal
	nextID     int64
}

func (s *handlerSignalStoreStub) SaveSignal(ctx context.Context, sig domain.Signal, window time.Duration) (domain.Signal, bool, error) {
	s.nextID++
	sig.ID = s.nextID
	return sig, true, nil
}

func (s *handlerSignalStoreStub) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	s.lastFilter = filter
	return append([]domain.Signal(nil), s.resp...), nil
}

type handlerSignalEngineStub struct {
	signals []domain.Signal
}

func (s *handlerSignalEngineStub) DetectAll(symbol string, bars []domain.Bar, high52w, low52w *float64) []domain.Signal {
	out := make([]domain.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		sig.Symbol = symbol
		out = append(out, sig)
	}
	return out
}

type handlerSignalImageRepoStub struct {
	imageBySignalID map[int64]*domain.SignalImageData
}

func (s *handlerSignalImageRepoStub) UpsertSignalImageReady(
	ctx context.Context,
	signalID int64,
	imageBytes []byte,
	mimeType string,
	width, height int,
	expiresAt time.Time,
) (*domain.SignalImageRef, error) {
	return &domain.SignalImageRef{ImageID: 1, MimeType: mimeType, Width: width, Height: height, ExpiresAt: expiresAt}, nil
}

func (s *handlerSignalImageRepoStub) UpsertSignalImageFailure(
	ctx context.Context,
	signalID int64,
	errorText string,
	nextRetryAt time.Time,
	expiresAt time.Time,
) error {
	return nil
}

func (s *handlerSignalImageRepoStub) GetSignalImageBySignalID(ctx context.Context, signalID int64) (*domain.SignalImageData, error) {
	if img, ok := s.imageBySignalID[signalID]; ok {
		cp := *img
		cp.Bytes = append([]byte(nil), img.Bytes...)
		return &cp, nil
	}
	return nil, nil
}

func (s *handlerSignalImageRepoStub) ListRetryCandidates(ctx context.Context, limit int, maxRetryCount int) ([]domain.Signal, error) {
	return nil, nil
}

func (s *handlerSignalImageRepoStub) DeleteExpiredSignalImages(ctx context.Context) (int64, error) {
	return 0, nil
}

func newSignalHandler(store *handlerSignalStoreStub, engine *handlerSignalEngineStub, market *handlerSignalMarketStub) *Handler {
	tracer := testTracer()
	if market == nil {
		market = &handlerSignalMarketStub{}
	}
	if engine == nil {
		engine = &handlerSignalEngineStub{}
	}
	signalService := service.NewSignalService(tracer, market, store, engine).WithConcurrency(1)
	return New(tracer, nil, nil, signalService)
}

func TestGetSignalsParsesFilters(t *testing.T) {
	store := &handlerSignalStoreStub{
		resp: []domain.Signal{{
			ID:        1,
			Symbol:    "AAPL",
			Type:      domain.SignalRSIOversold,
			Price:     231.5,
			Timestamp: time.Now().UTC(),
		}},
	}
	h := newSignalHandler(store, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals?types=rsi_oversold&symbols=aapl,msft&hours=48&limit=5", nil)

	router := gin.New()
	router.GET("/api/v1/signals", h.GetSignals)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.lastFilter.Types) != 1 || store.lastFilter.Types[0] != domain.SignalRSIOversold {
		t.Fatalf("unexpected types filter: %+v", store.lastFilter.Types)
	}
	if len(store.lastFilter.Symbols) != 2 || store.lastFilter.Symbols[0] != "AAPL" || store.lastFilter.Symbols[1] != "MSFT" {
		t.Fatalf("unexpected symbols filter: %+v", store.lastFilter.Symbols)
	}
	if store.lastFilter.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", store.lastFilter.Limit)
	}
	wantSince := time.Now().Add(-48 * time.Hour)
	if diff := store.lastFilter.Since.Sub(wantSince); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expected since near %v, got %v", wantSince, store.lastFilter.Since)
	}

	var resp struct {
		Signals []domain.Signal `json:"signals"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Count != 1 || len(resp.Signals) != 1 || resp.Signals[0].Symbol != "AAPL" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetSignalsRejectsUnknownType(t *testing.T) {
	h := newSignalHandler(&handlerSignalStoreStub{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals?types=golden_unicorn", nil)

	router := gin.New()
	router.GET("/api/v1/signals", h.GetSignals)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetSignalsRejectsBadRanges(t *testing.T) {
	h := newSignalHandler(&handlerSignalStoreStub{}, nil, nil)

	router := gin.New()
	router.GET("/api/v1/signals", h.GetSignals)

	for _, path := range []string{
		"/api/v1/signals?hours=0",
		"/api/v1/signals?hours=200",
		"/api/v1/signals?hours=abc",
		"/api/v1/signals?limit=0",
		"/api/v1/signals?limit=501",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", path, w.Code)
		}
	}
}

func TestDetectSignalsUsesBodySymbols(t *testing.T) {
	store := &handlerSignalStoreStub{}
	engine := &handlerSignalEngineStub{
		signals: []domain.Signal{{Type: domain.SignalRSIOversold, Price: 100, Timestamp: time.Now().UTC()}},
	}
	market := &handlerSignalMarketStub{bars: map[string][]domain.Bar{
		"AAPL": handlerTestBars(40),
	}}
	h := newSignalHandler(store, engine, market)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signals/detect", strings.NewReader(`{"symbols":["aapl"]}`))
	req.Header.Set("Content-Type", "application/json")

	router := gin.New()
	router.POST("/api/v1/signals/detect", h.DetectSignals)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp service.DetectBatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Symbols != 1 || resp.Detected != 1 || resp.Saved != 1 {
		t.Fatalf("unexpected result: %+v", resp)
	}
	if len(resp.Signals) != 1 || resp.Signals[0].Symbol != "AAPL" {
		t.Fatalf("expected AAPL signal in response, got %+v", resp.Signals)
	}
}

func TestDetectSignalsFallsBackToUniverse(t *testing.T) {
	store := &handlerSignalStoreStub{}
	market := &handlerSignalMarketStub{bars: map[string][]domain.Bar{
		"AAPL": handlerTestBars(40),
		"MSFT": handlerTestBars(40),
	}}
	h := newSignalHandler(store, &handlerSignalEngineStub{}, market).
		WithUniverse(&handlerDirectoryStub{symbols: []string{"AAPL", "MSFT"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signals/detect", nil)

	router := gin.New()
	router.POST("/api/v1/signals/detect", h.DetectSignals)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp service.DetectBatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Symbols != 2 {
		t.Fatalf("expected 2 universe symbols, got %d", resp.Symbols)
	}
}

func TestDetectSignalsWithoutUniverseIs503(t *testing.T) {
	h := newSignalHandler(&handlerSignalStoreStub{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signals/detect", nil)

	router := gin.New()
	router.POST("/api/v1/signals/detect", h.DetectSignals)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetSignalTypesListsCatalog(t *testing.T) {
	h := New(testTracer(), nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/types", nil)

	router := gin.New()
	router.GET("/api/v1/signals/types", h.GetSignalTypes)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Types []service.SignalTypeInfo `json:"types"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Types) != len(domain.AllSignalTypes()) {
		t.Fatalf("expected %d types, got %d", len(domain.AllSignalTypes()), len(resp.Types))
	}
}

func TestGetSignalPerformanceWithoutOutcomesIs503(t *testing.T) {
	h := newSignalHandler(&handlerSignalStoreStub{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/performance", nil)

	router := gin.New()
	router.GET("/api/v1/signals/performance", h.GetSignalPerformance)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetSignalPerformanceRejectsBadDays(t *testing.T) {
	h := newSignalHandler(&handlerSignalStoreStub{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/performance?days=1000", nil)

	router := gin.New()
	router.GET("/api/v1/signals/performance", h.GetSignalPerformance)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetSignalImageServesPNG(t *testing.T) {
	tracer := testTracer()
	imageRepo := &handlerSignalImageRepoStub{
		imageBySignalID: map[int64]*domain.SignalImageData{
			42: {
				Ref:   domain.SignalImageRef{ImageID: 7, MimeType: "image/png", Width: 10, Height: 10},
				Bytes: []byte{0x89, 0x50, 0x4e, 0x47},
			},
		},
	}
	signalService := service.NewSignalService(tracer, &handlerSignalMarketStub{}, &handlerSignalStoreStub{}, &handlerSignalEngineStub{}).
		WithImages(imageRepo, nil)
	h := New(tracer, nil, nil, signalService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/42/image", nil)

	router := gin.New()
	router.GET("/api/v1/signals/:id/image", h.GetSignalImage)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); !strings.Contains(got, "image/png") {
		t.Fatalf("expected image/png content-type, got %s", got)
	}
	if len(w.Body.Bytes()) == 0 {
		t.Fatal("expected non-empty image bytes")
	}
}

func TestGetSignalImageMissingIs404(t *testing.T) {
	tracer := testTracer()
	signalService := service.NewSignalService(tracer, &handlerSignalMarketStub{}, &handlerSignalStoreStub{}, &handlerSignalEngineStub{}).
		WithImages(&handlerSignalImageRepoStub{}, nil)
	h := New(tracer, nil, nil, signalService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/999/image", nil)

	router := gin.New()
	router.GET("/api/v1/signals/:id/image", h.GetSignalImage)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetSignalImageRejectsBadID(t *testing.T) {
	h := newSignalHandler(&handlerSignalStoreStub{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/zero/image", nil)

	router := gin.New()
	router.GET("/api/v1/signals/:id/image", h.GetSignalImage)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

type handlerDirectoryStub struct {
	symbols []string
}

func (s *handlerDirectoryStub) ActiveSymbols(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.symbols...), nil
}
