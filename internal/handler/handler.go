package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"argus/internal/cache"
	"argus/internal/domain"
	"argus/internal/markethours"
	"argus/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// UniverseDirectory supplies the symbol set for detection runs that do not
// name their own symbols.
type UniverseDirectory interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
}

type Handler struct {
	tracer          trace.Tracer
	stockService    *service.StockService
	screenerService *service.ScreenerService
	signalService   *service.SignalService
	universe        UniverseDirectory
	hub             *SignalHub

	store       *cache.Store
	dbCheck     func(context.Context) bool
	version     string
	environment string
}

func New(
	tracer trace.Tracer,
	stockService *service.StockService,
	screenerService *service.ScreenerService,
	signalService *service.SignalService,
) *Handler {
	return &Handler{
		tracer:          tracer,
		stockService:    stockService,
		screenerService: screenerService,
		signalService:   signalService,
	}
}

func (h *Handler) WithUniverse(universe UniverseDirectory) *Handler {
	h.universe = universe
	return h
}

func (h *Handler) WithHub(hub *SignalHub) *Handler {
	h.hub = hub
	return h
}

func (h *Handler) WithHealthInfo(version, environment string, store *cache.Store, dbCheck func(context.Context) bool) *Handler {
	h.version = version
	h.environment = environment
	h.store = store
	h.dbCheck = dbCheck
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	api.GET("/stock/:symbol", h.GetStock)
	api.GET("/stock/:symbol/history", h.GetStockHistory)
	api.GET("/stock/:symbol/indicators", h.GetStockIndicators)
	api.GET("/stock/:symbol/chart", h.GetStockChart)
	api.GET("/search", h.SearchStocks)
	api.POST("/screener/screen", h.RunScreener)
	api.GET("/signals", h.GetSignals)
	api.POST("/signals/detect", h.DetectSignals)
	api.GET("/signals/types", h.GetSignalTypes)
	api.GET("/signals/performance", h.GetSignalPerformance)
	api.GET("/signals/:id/image", h.GetSignalImage)

	if h.hub != nil {
		r.GET("/ws/signals", h.SignalFeed)
	}
}

// respondError maps domain sentinels onto HTTP statuses. Anything outside
// the taxonomy is an internal error.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Health godoc
// @Summary      Service health
// @Description  Reports process status, market session state and backing store connectivity
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().UTC()

	dbConnected := false
	if h.dbCheck != nil {
		dbConnected = h.dbCheck(ctx)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"version":            h.version,
		"environment":        h.environment,
		"timestamp":          now,
		"market_open":        markethours.IsOpen(now),
		"redis_connected":    h.store.Connected(ctx),
		"database_connected": dbConnected,
	})
}
