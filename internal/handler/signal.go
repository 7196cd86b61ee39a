package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"argus/internal/domain"
	"argus/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSignals godoc
// @Summary      Get detected signals
// @Description  Returns recent signals, optionally filtered by type, symbol and age
// @Tags         signals
// @Produce      json
// @Param        types    query  string  false  "Comma-separated signal types"
// @Param        symbols  query  string  false  "Comma-separated ticker symbols"
// @Param        hours    query  int     false  "Lookback window in hours (1-168)"  default(24)
// @Param        limit    query  int     false  "Number of signals (max 500)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	var filter domain.SignalFilter

	if rawTypes := strings.TrimSpace(c.Query("types")); rawTypes != "" {
		for _, part := range strings.Split(rawTypes, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			filter.Types = append(filter.Types, domain.SignalType(part))
		}
	}

	if rawSymbols := strings.TrimSpace(c.Query("symbols")); rawSymbols != "" {
		for _, part := range strings.Split(rawSymbols, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			filter.Symbols = append(filter.Symbols, part)
		}
		span.SetAttributes(attribute.String("symbols", strings.Join(filter.Symbols, ",")))
	}

	hours := 24
	if rawHours := strings.TrimSpace(c.Query("hours")); rawHours != "" {
		n, err := strconv.Atoi(rawHours)
		if err != nil || n < 1 || n > 168 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be between 1 and 168"})
			return
		}
		hours = n
	}
	filter.Since = time.Now().Add(-time.Duration(hours) * time.Hour)

	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		filter.Limit = n
	}

	signals, err := h.signalService.ListSignals(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

// DetectSignals godoc
// @Summary      Run signal detection
// @Description  Detects and stores signals for the given symbols, or the whole active universe when none are given
// @Tags         signals
// @Accept       json
// @Produce      json
// @Param        request  body  object  false  "Optional {\"symbols\": [...]}"
// @Success      200  {object}  service.DetectBatchResult
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/signals/detect [post]
func (h *Handler) DetectSignals(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.detect-signals")
	defer span.End()

	var body struct {
		Symbols []string `json:"symbols"`
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	symbols := make([]string, 0, len(body.Symbols))
	for _, s := range body.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		if h.universe == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "universe unavailable"})
			return
		}
		var err error
		symbols, err = h.universe.ActiveSymbols(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	span.SetAttributes(attribute.Int("symbols", len(symbols)))

	result, err := h.signalService.DetectBatch(ctx, symbols)
	if err != nil {
		respondError(c, err)
		return
	}
	h.hub.BroadcastSignals(result.Signals)

	c.JSON(http.StatusOK, result)
}

// GetSignalTypes godoc
// @Summary      List signal types
// @Description  Returns the signal catalog with description and sentiment per type
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/signals/types [get]
func (h *Handler) GetSignalTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": service.SignalTypes()})
}

// GetSignalPerformance godoc
// @Summary      Get signal performance
// @Description  Returns resolved-outcome accuracy per signal type plus daily aggregates
// @Tags         signals
// @Produce      json
// @Param        days   query  int  false  "Aggregation window in days (1-365)"  default(30)
// @Param        limit  query  int  false  "Number of recent outcomes (max 100)"  default(20)
// @Success      200  {object}  service.PerformanceReport
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/signals/performance [get]
func (h *Handler) GetSignalPerformance(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal-performance")
	defer span.End()

	days := 0
	if rawDays := strings.TrimSpace(c.Query("days")); rawDays != "" {
		n, err := strconv.Atoi(rawDays)
		if err != nil || n < 1 || n > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	limit := 0
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	report, err := h.signalService.Performance(ctx, days, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetSignalImage godoc
// @Summary      Get signal chart image
// @Description  Returns the rendered PNG chart for a signal id
// @Tags         signals
// @Produce      png
// @Param        id  path  int  true  "Signal ID"
// @Success      200  {file}  binary
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/signals/{id}/image [get]
func (h *Handler) GetSignalImage(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal-image")
	defer span.End()

	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}
	span.SetAttributes(attribute.Int64("signal_id", id))

	imageData, err := h.signalService.GetSignalImage(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if imageData == nil || len(imageData.Bytes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "signal image not found"})
		return
	}

	c.Data(http.StatusOK, imageData.Ref.MimeType, imageData.Bytes)
}
