package handler

import (
	"net/http"
	"strconv"
	"strings"

	"argus/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetStock godoc
// @Summary      Get stock snapshot
// @Description  Returns the live quote together with company profile data
// @Tags         stock
// @Produce      json
// @Param        symbol  path  string  true  "Ticker symbol (e.g., AAPL)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/stock/{symbol} [get]
func (h *Handler) GetStock(c *gin.Context) {
	if h.stockService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	quote, err := h.stockService.GetQuote(ctx, symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := h.stockService.GetStockInfo(ctx, symbol)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote, "info": info})
}

// GetStockHistory godoc
// @Summary      Get historical bars
// @Description  Returns daily or weekly OHLCV bars for a symbol, newest last
// @Tags         stock
// @Produce      json
// @Param        symbol     path   string  true   "Ticker symbol"
// @Param        timeframe  query  string  false  "Bar timeframe (daily, weekly)"  default(daily)
// @Param        limit      query  int     false  "Number of bars"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/stock/{symbol}/history [get]
func (h *Handler) GetStockHistory(c *gin.Context) {
	if h.stockService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock-history")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	timeframe := domain.Timeframe(strings.ToLower(strings.TrimSpace(c.DefaultQuery("timeframe", string(domain.TimeframeDaily)))))
	if !timeframe.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be daily or weekly"})
		return
	}

	limit := 0
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	bars, err := h.stockService.GetHistory(ctx, symbol, timeframe, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"bars":      bars,
		"count":     len(bars),
	})
}

// GetStockIndicators godoc
// @Summary      Get indicator snapshot
// @Description  Returns current values for the weekly moving averages, RSI and MACD
// @Tags         stock
// @Produce      json
// @Param        symbol   path   string  true   "Ticker symbol"
// @Param        ma_type  query  string  false  "Moving average type (sma, ema)"  default(sma)
// @Success      200  {object}  domain.IndicatorSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/stock/{symbol}/indicators [get]
func (h *Handler) GetStockIndicators(c *gin.Context) {
	if h.stockService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock-indicators")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	maType := domain.MAType(strings.ToLower(strings.TrimSpace(c.DefaultQuery("ma_type", string(domain.MASimple)))))

	snapshot, err := h.stockService.GetIndicators(ctx, symbol, maType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetStockChart godoc
// @Summary      Get chart data
// @Description  Returns bars plus indicator overlay series sliced to the requested window
// @Tags         stock
// @Produce      json
// @Param        symbol     path   string  true   "Ticker symbol"
// @Param        period     query  string  false  "Window (3M, 6M, 1Y, 2Y, 5Y)"  default(1Y)
// @Param        timeframe  query  string  false  "Bar timeframe (daily, weekly)"  default(daily)
// @Param        ma_type    query  string  false  "Moving average type (sma, ema)"  default(sma)
// @Success      200  {object}  service.ChartData
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/stock/{symbol}/chart [get]
func (h *Handler) GetStockChart(c *gin.Context) {
	if h.stockService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock-chart")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	period := strings.TrimSpace(c.DefaultQuery("period", "1Y"))
	timeframe := domain.Timeframe(strings.ToLower(strings.TrimSpace(c.DefaultQuery("timeframe", string(domain.TimeframeDaily)))))
	if !timeframe.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be daily or weekly"})
		return
	}
	maType := domain.MAType(strings.ToLower(strings.TrimSpace(c.DefaultQuery("ma_type", string(domain.MASimple)))))

	chart, err := h.stockService.GetChartData(ctx, symbol, period, timeframe, maType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// SearchStocks godoc
// @Summary      Search the universe
// @Description  Matches symbols and company names by prefix and substring
// @Tags         stock
// @Produce      json
// @Param        q      query  string  true   "Search text"
// @Param        limit  query  int     false  "Maximum results"  default(10)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/search [get]
func (h *Handler) SearchStocks(c *gin.Context) {
	if h.stockService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-stocks")
	defer span.End()

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	span.SetAttributes(attribute.String("query", query))

	limit := 0
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}

	results, err := h.stockService.Search(ctx, query, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}
