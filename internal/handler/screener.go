package handler

import (
	"net/http"

	"argus/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RunScreener godoc
// @Summary      Screen the universe against a moving average
// @Description  Filters active symbols by distance from the chosen weekly MA; omitted body fields take defaults
// @Tags         screener
// @Accept       json
// @Produce      json
// @Param        request  body  domain.ScreenerRequest  false  "Screen parameters"
// @Success      200  {object}  domain.ScreenerResponse
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/screener/screen [post]
func (h *Handler) RunScreener(c *gin.Context) {
	if h.screenerService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "screener service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-screener")
	defer span.End()

	// Binding over the defaulted struct keeps absent fields at their
	// defaults while explicit zero values still land.
	req := domain.DefaultScreenerRequest()
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	span.SetAttributes(
		attribute.String("ma_filter", string(req.MAFilter)),
		attribute.String("ma_type", string(req.MAType)),
	)

	resp, err := h.screenerService.Run(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
