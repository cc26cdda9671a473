package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// reconciliationHandler handles HTTP requests related to period closes.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// newReconciliationHandler creates a new reconciliationHandler.
func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: rs,
	}
}

// registerReconciliationRoutes registers routes related to reconciliations.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	reconciliations := rg.Group("/reconciliations")
	{
		reconciliations.POST("", h.closePeriod)
		reconciliations.GET("/:period", h.getByPeriod)
	}
}

// epsilonOrZero fetches the discrepancy tolerance for response building. A
// read failure falls back to zero rather than failing the whole request.
func (h *reconciliationHandler) epsilonOrZero(c *gin.Context) decimal.Decimal {
	epsilon, err := h.reconciliationService.Epsilon(c.Request.Context())
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Warn("Failed to read reconciliation epsilon", slog.String("error", err.Error()))
		return decimal.Zero
	}
	return epsilon
}

// closePeriod godoc
// @Summary Close an accounting period
// @Description Aggregates the period's totals, computes balance and discrepancy, and closes the period once
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   close body dto.ClosePeriodRequest true "Period to close"
// @Success 201 {object} dto.ReconciliationResponse
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 409 {object} map[string]string "Period already closed"
// @Router /reconciliations [post]
func (h *reconciliationHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ClosePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reconciliation, err := h.reconciliationService.ClosePeriod(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to close period")
		return
	}
	c.JSON(http.StatusCreated, dto.ToReconciliationResponse(reconciliation, h.epsilonOrZero(c)))
}

// getByPeriod godoc
// @Summary Get a closed period's reconciliation
// @Tags reconciliations
// @Produce  json
// @Param   period path string true "Period (YYYY-MM)"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 404 {object} map[string]string "Period not closed"
// @Router /reconciliations/{period} [get]
func (h *reconciliationHandler) getByPeriod(c *gin.Context) {
	period, err := domain.ParsePeriod(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reconciliation, err := h.reconciliationService.GetByPeriod(c.Request.Context(), period)
	if err != nil {
		respondError(c, err, "Failed to retrieve reconciliation")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(reconciliation, h.epsilonOrZero(c)))
}
