package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// payoutHandler handles HTTP requests related to caregiver payouts.
type payoutHandler struct {
	payoutService portssvc.PayoutSvcFacade
}

// newPayoutHandler creates a new payoutHandler.
func newPayoutHandler(ps portssvc.PayoutSvcFacade) *payoutHandler {
	return &payoutHandler{
		payoutService: ps,
	}
}

// registerPayoutRoutes registers routes related to payouts.
func registerPayoutRoutes(rg *gin.RouterGroup, payoutService portssvc.PayoutSvcFacade) {
	h := newPayoutHandler(payoutService)

	payouts := rg.Group("/payouts")
	{
		payouts.POST("", h.buildPayout)
		payouts.GET("/:payoutID", h.getPayout)
		payouts.POST("/:payoutID/pay", h.markPaid)
		payouts.POST("/:payoutID/cancel", h.markCanceled)
	}
}

// minimumOrZero fetches the disbursement floor for response building. A read
// failure falls back to zero rather than failing the whole request.
func (h *payoutHandler) minimumOrZero(c *gin.Context) decimal.Decimal {
	minimum, err := h.payoutService.MinimumPayoutAmount(c.Request.Context())
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Warn("Failed to read minimum payout amount", slog.String("error", err.Error()))
		return decimal.Zero
	}
	return minimum
}

// buildPayout godoc
// @Summary Build a caregiver's payout for a period
// @Description Aggregates unpaid-out commissionable items into an open payout; rebuilding an open payout replaces its items
// @Tags payouts
// @Accept  json
// @Produce  json
// @Param   payout body dto.BuildPayoutRequest true "Caregiver and period"
// @Success 201 {object} dto.PayoutResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "No commissionable items"
// @Router /payouts [post]
func (h *payoutHandler) buildPayout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BuildPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BuildPayout", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payout, err := h.payoutService.BuildPayout(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to build payout")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPayoutResponse(payout, h.minimumOrZero(c)))
}

// getPayout godoc
// @Summary Get a payout
// @Description Retrieves a payout with its items
// @Tags payouts
// @Produce  json
// @Param   payoutID path string true "Payout ID"
// @Success 200 {object} dto.PayoutResponse
// @Failure 404 {object} map[string]string "Payout not found"
// @Router /payouts/{payoutID} [get]
func (h *payoutHandler) getPayout(c *gin.Context) {
	payout, err := h.payoutService.GetPayout(c.Request.Context(), c.Param("payoutID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payout")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayoutResponse(payout, h.minimumOrZero(c)))
}

// markPaid godoc
// @Summary Disburse a payout
// @Description Marks an open payout paid; below-minimum payouts stay open, large ones require approval
// @Tags payouts
// @Accept  json
// @Produce  json
// @Param   payoutID path string true "Payout ID"
// @Param   pay body dto.PayPayoutRequest true "Transfer reference"
// @Success 200 {object} dto.PayoutResponse
// @Failure 409 {object} map[string]string "Payout not open, below minimum, or approval pending"
// @Router /payouts/{payoutID}/pay [post]
func (h *payoutHandler) markPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PayPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PayPayout", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payout, err := h.payoutService.MarkPaid(c.Request.Context(), c.Param("payoutID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to pay payout")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayoutResponse(payout, h.minimumOrZero(c)))
}

// markCanceled godoc
// @Summary Cancel an open payout
// @Tags payouts
// @Accept  json
// @Produce  json
// @Param   payoutID path string true "Payout ID"
// @Param   cancel body dto.CancelPayoutRequest true "Cancel reason"
// @Success 200 {object} dto.PayoutResponse
// @Failure 409 {object} map[string]string "Payout not open"
// @Router /payouts/{payoutID}/cancel [post]
func (h *payoutHandler) markCanceled(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CancelPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CancelPayout", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payout, err := h.payoutService.MarkCanceled(c.Request.Context(), c.Param("payoutID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to cancel payout")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayoutResponse(payout, h.minimumOrZero(c)))
}
