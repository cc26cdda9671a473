package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// payableHandler handles HTTP requests related to outbound obligations.
type payableHandler struct {
	payableService portssvc.PayableSvcFacade
}

// newPayableHandler creates a new payableHandler.
func newPayableHandler(ps portssvc.PayableSvcFacade) *payableHandler {
	return &payableHandler{
		payableService: ps,
	}
}

// registerPayableRoutes registers routes related to payables.
func registerPayableRoutes(rg *gin.RouterGroup, payableService portssvc.PayableSvcFacade) {
	h := newPayableHandler(payableService)

	payables := rg.Group("/payables")
	{
		payables.POST("", h.createPayable)
		payables.GET("/:payableID", h.getPayable)
		payables.POST("/:payableID/schedule", h.schedule)
		payables.POST("/:payableID/pay", h.pay)
		payables.POST("/:payableID/cancel", h.cancel)
	}
}

// createPayable godoc
// @Summary Create a payable
// @Description Registers an outbound obligation in open status
// @Tags payables
// @Accept  json
// @Produce  json
// @Param   payable body dto.CreatePayableRequest true "Payable details"
// @Success 201 {object} dto.PayableResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /payables [post]
func (h *payableHandler) createPayable(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePayable", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payable, err := h.payableService.CreatePayable(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create payable")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPayableResponse(payable))
}

// getPayable godoc
// @Summary Get a payable
// @Tags payables
// @Produce  json
// @Param   payableID path string true "Payable ID"
// @Success 200 {object} dto.PayableResponse
// @Failure 404 {object} map[string]string "Payable not found"
// @Router /payables/{payableID} [get]
func (h *payableHandler) getPayable(c *gin.Context) {
	payable, err := h.payableService.GetPayable(c.Request.Context(), c.Param("payableID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payable")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayableResponse(payable))
}

// schedule godoc
// @Summary Schedule a payable
// @Description Transitions an open payable to scheduled for a disbursement date
// @Tags payables
// @Accept  json
// @Produce  json
// @Param   payableID path string true "Payable ID"
// @Param   schedule body dto.SchedulePayableRequest true "Scheduling details"
// @Success 200 {object} dto.PayableResponse
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /payables/{payableID}/schedule [post]
func (h *payableHandler) schedule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SchedulePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SchedulePayable", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payable, err := h.payableService.Schedule(c.Request.Context(), c.Param("payableID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to schedule payable")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayableResponse(payable))
}

// pay godoc
// @Summary Settle a payable
// @Description Pays the net amount; large net amounts require approval
// @Tags payables
// @Produce  json
// @Param   payableID path string true "Payable ID"
// @Success 200 {object} dto.PayableResponse
// @Failure 409 {object} map[string]string "Invalid transition or approval pending"
// @Router /payables/{payableID}/pay [post]
func (h *payableHandler) pay(c *gin.Context) {
	payable, err := h.payableService.Pay(c.Request.Context(), c.Param("payableID"), actorID(c))
	if err != nil {
		respondError(c, err, "Failed to pay payable")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayableResponse(payable))
}

// cancel godoc
// @Summary Cancel a payable
// @Tags payables
// @Produce  json
// @Param   payableID path string true "Payable ID"
// @Success 200 {object} dto.PayableResponse
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /payables/{payableID}/cancel [post]
func (h *payableHandler) cancel(c *gin.Context) {
	payable, err := h.payableService.Cancel(c.Request.Context(), c.Param("payableID"), actorID(c))
	if err != nil {
		respondError(c, err, "Failed to cancel payable")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayableResponse(payable))
}
