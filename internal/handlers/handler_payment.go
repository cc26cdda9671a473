package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests related to payments and the gateway
// callback.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// newPaymentHandler creates a new paymentHandler.
func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{
		paymentService: ps,
	}
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("/:paymentID", h.getPayment)
		payments.POST("/:paymentID/refund", h.requestRefund)
	}
}

// registerGatewayCallbackRoute mounts the provider callback. It is registered
// separately so the route can carry its own rate limiter.
func registerGatewayCallbackRoute(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade, mw ...gin.HandlerFunc) {
	h := newPaymentHandler(paymentService)
	handlers := append(mw, h.gatewayCallback)
	rg.POST("/gateway/callback", handlers...)
}

// createPayment godoc
// @Summary Create a payment attempt
// @Description Creates a pending payment; replaying an idempotency key with the same amount returns the existing payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Idempotency conflict or invoice not payable"
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create payment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Payment not found"
// @Router /payments/{paymentID} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// requestRefund godoc
// @Summary Refund a paid payment
// @Description Refunds part or all of a paid payment; large refunds require approval
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Param   refund body dto.RefundPaymentRequest true "Refund details"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Refund exceeds refundable amount"
// @Failure 409 {object} map[string]string "Payment not paid or approval pending"
// @Router /payments/{paymentID}/refund [post]
func (h *paymentHandler) requestRefund(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RequestRefund", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payment, err := h.paymentService.RequestRefund(c.Request.Context(), c.Param("paymentID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to refund payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// gatewayCallback godoc
// @Summary Apply an asynchronous gateway result
// @Description Maps the provider callback onto the payment state machine; replayed callbacks are acknowledged without effect
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   callback body dto.GatewayCallbackRequest true "Provider callback"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Unknown external reference"
// @Failure 409 {object} map[string]string "Outcome conflicts with payment state"
// @Router /gateway/callback [post]
func (h *paymentHandler) gatewayCallback(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.GatewayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for GatewayCallback", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	payment, err := h.paymentService.ApplyGatewayResult(c.Request.Context(), req, "gateway")
	if err != nil {
		respondError(c, err, "Failed to apply gateway result")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}
