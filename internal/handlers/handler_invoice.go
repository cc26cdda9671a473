package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// invoiceHandler handles HTTP requests related to invoices.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

// newInvoiceHandler creates a new invoiceHandler.
func newInvoiceHandler(is portssvc.InvoiceSvcFacade) *invoiceHandler {
	return &invoiceHandler{
		invoiceService: is,
	}
}

// registerInvoiceRoutes registers routes related to invoices.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := newInvoiceHandler(invoiceService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("", h.listInvoices)
		invoices.GET("/:invoiceID", h.getInvoice)
		invoices.GET("/:invoiceID/overdue-total", h.overdueTotal)
		invoices.POST("/:invoiceID/discount", h.applyDiscount)
		invoices.POST("/:invoiceID/mark-paid", h.markPaid)
		invoices.POST("/:invoiceID/mark-overdue", h.markOverdue)
		invoices.POST("/:invoiceID/cancel", h.markCanceled)
	}
}

// createInvoice godoc
// @Summary Create an invoice
// @Description Prices the billable service lines and creates the invoice with its items
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input or no plan for a service type"
// @Router /invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create invoice")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice))
}

// listInvoices godoc
// @Summary List invoices
// @Description Retrieves invoices filtered by client and/or period, token paginated
// @Tags invoices
// @Produce  json
// @Param   clientID query string false "Client ID"
// @Param   period query string false "Billing period (YYYY-MM)"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListInvoicesResponse
// @Router /invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	params := dto.ListInvoicesParams{
		ClientID: c.Query("clientID"),
		Period:   c.Query("period"),
		Limit:    limit,
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getInvoice godoc
// @Summary Get an invoice
// @Description Retrieves an invoice with its items
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Router /invoices/{invoiceID} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

// overdueTotal godoc
// @Summary Get an overdue invoice's total with fees
// @Description Computes the total with accrued daily interest and the one-time penalty
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.OverdueTotalResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Router /invoices/{invoiceID}/overdue-total [get]
func (h *invoiceHandler) overdueTotal(c *gin.Context) {
	resp, err := h.invoiceService.OverdueTotal(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, err, "Failed to compute overdue total")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// applyDiscount godoc
// @Summary Apply a discount to an open invoice
// @Description Sets the discount and recalculates the total; large discounts require approval
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   discount body dto.ApplyDiscountRequest true "Discount details"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Discount exceeds item total"
// @Failure 409 {object} map[string]string "Invoice not open or approval pending"
// @Router /invoices/{invoiceID}/discount [post]
func (h *invoiceHandler) applyDiscount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplyDiscount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	invoice, err := h.invoiceService.ApplyDiscount(c.Request.Context(), c.Param("invoiceID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to apply discount")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

// markPaid godoc
// @Summary Mark an invoice paid
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 204 "Marked paid"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /invoices/{invoiceID}/mark-paid [post]
func (h *invoiceHandler) markPaid(c *gin.Context) {
	if err := h.invoiceService.MarkPaid(c.Request.Context(), c.Param("invoiceID"), actorID(c)); err != nil {
		respondError(c, err, "Failed to mark invoice paid")
		return
	}
	c.Status(http.StatusNoContent)
}

// markOverdue godoc
// @Summary Mark a past-due invoice overdue
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 204 "Marked overdue"
// @Failure 409 {object} map[string]string "Not past due or invalid transition"
// @Router /invoices/{invoiceID}/mark-overdue [post]
func (h *invoiceHandler) markOverdue(c *gin.Context) {
	if err := h.invoiceService.MarkOverdue(c.Request.Context(), c.Param("invoiceID"), actorID(c)); err != nil {
		respondError(c, err, "Failed to mark invoice overdue")
		return
	}
	c.Status(http.StatusNoContent)
}

// markCanceled godoc
// @Summary Cancel an invoice
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 204 "Canceled"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /invoices/{invoiceID}/cancel [post]
func (h *invoiceHandler) markCanceled(c *gin.Context) {
	if err := h.invoiceService.MarkCanceled(c.Request.Context(), c.Param("invoiceID"), actorID(c)); err != nil {
		respondError(c, err, "Failed to cancel invoice")
		return
	}
	c.Status(http.StatusNoContent)
}
