package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// pricingHandler handles HTTP requests related to price plans and rules.
type pricingHandler struct {
	pricingService portssvc.PricingSvcFacade
}

// newPricingHandler creates a new pricingHandler.
func newPricingHandler(ps portssvc.PricingSvcFacade) *pricingHandler {
	return &pricingHandler{
		pricingService: ps,
	}
}

// registerPricingRoutes registers routes related to price plans.
func registerPricingRoutes(rg *gin.RouterGroup, pricingService portssvc.PricingSvcFacade) {
	h := newPricingHandler(pricingService)

	plans := rg.Group("/price-plans")
	{
		plans.POST("", h.createPlan)
		plans.GET("/:planID", h.getPlan)
		plans.POST("/:planID/rules", h.addRule)
		plans.POST("/:planID/compute", h.computePrice)
		plans.DELETE("/:planID", h.deactivatePlan)
	}
}

// createPlan godoc
// @Summary Create a price plan
// @Description Creates a new active price plan for a service type
// @Tags pricing
// @Accept  json
// @Produce  json
// @Param   plan body dto.CreatePricePlanRequest true "Plan details"
// @Success 201 {object} dto.PricePlanResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /price-plans [post]
func (h *pricingHandler) createPlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePricePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePlan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	plan, err := h.pricingService.CreatePlan(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create price plan")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPricePlanResponse(plan))
}

// getPlan godoc
// @Summary Get a price plan
// @Description Retrieves a plan with its rules ordered by priority
// @Tags pricing
// @Produce  json
// @Param   planID path string true "Plan ID"
// @Success 200 {object} dto.PricePlanResponse
// @Failure 404 {object} map[string]string "Plan not found"
// @Router /price-plans/{planID} [get]
func (h *pricingHandler) getPlan(c *gin.Context) {
	plan, err := h.pricingService.GetPlan(c.Request.Context(), c.Param("planID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve price plan")
		return
	}
	c.JSON(http.StatusOK, dto.ToPricePlanResponse(plan))
}

// addRule godoc
// @Summary Add a rule to a plan
// @Description Appends a conditional rule; unknown kinds and operators are rejected
// @Tags pricing
// @Accept  json
// @Produce  json
// @Param   planID path string true "Plan ID"
// @Param   rule body dto.AddPriceRuleRequest true "Rule details"
// @Success 201 {object} dto.PriceRuleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Plan not found"
// @Router /price-plans/{planID}/rules [post]
func (h *pricingHandler) addRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AddPriceRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddRule", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rule, err := h.pricingService.AddRule(c.Request.Context(), c.Param("planID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to add price rule")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPriceRuleResponse(rule))
}

// computePrice godoc
// @Summary Compute a price
// @Description Evaluates a plan's rules for a quantity and pricing context
// @Tags pricing
// @Accept  json
// @Produce  json
// @Param   planID path string true "Plan ID"
// @Param   input body dto.ComputePriceRequest true "Quantity and context"
// @Success 200 {object} dto.ComputePriceResponse
// @Failure 400 {object} map[string]string "Invalid input or quantity out of bounds"
// @Failure 404 {object} map[string]string "Plan not found"
// @Router /price-plans/{planID}/compute [post]
func (h *pricingHandler) computePrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ComputePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ComputePrice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	planID := c.Param("planID")
	amount, err := h.pricingService.ComputePrice(c.Request.Context(), planID, req.Quantity, req.Context)
	if err != nil {
		respondError(c, err, "Failed to compute price")
		return
	}
	c.JSON(http.StatusOK, dto.ComputePriceResponse{PlanID: planID, Quantity: req.Quantity, Amount: amount})
}

// deactivatePlan godoc
// @Summary Deactivate a price plan
// @Description Marks a plan inactive; plans are never physically deleted
// @Tags pricing
// @Produce  json
// @Param   planID path string true "Plan ID"
// @Success 204 "Deactivated"
// @Failure 404 {object} map[string]string "Plan not found"
// @Router /price-plans/{planID} [delete]
func (h *pricingHandler) deactivatePlan(c *gin.Context) {
	if err := h.pricingService.DeactivatePlan(c.Request.Context(), c.Param("planID"), actorID(c)); err != nil {
		respondError(c, err, "Failed to deactivate price plan")
		return
	}
	c.Status(http.StatusNoContent)
}
