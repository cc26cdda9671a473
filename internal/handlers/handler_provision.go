package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// provisionHandler handles HTTP requests related to accounting provisions.
type provisionHandler struct {
	provisionService portssvc.ProvisionSvcFacade
}

// newProvisionHandler creates a new provisionHandler.
func newProvisionHandler(ps portssvc.ProvisionSvcFacade) *provisionHandler {
	return &provisionHandler{
		provisionService: ps,
	}
}

// registerProvisionRoutes registers routes related to provisions.
func registerProvisionRoutes(rg *gin.RouterGroup, provisionService portssvc.ProvisionSvcFacade) {
	h := newProvisionHandler(provisionService)

	provisions := rg.Group("/provisions")
	{
		provisions.POST("", h.createProvision)
		provisions.GET("/:provisionID", h.getProvision)
		provisions.POST("/:provisionID/use", h.useProvision)
		provisions.POST("/:provisionID/adjust", h.adjustProvision)
		provisions.POST("/:provisionID/reestimate", h.reestimateProvision)
	}
}

// createProvision godoc
// @Summary Open a provision for a period
// @Description Creates a provision; the bad-debt estimate defaults to overdue receivables when no amount is given
// @Tags provisions
// @Accept  json
// @Produce  json
// @Param   provision body dto.CreateProvisionRequest true "Provision details"
// @Success 201 {object} dto.ProvisionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Provision already exists for period and type"
// @Router /provisions [post]
func (h *provisionHandler) createProvision(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateProvision", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	provision, err := h.provisionService.CreateProvision(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create provision")
		return
	}
	c.JSON(http.StatusCreated, dto.ToProvisionResponse(provision))
}

// getProvision godoc
// @Summary Get a provision
// @Tags provisions
// @Produce  json
// @Param   provisionID path string true "Provision ID"
// @Success 200 {object} dto.ProvisionResponse
// @Failure 404 {object} map[string]string "Provision not found"
// @Router /provisions/{provisionID} [get]
func (h *provisionHandler) getProvision(c *gin.Context) {
	provision, err := h.provisionService.GetProvision(c.Request.Context(), c.Param("provisionID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve provision")
		return
	}
	c.JSON(http.StatusOK, dto.ToProvisionResponse(provision))
}

// useProvision godoc
// @Summary Consume provision balance
// @Description Uses balance against realized losses; usage above the balance is rejected
// @Tags provisions
// @Accept  json
// @Produce  json
// @Param   provisionID path string true "Provision ID"
// @Param   usage body dto.UseProvisionRequest true "Usage details"
// @Success 200 {object} dto.ProvisionResponse
// @Failure 409 {object} map[string]string "Insufficient balance or concurrent usage"
// @Router /provisions/{provisionID}/use [post]
func (h *provisionHandler) useProvision(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UseProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UseProvision", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	provision, err := h.provisionService.Use(c.Request.Context(), c.Param("provisionID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to use provision")
		return
	}
	c.JSON(http.StatusOK, dto.ToProvisionResponse(provision))
}

// adjustProvision godoc
// @Summary Manually override the estimate
// @Description Sets a manual amount that takes precedence over the system estimate
// @Tags provisions
// @Accept  json
// @Produce  json
// @Param   provisionID path string true "Provision ID"
// @Param   adjustment body dto.AdjustProvisionRequest true "Adjustment details"
// @Success 200 {object} dto.ProvisionResponse
// @Failure 400 {object} map[string]string "Adjustment below used amount"
// @Router /provisions/{provisionID}/adjust [post]
func (h *provisionHandler) adjustProvision(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AdjustProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AdjustProvision", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	provision, err := h.provisionService.Adjust(c.Request.Context(), c.Param("provisionID"), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to adjust provision")
		return
	}
	c.JSON(http.StatusOK, dto.ToProvisionResponse(provision))
}

// reestimateProvision godoc
// @Summary Recompute the bad-debt estimate
// @Description Recomputes the system estimate from current overdue receivables
// @Tags provisions
// @Produce  json
// @Param   provisionID path string true "Provision ID"
// @Success 200 {object} dto.ProvisionResponse
// @Failure 400 {object} map[string]string "Not a bad-debt provision"
// @Router /provisions/{provisionID}/reestimate [post]
func (h *provisionHandler) reestimateProvision(c *gin.Context) {
	provision, err := h.provisionService.Reestimate(c.Request.Context(), c.Param("provisionID"), actorID(c))
	if err != nil {
		respondError(c, err, "Failed to reestimate provision")
		return
	}
	c.JSON(http.StatusOK, dto.ToProvisionResponse(provision))
}
