package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// approvalHandler handles HTTP requests related to approvals.
type approvalHandler struct {
	approvalService portssvc.ApprovalSvcFacade
}

// newApprovalHandler creates a new approvalHandler.
func newApprovalHandler(as portssvc.ApprovalSvcFacade) *approvalHandler {
	return &approvalHandler{
		approvalService: as,
	}
}

// registerApprovalRoutes registers routes related to approvals.
func registerApprovalRoutes(rg *gin.RouterGroup, approvalService portssvc.ApprovalSvcFacade) {
	h := newApprovalHandler(approvalService)

	approvals := rg.Group("/approvals")
	{
		approvals.GET("", h.listPending)
		approvals.GET("/:approvalID", h.getApproval)
		approvals.POST("/:approvalID/approve", h.approve)
		approvals.POST("/:approvalID/reject", h.reject)
	}
}

// listPending godoc
// @Summary List pending approvals
// @Description Retrieves pending approvals, oldest first
// @Tags approvals
// @Produce  json
// @Param   limit query int false "Page size" default(50)
// @Success 200 {array} dto.ApprovalResponse
// @Router /approvals [get]
func (h *approvalHandler) listPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	approvals, err := h.approvalService.ListPending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "Failed to list pending approvals")
		return
	}

	now := time.Now().UTC()
	resp := make([]dto.ApprovalResponse, len(approvals))
	for i := range approvals {
		resp[i] = dto.ToApprovalResponse(&approvals[i], now)
	}
	c.JSON(http.StatusOK, resp)
}

// getApproval godoc
// @Summary Get an approval
// @Tags approvals
// @Produce  json
// @Param   approvalID path string true "Approval ID"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 404 {object} map[string]string "Approval not found"
// @Router /approvals/{approvalID} [get]
func (h *approvalHandler) getApproval(c *gin.Context) {
	approval, err := h.approvalService.GetApproval(c.Request.Context(), c.Param("approvalID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve approval")
		return
	}
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval, time.Now().UTC()))
}

// approve godoc
// @Summary Approve a pending approval
// @Description Finalizes a pending approval; decided approvals are immutable
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   approvalID path string true "Approval ID"
// @Param   decision body dto.ApprovalDecisionRequest true "Decision reason"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 409 {object} map[string]string "Already decided or expired"
// @Router /approvals/{approvalID}/approve [post]
func (h *approvalHandler) approve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Approve", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	approval, err := h.approvalService.Approve(c.Request.Context(), c.Param("approvalID"), actorID(c), req.Reason)
	if err != nil {
		respondError(c, err, "Failed to approve")
		return
	}
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval, time.Now().UTC()))
}

// reject godoc
// @Summary Reject a pending approval
// @Description Finalizes a pending approval; decided approvals are immutable
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   approvalID path string true "Approval ID"
// @Param   decision body dto.ApprovalDecisionRequest true "Decision reason"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 409 {object} map[string]string "Already decided or expired"
// @Router /approvals/{approvalID}/reject [post]
func (h *approvalHandler) reject(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Reject", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	approval, err := h.approvalService.Reject(c.Request.Context(), c.Param("approvalID"), actorID(c), req.Reason)
	if err != nil {
		respondError(c, err, "Failed to reject")
		return
	}
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval, time.Now().UTC()))
}
