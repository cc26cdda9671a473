package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/services"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP status codes: validation and
// malformed-input sentinels to 400, missing entities to 404, state machine
// and concurrency losses to 409, rejections to 403, everything else to 500.
func respondError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, services.ErrUnknownRuleKind),
		errors.Is(err, services.ErrUnknownConditionOp),
		errors.Is(err, services.ErrQuantityOutOfBound),
		errors.Is(err, services.ErrPlanInactive),
		errors.Is(err, services.ErrNoPlanForService),
		errors.Is(err, services.ErrDiscountExceeds),
		errors.Is(err, services.ErrRefundExceeds):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrIdempotencyConflict),
		errors.Is(err, apperrors.ErrApprovalRequired),
		errors.Is(err, apperrors.ErrApprovalExpired),
		errors.Is(err, services.ErrInvoiceNotOverdue),
		errors.Is(err, services.ErrPaymentNotPending),
		errors.Is(err, services.ErrPaymentNotPaid),
		errors.Is(err, services.ErrPayoutNotOpen),
		errors.Is(err, services.ErrPayoutBelowMinimum),
		errors.Is(err, services.ErrNoCommissionableItems),
		errors.Is(err, services.ErrApprovalDecided),
		errors.Is(err, services.ErrPeriodClosed),
		errors.Is(err, services.ErrProvisionExists),
		errors.Is(err, services.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}

// actorID resolves the acting user for audit fields. The middleware guarantees
// a value; the fallback covers handlers mounted without it.
func actorID(c *gin.Context) string {
	actor, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		return "system"
	}
	return actor
}
