package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApprovalSvcFacade gates monetary operations behind configurable thresholds.
type ApprovalSvcFacade interface {
	// Evaluate records an approval for the operation: AUTO_APPROVED below the
	// threshold (audit trail without blocking), PENDING at or above it.
	Evaluate(ctx context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, requesterID string) (*domain.Approval, error)

	// EnsureApproved is the gate called by the owning subsystem before
	// finalizing an operation. It evaluates on first sight and returns nil
	// when the operation may proceed, apperrors.ErrApprovalRequired while
	// pending, apperrors.ErrApprovalExpired when the pending approval
	// expired, and apperrors.ErrForbidden when rejected.
	EnsureApproved(ctx context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, requesterID string) error

	// Approve finalizes a pending approval. Decided approvals are immutable.
	Approve(ctx context.Context, approvalID string, deciderID, reason string) (*domain.Approval, error)

	// Reject finalizes a pending approval. Decided approvals are immutable.
	Reject(ctx context.Context, approvalID string, deciderID, reason string) (*domain.Approval, error)

	// GetApproval retrieves an approval by its ID.
	GetApproval(ctx context.Context, approvalID string) (*domain.Approval, error)

	// ListPending lists pending approvals, oldest first.
	ListPending(ctx context.Context, limit int) ([]domain.Approval, error)
}
