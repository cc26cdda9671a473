package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
)

// ApprovalReader defines read operations for approvals.
type ApprovalReader interface {
	// FindApprovalByID retrieves an approval by its ID.
	FindApprovalByID(ctx context.Context, approvalID string) (*domain.Approval, error)

	// FindLatestApprovalByReference retrieves the most recent approval row for
	// a gated operation, or apperrors.ErrNotFound when none exists.
	FindLatestApprovalByReference(ctx context.Context, opType domain.OperationType, referenceID string) (*domain.Approval, error)

	// ListPendingApprovals retrieves pending approvals, oldest first.
	ListPendingApprovals(ctx context.Context, limit int) ([]domain.Approval, error)
}

// ApprovalWriter defines write operations for approvals.
type ApprovalWriter interface {
	// SaveApproval persists a new approval row.
	SaveApproval(ctx context.Context, approval domain.Approval) error

	// DecideApproval finalizes a pending approval with a compare-and-set on
	// PENDING status. Returns apperrors.ErrConflict when already decided.
	DecideApproval(ctx context.Context, approvalID string, to domain.ApprovalStatus, deciderID, reason string, decidedAt time.Time) error
}

// ApprovalRepositoryFacade combines read and write operations.
type ApprovalRepositoryFacade interface {
	ApprovalReader
	ApprovalWriter
}
