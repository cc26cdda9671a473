package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

var ErrApprovalDecided = errors.New("approval already decided")

// defaultApprovalExpiryHours applies when no pending expiry is configured.
const defaultApprovalExpiryHours = 72

// approvalService gates monetary operations behind per-operation-type
// thresholds. An unconfigured threshold gates everything: the safe default is
// to hold, not to wave through.
type approvalService struct {
	approvalRepo portsrepo.ApprovalRepositoryFacade
	settingsSvc  portssvc.SettingsSvcFacade
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(approvalRepo portsrepo.ApprovalRepositoryFacade, settingsSvc portssvc.SettingsSvcFacade) portssvc.ApprovalSvcFacade {
	return &approvalService{
		approvalRepo: approvalRepo,
		settingsSvc:  settingsSvc,
	}
}

var _ portssvc.ApprovalSvcFacade = (*approvalService)(nil)

// Evaluate records an approval for the operation: AUTO_APPROVED strictly below
// the threshold, PENDING at or above it. Equality blocks.
func (s *approvalService) Evaluate(ctx context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, requesterID string) (*domain.Approval, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !domain.ValidOperationType(opType) {
		return nil, fmt.Errorf("%w: unknown operation type %q", apperrors.ErrValidation, opType)
	}
	if referenceID == "" {
		return nil, fmt.Errorf("%w: reference ID is required", apperrors.ErrValidation)
	}

	threshold, err := s.settingsSvc.GetDecimal(ctx, domain.ApprovalThresholdKey(opType), decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval threshold for %s: %w", opType, err)
	}

	now := time.Now().UTC()
	approval := domain.Approval{
		ApprovalID:    uuid.NewString(),
		OperationType: opType,
		ReferenceID:   referenceID,
		Amount:        amount,
		Threshold:     threshold,
		RequestedBy:   requesterID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: requesterID,
		},
	}

	if amount.LessThan(threshold) {
		approval.Status = domain.ApprovalAutoApproved
		decidedAt := now
		approval.DecidedAt = &decidedAt
	} else {
		approval.Status = domain.ApprovalPending
		expiresAt := now.Add(time.Duration(s.pendingExpiryHours(ctx)) * time.Hour)
		approval.ExpiresAt = &expiresAt
	}

	if err := s.approvalRepo.SaveApproval(ctx, approval); err != nil {
		logger.Error("Failed to save approval", slog.String("operation_type", string(opType)), slog.String("reference_id", referenceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}

	logger.Info("Approval evaluated",
		slog.String("approval_id", approval.ApprovalID),
		slog.String("operation_type", string(opType)),
		slog.String("reference_id", referenceID),
		slog.String("amount", amount.String()),
		slog.String("status", string(approval.Status)),
	)
	return &approval, nil
}

// EnsureApproved is the gate the owning subsystems call before finalizing a
// gated operation. First sight evaluates; thereafter the latest approval row
// for the reference decides. A decided approval covering a different amount
// is stale and triggers re-evaluation, as does a pending hold that expired
// undecided.
func (s *approvalService) EnsureApproved(ctx context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, requesterID string) error {
	latest, err := s.approvalRepo.FindLatestApprovalByReference(ctx, opType, referenceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.evaluateGate(ctx, opType, referenceID, amount, requesterID)
		}
		return fmt.Errorf("failed to load approval for %s %s: %w", opType, referenceID, err)
	}

	now := time.Now().UTC()
	switch latest.Status {
	case domain.ApprovalPending:
		if latest.IsExpired(now) {
			// The hold lapsed without a decision. The expired row stays as
			// audit trail; the attempt is gated afresh.
			return s.evaluateGate(ctx, opType, referenceID, amount, requesterID)
		}
		return fmt.Errorf("%w: approval %s is pending", apperrors.ErrApprovalRequired, latest.ApprovalID)
	case domain.ApprovalRejected:
		return fmt.Errorf("%w: approval %s was rejected", apperrors.ErrForbidden, latest.ApprovalID)
	case domain.ApprovalApproved, domain.ApprovalAutoApproved:
		if !latest.Amount.Equal(amount) {
			// The decision covered a different amount; re-gate the new one.
			return s.evaluateGate(ctx, opType, referenceID, amount, requesterID)
		}
		return nil
	default:
		return fmt.Errorf("%w: approval %s has unknown status %q", apperrors.ErrInternal, latest.ApprovalID, latest.Status)
	}
}

func (s *approvalService) evaluateGate(ctx context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, requesterID string) error {
	approval, err := s.Evaluate(ctx, opType, referenceID, amount, requesterID)
	if err != nil {
		return err
	}
	if approval.Status == domain.ApprovalAutoApproved {
		return nil
	}
	return fmt.Errorf("%w: approval %s is pending", apperrors.ErrApprovalRequired, approval.ApprovalID)
}

// Approve finalizes a pending approval.
func (s *approvalService) Approve(ctx context.Context, approvalID string, deciderID, reason string) (*domain.Approval, error) {
	return s.decide(ctx, approvalID, domain.ApprovalApproved, deciderID, reason)
}

// Reject finalizes a pending approval.
func (s *approvalService) Reject(ctx context.Context, approvalID string, deciderID, reason string) (*domain.Approval, error) {
	return s.decide(ctx, approvalID, domain.ApprovalRejected, deciderID, reason)
}

// decide applies the decision with a compare-and-set on PENDING so two
// concurrent deciders cannot both win.
func (s *approvalService) decide(ctx context.Context, approvalID string, to domain.ApprovalStatus, deciderID, reason string) (*domain.Approval, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	approval, err := s.approvalRepo.FindApprovalByID(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approval %s: %w", approvalID, err)
	}

	now := time.Now().UTC()
	if approval.IsDecided() {
		return nil, fmt.Errorf("%w: approval %s is %s", ErrApprovalDecided, approvalID, approval.Status)
	}
	if approval.IsExpired(now) {
		return nil, fmt.Errorf("%w: approval %s expired at %s", apperrors.ErrApprovalExpired, approvalID, approval.ExpiresAt.Format(time.RFC3339))
	}

	if err := s.approvalRepo.DecideApproval(ctx, approvalID, to, deciderID, reason, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: approval %s was decided concurrently", ErrApprovalDecided, approvalID)
		}
		logger.Error("Failed to decide approval", slog.String("approval_id", approvalID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to decide approval %s: %w", approvalID, err)
	}

	approval.Status = to
	approval.DecidedBy = &deciderID
	approval.DecidedAt = &now
	if reason != "" {
		approval.DecisionReason = &reason
	}
	approval.LastUpdatedAt = now
	approval.LastUpdatedBy = deciderID

	logger.Info("Approval decided",
		slog.String("approval_id", approvalID),
		slog.String("status", string(to)),
		slog.String("decided_by", deciderID),
	)
	return approval, nil
}

// GetApproval retrieves an approval by its ID.
func (s *approvalService) GetApproval(ctx context.Context, approvalID string) (*domain.Approval, error) {
	approval, err := s.approvalRepo.FindApprovalByID(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approval %s: %w", approvalID, err)
	}
	return approval, nil
}

// ListPending lists pending approvals, oldest first.
func (s *approvalService) ListPending(ctx context.Context, limit int) ([]domain.Approval, error) {
	if limit <= 0 {
		limit = 20
	}
	approvals, err := s.approvalRepo.ListPendingApprovals(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return approvals, nil
}

func (s *approvalService) pendingExpiryHours(ctx context.Context) int {
	hours, err := s.settingsSvc.GetDecimal(ctx, domain.SettingApprovalExpiryHours, decimal.NewFromInt(defaultApprovalExpiryHours))
	if err != nil || hours.LessThanOrEqual(decimal.Zero) {
		return defaultApprovalExpiryHours
	}
	return int(hours.IntPart())
}
