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
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// payableService owns outbound obligations to suppliers, caregivers and tax
// authorities.
type payableService struct {
	payableRepo portsrepo.PayableRepositoryFacade
	approvalSvc portssvc.ApprovalSvcFacade
}

// NewPayableService creates a new PayableService.
func NewPayableService(payableRepo portsrepo.PayableRepositoryFacade, approvalSvc portssvc.ApprovalSvcFacade) portssvc.PayableSvcFacade {
	return &payableService{
		payableRepo: payableRepo,
		approvalSvc: approvalSvc,
	}
}

var _ portssvc.PayableSvcFacade = (*payableService)(nil)

// CreatePayable persists a new payable in OPEN status.
func (s *payableService) CreatePayable(ctx context.Context, req dto.CreatePayableRequest, userID string) (*domain.Payable, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	beneficiaryType := domain.BeneficiaryType(req.BeneficiaryType)
	switch beneficiaryType {
	case domain.BeneficiarySupplier, domain.BeneficiaryCaregiver, domain.BeneficiaryTax, domain.BeneficiaryOther:
	default:
		return nil, fmt.Errorf("%w: unknown beneficiary type %q", apperrors.ErrValidation, req.BeneficiaryType)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payable amount must be positive", apperrors.ErrValidation)
	}
	if req.DiscountAmount.IsNegative() || req.InterestAmount.IsNegative() {
		return nil, fmt.Errorf("%w: discount and interest must not be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	payable := domain.Payable{
		PayableID:       uuid.NewString(),
		BeneficiaryType: beneficiaryType,
		BeneficiaryID:   req.BeneficiaryID,
		Description:     req.Description,
		Status:          domain.PayableOpen,
		Amount:          req.Amount,
		DiscountAmount:  req.DiscountAmount,
		InterestAmount:  req.InterestAmount,
		DueDate:         req.DueDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.payableRepo.SavePayable(ctx, payable); err != nil {
		logger.Error("Failed to save payable", slog.String("beneficiary_id", req.BeneficiaryID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save payable: %w", err)
	}

	logger.Info("Payable created",
		slog.String("payable_id", payable.PayableID),
		slog.String("beneficiary_type", string(beneficiaryType)),
		slog.String("net_amount", payable.NetAmount().String()),
	)
	return &payable, nil
}

// GetPayable retrieves a payable by its ID.
func (s *payableService) GetPayable(ctx context.Context, payableID string) (*domain.Payable, error) {
	payable, err := s.payableRepo.FindPayableByID(ctx, payableID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payable %s: %w", payableID, err)
	}
	return payable, nil
}

// Schedule transitions open → scheduled with a planned disbursement date.
func (s *payableService) Schedule(ctx context.Context, payableID string, req dto.SchedulePayableRequest, userID string) (*domain.Payable, error) {
	payable, err := s.payableRepo.FindPayableByID(ctx, payableID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payable %s: %w", payableID, err)
	}
	if !payable.Status.CanTransitionTo(domain.PayableScheduled) {
		return nil, fmt.Errorf("%w: payable is %s, cannot become %s", apperrors.ErrInvalidTransition, payable.Status, domain.PayableScheduled)
	}

	scheduledFor := req.ScheduledFor
	update := *payable
	update.ScheduledFor = &scheduledFor
	return s.transition(ctx, payable, domain.PayableScheduled, update, userID)
}

// Pay settles a payable in full. Disbursements crossing the approval threshold
// are held until decided.
func (s *payableService) Pay(ctx context.Context, payableID string, userID string) (*domain.Payable, error) {
	payable, err := s.payableRepo.FindPayableByID(ctx, payableID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payable %s: %w", payableID, err)
	}
	if !payable.Status.CanTransitionTo(domain.PayablePaid) {
		return nil, fmt.Errorf("%w: payable is %s, cannot become %s", apperrors.ErrInvalidTransition, payable.Status, domain.PayablePaid)
	}

	if err := s.approvalSvc.EnsureApproved(ctx, domain.OpPayable, payableID, payable.NetAmount(), userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := *payable
	update.PaidAmount = payable.NetAmount()
	update.PaidAt = &now
	return s.transition(ctx, payable, domain.PayablePaid, update, userID)
}

// Cancel transitions open/scheduled → canceled.
func (s *payableService) Cancel(ctx context.Context, payableID string, userID string) (*domain.Payable, error) {
	payable, err := s.payableRepo.FindPayableByID(ctx, payableID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payable %s: %w", payableID, err)
	}
	if !payable.Status.CanTransitionTo(domain.PayableCanceled) {
		return nil, fmt.Errorf("%w: payable is %s, cannot become %s", apperrors.ErrInvalidTransition, payable.Status, domain.PayableCanceled)
	}
	return s.transition(ctx, payable, domain.PayableCanceled, *payable, userID)
}

// transition applies the payable state machine with a compare-and-set on the
// current status.
func (s *payableService) transition(ctx context.Context, payable *domain.Payable, to domain.PayableStatus, update domain.Payable, userID string) (*domain.Payable, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	update.Status = to
	update.LastUpdatedAt = now
	update.LastUpdatedBy = userID

	if err := s.payableRepo.UpdatePayableStatus(ctx, payable.PayableID, payable.Status, to, update, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: payable %s changed concurrently", apperrors.ErrInvalidTransition, payable.PayableID)
		}
		logger.Error("Failed to update payable status", slog.String("payable_id", payable.PayableID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update payable %s: %w", payable.PayableID, err)
	}

	logger.Info("Payable status updated",
		slog.String("payable_id", payable.PayableID),
		slog.String("from", string(payable.Status)),
		slog.String("to", string(to)),
	)
	return &update, nil
}
