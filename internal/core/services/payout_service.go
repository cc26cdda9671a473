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

var (
	ErrNoCommissionableItems = errors.New("no commissionable items for caregiver in period")
	ErrPayoutBelowMinimum    = errors.New("payout total below minimum amount")
	ErrPayoutNotOpen         = errors.New("payout is not open")
)

// payoutService batches caregiver commissions into payouts and disburses
// eligible ones.
type payoutService struct {
	payoutRepo  portsrepo.PayoutRepositoryFacade
	settingsSvc portssvc.SettingsSvcFacade
	approvalSvc portssvc.ApprovalSvcFacade
	gateway     portssvc.PaymentGateway
	tasks       portssvc.TaskDispatcher
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(
	payoutRepo portsrepo.PayoutRepositoryFacade,
	settingsSvc portssvc.SettingsSvcFacade,
	approvalSvc portssvc.ApprovalSvcFacade,
	gateway portssvc.PaymentGateway,
	tasks portssvc.TaskDispatcher,
) portssvc.PayoutSvcFacade {
	return &payoutService{
		payoutRepo:  payoutRepo,
		settingsSvc: settingsSvc,
		approvalSvc: approvalSvc,
		gateway:     gateway,
		tasks:       tasks,
	}
}

var _ portssvc.PayoutSvcFacade = (*payoutService)(nil)

// BuildPayout aggregates the caregiver's unpaid-out commissionable items up to
// the end of the period into an open payout, snapshotting each item's
// commission percent at build time. Rebuilding replaces the open payout's
// items with the current set; items from earlier periods roll forward.
func (s *payoutService) BuildPayout(ctx context.Context, req dto.BuildPayoutRequest, userID string) (*domain.Payout, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	items, err := s.payoutRepo.ListCommissionableItems(ctx, req.CaregiverID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissionable items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: caregiver %s, period %s", ErrNoCommissionableItems, req.CaregiverID, period)
	}

	defaultPercent, err := s.settingsSvc.GetDecimal(ctx, domain.SettingDefaultCommissionPercent, decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("failed to load default commission percent: %w", err)
	}
	transferFee, err := s.settingsSvc.GetDecimal(ctx, domain.SettingTransferFee, decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer fee: %w", err)
	}

	existing, err := s.payoutRepo.FindOpenPayout(ctx, req.CaregiverID, period)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up open payout: %w", err)
	}

	now := time.Now().UTC()
	payoutID := uuid.NewString()
	if existing != nil {
		payoutID = existing.PayoutID
	}

	hundred := decimal.NewFromInt(100)
	totalAmount := decimal.Zero
	commissionTotal := decimal.Zero
	payoutItems := make([]domain.PayoutItem, len(items))
	for i, item := range items {
		percent, err := s.commissionPercentFor(ctx, item.ServiceType, defaultPercent)
		if err != nil {
			return nil, err
		}

		share := item.Amount.Mul(percent).Div(hundred)
		totalAmount = totalAmount.Add(item.Amount)
		commissionTotal = commissionTotal.Add(share)

		payoutItems[i] = domain.PayoutItem{
			PayoutItemID:      uuid.NewString(),
			PayoutID:          payoutID,
			InvoiceItemID:     item.ItemID,
			ServiceType:       item.ServiceType,
			Amount:            item.Amount,
			CommissionPercent: percent,
			NetAmount:         share.Round(2),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	payout := domain.Payout{
		PayoutID:        payoutID,
		CaregiverID:     req.CaregiverID,
		Period:          period,
		Status:          domain.PayoutOpen,
		TotalAmount:     totalAmount.Round(2),
		CommissionTotal: commissionTotal.Round(2),
		TransferFee:     transferFee,
		NetAmount:       totalAmount.Sub(transferFee).Round(2),
		Items:           payoutItems,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if existing != nil {
		payout.CreatedAt = existing.CreatedAt
		payout.CreatedBy = existing.CreatedBy
	}

	if existing != nil {
		err = s.payoutRepo.ReplacePayoutItems(ctx, payout, payoutItems)
	} else {
		err = s.payoutRepo.SavePayout(ctx, payout, payoutItems)
	}
	if err != nil {
		logger.Error("Failed to save payout", slog.String("caregiver_id", req.CaregiverID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save payout: %w", err)
	}

	logger.Info("Payout built",
		slog.String("payout_id", payoutID),
		slog.String("caregiver_id", req.CaregiverID),
		slog.String("period", period.String()),
		slog.Int("items", len(payoutItems)),
		slog.String("total", payout.TotalAmount.String()),
		slog.Bool("rebuilt", existing != nil),
	)
	return &payout, nil
}

// GetPayout retrieves a payout with its items.
func (s *payoutService) GetPayout(ctx context.Context, payoutID string) (*domain.Payout, error) {
	payout, err := s.payoutRepo.FindPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payout %s: %w", payoutID, err)
	}
	return payout, nil
}

// MarkPaid disburses an eligible payout. Payouts below the minimum are
// rejected and stay open for the next cycle; disbursements crossing the
// approval threshold are held until decided. Terminal.
func (s *payoutService) MarkPaid(ctx context.Context, payoutID string, req dto.PayPayoutRequest, userID string) (*domain.Payout, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	payout, err := s.payoutRepo.FindPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payout %s: %w", payoutID, err)
	}
	if payout.Status != domain.PayoutOpen {
		return nil, fmt.Errorf("%w: payout %s is %s", ErrPayoutNotOpen, payoutID, payout.Status)
	}

	minimum, err := s.MinimumPayoutAmount(ctx)
	if err != nil {
		return nil, err
	}
	if !payout.CanBeProcessed(minimum) {
		return nil, fmt.Errorf("%w: %s < %s, rolls forward", ErrPayoutBelowMinimum, payout.TotalAmount, minimum)
	}

	if err := s.approvalSvc.EnsureApproved(ctx, domain.OpPayout, payoutID, payout.NetAmount, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transferRef := req.TransferRef
	if err := s.payoutRepo.UpdatePayoutStatus(ctx, payoutID, domain.PayoutOpen, domain.PayoutPaid, &transferRef, nil, &now, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: payout %s changed concurrently", apperrors.ErrInvalidTransition, payoutID)
		}
		logger.Error("Failed to mark payout paid", slog.String("payout_id", payoutID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to mark payout %s paid: %w", payoutID, err)
	}

	payout.Status = domain.PayoutPaid
	payout.TransferRef = &transferRef
	payout.PaidAt = &now
	payout.LastUpdatedAt = now
	payout.LastUpdatedBy = userID

	s.tasks.Dispatch("gateway-transfer", func(taskCtx context.Context) {
		if err := s.gateway.InitiateTransfer(taskCtx, payoutID, payout.NetAmount.String(), payout.CaregiverID); err != nil {
			middleware.GetLoggerFromCtx(taskCtx).Error("Gateway transfer initiation failed",
				slog.String("payout_id", payoutID), slog.String("error", err.Error()))
		}
	})

	logger.Info("Payout paid",
		slog.String("payout_id", payoutID),
		slog.String("net_amount", payout.NetAmount.String()),
		slog.String("transfer_ref", transferRef),
	)
	return payout, nil
}

// MarkCanceled cancels an open payout; its items become eligible for a future
// rebuild. Terminal, unreachable once paid.
func (s *payoutService) MarkCanceled(ctx context.Context, payoutID string, req dto.CancelPayoutRequest, userID string) (*domain.Payout, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	payout, err := s.payoutRepo.FindPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payout %s: %w", payoutID, err)
	}
	if payout.Status != domain.PayoutOpen {
		return nil, fmt.Errorf("%w: payout %s is %s", ErrPayoutNotOpen, payoutID, payout.Status)
	}

	now := time.Now().UTC()
	reason := req.Reason
	if err := s.payoutRepo.UpdatePayoutStatus(ctx, payoutID, domain.PayoutOpen, domain.PayoutCanceled, nil, &reason, nil, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: payout %s changed concurrently", apperrors.ErrInvalidTransition, payoutID)
		}
		logger.Error("Failed to cancel payout", slog.String("payout_id", payoutID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to cancel payout %s: %w", payoutID, err)
	}

	payout.Status = domain.PayoutCanceled
	payout.CancelReason = &reason
	payout.LastUpdatedAt = now
	payout.LastUpdatedBy = userID

	logger.Info("Payout canceled", slog.String("payout_id", payoutID), slog.String("reason", reason))
	return payout, nil
}

// MinimumPayoutAmount exposes the configured disbursement floor.
func (s *payoutService) MinimumPayoutAmount(ctx context.Context) (decimal.Decimal, error) {
	minimum, err := s.settingsSvc.GetDecimal(ctx, domain.SettingMinimumPayoutAmount, decimal.Zero)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load minimum payout amount: %w", err)
	}
	return minimum, nil
}

// commissionPercentFor resolves the commission percent for a service type,
// preferring the per-type override over the global default.
func (s *payoutService) commissionPercentFor(ctx context.Context, serviceType string, fallback decimal.Decimal) (decimal.Decimal, error) {
	percent, err := s.settingsSvc.GetDecimal(ctx, domain.CommissionPercentKey(serviceType), fallback)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load commission percent for %s: %w", serviceType, err)
	}
	return percent, nil
}
