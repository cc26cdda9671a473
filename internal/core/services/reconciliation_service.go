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

var ErrPeriodClosed = errors.New("period already closed")

// defaultReconciliationEpsilon tolerates rounding noise in discrepancy checks.
var defaultReconciliationEpsilon = decimal.NewFromFloat(0.01)

// reconciliationService closes accounting periods. Totals are aggregated in
// the database; a closed period is immutable.
type reconciliationService struct {
	reconciliationRepo portsrepo.ReconciliationRepositoryFacade
	invoiceRepo        portsrepo.InvoiceRepositoryFacade
	paymentRepo        portsrepo.PaymentRepositoryFacade
	payoutRepo         portsrepo.PayoutRepositoryFacade
	settingsSvc        portssvc.SettingsSvcFacade
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	reconciliationRepo portsrepo.ReconciliationRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	payoutRepo portsrepo.PayoutRepositoryFacade,
	settingsSvc portssvc.SettingsSvcFacade,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reconciliationRepo: reconciliationRepo,
		invoiceRepo:        invoiceRepo,
		paymentRepo:        paymentRepo,
		payoutRepo:         payoutRepo,
		settingsSvc:        settingsSvc,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// ClosePeriod aggregates the period's totals and closes it once. The unique
// index on period makes a concurrent close lose cleanly.
func (s *reconciliationService) ClosePeriod(ctx context.Context, req dto.ClosePeriodRequest, userID string) (*domain.Reconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	existing, err := s.reconciliationRepo.FindReconciliationByPeriod(ctx, period)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up reconciliation for %s: %w", period, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s closed at %s", ErrPeriodClosed, period, existing.ClosedAt.Format(time.RFC3339))
	}

	totalInvoiced, err := s.invoiceRepo.SumInvoicedByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum invoiced for %s: %w", period, err)
	}
	totalReceived, err := s.paymentRepo.SumReceivedByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum received for %s: %w", period, err)
	}
	totalPayouts, err := s.payoutRepo.SumPayoutsByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payouts for %s: %w", period, err)
	}
	totalFees, err := s.payoutRepo.SumTransferFeesByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transfer fees for %s: %w", period, err)
	}

	now := time.Now().UTC()
	rec := domain.Reconciliation{
		ReconciliationID: uuid.NewString(),
		Period:           period,
		Status:           domain.ReconciliationClosed,
		TotalInvoiced:    totalInvoiced.Round(2),
		TotalReceived:    totalReceived.Round(2),
		TotalPayouts:     totalPayouts.Round(2),
		TotalFees:        totalFees.Round(2),
		ClosedBy:         &userID,
		ClosedAt:         &now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	rec.Balance = rec.TotalReceived.Sub(rec.TotalPayouts).Sub(rec.TotalFees)
	rec.Discrepancy = rec.TotalInvoiced.Sub(rec.TotalReceived)

	if err := s.reconciliationRepo.SaveReconciliation(ctx, rec); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s was closed concurrently", ErrPeriodClosed, period)
		}
		logger.Error("Failed to save reconciliation", slog.String("period", period.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save reconciliation for %s: %w", period, err)
	}

	epsilon, err := s.Epsilon(ctx)
	if err != nil {
		epsilon = defaultReconciliationEpsilon
	}
	logger.Info("Period closed",
		slog.String("period", period.String()),
		slog.String("invoiced", rec.TotalInvoiced.String()),
		slog.String("received", rec.TotalReceived.String()),
		slog.String("balance", rec.Balance.String()),
		slog.String("discrepancy", rec.Discrepancy.String()),
		slog.Bool("has_discrepancy", rec.HasDiscrepancy(epsilon)),
	)
	return &rec, nil
}

// GetByPeriod retrieves the reconciliation of a closed period.
func (s *reconciliationService) GetByPeriod(ctx context.Context, period domain.Period) (*domain.Reconciliation, error) {
	rec, err := s.reconciliationRepo.FindReconciliationByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to find reconciliation for %s: %w", period, err)
	}
	return rec, nil
}

// Epsilon exposes the configured discrepancy tolerance.
func (s *reconciliationService) Epsilon(ctx context.Context) (decimal.Decimal, error) {
	epsilon, err := s.settingsSvc.GetDecimal(ctx, domain.SettingReconciliationEpsilon, defaultReconciliationEpsilon)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load reconciliation epsilon: %w", err)
	}
	return epsilon, nil
}
