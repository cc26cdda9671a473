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
	ErrProvisionExists   = errors.New("provision already exists for period and type")
	ErrInsufficientFunds = errors.New("usage exceeds provision balance")
)

// provisionService owns accounting reserves. The bad-debt estimate is derived
// from overdue receivables; other types require an explicit amount.
type provisionService struct {
	provisionRepo portsrepo.ProvisionRepositoryFacade
	invoiceRepo   portsrepo.InvoiceRepositoryFacade
}

// NewProvisionService creates a new ProvisionService.
func NewProvisionService(provisionRepo portsrepo.ProvisionRepositoryFacade, invoiceRepo portsrepo.InvoiceRepositoryFacade) portssvc.ProvisionSvcFacade {
	return &provisionService{
		provisionRepo: provisionRepo,
		invoiceRepo:   invoiceRepo,
	}
}

var _ portssvc.ProvisionSvcFacade = (*provisionService)(nil)

// CreateProvision opens a provision for a period. Bad-debt provisions default
// their estimate to the current sum of overdue receivables when no amount is
// given; other types must carry one.
func (s *provisionService) CreateProvision(ctx context.Context, req dto.CreateProvisionRequest, userID string) (*domain.Provision, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	provType := domain.ProvisionType(req.Type)
	switch provType {
	case domain.ProvisionBadDebt, domain.ProvisionLabor, domain.ProvisionOther:
	default:
		return nil, fmt.Errorf("%w: unknown provision type %q", apperrors.ErrValidation, req.Type)
	}

	existing, err := s.provisionRepo.FindProvision(ctx, period, provType)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up provision: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s %s", ErrProvisionExists, period, provType)
	}

	var calculated decimal.Decimal
	switch {
	case req.Amount != nil:
		if req.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: provision amount must not be negative", apperrors.ErrValidation)
		}
		calculated = *req.Amount
	case provType == domain.ProvisionBadDebt:
		calculated, err = s.invoiceRepo.SumOverdueReceivables(ctx, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to estimate bad debt: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: amount is required for %s provisions", apperrors.ErrValidation, provType)
	}

	now := time.Now().UTC()
	provision := domain.Provision{
		ProvisionID:      uuid.NewString(),
		Period:           period,
		Type:             provType,
		CalculatedAmount: calculated.Round(2),
		UsedAmount:       decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.provisionRepo.SaveProvision(ctx, provision); err != nil {
		logger.Error("Failed to save provision", slog.String("period", period.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save provision: %w", err)
	}

	logger.Info("Provision created",
		slog.String("provision_id", provision.ProvisionID),
		slog.String("period", period.String()),
		slog.String("type", string(provType)),
		slog.String("amount", provision.CalculatedAmount.String()),
	)
	return &provision, nil
}

// GetProvision retrieves a provision by its ID.
func (s *provisionService) GetProvision(ctx context.Context, provisionID string) (*domain.Provision, error) {
	provision, err := s.provisionRepo.FindProvisionByID(ctx, provisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find provision %s: %w", provisionID, err)
	}
	return provision, nil
}

// Use consumes balance against realized losses. Usage above the current
// balance is rejected; the compare-and-set on the used amount keeps two
// concurrent uses from jointly overdrawing.
func (s *provisionService) Use(ctx context.Context, provisionID string, req dto.UseProvisionRequest, userID string) (*domain.Provision, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: usage amount must be positive", apperrors.ErrValidation)
	}

	provision, err := s.provisionRepo.FindProvisionByID(ctx, provisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find provision %s: %w", provisionID, err)
	}
	if req.Amount.GreaterThan(provision.Balance()) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInsufficientFunds, req.Amount, provision.Balance())
	}

	now := time.Now().UTC()
	newUsed := provision.UsedAmount.Add(req.Amount)
	if err := s.provisionRepo.UpdateProvisionUsage(ctx, provisionID, provision.UsedAmount, newUsed, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: provision %s was used concurrently", apperrors.ErrConflict, provisionID)
		}
		logger.Error("Failed to use provision", slog.String("provision_id", provisionID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to use provision %s: %w", provisionID, err)
	}

	provision.UsedAmount = newUsed
	provision.LastUpdatedAt = now
	provision.LastUpdatedBy = userID

	logger.Info("Provision used",
		slog.String("provision_id", provisionID),
		slog.String("amount", req.Amount.String()),
		slog.String("balance", provision.Balance().String()),
		slog.String("reason", req.Reason),
	)
	return provision, nil
}

// Adjust overrides the system estimate with a manual amount. The override
// takes precedence over any later re-estimation and records who set it.
func (s *provisionService) Adjust(ctx context.Context, provisionID string, req dto.AdjustProvisionRequest, userID string) (*domain.Provision, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: adjusted amount must not be negative", apperrors.ErrValidation)
	}

	provision, err := s.provisionRepo.FindProvisionByID(ctx, provisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find provision %s: %w", provisionID, err)
	}
	if req.Amount.LessThan(provision.UsedAmount) {
		return nil, fmt.Errorf("%w: adjusted amount below used amount %s", apperrors.ErrValidation, provision.UsedAmount)
	}

	now := time.Now().UTC()
	adjusted := req.Amount.Round(2)
	if err := s.provisionRepo.UpdateProvisionEstimate(ctx, provisionID, provision.CalculatedAmount, &adjusted, &userID, userID, now); err != nil {
		logger.Error("Failed to adjust provision", slog.String("provision_id", provisionID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to adjust provision %s: %w", provisionID, err)
	}

	provision.AdjustedAmount = &adjusted
	provision.AdjustedBy = &userID
	provision.LastUpdatedAt = now
	provision.LastUpdatedBy = userID

	logger.Info("Provision adjusted", slog.String("provision_id", provisionID), slog.String("amount", adjusted.String()))
	return provision, nil
}

// Reestimate recomputes the system estimate from current overdue receivables.
// A manual adjustment, when present, still takes precedence.
func (s *provisionService) Reestimate(ctx context.Context, provisionID string, userID string) (*domain.Provision, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	provision, err := s.provisionRepo.FindProvisionByID(ctx, provisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find provision %s: %w", provisionID, err)
	}
	if provision.Type != domain.ProvisionBadDebt {
		return nil, fmt.Errorf("%w: only %s provisions are re-estimated", apperrors.ErrValidation, domain.ProvisionBadDebt)
	}

	calculated, err := s.invoiceRepo.SumOverdueReceivables(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to re-estimate bad debt: %w", err)
	}

	now := time.Now().UTC()
	calculated = calculated.Round(2)
	if err := s.provisionRepo.UpdateProvisionEstimate(ctx, provisionID, calculated, provision.AdjustedAmount, provision.AdjustedBy, userID, now); err != nil {
		logger.Error("Failed to re-estimate provision", slog.String("provision_id", provisionID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to re-estimate provision %s: %w", provisionID, err)
	}

	provision.CalculatedAmount = calculated
	provision.LastUpdatedAt = now
	provision.LastUpdatedBy = userID

	logger.Info("Provision re-estimated", slog.String("provision_id", provisionID), slog.String("calculated", calculated.String()))
	return provision, nil
}
