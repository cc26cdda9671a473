package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/shopspring/decimal"
)

// ReconciliationSvcFacade closes accounting periods.
type ReconciliationSvcFacade interface {
	// ClosePeriod aggregates invoiced, received, paid-out and fee totals for
	// the period, computes balance and discrepancy, and closes the period
	// once, immutably.
	ClosePeriod(ctx context.Context, req dto.ClosePeriodRequest, userID string) (*domain.Reconciliation, error)

	// GetByPeriod retrieves the reconciliation of a closed period.
	GetByPeriod(ctx context.Context, period domain.Period) (*domain.Reconciliation, error)

	// Epsilon exposes the configured discrepancy tolerance.
	Epsilon(ctx context.Context) (decimal.Decimal, error)
}
