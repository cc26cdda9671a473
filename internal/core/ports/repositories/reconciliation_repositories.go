package repositories

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
)

// ReconciliationReader defines read operations for reconciliations.
type ReconciliationReader interface {
	// FindReconciliationByPeriod retrieves the reconciliation for a period.
	FindReconciliationByPeriod(ctx context.Context, period domain.Period) (*domain.Reconciliation, error)
}

// ReconciliationWriter defines write operations for reconciliations.
type ReconciliationWriter interface {
	// SaveReconciliation persists a closed reconciliation. A unique index on
	// period surfaces a concurrent close as apperrors.ErrDuplicate.
	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error
}

// ReconciliationRepositoryFacade combines read and write operations.
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
