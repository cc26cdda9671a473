package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ProvisionReader defines read operations for provisions.
type ProvisionReader interface {
	// FindProvisionByID retrieves a provision by its ID.
	FindProvisionByID(ctx context.Context, provisionID string) (*domain.Provision, error)

	// FindProvision retrieves the provision for a period and type, or
	// apperrors.ErrNotFound when none exists.
	FindProvision(ctx context.Context, period domain.Period, provType domain.ProvisionType) (*domain.Provision, error)
}

// ProvisionWriter defines write operations for provisions.
type ProvisionWriter interface {
	// SaveProvision persists a new provision.
	SaveProvision(ctx context.Context, provision domain.Provision) error

	// UpdateProvisionUsage accumulates usage with a compare-and-set on the
	// previously used amount so concurrent uses cannot both apply.
	UpdateProvisionUsage(ctx context.Context, provisionID string, expectedUsed, newUsed decimal.Decimal, userID string, now time.Time) error

	// UpdateProvisionEstimate rewrites the calculated amount (re-estimation)
	// or the manual adjustment, which takes precedence when present.
	UpdateProvisionEstimate(ctx context.Context, provisionID string, calculated decimal.Decimal, adjusted *decimal.Decimal, adjustedBy *string, userID string, now time.Time) error
}

// ProvisionRepositoryFacade combines read and write operations.
type ProvisionRepositoryFacade interface {
	ProvisionReader
	ProvisionWriter
}
