package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
)

// PricePlanReader defines read operations for price plans and their rules.
type PricePlanReader interface {
	// FindPlanByID retrieves a plan with its rules ordered by priority.
	FindPlanByID(ctx context.Context, planID string) (*domain.PricePlan, error)

	// FindActivePlanForService retrieves the active plan for a service type,
	// preferring a region-scoped plan when region is non-empty.
	FindActivePlanForService(ctx context.Context, serviceType string, region string) (*domain.PricePlan, error)
}

// PricePlanWriter defines write operations for price plans and their rules.
type PricePlanWriter interface {
	// SavePlan persists a new plan.
	SavePlan(ctx context.Context, plan domain.PricePlan) error

	// SaveRule appends a rule to a plan. Rules are never mutated in place.
	SaveRule(ctx context.Context, rule domain.PriceRule) error

	// DeactivatePlan marks a plan inactive. Plans referenced by historical
	// invoices are deactivated, never deleted.
	DeactivatePlan(ctx context.Context, planID string, userID string, now time.Time) error
}

// PricePlanRepositoryFacade combines read and write operations.
type PricePlanRepositoryFacade interface {
	PricePlanReader
	PricePlanWriter
}
