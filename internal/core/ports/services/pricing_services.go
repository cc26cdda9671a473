package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/shopspring/decimal"
)

// PricingSvcFacade owns price plans and price computation.
type PricingSvcFacade interface {
	// CreatePlan persists a new price plan.
	CreatePlan(ctx context.Context, req dto.CreatePricePlanRequest, userID string) (*domain.PricePlan, error)

	// AddRule appends a rule to a plan. Unknown rule kinds and condition
	// operators are rejected here, never at evaluation time.
	AddRule(ctx context.Context, planID string, req dto.AddPriceRuleRequest, userID string) (*domain.PriceRule, error)

	// GetPlan retrieves a plan with its rules.
	GetPlan(ctx context.Context, planID string) (*domain.PricePlan, error)

	// DeactivatePlan marks a plan inactive.
	DeactivatePlan(ctx context.Context, planID string, userID string) error

	// ComputePrice evaluates a plan's rules for a quantity and context and
	// returns the final amount. Deterministic: identical plan snapshot and
	// context reproduce the same amount exactly.
	ComputePrice(ctx context.Context, planID string, quantity decimal.Decimal, context map[string]string) (decimal.Decimal, error)

	// PriceService resolves the active plan for a service type and computes
	// the unit line amount. Used by invoice creation.
	PriceService(ctx context.Context, serviceType, region string, quantity decimal.Decimal, context map[string]string) (unitPrice, amount decimal.Decimal, err error)
}
