package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
)

// ProvisionSvcFacade owns accounting provisions (bad debt and others).
type ProvisionSvcFacade interface {
	// CreateProvision opens a provision for a period. The bad-debt estimate
	// defaults to the sum of overdue receivables when no amount is given.
	CreateProvision(ctx context.Context, req dto.CreateProvisionRequest, userID string) (*domain.Provision, error)

	// GetProvision retrieves a provision by its ID.
	GetProvision(ctx context.Context, provisionID string) (*domain.Provision, error)

	// Use consumes balance against realized losses. Usage above the current
	// balance is rejected.
	Use(ctx context.Context, provisionID string, req dto.UseProvisionRequest, userID string) (*domain.Provision, error)

	// Adjust overrides the system estimate with a manual amount; the override
	// takes precedence and is independently audited.
	Adjust(ctx context.Context, provisionID string, req dto.AdjustProvisionRequest, userID string) (*domain.Provision, error)

	// Reestimate recomputes the system estimate from current overdue
	// receivables. A manual adjustment, when present, still takes precedence.
	Reestimate(ctx context.Context, provisionID string, userID string) (*domain.Provision, error)
}
