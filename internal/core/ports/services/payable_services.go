package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
)

// PayableSvcFacade owns outbound obligations.
type PayableSvcFacade interface {
	// CreatePayable persists a new payable in OPEN status.
	CreatePayable(ctx context.Context, req dto.CreatePayableRequest, userID string) (*domain.Payable, error)

	// GetPayable retrieves a payable by its ID.
	GetPayable(ctx context.Context, payableID string) (*domain.Payable, error)

	// Schedule transitions open → scheduled.
	Schedule(ctx context.Context, payableID string, req dto.SchedulePayableRequest, userID string) (*domain.Payable, error)

	// Pay settles a payable. Net amounts at or above the approval threshold
	// require a decided approval first.
	Pay(ctx context.Context, payableID string, userID string) (*domain.Payable, error)

	// Cancel transitions open/scheduled → canceled.
	Cancel(ctx context.Context, payableID string, userID string) (*domain.Payable, error)
}
