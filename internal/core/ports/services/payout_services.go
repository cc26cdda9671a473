package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/shopspring/decimal"
)

// PayoutSvcFacade owns caregiver payout batching.
type PayoutSvcFacade interface {
	// BuildPayout aggregates the caregiver's unpaid-out commissionable items
	// up to the end of the period into an open payout, snapshotting each
	// item's commission percent. Rebuilding an existing open payout replaces
	// its items with the current set.
	BuildPayout(ctx context.Context, req dto.BuildPayoutRequest, userID string) (*domain.Payout, error)

	// GetPayout retrieves a payout with its items.
	GetPayout(ctx context.Context, payoutID string) (*domain.Payout, error)

	// MarkPaid disburses an eligible payout. Terminal. Payouts below the
	// minimum amount are rejected and stay open; net amounts at or above the
	// approval threshold require a decided approval first.
	MarkPaid(ctx context.Context, payoutID string, req dto.PayPayoutRequest, userID string) (*domain.Payout, error)

	// MarkCanceled cancels an open payout. Terminal, unreachable once paid.
	MarkCanceled(ctx context.Context, payoutID string, req dto.CancelPayoutRequest, userID string) (*domain.Payout, error)

	// MinimumPayoutAmount exposes the configured disbursement floor.
	MinimumPayoutAmount(ctx context.Context) (decimal.Decimal, error)
}
