package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PayoutReader defines read operations for payouts.
type PayoutReader interface {
	// FindPayoutByID retrieves a payout with its items.
	FindPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error)

	// FindOpenPayout retrieves the open payout for a caregiver and period,
	// or apperrors.ErrNotFound when none exists.
	FindOpenPayout(ctx context.Context, caregiverID string, period domain.Period) (*domain.Payout, error)

	// ListPayoutsByCaregiver retrieves payouts for a caregiver, newest first.
	ListPayoutsByCaregiver(ctx context.Context, caregiverID string, limit int) ([]domain.Payout, error)

	// ListCommissionableItems retrieves paid, commissionable invoice items for
	// the caregiver with service dates up to the end of the period that are
	// not yet attached to a non-canceled payout. Earlier periods roll forward.
	ListCommissionableItems(ctx context.Context, caregiverID string, period domain.Period) ([]domain.InvoiceItem, error)

	// SumPayoutsByPeriod totals paid payout gross amounts for a period.
	SumPayoutsByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error)

	// SumTransferFeesByPeriod totals transfer fees of paid payouts for a period.
	SumTransferFeesByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error)
}

// PayoutWriter defines write operations for payouts.
type PayoutWriter interface {
	// SavePayout persists the payout and all its items atomically.
	SavePayout(ctx context.Context, payout domain.Payout, items []domain.PayoutItem) error

	// ReplacePayoutItems atomically rewrites an open payout's items and totals
	// when a rebuild picks up newly paid services.
	ReplacePayoutItems(ctx context.Context, payout domain.Payout, items []domain.PayoutItem) error

	// UpdatePayoutStatus transitions status with a compare-and-set on the
	// expected current status. Returns apperrors.ErrConflict when the
	// precondition no longer holds.
	UpdatePayoutStatus(ctx context.Context, payoutID string, from, to domain.PayoutStatus, transferRef, cancelReason *string, paidAt *time.Time, userID string, now time.Time) error
}

// PayoutRepositoryFacade combines read and write operations.
type PayoutRepositoryFacade interface {
	PayoutReader
	PayoutWriter
}
