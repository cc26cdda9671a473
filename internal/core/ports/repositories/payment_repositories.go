package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentReader defines read operations for payments.
type PaymentReader interface {
	// FindPaymentByID retrieves a payment by its ID.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentByIdempotencyKey retrieves a payment by its idempotency key.
	FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// ListPaymentsByInvoice retrieves all payment attempts for an invoice.
	ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error)

	// SumReceivedByPeriod totals settled payment amounts net of refunds for
	// invoices of the given billing period.
	SumReceivedByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error)
}

// PaymentWriter defines write operations for payments.
type PaymentWriter interface {
	// SavePayment persists a new payment. A unique index on the idempotency
	// key surfaces concurrent duplicate creation as apperrors.ErrDuplicate.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// UpdatePaymentStatus transitions status with a compare-and-set on the
	// expected current status, recording the gateway outcome fields.
	UpdatePaymentStatus(ctx context.Context, paymentID string, from, to domain.PaymentStatus, update domain.Payment, now time.Time) error

	// UpdatePaymentRefund accumulates a refund with a compare-and-set on the
	// previously refunded amount so concurrent refunds cannot both apply.
	UpdatePaymentRefund(ctx context.Context, paymentID string, expectedRefunded, newRefunded decimal.Decimal, status domain.PaymentStatus, reason string, userID string, now time.Time) error
}

// PaymentRepositoryFacade combines read and write operations.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
