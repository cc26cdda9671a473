package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice with its items.
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// ListInvoices retrieves invoices for a client and/or period using token
	// pagination ordered by creation time.
	ListInvoices(ctx context.Context, clientID string, period domain.Period, limit int, nextToken *string) ([]domain.Invoice, *string, error)

	// ListOverdueCandidates retrieves open invoices whose due date elapsed.
	ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]domain.Invoice, error)

	// SumInvoicedByPeriod totals non-canceled invoice amounts for a period.
	SumInvoicedByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error)

	// SumOverdueReceivables totals the outstanding amount of overdue invoices,
	// used by the bad-debt provision estimate.
	SumOverdueReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
}

// InvoiceWriter defines write operations for invoices.
type InvoiceWriter interface {
	// SaveInvoice persists the invoice and all its items atomically.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, items []domain.InvoiceItem) error

	// UpdateInvoiceTotals rewrites total and discount after item mutation.
	UpdateInvoiceTotals(ctx context.Context, invoiceID string, total, discount decimal.Decimal, userID string, now time.Time) error

	// UpdateInvoiceStatus transitions status with a compare-and-set on the
	// expected current status. Returns apperrors.ErrConflict when the
	// precondition no longer holds.
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, from, to domain.InvoiceStatus, paidAt *time.Time, userID string, now time.Time) error
}

// InvoiceRepositoryFacade combines read and write operations.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
