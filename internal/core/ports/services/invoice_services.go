package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
)

// InvoiceSvcFacade owns the invoice lifecycle.
type InvoiceSvcFacade interface {
	// CreateInvoice prices the billable service lines through the price
	// engine and persists the invoice with its items atomically.
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error)

	// GetInvoice retrieves an invoice with its items.
	GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// ListInvoices retrieves invoices by client and/or period.
	ListInvoices(ctx context.Context, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error)

	// ApplyDiscount sets a discount on an open invoice and recalculates the
	// total. Discounts at or above the approval threshold require a decided
	// approval first.
	ApplyDiscount(ctx context.Context, invoiceID string, req dto.ApplyDiscountRequest, userID string) (*domain.Invoice, error)

	// MarkPaid transitions open/overdue → paid. Called by the payment
	// processor when a payment settles.
	MarkPaid(ctx context.Context, invoiceID string, userID string) error

	// MarkOverdue transitions open → overdue for a past-due invoice.
	MarkOverdue(ctx context.Context, invoiceID string, userID string) error

	// MarkCanceled transitions open/overdue → canceled.
	MarkCanceled(ctx context.Context, invoiceID string, userID string) error

	// OverdueTotal computes the invoice total with accrued late fees: simple
	// daily interest plus a one-time penalty, both configurable, applied only
	// while the invoice is overdue and past due.
	OverdueTotal(ctx context.Context, invoiceID string) (*dto.OverdueTotalResponse, error)
}
