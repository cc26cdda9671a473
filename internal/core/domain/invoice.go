package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus indicates the state of an invoice.
type InvoiceStatus string

const (
	InvoiceOpen     InvoiceStatus = "OPEN"
	InvoicePaid     InvoiceStatus = "PAID"
	InvoiceOverdue  InvoiceStatus = "OVERDUE"
	InvoiceCanceled InvoiceStatus = "CANCELED"
)

// CanTransitionTo implements the invoice state machine:
// OPEN → PAID | OVERDUE | CANCELED, OVERDUE → PAID | CANCELED.
// PAID and CANCELED are terminal.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceOpen:
		return next == InvoicePaid || next == InvoiceOverdue || next == InvoiceCanceled
	case InvoiceOverdue:
		return next == InvoicePaid || next == InvoiceCanceled
	}
	return false
}

// Invoice bills a client for the services of one billing period.
// Invoices are never physically deleted.
type Invoice struct {
	InvoiceID      string          `json:"invoiceID"` // Primary key (UUID)
	ClientID       string          `json:"clientID"`
	ContractID     *string         `json:"contractID,omitempty"`
	Period         Period          `json:"period"`
	Status         InvoiceStatus   `json:"status"`
	TotalAmount    decimal.Decimal `json:"totalAmount"` // max(0, Σ items − discount)
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DueDate        time.Time       `json:"dueDate"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	Items          []InvoiceItem   `json:"items,omitempty"`
	AuditFields
}

// SumItems returns the sum of all item amounts.
func (inv Invoice) SumItems() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.Amount)
	}
	return sum
}

// IsPastDue reports whether the due date elapsed as of now.
func (inv Invoice) IsPastDue(now time.Time) bool {
	return now.After(inv.DueDate)
}

// InvoiceItem is one billed service line. Caregiver and service type are kept
// so the payout engine can attribute commission later.
type InvoiceItem struct {
	ItemID         string          `json:"itemID"`    // Primary key (UUID)
	InvoiceID      string          `json:"invoiceID"` // FK -> Invoice.invoiceID
	CaregiverID    string          `json:"caregiverID"`
	ServiceType    string          `json:"serviceType"`
	ServiceDate    time.Time       `json:"serviceDate"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Amount         decimal.Decimal `json:"amount"` // quantity × unit price
	Commissionable bool            `json:"commissionable"`
	AuditFields
}
