package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BillableServiceLine is one completed service record flowing in from the
// operations system. Context carries the pricing facts (weekend, time of day,
// contract kind, tenure) the price rules evaluate against.
type BillableServiceLine struct {
	CaregiverID    string            `json:"caregiverID" binding:"required"`
	ServiceType    string            `json:"serviceType" binding:"required"`
	Quantity       decimal.Decimal   `json:"quantity" binding:"required"`
	ServiceDate    time.Time         `json:"serviceDate" binding:"required"`
	Context        map[string]string `json:"context"`
	Commissionable *bool             `json:"commissionable"` // Defaults to true
}

// CreateInvoiceRequest defines the payload for creating an invoice from
// billable service lines. Unit prices come from the price engine.
type CreateInvoiceRequest struct {
	ClientID       string                `json:"clientID" binding:"required"`
	ContractID     *string               `json:"contractID"`
	Period         string                `json:"period" binding:"required,period"`
	DueDate        time.Time             `json:"dueDate" binding:"required"`
	DiscountAmount decimal.Decimal       `json:"discountAmount"`
	Region         string                `json:"region"`
	Lines          []BillableServiceLine `json:"lines" binding:"required,min=1"`
}

// ApplyDiscountRequest defines the payload for a discount on an open invoice.
type ApplyDiscountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason"`
}

// ListInvoicesParams holds filters for listing invoices.
type ListInvoicesParams struct {
	ClientID  string
	Period    string
	Limit     int
	NextToken *string
}

// InvoiceItemResponse defines the data returned for an invoice item.
type InvoiceItemResponse struct {
	ItemID         string          `json:"itemID"`
	CaregiverID    string          `json:"caregiverID"`
	ServiceType    string          `json:"serviceType"`
	ServiceDate    time.Time       `json:"serviceDate"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Amount         decimal.Decimal `json:"amount"`
	Commissionable bool            `json:"commissionable"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID      string                `json:"invoiceID"`
	ClientID       string                `json:"clientID"`
	ContractID     *string               `json:"contractID,omitempty"`
	Period         string                `json:"period"`
	Status         string                `json:"status"`
	TotalAmount    decimal.Decimal       `json:"totalAmount"`
	DiscountAmount decimal.Decimal       `json:"discountAmount"`
	DueDate        time.Time             `json:"dueDate"`
	PaidAt         *time.Time            `json:"paidAt,omitempty"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// ListInvoicesResponse carries a page of invoices and the next page token.
type ListInvoicesResponse struct {
	Invoices  []InvoiceResponse `json:"invoices"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// OverdueTotalResponse carries an overdue invoice's total with accrued fees.
type OverdueTotalResponse struct {
	InvoiceID     string          `json:"invoiceID"`
	BaseTotal     decimal.Decimal `json:"baseTotal"`
	Interest      decimal.Decimal `json:"interest"`
	Penalty       decimal.Decimal `json:"penalty"`
	TotalWithFees decimal.Decimal `json:"totalWithFees"`
	DaysOverdue   int             `json:"daysOverdue"`
}

// ToInvoiceItemResponse converts a domain.InvoiceItem to its DTO.
func ToInvoiceItemResponse(item *domain.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ItemID:         item.ItemID,
		CaregiverID:    item.CaregiverID,
		ServiceType:    item.ServiceType,
		ServiceDate:    item.ServiceDate,
		Quantity:       item.Quantity,
		UnitPrice:      item.UnitPrice,
		Amount:         item.Amount,
		Commissionable: item.Commissionable,
	}
}

// ToInvoiceResponse converts a domain.Invoice to its DTO.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i := range inv.Items {
		items[i] = ToInvoiceItemResponse(&inv.Items[i])
	}
	return InvoiceResponse{
		InvoiceID:      inv.InvoiceID,
		ClientID:       inv.ClientID,
		ContractID:     inv.ContractID,
		Period:         inv.Period.String(),
		Status:         string(inv.Status),
		TotalAmount:    inv.TotalAmount,
		DiscountAmount: inv.DiscountAmount,
		DueDate:        inv.DueDate,
		PaidAt:         inv.PaidAt,
		Items:          items,
		CreatedAt:      inv.CreatedAt,
	}
}
