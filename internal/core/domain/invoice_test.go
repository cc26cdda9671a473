package domain_test

import (
	"testing"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.InvoiceStatus
		to   domain.InvoiceStatus
		want bool
	}{
		{domain.InvoiceOpen, domain.InvoicePaid, true},
		{domain.InvoiceOpen, domain.InvoiceOverdue, true},
		{domain.InvoiceOpen, domain.InvoiceCanceled, true},
		{domain.InvoiceOverdue, domain.InvoicePaid, true},
		{domain.InvoiceOverdue, domain.InvoiceCanceled, true},
		{domain.InvoiceOverdue, domain.InvoiceOpen, false},
		{domain.InvoicePaid, domain.InvoiceOpen, false},
		{domain.InvoicePaid, domain.InvoiceOverdue, false},
		{domain.InvoicePaid, domain.InvoiceCanceled, false},
		{domain.InvoiceCanceled, domain.InvoicePaid, false},
		{domain.InvoiceCanceled, domain.InvoiceOpen, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInvoice_SumItems(t *testing.T) {
	invoice := domain.Invoice{
		Items: []domain.InvoiceItem{
			{Amount: decimal.RequireFromString("120.50")},
			{Amount: decimal.RequireFromString("379.50")},
		},
	}

	assert.True(t, invoice.SumItems().Equal(decimal.NewFromInt(500)))
	assert.True(t, domain.Invoice{}.SumItems().IsZero(), "no items sums to zero")
}

func TestInvoice_IsPastDue(t *testing.T) {
	due := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	invoice := domain.Invoice{DueDate: due}

	assert.False(t, invoice.IsPastDue(due), "exactly at due date is not past due")
	assert.False(t, invoice.IsPastDue(due.Add(-time.Second)))
	assert.True(t, invoice.IsPastDue(due.Add(time.Second)))
}
