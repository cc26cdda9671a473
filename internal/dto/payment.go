package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines the payload for creating a payment attempt.
// IdempotencyKey is optional: the processor generates one when absent, and a
// retrying caller must pass back the key it received.
type CreatePaymentRequest struct {
	InvoiceID      string          `json:"invoiceID" binding:"required"`
	Method         string          `json:"method" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	IdempotencyKey *string         `json:"idempotencyKey"`
}

// GatewayCallbackRequest is the inbound asynchronous provider callback.
// ExternalReference is the idempotency key the charge was initiated with.
type GatewayCallbackRequest struct {
	ExternalReference string          `json:"externalReference" binding:"required"`
	Outcome           string          `json:"outcome" binding:"required"`
	Amount            decimal.Decimal `json:"amount"`
	Reason            string          `json:"reason"`
	Timestamp         time.Time       `json:"timestamp"`
}

// RefundPaymentRequest defines the payload for a (partial) refund.
type RefundPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID      string          `json:"paymentID"`
	InvoiceID      string          `json:"invoiceID"`
	Method         string          `json:"method"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey"`
	RefundedAmount decimal.Decimal `json:"refundedAmount"`
	RefundReason   *string         `json:"refundReason,omitempty"`
	FailureReason  *string         `json:"failureReason,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ToPaymentResponse converts a domain.Payment to its DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:      p.PaymentID,
		InvoiceID:      p.InvoiceID,
		Method:         string(p.Method),
		Status:         string(p.Status),
		Amount:         p.Amount,
		IdempotencyKey: p.IdempotencyKey,
		RefundedAmount: p.RefundedAmount,
		RefundReason:   p.RefundReason,
		FailureReason:  p.FailureReason,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}
