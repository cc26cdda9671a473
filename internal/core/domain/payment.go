package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment is collected.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodPix          PaymentMethod = "PIX"
	MethodBoleto       PaymentMethod = "BOLETO"
)

// ValidPaymentMethod reports whether m is a known method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCreditCard, MethodBankTransfer, MethodPix, MethodBoleto:
		return true
	}
	return false
}

// PaymentStatus indicates the state of a payment attempt.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// GatewayOutcome is the result carried by an asynchronous provider callback.
type GatewayOutcome string

const (
	OutcomeSuccess GatewayOutcome = "SUCCESS"
	OutcomeFailure GatewayOutcome = "FAILURE"
	OutcomeRefund  GatewayOutcome = "REFUND"
)

// ValidGatewayOutcome reports whether o is a known outcome.
func ValidGatewayOutcome(o GatewayOutcome) bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeRefund:
		return true
	}
	return false
}

// Payment is one attempt to settle an invoice. Rows are append-mostly: status
// transitions are recorded in place but payments are never deleted.
type Payment struct {
	PaymentID string        `json:"paymentID"` // Primary key (UUID)
	InvoiceID string        `json:"invoiceID"` // FK -> Invoice.invoiceID
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	// IdempotencyKey is globally unique and generated at creation. Retried
	// creation calls passing the same key are guaranteed at most one effect.
	IdempotencyKey string           `json:"idempotencyKey"`
	RefundedAmount decimal.Decimal  `json:"refundedAmount"`
	RefundReason   *string          `json:"refundReason,omitempty"`
	FailureReason  *string          `json:"failureReason,omitempty"`
	PaidAt         *time.Time       `json:"paidAt,omitempty"`
	GatewayRef     *string          `json:"gatewayRef,omitempty"` // Provider-side reference
	AuditFields
}

// RefundableAmount returns amount − already refunded, never negative.
func (p Payment) RefundableAmount() decimal.Decimal {
	r := p.Amount.Sub(p.RefundedAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Settled reports whether the payment effectively settles its invoice: paid,
// or refunded only in part.
func (p Payment) Settled() bool {
	switch p.Status {
	case PaymentPaid:
		return true
	case PaymentRefunded:
		return p.RefundedAmount.LessThan(p.Amount)
	}
	return false
}
