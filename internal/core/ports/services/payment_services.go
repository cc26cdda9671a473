package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
)

// PaymentSvcFacade owns payment attempts and gateway outcomes.
type PaymentSvcFacade interface {
	// CreatePayment creates a payment attempt against an invoice. When the
	// request carries an idempotency key of an existing payment with the same
	// amount, the existing payment is returned with no new effect; a
	// different amount is an idempotency conflict.
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*domain.Payment, error)

	// GetPayment retrieves a payment by its ID.
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ApplyGatewayResult maps an asynchronous provider callback onto the
	// payment state machine: pending→paid (settles the invoice),
	// pending→failed, paid→refunded.
	ApplyGatewayResult(ctx context.Context, req dto.GatewayCallbackRequest, userID string) (*domain.Payment, error)

	// RequestRefund refunds part or all of a paid payment. Cumulative refunds
	// never exceed the amount; refunds at or above the approval threshold
	// require a decided approval first.
	RequestRefund(ctx context.Context, paymentID string, req dto.RefundPaymentRequest, userID string) (*domain.Payment, error)
}
