package services

import "context"

// TaskDispatcher runs fire-and-forget background work. Longer-running side
// effects (gateway calls, notifications) are dispatched here so they never
// block the triggering request.
type TaskDispatcher interface {
	// Dispatch schedules fn on a background goroutine. The name is used for
	// logging only. Dispatch never blocks.
	Dispatch(name string, fn func(ctx context.Context))
}

// PaymentGateway is the outbound boundary to the payment/disbursement
// provider. Calls are keyed by the payment/payout idempotency key so
// provider-side retries cannot double-effect.
type PaymentGateway interface {
	// InitiateCharge asks the provider to collect a payment.
	InitiateCharge(ctx context.Context, idempotencyKey string, amount string, method string) error

	// InitiateTransfer asks the provider to disburse a payout.
	InitiateTransfer(ctx context.Context, idempotencyKey string, amount string, destination string) error
}
