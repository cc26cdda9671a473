package gateway

import (
	"context"
	"log/slog"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
)

// LoggingGateway is the default PaymentGateway adapter: it records outbound
// charge/transfer intents and relies on the provider's asynchronous callback
// for outcomes. A real provider adapter replaces this at wiring time.
type LoggingGateway struct {
	logger *slog.Logger
}

// NewLoggingGateway creates the logging adapter.
func NewLoggingGateway(logger *slog.Logger) portssvc.PaymentGateway {
	return &LoggingGateway{logger: logger}
}

var _ portssvc.PaymentGateway = (*LoggingGateway)(nil)

// InitiateCharge records a charge intent keyed by the idempotency key.
func (g *LoggingGateway) InitiateCharge(ctx context.Context, idempotencyKey string, amount string, method string) error {
	g.logger.Info("Gateway charge initiated",
		slog.String("idempotency_key", idempotencyKey),
		slog.String("amount", amount),
		slog.String("method", method),
	)
	return nil
}

// InitiateTransfer records a transfer intent keyed by the idempotency key.
func (g *LoggingGateway) InitiateTransfer(ctx context.Context, idempotencyKey string, amount string, destination string) error {
	g.logger.Info("Gateway transfer initiated",
		slog.String("idempotency_key", idempotencyKey),
		slog.String("amount", amount),
		slog.String("destination", destination),
	)
	return nil
}
