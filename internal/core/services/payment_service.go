package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotPending = errors.New("payment is not pending")
	ErrPaymentNotPaid    = errors.New("payment is not paid")
	ErrRefundExceeds     = errors.New("refund exceeds refundable amount")
)

// paymentService owns payment attempts against invoices and the mapping of
// asynchronous gateway callbacks onto the payment state machine.
type paymentService struct {
	paymentRepo portsrepo.PaymentRepositoryFacade
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	invoiceSvc  portssvc.InvoiceSvcFacade
	approvalSvc portssvc.ApprovalSvcFacade
	gateway     portssvc.PaymentGateway
	tasks       portssvc.TaskDispatcher
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo portsrepo.PaymentRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	invoiceSvc portssvc.InvoiceSvcFacade,
	approvalSvc portssvc.ApprovalSvcFacade,
	gateway portssvc.PaymentGateway,
	tasks portssvc.TaskDispatcher,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		invoiceSvc:  invoiceSvc,
		approvalSvc: approvalSvc,
		gateway:     gateway,
		tasks:       tasks,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// CreatePayment creates a payment attempt against an invoice. A request
// replaying a known idempotency key against the same invoice and amount
// returns the existing payment and has no further effect; the same key bound
// to a different invoice or amount is an idempotency conflict.
func (s *paymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	method := domain.PaymentMethod(req.Method)
	if !domain.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, req.Method)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	key := uuid.NewString()
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		key = *req.IdempotencyKey

		existing, err := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, key)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
		if existing != nil {
			if existing.InvoiceID != req.InvoiceID {
				return nil, fmt.Errorf("%w: key %s was used for invoice %s", apperrors.ErrIdempotencyConflict, key, existing.InvoiceID)
			}
			if !existing.Amount.Equal(req.Amount) {
				return nil, fmt.Errorf("%w: key %s was used with amount %s", apperrors.ErrIdempotencyConflict, key, existing.Amount)
			}
			logger.Info("Payment creation replayed", slog.String("payment_id", existing.PaymentID), slog.String("idempotency_key", key))
			return existing, nil
		}
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", req.InvoiceID, err)
	}
	if invoice.Status != domain.InvoiceOpen && invoice.Status != domain.InvoiceOverdue {
		return nil, fmt.Errorf("%w: invoice is %s, payment requires %s or %s", apperrors.ErrInvalidTransition, invoice.Status, domain.InvoiceOpen, domain.InvoiceOverdue)
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:      uuid.NewString(),
		InvoiceID:      req.InvoiceID,
		Method:         method,
		Status:         domain.PaymentPending,
		Amount:         req.Amount,
		IdempotencyKey: key,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a creation race on the same key; serve the winner.
			winner, findErr := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, key)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load payment after duplicate key: %w", findErr)
			}
			if winner.InvoiceID != req.InvoiceID {
				return nil, fmt.Errorf("%w: key %s was used for invoice %s", apperrors.ErrIdempotencyConflict, key, winner.InvoiceID)
			}
			if !winner.Amount.Equal(req.Amount) {
				return nil, fmt.Errorf("%w: key %s was used with amount %s", apperrors.ErrIdempotencyConflict, key, winner.Amount)
			}
			return winner, nil
		}
		logger.Error("Failed to save payment", slog.String("invoice_id", req.InvoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	// The gateway call must not block the request; the outcome arrives via
	// the asynchronous callback.
	s.tasks.Dispatch("gateway-charge", func(taskCtx context.Context) {
		if err := s.gateway.InitiateCharge(taskCtx, key, payment.Amount.String(), string(method)); err != nil {
			middleware.GetLoggerFromCtx(taskCtx).Error("Gateway charge initiation failed",
				slog.String("payment_id", payment.PaymentID), slog.String("error", err.Error()))
		}
	})

	logger.Info("Payment created",
		slog.String("payment_id", payment.PaymentID),
		slog.String("invoice_id", req.InvoiceID),
		slog.String("amount", req.Amount.String()),
		slog.String("idempotency_key", key),
	)
	return &payment, nil
}

// GetPayment retrieves a payment by its ID.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// ApplyGatewayResult maps a provider callback onto the payment state machine.
// Callbacks replaying an already-applied outcome are acknowledged without
// effect so provider retries stay harmless.
func (s *paymentService) ApplyGatewayResult(ctx context.Context, req dto.GatewayCallbackRequest, userID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	outcome := domain.GatewayOutcome(req.Outcome)
	if !domain.ValidGatewayOutcome(outcome) {
		return nil, fmt.Errorf("%w: unknown gateway outcome %q", apperrors.ErrValidation, req.Outcome)
	}

	payment, err := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, req.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment for reference %s: %w", req.ExternalReference, err)
	}

	switch outcome {
	case domain.OutcomeSuccess:
		return s.applySuccess(ctx, payment, userID)
	case domain.OutcomeFailure:
		if payment.Status == domain.PaymentFailed {
			return payment, nil
		}
		return s.applyFailure(ctx, payment, req.Reason, userID)
	case domain.OutcomeRefund:
		refund := dto.RefundPaymentRequest{Amount: req.Amount, Reason: req.Reason}
		return s.applyRefund(ctx, payment, refund, userID, false)
	}

	logger.Error("Unreachable gateway outcome", slog.String("outcome", req.Outcome))
	return nil, apperrors.ErrInternal
}

func (s *paymentService) applySuccess(ctx context.Context, payment *domain.Payment, userID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if payment.Status == domain.PaymentPaid {
		return payment, nil
	}
	if payment.Status != domain.PaymentPending {
		return nil, fmt.Errorf("%w: payment %s is %s", ErrPaymentNotPending, payment.PaymentID, payment.Status)
	}

	now := time.Now().UTC()
	update := *payment
	update.PaidAt = &now
	update.LastUpdatedAt = now
	update.LastUpdatedBy = userID

	if err := s.paymentRepo.UpdatePaymentStatus(ctx, payment.PaymentID, domain.PaymentPending, domain.PaymentPaid, update, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// A concurrent callback won; reload and report its state.
			return s.paymentRepo.FindPaymentByID(ctx, payment.PaymentID)
		}
		return nil, fmt.Errorf("failed to mark payment %s paid: %w", payment.PaymentID, err)
	}

	update.Status = domain.PaymentPaid
	if err := s.invoiceSvc.MarkPaid(ctx, payment.InvoiceID, userID); err != nil {
		// The payment is settled; invoice settlement failures surface in logs
		// and the invoice stays transitionable.
		logger.Error("Failed to settle invoice for paid payment",
			slog.String("payment_id", payment.PaymentID),
			slog.String("invoice_id", payment.InvoiceID),
			slog.String("error", err.Error()),
		)
	}

	logger.Info("Payment settled", slog.String("payment_id", payment.PaymentID), slog.String("invoice_id", payment.InvoiceID))
	return &update, nil
}

func (s *paymentService) applyFailure(ctx context.Context, payment *domain.Payment, reason, userID string) (*domain.Payment, error) {
	if payment.Status != domain.PaymentPending {
		return nil, fmt.Errorf("%w: payment %s is %s", ErrPaymentNotPending, payment.PaymentID, payment.Status)
	}

	now := time.Now().UTC()
	update := *payment
	if reason != "" {
		update.FailureReason = &reason
	}
	update.LastUpdatedAt = now
	update.LastUpdatedBy = userID

	if err := s.paymentRepo.UpdatePaymentStatus(ctx, payment.PaymentID, domain.PaymentPending, domain.PaymentFailed, update, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.paymentRepo.FindPaymentByID(ctx, payment.PaymentID)
		}
		return nil, fmt.Errorf("failed to mark payment %s failed: %w", payment.PaymentID, err)
	}

	update.Status = domain.PaymentFailed
	middleware.GetLoggerFromCtx(ctx).Info("Payment failed",
		slog.String("payment_id", payment.PaymentID), slog.String("reason", reason))
	return &update, nil
}

// RequestRefund refunds part or all of a paid payment. Refunds crossing the
// approval threshold are held until decided.
func (s *paymentService) RequestRefund(ctx context.Context, paymentID string, req dto.RefundPaymentRequest, userID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return s.applyRefund(ctx, payment, req, userID, true)
}

// applyRefund accumulates a refund. gated distinguishes operator-requested
// refunds (approval-gated) from provider-initiated ones reported via callback.
func (s *paymentService) applyRefund(ctx context.Context, payment *domain.Payment, req dto.RefundPaymentRequest, userID string, gated bool) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: refund amount must be positive", apperrors.ErrValidation)
	}
	if payment.Status != domain.PaymentPaid && payment.Status != domain.PaymentRefunded {
		return nil, fmt.Errorf("%w: payment %s is %s", ErrPaymentNotPaid, payment.PaymentID, payment.Status)
	}
	if req.Amount.GreaterThan(payment.RefundableAmount()) {
		return nil, fmt.Errorf("%w: %s > %s", ErrRefundExceeds, req.Amount, payment.RefundableAmount())
	}

	if gated {
		if err := s.approvalSvc.EnsureApproved(ctx, domain.OpRefund, payment.PaymentID, req.Amount, userID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	newRefunded := payment.RefundedAmount.Add(req.Amount)

	// Any refund, partial included, moves the payment to REFUNDED. The
	// Settled predicate keeps partially refunded payments counting toward
	// the invoice.
	if err := s.paymentRepo.UpdatePaymentRefund(ctx, payment.PaymentID, payment.RefundedAmount, newRefunded, domain.PaymentRefunded, req.Reason, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: payment %s was refunded concurrently", apperrors.ErrConflict, payment.PaymentID)
		}
		logger.Error("Failed to apply refund", slog.String("payment_id", payment.PaymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to apply refund to payment %s: %w", payment.PaymentID, err)
	}

	updated := *payment
	updated.Status = domain.PaymentRefunded
	updated.RefundedAmount = newRefunded
	if req.Reason != "" {
		updated.RefundReason = &req.Reason
	}
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = userID

	logger.Info("Payment refunded",
		slog.String("payment_id", payment.PaymentID),
		slog.String("refund_amount", req.Amount.String()),
		slog.String("refunded_total", newRefunded.String()),
	)
	return &updated, nil
}
