package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payments.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, invoice_id, method, status, amount, idempotency_key, refunded_amount, refund_reason, failure_reason, paid_at, gateway_ref, created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	var method, status string
	err := row.Scan(
		&p.PaymentID,
		&p.InvoiceID,
		&method,
		&status,
		&p.Amount,
		&p.IdempotencyKey,
		&p.RefundedAmount,
		&p.RefundReason,
		&p.FailureReason,
		&p.PaidAt,
		&p.GatewayRef,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return p, err
}

// FindPaymentByID retrieves a payment by its ID.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`

	p, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by id %s: %w", paymentID, err)
	}
	return &p, nil
}

// FindPaymentByIdempotencyKey retrieves a payment by its idempotency key.
func (r *PgxPaymentRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1;`

	p, err := scanPayment(r.Pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by idempotency key: %w", err)
	}
	return &p, nil
}

// ListPaymentsByInvoice retrieves all payment attempts for an invoice.
func (r *PgxPaymentRepository) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1 ORDER BY created_at;`

	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payments for invoice %s: %w", invoiceID, err)
	}
	return payments, nil
}

// SumReceivedByPeriod totals settled payment amounts net of refunds for
// invoices of the given billing period.
func (r *PgxPaymentRepository) SumReceivedByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(p.amount - p.refunded_amount), 0)
		FROM payments p
		JOIN invoices i ON i.invoice_id = p.invoice_id
		WHERE i.period = $1 AND p.status IN ($2, $3);
	`
	var total decimal.Decimal
	err := r.Pool.QueryRow(ctx, query, period.String(), string(domain.PaymentPaid), string(domain.PaymentRefunded)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum received for period %s: %w", period, err)
	}
	return total, nil
}

// SavePayment persists a new payment. The unique index on idempotency_key
// turns a concurrent duplicate into apperrors.ErrDuplicate.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	query := `
		INSERT INTO payments (payment_id, invoice_id, method, status, amount, idempotency_key, refunded_amount, refund_reason, failure_reason, paid_at, gateway_ref, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		payment.PaymentID,
		payment.InvoiceID,
		string(payment.Method),
		string(payment.Status),
		payment.Amount,
		payment.IdempotencyKey,
		payment.RefundedAmount,
		payment.RefundReason,
		payment.FailureReason,
		payment.PaidAt,
		payment.GatewayRef,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// UpdatePaymentStatus transitions status with a compare-and-set on the
// expected current status.
func (r *PgxPaymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, from, to domain.PaymentStatus, update domain.Payment, now time.Time) error {
	query := `
		UPDATE payments
		SET status = $3, failure_reason = $4, paid_at = $5, gateway_ref = $6, last_updated_at = $7, last_updated_by = $8
		WHERE payment_id = $1 AND status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		paymentID,
		string(from),
		string(to),
		update.FailureReason,
		update.PaidAt,
		update.GatewayRef,
		now,
		update.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status for %s: %w", paymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// UpdatePaymentRefund accumulates a refund with a compare-and-set on the
// previously refunded amount so two concurrent refunds cannot both apply.
func (r *PgxPaymentRepository) UpdatePaymentRefund(ctx context.Context, paymentID string, expectedRefunded, newRefunded decimal.Decimal, status domain.PaymentStatus, reason string, userID string, now time.Time) error {
	query := `
		UPDATE payments
		SET refunded_amount = $4, status = $5, refund_reason = $6, last_updated_at = $7, last_updated_by = $8
		WHERE payment_id = $1 AND refunded_amount = $2 AND status IN ($3, $5);
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		paymentID,
		expectedRefunded,
		string(domain.PaymentPaid),
		newRefunded,
		string(status),
		reason,
		now,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment refund for %s: %w", paymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}
