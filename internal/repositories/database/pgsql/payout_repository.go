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

type PgxPayoutRepository struct {
	BaseRepository
}

// newPgxPayoutRepository creates a new repository for payouts.
func newPgxPayoutRepository(pool *pgxpool.Pool) portsrepo.PayoutRepositoryFacade {
	return &PgxPayoutRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PayoutRepositoryFacade = (*PgxPayoutRepository)(nil)

const payoutColumns = `payout_id, caregiver_id, period, status, total_amount, commission_total, transfer_fee, net_amount, transfer_ref, cancel_reason, paid_at, created_at, created_by, last_updated_at, last_updated_by`

func scanPayout(row pgx.Row) (domain.Payout, error) {
	var p domain.Payout
	var period, status string
	err := row.Scan(
		&p.PayoutID,
		&p.CaregiverID,
		&period,
		&status,
		&p.TotalAmount,
		&p.CommissionTotal,
		&p.TransferFee,
		&p.NetAmount,
		&p.TransferRef,
		&p.CancelReason,
		&p.PaidAt,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	p.Period = domain.Period(period)
	p.Status = domain.PayoutStatus(status)
	return p, err
}

// FindPayoutByID retrieves a payout with its items.
func (r *PgxPayoutRepository) FindPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE payout_id = $1;`

	payout, err := scanPayout(r.Pool.QueryRow(ctx, query, payoutID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payout by id %s: %w", payoutID, err)
	}

	items, err := r.listItems(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	payout.Items = items
	return &payout, nil
}

// FindOpenPayout retrieves the open payout for a caregiver and period.
func (r *PgxPayoutRepository) FindOpenPayout(ctx context.Context, caregiverID string, period domain.Period) (*domain.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE caregiver_id = $1 AND period = $2 AND status = $3;
	`
	payout, err := scanPayout(r.Pool.QueryRow(ctx, query, caregiverID, period.String(), string(domain.PayoutOpen)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open payout for %s: %w", caregiverID, err)
	}

	items, err := r.listItems(ctx, payout.PayoutID)
	if err != nil {
		return nil, err
	}
	payout.Items = items
	return &payout, nil
}

// ListPayoutsByCaregiver retrieves payouts for a caregiver, newest first.
func (r *PgxPayoutRepository) ListPayoutsByCaregiver(ctx context.Context, caregiverID string, limit int) ([]domain.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE caregiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, caregiverID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts for caregiver %s: %w", caregiverID, err)
	}
	defer rows.Close()

	payouts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payout, error) {
		return scanPayout(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payouts for caregiver %s: %w", caregiverID, err)
	}
	return payouts, nil
}

// ListCommissionableItems retrieves paid, commissionable invoice items for the
// caregiver with service dates up to the end of the period that are not yet
// attached to a non-canceled payout. Items from earlier periods roll forward.
func (r *PgxPayoutRepository) ListCommissionableItems(ctx context.Context, caregiverID string, period domain.Period) ([]domain.InvoiceItem, error) {
	_, periodEnd := period.Bounds()

	// Items already attached to a paid payout, or held by another open
	// payout, are excluded. The caregiver's own open payout for this period
	// does not block its items: a rebuild re-selects them.
	query := `
		SELECT ii.item_id, ii.invoice_id, ii.caregiver_id, ii.service_type, ii.service_date, ii.quantity, ii.unit_price, ii.amount, ii.commissionable, ii.created_at, ii.created_by, ii.last_updated_at, ii.last_updated_by
		FROM invoice_items ii
		JOIN invoices i ON i.invoice_id = ii.invoice_id
		WHERE ii.caregiver_id = $1
		  AND ii.commissionable = TRUE
		  AND ii.service_date < $2
		  AND i.status = $3
		  AND NOT EXISTS (
			SELECT 1
			FROM payout_items pi
			JOIN payouts p ON p.payout_id = pi.payout_id
			WHERE pi.invoice_item_id = ii.item_id
			  AND (p.status = $4 OR (p.status = $5 AND NOT (p.caregiver_id = $1 AND p.period = $6)))
		  )
		ORDER BY ii.service_date, ii.item_id;
	`
	rows, err := r.Pool.Query(ctx, query,
		caregiverID,
		periodEnd,
		string(domain.InvoicePaid),
		string(domain.PayoutPaid),
		string(domain.PayoutOpen),
		period.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissionable items for %s: %w", caregiverID, err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, scanInvoiceItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan commissionable items for %s: %w", caregiverID, err)
	}
	return items, nil
}

// SumPayoutsByPeriod totals paid payout gross amounts for a period.
func (r *PgxPayoutRepository) SumPayoutsByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM payouts
		WHERE period = $1 AND status = $2;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, period.String(), string(domain.PayoutPaid)).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payouts for period %s: %w", period, err)
	}
	return total, nil
}

// SumTransferFeesByPeriod totals transfer fees of paid payouts for a period.
func (r *PgxPayoutRepository) SumTransferFeesByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(transfer_fee), 0)
		FROM payouts
		WHERE period = $1 AND status = $2;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, period.String(), string(domain.PayoutPaid)).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transfer fees for period %s: %w", period, err)
	}
	return total, nil
}

// SavePayout persists the payout and all its items in one transaction.
func (r *PgxPayoutRepository) SavePayout(ctx context.Context, payout domain.Payout, items []domain.PayoutItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	insertPayout := `
		INSERT INTO payouts (payout_id, caregiver_id, period, status, total_amount, commission_total, transfer_fee, net_amount, transfer_ref, cancel_reason, paid_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, insertPayout,
		payout.PayoutID,
		payout.CaregiverID,
		payout.Period.String(),
		string(payout.Status),
		payout.TotalAmount,
		payout.CommissionTotal,
		payout.TransferFee,
		payout.NetAmount,
		payout.TransferRef,
		payout.CancelReason,
		payout.PaidAt,
		payout.CreatedAt,
		payout.CreatedBy,
		payout.LastUpdatedAt,
		payout.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payout %s: %w", payout.PayoutID, err)
	}

	if err := r.insertItems(ctx, tx, items); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ReplacePayoutItems atomically rewrites an open payout's items and totals.
// The status predicate keeps a rebuild from touching a payout that was paid
// or canceled in between.
func (r *PgxPayoutRepository) ReplacePayoutItems(ctx context.Context, payout domain.Payout, items []domain.PayoutItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	update := `
		UPDATE payouts
		SET total_amount = $2, commission_total = $3, transfer_fee = $4, net_amount = $5, last_updated_at = $6, last_updated_by = $7
		WHERE payout_id = $1 AND status = $8;
	`
	cmdTag, err := tx.Exec(ctx, update,
		payout.PayoutID,
		payout.TotalAmount,
		payout.CommissionTotal,
		payout.TransferFee,
		payout.NetAmount,
		payout.LastUpdatedAt,
		payout.LastUpdatedBy,
		string(domain.PayoutOpen),
	)
	if err != nil {
		return fmt.Errorf("failed to update payout %s totals: %w", payout.PayoutID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payout_items WHERE payout_id = $1;`, payout.PayoutID); err != nil {
		return fmt.Errorf("failed to clear payout items for %s: %w", payout.PayoutID, err)
	}
	if err := r.insertItems(ctx, tx, items); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdatePayoutStatus transitions status with a compare-and-set on the expected
// current status.
func (r *PgxPayoutRepository) UpdatePayoutStatus(ctx context.Context, payoutID string, from, to domain.PayoutStatus, transferRef, cancelReason *string, paidAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE payouts
		SET status = $3, transfer_ref = COALESCE($4, transfer_ref), cancel_reason = COALESCE($5, cancel_reason), paid_at = COALESCE($6, paid_at), last_updated_at = $7, last_updated_by = $8
		WHERE payout_id = $1 AND status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, payoutID, string(from), string(to), transferRef, cancelReason, paidAt, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update payout status for %s: %w", payoutID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *PgxPayoutRepository) insertItems(ctx context.Context, tx pgx.Tx, items []domain.PayoutItem) error {
	insertItem := `
		INSERT INTO payout_items (payout_item_id, payout_id, invoice_item_id, service_type, amount, commission_percent, net_amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(insertItem,
			item.PayoutItemID,
			item.PayoutID,
			item.InvoiceItemID,
			item.ServiceType,
			item.Amount,
			item.CommissionPercent,
			item.NetAmount,
			item.CreatedAt,
			item.CreatedBy,
			item.LastUpdatedAt,
			item.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert payout items: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close payout item batch: %w", err)
	}
	return nil
}

func (r *PgxPayoutRepository) listItems(ctx context.Context, payoutID string) ([]domain.PayoutItem, error) {
	query := `
		SELECT payout_item_id, payout_id, invoice_item_id, service_type, amount, commission_percent, net_amount, created_at, created_by, last_updated_at, last_updated_by
		FROM payout_items
		WHERE payout_id = $1
		ORDER BY payout_item_id;
	`
	rows, err := r.Pool.Query(ctx, query, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for payout %s: %w", payoutID, err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PayoutItem, error) {
		var item domain.PayoutItem
		err := row.Scan(
			&item.PayoutItemID,
			&item.PayoutID,
			&item.InvoiceItemID,
			&item.ServiceType,
			&item.Amount,
			&item.CommissionPercent,
			&item.NetAmount,
			&item.CreatedAt,
			&item.CreatedBy,
			&item.LastUpdatedAt,
			&item.LastUpdatedBy,
		)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan items for payout %s: %w", payoutID, err)
	}
	return items, nil
}
