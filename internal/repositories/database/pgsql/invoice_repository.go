package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	"github.com/cuidobem/finance-backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoices.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, client_id, contract_id, period, status, total_amount, discount_amount, due_date, paid_at, created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var inv domain.Invoice
	var period string
	var status string
	err := row.Scan(
		&inv.InvoiceID,
		&inv.ClientID,
		&inv.ContractID,
		&period,
		&status,
		&inv.TotalAmount,
		&inv.DiscountAmount,
		&inv.DueDate,
		&inv.PaidAt,
		&inv.CreatedAt,
		&inv.CreatedBy,
		&inv.LastUpdatedAt,
		&inv.LastUpdatedBy,
	)
	inv.Period = domain.Period(period)
	inv.Status = domain.InvoiceStatus(status)
	return inv, err
}

// FindInvoiceByID retrieves an invoice with its items.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1;`

	inv, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by id %s: %w", invoiceID, err)
	}

	items, err := r.listItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

// ListInvoices retrieves invoices by client and/or period using token
// pagination on (created_at, invoice_id).
func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, clientID string, period domain.Period, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE ($1 = '' OR client_id = $1)
		  AND ($2 = '' OR period = $2)
	`
	args := []any{clientID, period.String()}

	if nextToken != nil && *nextToken != "" {
		createdAt, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, invoice_id) < ($3, $4)`
		args = append(args, createdAt, id)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC, invoice_id DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Invoice, error) {
		return scanInvoice(row)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan invoices: %w", err)
	}

	var newToken *string
	if len(invoices) > limit {
		invoices = invoices[:limit]
		last := invoices[len(invoices)-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.InvoiceID)
		newToken = &token
	}
	return invoices, newToken, nil
}

// ListOverdueCandidates retrieves open invoices whose due date elapsed.
func (r *PgxInvoiceRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date
		LIMIT $3;
	`
	rows, err := r.Pool.Query(ctx, query, string(domain.InvoiceOpen), asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue candidates: %w", err)
	}
	defer rows.Close()

	invoices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Invoice, error) {
		return scanInvoice(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan overdue candidates: %w", err)
	}
	return invoices, nil
}

// SumInvoicedByPeriod totals non-canceled invoice amounts for a period.
func (r *PgxInvoiceRepository) SumInvoicedByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE period = $1 AND status <> $2;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, period.String(), string(domain.InvoiceCanceled)).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum invoiced for period %s: %w", period, err)
	}
	return total, nil
}

// SumOverdueReceivables totals the outstanding amount of overdue invoices.
func (r *PgxInvoiceRepository) SumOverdueReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE status = $1 AND due_date < $2;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, string(domain.InvoiceOverdue), asOf).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum overdue receivables: %w", err)
	}
	return total, nil
}

// SaveInvoice persists the invoice and all its items in one transaction, the
// items batched in a single round trip.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, items []domain.InvoiceItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	insertInvoice := `
		INSERT INTO invoices (invoice_id, client_id, contract_id, period, status, total_amount, discount_amount, due_date, paid_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, insertInvoice,
		invoice.InvoiceID,
		invoice.ClientID,
		invoice.ContractID,
		invoice.Period.String(),
		string(invoice.Status),
		invoice.TotalAmount,
		invoice.DiscountAmount,
		invoice.DueDate,
		invoice.PaidAt,
		invoice.CreatedAt,
		invoice.CreatedBy,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice %s: %w", invoice.InvoiceID, err)
	}

	insertItem := `
		INSERT INTO invoice_items (item_id, invoice_id, caregiver_id, service_type, service_date, quantity, unit_price, amount, commissionable, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(insertItem,
			item.ItemID,
			item.InvoiceID,
			item.CaregiverID,
			item.ServiceType,
			item.ServiceDate,
			item.Quantity,
			item.UnitPrice,
			item.Amount,
			item.Commissionable,
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
			return fmt.Errorf("failed to insert invoice items for %s: %w", invoice.InvoiceID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close item batch for %s: %w", invoice.InvoiceID, err)
	}

	return r.Commit(ctx, tx)
}

// UpdateInvoiceTotals rewrites total and discount after item mutation.
func (r *PgxInvoiceRepository) UpdateInvoiceTotals(ctx context.Context, invoiceID string, total, discount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET total_amount = $2, discount_amount = $3, last_updated_at = $4, last_updated_by = $5
		WHERE invoice_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, invoiceID, total, discount, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update invoice totals for %s: %w", invoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateInvoiceStatus transitions status with a compare-and-set on the current
// status. Zero rows affected means a concurrent transition won.
func (r *PgxInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, from, to domain.InvoiceStatus, paidAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = $3, paid_at = COALESCE($4, paid_at), last_updated_at = $5, last_updated_by = $6
		WHERE invoice_id = $1 AND status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, invoiceID, string(from), string(to), paidAt, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update invoice status for %s: %w", invoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *PgxInvoiceRepository) listItems(ctx context.Context, invoiceID string) ([]domain.InvoiceItem, error) {
	query := `
		SELECT item_id, invoice_id, caregiver_id, service_type, service_date, quantity, unit_price, amount, commissionable, created_at, created_by, last_updated_at, last_updated_by
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY service_date, item_id;
	`
	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, scanInvoiceItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items for invoice %s: %w", invoiceID, err)
	}
	return items, nil
}

func scanInvoiceItem(row pgx.CollectableRow) (domain.InvoiceItem, error) {
	var item domain.InvoiceItem
	err := row.Scan(
		&item.ItemID,
		&item.InvoiceID,
		&item.CaregiverID,
		&item.ServiceType,
		&item.ServiceDate,
		&item.Quantity,
		&item.UnitPrice,
		&item.Amount,
		&item.Commissionable,
		&item.CreatedAt,
		&item.CreatedBy,
		&item.LastUpdatedAt,
		&item.LastUpdatedBy,
	)
	return item, err
}
