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
)

type PgxPayableRepository struct {
	BaseRepository
}

// newPgxPayableRepository creates a new repository for payables.
func newPgxPayableRepository(pool *pgxpool.Pool) portsrepo.PayableRepositoryFacade {
	return &PgxPayableRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PayableRepositoryFacade = (*PgxPayableRepository)(nil)

const payableColumns = `payable_id, beneficiary_type, beneficiary_id, description, status, amount, discount_amount, interest_amount, paid_amount, due_date, scheduled_for, paid_at, created_at, created_by, last_updated_at, last_updated_by`

func scanPayable(row pgx.Row) (domain.Payable, error) {
	var p domain.Payable
	var beneficiaryType, status string
	err := row.Scan(
		&p.PayableID,
		&beneficiaryType,
		&p.BeneficiaryID,
		&p.Description,
		&status,
		&p.Amount,
		&p.DiscountAmount,
		&p.InterestAmount,
		&p.PaidAmount,
		&p.DueDate,
		&p.ScheduledFor,
		&p.PaidAt,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	p.BeneficiaryType = domain.BeneficiaryType(beneficiaryType)
	p.Status = domain.PayableStatus(status)
	return p, err
}

// FindPayableByID retrieves a payable by its ID.
func (r *PgxPayableRepository) FindPayableByID(ctx context.Context, payableID string) (*domain.Payable, error) {
	query := `SELECT ` + payableColumns + ` FROM payables WHERE payable_id = $1;`

	payable, err := scanPayable(r.Pool.QueryRow(ctx, query, payableID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payable by id %s: %w", payableID, err)
	}
	return &payable, nil
}

// ListPayablesByStatus retrieves payables in the given status, due first.
func (r *PgxPayableRepository) ListPayablesByStatus(ctx context.Context, status domain.PayableStatus, limit int) ([]domain.Payable, error) {
	query := `
		SELECT ` + payableColumns + `
		FROM payables
		WHERE status = $1
		ORDER BY due_date
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query payables by status %s: %w", status, err)
	}
	defer rows.Close()

	payables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payable, error) {
		return scanPayable(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payables: %w", err)
	}
	return payables, nil
}

// SavePayable persists a new payable.
func (r *PgxPayableRepository) SavePayable(ctx context.Context, payable domain.Payable) error {
	query := `
		INSERT INTO payables (payable_id, beneficiary_type, beneficiary_id, description, status, amount, discount_amount, interest_amount, paid_amount, due_date, scheduled_for, paid_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		payable.PayableID,
		string(payable.BeneficiaryType),
		payable.BeneficiaryID,
		payable.Description,
		string(payable.Status),
		payable.Amount,
		payable.DiscountAmount,
		payable.InterestAmount,
		payable.PaidAmount,
		payable.DueDate,
		payable.ScheduledFor,
		payable.PaidAt,
		payable.CreatedAt,
		payable.CreatedBy,
		payable.LastUpdatedAt,
		payable.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save payable %s: %w", payable.PayableID, err)
	}
	return nil
}

// UpdatePayableStatus transitions status with a compare-and-set on the
// expected current status.
func (r *PgxPayableRepository) UpdatePayableStatus(ctx context.Context, payableID string, from, to domain.PayableStatus, update domain.Payable, userID string, now time.Time) error {
	query := `
		UPDATE payables
		SET status = $3, paid_amount = $4, scheduled_for = $5, paid_at = $6, last_updated_at = $7, last_updated_by = $8
		WHERE payable_id = $1 AND status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		payableID,
		string(from),
		string(to),
		update.PaidAmount,
		update.ScheduledFor,
		update.PaidAt,
		now,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payable status for %s: %w", payableID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}
