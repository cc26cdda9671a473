package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

// newPgxReconciliationRepository creates a new repository for reconciliations.
func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

// FindReconciliationByPeriod retrieves the reconciliation for a period.
func (r *PgxReconciliationRepository) FindReconciliationByPeriod(ctx context.Context, period domain.Period) (*domain.Reconciliation, error) {
	query := `
		SELECT reconciliation_id, period, status, total_invoiced, total_received, total_payouts, total_fees, balance, discrepancy, closed_by, closed_at, created_at, created_by, last_updated_at, last_updated_by
		FROM reconciliations
		WHERE period = $1;
	`
	var rec domain.Reconciliation
	var periodStr, status string
	err := r.Pool.QueryRow(ctx, query, period.String()).Scan(
		&rec.ReconciliationID,
		&periodStr,
		&status,
		&rec.TotalInvoiced,
		&rec.TotalReceived,
		&rec.TotalPayouts,
		&rec.TotalFees,
		&rec.Balance,
		&rec.Discrepancy,
		&rec.ClosedBy,
		&rec.ClosedAt,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.LastUpdatedAt,
		&rec.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reconciliation for %s: %w", period, err)
	}
	rec.Period = domain.Period(periodStr)
	rec.Status = domain.ReconciliationStatus(status)
	return &rec, nil
}

// SaveReconciliation persists a closed reconciliation. The unique index on
// period turns a concurrent close into apperrors.ErrDuplicate.
func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (reconciliation_id, period, status, total_invoiced, total_received, total_payouts, total_fees, balance, discrepancy, closed_by, closed_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		rec.ReconciliationID,
		rec.Period.String(),
		string(rec.Status),
		rec.TotalInvoiced,
		rec.TotalReceived,
		rec.TotalPayouts,
		rec.TotalFees,
		rec.Balance,
		rec.Discrepancy,
		rec.ClosedBy,
		rec.ClosedAt,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.LastUpdatedAt,
		rec.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save reconciliation for %s: %w", rec.Period, err)
	}
	return nil
}
