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

type PgxApprovalRepository struct {
	BaseRepository
}

// newPgxApprovalRepository creates a new repository for approvals.
func newPgxApprovalRepository(pool *pgxpool.Pool) portsrepo.ApprovalRepositoryFacade {
	return &PgxApprovalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ApprovalRepositoryFacade = (*PgxApprovalRepository)(nil)

const approvalColumns = `approval_id, operation_type, reference_id, amount, threshold, status, requested_by, decided_by, decision_reason, decided_at, expires_at, created_at, created_by, last_updated_at, last_updated_by`

func scanApproval(row pgx.Row) (domain.Approval, error) {
	var a domain.Approval
	var opType, status string
	err := row.Scan(
		&a.ApprovalID,
		&opType,
		&a.ReferenceID,
		&a.Amount,
		&a.Threshold,
		&status,
		&a.RequestedBy,
		&a.DecidedBy,
		&a.DecisionReason,
		&a.DecidedAt,
		&a.ExpiresAt,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	a.OperationType = domain.OperationType(opType)
	a.Status = domain.ApprovalStatus(status)
	return a, err
}

// FindApprovalByID retrieves an approval by its ID.
func (r *PgxApprovalRepository) FindApprovalByID(ctx context.Context, approvalID string) (*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE approval_id = $1;`

	approval, err := scanApproval(r.Pool.QueryRow(ctx, query, approvalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find approval by id %s: %w", approvalID, err)
	}
	return &approval, nil
}

// FindLatestApprovalByReference retrieves the most recent approval row for a
// gated operation.
func (r *PgxApprovalRepository) FindLatestApprovalByReference(ctx context.Context, opType domain.OperationType, referenceID string) (*domain.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approvals
		WHERE operation_type = $1 AND reference_id = $2
		ORDER BY created_at DESC, approval_id DESC
		LIMIT 1;
	`
	approval, err := scanApproval(r.Pool.QueryRow(ctx, query, string(opType), referenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find approval for %s %s: %w", opType, referenceID, err)
	}
	return &approval, nil
}

// ListPendingApprovals retrieves pending approvals, oldest first.
func (r *PgxApprovalRepository) ListPendingApprovals(ctx context.Context, limit int) ([]domain.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approvals
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, string(domain.ApprovalPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending approvals: %w", err)
	}
	defer rows.Close()

	approvals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Approval, error) {
		return scanApproval(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending approvals: %w", err)
	}
	return approvals, nil
}

// SaveApproval persists a new approval row.
func (r *PgxApprovalRepository) SaveApproval(ctx context.Context, approval domain.Approval) error {
	query := `
		INSERT INTO approvals (approval_id, operation_type, reference_id, amount, threshold, status, requested_by, decided_by, decision_reason, decided_at, expires_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		approval.ApprovalID,
		string(approval.OperationType),
		approval.ReferenceID,
		approval.Amount,
		approval.Threshold,
		string(approval.Status),
		approval.RequestedBy,
		approval.DecidedBy,
		approval.DecisionReason,
		approval.DecidedAt,
		approval.ExpiresAt,
		approval.CreatedAt,
		approval.CreatedBy,
		approval.LastUpdatedAt,
		approval.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save approval %s: %w", approval.ApprovalID, err)
	}
	return nil
}

// DecideApproval finalizes a pending approval with a compare-and-set on
// PENDING status.
func (r *PgxApprovalRepository) DecideApproval(ctx context.Context, approvalID string, to domain.ApprovalStatus, deciderID, reason string, decidedAt time.Time) error {
	query := `
		UPDATE approvals
		SET status = $3, decided_by = $4, decision_reason = NULLIF($5, ''), decided_at = $6, last_updated_at = $6, last_updated_by = $4
		WHERE approval_id = $1 AND status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, approvalID, string(domain.ApprovalPending), string(to), deciderID, reason, decidedAt)
	if err != nil {
		return fmt.Errorf("failed to decide approval %s: %w", approvalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}
