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

type PgxProvisionRepository struct {
	BaseRepository
}

// newPgxProvisionRepository creates a new repository for provisions.
func newPgxProvisionRepository(pool *pgxpool.Pool) portsrepo.ProvisionRepositoryFacade {
	return &PgxProvisionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ProvisionRepositoryFacade = (*PgxProvisionRepository)(nil)

const provisionColumns = `provision_id, period, type, calculated_amount, adjusted_amount, adjusted_by, used_amount, created_at, created_by, last_updated_at, last_updated_by`

func scanProvision(row pgx.Row) (domain.Provision, error) {
	var p domain.Provision
	var period, provType string
	err := row.Scan(
		&p.ProvisionID,
		&period,
		&provType,
		&p.CalculatedAmount,
		&p.AdjustedAmount,
		&p.AdjustedBy,
		&p.UsedAmount,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	p.Period = domain.Period(period)
	p.Type = domain.ProvisionType(provType)
	return p, err
}

// FindProvisionByID retrieves a provision by its ID.
func (r *PgxProvisionRepository) FindProvisionByID(ctx context.Context, provisionID string) (*domain.Provision, error) {
	query := `SELECT ` + provisionColumns + ` FROM provisions WHERE provision_id = $1;`

	provision, err := scanProvision(r.Pool.QueryRow(ctx, query, provisionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find provision by id %s: %w", provisionID, err)
	}
	return &provision, nil
}

// FindProvision retrieves the provision for a period and type.
func (r *PgxProvisionRepository) FindProvision(ctx context.Context, period domain.Period, provType domain.ProvisionType) (*domain.Provision, error) {
	query := `SELECT ` + provisionColumns + ` FROM provisions WHERE period = $1 AND type = $2;`

	provision, err := scanProvision(r.Pool.QueryRow(ctx, query, period.String(), string(provType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find provision for %s %s: %w", period, provType, err)
	}
	return &provision, nil
}

// SaveProvision persists a new provision.
func (r *PgxProvisionRepository) SaveProvision(ctx context.Context, provision domain.Provision) error {
	query := `
		INSERT INTO provisions (provision_id, period, type, calculated_amount, adjusted_amount, adjusted_by, used_amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		provision.ProvisionID,
		provision.Period.String(),
		string(provision.Type),
		provision.CalculatedAmount,
		provision.AdjustedAmount,
		provision.AdjustedBy,
		provision.UsedAmount,
		provision.CreatedAt,
		provision.CreatedBy,
		provision.LastUpdatedAt,
		provision.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save provision %s: %w", provision.ProvisionID, err)
	}
	return nil
}

// UpdateProvisionUsage accumulates usage with a compare-and-set on the
// previously used amount.
func (r *PgxProvisionRepository) UpdateProvisionUsage(ctx context.Context, provisionID string, expectedUsed, newUsed decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE provisions
		SET used_amount = $3, last_updated_at = $4, last_updated_by = $5
		WHERE provision_id = $1 AND used_amount = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, provisionID, expectedUsed, newUsed, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update provision usage for %s: %w", provisionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// UpdateProvisionEstimate rewrites the calculated amount and/or the manual
// adjustment.
func (r *PgxProvisionRepository) UpdateProvisionEstimate(ctx context.Context, provisionID string, calculated decimal.Decimal, adjusted *decimal.Decimal, adjustedBy *string, userID string, now time.Time) error {
	query := `
		UPDATE provisions
		SET calculated_amount = $2, adjusted_amount = $3, adjusted_by = $4, last_updated_at = $5, last_updated_by = $6
		WHERE provision_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, provisionID, calculated, adjusted, adjustedBy, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update provision estimate for %s: %w", provisionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
