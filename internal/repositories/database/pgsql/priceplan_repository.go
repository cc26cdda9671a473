package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPricePlanRepository struct {
	BaseRepository
}

// newPgxPricePlanRepository creates a new repository for price plans.
func newPgxPricePlanRepository(pool *pgxpool.Pool) portsrepo.PricePlanRepositoryFacade {
	return &PgxPricePlanRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PricePlanRepositoryFacade = (*PgxPricePlanRepository)(nil)

const planColumns = `plan_id, name, service_type, base_price, floor_rate, active, min_quantity, max_quantity, region, created_at, created_by, last_updated_at, last_updated_by`

func scanPlan(row pgx.Row) (domain.PricePlan, error) {
	var plan domain.PricePlan
	err := row.Scan(
		&plan.PlanID,
		&plan.Name,
		&plan.ServiceType,
		&plan.BasePrice,
		&plan.FloorRate,
		&plan.Active,
		&plan.MinQuantity,
		&plan.MaxQuantity,
		&plan.Region,
		&plan.CreatedAt,
		&plan.CreatedBy,
		&plan.LastUpdatedAt,
		&plan.LastUpdatedBy,
	)
	return plan, err
}

// FindPlanByID retrieves a plan with its rules ordered by priority.
func (r *PgxPricePlanRepository) FindPlanByID(ctx context.Context, planID string) (*domain.PricePlan, error) {
	query := `SELECT ` + planColumns + ` FROM price_plans WHERE plan_id = $1;`

	plan, err := scanPlan(r.Pool.QueryRow(ctx, query, planID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find plan by id %s: %w", planID, err)
	}

	rules, err := r.listRules(ctx, planID)
	if err != nil {
		return nil, err
	}
	plan.Rules = rules
	return &plan, nil
}

// FindActivePlanForService retrieves the active plan for a service type,
// preferring a region-scoped plan over a region-less one.
func (r *PgxPricePlanRepository) FindActivePlanForService(ctx context.Context, serviceType string, region string) (*domain.PricePlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM price_plans
		WHERE service_type = $1 AND active = TRUE AND (region = $2 OR region = '')
		ORDER BY (region = $2) DESC, created_at DESC
		LIMIT 1;
	`
	plan, err := scanPlan(r.Pool.QueryRow(ctx, query, serviceType, region))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active plan for %s: %w", serviceType, err)
	}

	rules, err := r.listRules(ctx, plan.PlanID)
	if err != nil {
		return nil, err
	}
	plan.Rules = rules
	return &plan, nil
}

// SavePlan persists a new plan.
func (r *PgxPricePlanRepository) SavePlan(ctx context.Context, plan domain.PricePlan) error {
	query := `
		INSERT INTO price_plans (plan_id, name, service_type, base_price, floor_rate, active, min_quantity, max_quantity, region, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		plan.PlanID,
		plan.Name,
		plan.ServiceType,
		plan.BasePrice,
		plan.FloorRate,
		plan.Active,
		plan.MinQuantity,
		plan.MaxQuantity,
		plan.Region,
		plan.CreatedAt,
		plan.CreatedBy,
		plan.LastUpdatedAt,
		plan.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save price plan %s: %w", plan.PlanID, err)
	}
	return nil
}

// SaveRule appends a rule to a plan. Conditions are stored as JSONB.
func (r *PgxPricePlanRepository) SaveRule(ctx context.Context, rule domain.PriceRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal rule conditions: %w", err)
	}

	query := `
		INSERT INTO price_rules (rule_id, plan_id, kind, value, priority, conditions, active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = r.Pool.Exec(ctx, query,
		rule.RuleID,
		rule.PlanID,
		string(rule.Kind),
		rule.Value,
		rule.Priority,
		conditions,
		rule.Active,
		rule.CreatedAt,
		rule.CreatedBy,
		rule.LastUpdatedAt,
		rule.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save price rule %s: %w", rule.RuleID, err)
	}
	return nil
}

// DeactivatePlan marks a plan inactive.
func (r *PgxPricePlanRepository) DeactivatePlan(ctx context.Context, planID string, userID string, now time.Time) error {
	query := `
		UPDATE price_plans
		SET active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE plan_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, planID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate plan %s: %w", planID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxPricePlanRepository) listRules(ctx context.Context, planID string) ([]domain.PriceRule, error) {
	query := `
		SELECT rule_id, plan_id, kind, value, priority, conditions, active, created_at, created_by, last_updated_at, last_updated_by
		FROM price_rules
		WHERE plan_id = $1
		ORDER BY priority, rule_id;
	`
	rows, err := r.Pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules for plan %s: %w", planID, err)
	}
	defer rows.Close()

	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PriceRule, error) {
		var rule domain.PriceRule
		var kind string
		var conditions []byte
		err := row.Scan(
			&rule.RuleID,
			&rule.PlanID,
			&kind,
			&rule.Value,
			&rule.Priority,
			&conditions,
			&rule.Active,
			&rule.CreatedAt,
			&rule.CreatedBy,
			&rule.LastUpdatedAt,
			&rule.LastUpdatedBy,
		)
		if err != nil {
			return rule, err
		}
		rule.Kind = domain.RuleKind(kind)
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
				return rule, fmt.Errorf("failed to unmarshal conditions for rule %s: %w", rule.RuleID, err)
			}
		}
		return rule, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rules for plan %s: %w", planID, err)
	}
	return rules, nil
}
