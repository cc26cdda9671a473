package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
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
	ErrUnknownRuleKind    = errors.New("unknown price rule kind")
	ErrUnknownConditionOp = errors.New("unknown rule condition operator")
	ErrPlanInactive       = errors.New("price plan is inactive")
	ErrQuantityOutOfBound = errors.New("quantity outside plan bounds")
	ErrNoPlanForService   = errors.New("no active price plan for service type")
)

// defaultMinimumHourlyRate applies when no floor is configured anywhere.
var defaultMinimumHourlyRate = decimal.Zero

// pricingService computes service prices from plans and conditional rules.
type pricingService struct {
	planRepo    portsrepo.PricePlanRepositoryFacade
	settingsSvc portssvc.SettingsSvcFacade
}

// NewPricingService creates a new PricingService.
func NewPricingService(planRepo portsrepo.PricePlanRepositoryFacade, settingsSvc portssvc.SettingsSvcFacade) portssvc.PricingSvcFacade {
	return &pricingService{
		planRepo:    planRepo,
		settingsSvc: settingsSvc,
	}
}

var _ portssvc.PricingSvcFacade = (*pricingService)(nil)

// CreatePlan persists a new price plan.
func (s *pricingService) CreatePlan(ctx context.Context, req dto.CreatePricePlanRequest, userID string) (*domain.PricePlan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.BasePrice.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: base price must be positive", apperrors.ErrValidation)
	}
	if req.FloorRate.IsNegative() {
		return nil, fmt.Errorf("%w: floor rate must not be negative", apperrors.ErrValidation)
	}
	if !req.MaxQuantity.IsZero() && req.MaxQuantity.LessThan(req.MinQuantity) {
		return nil, fmt.Errorf("%w: max quantity below min quantity", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	plan := domain.PricePlan{
		PlanID:      uuid.NewString(),
		Name:        req.Name,
		ServiceType: req.ServiceType,
		BasePrice:   req.BasePrice,
		FloorRate:   req.FloorRate,
		Active:      true,
		MinQuantity: req.MinQuantity,
		MaxQuantity: req.MaxQuantity,
		Region:      req.Region,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.planRepo.SavePlan(ctx, plan); err != nil {
		logger.Error("Failed to save price plan", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save price plan: %w", err)
	}

	logger.Info("Price plan created", slog.String("plan_id", plan.PlanID), slog.String("service_type", plan.ServiceType))
	return &plan, nil
}

// AddRule appends a rule to a plan. Unknown rule kinds and condition operators
// are rejected here so evaluation never sees them.
func (s *pricingService) AddRule(ctx context.Context, planID string, req dto.AddPriceRuleRequest, userID string) (*domain.PriceRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	kind := domain.RuleKind(req.Kind)
	if !domain.ValidRuleKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleKind, req.Kind)
	}

	conditions := make([]domain.RuleCondition, len(req.Conditions))
	for i, c := range req.Conditions {
		op := domain.ConditionOperator(c.Op)
		if !domain.ValidConditionOperator(op) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownConditionOp, c.Op)
		}
		if c.Key == "" {
			return nil, fmt.Errorf("%w: condition key is required", apperrors.ErrValidation)
		}
		if op == domain.CondIn && len(c.Values) == 0 {
			return nil, fmt.Errorf("%w: IN condition requires values", apperrors.ErrValidation)
		}
		if op != domain.CondIn && c.Value == "" {
			return nil, fmt.Errorf("%w: condition value is required", apperrors.ErrValidation)
		}
		conditions[i] = domain.RuleCondition{Key: c.Key, Op: op, Value: c.Value, Values: c.Values}
	}

	plan, err := s.planRepo.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to find plan %s: %w", planID, err)
	}

	now := time.Now().UTC()
	rule := domain.PriceRule{
		RuleID:     uuid.NewString(),
		PlanID:     plan.PlanID,
		Kind:       kind,
		Value:      req.Value,
		Priority:   req.Priority,
		Conditions: conditions,
		Active:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.planRepo.SaveRule(ctx, rule); err != nil {
		logger.Error("Failed to save price rule", slog.String("plan_id", planID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save price rule: %w", err)
	}

	logger.Info("Price rule added", slog.String("plan_id", planID), slog.String("rule_id", rule.RuleID), slog.String("kind", string(kind)))
	return &rule, nil
}

// GetPlan retrieves a plan with its rules.
func (s *pricingService) GetPlan(ctx context.Context, planID string) (*domain.PricePlan, error) {
	plan, err := s.planRepo.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to find plan %s: %w", planID, err)
	}
	return plan, nil
}

// DeactivatePlan marks a plan inactive. Plans referenced by historical
// invoices are never deleted.
func (s *pricingService) DeactivatePlan(ctx context.Context, planID string, userID string) error {
	if err := s.planRepo.DeactivatePlan(ctx, planID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to deactivate plan %s: %w", planID, err)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Price plan deactivated", slog.String("plan_id", planID))
	return nil
}

// ComputePrice evaluates a plan's rules for a quantity and context.
func (s *pricingService) ComputePrice(ctx context.Context, planID string, quantity decimal.Decimal, context map[string]string) (decimal.Decimal, error) {
	plan, err := s.planRepo.FindPlanByID(ctx, planID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find plan %s: %w", planID, err)
	}
	return s.computeForPlan(ctx, plan, quantity, context)
}

// PriceService resolves the active plan for a service type and computes the
// line amount. Returns the effective unit price alongside the amount.
func (s *pricingService) PriceService(ctx context.Context, serviceType, region string, quantity decimal.Decimal, context map[string]string) (decimal.Decimal, decimal.Decimal, error) {
	plan, err := s.planRepo.FindActivePlanForService(ctx, serviceType, region)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", ErrNoPlanForService, serviceType)
		}
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to resolve plan for %s: %w", serviceType, err)
	}

	amount, err := s.computeForPlan(ctx, plan, quantity, context)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	// The persisted line holds amount = quantity × unit_price, so the amount
	// is derived from the rounded unit price rather than the raw computation.
	unitPrice := amount.Div(quantity).Round(2)
	return unitPrice, unitPrice.Mul(quantity).Round(2), nil
}

// computeForPlan is the pricing core: base × quantity, matching rules in
// ascending priority, then the minimum viable floor. Pure over its inputs so
// identical snapshots reproduce identical amounts.
func (s *pricingService) computeForPlan(ctx context.Context, plan *domain.PricePlan, quantity decimal.Decimal, context map[string]string) (decimal.Decimal, error) {
	if !plan.Active {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPlanInactive, plan.PlanID)
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: quantity must be positive", apperrors.ErrValidation)
	}
	if !plan.QuantityInBounds(quantity) {
		return decimal.Zero, fmt.Errorf("%w: %s not in [%s, %s]", ErrQuantityOutOfBound, quantity, plan.MinQuantity, plan.MaxQuantity)
	}

	amount := plan.BasePrice.Mul(quantity)

	// Stable order: ascending priority, rule ID as tiebreak.
	rules := make([]domain.PriceRule, len(plan.Rules))
	copy(rules, plan.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].RuleID < rules[j].RuleID
	})

	for _, rule := range rules {
		if !rule.Active || !rule.Matches(context) {
			continue
		}
		amount = rule.Apply(amount)
	}

	floor, err := s.floorFor(ctx, plan)
	if err != nil {
		return decimal.Zero, err
	}
	minimum := floor.Mul(quantity)
	if amount.LessThan(minimum) {
		amount = minimum
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2), nil
}

// floorFor returns the plan's floor rate, falling back to the configured
// global minimum hourly rate.
func (s *pricingService) floorFor(ctx context.Context, plan *domain.PricePlan) (decimal.Decimal, error) {
	if plan.FloorRate.GreaterThan(decimal.Zero) {
		return plan.FloorRate, nil
	}
	floor, err := s.settingsSvc.GetDecimal(ctx, domain.SettingMinimumHourlyRate, defaultMinimumHourlyRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load minimum hourly rate: %w", err)
	}
	return floor, nil
}
