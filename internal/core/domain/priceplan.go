package domain

import (
	"github.com/shopspring/decimal"
)

// RuleKind discriminates how a price rule transforms the running amount.
type RuleKind string

const (
	PercentSurcharge RuleKind = "PERCENT_SURCHARGE" // amount × (1 + value/100)
	PercentDiscount  RuleKind = "PERCENT_DISCOUNT"  // amount × (1 − value/100)
	FixedAdjustment  RuleKind = "FIXED_ADJUSTMENT"  // amount + value
)

// ValidRuleKind reports whether k is a known rule kind. Unknown kinds are
// rejected when the rule is created, never at evaluation time.
func ValidRuleKind(k RuleKind) bool {
	switch k {
	case PercentSurcharge, PercentDiscount, FixedAdjustment:
		return true
	}
	return false
}

// ConditionOperator discriminates how a rule condition compares against context.
type ConditionOperator string

const (
	CondEquals ConditionOperator = "EQ" // exact string match
	CondMin    ConditionOperator = "MIN" // numeric context value ≥ condition value
	CondMax    ConditionOperator = "MAX" // numeric context value ≤ condition value
	CondIn     ConditionOperator = "IN"  // context value ∈ condition values
)

// ValidConditionOperator reports whether op is a known operator.
func ValidConditionOperator(op ConditionOperator) bool {
	switch op {
	case CondEquals, CondMin, CondMax, CondIn:
		return true
	}
	return false
}

// RuleCondition is one predicate of a rule's condition set, evaluated against
// a pricing context map. Value holds the operand for EQ/MIN/MAX; Values for IN.
type RuleCondition struct {
	Key    string            `json:"key"`
	Op     ConditionOperator `json:"op"`
	Value  string            `json:"value,omitempty"`
	Values []string          `json:"values,omitempty"`
}

// Matches evaluates the condition against the context. A key missing from the
// context never matches.
func (c RuleCondition) Matches(context map[string]string) bool {
	got, ok := context[c.Key]
	if !ok {
		return false
	}
	switch c.Op {
	case CondEquals:
		return got == c.Value
	case CondMin, CondMax:
		gotNum, err := decimal.NewFromString(got)
		if err != nil {
			return false
		}
		want, err := decimal.NewFromString(c.Value)
		if err != nil {
			return false
		}
		if c.Op == CondMin {
			return gotNum.GreaterThanOrEqual(want)
		}
		return gotNum.LessThanOrEqual(want)
	case CondIn:
		for _, v := range c.Values {
			if got == v {
				return true
			}
		}
		return false
	}
	return false
}

// PriceRule is one conditional transformation owned by a plan. Rules are
// immutable once referenced by a priced invoice item; pricing changes are made
// by adding new rules so historical amounts stay reproducible.
type PriceRule struct {
	RuleID     string          `json:"ruleID"` // Primary key (UUID)
	PlanID     string          `json:"planID"` // FK -> PricePlan.planID
	Kind       RuleKind        `json:"kind"`
	Value      decimal.Decimal `json:"value"`
	Priority   int             `json:"priority"` // Lower applies earlier
	Conditions []RuleCondition `json:"conditions"`
	Active     bool            `json:"active"`
	AuditFields
}

// Matches reports whether every condition of the rule matches the context.
// A rule with no conditions always matches.
func (r PriceRule) Matches(context map[string]string) bool {
	for _, cond := range r.Conditions {
		if !cond.Matches(context) {
			return false
		}
	}
	return true
}

// Apply transforms the running amount according to the rule kind.
func (r PriceRule) Apply(amount decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	switch r.Kind {
	case PercentSurcharge:
		return amount.Mul(hundred.Add(r.Value)).Div(hundred)
	case PercentDiscount:
		return amount.Mul(hundred.Sub(r.Value)).Div(hundred)
	case FixedAdjustment:
		return amount.Add(r.Value)
	}
	// Unknown kinds are rejected at creation; keep the amount unchanged.
	return amount
}

// PricePlan configures the unit pricing for one service type. Plans referenced
// by historical invoices are deactivated, never deleted.
type PricePlan struct {
	PlanID      string          `json:"planID"` // Primary key (UUID)
	Name        string          `json:"name"`
	ServiceType string          `json:"serviceType"`
	BasePrice   decimal.Decimal `json:"basePrice"` // Per unit (hour)
	// FloorRate is the plan's minimum viable hourly rate. Zero means the
	// globally configured minimum applies instead.
	FloorRate   decimal.Decimal `json:"floorRate"`
	Active      bool            `json:"active"`
	MinQuantity decimal.Decimal `json:"minQuantity"`
	MaxQuantity decimal.Decimal `json:"maxQuantity"` // Zero means unbounded
	Region      string          `json:"region,omitempty"`
	Rules       []PriceRule     `json:"rules,omitempty"` // Ordered by priority
	AuditFields
}

// QuantityInBounds reports whether q falls within the plan's quantity bounds.
func (p PricePlan) QuantityInBounds(q decimal.Decimal) bool {
	if q.LessThan(p.MinQuantity) {
		return false
	}
	if !p.MaxQuantity.IsZero() && q.GreaterThan(p.MaxQuantity) {
		return false
	}
	return true
}
