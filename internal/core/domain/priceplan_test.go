package domain_test

import (
	"testing"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRuleCondition_Matches(t *testing.T) {
	tests := []struct {
		name      string
		condition domain.RuleCondition
		context   map[string]string
		want      bool
	}{
		{
			name:      "EQ match",
			condition: domain.RuleCondition{Key: "weekend", Op: domain.CondEquals, Value: "true"},
			context:   map[string]string{"weekend": "true"},
			want:      true,
		},
		{
			name:      "EQ mismatch",
			condition: domain.RuleCondition{Key: "weekend", Op: domain.CondEquals, Value: "true"},
			context:   map[string]string{"weekend": "false"},
			want:      false,
		},
		{
			name:      "missing key never matches",
			condition: domain.RuleCondition{Key: "weekend", Op: domain.CondEquals, Value: "true"},
			context:   map[string]string{},
			want:      false,
		},
		{
			name:      "MIN at boundary",
			condition: domain.RuleCondition{Key: "hours", Op: domain.CondMin, Value: "4"},
			context:   map[string]string{"hours": "4"},
			want:      true,
		},
		{
			name:      "MIN below boundary",
			condition: domain.RuleCondition{Key: "hours", Op: domain.CondMin, Value: "4"},
			context:   map[string]string{"hours": "3.5"},
			want:      false,
		},
		{
			name:      "MAX at boundary",
			condition: domain.RuleCondition{Key: "hours", Op: domain.CondMax, Value: "12"},
			context:   map[string]string{"hours": "12"},
			want:      true,
		},
		{
			name:      "MAX above boundary",
			condition: domain.RuleCondition{Key: "hours", Op: domain.CondMax, Value: "12"},
			context:   map[string]string{"hours": "12.5"},
			want:      false,
		},
		{
			name:      "MIN with non-numeric context value",
			condition: domain.RuleCondition{Key: "hours", Op: domain.CondMin, Value: "4"},
			context:   map[string]string{"hours": "several"},
			want:      false,
		},
		{
			name:      "IN match",
			condition: domain.RuleCondition{Key: "region", Op: domain.CondIn, Values: []string{"north", "east"}},
			context:   map[string]string{"region": "east"},
			want:      true,
		},
		{
			name:      "IN mismatch",
			condition: domain.RuleCondition{Key: "region", Op: domain.CondIn, Values: []string{"north", "east"}},
			context:   map[string]string{"region": "south"},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.condition.Matches(tt.context))
		})
	}
}

func TestPriceRule_Matches(t *testing.T) {
	rule := domain.PriceRule{
		Conditions: []domain.RuleCondition{
			{Key: "weekend", Op: domain.CondEquals, Value: "true"},
			{Key: "hours", Op: domain.CondMin, Value: "4"},
		},
	}

	assert.True(t, rule.Matches(map[string]string{"weekend": "true", "hours": "6"}))
	assert.False(t, rule.Matches(map[string]string{"weekend": "true", "hours": "2"}), "all conditions must hold")

	unconditional := domain.PriceRule{}
	assert.True(t, unconditional.Matches(nil), "a rule with no conditions always matches")
}

func TestPriceRule_Apply(t *testing.T) {
	amount := decimal.NewFromInt(120)

	tests := []struct {
		name string
		rule domain.PriceRule
		want string
	}{
		{
			name: "percent surcharge",
			rule: domain.PriceRule{Kind: domain.PercentSurcharge, Value: decimal.NewFromInt(20)},
			want: "144",
		},
		{
			name: "percent discount",
			rule: domain.PriceRule{Kind: domain.PercentDiscount, Value: decimal.NewFromInt(10)},
			want: "108",
		},
		{
			name: "fixed adjustment",
			rule: domain.PriceRule{Kind: domain.FixedAdjustment, Value: decimal.NewFromInt(-15)},
			want: "105",
		},
		{
			name: "unknown kind leaves amount unchanged",
			rule: domain.PriceRule{Kind: domain.RuleKind("MYSTERY"), Value: decimal.NewFromInt(50)},
			want: "120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.Apply(amount)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestPricePlan_QuantityInBounds(t *testing.T) {
	plan := domain.PricePlan{
		MinQuantity: decimal.NewFromInt(2),
		MaxQuantity: decimal.NewFromInt(8),
	}

	assert.True(t, plan.QuantityInBounds(decimal.NewFromInt(2)), "min is inclusive")
	assert.True(t, plan.QuantityInBounds(decimal.NewFromInt(8)), "max is inclusive")
	assert.False(t, plan.QuantityInBounds(decimal.RequireFromString("1.5")))
	assert.False(t, plan.QuantityInBounds(decimal.RequireFromString("8.5")))

	unbounded := domain.PricePlan{MinQuantity: decimal.NewFromInt(1)}
	assert.True(t, unbounded.QuantityInBounds(decimal.NewFromInt(1000)), "zero max means unbounded")
}
