package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePricePlanRequest defines the payload for creating a price plan.
type CreatePricePlanRequest struct {
	Name        string          `json:"name" binding:"required"`
	ServiceType string          `json:"serviceType" binding:"required"`
	BasePrice   decimal.Decimal `json:"basePrice" binding:"required"`
	FloorRate   decimal.Decimal `json:"floorRate"`
	MinQuantity decimal.Decimal `json:"minQuantity"`
	MaxQuantity decimal.Decimal `json:"maxQuantity"`
	Region      string          `json:"region"`
}

// RuleConditionRequest defines one condition of a rule creation payload.
type RuleConditionRequest struct {
	Key    string   `json:"key" binding:"required"`
	Op     string   `json:"op" binding:"required"`
	Value  string   `json:"value"`
	Values []string `json:"values"`
}

// AddPriceRuleRequest defines the payload for appending a rule to a plan.
type AddPriceRuleRequest struct {
	Kind       string                 `json:"kind" binding:"required"`
	Value      decimal.Decimal        `json:"value" binding:"required"`
	Priority   int                    `json:"priority"`
	Conditions []RuleConditionRequest `json:"conditions"`
}

// ComputePriceRequest defines the payload for a price computation.
type ComputePriceRequest struct {
	Quantity decimal.Decimal   `json:"quantity" binding:"required"`
	Context  map[string]string `json:"context"`
}

// ComputePriceResponse carries the computed amount.
type ComputePriceResponse struct {
	PlanID   string          `json:"planID"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// PriceRuleResponse defines the data returned for a price rule.
type PriceRuleResponse struct {
	RuleID     string                 `json:"ruleID"`
	Kind       string                 `json:"kind"`
	Value      decimal.Decimal        `json:"value"`
	Priority   int                    `json:"priority"`
	Conditions []domain.RuleCondition `json:"conditions"`
	Active     bool                   `json:"active"`
}

// PricePlanResponse defines the data returned for a price plan.
type PricePlanResponse struct {
	PlanID      string              `json:"planID"`
	Name        string              `json:"name"`
	ServiceType string              `json:"serviceType"`
	BasePrice   decimal.Decimal     `json:"basePrice"`
	FloorRate   decimal.Decimal     `json:"floorRate"`
	Active      bool                `json:"active"`
	MinQuantity decimal.Decimal     `json:"minQuantity"`
	MaxQuantity decimal.Decimal     `json:"maxQuantity"`
	Region      string              `json:"region,omitempty"`
	Rules       []PriceRuleResponse `json:"rules,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ToPriceRuleResponse converts a domain.PriceRule to its DTO.
func ToPriceRuleResponse(r *domain.PriceRule) PriceRuleResponse {
	return PriceRuleResponse{
		RuleID:     r.RuleID,
		Kind:       string(r.Kind),
		Value:      r.Value,
		Priority:   r.Priority,
		Conditions: r.Conditions,
		Active:     r.Active,
	}
}

// ToPricePlanResponse converts a domain.PricePlan to its DTO.
func ToPricePlanResponse(p *domain.PricePlan) PricePlanResponse {
	rules := make([]PriceRuleResponse, len(p.Rules))
	for i := range p.Rules {
		rules[i] = ToPriceRuleResponse(&p.Rules[i])
	}
	return PricePlanResponse{
		PlanID:      p.PlanID,
		Name:        p.Name,
		ServiceType: p.ServiceType,
		BasePrice:   p.BasePrice,
		FloorRate:   p.FloorRate,
		Active:      p.Active,
		MinQuantity: p.MinQuantity,
		MaxQuantity: p.MaxQuantity,
		Region:      p.Region,
		Rules:       rules,
		CreatedAt:   p.CreatedAt,
	}
}
