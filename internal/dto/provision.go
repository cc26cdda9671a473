package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateProvisionRequest defines the payload for opening a provision.
// When Amount is omitted the bad-debt estimate is computed from overdue
// receivables.
type CreateProvisionRequest struct {
	Period string           `json:"period" binding:"required,period"`
	Type   string           `json:"type" binding:"required"`
	Amount *decimal.Decimal `json:"amount"`
}

// UseProvisionRequest defines the payload for consuming provision balance.
type UseProvisionRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason"`
}

// AdjustProvisionRequest defines the payload for a manual override of the
// system estimate.
type AdjustProvisionRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ProvisionResponse defines the data returned for a provision.
type ProvisionResponse struct {
	ProvisionID      string           `json:"provisionID"`
	Period           string           `json:"period"`
	Type             string           `json:"type"`
	CalculatedAmount decimal.Decimal  `json:"calculatedAmount"`
	AdjustedAmount   *decimal.Decimal `json:"adjustedAmount,omitempty"`
	AdjustedBy       *string          `json:"adjustedBy,omitempty"`
	UsedAmount       decimal.Decimal  `json:"usedAmount"`
	Balance          decimal.Decimal  `json:"balance"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// ToProvisionResponse converts a domain.Provision to its DTO.
func ToProvisionResponse(p *domain.Provision) ProvisionResponse {
	return ProvisionResponse{
		ProvisionID:      p.ProvisionID,
		Period:           p.Period.String(),
		Type:             string(p.Type),
		CalculatedAmount: p.CalculatedAmount,
		AdjustedAmount:   p.AdjustedAmount,
		AdjustedBy:       p.AdjustedBy,
		UsedAmount:       p.UsedAmount,
		Balance:          p.Balance(),
		CreatedAt:        p.CreatedAt,
	}
}
