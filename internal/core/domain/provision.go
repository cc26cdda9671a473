package domain

import "github.com/shopspring/decimal"

// ProvisionType classifies what a provision reserves against.
type ProvisionType string

const (
	ProvisionBadDebt ProvisionType = "BAD_DEBT"
	ProvisionLabor   ProvisionType = "LABOR"
	ProvisionOther   ProvisionType = "OTHER"
)

// Provision is an accounting reserve for one period. The system estimate
// (CalculatedAmount) may be manually overridden (AdjustedAmount takes
// precedence when present); usage consumes against the effective amount.
type Provision struct {
	ProvisionID      string           `json:"provisionID"` // Primary key (UUID)
	Period           Period           `json:"period"`
	Type             ProvisionType    `json:"type"`
	CalculatedAmount decimal.Decimal  `json:"calculatedAmount"`
	AdjustedAmount   *decimal.Decimal `json:"adjustedAmount,omitempty"`
	AdjustedBy       *string          `json:"adjustedBy,omitempty"`
	UsedAmount       decimal.Decimal  `json:"usedAmount"`
	AuditFields
}

// EffectiveAmount returns the adjusted amount when present, else the estimate.
func (p Provision) EffectiveAmount() decimal.Decimal {
	if p.AdjustedAmount != nil {
		return *p.AdjustedAmount
	}
	return p.CalculatedAmount
}

// Balance returns effective − used. The service layer rejects any usage that
// would make this negative.
func (p Provision) Balance() decimal.Decimal {
	return p.EffectiveAmount().Sub(p.UsedAmount)
}
