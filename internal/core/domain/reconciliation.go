package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus indicates whether a period is still open.
type ReconciliationStatus string

const (
	ReconciliationOpen   ReconciliationStatus = "OPEN"
	ReconciliationClosed ReconciliationStatus = "CLOSED"
)

// Reconciliation summarizes one accounting period's cash movements.
// A period is closed once, immutably; there is no re-opening.
type Reconciliation struct {
	ReconciliationID string               `json:"reconciliationID"` // Primary key (UUID)
	Period           Period               `json:"period"`
	Status           ReconciliationStatus `json:"status"`
	TotalInvoiced    decimal.Decimal      `json:"totalInvoiced"`
	TotalReceived    decimal.Decimal      `json:"totalReceived"`
	TotalPayouts     decimal.Decimal      `json:"totalPayouts"`
	TotalFees        decimal.Decimal      `json:"totalFees"`
	Balance          decimal.Decimal      `json:"balance"`     // received − payouts − fees
	Discrepancy      decimal.Decimal      `json:"discrepancy"` // invoiced − received
	ClosedBy         *string              `json:"closedBy,omitempty"`
	ClosedAt         *time.Time           `json:"closedAt,omitempty"`
	AuditFields
}

// HasDiscrepancy flags |discrepancy| > epsilon for operator follow-up.
// This is a reporting signal, not an error.
func (r Reconciliation) HasDiscrepancy(epsilon decimal.Decimal) bool {
	return r.Discrepancy.Abs().GreaterThan(epsilon)
}
