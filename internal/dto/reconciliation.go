package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ClosePeriodRequest defines the payload for closing an accounting period.
type ClosePeriodRequest struct {
	Period string `json:"period" binding:"required,period"`
}

// ReconciliationResponse defines the data returned for a reconciliation.
type ReconciliationResponse struct {
	ReconciliationID string          `json:"reconciliationID"`
	Period           string          `json:"period"`
	Status           string          `json:"status"`
	TotalInvoiced    decimal.Decimal `json:"totalInvoiced"`
	TotalReceived    decimal.Decimal `json:"totalReceived"`
	TotalPayouts     decimal.Decimal `json:"totalPayouts"`
	TotalFees        decimal.Decimal `json:"totalFees"`
	Balance          decimal.Decimal `json:"balance"`
	Discrepancy      decimal.Decimal `json:"discrepancy"`
	HasDiscrepancy   bool            `json:"hasDiscrepancy"`
	ClosedBy         *string         `json:"closedBy,omitempty"`
	ClosedAt         *time.Time      `json:"closedAt,omitempty"`
}

// ToReconciliationResponse converts a domain.Reconciliation to its DTO.
// epsilon is the configured discrepancy tolerance.
func ToReconciliationResponse(r *domain.Reconciliation, epsilon decimal.Decimal) ReconciliationResponse {
	return ReconciliationResponse{
		ReconciliationID: r.ReconciliationID,
		Period:           r.Period.String(),
		Status:           string(r.Status),
		TotalInvoiced:    r.TotalInvoiced,
		TotalReceived:    r.TotalReceived,
		TotalPayouts:     r.TotalPayouts,
		TotalFees:        r.TotalFees,
		Balance:          r.Balance,
		Discrepancy:      r.Discrepancy,
		HasDiscrepancy:   r.HasDiscrepancy(epsilon),
		ClosedBy:         r.ClosedBy,
		ClosedAt:         r.ClosedAt,
	}
}
