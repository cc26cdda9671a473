package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApprovalDecisionRequest defines the payload for approving or rejecting.
type ApprovalDecisionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ApprovalResponse defines the data returned for an approval.
type ApprovalResponse struct {
	ApprovalID     string          `json:"approvalID"`
	OperationType  string          `json:"operationType"`
	ReferenceID    string          `json:"referenceID"`
	Amount         decimal.Decimal `json:"amount"`
	Threshold      decimal.Decimal `json:"threshold"`
	Status         string          `json:"status"`
	RequestedBy    string          `json:"requestedBy"`
	DecidedBy      *string         `json:"decidedBy,omitempty"`
	DecisionReason *string         `json:"decisionReason,omitempty"`
	DecidedAt      *time.Time      `json:"decidedAt,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	Expired        bool            `json:"expired"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ToApprovalResponse converts a domain.Approval to its DTO.
func ToApprovalResponse(a *domain.Approval, now time.Time) ApprovalResponse {
	return ApprovalResponse{
		ApprovalID:     a.ApprovalID,
		OperationType:  string(a.OperationType),
		ReferenceID:    a.ReferenceID,
		Amount:         a.Amount,
		Threshold:      a.Threshold,
		Status:         string(a.Status),
		RequestedBy:    a.RequestedBy,
		DecidedBy:      a.DecidedBy,
		DecisionReason: a.DecisionReason,
		DecidedAt:      a.DecidedAt,
		ExpiresAt:      a.ExpiresAt,
		Expired:        a.IsExpired(now),
		CreatedAt:      a.CreatedAt,
	}
}
