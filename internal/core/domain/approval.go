package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType identifies the kind of gated operation an approval refers to.
// Together with ReferenceID it forms a typed polymorphic reference, resolved
// by the owning subsystem rather than by dynamic relation lookup.
type OperationType string

const (
	OpDiscount OperationType = "DISCOUNT"
	OpRefund   OperationType = "REFUND"
	OpPayout   OperationType = "PAYOUT"
	OpPayable  OperationType = "PAYABLE"
)

// ValidOperationType reports whether op is a known gated operation type.
func ValidOperationType(op OperationType) bool {
	switch op {
	case OpDiscount, OpRefund, OpPayout, OpPayable:
		return true
	}
	return false
}

// ApprovalStatus indicates the state of an approval.
type ApprovalStatus string

const (
	ApprovalPending      ApprovalStatus = "PENDING"
	ApprovalApproved     ApprovalStatus = "APPROVED"
	ApprovalRejected     ApprovalStatus = "REJECTED"
	ApprovalAutoApproved ApprovalStatus = "AUTO_APPROVED"
)

// Approval gates one monetary operation. Sub-threshold operations still record
// an AUTO_APPROVED row so the audit trail is complete without blocking.
// A decided approval is immutable; only PENDING rows transition.
type Approval struct {
	ApprovalID     string          `json:"approvalID"` // Primary key (UUID)
	OperationType  OperationType   `json:"operationType"`
	ReferenceID    string          `json:"referenceID"` // ID of the gated entity
	Amount         decimal.Decimal `json:"amount"`
	Threshold      decimal.Decimal `json:"threshold"` // Threshold in force at evaluation
	Status         ApprovalStatus  `json:"status"`
	RequestedBy    string          `json:"requestedBy"`
	DecidedBy      *string         `json:"decidedBy,omitempty"`
	DecisionReason *string         `json:"decisionReason,omitempty"`
	DecidedAt      *time.Time      `json:"decidedAt,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	AuditFields
}

// IsDecided reports whether the approval reached a final state.
func (a Approval) IsDecided() bool {
	return a.Status != ApprovalPending
}

// IsExpired reports whether a pending approval's expiry elapsed. Expiry is a
// distinct condition, never silently treated as approved or rejected.
func (a Approval) IsExpired(now time.Time) bool {
	return a.Status == ApprovalPending && a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}
