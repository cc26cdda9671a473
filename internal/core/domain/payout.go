package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus indicates the state of a payout batch.
type PayoutStatus string

const (
	PayoutOpen     PayoutStatus = "OPEN"
	PayoutPaid     PayoutStatus = "PAID"
	PayoutCanceled PayoutStatus = "CANCELED"
)

// Payout batches a caregiver's commissionable service items for one period.
//
// Field semantics: TotalAmount is the gross sum of item amounts,
// CommissionTotal is the caregiver's share (Σ amount × percent/100) tracked
// separately, and NetAmount = TotalAmount − TransferFee.
type Payout struct {
	PayoutID        string          `json:"payoutID"` // Primary key (UUID)
	CaregiverID     string          `json:"caregiverID"`
	Period          Period          `json:"period"`
	Status          PayoutStatus    `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CommissionTotal decimal.Decimal `json:"commissionTotal"`
	TransferFee     decimal.Decimal `json:"transferFee"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	TransferRef     *string         `json:"transferRef,omitempty"` // Set when paid
	CancelReason    *string         `json:"cancelReason,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	Items           []PayoutItem    `json:"items,omitempty"`
	AuditFields
}

// CanBeProcessed reports whether the payout is eligible for disbursement:
// still open and at or above the configured minimum. Batches below the
// minimum stay open and roll forward into the next cycle.
func (p Payout) CanBeProcessed(minimumAmount decimal.Decimal) bool {
	return p.Status == PayoutOpen && p.TotalAmount.GreaterThanOrEqual(minimumAmount)
}

// PayoutItem snapshots one invoice item's contribution at computation time.
// CommissionPercent is frozen here and never recomputed retroactively.
type PayoutItem struct {
	PayoutItemID      string          `json:"payoutItemID"` // Primary key (UUID)
	PayoutID          string          `json:"payoutID"`     // FK -> Payout.payoutID
	InvoiceItemID     string          `json:"invoiceItemID"`
	ServiceType       string          `json:"serviceType"`
	Amount            decimal.Decimal `json:"amount"` // Invoice item gross
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	NetAmount         decimal.Decimal `json:"netAmount"` // Caregiver share: amount × percent/100
	AuditFields
}
