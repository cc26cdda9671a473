package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayableStatus indicates the state of an outbound obligation.
type PayableStatus string

const (
	PayableOpen      PayableStatus = "OPEN"
	PayableScheduled PayableStatus = "SCHEDULED"
	PayablePaid      PayableStatus = "PAID"
	PayableCanceled  PayableStatus = "CANCELED"
)

// CanTransitionTo implements the payable state machine:
// OPEN → SCHEDULED | PAID | CANCELED, SCHEDULED → PAID | CANCELED.
// PAID and CANCELED are terminal.
func (s PayableStatus) CanTransitionTo(next PayableStatus) bool {
	switch s {
	case PayableOpen:
		return next == PayableScheduled || next == PayablePaid || next == PayableCanceled
	case PayableScheduled:
		return next == PayablePaid || next == PayableCanceled
	}
	return false
}

// BeneficiaryType identifies who an outbound obligation is owed to.
type BeneficiaryType string

const (
	BeneficiarySupplier  BeneficiaryType = "SUPPLIER"
	BeneficiaryCaregiver BeneficiaryType = "CAREGIVER"
	BeneficiaryTax       BeneficiaryType = "TAX"
	BeneficiaryOther     BeneficiaryType = "OTHER"
)

// Payable is an outbound obligation to a non-client party.
type Payable struct {
	PayableID       string          `json:"payableID"` // Primary key (UUID)
	BeneficiaryType BeneficiaryType `json:"beneficiaryType"`
	BeneficiaryID   string          `json:"beneficiaryID"`
	Description     string          `json:"description"`
	Status          PayableStatus   `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	InterestAmount  decimal.Decimal `json:"interestAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	DueDate         time.Time       `json:"dueDate"`
	ScheduledFor    *time.Time      `json:"scheduledFor,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	AuditFields
}

// NetAmount is what actually leaves the account: amount − discount + interest.
func (p Payable) NetAmount() decimal.Decimal {
	return p.Amount.Sub(p.DiscountAmount).Add(p.InterestAmount)
}
