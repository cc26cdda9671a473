package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePayableRequest defines the payload for creating an outbound obligation.
type CreatePayableRequest struct {
	BeneficiaryType string          `json:"beneficiaryType" binding:"required"`
	BeneficiaryID   string          `json:"beneficiaryID" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	InterestAmount  decimal.Decimal `json:"interestAmount"`
	DueDate         time.Time       `json:"dueDate" binding:"required"`
}

// SchedulePayableRequest defines the payload for scheduling a payable.
type SchedulePayableRequest struct {
	ScheduledFor time.Time `json:"scheduledFor" binding:"required"`
}

// PayableResponse defines the data returned for a payable.
type PayableResponse struct {
	PayableID       string          `json:"payableID"`
	BeneficiaryType string          `json:"beneficiaryType"`
	BeneficiaryID   string          `json:"beneficiaryID"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	InterestAmount  decimal.Decimal `json:"interestAmount"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	DueDate         time.Time       `json:"dueDate"`
	ScheduledFor    *time.Time      `json:"scheduledFor,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ToPayableResponse converts a domain.Payable to its DTO.
func ToPayableResponse(p *domain.Payable) PayableResponse {
	return PayableResponse{
		PayableID:       p.PayableID,
		BeneficiaryType: string(p.BeneficiaryType),
		BeneficiaryID:   p.BeneficiaryID,
		Description:     p.Description,
		Status:          string(p.Status),
		Amount:          p.Amount,
		DiscountAmount:  p.DiscountAmount,
		InterestAmount:  p.InterestAmount,
		NetAmount:       p.NetAmount(),
		PaidAmount:      p.PaidAmount,
		DueDate:         p.DueDate,
		ScheduledFor:    p.ScheduledFor,
		PaidAt:          p.PaidAt,
		CreatedAt:       p.CreatedAt,
	}
}
