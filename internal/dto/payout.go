package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BuildPayoutRequest defines the payload for building a caregiver's payout.
type BuildPayoutRequest struct {
	CaregiverID string `json:"caregiverID" binding:"required"`
	Period      string `json:"period" binding:"required,period"`
}

// PayPayoutRequest defines the payload for marking a payout paid.
type PayPayoutRequest struct {
	TransferRef string `json:"transferRef" binding:"required"`
}

// CancelPayoutRequest defines the payload for canceling a payout.
type CancelPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PayoutItemResponse defines the data returned for a payout item.
type PayoutItemResponse struct {
	PayoutItemID      string          `json:"payoutItemID"`
	InvoiceItemID     string          `json:"invoiceItemID"`
	ServiceType       string          `json:"serviceType"`
	Amount            decimal.Decimal `json:"amount"`
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	NetAmount         decimal.Decimal `json:"netAmount"`
}

// PayoutResponse defines the data returned for a payout.
type PayoutResponse struct {
	PayoutID        string               `json:"payoutID"`
	CaregiverID     string               `json:"caregiverID"`
	Period          string               `json:"period"`
	Status          string               `json:"status"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	CommissionTotal decimal.Decimal      `json:"commissionTotal"`
	TransferFee     decimal.Decimal      `json:"transferFee"`
	NetAmount       decimal.Decimal      `json:"netAmount"`
	TransferRef     *string              `json:"transferRef,omitempty"`
	CancelReason    *string              `json:"cancelReason,omitempty"`
	PaidAt          *time.Time           `json:"paidAt,omitempty"`
	Processable     bool                 `json:"processable"`
	Items           []PayoutItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// ToPayoutResponse converts a domain.Payout to its DTO. Processable reflects
// the minimum payout amount in force when the response was built.
func ToPayoutResponse(p *domain.Payout, minimumAmount decimal.Decimal) PayoutResponse {
	items := make([]PayoutItemResponse, len(p.Items))
	for i, item := range p.Items {
		items[i] = PayoutItemResponse{
			PayoutItemID:      item.PayoutItemID,
			InvoiceItemID:     item.InvoiceItemID,
			ServiceType:       item.ServiceType,
			Amount:            item.Amount,
			CommissionPercent: item.CommissionPercent,
			NetAmount:         item.NetAmount,
		}
	}
	return PayoutResponse{
		PayoutID:        p.PayoutID,
		CaregiverID:     p.CaregiverID,
		Period:          p.Period.String(),
		Status:          string(p.Status),
		TotalAmount:     p.TotalAmount,
		CommissionTotal: p.CommissionTotal,
		TransferFee:     p.TransferFee,
		NetAmount:       p.NetAmount,
		TransferRef:     p.TransferRef,
		CancelReason:    p.CancelReason,
		PaidAt:          p.PaidAt,
		Processable:     p.CanBeProcessed(minimumAmount),
		Items:           items,
		CreatedAt:       p.CreatedAt,
	}
}
