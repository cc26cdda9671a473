package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotOverdue = errors.New("invoice is not past due")
	ErrDiscountExceeds   = errors.New("discount exceeds invoice item total")
)

// invoiceService owns the invoice lifecycle. Pricing is delegated to the
// price engine; total recomputation is the single source of truth for
// total_amount.
type invoiceService struct {
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	pricingSvc  portssvc.PricingSvcFacade
	settingsSvc portssvc.SettingsSvcFacade
	approvalSvc portssvc.ApprovalSvcFacade
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	pricingSvc portssvc.PricingSvcFacade,
	settingsSvc portssvc.SettingsSvcFacade,
	approvalSvc portssvc.ApprovalSvcFacade,
) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		pricingSvc:  pricingSvc,
		settingsSvc: settingsSvc,
		approvalSvc: approvalSvc,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// recalculateTotal computes total_amount = max(0, Σ items − discount).
// Invoked after any item or discount mutation.
func recalculateTotal(items []domain.InvoiceItem, discount decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	total := sum.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// CreateInvoice prices the billable service lines and persists the invoice
// with its items atomically.
func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if req.DiscountAmount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", apperrors.ErrValidation)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: invoice requires at least one service line", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	invoiceID := uuid.NewString()

	items := make([]domain.InvoiceItem, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: quantity must be positive for caregiver %s", apperrors.ErrValidation, line.CaregiverID)
		}

		unitPrice, amount, err := s.pricingSvc.PriceService(ctx, line.ServiceType, req.Region, line.Quantity, line.Context)
		if err != nil {
			logger.Warn("Failed to price service line", slog.String("service_type", line.ServiceType), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to price %s line: %w", line.ServiceType, err)
		}

		commissionable := true
		if line.Commissionable != nil {
			commissionable = *line.Commissionable
		}

		items[i] = domain.InvoiceItem{
			ItemID:         uuid.NewString(),
			InvoiceID:      invoiceID,
			CaregiverID:    line.CaregiverID,
			ServiceType:    line.ServiceType,
			ServiceDate:    line.ServiceDate,
			Quantity:       line.Quantity,
			UnitPrice:      unitPrice,
			Amount:         amount,
			Commissionable: commissionable,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	invoice := domain.Invoice{
		InvoiceID:      invoiceID,
		ClientID:       req.ClientID,
		ContractID:     req.ContractID,
		Period:         period,
		Status:         domain.InvoiceOpen,
		DiscountAmount: req.DiscountAmount,
		DueDate:        req.DueDate,
		Items:          items,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	invoice.TotalAmount = recalculateTotal(items, invoice.DiscountAmount)

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice, items); err != nil {
		logger.Error("Failed to save invoice", slog.String("error", err.Error()), slog.String("client_id", req.ClientID))
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	logger.Info("Invoice created", slog.String("invoice_id", invoiceID), slog.String("client_id", req.ClientID), slog.String("total", invoice.TotalAmount.String()))
	return &invoice, nil
}

// GetInvoice retrieves an invoice with its items.
func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	return invoice, nil
}

// ListInvoices retrieves invoices by client and/or period with token
// pagination.
func (s *invoiceService) ListInvoices(ctx context.Context, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	var period domain.Period
	if params.Period != "" {
		parsed, err := domain.ParsePeriod(params.Period)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		period = parsed
	}

	invoices, nextToken, err := s.invoiceRepo.ListInvoices(ctx, params.ClientID, period, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	responses := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = dto.ToInvoiceResponse(&invoices[i])
	}
	return &dto.ListInvoicesResponse{Invoices: responses, NextToken: nextToken}, nil
}

// ApplyDiscount sets a discount on an open invoice and recalculates the
// total. Discounts crossing the approval threshold are held until decided.
func (s *invoiceService) ApplyDiscount(ctx context.Context, invoiceID string, req dto.ApplyDiscountRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", apperrors.ErrValidation)
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	if invoice.Status != domain.InvoiceOpen {
		return nil, fmt.Errorf("%w: invoice is %s, discount requires %s", apperrors.ErrInvalidTransition, invoice.Status, domain.InvoiceOpen)
	}
	if req.Amount.GreaterThan(invoice.SumItems()) {
		return nil, fmt.Errorf("%w: %s > %s", ErrDiscountExceeds, req.Amount, invoice.SumItems())
	}

	if err := s.approvalSvc.EnsureApproved(ctx, domain.OpDiscount, invoiceID, req.Amount, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invoice.DiscountAmount = req.Amount
	invoice.TotalAmount = recalculateTotal(invoice.Items, invoice.DiscountAmount)
	invoice.LastUpdatedAt = now
	invoice.LastUpdatedBy = userID

	if err := s.invoiceRepo.UpdateInvoiceTotals(ctx, invoiceID, invoice.TotalAmount, invoice.DiscountAmount, userID, now); err != nil {
		logger.Error("Failed to update invoice totals", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update invoice totals: %w", err)
	}

	logger.Info("Invoice discount applied", slog.String("invoice_id", invoiceID), slog.String("discount", req.Amount.String()))
	return invoice, nil
}

// MarkPaid transitions open/overdue → paid via compare-and-set.
func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID string, userID string) error {
	return s.transition(ctx, invoiceID, domain.InvoicePaid, userID)
}

// MarkOverdue transitions open → overdue, rejected while the due date has not
// elapsed.
func (s *invoiceService) MarkOverdue(ctx context.Context, invoiceID string, userID string) error {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	if !invoice.IsPastDue(time.Now().UTC()) {
		return fmt.Errorf("%w: due %s", ErrInvoiceNotOverdue, invoice.DueDate.Format(time.RFC3339))
	}
	return s.transition(ctx, invoiceID, domain.InvoiceOverdue, userID)
}

// MarkCanceled transitions open/overdue → canceled.
func (s *invoiceService) MarkCanceled(ctx context.Context, invoiceID string, userID string) error {
	return s.transition(ctx, invoiceID, domain.InvoiceCanceled, userID)
}

// transition applies the invoice state machine with a compare-and-set on the
// current status: a concurrent transition is rejected, never overwritten.
func (s *invoiceService) transition(ctx context.Context, invoiceID string, to domain.InvoiceStatus, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	if !invoice.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: invoice is %s, cannot become %s", apperrors.ErrInvalidTransition, invoice.Status, to)
	}

	now := time.Now().UTC()
	var paidAt *time.Time
	if to == domain.InvoicePaid {
		paidAt = &now
	}

	if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, invoiceID, invoice.Status, to, paidAt, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Invoice transition lost race", slog.String("invoice_id", invoiceID), slog.String("to", string(to)))
			return fmt.Errorf("%w: invoice %s changed concurrently", apperrors.ErrInvalidTransition, invoiceID)
		}
		logger.Error("Failed to update invoice status", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	logger.Info("Invoice status updated", slog.String("invoice_id", invoiceID), slog.String("from", string(invoice.Status)), slog.String("to", string(to)))
	return nil
}

// OverdueTotal computes the invoice total with accrued late fees: simple
// daily interest plus a one-time penalty, both configurable, applied only
// while the invoice is overdue and past due. Fees already folded into a
// settled payment are not re-applied.
func (s *invoiceService) OverdueTotal(ctx context.Context, invoiceID string) (*dto.OverdueTotalResponse, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}

	resp := &dto.OverdueTotalResponse{
		InvoiceID:     invoiceID,
		BaseTotal:     invoice.TotalAmount,
		Interest:      decimal.Zero,
		Penalty:       decimal.Zero,
		TotalWithFees: invoice.TotalAmount,
	}

	now := time.Now().UTC()
	if invoice.Status != domain.InvoiceOverdue || !invoice.IsPastDue(now) {
		return resp, nil
	}

	dailyInterest, err := s.settingsSvc.GetDecimal(ctx, domain.SettingOverdueDailyInterest, decimal.Zero)
	if err != nil {
		return nil, err
	}
	penaltyPercent, err := s.settingsSvc.GetDecimal(ctx, domain.SettingOverduePenaltyPercent, decimal.Zero)
	if err != nil {
		return nil, err
	}

	days := int(now.Sub(invoice.DueDate).Hours() / 24)
	if days < 0 {
		days = 0
	}

	hundred := decimal.NewFromInt(100)
	resp.DaysOverdue = days
	resp.Interest = invoice.TotalAmount.Mul(dailyInterest).Div(hundred).Mul(decimal.NewFromInt(int64(days)))
	resp.Penalty = invoice.TotalAmount.Mul(penaltyPercent).Div(hundred)
	resp.TotalWithFees = invoice.TotalAmount.Add(resp.Interest).Add(resp.Penalty).Round(2)
	resp.Interest = resp.Interest.Round(2)
	resp.Penalty = resp.Penalty.Round(2)
	return resp, nil
}
