package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/core/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	mockRepo        *MockPaymentRepository
	mockInvoiceRepo *MockInvoiceRepository
	invoiceSvc      *fakeInvoiceSettler
	approval        *fakeApproval
	gateway         *MockPaymentGateway
	dispatcher      *inlineDispatcher
	service         portssvc.PaymentSvcFacade
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockPaymentRepository)
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.invoiceSvc = &fakeInvoiceSettler{}
	suite.approval = &fakeApproval{}
	suite.gateway = new(MockPaymentGateway)
	suite.dispatcher = &inlineDispatcher{}
	suite.service = services.NewPaymentService(
		suite.mockRepo, suite.mockInvoiceRepo, suite.invoiceSvc, suite.approval, suite.gateway, suite.dispatcher,
	)
}

func pendingPayment(amount string) *domain.Payment {
	return &domain.Payment{
		PaymentID:      uuid.NewString(),
		InvoiceID:      uuid.NewString(),
		Method:         domain.MethodPix,
		Status:         domain.PaymentPending,
		Amount:         decimal.RequireFromString(amount),
		IdempotencyKey: uuid.NewString(),
		RefundedAmount: decimal.Zero,
	}
}

func paidPayment(amount string) *domain.Payment {
	p := pendingPayment(amount)
	p.Status = domain.PaymentPaid
	paidAt := time.Now().UTC()
	p.PaidAt = &paidAt
	return p
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_DispatchesGatewayCharge() {
	ctx := context.Background()
	invoice := openInvoice("450")
	key := "client-key-1"
	req := dto.CreatePaymentRequest{
		InvoiceID:      invoice.InvoiceID,
		Method:         string(domain.MethodPix),
		Amount:         decimal.NewFromInt(450),
		IdempotencyKey: &key,
	}

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockRepo.On("SavePayment", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == domain.PaymentPending && p.IdempotencyKey == key
	})).Return(nil).Once()
	suite.gateway.On("InitiateCharge", mock.Anything, key, "450", string(domain.MethodPix)).Return(nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentPending, payment.Status)
	suite.Equal([]string{"gateway-charge"}, suite.dispatcher.names)
	suite.gateway.AssertExpectations(suite.T())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_ReplaySameAmountReturnsExisting() {
	ctx := context.Background()
	existing := pendingPayment("450")
	key := existing.IdempotencyKey
	req := dto.CreatePaymentRequest{
		InvoiceID:      existing.InvoiceID,
		Method:         string(domain.MethodPix),
		Amount:         decimal.NewFromInt(450),
		IdempotencyKey: &key,
	}

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, key).Return(existing, nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, "user-1")

	suite.Require().NoError(err)
	suite.Equal(existing.PaymentID, payment.PaymentID)
	suite.Empty(suite.dispatcher.names, "replay must not re-charge")
	suite.mockRepo.AssertNotCalled(suite.T(), "SavePayment", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_ReplayDifferentAmountConflicts() {
	ctx := context.Background()
	existing := pendingPayment("450")
	key := existing.IdempotencyKey
	req := dto.CreatePaymentRequest{
		InvoiceID:      existing.InvoiceID,
		Method:         string(domain.MethodPix),
		Amount:         decimal.NewFromInt(500),
		IdempotencyKey: &key,
	}

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, key).Return(existing, nil).Once()

	_, err := suite.service.CreatePayment(ctx, req, "user-1")

	suite.ErrorIs(err, apperrors.ErrIdempotencyConflict)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_ReplayDifferentInvoiceConflicts() {
	ctx := context.Background()
	existing := pendingPayment("450")
	key := existing.IdempotencyKey
	req := dto.CreatePaymentRequest{
		InvoiceID:      uuid.NewString(),
		Method:         string(domain.MethodPix),
		Amount:         decimal.NewFromInt(450),
		IdempotencyKey: &key,
	}

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, key).Return(existing, nil).Once()

	// Same key and amount against another invoice must not silently return
	// the other invoice's payment.
	_, err := suite.service.CreatePayment(ctx, req, "user-1")

	suite.ErrorIs(err, apperrors.ErrIdempotencyConflict)
	suite.mockRepo.AssertNotCalled(suite.T(), "SavePayment", mock.Anything, mock.Anything)
	suite.Empty(suite.dispatcher.names)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_DuplicateRaceServesWinner() {
	ctx := context.Background()
	invoice := openInvoice("450")
	winner := pendingPayment("450")
	winner.InvoiceID = invoice.InvoiceID
	key := winner.IdempotencyKey
	req := dto.CreatePaymentRequest{
		InvoiceID:      invoice.InvoiceID,
		Method:         string(domain.MethodPix),
		Amount:         decimal.NewFromInt(450),
		IdempotencyKey: &key,
	}

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.Payment")).Return(apperrors.ErrDuplicate).Once()
	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, key).Return(winner, nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, "user-1")

	suite.Require().NoError(err)
	suite.Equal(winner.PaymentID, payment.PaymentID)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_CanceledInvoiceRejected() {
	ctx := context.Background()
	invoice := openInvoice("450")
	invoice.Status = domain.InvoiceCanceled
	req := dto.CreatePaymentRequest{
		InvoiceID: invoice.InvoiceID,
		Method:    string(domain.MethodBoleto),
		Amount:    decimal.NewFromInt(450),
	}

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()

	_, err := suite.service.CreatePayment(ctx, req, "user-1")

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_UnknownMethodRejected() {
	ctx := context.Background()

	_, err := suite.service.CreatePayment(ctx, dto.CreatePaymentRequest{
		InvoiceID: uuid.NewString(),
		Method:    "CASH_UNDER_TABLE",
		Amount:    decimal.NewFromInt(10),
	}, "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestApplyGatewayResult_SuccessSettlesInvoice() {
	ctx := context.Background()
	payment := pendingPayment("450")

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, payment.IdempotencyKey).Return(payment, nil).Once()
	suite.mockRepo.On("UpdatePaymentStatus", ctx, payment.PaymentID, domain.PaymentPending, domain.PaymentPaid, mock.MatchedBy(func(p domain.Payment) bool {
		return p.PaidAt != nil
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.ApplyGatewayResult(ctx, dto.GatewayCallbackRequest{
		ExternalReference: payment.IdempotencyKey,
		Outcome:           string(domain.OutcomeSuccess),
	}, "gateway")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentPaid, updated.Status)
	suite.Equal([]string{payment.InvoiceID}, suite.invoiceSvc.paidInvoices)
}

func (suite *PaymentServiceTestSuite) TestApplyGatewayResult_SuccessReplayIsNoOp() {
	ctx := context.Background()
	payment := paidPayment("450")

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, payment.IdempotencyKey).Return(payment, nil).Once()

	updated, err := suite.service.ApplyGatewayResult(ctx, dto.GatewayCallbackRequest{
		ExternalReference: payment.IdempotencyKey,
		Outcome:           string(domain.OutcomeSuccess),
	}, "gateway")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentPaid, updated.Status)
	suite.Empty(suite.invoiceSvc.paidInvoices)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestApplyGatewayResult_FailureRecordsReason() {
	ctx := context.Background()
	payment := pendingPayment("450")

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, payment.IdempotencyKey).Return(payment, nil).Once()
	suite.mockRepo.On("UpdatePaymentStatus", ctx, payment.PaymentID, domain.PaymentPending, domain.PaymentFailed, mock.MatchedBy(func(p domain.Payment) bool {
		return p.FailureReason != nil && *p.FailureReason == "insufficient funds"
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.ApplyGatewayResult(ctx, dto.GatewayCallbackRequest{
		ExternalReference: payment.IdempotencyKey,
		Outcome:           string(domain.OutcomeFailure),
		Reason:            "insufficient funds",
	}, "gateway")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentFailed, updated.Status)
	suite.Empty(suite.invoiceSvc.paidInvoices)
}

func (suite *PaymentServiceTestSuite) TestApplyGatewayResult_ConcurrentCallbackReloads() {
	ctx := context.Background()
	payment := pendingPayment("450")
	settled := *payment
	settled.Status = domain.PaymentPaid

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, payment.IdempotencyKey).Return(payment, nil).Once()
	suite.mockRepo.On("UpdatePaymentStatus", ctx, payment.PaymentID, domain.PaymentPending, domain.PaymentPaid, mock.AnythingOfType("domain.Payment"), mock.AnythingOfType("time.Time")).Return(apperrors.ErrConflict).Once()
	suite.mockRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(&settled, nil).Once()

	updated, err := suite.service.ApplyGatewayResult(ctx, dto.GatewayCallbackRequest{
		ExternalReference: payment.IdempotencyKey,
		Outcome:           string(domain.OutcomeSuccess),
	}, "gateway")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentPaid, updated.Status)
}

func (suite *PaymentServiceTestSuite) TestApplyGatewayResult_ProviderRefundSkipsApprovalGate() {
	ctx := context.Background()
	payment := paidPayment("450")

	suite.mockRepo.On("FindPaymentByIdempotencyKey", ctx, payment.IdempotencyKey).Return(payment, nil).Once()
	suite.mockRepo.On("UpdatePaymentRefund", ctx, payment.PaymentID, decimal.Zero, decimal.NewFromInt(100), domain.PaymentRefunded, "chargeback", "gateway", mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.ApplyGatewayResult(ctx, dto.GatewayCallbackRequest{
		ExternalReference: payment.IdempotencyKey,
		Outcome:           string(domain.OutcomeRefund),
		Amount:            decimal.NewFromInt(100),
		Reason:            "chargeback",
	}, "gateway")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentRefunded, updated.Status)
	suite.True(updated.RefundedAmount.Equal(decimal.NewFromInt(100)))
	suite.Empty(suite.approval.calls, "provider-initiated refunds are not gated")
}

func (suite *PaymentServiceTestSuite) TestRequestRefund_GatedAndAccumulates() {
	ctx := context.Background()
	payment := paidPayment("450")
	payment.Status = domain.PaymentRefunded
	payment.RefundedAmount = decimal.NewFromInt(100)

	suite.mockRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockRepo.On("UpdatePaymentRefund", ctx, payment.PaymentID, decimal.NewFromInt(100), decimal.NewFromInt(250), domain.PaymentRefunded, "client dispute", "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.RequestRefund(ctx, payment.PaymentID, dto.RefundPaymentRequest{
		Amount: decimal.NewFromInt(150),
		Reason: "client dispute",
	}, "user-1")

	suite.Require().NoError(err)
	suite.True(updated.RefundedAmount.Equal(decimal.NewFromInt(250)))
	suite.Require().Len(suite.approval.calls, 1)
	suite.Equal(domain.OpRefund, suite.approval.calls[0].opType)
	suite.True(suite.approval.calls[0].amount.Equal(decimal.NewFromInt(150)))
}

func (suite *PaymentServiceTestSuite) TestRequestRefund_ExceedsRefundable() {
	ctx := context.Background()
	payment := paidPayment("450")
	payment.RefundedAmount = decimal.NewFromInt(400)

	suite.mockRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()

	_, err := suite.service.RequestRefund(ctx, payment.PaymentID, dto.RefundPaymentRequest{
		Amount: decimal.RequireFromString("50.01"),
		Reason: "too much",
	}, "user-1")

	suite.ErrorIs(err, services.ErrRefundExceeds)
	suite.Empty(suite.approval.calls)
}

func (suite *PaymentServiceTestSuite) TestRequestRefund_PendingPaymentRejected() {
	ctx := context.Background()
	payment := pendingPayment("450")

	suite.mockRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()

	_, err := suite.service.RequestRefund(ctx, payment.PaymentID, dto.RefundPaymentRequest{
		Amount: decimal.NewFromInt(10),
		Reason: "early",
	}, "user-1")

	suite.ErrorIs(err, services.ErrPaymentNotPaid)
}

func (suite *PaymentServiceTestSuite) TestRequestRefund_HeldByApprovalGate() {
	ctx := context.Background()
	payment := paidPayment("450")
	suite.approval.ensureErr = apperrors.ErrApprovalRequired

	suite.mockRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()

	_, err := suite.service.RequestRefund(ctx, payment.PaymentID, dto.RefundPaymentRequest{
		Amount: decimal.NewFromInt(400),
		Reason: "big refund",
	}, "user-1")

	suite.ErrorIs(err, apperrors.ErrApprovalRequired)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdatePaymentRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
