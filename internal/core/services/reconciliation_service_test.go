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

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockRepo        *MockReconciliationRepository
	mockInvoiceRepo *MockInvoiceRepository
	mockPaymentRepo *MockPaymentRepository
	mockPayoutRepo  *MockPayoutRepository
	settings        *fakeSettings
	service         portssvc.ReconciliationSvcFacade
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockReconciliationRepository)
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockPayoutRepo = new(MockPayoutRepository)
	suite.settings = newFakeSettings()
	suite.service = services.NewReconciliationService(
		suite.mockRepo, suite.mockInvoiceRepo, suite.mockPaymentRepo, suite.mockPayoutRepo, suite.settings,
	)
}

func (suite *ReconciliationServiceTestSuite) expectAggregates(period domain.Period, invoiced, received, payouts, fees string) {
	ctx := context.Background()
	suite.mockInvoiceRepo.On("SumInvoicedByPeriod", ctx, period).Return(decimal.RequireFromString(invoiced), nil).Once()
	suite.mockPaymentRepo.On("SumReceivedByPeriod", ctx, period).Return(decimal.RequireFromString(received), nil).Once()
	suite.mockPayoutRepo.On("SumPayoutsByPeriod", ctx, period).Return(decimal.RequireFromString(payouts), nil).Once()
	suite.mockPayoutRepo.On("SumTransferFeesByPeriod", ctx, period).Return(decimal.RequireFromString(fees), nil).Once()
}

func (suite *ReconciliationServiceTestSuite) TestClosePeriod_ComputesBalanceAndDiscrepancy() {
	ctx := context.Background()
	period := domain.Period("2026-07")

	suite.mockRepo.On("FindReconciliationByPeriod", ctx, period).Return(nil, apperrors.ErrNotFound).Once()
	suite.expectAggregates(period, "10000", "9400", "6580", "45")
	suite.mockRepo.On("SaveReconciliation", ctx, mock.MatchedBy(func(r domain.Reconciliation) bool {
		// balance 9400 − 6580 − 45 = 2775, discrepancy 10000 − 9400 = 600
		return r.Status == domain.ReconciliationClosed &&
			r.Balance.Equal(decimal.NewFromInt(2775)) &&
			r.Discrepancy.Equal(decimal.NewFromInt(600))
	})).Return(nil).Once()

	rec, err := suite.service.ClosePeriod(ctx, dto.ClosePeriodRequest{Period: "2026-07"}, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationClosed, rec.Status)
	suite.True(rec.Balance.Equal(decimal.NewFromInt(2775)))
	suite.True(rec.Discrepancy.Equal(decimal.NewFromInt(600)))
	suite.Require().NotNil(rec.ClosedBy)
	suite.Equal("user-1", *rec.ClosedBy)
	suite.NotNil(rec.ClosedAt)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestClosePeriod_AlreadyClosed() {
	ctx := context.Background()
	period := domain.Period("2026-07")
	closedAt := time.Now().UTC()
	existing := &domain.Reconciliation{
		ReconciliationID: uuid.NewString(),
		Period:           period,
		Status:           domain.ReconciliationClosed,
		ClosedAt:         &closedAt,
	}

	suite.mockRepo.On("FindReconciliationByPeriod", ctx, period).Return(existing, nil).Once()

	_, err := suite.service.ClosePeriod(ctx, dto.ClosePeriodRequest{Period: "2026-07"}, "user-1")

	suite.ErrorIs(err, services.ErrPeriodClosed)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveReconciliation", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestClosePeriod_ConcurrentCloseLoses() {
	ctx := context.Background()
	period := domain.Period("2026-07")

	suite.mockRepo.On("FindReconciliationByPeriod", ctx, period).Return(nil, apperrors.ErrNotFound).Once()
	suite.expectAggregates(period, "10000", "10000", "7000", "45")
	suite.mockRepo.On("SaveReconciliation", ctx, mock.AnythingOfType("domain.Reconciliation")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.ClosePeriod(ctx, dto.ClosePeriodRequest{Period: "2026-07"}, "user-1")

	suite.ErrorIs(err, services.ErrPeriodClosed)
}

func (suite *ReconciliationServiceTestSuite) TestClosePeriod_InvalidPeriod() {
	ctx := context.Background()

	_, err := suite.service.ClosePeriod(ctx, dto.ClosePeriodRequest{Period: "Q3-2026"}, "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestGetByPeriod() {
	ctx := context.Background()
	period := domain.Period("2026-06")
	existing := &domain.Reconciliation{
		ReconciliationID: uuid.NewString(),
		Period:           period,
		Status:           domain.ReconciliationClosed,
	}

	suite.mockRepo.On("FindReconciliationByPeriod", ctx, period).Return(existing, nil).Once()

	rec, err := suite.service.GetByPeriod(ctx, period)

	suite.Require().NoError(err)
	suite.Equal(existing.ReconciliationID, rec.ReconciliationID)
}

func (suite *ReconciliationServiceTestSuite) TestEpsilon_ConfiguredValue() {
	ctx := context.Background()
	suite.settings.set(domain.SettingReconciliationEpsilon, "0.05")

	epsilon, err := suite.service.Epsilon(ctx)

	suite.Require().NoError(err)
	suite.True(epsilon.Equal(decimal.RequireFromString("0.05")))
}

func (suite *ReconciliationServiceTestSuite) TestDiscrepancyFlag_RespectsEpsilon() {
	rec := domain.Reconciliation{Discrepancy: decimal.RequireFromString("0.01")}
	suite.False(rec.HasDiscrepancy(decimal.RequireFromString("0.01")), "at epsilon is tolerated")

	rec.Discrepancy = decimal.RequireFromString("-0.02")
	suite.True(rec.HasDiscrepancy(decimal.RequireFromString("0.01")), "negative discrepancies count by magnitude")
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
