package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ApprovalServiceTestSuite struct {
	suite.Suite
	mockRepo *MockApprovalRepository
	settings *fakeSettings
	service  portssvc.ApprovalSvcFacade
}

func (suite *ApprovalServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockApprovalRepository)
	suite.settings = newFakeSettings()
	suite.settings.set(domain.ApprovalThresholdKey(domain.OpRefund), "500")
	suite.service = services.NewApprovalService(suite.mockRepo, suite.settings)
}

func (suite *ApprovalServiceTestSuite) TestEvaluate_BelowThresholdAutoApproves() {
	ctx := context.Background()
	refID := uuid.NewString()

	suite.mockRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalAutoApproved && a.DecidedAt != nil
	})).Return(nil).Once()

	approval, err := suite.service.Evaluate(ctx, domain.OpRefund, refID, decimal.RequireFromString("499.99"), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalAutoApproved, approval.Status)
	suite.True(approval.Threshold.Equal(decimal.NewFromInt(500)))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestEvaluate_EqualToThresholdBlocks() {
	ctx := context.Background()
	refID := uuid.NewString()

	suite.mockRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalPending && a.ExpiresAt != nil
	})).Return(nil).Once()

	approval, err := suite.service.Evaluate(ctx, domain.OpRefund, refID, decimal.NewFromInt(500), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalPending, approval.Status)
}

func (suite *ApprovalServiceTestSuite) TestEvaluate_UnconfiguredThresholdGatesEverything() {
	ctx := context.Background()

	// No threshold set for PAYOUT: the zero default holds any positive amount.
	suite.mockRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalPending
	})).Return(nil).Once()

	approval, err := suite.service.Evaluate(ctx, domain.OpPayout, uuid.NewString(), decimal.NewFromInt(1), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalPending, approval.Status)
}

func (suite *ApprovalServiceTestSuite) TestEvaluate_UnknownOperationType() {
	ctx := context.Background()

	_, err := suite.service.Evaluate(ctx, domain.OperationType("LUNCH"), uuid.NewString(), decimal.NewFromInt(10), "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_FirstSightBelowThreshold() {
	ctx := context.Background()
	refID := uuid.NewString()

	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveApproval", ctx, mock.AnythingOfType("domain.Approval")).Return(nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(100), "user-1")

	suite.Require().NoError(err)
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_FirstSightAtThresholdHolds() {
	ctx := context.Background()
	refID := uuid.NewString()

	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveApproval", ctx, mock.AnythingOfType("domain.Approval")).Return(nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(750), "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrApprovalRequired)
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_PendingBlocks() {
	ctx := context.Background()
	refID := uuid.NewString()
	expires := time.Now().UTC().Add(time.Hour)
	latest := &domain.Approval{
		ApprovalID: uuid.NewString(),
		Status:     domain.ApprovalPending,
		Amount:     decimal.NewFromInt(750),
		ExpiresAt:  &expires,
	}

	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(latest, nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(750), "user-1")

	suite.ErrorIs(err, apperrors.ErrApprovalRequired)
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_ExpiredPendingReGates() {
	ctx := context.Background()
	refID := uuid.NewString()
	expires := time.Now().UTC().Add(-time.Hour)
	latest := &domain.Approval{
		ApprovalID: uuid.NewString(),
		Status:     domain.ApprovalPending,
		Amount:     decimal.NewFromInt(750),
		ExpiresAt:  &expires,
	}

	// The lapsed hold does not block forever: a fresh pending row is recorded
	// and the caller is told to wait on it.
	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(latest, nil).Once()
	suite.mockRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalPending &&
			a.Amount.Equal(decimal.NewFromInt(750)) &&
			a.ApprovalID != latest.ApprovalID &&
			a.ExpiresAt != nil && a.ExpiresAt.After(time.Now().UTC())
	})).Return(nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(750), "user-1")

	suite.ErrorIs(err, apperrors.ErrApprovalRequired)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_ExpiredPendingBelowThresholdAutoApproves() {
	ctx := context.Background()
	refID := uuid.NewString()
	expires := time.Now().UTC().Add(-time.Hour)
	latest := &domain.Approval{
		ApprovalID: uuid.NewString(),
		Status:     domain.ApprovalPending,
		Amount:     decimal.NewFromInt(750),
		ExpiresAt:  &expires,
	}

	// Re-evaluation after expiry applies the current threshold to the current
	// amount: a reduced retry clears the gate.
	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(latest, nil).Once()
	suite.mockRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalAutoApproved && a.Amount.Equal(decimal.NewFromInt(400))
	})).Return(nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(400), "user-1")

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_RejectedForbids() {
	ctx := context.Background()
	refID := uuid.NewString()
	latest := &domain.Approval{
		ApprovalID: uuid.NewString(),
		Status:     domain.ApprovalRejected,
		Amount:     decimal.NewFromInt(750),
	}

	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(latest, nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(750), "user-1")

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_ApprovedSameAmountProceeds() {
	ctx := context.Background()
	refID := uuid.NewString()
	latest := &domain.Approval{
		ApprovalID: uuid.NewString(),
		Status:     domain.ApprovalApproved,
		Amount:     decimal.NewFromInt(750),
	}

	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(latest, nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(750), "user-1")

	suite.Require().NoError(err)
}

func (suite *ApprovalServiceTestSuite) TestEnsureApproved_ApprovedDifferentAmountReGates() {
	ctx := context.Background()
	refID := uuid.NewString()
	latest := &domain.Approval{
		ApprovalID: uuid.NewString(),
		Status:     domain.ApprovalApproved,
		Amount:     decimal.NewFromInt(750),
	}

	suite.mockRepo.On("FindLatestApprovalByReference", ctx, domain.OpRefund, refID).Return(latest, nil).Once()
	// The stale decision covered 750; the new 900 is re-evaluated and held.
	suite.mockRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalPending && a.Amount.Equal(decimal.NewFromInt(900))
	})).Return(nil).Once()

	err := suite.service.EnsureApproved(ctx, domain.OpRefund, refID, decimal.NewFromInt(900), "user-1")

	suite.ErrorIs(err, apperrors.ErrApprovalRequired)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestApprove_Success() {
	ctx := context.Background()
	approvalID := uuid.NewString()
	expires := time.Now().UTC().Add(time.Hour)
	pending := &domain.Approval{
		ApprovalID: approvalID,
		Status:     domain.ApprovalPending,
		ExpiresAt:  &expires,
	}

	suite.mockRepo.On("FindApprovalByID", ctx, approvalID).Return(pending, nil).Once()
	suite.mockRepo.On("DecideApproval", ctx, approvalID, domain.ApprovalApproved, "manager-1", "looks fine", mock.AnythingOfType("time.Time")).Return(nil).Once()

	approval, err := suite.service.Approve(ctx, approvalID, "manager-1", "looks fine")

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalApproved, approval.Status)
	suite.Require().NotNil(approval.DecidedBy)
	suite.Equal("manager-1", *approval.DecidedBy)
}

func (suite *ApprovalServiceTestSuite) TestApprove_AlreadyDecided() {
	ctx := context.Background()
	approvalID := uuid.NewString()
	decided := &domain.Approval{
		ApprovalID: approvalID,
		Status:     domain.ApprovalRejected,
	}

	suite.mockRepo.On("FindApprovalByID", ctx, approvalID).Return(decided, nil).Once()

	_, err := suite.service.Approve(ctx, approvalID, "manager-1", "again")

	suite.ErrorIs(err, services.ErrApprovalDecided)
	suite.mockRepo.AssertNotCalled(suite.T(), "DecideApproval", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ApprovalServiceTestSuite) TestReject_ExpiredPending() {
	ctx := context.Background()
	approvalID := uuid.NewString()
	expires := time.Now().UTC().Add(-time.Minute)
	pending := &domain.Approval{
		ApprovalID: approvalID,
		Status:     domain.ApprovalPending,
		ExpiresAt:  &expires,
	}

	suite.mockRepo.On("FindApprovalByID", ctx, approvalID).Return(pending, nil).Once()

	_, err := suite.service.Reject(ctx, approvalID, "manager-1", "too late")

	suite.ErrorIs(err, apperrors.ErrApprovalExpired)
}

func (suite *ApprovalServiceTestSuite) TestApprove_ConcurrentDecisionLoses() {
	ctx := context.Background()
	approvalID := uuid.NewString()
	expires := time.Now().UTC().Add(time.Hour)
	pending := &domain.Approval{
		ApprovalID: approvalID,
		Status:     domain.ApprovalPending,
		ExpiresAt:  &expires,
	}

	suite.mockRepo.On("FindApprovalByID", ctx, approvalID).Return(pending, nil).Once()
	suite.mockRepo.On("DecideApproval", ctx, approvalID, domain.ApprovalApproved, "manager-1", "", mock.AnythingOfType("time.Time")).Return(apperrors.ErrConflict).Once()

	_, err := suite.service.Approve(ctx, approvalID, "manager-1", "")

	suite.ErrorIs(err, services.ErrApprovalDecided)
}

func TestApprovalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}
