package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SettingsServiceTestSuite struct {
	suite.Suite
	mockRepo *MockSettingRepository
	service  portssvc.SettingsSvcFacade
}

func (suite *SettingsServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockSettingRepository)
	suite.service = services.NewSettingsService(suite.mockRepo, time.Minute)
}

func storedSetting(key, value string, version int) *domain.Setting {
	return &domain.Setting{Key: key, Value: value, Version: version}
}

func (suite *SettingsServiceTestSuite) TestGet_ServesFromCacheWithinTTL() {
	ctx := context.Background()
	suite.mockRepo.On("FindSettingByKey", ctx, "payout.transfer_fee").Return(storedSetting("payout.transfer_fee", "3", 1), nil).Once()

	first, err := suite.service.Get(ctx, "payout.transfer_fee")
	suite.Require().NoError(err)

	// Second read must not touch the repository.
	second, err := suite.service.Get(ctx, "payout.transfer_fee")
	suite.Require().NoError(err)
	suite.Equal(first.Value, second.Value)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "FindSettingByKey", 1)
}

func (suite *SettingsServiceTestSuite) TestGet_ExpiredEntryReloads() {
	ctx := context.Background()
	suite.service = services.NewSettingsService(suite.mockRepo, time.Nanosecond)
	suite.mockRepo.On("FindSettingByKey", ctx, "k").Return(storedSetting("k", "1", 1), nil).Twice()

	_, err := suite.service.Get(ctx, "k")
	suite.Require().NoError(err)
	time.Sleep(time.Millisecond)
	_, err = suite.service.Get(ctx, "k")
	suite.Require().NoError(err)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SettingsServiceTestSuite) TestGet_CachesMisses() {
	ctx := context.Background()
	suite.mockRepo.On("FindSettingByKey", ctx, "unset.key").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.Get(ctx, "unset.key")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	// The miss itself is cached; no second lookup.
	_, err = suite.service.Get(ctx, "unset.key")
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "FindSettingByKey", 1)
}

func (suite *SettingsServiceTestSuite) TestGetString_FallsBackWhenUnset() {
	ctx := context.Background()
	suite.mockRepo.On("FindSettingByKey", ctx, "unset.key").Return(nil, apperrors.ErrNotFound).Once()

	value, err := suite.service.GetString(ctx, "unset.key", "default")

	suite.Require().NoError(err)
	suite.Equal("default", value)
}

func (suite *SettingsServiceTestSuite) TestGetDecimal_ParsesStoredValue() {
	ctx := context.Background()
	suite.mockRepo.On("FindSettingByKey", ctx, "reconciliation.epsilon").Return(storedSetting("reconciliation.epsilon", "0.01", 1), nil).Once()

	value, err := suite.service.GetDecimal(ctx, "reconciliation.epsilon", decimal.Zero)

	suite.Require().NoError(err)
	suite.True(value.Equal(decimal.RequireFromString("0.01")))
}

func (suite *SettingsServiceTestSuite) TestGetDecimal_NonNumericFallsBack() {
	ctx := context.Background()
	suite.mockRepo.On("FindSettingByKey", ctx, "bad.key").Return(storedSetting("bad.key", "not-a-number", 1), nil).Once()

	value, err := suite.service.GetDecimal(ctx, "bad.key", decimal.NewFromInt(7))

	suite.Require().NoError(err)
	suite.True(value.Equal(decimal.NewFromInt(7)))
}

func (suite *SettingsServiceTestSuite) TestSet_BumpsVersionAndInvalidatesCache() {
	ctx := context.Background()
	key := "payout.minimum_amount"

	// Warm the cache with the old value.
	suite.mockRepo.On("FindSettingByKey", ctx, key).Return(storedSetting(key, "50", 3), nil).Twice()
	first, err := suite.service.Get(ctx, key)
	suite.Require().NoError(err)
	suite.Equal("50", first.Value)

	suite.mockRepo.On("SaveSetting", ctx, mock.MatchedBy(func(s domain.Setting) bool {
		return s.Key == key && s.Value == "75" && s.Version == 4
	})).Return(nil).Once()

	updated, err := suite.service.Set(ctx, key, "75", "admin-1")
	suite.Require().NoError(err)
	suite.Equal(4, updated.Version)

	// The next read repopulates from the repository, not the stale cache.
	suite.mockRepo.On("FindSettingByKey", ctx, key).Return(storedSetting(key, "75", 4), nil).Once()
	fresh, err := suite.service.Get(ctx, key)
	suite.Require().NoError(err)
	suite.Equal("75", fresh.Value)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SettingsServiceTestSuite) TestSet_NewKeyStartsAtVersionOne() {
	ctx := context.Background()
	suite.mockRepo.On("FindSettingByKey", ctx, "brand.new").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveSetting", ctx, mock.MatchedBy(func(s domain.Setting) bool {
		return s.Version == 1
	})).Return(nil).Once()

	setting, err := suite.service.Set(ctx, "brand.new", "value", "admin-1")

	suite.Require().NoError(err)
	suite.Equal(1, setting.Version)
}

func (suite *SettingsServiceTestSuite) TestSet_EmptyKeyRejected() {
	ctx := context.Background()

	_, err := suite.service.Set(ctx, "", "value", "admin-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveSetting", mock.Anything, mock.Anything)
}

func (suite *SettingsServiceTestSuite) TestHistory_DefaultsLimit() {
	ctx := context.Background()
	rows := []domain.SettingHistory{{Key: "k", Value: "old", Version: 1}}
	suite.mockRepo.On("ListSettingHistory", ctx, "k", 20).Return(rows, nil).Once()

	history, err := suite.service.History(ctx, "k", 0)

	suite.Require().NoError(err)
	suite.Len(history, 1)
}

func TestSettingsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettingsServiceTestSuite))
}
