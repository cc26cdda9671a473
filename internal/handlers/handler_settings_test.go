package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SettingsSvcFacade ---

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetString(ctx context.Context, key string, fallback string) (string, error) {
	args := m.Called(ctx, key, fallback)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) GetDecimal(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, key, fallback)
	if args.Get(0) == nil {
		return decimal.Decimal{}, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockSettingsService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *MockSettingsService) Set(ctx context.Context, key, value, userID string) (*domain.Setting, error) {
	args := m.Called(ctx, key, value, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *MockSettingsService) History(ctx context.Context, key string, limit int) ([]domain.SettingHistory, error) {
	args := m.Called(ctx, key, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SettingHistory), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.SettingsSvcFacade = (*MockSettingsService)(nil)

// --- Test Suite ---

type SettingsHandlerTestSuite struct {
	suite.Suite
	router              *gin.Engine
	mockSettingsService *MockSettingsService
}

func (suite *SettingsHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.mockSettingsService = new(MockSettingsService)

	v1 := suite.router.Group("/api/v1", middleware.ActorMiddleware())
	registerSettingsRoutes(v1, suite.mockSettingsService)
}

func (suite *SettingsHandlerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *SettingsHandlerTestSuite) TestGetSetting_Success() {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	setting := &domain.Setting{
		Key:     "approval.threshold.REFUND",
		Value:   "500",
		Version: 3,
		AuditFields: domain.AuditFields{
			CreatedAt:     now.Add(-48 * time.Hour),
			CreatedBy:     "manager-1",
			LastUpdatedAt: now,
			LastUpdatedBy: "manager-2",
		},
	}

	suite.mockSettingsService.On("Get", mock.Anything, "approval.threshold.REFUND").
		Return(setting, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/settings/approval.threshold.REFUND", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var body dto.SettingResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("approval.threshold.REFUND", body.Key)
	suite.Equal("500", body.Value)
	suite.Equal(3, body.Version)
	suite.Equal("manager-2", body.LastUpdatedBy)

	suite.mockSettingsService.AssertExpectations(suite.T())
}

func (suite *SettingsHandlerTestSuite) TestGetSetting_NotFound() {
	suite.mockSettingsService.On("Get", mock.Anything, "no.such.key").
		Return(nil, apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/settings/no.such.key", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockSettingsService.AssertExpectations(suite.T())
}

func (suite *SettingsHandlerTestSuite) TestUpdateSetting_UsesActorHeader() {
	updated := &domain.Setting{
		Key:     "payout.transfer_fee",
		Value:   "3.50",
		Version: 4,
		AuditFields: domain.AuditFields{
			LastUpdatedAt: time.Now(),
			LastUpdatedBy: "manager-1",
		},
	}

	// The acting user comes from the X-Actor-ID header, not the payload.
	suite.mockSettingsService.On("Set", mock.Anything, "payout.transfer_fee", "3.50", "manager-1").
		Return(updated, nil).Once()

	payload, _ := json.Marshal(dto.UpdateSettingRequest{Value: "3.50"})
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/settings/payout.transfer_fee", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "manager-1")
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var body dto.SettingResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(4, body.Version)
	suite.Equal("3.50", body.Value)

	suite.mockSettingsService.AssertExpectations(suite.T())
}

func (suite *SettingsHandlerTestSuite) TestUpdateSetting_NoActorFallsBackToSystem() {
	updated := &domain.Setting{Key: "reconciliation.epsilon", Value: "0.05", Version: 1}

	suite.mockSettingsService.On("Set", mock.Anything, "reconciliation.epsilon", "0.05", "system").
		Return(updated, nil).Once()

	payload, _ := json.Marshal(dto.UpdateSettingRequest{Value: "0.05"})
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/settings/reconciliation.epsilon", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockSettingsService.AssertExpectations(suite.T())
}

func (suite *SettingsHandlerTestSuite) TestUpdateSetting_MissingValueRejected() {
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/settings/payout.transfer_fee", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "manager-1")
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSettingsService.AssertNotCalled(suite.T(), "Set")
}

func (suite *SettingsHandlerTestSuite) TestSettingHistory_DefaultLimit() {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	rows := []domain.SettingHistory{
		{Key: "payout.transfer_fee", Value: "3.50", Version: 2, ChangedBy: "manager-2", AuditFields: domain.AuditFields{CreatedAt: now}},
		{Key: "payout.transfer_fee", Value: "3", Version: 1, ChangedBy: "manager-1", AuditFields: domain.AuditFields{CreatedAt: now.Add(-24 * time.Hour)}},
	}

	suite.mockSettingsService.On("History", mock.Anything, "payout.transfer_fee", 20).
		Return(rows, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/settings/payout.transfer_fee/history", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var body []dto.SettingHistoryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().Len(body, 2)
	suite.Equal("3.50", body[0].Value)
	suite.Equal(2, body[0].Version)
	suite.Equal("manager-1", body[1].ChangedBy)

	suite.mockSettingsService.AssertExpectations(suite.T())
}

func (suite *SettingsHandlerTestSuite) TestSettingHistory_ExplicitLimit() {
	suite.mockSettingsService.On("History", mock.Anything, "payout.transfer_fee", 5).
		Return([]domain.SettingHistory{}, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/settings/payout.transfer_fee/history?limit=5", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockSettingsService.AssertExpectations(suite.T())
}

// --- Run Test Suite ---

func TestSettingsHandler(t *testing.T) {
	suite.Run(t, new(SettingsHandlerTestSuite))
}
