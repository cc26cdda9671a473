package services_test

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Fake SettingsSvcFacade ---

// fakeSettings is a map-backed settings facade. Tests set exactly the keys
// they need; everything else resolves to the fallback.
type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]string)}
}

func (f *fakeSettings) set(key, value string) {
	f.values[key] = value
}

func (f *fakeSettings) GetString(_ context.Context, key string, fallback string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func (f *fakeSettings) GetDecimal(_ context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v, ok := f.values[key]
	if !ok {
		return fallback, nil
	}
	parsed, err := decimal.NewFromString(v)
	if err != nil {
		return fallback, nil
	}
	return parsed, nil
}

func (f *fakeSettings) Get(_ context.Context, key string) (*domain.Setting, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &domain.Setting{Key: key, Value: v, Version: 1}, nil
}

func (f *fakeSettings) Set(_ context.Context, key, value, _ string) (*domain.Setting, error) {
	f.values[key] = value
	return &domain.Setting{Key: key, Value: value, Version: 1}, nil
}

func (f *fakeSettings) History(_ context.Context, _ string, _ int) ([]domain.SettingHistory, error) {
	return nil, nil
}

// --- Fake ApprovalSvcFacade ---

type approvalCall struct {
	opType domain.OperationType
	refID  string
	amount decimal.Decimal
}

// fakeApproval lets through by default; tests set ensureErr to simulate a
// blocked gate. Every EnsureApproved call is recorded.
type fakeApproval struct {
	ensureErr error
	calls     []approvalCall
}

func (f *fakeApproval) Evaluate(_ context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, _ string) (*domain.Approval, error) {
	return &domain.Approval{OperationType: opType, ReferenceID: referenceID, Amount: amount, Status: domain.ApprovalAutoApproved}, nil
}

func (f *fakeApproval) EnsureApproved(_ context.Context, opType domain.OperationType, referenceID string, amount decimal.Decimal, _ string) error {
	f.calls = append(f.calls, approvalCall{opType: opType, refID: referenceID, amount: amount})
	return f.ensureErr
}

func (f *fakeApproval) Approve(_ context.Context, _ string, _, _ string) (*domain.Approval, error) {
	return nil, nil
}

func (f *fakeApproval) Reject(_ context.Context, _ string, _, _ string) (*domain.Approval, error) {
	return nil, nil
}

func (f *fakeApproval) GetApproval(_ context.Context, _ string) (*domain.Approval, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeApproval) ListPending(_ context.Context, _ int) ([]domain.Approval, error) {
	return nil, nil
}

// --- Fake InvoiceSvcFacade ---

// fakeInvoiceSettler records MarkPaid calls; the other lifecycle methods are
// unused by the collaborators under test.
type fakeInvoiceSettler struct {
	paidInvoices []string
	markPaidErr  error
}

func (f *fakeInvoiceSettler) CreateInvoice(_ context.Context, _ dto.CreateInvoiceRequest, _ string) (*domain.Invoice, error) {
	return nil, apperrors.ErrInternal
}

func (f *fakeInvoiceSettler) GetInvoice(_ context.Context, _ string) (*domain.Invoice, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeInvoiceSettler) ListInvoices(_ context.Context, _ dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	return &dto.ListInvoicesResponse{}, nil
}

func (f *fakeInvoiceSettler) ApplyDiscount(_ context.Context, _ string, _ dto.ApplyDiscountRequest, _ string) (*domain.Invoice, error) {
	return nil, apperrors.ErrInternal
}

func (f *fakeInvoiceSettler) MarkPaid(_ context.Context, invoiceID string, _ string) error {
	f.paidInvoices = append(f.paidInvoices, invoiceID)
	return f.markPaidErr
}

func (f *fakeInvoiceSettler) MarkOverdue(_ context.Context, _ string, _ string) error {
	return nil
}

func (f *fakeInvoiceSettler) MarkCanceled(_ context.Context, _ string, _ string) error {
	return nil
}

func (f *fakeInvoiceSettler) OverdueTotal(_ context.Context, _ string) (*dto.OverdueTotalResponse, error) {
	return nil, apperrors.ErrNotFound
}

// --- Mock PricingSvcFacade ---

type MockPricingSvc struct {
	mock.Mock
}

func (m *MockPricingSvc) CreatePlan(ctx context.Context, req dto.CreatePricePlanRequest, userID string) (*domain.PricePlan, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePlan), args.Error(1)
}

func (m *MockPricingSvc) AddRule(ctx context.Context, planID string, req dto.AddPriceRuleRequest, userID string) (*domain.PriceRule, error) {
	args := m.Called(ctx, planID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceRule), args.Error(1)
}

func (m *MockPricingSvc) GetPlan(ctx context.Context, planID string) (*domain.PricePlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePlan), args.Error(1)
}

func (m *MockPricingSvc) DeactivatePlan(ctx context.Context, planID string, userID string) error {
	args := m.Called(ctx, planID, userID)
	return args.Error(0)
}

func (m *MockPricingSvc) ComputePrice(ctx context.Context, planID string, quantity decimal.Decimal, pricingCtx map[string]string) (decimal.Decimal, error) {
	args := m.Called(ctx, planID, quantity, pricingCtx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPricingSvc) PriceService(ctx context.Context, serviceType, region string, quantity decimal.Decimal, pricingCtx map[string]string) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, serviceType, region, quantity, pricingCtx)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

// --- Inline TaskDispatcher ---

// inlineDispatcher runs dispatched tasks synchronously so tests observe their
// effects deterministically.
type inlineDispatcher struct {
	names []string
}

func (d *inlineDispatcher) Dispatch(name string, fn func(ctx context.Context)) {
	d.names = append(d.names, name)
	fn(context.Background())
}

// --- Mock PaymentGateway ---

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) InitiateCharge(ctx context.Context, idempotencyKey string, amount string, method string) error {
	args := m.Called(ctx, idempotencyKey, amount, method)
	return args.Error(0)
}

func (m *MockPaymentGateway) InitiateTransfer(ctx context.Context, idempotencyKey string, amount string, destination string) error {
	args := m.Called(ctx, idempotencyKey, amount, destination)
	return args.Error(0)
}

// --- Mock SettingRepository ---

type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) FindSettingByKey(ctx context.Context, key string) (*domain.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *MockSettingRepository) ListSettingHistory(ctx context.Context, key string, limit int) ([]domain.SettingHistory, error) {
	args := m.Called(ctx, key, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SettingHistory), args.Error(1)
}

func (m *MockSettingRepository) SaveSetting(ctx context.Context, setting domain.Setting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

// --- Mock PricePlanRepository ---

type MockPricePlanRepository struct {
	mock.Mock
}

func (m *MockPricePlanRepository) FindPlanByID(ctx context.Context, planID string) (*domain.PricePlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePlan), args.Error(1)
}

func (m *MockPricePlanRepository) FindActivePlanForService(ctx context.Context, serviceType string, region string) (*domain.PricePlan, error) {
	args := m.Called(ctx, serviceType, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePlan), args.Error(1)
}

func (m *MockPricePlanRepository) SavePlan(ctx context.Context, plan domain.PricePlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPricePlanRepository) SaveRule(ctx context.Context, rule domain.PriceRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockPricePlanRepository) DeactivatePlan(ctx context.Context, planID string, userID string, now time.Time) error {
	args := m.Called(ctx, planID, userID, now)
	return args.Error(0)
}

// --- Mock InvoiceRepository ---

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListInvoices(ctx context.Context, clientID string, period domain.Period, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	args := m.Called(ctx, clientID, period, limit, nextToken)
	var invoices []domain.Invoice
	if args.Get(0) != nil {
		invoices = args.Get(0).([]domain.Invoice)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return invoices, token, args.Error(2)
}

func (m *MockInvoiceRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]domain.Invoice, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SumInvoicedByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) SumOverdueReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, items []domain.InvoiceItem) error {
	args := m.Called(ctx, invoice, items)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateInvoiceTotals(ctx context.Context, invoiceID string, total, discount decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, invoiceID, total, discount, userID, now)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, from, to domain.InvoiceStatus, paidAt *time.Time, userID string, now time.Time) error {
	args := m.Called(ctx, invoiceID, from, to, paidAt, userID, now)
	return args.Error(0)
}

// --- Mock PaymentRepository ---

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumReceivedByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, from, to domain.PaymentStatus, update domain.Payment, now time.Time) error {
	args := m.Called(ctx, paymentID, from, to, update, now)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdatePaymentRefund(ctx context.Context, paymentID string, expectedRefunded, newRefunded decimal.Decimal, status domain.PaymentStatus, reason string, userID string, now time.Time) error {
	args := m.Called(ctx, paymentID, expectedRefunded, newRefunded, status, reason, userID, now)
	return args.Error(0)
}

// --- Mock PayoutRepository ---

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) FindPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) FindOpenPayout(ctx context.Context, caregiverID string, period domain.Period) (*domain.Payout, error) {
	args := m.Called(ctx, caregiverID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ListPayoutsByCaregiver(ctx context.Context, caregiverID string, limit int) ([]domain.Payout, error) {
	args := m.Called(ctx, caregiverID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ListCommissionableItems(ctx context.Context, caregiverID string, period domain.Period) ([]domain.InvoiceItem, error) {
	args := m.Called(ctx, caregiverID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceItem), args.Error(1)
}

func (m *MockPayoutRepository) SumPayoutsByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPayoutRepository) SumTransferFeesByPeriod(ctx context.Context, period domain.Period) (decimal.Decimal, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPayoutRepository) SavePayout(ctx context.Context, payout domain.Payout, items []domain.PayoutItem) error {
	args := m.Called(ctx, payout, items)
	return args.Error(0)
}

func (m *MockPayoutRepository) ReplacePayoutItems(ctx context.Context, payout domain.Payout, items []domain.PayoutItem) error {
	args := m.Called(ctx, payout, items)
	return args.Error(0)
}

func (m *MockPayoutRepository) UpdatePayoutStatus(ctx context.Context, payoutID string, from, to domain.PayoutStatus, transferRef, cancelReason *string, paidAt *time.Time, userID string, now time.Time) error {
	args := m.Called(ctx, payoutID, from, to, transferRef, cancelReason, paidAt, userID, now)
	return args.Error(0)
}

// --- Mock ApprovalRepository ---

type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) FindApprovalByID(ctx context.Context, approvalID string) (*domain.Approval, error) {
	args := m.Called(ctx, approvalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Approval), args.Error(1)
}

func (m *MockApprovalRepository) FindLatestApprovalByReference(ctx context.Context, opType domain.OperationType, referenceID string) (*domain.Approval, error) {
	args := m.Called(ctx, opType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Approval), args.Error(1)
}

func (m *MockApprovalRepository) ListPendingApprovals(ctx context.Context, limit int) ([]domain.Approval, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Approval), args.Error(1)
}

func (m *MockApprovalRepository) SaveApproval(ctx context.Context, approval domain.Approval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockApprovalRepository) DecideApproval(ctx context.Context, approvalID string, to domain.ApprovalStatus, deciderID, reason string, decidedAt time.Time) error {
	args := m.Called(ctx, approvalID, to, deciderID, reason, decidedAt)
	return args.Error(0)
}

// --- Mock PayableRepository ---

type MockPayableRepository struct {
	mock.Mock
}

func (m *MockPayableRepository) FindPayableByID(ctx context.Context, payableID string) (*domain.Payable, error) {
	args := m.Called(ctx, payableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payable), args.Error(1)
}

func (m *MockPayableRepository) ListPayablesByStatus(ctx context.Context, status domain.PayableStatus, limit int) ([]domain.Payable, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payable), args.Error(1)
}

func (m *MockPayableRepository) SavePayable(ctx context.Context, payable domain.Payable) error {
	args := m.Called(ctx, payable)
	return args.Error(0)
}

func (m *MockPayableRepository) UpdatePayableStatus(ctx context.Context, payableID string, from, to domain.PayableStatus, update domain.Payable, userID string, now time.Time) error {
	args := m.Called(ctx, payableID, from, to, update, userID, now)
	return args.Error(0)
}

// --- Mock ProvisionRepository ---

type MockProvisionRepository struct {
	mock.Mock
}

func (m *MockProvisionRepository) FindProvisionByID(ctx context.Context, provisionID string) (*domain.Provision, error) {
	args := m.Called(ctx, provisionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Provision), args.Error(1)
}

func (m *MockProvisionRepository) FindProvision(ctx context.Context, period domain.Period, provType domain.ProvisionType) (*domain.Provision, error) {
	args := m.Called(ctx, period, provType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Provision), args.Error(1)
}

func (m *MockProvisionRepository) SaveProvision(ctx context.Context, provision domain.Provision) error {
	args := m.Called(ctx, provision)
	return args.Error(0)
}

func (m *MockProvisionRepository) UpdateProvisionUsage(ctx context.Context, provisionID string, expectedUsed, newUsed decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, provisionID, expectedUsed, newUsed, userID, now)
	return args.Error(0)
}

func (m *MockProvisionRepository) UpdateProvisionEstimate(ctx context.Context, provisionID string, calculated decimal.Decimal, adjusted *decimal.Decimal, adjustedBy *string, userID string, now time.Time) error {
	args := m.Called(ctx, provisionID, calculated, adjusted, adjustedBy, userID, now)
	return args.Error(0)
}

// --- Mock ReconciliationRepository ---

type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) FindReconciliationByPeriod(ctx context.Context, period domain.Period) (*domain.Reconciliation, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
