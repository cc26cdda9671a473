package domain

// Well-known setting keys. Values are stored as strings and parsed by the
// settings service; amounts and percentages use decimal string form.
const (
	SettingDefaultCommissionPercent = "payout.default_commission_percent"
	SettingMinimumHourlyRate        = "pricing.minimum_hourly_rate"
	SettingOverdueDailyInterest     = "invoice.overdue_daily_interest_percent"
	SettingOverduePenaltyPercent    = "invoice.overdue_penalty_percent"
	SettingMinimumPayoutAmount      = "payout.minimum_amount"
	SettingTransferFee              = "payout.transfer_fee"
	SettingReconciliationEpsilon    = "reconciliation.epsilon"
	SettingApprovalExpiryHours      = "approval.pending_expiry_hours"

	// Approval thresholds are keyed per gated operation type, e.g.
	// "approval.threshold.REFUND". See ApprovalThresholdKey.
	settingApprovalThresholdPrefix = "approval.threshold."

	// Per-service-type commission overrides, e.g.
	// "payout.commission_percent.ELDER_CARE". See CommissionPercentKey.
	settingCommissionPercentPrefix = "payout.commission_percent."
)

// ApprovalThresholdKey returns the settings key holding the approval threshold
// for the given operation type.
func ApprovalThresholdKey(op OperationType) string {
	return settingApprovalThresholdPrefix + string(op)
}

// CommissionPercentKey returns the settings key holding the commission percent
// for a service type. Absent keys fall back to the global default.
func CommissionPercentKey(serviceType string) string {
	return settingCommissionPercentPrefix + serviceType
}

// Setting is a versioned configuration value. Writes bump the version and
// append a SettingHistory row; the previous value is never overwritten silently.
type Setting struct {
	Key     string `json:"key"` // Primary key
	Value   string `json:"value"`
	Version int    `json:"version"`
	AuditFields
}

// SettingHistory records one superseded value of a setting.
type SettingHistory struct {
	HistoryID string `json:"historyID"` // Primary key (UUID)
	Key       string `json:"key"`
	Value     string `json:"value"`
	Version   int    `json:"version"`
	ChangedBy string `json:"changedBy"`
	AuditFields
}
