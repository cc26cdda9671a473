package services

// ServiceContainer bundles the service facades handed to the HTTP layer at
// wiring time.
type ServiceContainer struct {
	Settings       SettingsSvcFacade
	Pricing        PricingSvcFacade
	Invoice        InvoiceSvcFacade
	Payment        PaymentSvcFacade
	Payout         PayoutSvcFacade
	Approval       ApprovalSvcFacade
	Payable        PayableSvcFacade
	Provision      ProvisionSvcFacade
	Reconciliation ReconciliationSvcFacade
}
