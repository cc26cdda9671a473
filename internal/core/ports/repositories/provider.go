package repositories

// RepositoryProvider bundles the concrete repositories handed to the service
// layer at wiring time.
type RepositoryProvider struct {
	SettingRepo        SettingRepositoryFacade
	PricePlanRepo      PricePlanRepositoryFacade
	InvoiceRepo        InvoiceRepositoryFacade
	PaymentRepo        PaymentRepositoryFacade
	PayoutRepo         PayoutRepositoryFacade
	ApprovalRepo       ApprovalRepositoryFacade
	PayableRepo        PayableRepositoryFacade
	ProvisionRepo      ProvisionRepositoryFacade
	ReconciliationRepo ReconciliationRepositoryFacade
}
