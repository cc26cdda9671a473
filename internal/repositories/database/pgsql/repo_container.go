package pgsql

import (
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		SettingRepo:        newPgxSettingRepository(dbPool),
		PricePlanRepo:      newPgxPricePlanRepository(dbPool),
		InvoiceRepo:        newPgxInvoiceRepository(dbPool),
		PaymentRepo:        newPgxPaymentRepository(dbPool),
		PayoutRepo:         newPgxPayoutRepository(dbPool),
		ApprovalRepo:       newPgxApprovalRepository(dbPool),
		PayableRepo:        newPgxPayableRepository(dbPool),
		ProvisionRepo:      newPgxProvisionRepository(dbPool),
		ReconciliationRepo: newPgxReconciliationRepository(dbPool),
	}
}
