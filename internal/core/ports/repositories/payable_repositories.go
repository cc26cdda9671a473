package repositories

import (
	"context"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
)

// PayableReader defines read operations for payables.
type PayableReader interface {
	// FindPayableByID retrieves a payable by its ID.
	FindPayableByID(ctx context.Context, payableID string) (*domain.Payable, error)

	// ListPayablesByStatus retrieves payables in the given status, due first.
	ListPayablesByStatus(ctx context.Context, status domain.PayableStatus, limit int) ([]domain.Payable, error)
}

// PayableWriter defines write operations for payables.
type PayableWriter interface {
	// SavePayable persists a new payable.
	SavePayable(ctx context.Context, payable domain.Payable) error

	// UpdatePayableStatus transitions status with a compare-and-set on the
	// expected current status, recording schedule/payment fields.
	UpdatePayableStatus(ctx context.Context, payableID string, from, to domain.PayableStatus, update domain.Payable, userID string, now time.Time) error
}

// PayableRepositoryFacade combines read and write operations.
type PayableRepositoryFacade interface {
	PayableReader
	PayableWriter
}
