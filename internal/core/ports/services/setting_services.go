package services

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettingsSvcFacade is the explicit configuration dependency injected into the
// finance services. Reads go through an in-process cache invalidated
// synchronously on write.
type SettingsSvcFacade interface {
	// GetString retrieves a setting value, falling back when unset.
	GetString(ctx context.Context, key string, fallback string) (string, error)

	// GetDecimal retrieves a numeric setting value, falling back when unset
	// or unparsable.
	GetDecimal(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error)

	// Get retrieves the full setting row, bypassing nothing: cached reads are
	// stale-but-eventually-consistent between a write and its invalidation.
	Get(ctx context.Context, key string) (*domain.Setting, error)

	// Set writes a setting, records history, and invalidates the cache entry
	// before returning.
	Set(ctx context.Context, key, value, userID string) (*domain.Setting, error)

	// History lists superseded values for a key, newest first.
	History(ctx context.Context, key string, limit int) ([]domain.SettingHistory, error)
}
