package repositories

import (
	"context"

	"github.com/cuidobem/finance-backend/internal/core/domain"
)

// SettingReader defines read operations for configuration values.
type SettingReader interface {
	// FindSettingByKey retrieves a setting by its key.
	FindSettingByKey(ctx context.Context, key string) (*domain.Setting, error)

	// ListSettingHistory retrieves the change history for a key, newest first.
	ListSettingHistory(ctx context.Context, key string, limit int) ([]domain.SettingHistory, error)
}

// SettingWriter defines write operations for configuration values.
type SettingWriter interface {
	// SaveSetting upserts a setting, bumping its version and appending the
	// superseded value to the history table in the same transaction.
	SaveSetting(ctx context.Context, setting domain.Setting) error
}

// SettingRepositoryFacade combines read and write operations.
type SettingRepositoryFacade interface {
	SettingReader
	SettingWriter
}
