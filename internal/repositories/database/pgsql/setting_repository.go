package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSettingRepository struct {
	BaseRepository
}

// newPgxSettingRepository creates a new repository for configuration values.
func newPgxSettingRepository(pool *pgxpool.Pool) portsrepo.SettingRepositoryFacade {
	return &PgxSettingRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.SettingRepositoryFacade = (*PgxSettingRepository)(nil)

// FindSettingByKey retrieves a setting by its key.
func (r *PgxSettingRepository) FindSettingByKey(ctx context.Context, key string) (*domain.Setting, error) {
	query := `
		SELECT key, value, version, created_at, created_by, last_updated_at, last_updated_by
		FROM settings
		WHERE key = $1;
	`
	var setting domain.Setting
	err := r.Pool.QueryRow(ctx, query, key).Scan(
		&setting.Key,
		&setting.Value,
		&setting.Version,
		&setting.CreatedAt,
		&setting.CreatedBy,
		&setting.LastUpdatedAt,
		&setting.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find setting by key %s: %w", key, err)
	}
	return &setting, nil
}

// ListSettingHistory retrieves the change history for a key, newest first.
func (r *PgxSettingRepository) ListSettingHistory(ctx context.Context, key string, limit int) ([]domain.SettingHistory, error) {
	query := `
		SELECT history_id, key, value, version, changed_by, created_at, created_by, last_updated_at, last_updated_by
		FROM setting_history
		WHERE key = $1
		ORDER BY version DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query setting history for %s: %w", key, err)
	}
	defer rows.Close()

	history, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SettingHistory, error) {
		var h domain.SettingHistory
		err := row.Scan(
			&h.HistoryID,
			&h.Key,
			&h.Value,
			&h.Version,
			&h.ChangedBy,
			&h.CreatedAt,
			&h.CreatedBy,
			&h.LastUpdatedAt,
			&h.LastUpdatedBy,
		)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan setting history: %w", err)
	}
	return history, nil
}

// SaveSetting upserts a setting and appends the superseded value to the
// history table in the same transaction.
func (r *PgxSettingRepository) SaveSetting(ctx context.Context, setting domain.Setting) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	upsert := `
		INSERT INTO settings (key, value, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			version = EXCLUDED.version,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err = tx.Exec(ctx, upsert,
		setting.Key,
		setting.Value,
		setting.Version,
		setting.CreatedAt,
		setting.CreatedBy,
		setting.LastUpdatedAt,
		setting.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", setting.Key, err)
	}

	history := `
		INSERT INTO setting_history (history_id, key, value, version, changed_by, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.Exec(ctx, history,
		uuid.NewString(),
		setting.Key,
		setting.Value,
		setting.Version,
		setting.LastUpdatedBy,
		setting.LastUpdatedAt,
		setting.LastUpdatedBy,
		setting.LastUpdatedAt,
		setting.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to append setting history for %s: %w", setting.Key, err)
	}

	return r.Commit(ctx, tx)
}
