package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuidobem/finance-backend/internal/apperrors"
	"github.com/cuidobem/finance-backend/internal/core/domain"
	portsrepo "github.com/cuidobem/finance-backend/internal/core/ports/repositories"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// cacheEntry holds one cached setting with its load time. A nil setting caches
// a miss so unset keys do not hammer the database.
type cacheEntry struct {
	setting  *domain.Setting
	loadedAt time.Time
}

// settingsService provides versioned configuration with an in-process cache.
// The cache is invalidated synchronously on write; reads between a write and
// its invalidation becoming visible are stale but eventually consistent.
type settingsService struct {
	repo portsrepo.SettingRepositoryFacade
	ttl  time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewSettingsService creates a new SettingsService. ttl bounds cache staleness
// for writes made by other processes.
func NewSettingsService(repo portsrepo.SettingRepositoryFacade, ttl time.Duration) portssvc.SettingsSvcFacade {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &settingsService{
		repo:  repo,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

var _ portssvc.SettingsSvcFacade = (*settingsService)(nil)

// Get retrieves the full setting row, serving from cache when fresh.
func (s *settingsService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Since(entry.loadedAt) < s.ttl {
		if entry.setting == nil {
			return nil, apperrors.ErrNotFound
		}
		return entry.setting, nil
	}

	setting, err := s.repo.FindSettingByKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.store(key, nil)
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load setting %s: %w", key, err)
	}

	s.store(key, setting)
	return setting, nil
}

// GetString retrieves a setting value, falling back when unset.
func (s *settingsService) GetString(ctx context.Context, key string, fallback string) (string, error) {
	setting, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fallback, nil
		}
		return "", err
	}
	return setting.Value, nil
}

// GetDecimal retrieves a numeric setting value, falling back when unset or
// unparsable. Unparsable stored values are logged, not fatal: a bad config
// write must not take pricing down.
func (s *settingsService) GetDecimal(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw, err := s.GetString(ctx, key, "")
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Setting value is not numeric, using fallback",
			slog.String("key", key), slog.String("value", raw))
		return fallback, nil
	}
	return value, nil
}

// Set writes a setting, records history, and invalidates the cache entry
// before returning so the writer reads its own write.
func (s *settingsService) Set(ctx context.Context, key, value, userID string) (*domain.Setting, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	current, err := s.repo.FindSettingByKey(ctx, key)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to load setting %s for update: %w", key, err)
	}

	setting := domain.Setting{
		Key:     key,
		Value:   value,
		Version: 1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if current != nil {
		setting.Version = current.Version + 1
		setting.CreatedAt = current.CreatedAt
		setting.CreatedBy = current.CreatedBy
	}

	if err := s.repo.SaveSetting(ctx, setting); err != nil {
		logger.Error("Failed to save setting", slog.String("key", key), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save setting %s: %w", key, err)
	}

	// Synchronous invalidation: drop the entry rather than caching the new
	// value, so a racing read repopulates from the database.
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	logger.Info("Setting updated", slog.String("key", key), slog.Int("version", setting.Version))
	return &setting, nil
}

// History lists superseded values for a key, newest first.
func (s *settingsService) History(ctx context.Context, key string, limit int) ([]domain.SettingHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.repo.ListSettingHistory(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list setting history for %s: %w", key, err)
	}
	return rows, nil
}

func (s *settingsService) store(key string, setting *domain.Setting) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{setting: setting, loadedAt: time.Now()}
	s.mu.Unlock()
}
