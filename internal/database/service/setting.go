package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/robalyx/my2cents/internal/database/types"
	"go.uber.org/zap"
)

// SettingCacheTTL is how long a setting stays in the Redis cache.
const SettingCacheTTL = 5 * time.Minute

const settingCachePrefix = "my2cents:setting:"

// SettingStore persists raw settings.
type SettingStore interface {
	GetSetting(ctx context.Context, name string) (*types.Setting, error)
	SaveSetting(ctx context.Context, setting *types.Setting) error
}

// SettingService reads and writes channel settings through a Redis cache.
type SettingService struct {
	store  SettingStore
	cache  rueidis.Client
	logger *zap.Logger
}

// NewSetting creates a new setting service. A nil cache disables caching.
func NewSetting(store SettingStore, cache rueidis.Client, logger *zap.Logger) *SettingService {
	return &SettingService{
		store:  store,
		cache:  cache,
		logger: logger.Named("setting_service"),
	}
}

// Get returns the decoded channel setting stored under key.
func (s *SettingService) Get(ctx context.Context, key string) (*types.ChannelSetting, error) {
	raw, err := s.getRaw(ctx, key)
	if err != nil {
		return nil, err
	}

	var setting types.ChannelSetting
	if err := sonic.UnmarshalString(raw, &setting); err != nil {
		return nil, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}

	return &setting, nil
}

// IsActive reports whether the channel setting under key is active.
// A missing setting counts as inactive.
func (s *SettingService) IsActive(ctx context.Context, key string) (bool, error) {
	setting, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, types.ErrSettingNotFound) {
			s.logger.Warn("Setting is missing, treating channel as inactive", zap.String("key", key))
			return false, nil
		}

		return false, err
	}

	return setting.Active, nil
}

// Set stores the channel setting under key and drops the cached copy.
func (s *SettingService) Set(ctx context.Context, key string, setting *types.ChannelSetting) error {
	raw, err := sonic.MarshalString(setting)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	if err := s.store.SaveSetting(ctx, &types.Setting{Name: key, Value: raw}); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Do(ctx, s.cache.B().Del().Key(settingCachePrefix+key).Build()).Error(); err != nil {
			s.logger.Warn("Failed to invalidate cached setting", zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Info("Updated setting", zap.String("key", key), zap.Bool("active", setting.Active))

	return nil
}

// getRaw loads the JSON value of a setting, preferring the cache.
func (s *SettingService) getRaw(ctx context.Context, key string) (string, error) {
	cacheKey := settingCachePrefix + key

	if s.cache != nil {
		raw, err := s.cache.Do(ctx, s.cache.B().Get().Key(cacheKey).Build()).ToString()
		if err == nil {
			return raw, nil
		}

		if !rueidis.IsRedisNil(err) {
			s.logger.Warn("Failed to read cached setting", zap.String("key", key), zap.Error(err))
		}
	}

	setting, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		cmd := s.cache.B().Set().Key(cacheKey).Value(setting.Value).Ex(SettingCacheTTL).Build()
		if err := s.cache.Do(ctx, cmd).Error(); err != nil {
			s.logger.Warn("Failed to cache setting", zap.String("key", key), zap.Error(err))
		}
	}

	return setting.Value, nil
}
