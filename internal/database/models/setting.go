package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robalyx/my2cents/internal/database/dbretry"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SettingModel handles database operations for channel settings.
type SettingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSetting creates a SettingModel with database access.
func NewSetting(db *bun.DB, logger *zap.Logger) *SettingModel {
	return &SettingModel{
		db:     db,
		logger: logger.Named("db_setting"),
	}
}

// GetSetting retrieves the raw setting stored under name.
func (r *SettingModel) GetSetting(ctx context.Context, name string) (*types.Setting, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Setting, error) {
		setting := &types.Setting{Name: name}

		err := r.db.NewSelect().Model(setting).WherePK().Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrSettingNotFound
			}

			return nil, fmt.Errorf("failed to get setting: %w (name=%s)", err, name)
		}

		return setting, nil
	})
}

// SaveSetting updates or creates a setting.
func (r *SettingModel) SaveSetting(ctx context.Context, setting *types.Setting) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(setting).
			On("CONFLICT (name) DO UPDATE").
			Set("value = EXCLUDED.value").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save setting: %w (name=%s)", err, setting.Name)
		}

		return nil
	})
}
