package migrations

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		value, err := sonic.MarshalString(types.ChannelSetting{Active: true})
		if err != nil {
			return fmt.Errorf("failed to encode default setting: %w", err)
		}

		settings := make([]*types.Setting, 0, len(types.DefaultSettingKeys))
		for _, key := range types.DefaultSettingKeys {
			settings = append(settings, &types.Setting{Name: key, Value: value})
		}

		_, err = db.NewInsert().
			Model(&settings).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDelete().
			Model((*types.Setting)(nil)).
			Where("name IN (?)", bun.In(types.DefaultSettingKeys)).
			Exec(ctx)

		return err
	})
}
