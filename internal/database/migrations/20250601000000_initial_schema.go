package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			tables := []struct {
				name  string
				model any
				fks   []string
			}{
				{"users", (*types.User)(nil), nil},
				{"comments", (*types.Comment)(nil), []string{
					`("user_id") REFERENCES "users" ("id")`,
					`("reply_to") REFERENCES "comments" ("id")`,
				}},
				{"settings", (*types.Setting)(nil), nil},
				{"subscriptions", (*types.Subscription)(nil), nil},
			}

			for _, table := range tables {
				query := tx.NewCreateTable().
					Model(table.model).
					IfNotExists()

				for _, fk := range table.fks {
					query.ForeignKey(fk)
				}

				if _, err := query.Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table %s: %w", table.name, err)
				}
			}

			_, err := tx.NewRaw(`
				CREATE INDEX IF NOT EXISTS idx_comments_slug_created
				ON comments (slug, created_at DESC);

				CREATE INDEX IF NOT EXISTS idx_comments_user_slug
				ON comments (user_id, slug, created_at DESC);

				CREATE INDEX IF NOT EXISTS idx_comments_moderation
				ON comments (created_at DESC)
				WHERE status = 0;

				CREATE INDEX IF NOT EXISTS idx_users_status
				ON users (status);
			`).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		for _, table := range []string{"subscriptions", "settings", "comments", "users"} {
			if _, err := db.NewRaw("DROP TABLE IF EXISTS ? CASCADE", bun.Ident(table)).Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}

		return nil
	})
}
