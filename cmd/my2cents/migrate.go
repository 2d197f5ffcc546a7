package main

import (
	"context"
	"fmt"

	"github.com/robalyx/my2cents/internal/database"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migration tool",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize migration tables",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, _ *zap.Logger) error {
					return migrator.Init(ctx)
				}),
			},
			{
				Name:  "up",
				Usage: "Run pending migrations",
				Action: withDB(func(ctx context.Context, _ *cli.Command, db *bun.DB, logger *zap.Logger) error {
					return database.Migrate(ctx, db, logger)
				}),
			},
			{
				Name:  "rollback",
				Usage: "Rollback the last migration group",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
					if err := migrator.Lock(ctx); err != nil {
						return err
					}
					defer migrator.Unlock(ctx) //nolint:errcheck

					group, err := migrator.Rollback(ctx)
					if err != nil {
						return err
					}

					if group.IsZero() {
						logger.Info("No groups to roll back")
						return nil
					}

					logger.Info("Successfully rolled back", zap.String("group", group.String()))

					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "Show migration status",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
					ms, err := migrator.MigrationsWithStatus(ctx)
					if err != nil {
						return err
					}

					logger.Info("Migration status",
						zap.String("migrations", ms.String()),
						zap.String("unapplied", ms.Unapplied().String()),
						zap.String("last_group", ms.LastGroup().String()),
					)

					return nil
				}),
			},
		},
	}
}

// withDB opens the configured database for a single command.
func withDB(
	fn func(ctx context.Context, c *cli.Command, db *bun.DB, logger *zap.Logger) error,
) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cfg, _, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Create development logger
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck

		db := database.Open(&cfg.PostgreSQL, logger)
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		return fn(ctx, c, db, logger)
	}
}

// withMigrator wraps withDB with a migrator over the registered migrations.
func withMigrator(
	fn func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error,
) cli.ActionFunc {
	return withDB(func(ctx context.Context, _ *cli.Command, db *bun.DB, logger *zap.Logger) error {
		return fn(ctx, database.NewMigrator(db), logger)
	})
}
