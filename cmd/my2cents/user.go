package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/my2cents/internal/database/models"
	"github.com/robalyx/my2cents/internal/database/service"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/robalyx/my2cents/internal/rest/middleware/auth"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ErrUserIDRequired is returned when no user id is given for a token.
var ErrUserIDRequired = errors.New("--user must be a positive user id")

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage commenters",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a commenter or refresh an existing one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Account name at the provider", Required: true},
					&cli.StringFlag{Name: "provider", Usage: "Identity provider (github, twitter)", Required: true},
					&cli.StringFlag{Name: "provider-id", Usage: "Account id at the provider", Required: true},
					&cli.StringFlag{Name: "display-name", Usage: "Name shown next to comments"},
					&cli.StringFlag{Name: "url", Usage: "Homepage of the commenter"},
					&cli.BoolFlag{Name: "admin", Usage: "Grant moderation rights"},
				},
				Action: withDB(addUser),
			},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a bearer token for a commenter",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "user", Usage: "User id the token is issued for", Aliases: []string{"u"}},
			&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime", Value: 30 * 24 * time.Hour},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			userID := c.Int("user")
			if userID <= 0 {
				return ErrUserIDRequired
			}

			cfg, _, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			token, err := auth.IssueToken(&cfg.Auth, userID, c.Duration("ttl"))
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, token)

			return nil
		},
	}
}

// addUser saves the commenter described by the flags and prints its id.
func addUser(ctx context.Context, c *cli.Command, db *bun.DB, logger *zap.Logger) error {
	store := models.NewUser(db, logger)
	users := service.NewUser(store, logger)

	user := &types.User{
		Name:        c.String("name"),
		DisplayName: c.String("display-name"),
		URL:         c.String("url"),
		Provider:    c.String("provider"),
		ProviderID:  c.String("provider-id"),
	}

	if err := users.SaveUser(ctx, user); err != nil {
		return err
	}

	if c.Bool("admin") && user.Status != enum.UserStatusAdministrator {
		updated, err := store.UpdateStatus(ctx, user.ID, enum.UserStatusAdministrator)
		if err != nil {
			return fmt.Errorf("failed to grant moderation rights: %w", err)
		}

		user = updated
	}

	logger.Info("Saved user",
		zap.Int64("id", user.ID),
		zap.String("name", user.Name),
		zap.String("status", user.Status.String()))

	fmt.Fprintln(c.Root().Writer, user.ID)

	return nil
}
