package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/urfave/cli/v3"
)

// ErrConfigHasErrors is returned when validation finds errors.
var ErrConfigHasErrors = errors.New("configuration has errors")

func validateConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate-config",
		Usage: "Check the configuration file and report every issue",
		Action: func(_ context.Context, c *cli.Command) error {
			cfg, path, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			issues := config.Validate(cfg)

			fmt.Fprintf(w, "Checked %s\n", path)

			for _, issue := range issues {
				fmt.Fprintln(w, issue.String())
			}

			if issues.HasErrors() {
				return ErrConfigHasErrors
			}

			fmt.Fprintln(w, "Configuration is valid")

			return nil
		},
	}
}
