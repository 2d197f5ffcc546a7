package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "my2cents",
		Usage: "Self hosted comments for static blogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to my2cents.toml, searched in the default locations when empty",
				Aliases: []string{"c"},
				Sources: cli.EnvVars("MY2CENTS_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			validateConfigCommand(),
			migrateCommand(),
			userCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
