package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/otpvault/cmd/app/commands"
	"github.com/allisson/otpvault/internal/app"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Create the key store table for the postgres and mysql drivers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(ctx context.Context, container *app.Container) error {
					cfg := container.Config()
					return commands.RunMigrations(container.Logger(), cfg.KeyStoreDriver, cfg.DBConnectionString)
				})
			},
		},
	}
}
