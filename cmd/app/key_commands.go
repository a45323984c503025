package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/otpvault/cmd/app/commands"
	"github.com/allisson/otpvault/internal/app"
)

func getKeyStoreCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "keystore",
			Usage: "Manage the platform key store",
			Commands: []*cli.Command{
				{
					Name:  "clear",
					Usage: "Delete every key store key",
					Flags: []cli.Flag{
						&cli.BoolFlag{
							Name:  "force",
							Value: false,
							Usage: "Skip the confirmation prompt",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return withContainer(ctx, func(ctx context.Context, container *app.Container) error {
							keyStore, err := container.KeyStore(ctx)
							if err != nil {
								return err
							}

							return commands.RunClearKeyStore(
								ctx,
								keyStore,
								container.Logger(),
								commands.DefaultIO(),
								cmd.Bool("force"),
							)
						})
					},
				},
			},
		},
	}
}
