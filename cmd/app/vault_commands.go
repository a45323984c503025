package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/otpvault/cmd/app/commands"
	"github.com/allisson/otpvault/internal/app"
)

// sessionAction builds the container and session and runs fn with them.
func sessionAction(
	fn func(ctx context.Context, cmd *cli.Command, container *app.Container, session commands.VaultSession) error,
) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return withContainer(ctx, func(ctx context.Context, container *app.Container) error {
			session, err := container.Session(ctx)
			if err != nil {
				return err
			}
			return fn(ctx, cmd, container, session)
		})
	}
}

func getVaultCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Create a new vault protected by a password",
			Action: sessionAction(
				func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
					return commands.RunInit(ctx, s, c.Logger(), commands.DefaultIO())
				},
			),
		},
		{
			Name:  "unlock",
			Usage: "Verify a credential and print the vault contents summary",
			Flags: []cli.Flag{unlockMethodFlag(), formatFlag()},
			Action: sessionAction(
				func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
					return commands.RunUnlock(
						ctx,
						s,
						c.Logger(),
						commands.DefaultIO(),
						cmd.String("with"),
						cmd.String("format"),
					)
				},
			),
		},
		{
			Name:  "change-password",
			Usage: "Replace every password slot with one for a new password",
			Flags: []cli.Flag{unlockMethodFlag()},
			Action: sessionAction(
				func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
					return commands.RunChangePassword(ctx, s, c.Logger(), commands.DefaultIO(), cmd.String("with"))
				},
			),
		},
		{
			Name:  "slots",
			Usage: "Manage the slots protecting the master key",
			Commands: []*cli.Command{
				{
					Name:  "list",
					Usage: "List slots without unlocking",
					Flags: []cli.Flag{formatFlag()},
					Action: sessionAction(
						func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
							return commands.RunListSlots(ctx, s, commands.DefaultIO(), cmd.String("format"))
						},
					),
				},
				{
					Name:  "add-password",
					Usage: "Add a password slot",
					Flags: []cli.Flag{unlockMethodFlag()},
					Action: sessionAction(
						func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
							return commands.RunAddPasswordSlot(
								ctx, s, c.Logger(), commands.DefaultIO(), cmd.String("with"),
							)
						},
					),
				},
				{
					Name:  "add-biometric",
					Usage: "Add a slot backed by a new key store key",
					Flags: []cli.Flag{unlockMethodFlag()},
					Action: sessionAction(
						func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
							return commands.RunAddBiometricSlot(
								ctx, s, c.Logger(), commands.DefaultIO(), cmd.String("with"),
							)
						},
					),
				},
				{
					Name:  "add-raw",
					Usage: "Add a slot for a random key printed once in hex",
					Flags: []cli.Flag{unlockMethodFlag()},
					Action: sessionAction(
						func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
							return commands.RunAddRawSlot(
								ctx, s, c.Logger(), commands.DefaultIO(), cmd.String("with"),
							)
						},
					),
				},
				{
					Name:  "remove",
					Usage: "Remove a slot by UUID",
					Flags: []cli.Flag{
						unlockMethodFlag(),
						&cli.StringFlag{
							Name:     "id",
							Aliases:  []string{"i"},
							Required: true,
							Usage:    "Slot UUID",
						},
					},
					Action: sessionAction(
						func(ctx context.Context, cmd *cli.Command, c *app.Container, s commands.VaultSession) error {
							return commands.RunRemoveSlot(
								ctx, s, c.Logger(), commands.DefaultIO(), cmd.String("with"), cmd.String("id"),
							)
						},
					),
				},
			},
		},
	}
}
