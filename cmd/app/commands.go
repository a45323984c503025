package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/otpvault/internal/app"
	"github.com/allisson/otpvault/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getVaultCommands()...)
	cmds = append(cmds, getKeyStoreCommands()...)
	return cmds
}

// unlockMethodFlag selects the credential used to unlock the vault.
func unlockMethodFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "with",
		Aliases: []string{"w"},
		Value:   "password",
		Usage:   "Unlock method: password, biometric or raw",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

// newContainer loads and validates the configuration and builds the container.
func newContainer() (*app.Container, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.NewContainer(cfg), nil
}

// exitInterrupted is the exit status after SIGINT or SIGTERM.
const exitInterrupted = 130

// exit is replaced in tests.
var exit = os.Exit

// withContainer runs fn with a fresh container and always shuts it down.
//
// Prompts and key derivations do not observe ctx, so a signal arriving while
// fn is blocked shuts the container down (locking the session) from a
// context.AfterFunc callback and then exits.
func withContainer(ctx context.Context, fn func(ctx context.Context, container *app.Container) error) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer shutdown(context.WithoutCancel(ctx), container)

	stop := context.AfterFunc(ctx, func() {
		container.Logger().Warn("interrupted, locking vault")
		shutdown(context.WithoutCancel(ctx), container)
		exit(exitInterrupted)
	})
	defer stop()

	return fn(ctx, container)
}

// shutdown releases the container, logging failures.
func shutdown(ctx context.Context, container *app.Container) {
	if err := container.Shutdown(ctx); err != nil {
		container.Logger().Error("failed to shutdown container", slog.Any("error", err))
	}
}
