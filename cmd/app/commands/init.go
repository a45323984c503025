package commands

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
)

// RunInit creates a new encrypted vault protected by a password slot.
// Fails with ErrVaultExists when a vault document is already stored.
func RunInit(ctx context.Context, session VaultSession, logger *slog.Logger, t IOTuple) error {
	logger.Info("creating new vault")

	password, err := readNewPassword(&t)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(password)

	if err := session.Create(ctx, password); err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}
	defer session.Lock()

	_, _ = fmt.Fprintln(t.Writer, "Vault created")
	return nil
}
