package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// KeyStoreClearer removes every key from the key store.
type KeyStoreClearer interface {
	IsSupported() bool
	Clear(ctx context.Context) error
}

// RunClearKeyStore deletes every key store key. Biometric slots stop working
// afterwards. Unless force is set, the user must confirm with "yes".
func RunClearKeyStore(
	ctx context.Context,
	keyStore KeyStoreClearer,
	logger *slog.Logger,
	t IOTuple,
	force bool,
) error {
	if !keyStore.IsSupported() {
		return errors.New("key store is not supported on this platform")
	}

	if !force {
		_, _ = fmt.Fprint(t.Writer, "Delete every key store key? Biometric slots will stop working. [yes/no]: ")
		answer, err := t.readLine()
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "yes") {
			_, _ = fmt.Fprintln(t.Writer, "Aborted")
			return nil
		}
	}

	if err := keyStore.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear key store: %w", err)
	}

	logger.Info("key store cleared")
	_, _ = fmt.Fprintln(t.Writer, "Key store cleared")
	return nil
}
