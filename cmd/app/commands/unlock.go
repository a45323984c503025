package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	appValidation "github.com/allisson/otpvault/internal/validation"
)

// unlockOutput is the JSON form of a successful unlock.
type unlockOutput struct {
	Method  string `json:"method"`
	Entries int    `json:"entries"`
	Groups  int    `json:"groups"`
}

// RunUnlock verifies a credential against the vault and prints how many
// entries and groups it holds. The vault is locked again before returning.
func RunUnlock(
	ctx context.Context,
	session VaultSession,
	logger *slog.Logger,
	t IOTuple,
	method string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("unlocking vault", slog.String("method", method))

	if err := unlockSession(ctx, session, &t, method); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	defer session.Lock()

	vault, err := session.Vault()
	if err != nil {
		return err
	}

	out := unlockOutput{
		Method:  method,
		Entries: vault.Entries.Len(),
		Groups:  vault.Groups.Len(),
	}
	if format == "json" {
		return writeJSON(t.Writer, out)
	}
	_, _ = fmt.Fprintf(t.Writer, "Vault unlocked with %s: %d entries, %d groups\n", out.Method, out.Entries, out.Groups)
	return nil
}

// decodeHexKey parses a 32-byte raw slot key.
func decodeHexKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if err := validation.Validate(s, validation.Required, appValidation.Hex); err != nil {
		return nil, fmt.Errorf("invalid raw key: %w", err)
	}
	key, _ := hex.DecodeString(s)
	if err := validation.Validate(key, appValidation.ByteLength(cryptoDomain.KeySize)); err != nil {
		cryptoDomain.Zero(key)
		return nil, fmt.Errorf("invalid raw key: %w", err)
	}
	return key, nil
}
