package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
)

// slotOutput describes a slot without its key material.
type slotOutput struct {
	ID       string `json:"uuid"`
	Type     string `json:"type"`
	Repaired bool   `json:"repaired,omitempty"`
}

func newSlotOutput(s *slotDomain.Slot) slotOutput {
	return slotOutput{ID: s.ID.String(), Type: s.Type.String(), Repaired: s.Repaired}
}

// RunListSlots prints the slots of the vault. No credential is needed: the
// slot list is read from the vault file header.
func RunListSlots(ctx context.Context, session VaultSession, t IOTuple, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	slots, err := session.Slots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list slots: %w", err)
	}

	out := make([]slotOutput, 0, slots.Len())
	for _, s := range slots.Values() {
		out = append(out, newSlotOutput(s))
	}

	if format == "json" {
		return writeJSON(t.Writer, out)
	}
	for _, s := range out {
		_, _ = fmt.Fprintf(t.Writer, "%s\t%s\n", s.ID, s.Type)
	}
	return nil
}

// RunAddPasswordSlot unlocks the vault with method and adds a password slot.
func RunAddPasswordSlot(
	ctx context.Context,
	session VaultSession,
	logger *slog.Logger,
	t IOTuple,
	method string,
) error {
	return withUnlocked(ctx, session, &t, method, func() error {
		password, err := readNewPassword(&t)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(password)

		slot, err := session.AddPasswordSlot(ctx, password)
		if err != nil {
			return fmt.Errorf("failed to add password slot: %w", err)
		}
		logger.Info("password slot added", slog.String("slot_id", slot.ID.String()))
		_, _ = fmt.Fprintf(t.Writer, "Added password slot %s\n", slot.ID)
		return nil
	})
}

// RunAddBiometricSlot unlocks the vault with method and adds a biometric slot
// backed by a new key store key.
func RunAddBiometricSlot(
	ctx context.Context,
	session VaultSession,
	logger *slog.Logger,
	t IOTuple,
	method string,
) error {
	return withUnlocked(ctx, session, &t, method, func() error {
		slot, err := session.AddBiometricSlot(ctx, confirmAuthenticator(&t))
		if err != nil {
			return fmt.Errorf("failed to add biometric slot: %w", err)
		}
		logger.Info("biometric slot added", slog.String("slot_id", slot.ID.String()))
		_, _ = fmt.Fprintf(t.Writer, "Added biometric slot %s\n", slot.ID)
		return nil
	})
}

// RunAddRawSlot unlocks the vault with method, adds a raw slot under a fresh
// random key and prints the key once, hex encoded.
func RunAddRawSlot(
	ctx context.Context,
	session VaultSession,
	logger *slog.Logger,
	t IOTuple,
	method string,
) error {
	return withUnlocked(ctx, session, &t, method, func() error {
		key, err := cryptoService.GenerateKey()
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(key)

		slot, err := session.AddRawSlot(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to add raw slot: %w", err)
		}
		logger.Info("raw slot added", slog.String("slot_id", slot.ID.String()))
		_, _ = fmt.Fprintf(t.Writer, "Added raw slot %s\nKey: %s\n", slot.ID, hex.EncodeToString(key))
		return nil
	})
}

// RunRemoveSlot unlocks the vault with method and removes the slot with id.
func RunRemoveSlot(
	ctx context.Context,
	session VaultSession,
	logger *slog.Logger,
	t IOTuple,
	method string,
	id string,
) error {
	slotID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid slot id: %w", err)
	}

	return withUnlocked(ctx, session, &t, method, func() error {
		if err := session.RemoveSlot(ctx, slotID); err != nil {
			return fmt.Errorf("failed to remove slot: %w", err)
		}
		logger.Info("slot removed", slog.String("slot_id", slotID.String()))
		_, _ = fmt.Fprintf(t.Writer, "Removed slot %s\n", slotID)
		return nil
	})
}

// RunChangePassword unlocks the vault with method and replaces every password
// slot with one slot for the new password.
func RunChangePassword(
	ctx context.Context,
	session VaultSession,
	logger *slog.Logger,
	t IOTuple,
	method string,
) error {
	return withUnlocked(ctx, session, &t, method, func() error {
		password, err := readNewPassword(&t)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(password)

		if err := session.ChangePassword(ctx, password); err != nil {
			return fmt.Errorf("failed to change password: %w", err)
		}
		logger.Info("password changed")
		_, _ = fmt.Fprintln(t.Writer, "Password changed")
		return nil
	})
}

// withUnlocked runs fn with the session unlocked and locks it afterwards.
func withUnlocked(ctx context.Context, session VaultSession, t *IOTuple, method string, fn func() error) error {
	if err := unlockSession(ctx, session, t, method); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	defer session.Lock()
	return fn()
}
