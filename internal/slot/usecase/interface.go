// Package usecase orchestrates slot unlocking and slot list mutations.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
)

// Credential is what a caller supplies to unlock a vault. Each credential
// matches exactly one slot type, and SlotType selects how it is used.
type Credential interface {
	SlotType() slotDomain.Type
	// Secret returns the password or raw key; nil for biometric credentials.
	Secret() []byte
	// Prompt returns the authenticator of biometric credentials; nil otherwise.
	Prompt() keystoreDomain.Authenticator
}

// PasswordCredential unlocks password slots. Password is UTF-8; the caller owns
// it and should wipe it after the unlock completes.
type PasswordCredential struct {
	Password []byte
}

// SlotType returns TypePassword.
func (PasswordCredential) SlotType() slotDomain.Type { return slotDomain.TypePassword }

// Secret returns the password.
func (c PasswordCredential) Secret() []byte { return c.Password }

// Prompt returns nil.
func (PasswordCredential) Prompt() keystoreDomain.Authenticator { return nil }

// RawCredential unlocks raw slots with a caller-held 32-byte key.
type RawCredential struct {
	Key []byte
}

// SlotType returns TypeRaw.
func (RawCredential) SlotType() slotDomain.Type { return slotDomain.TypeRaw }

// Secret returns the raw key.
func (c RawCredential) Secret() []byte { return c.Key }

// Prompt returns nil.
func (RawCredential) Prompt() keystoreDomain.Authenticator { return nil }

// BiometricCredential unlocks biometric slots. Authenticator runs the prompt
// gating release of each candidate key.
type BiometricCredential struct {
	Authenticator keystoreDomain.Authenticator
}

// SlotType returns TypeBiometric.
func (BiometricCredential) SlotType() slotDomain.Type { return slotDomain.TypeBiometric }

// Secret returns nil.
func (BiometricCredential) Secret() []byte { return nil }

// Prompt returns the authenticator.
func (c BiometricCredential) Prompt() keystoreDomain.Authenticator { return c.Authenticator }

// UnlockResult is the outcome of a successful unlock.
type UnlockResult struct {
	// MasterKey is owned by the caller, which must Destroy it on lock.
	MasterKey *cryptoDomain.MasterKey
	// Slot is the snapshot copy of the slot that yielded the master key.
	Slot *slotDomain.Slot
}

// SlotUseCase defines the slot operations of a vault.
type SlotUseCase interface {
	// Unlock tries every slot matching credential once, in list order, against a
	// snapshot of slots taken when the call starts. The first successful unwrap
	// wins.
	//
	// Errors:
	//   - ErrNoMatchingSlot when no slot has the credential's type
	//   - ErrSlotIntegrity when every candidate rejected the credential
	//   - ErrAuthenticationCancelled as soon as a biometric prompt is cancelled
	//   - ErrKeyPermanentlyInvalidated when every biometric key is absent or invalidated
	//   - ErrSlot for structurally invalid slot data
	Unlock(ctx context.Context, slots *slotDomain.SlotList, credential Credential) (*UnlockResult, error)

	// AddPasswordSlot wraps masterKey under password and appends the slot.
	AddPasswordSlot(
		ctx context.Context,
		slots *slotDomain.SlotList,
		masterKey *cryptoDomain.MasterKey,
		password []byte,
	) (*slotDomain.Slot, error)

	// AddBiometricSlot generates a key store key, releases it through
	// authenticator, wraps masterKey with it and appends the slot.
	AddBiometricSlot(
		ctx context.Context,
		slots *slotDomain.SlotList,
		masterKey *cryptoDomain.MasterKey,
		authenticator keystoreDomain.Authenticator,
	) (*slotDomain.Slot, error)

	// AddRawSlot wraps masterKey under rawKey and appends the slot.
	AddRawSlot(
		ctx context.Context,
		slots *slotDomain.SlotList,
		masterKey *cryptoDomain.MasterKey,
		rawKey []byte,
	) (*slotDomain.Slot, error)

	// RemoveSlot removes the slot with id. The last slot cannot be removed.
	// The key store key of a biometric slot is left in place; callers release it
	// with ReleaseSlotKey once the shrunken list has been stored.
	RemoveSlot(ctx context.Context, slots *slotDomain.SlotList, id uuid.UUID) error

	// ReleaseSlotKey deletes the key store key backing slot. It does nothing for
	// slots that are not biometric.
	ReleaseSlotKey(ctx context.Context, slot *slotDomain.Slot) error

	// ChangePassword replaces every password slot with a single new one.
	ChangePassword(
		ctx context.Context,
		slots *slotDomain.SlotList,
		masterKey *cryptoDomain.MasterKey,
		password []byte,
	) (*slotDomain.Slot, error)
}
