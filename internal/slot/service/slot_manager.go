// Package service implements wrapping and unwrapping of the master key by slots.
package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
)

// SlotManager wraps the master key under slot keys and recovers it again.
//
// All slot variants share Wrap and Unwrap. Only the way a slot key is obtained
// differs: raw slots receive it from the caller, password slots derive it with
// the KDF and biometric slots obtain a cipher from the key store. The key store
// is not used here; callers hand the resulting AEAD to Wrap and Unwrap.
type SlotManager struct {
	aeadManager cryptoService.AEADManager
	kdf         cryptoService.KDF
}

// NewSlotManager creates a new SlotManager.
//
// Parameters:
//   - aeadManager: creates AES-256-GCM ciphers from raw and derived slot keys
//   - kdf: derives password slot keys and generates their parameters
//
// Returns:
//   - A new SlotManager instance
func NewSlotManager(aeadManager cryptoService.AEADManager, kdf cryptoService.KDF) *SlotManager {
	return &SlotManager{
		aeadManager: aeadManager,
		kdf:         kdf,
	}
}

// Wrap seals the master key bytes with aead and stores the ciphertext and fresh
// parameters on slot. Any previous wrapping is replaced.
func (sm *SlotManager) Wrap(
	slot *slotDomain.Slot,
	masterKey *cryptoDomain.MasterKey,
	aead cryptoService.AEAD,
) error {
	key, err := masterKey.Bytes()
	if err != nil {
		return err
	}

	ciphertext, params, err := cryptoService.Seal(aead, key)
	if err != nil {
		return fmt.Errorf("failed to wrap master key: %w", err)
	}

	slot.EncryptedMasterKey = ciphertext
	slot.Params = params
	return nil
}

// Unwrap opens the master key stored on slot with aead.
//
// A failed tag verification is reported as ErrSlotIntegrity whatever the cause:
// wrong slot key, modified ciphertext, nonce or tag. Structurally invalid
// parameters are reported as ErrSlot.
func (sm *SlotManager) Unwrap(
	slot *slotDomain.Slot,
	aead cryptoService.AEAD,
) (*cryptoDomain.MasterKey, error) {
	if err := slot.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", slotDomain.ErrSlot, err)
	}

	key, err := cryptoService.Open(aead, slot.EncryptedMasterKey, slot.Params)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrDecryptionFailed) {
			return nil, fmt.Errorf("%w: slot %s", slotDomain.ErrSlotIntegrity, slot.ID)
		}
		return nil, err
	}

	masterKey, err := cryptoDomain.NewMasterKey(key)
	if err != nil {
		cryptoDomain.Zero(key)
		return nil, fmt.Errorf("%w: %v", slotDomain.ErrSlot, err)
	}
	return masterKey, nil
}

// NewRawSlot creates a raw slot wrapping masterKey under rawKey.
func (sm *SlotManager) NewRawSlot(
	masterKey *cryptoDomain.MasterKey,
	rawKey []byte,
) (*slotDomain.Slot, error) {
	aead, err := sm.aeadManager.CreateCipher(rawKey)
	if err != nil {
		return nil, err
	}

	slot := slotDomain.New(slotDomain.TypeRaw)
	if err := sm.Wrap(slot, masterKey, aead); err != nil {
		return nil, err
	}
	return slot, nil
}

// UnwrapRaw recovers the master key from a raw slot with rawKey.
func (sm *SlotManager) UnwrapRaw(
	slot *slotDomain.Slot,
	rawKey []byte,
) (*cryptoDomain.MasterKey, error) {
	if slot.Type != slotDomain.TypeRaw {
		return nil, fmt.Errorf("%w: expected raw slot, got %s", slotDomain.ErrSlotTypeMismatch, slot.Type)
	}

	aead, err := sm.aeadManager.CreateCipher(rawKey)
	if err != nil {
		return nil, err
	}
	return sm.Unwrap(slot, aead)
}

// NewPasswordSlot creates a password slot wrapping masterKey under a key derived
// from password with freshly generated scrypt parameters.
//
// The new slot is marked repaired. The caller owns password and should wipe it.
func (sm *SlotManager) NewPasswordSlot(
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	params, err := sm.kdf.GenerateParameters()
	if err != nil {
		return nil, err
	}

	slot := slotDomain.New(slotDomain.TypePassword)
	slot.SCrypt = &params
	slot.Repaired = true

	key, err := sm.DerivePasswordKey(slot, password)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	aead, err := sm.aeadManager.CreateCipher(key)
	if err != nil {
		return nil, err
	}
	if err := sm.Wrap(slot, masterKey, aead); err != nil {
		return nil, err
	}
	return slot, nil
}

// DerivePasswordKey derives the slot key of a password slot from password using
// the parameters persisted on the slot. The caller must wipe the returned key.
func (sm *SlotManager) DerivePasswordKey(
	slot *slotDomain.Slot,
	password []byte,
) ([]byte, error) {
	if slot.Type != slotDomain.TypePassword {
		return nil, fmt.Errorf("%w: expected password slot, got %s", slotDomain.ErrSlotTypeMismatch, slot.Type)
	}
	if slot.SCrypt == nil {
		return nil, fmt.Errorf("%w: scrypt parameters", slotDomain.ErrMissingSlotField)
	}

	key, err := sm.kdf.DeriveKey(password, *slot.SCrypt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", slotDomain.ErrSlot, err)
	}
	return key, nil
}

// UnwrapPassword recovers the master key from a password slot. A wrong password
// yields ErrSlotIntegrity.
func (sm *SlotManager) UnwrapPassword(
	slot *slotDomain.Slot,
	password []byte,
) (*cryptoDomain.MasterKey, error) {
	key, err := sm.DerivePasswordKey(slot, password)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	aead, err := sm.aeadManager.CreateCipher(key)
	if err != nil {
		return nil, err
	}
	return sm.Unwrap(slot, aead)
}

// NewBiometricSlot creates a biometric slot with the given id wrapping masterKey
// with aead, the cipher released by the key store for alias id.String().
func (sm *SlotManager) NewBiometricSlot(
	id uuid.UUID,
	masterKey *cryptoDomain.MasterKey,
	aead cryptoService.AEAD,
) (*slotDomain.Slot, error) {
	slot := &slotDomain.Slot{ID: id, Type: slotDomain.TypeBiometric}
	if err := sm.Wrap(slot, masterKey, aead); err != nil {
		return nil, err
	}
	return slot, nil
}
