package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	slotUseCase "github.com/allisson/otpvault/internal/slot/usecase"
	vaultDomain "github.com/allisson/otpvault/internal/vault/domain"
	vaultService "github.com/allisson/otpvault/internal/vault/service"
)

// Session owns the unlocked state of one vault.
//
// The session moves Locked -> Unlocking -> Unlocked -> Locked. Unlocking never
// partially succeeds: either a slot yields a master key that opens the vault
// file, or the session returns to Locked holding nothing. Lock scrubs the
// master key and every decrypted secret before it returns; a Lock during
// Unlocking cancels the attempt, which then reports ErrUnlockAborted.
//
// Thread safety: all methods may be called concurrently. Slot mutations and
// Save hold the session lock, so they never overlap an unlock attempt.
type Session struct {
	repo        VaultRepository
	codec       *vaultService.VaultCodec
	slotUseCase slotUseCase.SlotUseCase
	limiter     *rate.Limiter
	logger      *slog.Logger

	mu           sync.Mutex
	state        State
	epoch        uint64
	cancelUnlock context.CancelFunc
	slots        *slotDomain.SlotList
	masterKey    *cryptoDomain.MasterKey
	vault        *vaultDomain.Vault
}

// NewSession creates a locked session.
//
// limiter throttles unlock attempts; nil disables throttling.
func NewSession(
	repo VaultRepository,
	codec *vaultService.VaultCodec,
	slotUseCase slotUseCase.SlotUseCase,
	limiter *rate.Limiter,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		repo:        repo,
		codec:       codec,
		slotUseCase: slotUseCase,
		limiter:     limiter,
		logger:      logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Create writes a new vault protected by a single password slot and leaves
// the session unlocked. It fails with ErrVaultExists if a vault is stored.
func (s *Session) Create(ctx context.Context, password []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLocked {
		return vaultDomain.ErrVaultBusy
	}

	exists, err := s.repo.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return vaultDomain.ErrVaultExists
	}

	masterKey, err := cryptoDomain.GenerateMasterKey()
	if err != nil {
		return err
	}

	slots := &slotDomain.SlotList{}
	if _, err := s.slotUseCase.AddPasswordSlot(ctx, slots, masterKey, password); err != nil {
		masterKey.Destroy()
		return err
	}

	vault := vaultDomain.NewVault()
	if err := s.persist(ctx, vault, slots, masterKey); err != nil {
		masterKey.Destroy()
		return err
	}

	s.becomeUnlocked(slots, masterKey, vault)
	s.logger.Info("vault created")
	return nil
}

// Unlock loads the vault file and opens it with the first slot accepting credential.
//
// Errors:
//   - ErrVaultBusy if the session is not locked
//   - ErrTooManyAttempts if the attempt limiter rejects the attempt
//   - ErrSlotIntegrity, ErrAuthenticationCancelled, ErrKeyPermanentlyInvalidated
//     and ErrNoMatchingSlot from slot resolution
//   - ErrUnlockAborted if Lock was called while the attempt was in progress
func (s *Session) Unlock(ctx context.Context, credential slotUseCase.Credential) error {
	ctx, epoch, err := s.beginUnlock(ctx)
	if err != nil {
		return err
	}

	slots, masterKey, vault, err := s.resolve(ctx, credential)
	if err != nil {
		return s.failUnlock(epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		masterKey.Destroy()
		vault.Wipe()
		return vaultDomain.ErrUnlockAborted
	}

	s.cancelUnlock()
	s.becomeUnlocked(slots, masterKey, vault)
	s.logger.Info("vault unlocked",
		slog.String("slot_type", credential.SlotType().String()),
	)
	return nil
}

// UnlockAsync runs Unlock on a new goroutine. The returned channel receives
// exactly one value and is then closed.
func (s *Session) UnlockAsync(ctx context.Context, credential slotUseCase.Credential) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- s.Unlock(ctx, credential)
	}()
	return result
}

func (s *Session) beginUnlock(ctx context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLocked {
		return nil, 0, vaultDomain.ErrVaultBusy
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return nil, 0, vaultDomain.ErrTooManyAttempts
	}

	ctx, cancel := context.WithCancel(ctx)
	s.epoch++
	s.state = StateUnlocking
	s.cancelUnlock = cancel
	return ctx, s.epoch, nil
}

// resolve loads the vault file, unwraps the master key and decrypts the vault.
// Nothing is retained on failure.
func (s *Session) resolve(
	ctx context.Context,
	credential slotUseCase.Credential,
) (*slotDomain.SlotList, *cryptoDomain.MasterKey, *vaultDomain.Vault, error) {
	file, err := s.repo.Load(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if !file.IsEncrypted() {
		return nil, nil, nil, vaultDomain.ErrVaultNotEncrypted
	}

	result, err := s.slotUseCase.Unlock(ctx, file.Header.Slots, credential)
	if err != nil {
		return nil, nil, nil, err
	}

	vault, err := s.codec.Open(file, result.MasterKey)
	if err != nil {
		result.MasterKey.Destroy()
		return nil, nil, nil, err
	}
	return file.Header.Slots, result.MasterKey, vault, nil
}

func (s *Session) failUnlock(epoch uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return fmt.Errorf("%w: %w", vaultDomain.ErrUnlockAborted, err)
	}

	s.cancelUnlock()
	s.cancelUnlock = nil
	s.state = StateLocked

	switch {
	case errors.Is(err, slotDomain.ErrSlotIntegrity):
		s.logger.Warn("unlock rejected")
	case errors.Is(err, keystoreDomain.ErrAuthenticationCancelled):
		s.logger.Info("unlock cancelled")
	default:
		s.logger.Error("unlock failed", slog.Any("error", err))
	}
	return err
}

func (s *Session) becomeUnlocked(
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	vault *vaultDomain.Vault,
) {
	s.cancelUnlock = nil
	s.slots = slots
	s.masterKey = masterKey
	s.vault = vault
	s.state = StateUnlocked
}

// Lock scrubs the master key and decrypted content and returns to Locked.
// It aborts an in-progress unlock. Locking a locked session does nothing.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUnlocking:
		s.cancelUnlock()
		s.cancelUnlock = nil
		s.logger.Info("unlock aborted")
	case StateUnlocked:
		s.masterKey.Destroy()
		s.vault.Wipe()
		s.masterKey = nil
		s.vault = nil
		s.slots = nil
		s.logger.Info("vault locked")
	default:
		return
	}

	s.epoch++
	s.state = StateLocked
}

// Close locks the session.
func (s *Session) Close() error {
	s.Lock()
	return nil
}

// Vault returns the decrypted vault. The vault is owned by the session and is
// wiped by Lock.
func (s *Session) Vault() (*vaultDomain.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnlocked {
		return nil, vaultDomain.ErrVaultLocked
	}
	return s.vault, nil
}

// Slots returns a snapshot of the slot list. While locked the slots are read
// from the stored vault file header.
func (s *Session) Slots(ctx context.Context) (*slotDomain.SlotList, error) {
	s.mu.Lock()
	if s.state == StateUnlocked {
		defer s.mu.Unlock()
		return s.slots.Snapshot(), nil
	}
	s.mu.Unlock()

	file, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !file.IsEncrypted() {
		return &slotDomain.SlotList{}, nil
	}
	return file.Header.Slots.Snapshot(), nil
}

// Save encrypts the vault under the master key and writes it with the current slots.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnlocked {
		return vaultDomain.ErrVaultLocked
	}
	return s.persist(ctx, s.vault, s.slots, s.masterKey)
}

func (s *Session) persist(
	ctx context.Context,
	vault *vaultDomain.Vault,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
) error {
	file, err := s.codec.Seal(vault, slots, masterKey)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, file)
}

// slotChange carries the key store side effects of a slot mutation.
type slotChange struct {
	// rollback undoes side effects when the vault file could not be written.
	rollback func(ctx context.Context) error
	// commit finishes side effects once the vault file has been written.
	commit func(ctx context.Context) error
}

// mutateSlots applies fn to a copy of the slot list and persists the result.
// The live list is only replaced after the vault file has been written, so
// key store keys are deleted by commit and never before the file stops
// referencing them.
func (s *Session) mutateSlots(
	ctx context.Context,
	fn func(slots *slotDomain.SlotList, masterKey *cryptoDomain.MasterKey) (slotChange, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnlocked {
		return vaultDomain.ErrVaultLocked
	}

	slots := s.slots.Snapshot()
	change, err := fn(slots, s.masterKey)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, s.vault, slots, s.masterKey); err != nil {
		if change.rollback != nil {
			if rbErr := change.rollback(context.WithoutCancel(ctx)); rbErr != nil {
				s.logger.Error("failed to roll back slot change", slog.Any("error", rbErr))
				return errors.Join(err, rbErr)
			}
		}
		return err
	}
	s.slots = slots

	if change.commit != nil {
		if err := change.commit(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to finish slot change", slog.Any("error", err))
			return err
		}
	}
	return nil
}

// AddPasswordSlot adds a password slot and saves the vault.
func (s *Session) AddPasswordSlot(ctx context.Context, password []byte) (*slotDomain.Slot, error) {
	var slot *slotDomain.Slot
	err := s.mutateSlots(ctx, func(slots *slotDomain.SlotList, mk *cryptoDomain.MasterKey) (slotChange, error) {
		var err error
		slot, err = s.slotUseCase.AddPasswordSlot(ctx, slots, mk, password)
		return slotChange{}, err
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// AddBiometricSlot adds a biometric slot and saves the vault. The new key store
// key is deleted again when the vault cannot be saved.
func (s *Session) AddBiometricSlot(
	ctx context.Context,
	authenticator keystoreDomain.Authenticator,
) (*slotDomain.Slot, error) {
	var slot *slotDomain.Slot
	err := s.mutateSlots(ctx, func(slots *slotDomain.SlotList, mk *cryptoDomain.MasterKey) (slotChange, error) {
		var err error
		slot, err = s.slotUseCase.AddBiometricSlot(ctx, slots, mk, authenticator)
		if err != nil {
			return slotChange{}, err
		}
		added := slot
		return slotChange{
			rollback: func(ctx context.Context) error {
				return s.slotUseCase.ReleaseSlotKey(ctx, added)
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// AddRawSlot adds a raw slot and saves the vault.
func (s *Session) AddRawSlot(ctx context.Context, rawKey []byte) (*slotDomain.Slot, error) {
	var slot *slotDomain.Slot
	err := s.mutateSlots(ctx, func(slots *slotDomain.SlotList, mk *cryptoDomain.MasterKey) (slotChange, error) {
		var err error
		slot, err = s.slotUseCase.AddRawSlot(ctx, slots, mk, rawKey)
		return slotChange{}, err
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// RemoveSlot removes a slot and saves the vault. A biometric slot's key store
// key is deleted only after the vault file no longer lists the slot.
func (s *Session) RemoveSlot(ctx context.Context, id uuid.UUID) error {
	return s.mutateSlots(ctx, func(slots *slotDomain.SlotList, _ *cryptoDomain.MasterKey) (slotChange, error) {
		removed, ok := slots.Get(id)
		if err := s.slotUseCase.RemoveSlot(ctx, slots, id); err != nil {
			return slotChange{}, err
		}
		if !ok {
			return slotChange{}, nil
		}
		return slotChange{
			commit: func(ctx context.Context) error {
				return s.slotUseCase.ReleaseSlotKey(ctx, removed)
			},
		}, nil
	})
}

// ChangePassword replaces the password slots and saves the vault.
func (s *Session) ChangePassword(ctx context.Context, password []byte) error {
	return s.mutateSlots(ctx, func(slots *slotDomain.SlotList, mk *cryptoDomain.MasterKey) (slotChange, error) {
		_, err := s.slotUseCase.ChangePassword(ctx, slots, mk, password)
		return slotChange{}, err
	})
}
