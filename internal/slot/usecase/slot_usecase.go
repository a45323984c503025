package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	keystoreUseCase "github.com/allisson/otpvault/internal/keystore/usecase"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	slotService "github.com/allisson/otpvault/internal/slot/service"
)

// slotUseCase implements SlotUseCase.
type slotUseCase struct {
	slotManager *slotService.SlotManager
	keyStore    keystoreUseCase.KeyStore
	logger      *slog.Logger
}

// NewSlotUseCase creates a new SlotUseCase.
//
// keyStore may be nil when the platform has no key store; biometric operations
// then fail with ErrKeyStoreUnsupported.
func NewSlotUseCase(
	slotManager *slotService.SlotManager,
	keyStore keystoreUseCase.KeyStore,
	logger *slog.Logger,
) SlotUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &slotUseCase{
		slotManager: slotManager,
		keyStore:    keyStore,
		logger:      logger,
	}
}

func (s *slotUseCase) keyStoreSupported() bool {
	return s.keyStore != nil && s.keyStore.IsSupported()
}

// Unlock resolves the master key from the first matching slot that accepts credential.
func (s *slotUseCase) Unlock(
	ctx context.Context,
	slots *slotDomain.SlotList,
	credential Credential,
) (*UnlockResult, error) {
	snapshot := slots.Snapshot()
	slotType := credential.SlotType()

	candidates := snapshot.FindAll(slotType)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", slotDomain.ErrNoMatchingSlot, slotType)
	}
	if slotType == slotDomain.TypeBiometric && !s.keyStoreSupported() {
		return nil, keystoreDomain.ErrKeyStoreUnsupported
	}

	var integrityFailures int
	for _, slot := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.logger.Debug("trying slot",
			slog.String("slot_id", slot.ID.String()),
			slog.String("slot_type", slotType.String()),
		)

		masterKey, err := s.unlockSlot(ctx, slot, credential)
		if err == nil {
			s.logger.Info("slot unlocked",
				slog.String("slot_id", slot.ID.String()),
				slog.String("slot_type", slotType.String()),
			)
			return &UnlockResult{MasterKey: masterKey, Slot: slot}, nil
		}

		switch {
		case errors.Is(err, slotDomain.ErrSlotIntegrity):
			integrityFailures++
		case errors.Is(err, keystoreDomain.ErrKeyPermanentlyInvalidated):
			s.logger.Warn("biometric key unavailable",
				slog.String("slot_id", slot.ID.String()),
			)
		default:
			return nil, err
		}
	}

	if integrityFailures > 0 {
		return nil, fmt.Errorf("%w: no %s slot accepted the credential", slotDomain.ErrSlotIntegrity, slotType)
	}
	return nil, keystoreDomain.ErrKeyPermanentlyInvalidated
}

// unlockSlot obtains the slot key for one candidate and unwraps the master key.
func (s *slotUseCase) unlockSlot(
	ctx context.Context,
	slot *slotDomain.Slot,
	credential Credential,
) (*cryptoDomain.MasterKey, error) {
	switch credential.SlotType() {
	case slotDomain.TypePassword:
		return s.slotManager.UnwrapPassword(slot, credential.Secret())
	case slotDomain.TypeRaw:
		return s.slotManager.UnwrapRaw(slot, credential.Secret())
	case slotDomain.TypeBiometric:
		return s.unlockBiometric(ctx, slot, credential.Prompt())
	default:
		return nil, fmt.Errorf("%w: %s", slotDomain.ErrUnsupportedSlotType, credential.SlotType())
	}
}

// unlockBiometric releases the slot's key store key and unwraps the master key.
// An absent key is reported as ErrKeyPermanentlyInvalidated.
func (s *slotUseCase) unlockBiometric(
	ctx context.Context,
	slot *slotDomain.Slot,
	authenticator keystoreDomain.Authenticator,
) (*cryptoDomain.MasterKey, error) {
	key, ok, err := s.keyStore.GetKey(ctx, slot.Alias())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, keystoreDomain.ErrKeyPermanentlyInvalidated
	}
	defer key.Destroy()

	aead, err := s.keyStore.Cipher(ctx, key, authenticator)
	if err != nil {
		return nil, err
	}
	return s.slotManager.Unwrap(slot, aead)
}

// AddPasswordSlot wraps masterKey under password and appends the slot.
func (s *slotUseCase) AddPasswordSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	slot, err := s.slotManager.NewPasswordSlot(masterKey, password)
	if err != nil {
		return nil, err
	}
	if err := slots.Add(slot); err != nil {
		return nil, err
	}

	s.logSlotAdded(slot)
	return slot, nil
}

// AddBiometricSlot generates a key store key for a new slot and wraps masterKey with it.
func (s *slotUseCase) AddBiometricSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	authenticator keystoreDomain.Authenticator,
) (*slotDomain.Slot, error) {
	if !s.keyStoreSupported() {
		return nil, keystoreDomain.ErrKeyStoreUnsupported
	}

	id := uuid.New()
	alias := id.String()

	key, err := s.keyStore.GenerateKey(ctx, alias)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	slot, err := s.wrapBiometric(ctx, id, key, masterKey, authenticator)
	if err == nil {
		err = slots.Add(slot)
	}
	if err != nil {
		if delErr := s.keyStore.DeleteKey(ctx, alias); delErr != nil {
			s.logger.Error("failed to delete orphaned key store key",
				slog.String("alias", alias),
				slog.Any("error", delErr),
			)
		}
		return nil, err
	}

	s.logSlotAdded(slot)
	return slot, nil
}

func (s *slotUseCase) wrapBiometric(
	ctx context.Context,
	id uuid.UUID,
	key *keystoreDomain.Key,
	masterKey *cryptoDomain.MasterKey,
	authenticator keystoreDomain.Authenticator,
) (*slotDomain.Slot, error) {
	aead, err := s.keyStore.Cipher(ctx, key, authenticator)
	if err != nil {
		return nil, err
	}
	return s.slotManager.NewBiometricSlot(id, masterKey, aead)
}

// AddRawSlot wraps masterKey under rawKey and appends the slot.
func (s *slotUseCase) AddRawSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	rawKey []byte,
) (*slotDomain.Slot, error) {
	slot, err := s.slotManager.NewRawSlot(masterKey, rawKey)
	if err != nil {
		return nil, err
	}
	if err := slots.Add(slot); err != nil {
		return nil, err
	}

	s.logSlotAdded(slot)
	return slot, nil
}

// RemoveSlot removes the slot with id from slots.
func (s *slotUseCase) RemoveSlot(ctx context.Context, slots *slotDomain.SlotList, id uuid.UUID) error {
	slot, ok := slots.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", slotDomain.ErrSlotNotFound, id)
	}
	if slots.Len() <= 1 {
		return slotDomain.ErrLastSlot
	}

	if _, err := slots.Remove(id); err != nil {
		return err
	}

	s.logger.Info("slot removed",
		slog.String("slot_id", id.String()),
		slog.String("slot_type", slot.Type.String()),
	)
	return nil
}

// ReleaseSlotKey deletes the key store key of a biometric slot.
func (s *slotUseCase) ReleaseSlotKey(ctx context.Context, slot *slotDomain.Slot) error {
	if slot.Type != slotDomain.TypeBiometric {
		return nil
	}
	if !s.keyStoreSupported() {
		s.logger.Warn("key store unavailable, biometric key not deleted",
			slog.String("slot_id", slot.ID.String()),
		)
		return nil
	}
	if err := s.keyStore.DeleteKey(ctx, slot.Alias()); err != nil {
		return err
	}

	s.logger.Info("biometric key deleted", slog.String("slot_id", slot.ID.String()))
	return nil
}

// ChangePassword replaces every password slot with one slot wrapping masterKey under password.
func (s *slotUseCase) ChangePassword(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	slot, err := s.slotManager.NewPasswordSlot(masterKey, password)
	if err != nil {
		return nil, err
	}

	for _, old := range slots.FindAll(slotDomain.TypePassword) {
		if _, err := slots.Remove(old.ID); err != nil {
			return nil, err
		}
	}
	if err := slots.Add(slot); err != nil {
		return nil, err
	}

	s.logger.Info("password changed", slog.String("slot_id", slot.ID.String()))
	return slot, nil
}

func (s *slotUseCase) logSlotAdded(slot *slotDomain.Slot) {
	s.logger.Info("slot added",
		slog.String("slot_id", slot.ID.String()),
		slog.String("slot_type", slot.Type.String()),
	)
}
