package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	"github.com/allisson/otpvault/internal/metrics"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
)

// slotUseCaseWithMetrics decorates SlotUseCase with metrics instrumentation.
type slotUseCaseWithMetrics struct {
	next    SlotUseCase
	metrics metrics.BusinessMetrics
}

// NewSlotUseCaseWithMetrics wraps a SlotUseCase with metrics recording.
func NewSlotUseCaseWithMetrics(useCase SlotUseCase, m metrics.BusinessMetrics) SlotUseCase {
	return &slotUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *slotUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	s.metrics.RecordOperation(ctx, "slot", operation, status)
	s.metrics.RecordDuration(ctx, "slot", operation, time.Since(start), status)
}

// unlockStatus distinguishes the unlock outcomes a dashboard cares about.
func unlockStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, slotDomain.ErrSlotIntegrity):
		return "rejected"
	case errors.Is(err, keystoreDomain.ErrAuthenticationCancelled):
		return "cancelled"
	case errors.Is(err, keystoreDomain.ErrKeyPermanentlyInvalidated):
		return "invalidated"
	default:
		return metrics.StatusError
	}
}

// Unlock records metrics for unlock attempts, labelled by credential type.
func (s *slotUseCaseWithMetrics) Unlock(
	ctx context.Context,
	slots *slotDomain.SlotList,
	credential Credential,
) (*UnlockResult, error) {
	start := time.Now()
	result, err := s.next.Unlock(ctx, slots, credential)

	operation := "unlock_" + credential.SlotType().String()
	status := unlockStatus(err)
	s.metrics.RecordOperation(ctx, "slot", operation, status)
	s.metrics.RecordDuration(ctx, "slot", operation, time.Since(start), status)
	return result, err
}

// AddPasswordSlot records metrics for password slot creation.
func (s *slotUseCaseWithMetrics) AddPasswordSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	start := time.Now()
	slot, err := s.next.AddPasswordSlot(ctx, slots, masterKey, password)
	s.record(ctx, "slot_add_password", start, err)
	return slot, err
}

// AddBiometricSlot records metrics for biometric slot creation.
func (s *slotUseCaseWithMetrics) AddBiometricSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	authenticator keystoreDomain.Authenticator,
) (*slotDomain.Slot, error) {
	start := time.Now()
	slot, err := s.next.AddBiometricSlot(ctx, slots, masterKey, authenticator)
	s.record(ctx, "slot_add_biometric", start, err)
	return slot, err
}

// AddRawSlot records metrics for raw slot creation.
func (s *slotUseCaseWithMetrics) AddRawSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	rawKey []byte,
) (*slotDomain.Slot, error) {
	start := time.Now()
	slot, err := s.next.AddRawSlot(ctx, slots, masterKey, rawKey)
	s.record(ctx, "slot_add_raw", start, err)
	return slot, err
}

// RemoveSlot records metrics for slot removal.
func (s *slotUseCaseWithMetrics) RemoveSlot(ctx context.Context, slots *slotDomain.SlotList, id uuid.UUID) error {
	start := time.Now()
	err := s.next.RemoveSlot(ctx, slots, id)
	s.record(ctx, "slot_remove", start, err)
	return err
}

// ReleaseSlotKey records metrics for slot key deletion.
func (s *slotUseCaseWithMetrics) ReleaseSlotKey(ctx context.Context, slot *slotDomain.Slot) error {
	start := time.Now()
	err := s.next.ReleaseSlotKey(ctx, slot)
	s.record(ctx, "slot_release_key", start, err)
	return err
}

// ChangePassword records metrics for password changes.
func (s *slotUseCaseWithMetrics) ChangePassword(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	start := time.Now()
	slot, err := s.next.ChangePassword(ctx, slots, masterKey, password)
	s.record(ctx, "password_change", start, err)
	return slot, err
}
