// Package mocks provides mock implementations of the slot interfaces for testing.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	slotUseCase "github.com/allisson/otpvault/internal/slot/usecase"
)

// MockSlotUseCase is a mock implementation of SlotUseCase for testing.
type MockSlotUseCase struct {
	mock.Mock
}

// Unlock mocks the Unlock method of SlotUseCase.
func (m *MockSlotUseCase) Unlock(
	ctx context.Context,
	slots *slotDomain.SlotList,
	credential slotUseCase.Credential,
) (*slotUseCase.UnlockResult, error) {
	args := m.Called(ctx, slots, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slotUseCase.UnlockResult), args.Error(1)
}

// AddPasswordSlot mocks the AddPasswordSlot method of SlotUseCase.
func (m *MockSlotUseCase) AddPasswordSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	args := m.Called(ctx, slots, masterKey, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slotDomain.Slot), args.Error(1)
}

// AddBiometricSlot mocks the AddBiometricSlot method of SlotUseCase.
func (m *MockSlotUseCase) AddBiometricSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	authenticator keystoreDomain.Authenticator,
) (*slotDomain.Slot, error) {
	args := m.Called(ctx, slots, masterKey, authenticator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slotDomain.Slot), args.Error(1)
}

// AddRawSlot mocks the AddRawSlot method of SlotUseCase.
func (m *MockSlotUseCase) AddRawSlot(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	rawKey []byte,
) (*slotDomain.Slot, error) {
	args := m.Called(ctx, slots, masterKey, rawKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slotDomain.Slot), args.Error(1)
}

// RemoveSlot mocks the RemoveSlot method of SlotUseCase.
func (m *MockSlotUseCase) RemoveSlot(ctx context.Context, slots *slotDomain.SlotList, id uuid.UUID) error {
	args := m.Called(ctx, slots, id)
	return args.Error(0)
}

// ReleaseSlotKey mocks the ReleaseSlotKey method of SlotUseCase.
func (m *MockSlotUseCase) ReleaseSlotKey(ctx context.Context, slot *slotDomain.Slot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

// ChangePassword mocks the ChangePassword method of SlotUseCase.
func (m *MockSlotUseCase) ChangePassword(
	ctx context.Context,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
	password []byte,
) (*slotDomain.Slot, error) {
	args := m.Called(ctx, slots, masterKey, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slotDomain.Slot), args.Error(1)
}
