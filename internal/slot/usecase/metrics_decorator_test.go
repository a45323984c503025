package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	"github.com/allisson/otpvault/internal/slot/usecase"
	usecaseMocks "github.com/allisson/otpvault/internal/slot/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func expectRecord(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "slot", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "slot", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestSlotUseCaseWithMetrics_Unlock(t *testing.T) {
	ctx := context.Background()
	slots := &slotDomain.SlotList{}

	tests := []struct {
		name       string
		credential usecase.Credential
		err        error
		operation  string
		status     string
	}{
		{"Success_Password", usecase.PasswordCredential{}, nil, "unlock_password", "success"},
		{"Error_Rejected", usecase.PasswordCredential{}, slotDomain.ErrSlotIntegrity, "unlock_password", "rejected"},
		{
			"Error_Cancelled",
			usecase.BiometricCredential{},
			keystoreDomain.ErrAuthenticationCancelled,
			"unlock_biometric",
			"cancelled",
		},
		{
			"Error_Invalidated",
			usecase.BiometricCredential{},
			keystoreDomain.ErrKeyPermanentlyInvalidated,
			"unlock_biometric",
			"invalidated",
		},
		{"Error_Other", usecase.RawCredential{}, slotDomain.ErrSlot, "unlock_raw", "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockNext := &usecaseMocks.MockSlotUseCase{}
			mockMetrics := &mockBusinessMetrics{}
			uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

			var result *usecase.UnlockResult
			if tc.err == nil {
				result = &usecase.UnlockResult{}
				mockNext.On("Unlock", ctx, slots, tc.credential).Return(result, nil).Once()
			} else {
				mockNext.On("Unlock", ctx, slots, tc.credential).Return(nil, tc.err).Once()
			}
			expectRecord(mockMetrics, ctx, tc.operation, tc.status)

			got, err := uc.Unlock(ctx, slots, tc.credential)
			assert.Equal(t, result, got)
			assert.ErrorIs(t, err, tc.err)
			mockNext.AssertExpectations(t)
			mockMetrics.AssertExpectations(t)
		})
	}
}

func TestSlotUseCaseWithMetrics_Mutations(t *testing.T) {
	ctx := context.Background()
	slots := &slotDomain.SlotList{}
	slot := slotDomain.New(slotDomain.TypePassword)

	t.Run("Success_AddPasswordSlot", func(t *testing.T) {
		mockNext := &usecaseMocks.MockSlotUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("AddPasswordSlot", ctx, slots, mock.Anything, []byte("pw")).Return(slot, nil).Once()
		expectRecord(mockMetrics, ctx, "slot_add_password", "success")

		got, err := uc.AddPasswordSlot(ctx, slots, nil, []byte("pw"))
		assert.NoError(t, err)
		assert.Equal(t, slot, got)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_AddBiometricSlot", func(t *testing.T) {
		mockNext := &usecaseMocks.MockSlotUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("AddBiometricSlot", ctx, slots, mock.Anything, mock.Anything).
			Return(nil, keystoreDomain.ErrKeyStoreUnsupported).
			Once()
		expectRecord(mockMetrics, ctx, "slot_add_biometric", "error")

		_, err := uc.AddBiometricSlot(ctx, slots, nil, nil)
		assert.ErrorIs(t, err, keystoreDomain.ErrKeyStoreUnsupported)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Success_AddRawSlot", func(t *testing.T) {
		mockNext := &usecaseMocks.MockSlotUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("AddRawSlot", ctx, slots, mock.Anything, mock.Anything).Return(slot, nil).Once()
		expectRecord(mockMetrics, ctx, "slot_add_raw", "success")

		_, err := uc.AddRawSlot(ctx, slots, nil, make([]byte, 32))
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RemoveSlot", func(t *testing.T) {
		mockNext := &usecaseMocks.MockSlotUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

		id := uuid.New()
		mockNext.On("RemoveSlot", ctx, slots, id).Return(slotDomain.ErrLastSlot).Once()
		expectRecord(mockMetrics, ctx, "slot_remove", "error")

		err := uc.RemoveSlot(ctx, slots, id)
		assert.ErrorIs(t, err, slotDomain.ErrLastSlot)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Success_ReleaseSlotKey", func(t *testing.T) {
		mockNext := &usecaseMocks.MockSlotUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

		slot := slotDomain.New(slotDomain.TypeBiometric)
		mockNext.On("ReleaseSlotKey", ctx, slot).Return(nil).Once()
		expectRecord(mockMetrics, ctx, "slot_release_key", "success")

		assert.NoError(t, uc.ReleaseSlotKey(ctx, slot))
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Success_ChangePassword", func(t *testing.T) {
		mockNext := &usecaseMocks.MockSlotUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewSlotUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("ChangePassword", ctx, slots, mock.Anything, []byte("new")).Return(slot, nil).Once()
		expectRecord(mockMetrics, ctx, "password_change", "success")

		_, err := uc.ChangePassword(ctx, slots, nil, []byte("new"))
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}
