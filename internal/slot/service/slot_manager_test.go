package service

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	apperrors "github.com/allisson/otpvault/internal/errors"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
)

// Low scrypt cost keeps the tests fast; parameter handling is identical.
func newTestSlotManager() *SlotManager {
	return NewSlotManager(
		cryptoService.NewAEADManager(),
		cryptoService.NewScryptKDF(1<<4, 8, 1),
	)
}

func newMasterKey(t *testing.T) (*cryptoDomain.MasterKey, []byte) {
	t.Helper()
	mk, err := cryptoDomain.GenerateMasterKey()
	require.NoError(t, err)
	b, err := mk.Bytes()
	require.NoError(t, err)
	return mk, bytes.Clone(b)
}

func TestSlotManager_RawSlot(t *testing.T) {
	sm := newTestSlotManager()

	t.Run("Success_RoundTrip", func(t *testing.T) {
		mk, expected := newMasterKey(t)
		rawKey, err := cryptoService.GenerateKey()
		require.NoError(t, err)

		slot, err := sm.NewRawSlot(mk, rawKey)
		require.NoError(t, err)
		assert.Equal(t, slotDomain.TypeRaw, slot.Type)
		assert.True(t, slot.HasKey())
		assert.Nil(t, slot.SCrypt)

		got, err := sm.UnwrapRaw(slot, rawKey)
		require.NoError(t, err)
		b, err := got.Bytes()
		require.NoError(t, err)
		assert.Equal(t, expected, b)
	})

	t.Run("Error_KeyBitFlip", func(t *testing.T) {
		mk, _ := newMasterKey(t)
		rawKey, err := cryptoService.GenerateKey()
		require.NoError(t, err)

		slot, err := sm.NewRawSlot(mk, rawKey)
		require.NoError(t, err)

		for i := 0; i < len(rawKey)*8; i++ {
			flipped := bytes.Clone(rawKey)
			flipped[i/8] ^= 1 << (i % 8)

			got, err := sm.UnwrapRaw(slot, flipped)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, slotDomain.ErrSlotIntegrity)
		}
	})

	t.Run("Error_CiphertextBitFlip", func(t *testing.T) {
		mk, _ := newMasterKey(t)
		rawKey, err := cryptoService.GenerateKey()
		require.NoError(t, err)

		slot, err := sm.NewRawSlot(mk, rawKey)
		require.NoError(t, err)

		for i := 0; i < len(slot.EncryptedMasterKey)*8; i++ {
			tampered := slot.Clone()
			tampered.EncryptedMasterKey[i/8] ^= 1 << (i % 8)

			got, err := sm.UnwrapRaw(tampered, rawKey)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, slotDomain.ErrSlotIntegrity)
			assert.ErrorIs(t, err, apperrors.ErrIntegrity)
		}
	})

	t.Run("Error_InvalidRawKeySize", func(t *testing.T) {
		mk, _ := newMasterKey(t)
		_, err := sm.NewRawSlot(mk, []byte("short"))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("Error_DestroyedMasterKey", func(t *testing.T) {
		mk, _ := newMasterKey(t)
		mk.Destroy()
		rawKey, err := cryptoService.GenerateKey()
		require.NoError(t, err)

		_, err = sm.NewRawSlot(mk, rawKey)
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyDestroyed)
	})

	t.Run("Error_WrongType", func(t *testing.T) {
		slot := slotDomain.New(slotDomain.TypePassword)
		_, err := sm.UnwrapRaw(slot, make([]byte, 32))
		assert.ErrorIs(t, err, slotDomain.ErrSlotTypeMismatch)
	})

	t.Run("Error_MissingParams", func(t *testing.T) {
		slot := slotDomain.New(slotDomain.TypeRaw)
		_, err := sm.UnwrapRaw(slot, make([]byte, 32))
		assert.ErrorIs(t, err, slotDomain.ErrSlot)
		assert.NotErrorIs(t, err, slotDomain.ErrSlotIntegrity)
	})
}

func TestSlotManager_PasswordSlot(t *testing.T) {
	sm := newTestSlotManager()
	password := cryptoService.PasswordBytes([]rune("correct horse 🐎 battery"))

	t.Run("Success_RoundTrip", func(t *testing.T) {
		mk, expected := newMasterKey(t)

		slot, err := sm.NewPasswordSlot(mk, password)
		require.NoError(t, err)
		assert.Equal(t, slotDomain.TypePassword, slot.Type)
		assert.True(t, slot.Repaired)
		require.NotNil(t, slot.SCrypt)
		assert.Len(t, slot.SCrypt.Salt, cryptoDomain.SaltSize)

		got, err := sm.UnwrapPassword(slot, password)
		require.NoError(t, err)
		b, err := got.Bytes()
		require.NoError(t, err)
		assert.Equal(t, expected, b)
	})

	t.Run("Success_FreshParametersPerSlot", func(t *testing.T) {
		mk, _ := newMasterKey(t)

		a, err := sm.NewPasswordSlot(mk, password)
		require.NoError(t, err)
		b, err := sm.NewPasswordSlot(mk, password)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, a.SCrypt.Salt, b.SCrypt.Salt)
		assert.NotEqual(t, a.Params.Nonce, b.Params.Nonce)

		ka, err := sm.DerivePasswordKey(a, password)
		require.NoError(t, err)
		kb, err := sm.DerivePasswordKey(b, password)
		require.NoError(t, err)
		assert.NotEqual(t, ka, kb)
	})

	t.Run("Success_DeterministicDerivation", func(t *testing.T) {
		mk, _ := newMasterKey(t)
		slot, err := sm.NewPasswordSlot(mk, password)
		require.NoError(t, err)

		k1, err := sm.DerivePasswordKey(slot, password)
		require.NoError(t, err)
		k2, err := sm.DerivePasswordKey(slot, password)
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		mk, _ := newMasterKey(t)
		slot, err := sm.NewPasswordSlot(mk, password)
		require.NoError(t, err)

		got, err := sm.UnwrapPassword(slot, []byte("wrong"))
		assert.Nil(t, got)
		assert.ErrorIs(t, err, slotDomain.ErrSlotIntegrity)
	})

	t.Run("Error_MissingSCrypt", func(t *testing.T) {
		slot := slotDomain.New(slotDomain.TypePassword)
		_, err := sm.DerivePasswordKey(slot, password)
		assert.ErrorIs(t, err, slotDomain.ErrMissingSlotField)
	})

	t.Run("Error_WrongType", func(t *testing.T) {
		slot := slotDomain.New(slotDomain.TypeBiometric)
		_, err := sm.DerivePasswordKey(slot, password)
		assert.ErrorIs(t, err, slotDomain.ErrSlotTypeMismatch)
	})
}

func TestSlotManager_BiometricSlot(t *testing.T) {
	sm := newTestSlotManager()
	aeadManager := cryptoService.NewAEADManager()

	platformKey, err := cryptoService.GenerateKey()
	require.NoError(t, err)
	aead, err := aeadManager.CreateCipher(platformKey)
	require.NoError(t, err)

	mk, expected := newMasterKey(t)
	id := uuid.New()

	slot, err := sm.NewBiometricSlot(id, mk, aead)
	require.NoError(t, err)
	assert.Equal(t, id, slot.ID)
	assert.Equal(t, id.String(), slot.Alias())
	assert.Equal(t, slotDomain.TypeBiometric, slot.Type)

	got, err := sm.Unwrap(slot, aead)
	require.NoError(t, err)
	b, err := got.Bytes()
	require.NoError(t, err)
	assert.Equal(t, expected, b)

	other, err := aeadManager.CreateCipher(make([]byte, 32))
	require.NoError(t, err)
	_, err = sm.Unwrap(slot, other)
	assert.ErrorIs(t, err, slotDomain.ErrSlotIntegrity)
}

func TestSlotManager_AllSlotsWrapSameMasterKey(t *testing.T) {
	sm := newTestSlotManager()
	mk, expected := newMasterKey(t)

	rawKey, err := cryptoService.GenerateKey()
	require.NoError(t, err)
	raw, err := sm.NewRawSlot(mk, rawKey)
	require.NoError(t, err)
	pw, err := sm.NewPasswordSlot(mk, []byte("pw"))
	require.NoError(t, err)

	fromRaw, err := sm.UnwrapRaw(raw, rawKey)
	require.NoError(t, err)
	fromPassword, err := sm.UnwrapPassword(pw, []byte("pw"))
	require.NoError(t, err)

	a, err := fromRaw.Bytes()
	require.NoError(t, err)
	b, err := fromPassword.Bytes()
	require.NoError(t, err)
	assert.Equal(t, expected, a)
	assert.Equal(t, expected, b)
}
