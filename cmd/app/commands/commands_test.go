package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	"github.com/allisson/otpvault/internal/database"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	keystoreRepository "github.com/allisson/otpvault/internal/keystore/repository"
	keystoreUseCase "github.com/allisson/otpvault/internal/keystore/usecase"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	slotService "github.com/allisson/otpvault/internal/slot/service"
	slotUseCase "github.com/allisson/otpvault/internal/slot/usecase"
	vaultDomain "github.com/allisson/otpvault/internal/vault/domain"
	vaultRepository "github.com/allisson/otpvault/internal/vault/repository"
	vaultService "github.com/allisson/otpvault/internal/vault/service"
	vaultUseCase "github.com/allisson/otpvault/internal/vault/usecase"
)

var discardLogger = slog.New(slog.DiscardHandler)

// newTestSession assembles a session over an in-memory bucket and key store.
func newTestSession(t *testing.T) *vaultUseCase.Session {
	t.Helper()
	ctx := context.Background()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	keeper, err := cryptoService.NewKMSService().OpenKeeper(
		ctx,
		"base64key://"+base64.URLEncoding.EncodeToString(key),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = keeper.Close() })

	aeadManager := cryptoService.NewAEADManager()
	keyStore := keystoreUseCase.NewKeyStore(
		keystoreDomain.StaticPlatform{Supported: true},
		keystoreRepository.NewMemoryEntryRepository(),
		database.NewNopTxManager(),
		aeadManager,
		keeper,
		nil,
		nil,
	)

	slotManager := slotService.NewSlotManager(aeadManager, cryptoService.NewScryptKDF(1<<4, 8, 1))
	useCase := slotUseCase.NewSlotUseCase(slotManager, keyStore, nil)
	repo := vaultRepository.NewBlobVaultRepository(memblob.OpenBucket(nil), "aegis.json")
	t.Cleanup(func() { _ = repo.Close() })

	session := vaultUseCase.NewSession(repo, vaultService.NewVaultCodec(aeadManager), useCase, nil, nil)
	t.Cleanup(session.Lock)
	return session
}

func input(lines ...string) IOTuple {
	return IOTuple{
		Reader: strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Writer: &bytes.Buffer{},
	}
}

func output(t IOTuple) string {
	return t.Writer.(*bytes.Buffer).String()
}

func initVault(t *testing.T, session *vaultUseCase.Session, password string) {
	t.Helper()
	require.NoError(t, RunInit(context.Background(), session, discardLogger, input(password, password)))
}

func TestRunInit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CreatesLockedVault", func(t *testing.T) {
		session := newTestSession(t)
		io := input("hunter2", "hunter2")

		require.NoError(t, RunInit(ctx, session, discardLogger, io))

		assert.Contains(t, output(io), "Vault created")
		assert.Equal(t, vaultUseCase.StateLocked, session.State())

		slots, err := session.Slots(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, slots.Len())
		assert.True(t, slots.Has(slotDomain.TypePassword))
	})

	t.Run("Error_PasswordMismatch", func(t *testing.T) {
		session := newTestSession(t)

		err := RunInit(ctx, session, discardLogger, input("hunter2", "hunter3"))

		assert.ErrorContains(t, err, "passwords do not match")
	})

	t.Run("Error_EmptyPassword", func(t *testing.T) {
		session := newTestSession(t)

		err := RunInit(ctx, session, discardLogger, input(""))

		assert.ErrorContains(t, err, "must not be empty")
	})

	t.Run("Success_AstralPasswordUnlocks", func(t *testing.T) {
		session := newTestSession(t)
		initVault(t, session, "p\U0001F511ss")

		require.NoError(t, RunUnlock(ctx, session, discardLogger, input("p\U0001F511ss"), "password", "text"))
	})

	t.Run("Error_PasswordNotUTF8", func(t *testing.T) {
		session := newTestSession(t)

		err := RunInit(ctx, session, discardLogger, input("bad\xffpw", "bad\xffpw"))

		assert.ErrorContains(t, err, "not valid UTF-8")
	})

	t.Run("Error_VaultExists", func(t *testing.T) {
		session := newTestSession(t)
		initVault(t, session, "hunter2")

		err := RunInit(ctx, session, discardLogger, input("other", "other"))

		assert.ErrorIs(t, err, vaultDomain.ErrVaultExists)
	})
}

func TestRunUnlock(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	initVault(t, session, "hunter2")

	t.Run("Success_Text", func(t *testing.T) {
		io := input("hunter2")

		require.NoError(t, RunUnlock(ctx, session, discardLogger, io, "password", "text"))

		assert.Contains(t, output(io), "Vault unlocked with password: 0 entries, 0 groups")
		assert.Equal(t, vaultUseCase.StateLocked, session.State())
	})

	t.Run("Success_JSON", func(t *testing.T) {
		io := input("hunter2")

		require.NoError(t, RunUnlock(ctx, session, discardLogger, io, "password", "json"))

		out := output(io)
		var got unlockOutput
		require.NoError(t, json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &got))
		assert.Equal(t, unlockOutput{Method: "password"}, got)
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		err := RunUnlock(ctx, session, discardLogger, input("hunter3"), "password", "text")

		assert.ErrorIs(t, err, slotDomain.ErrSlotIntegrity)
		assert.Equal(t, vaultUseCase.StateLocked, session.State())
	})

	t.Run("Error_NoBiometricSlot", func(t *testing.T) {
		err := RunUnlock(ctx, session, discardLogger, input("yes"), "biometric", "text")

		assert.ErrorIs(t, err, slotDomain.ErrNoMatchingSlot)
	})

	t.Run("Error_InvalidMethod", func(t *testing.T) {
		err := RunUnlock(ctx, session, discardLogger, input(), "pin", "text")

		assert.ErrorContains(t, err, "invalid unlock method")
	})

	t.Run("Error_InvalidFormat", func(t *testing.T) {
		err := RunUnlock(ctx, session, discardLogger, input("hunter2"), "password", "yaml")

		assert.ErrorContains(t, err, "invalid format")
	})

	t.Run("Error_InvalidRawKey", func(t *testing.T) {
		err := RunUnlock(ctx, session, discardLogger, input("abcd"), "raw", "text")
		assert.ErrorContains(t, err, "invalid raw key")

		err = RunUnlock(ctx, session, discardLogger, input("zz"), "raw", "text")
		assert.ErrorContains(t, err, "invalid raw key")
	})
}

func TestRunSlotCommands(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	initVault(t, session, "hunter2")

	t.Run("Success_AddBiometricAndUnlock", func(t *testing.T) {
		io := input("hunter2", "yes")
		require.NoError(t, RunAddBiometricSlot(ctx, session, discardLogger, io, "password"))
		assert.Contains(t, output(io), "Added biometric slot")

		io = input("yes")
		require.NoError(t, RunUnlock(ctx, session, discardLogger, io, "biometric", "text"))
	})

	t.Run("Error_BiometricPromptDeclined", func(t *testing.T) {
		err := RunUnlock(ctx, session, discardLogger, input("no"), "biometric", "text")

		assert.ErrorIs(t, err, keystoreDomain.ErrAuthenticationCancelled)
	})

	t.Run("Success_AddRawAndUnlock", func(t *testing.T) {
		io := input("hunter2")
		require.NoError(t, RunAddRawSlot(ctx, session, discardLogger, io, "password"))

		match := regexp.MustCompile(`Key: ([0-9a-f]{64})`).FindStringSubmatch(output(io))
		require.Len(t, match, 2)

		require.NoError(t, RunUnlock(ctx, session, discardLogger, input(match[1]), "raw", "text"))
	})

	t.Run("Success_ListJSON", func(t *testing.T) {
		io := input()
		require.NoError(t, RunListSlots(ctx, session, io, "json"))

		var got []slotOutput
		require.NoError(t, json.Unmarshal([]byte(output(io)), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "password", got[0].Type)
		assert.True(t, got[0].Repaired)
		assert.Equal(t, "biometric", got[1].Type)
		assert.Equal(t, "raw", got[2].Type)
	})

	t.Run("Success_AddPasswordAndChangePassword", func(t *testing.T) {
		require.NoError(t, RunAddPasswordSlot(ctx, session, discardLogger, input("hunter2", "second", "second"), "password"))

		slots, err := session.Slots(ctx)
		require.NoError(t, err)
		assert.Len(t, slots.FindAll(slotDomain.TypePassword), 2)

		io := input("second", "third", "third")
		require.NoError(t, RunChangePassword(ctx, session, discardLogger, io, "password"))
		assert.Contains(t, output(io), "Password changed")

		slots, err = session.Slots(ctx)
		require.NoError(t, err)
		assert.Len(t, slots.FindAll(slotDomain.TypePassword), 1)

		err = RunUnlock(ctx, session, discardLogger, input("hunter2"), "password", "text")
		assert.ErrorIs(t, err, slotDomain.ErrSlotIntegrity)
		require.NoError(t, RunUnlock(ctx, session, discardLogger, input("third"), "password", "text"))
	})

	t.Run("Success_RemoveBiometric", func(t *testing.T) {
		slots, err := session.Slots(ctx)
		require.NoError(t, err)
		bio := slots.FindAll(slotDomain.TypeBiometric)
		require.Len(t, bio, 1)

		io := input("third")
		require.NoError(t, RunRemoveSlot(ctx, session, discardLogger, io, "password", bio[0].ID.String()))
		assert.Contains(t, output(io), "Removed slot")

		err = RunUnlock(ctx, session, discardLogger, input("yes"), "biometric", "text")
		assert.ErrorIs(t, err, slotDomain.ErrNoMatchingSlot)
	})

	t.Run("Error_InvalidSlotID", func(t *testing.T) {
		err := RunRemoveSlot(ctx, session, discardLogger, input("third"), "password", "not-a-uuid")

		assert.ErrorContains(t, err, "invalid slot id")
	})

	t.Run("Error_UnknownSlot", func(t *testing.T) {
		err := RunRemoveSlot(
			ctx, session, discardLogger, input("third"), "password", "ac3f4ddf-4c90-44b4-883d-f2aebd3618ae",
		)

		assert.ErrorIs(t, err, slotDomain.ErrSlotNotFound)
		assert.Equal(t, vaultUseCase.StateLocked, session.State())
	})
}

func TestRunListSlots(t *testing.T) {
	t.Run("Error_VaultMissing", func(t *testing.T) {
		session := newTestSession(t)

		err := RunListSlots(context.Background(), session, input(), "text")

		assert.ErrorIs(t, err, vaultDomain.ErrVaultNotFound)
	})

	t.Run("Success_Text", func(t *testing.T) {
		session := newTestSession(t)
		initVault(t, session, "hunter2")
		io := input()

		require.NoError(t, RunListSlots(context.Background(), session, io, "text"))

		assert.Regexp(t, `^[0-9a-f-]{36}\tpassword\n$`, output(io))
	})
}

type mockKeyStoreClearer struct {
	mock.Mock
}

func (m *mockKeyStoreClearer) IsSupported() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockKeyStoreClearer) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestRunClearKeyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Confirmed", func(t *testing.T) {
		keyStore := &mockKeyStoreClearer{}
		keyStore.On("IsSupported").Return(true)
		keyStore.On("Clear", ctx).Return(nil)
		io := input("yes")

		require.NoError(t, RunClearKeyStore(ctx, keyStore, discardLogger, io, false))

		assert.Contains(t, output(io), "Key store cleared")
		keyStore.AssertExpectations(t)
	})

	t.Run("Success_Forced", func(t *testing.T) {
		keyStore := &mockKeyStoreClearer{}
		keyStore.On("IsSupported").Return(true)
		keyStore.On("Clear", ctx).Return(nil)

		require.NoError(t, RunClearKeyStore(ctx, keyStore, discardLogger, input(), true))
		keyStore.AssertExpectations(t)
	})

	t.Run("Success_Declined", func(t *testing.T) {
		keyStore := &mockKeyStoreClearer{}
		keyStore.On("IsSupported").Return(true)
		io := input("no")

		require.NoError(t, RunClearKeyStore(ctx, keyStore, discardLogger, io, false))

		assert.Contains(t, output(io), "Aborted")
		keyStore.AssertNotCalled(t, "Clear", mock.Anything)
	})

	t.Run("Error_Unsupported", func(t *testing.T) {
		keyStore := &mockKeyStoreClearer{}
		keyStore.On("IsSupported").Return(false)

		err := RunClearKeyStore(ctx, keyStore, discardLogger, input(), true)

		assert.ErrorContains(t, err, "not supported")
	})

	t.Run("Error_ClearFails", func(t *testing.T) {
		keyStore := &mockKeyStoreClearer{}
		keyStore.On("IsSupported").Return(true)
		keyStore.On("Clear", ctx).Return(errors.New("backend down"))

		err := RunClearKeyStore(ctx, keyStore, discardLogger, input(), true)

		assert.ErrorContains(t, err, "failed to clear key store")
	})
}
