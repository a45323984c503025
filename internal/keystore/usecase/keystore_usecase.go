package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	"github.com/allisson/otpvault/internal/database"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// clearConcurrency bounds the number of concurrent deletions in Clear.
const clearConcurrency = 4

// keyStoreHandle implements KeyStore on top of an entry repository and two keepers.
//
// Key material is wrapped by the hardware keeper when the key is hardware
// backed, and by the software keeper otherwise. Every key is bound to user
// authentication and to the enrollment that was current when it was generated.
type keyStoreHandle struct {
	platform       keystoreDomain.Platform
	repo           EntryRepository
	txManager      database.TxManager
	aeadManager    cryptoService.AEADManager
	softwareKeeper cryptoDomain.KMSKeeper
	hardwareKeeper cryptoDomain.KMSKeeper
	logger         *slog.Logger
}

// NewKeyStore creates the key store handle.
//
// softwareKeeper may be nil, in which case the key store reports itself as
// unsupported. hardwareKeeper may be nil when no secure hardware is available.
func NewKeyStore(
	platform keystoreDomain.Platform,
	repo EntryRepository,
	txManager database.TxManager,
	aeadManager cryptoService.AEADManager,
	softwareKeeper cryptoDomain.KMSKeeper,
	hardwareKeeper cryptoDomain.KMSKeeper,
	logger *slog.Logger,
) KeyStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &keyStoreHandle{
		platform:       platform,
		repo:           repo,
		txManager:      txManager,
		aeadManager:    aeadManager,
		softwareKeeper: softwareKeeper,
		hardwareKeeper: hardwareKeeper,
		logger:         logger,
	}
}

// handleError wraps an unexpected backend failure.
func handleError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", keystoreDomain.ErrKeyStoreHandle, op, err)
}

// IsSupported reports whether the platform offers a key store and a software keeper is configured.
func (k *keyStoreHandle) IsSupported() bool {
	return k.platform.SupportsKeyStore() && k.softwareKeeper != nil
}

// useHardware decides whether new keys are generated in secure hardware.
func (k *keyStoreHandle) useHardware() bool {
	if k.hardwareKeeper == nil || !k.platform.HasSecureHardware() {
		return false
	}
	return !keystoreDomain.IsHardwareKeyDefectPresent(k.platform.SecurityPatch())
}

// ContainsKey reports whether an entry exists for alias.
func (k *keyStoreHandle) ContainsKey(ctx context.Context, alias string) (bool, error) {
	if !k.IsSupported() {
		return false, keystoreDomain.ErrKeyStoreUnsupported
	}

	_, err := k.repo.Get(ctx, alias)
	if err != nil {
		if errors.Is(err, keystoreDomain.ErrEntryNotFound) {
			return false, nil
		}
		return false, handleError("contains key", err)
	}
	return true, nil
}

// GenerateKey creates a fresh authentication-bound key for alias.
func (k *keyStoreHandle) GenerateKey(ctx context.Context, alias string) (*keystoreDomain.Key, error) {
	if !k.IsSupported() {
		return nil, keystoreDomain.ErrKeyStoreUnsupported
	}
	if alias == "" {
		return nil, keystoreDomain.ErrInvalidAlias
	}

	material, err := cryptoService.GenerateKey()
	if err != nil {
		return nil, handleError("generate key", err)
	}

	hardware := k.useHardware()
	keeper := k.softwareKeeper
	if hardware {
		keeper = k.hardwareKeeper
	}

	wrapped, err := keeper.Encrypt(ctx, material)
	if err != nil {
		cryptoDomain.Zero(material)
		return nil, handleError("wrap key", err)
	}

	entry := &keystoreDomain.Entry{
		Alias:          alias,
		WrappedKey:     wrapped,
		HardwareBacked: hardware,
		AuthRequired:   true,
		EnrollmentID:   k.platform.EnrollmentID(),
		CreatedAt:      time.Now().UTC(),
	}

	err = k.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := k.repo.Delete(ctx, alias); err != nil {
			return err
		}
		return k.repo.Create(ctx, entry)
	})
	if err != nil {
		cryptoDomain.Zero(material)
		return nil, handleError("store key", err)
	}

	k.logger.Info("keystore key generated",
		slog.String("alias", alias),
		slog.Bool("hardware_backed", hardware),
	)

	return keystoreDomain.NewKey(alias, hardware, true, entry.EnrollmentID, material), nil
}

// GetKey loads the key for alias. Unknown, unrecoverable and permanently
// invalidated keys are reported as absent.
func (k *keyStoreHandle) GetKey(ctx context.Context, alias string) (*keystoreDomain.Key, bool, error) {
	if !k.IsSupported() {
		return nil, false, keystoreDomain.ErrKeyStoreUnsupported
	}

	entry, err := k.repo.Get(ctx, alias)
	if err != nil {
		if errors.Is(err, keystoreDomain.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, handleError("get key", err)
	}

	keeper := k.softwareKeeper
	if entry.HardwareBacked {
		keeper = k.hardwareKeeper
	}
	if keeper == nil {
		k.logger.Warn("keystore key unrecoverable", slog.String("alias", alias), slog.String("reason", "keeper unavailable"))
		return nil, false, nil
	}

	material, err := keeper.Decrypt(ctx, entry.WrappedKey)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, handleError("unwrap key", ctxErr)
		}
		k.logger.Warn("keystore key unrecoverable", slog.String("alias", alias), slog.String("reason", "unwrap failed"))
		return nil, false, nil
	}
	if len(material) != cryptoDomain.KeySize {
		cryptoDomain.Zero(material)
		k.logger.Warn("keystore key unrecoverable", slog.String("alias", alias), slog.String("reason", "bad key size"))
		return nil, false, nil
	}

	key := keystoreDomain.NewKey(alias, entry.HardwareBacked, entry.AuthRequired, entry.EnrollmentID, material)

	// A trivial cipher initialisation reveals permanent invalidation.
	if _, err := k.initCipher(key); err != nil {
		key.Destroy()
		if errors.Is(err, keystoreDomain.ErrKeyPermanentlyInvalidated) {
			k.logger.Warn("keystore key permanently invalidated", slog.String("alias", alias))
			return nil, false, nil
		}
		return nil, false, handleError("init cipher", err)
	}

	return key, true, nil
}

// Cipher releases key through authenticator and returns an AEAD using it.
func (k *keyStoreHandle) Cipher(
	ctx context.Context,
	key *keystoreDomain.Key,
	authenticator keystoreDomain.Authenticator,
) (cryptoService.AEAD, error) {
	if key.AuthRequired {
		if authenticator == nil {
			return nil, fmt.Errorf("%w: no authenticator for %s", keystoreDomain.ErrAuthenticationCancelled, key.Alias)
		}
		if err := authenticator.Authenticate(ctx, key.Alias); err != nil {
			switch {
			case errors.Is(err, keystoreDomain.ErrAuthenticationCancelled),
				errors.Is(err, context.Canceled),
				errors.Is(err, context.DeadlineExceeded):
				return nil, fmt.Errorf("%w: %s", keystoreDomain.ErrAuthenticationCancelled, key.Alias)
			case errors.Is(err, keystoreDomain.ErrKeyPermanentlyInvalidated):
				return nil, keystoreDomain.ErrKeyPermanentlyInvalidated
			default:
				return nil, handleError("authenticate", err)
			}
		}
	}

	return k.initCipher(key)
}

// initCipher checks the enrollment binding and builds an AEAD from the key material.
func (k *keyStoreHandle) initCipher(key *keystoreDomain.Key) (cryptoService.AEAD, error) {
	if key.AuthRequired && key.EnrollmentID != k.platform.EnrollmentID() {
		return nil, keystoreDomain.ErrKeyPermanentlyInvalidated
	}

	buf, err := key.Open()
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()

	return k.aeadManager.CreateCipher(buf.Bytes())
}

// DeleteKey removes the key for alias. Deleting an unknown alias is not an error.
func (k *keyStoreHandle) DeleteKey(ctx context.Context, alias string) error {
	if !k.IsSupported() {
		return keystoreDomain.ErrKeyStoreUnsupported
	}

	if err := k.repo.Delete(ctx, alias); err != nil {
		return handleError("delete key", err)
	}

	k.logger.Info("keystore key deleted", slog.String("alias", alias))
	return nil
}

// Clear deletes every alias in the key store.
func (k *keyStoreHandle) Clear(ctx context.Context) error {
	if !k.IsSupported() {
		return keystoreDomain.ErrKeyStoreUnsupported
	}

	aliases, err := k.repo.ListAliases(ctx)
	if err != nil {
		return handleError("list keys", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clearConcurrency)
	for _, alias := range aliases {
		g.Go(func() error {
			return k.repo.Delete(gctx, alias)
		})
	}
	if err := g.Wait(); err != nil {
		return handleError("clear", err)
	}

	k.logger.Info("keystore cleared", slog.Int("count", len(aliases)))
	return nil
}
