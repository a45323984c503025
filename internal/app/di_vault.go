package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	slotService "github.com/allisson/otpvault/internal/slot/service"
	slotUseCase "github.com/allisson/otpvault/internal/slot/usecase"
	vaultRepository "github.com/allisson/otpvault/internal/vault/repository"
	vaultService "github.com/allisson/otpvault/internal/vault/service"
	vaultUseCase "github.com/allisson/otpvault/internal/vault/usecase"
)

// SlotManager returns the slot wrapping service.
func (c *Container) SlotManager() *slotService.SlotManager {
	c.slotManagerInit.Do(func() {
		c.slotManager = slotService.NewSlotManager(c.AEADManager(), c.KDF())
	})
	return c.slotManager
}

// SlotUseCase returns the slot use case, wrapped with metrics.
func (c *Container) SlotUseCase(ctx context.Context) (slotUseCase.SlotUseCase, error) {
	var err error
	c.slotUseCaseInit.Do(func() {
		c.slotUseCase, err = c.initSlotUseCase(ctx)
		if err != nil {
			c.initErrors["slotUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["slotUseCase"]; exists {
		return nil, storedErr
	}
	return c.slotUseCase, nil
}

// VaultCodec returns the vault file codec.
func (c *Container) VaultCodec() *vaultService.VaultCodec {
	c.vaultCodecInit.Do(func() {
		c.vaultCodec = vaultService.NewVaultCodec(c.AEADManager())
	})
	return c.vaultCodec
}

// VaultRepository returns the blob-backed vault repository.
func (c *Container) VaultRepository(ctx context.Context) (*vaultRepository.BlobVaultRepository, error) {
	var err error
	c.vaultRepoInit.Do(func() {
		c.vaultRepo, err = vaultRepository.OpenBlobVaultRepository(
			ctx,
			c.config.VaultBucketURL,
			c.config.VaultObjectKey,
		)
		if err != nil {
			c.initErrors["vaultRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultRepo"]; exists {
		return nil, storedErr
	}
	return c.vaultRepo, nil
}

// Session returns the process-wide vault session.
func (c *Container) Session(ctx context.Context) (*vaultUseCase.Session, error) {
	var err error
	c.sessionInit.Do(func() {
		c.session, err = c.initSession(ctx)
		if err != nil {
			c.initErrors["session"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["session"]; exists {
		return nil, storedErr
	}
	return c.session, nil
}

// initSlotUseCase creates the slot use case. A key store that cannot be
// assembled is logged and left out so password and raw slots keep working.
func (c *Container) initSlotUseCase(ctx context.Context) (slotUseCase.SlotUseCase, error) {
	logger := c.Logger()

	keyStore, err := c.KeyStore(ctx)
	if err != nil {
		logger.Warn("key store unavailable, biometric slots disabled", slog.Any("error", err))
		keyStore = nil
	}

	baseUseCase := slotUseCase.NewSlotUseCase(c.SlotManager(), keyStore, logger)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for slot use case: %w", err)
	}
	return slotUseCase.NewSlotUseCaseWithMetrics(baseUseCase, businessMetrics), nil
}

// initSession creates the vault session with all its dependencies.
func (c *Container) initSession(ctx context.Context) (*vaultUseCase.Session, error) {
	repo, err := c.VaultRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault repository for session: %w", err)
	}

	useCase, err := c.SlotUseCase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot use case for session: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(c.config.UnlockRatePerSec), c.config.UnlockBurst)

	return vaultUseCase.NewSession(repo, c.VaultCodec(), useCase, limiter, c.Logger()), nil
}
