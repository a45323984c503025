package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = c.initAEADManager()
	})
	return c.aeadManager
}

// KDF returns the scrypt key derivation used for new password slots.
func (c *Container) KDF() cryptoService.KDF {
	c.kdfInit.Do(func() {
		c.kdf = c.initKDF()
	})
	return c.kdf
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = c.initKMSService()
	})
	return c.kmsService
}

// Keepers returns the software and hardware keepers wrapping key store material.
// Either may be nil when its URI is not configured.
func (c *Container) Keepers(ctx context.Context) (software, hardware cryptoDomain.KMSKeeper, err error) {
	c.keepersInit.Do(func() {
		err = c.initKeepers(ctx)
		if err != nil {
			c.initErrors["keepers"] = err
		}
	})
	if err != nil {
		return nil, nil, err
	}
	if storedErr, exists := c.initErrors["keepers"]; exists {
		return nil, nil, storedErr
	}
	return c.softwareKeeper, c.hardwareKeeper, nil
}

// initAEADManager creates the AEAD manager service.
func (c *Container) initAEADManager() cryptoService.AEADManager {
	return cryptoService.NewAEADManager()
}

// initKDF creates the scrypt KDF from the configured cost parameters.
func (c *Container) initKDF() cryptoService.KDF {
	return cryptoService.NewScryptKDF(c.config.ScryptN, c.config.ScryptR, c.config.ScryptP)
}

// initKMSService creates the KMS service for opening keepers.
func (c *Container) initKMSService() cryptoService.KMSService {
	return cryptoService.NewKMSService()
}

// initKeepers opens the configured keepers.
func (c *Container) initKeepers(ctx context.Context) error {
	kmsService := c.KMSService()

	if uri := c.config.KeyStoreKeyURI; uri != "" {
		keeper, err := kmsService.OpenKeeper(ctx, uri)
		if err != nil {
			return fmt.Errorf("failed to open keystore keeper: %w", err)
		}
		c.softwareKeeper = keeper
	}

	if uri := c.config.KeyStoreHardwareKeyURI; uri != "" {
		keeper, err := kmsService.OpenKeeper(ctx, uri)
		if err != nil {
			return fmt.Errorf("failed to open hardware keeper: %w", err)
		}
		c.hardwareKeeper = keeper
	}

	return nil
}
