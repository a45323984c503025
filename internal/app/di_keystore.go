package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/allisson/otpvault/internal/database"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	keystoreRepository "github.com/allisson/otpvault/internal/keystore/repository"
	keystoreUseCase "github.com/allisson/otpvault/internal/keystore/usecase"
)

// boltOpenTimeout bounds the wait for another process holding the bolt file lock.
const boltOpenTimeout = 5 * time.Second

// Platform returns the platform capabilities derived from configuration.
func (c *Container) Platform() keystoreDomain.Platform {
	return keystoreDomain.StaticPlatform{
		Supported:      c.config.KeyStoreSupported,
		SecureHardware: c.config.KeyStoreHardwareKeyURI != "",
		Patch:          c.config.PlatformSecurityPatch,
		Enrollment:     c.config.PlatformEnrollmentID,
	}
}

// EntryRepository returns the key store entry repository for the configured driver.
func (c *Container) EntryRepository() (keystoreUseCase.EntryRepository, error) {
	var err error
	c.entryRepoInit.Do(func() {
		c.entryRepo, err = c.initEntryRepository()
		if err != nil {
			c.initErrors["entryRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["entryRepo"]; exists {
		return nil, storedErr
	}
	return c.entryRepo, nil
}

// KeyStore returns the key store handle, wrapped with metrics.
func (c *Container) KeyStore(ctx context.Context) (keystoreUseCase.KeyStore, error) {
	var err error
	c.keyStoreInit.Do(func() {
		c.keyStore, err = c.initKeyStore(ctx)
		if err != nil {
			c.initErrors["keyStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.KeyStoreDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager. Only the SQL drivers have
// transactions spanning several repository calls.
func (c *Container) initTxManager() (database.TxManager, error) {
	switch c.config.KeyStoreDriver {
	case "postgres", "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	default:
		return database.NewNopTxManager(), nil
	}
}

// initEntryRepository creates the entry repository based on the key store driver.
func (c *Container) initEntryRepository() (keystoreUseCase.EntryRepository, error) {
	switch c.config.KeyStoreDriver {
	case "bolt":
		repo, err := keystoreRepository.OpenBoltEntryRepository(c.config.KeyStoreBoltPath, boltOpenTimeout)
		if err != nil {
			return nil, err
		}
		c.boltRepo = repo
		return repo, nil
	case "memory":
		return keystoreRepository.NewMemoryEntryRepository(), nil
	case "postgres":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for entry repository: %w", err)
		}
		return keystoreRepository.NewPostgreSQLEntryRepository(db), nil
	case "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for entry repository: %w", err)
		}
		return keystoreRepository.NewMySQLEntryRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported keystore driver: %s", c.config.KeyStoreDriver)
	}
}

// initKeyStore creates the key store handle with all its dependencies.
func (c *Container) initKeyStore(ctx context.Context) (keystoreUseCase.KeyStore, error) {
	repo, err := c.EntryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry repository for key store: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for key store: %w", err)
	}

	softwareKeeper, hardwareKeeper, err := c.Keepers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get keepers for key store: %w", err)
	}

	keyStore := keystoreUseCase.NewKeyStore(
		c.Platform(),
		repo,
		txManager,
		c.AEADManager(),
		softwareKeeper,
		hardwareKeeper,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for key store: %w", err)
	}
	return keystoreUseCase.NewKeyStoreWithMetrics(keyStore, businessMetrics), nil
}
