// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/otpvault/internal/config"
	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	"github.com/allisson/otpvault/internal/database"
	keystoreRepository "github.com/allisson/otpvault/internal/keystore/repository"
	keystoreUseCase "github.com/allisson/otpvault/internal/keystore/usecase"
	"github.com/allisson/otpvault/internal/metrics"
	slotService "github.com/allisson/otpvault/internal/slot/service"
	slotUseCase "github.com/allisson/otpvault/internal/slot/usecase"
	vaultRepository "github.com/allisson/otpvault/internal/vault/repository"
	vaultService "github.com/allisson/otpvault/internal/vault/service"
	vaultUseCase "github.com/allisson/otpvault/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	boltRepo        *keystoreRepository.BoltEntryRepository
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Crypto
	aeadManager    cryptoService.AEADManager
	kdf            cryptoService.KDF
	kmsService     cryptoService.KMSService
	softwareKeeper cryptoDomain.KMSKeeper
	hardwareKeeper cryptoDomain.KMSKeeper

	// Repositories
	entryRepo keystoreUseCase.EntryRepository
	vaultRepo *vaultRepository.BlobVaultRepository

	// Services and use cases
	keyStore    keystoreUseCase.KeyStore
	slotManager *slotService.SlotManager
	slotUseCase slotUseCase.SlotUseCase
	vaultCodec  *vaultService.VaultCodec
	session     *vaultUseCase.Session

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	txManagerInit       sync.Once
	aeadManagerInit     sync.Once
	kdfInit             sync.Once
	kmsServiceInit      sync.Once
	keepersInit         sync.Once
	entryRepoInit       sync.Once
	vaultRepoInit       sync.Once
	keyStoreInit        sync.Once
	slotManagerInit     sync.Once
	slotUseCaseInit     sync.Once
	vaultCodecInit      sync.Once
	sessionInit         sync.Once
	initErrors          map[string]error

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection used by the postgres and mysql key stores.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager for the configured key store driver.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// A no-op recorder is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// Shutdown performs cleanup of all initialized resources.
// The session is locked first so key material is scrubbed before anything else closes.
// Metrics are written to the configured textfile last.
//
// Shutdown runs once; later and concurrent calls wait for it and return its result.
func (c *Container) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.shutdownErr = c.shutdown(ctx)
	})
	return c.shutdownErr
}

func (c *Container) shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.session != nil {
		if err := c.session.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("session close: %w", err))
		}
	}

	if c.vaultRepo != nil {
		if err := c.vaultRepo.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("vault bucket close: %w", err))
		}
	}

	if c.softwareKeeper != nil {
		if err := c.softwareKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("software keeper close: %w", err))
		}
	}

	if c.hardwareKeeper != nil {
		if err := c.hardwareKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("hardware keeper close: %w", err))
		}
	}

	if c.boltRepo != nil {
		if err := c.boltRepo.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("keystore bolt close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if path := c.config.MetricsTextfile; path != "" {
			if err := c.metricsProvider.WriteTextfile(path); err != nil {
				shutdownErrors = append(shutdownErrors, err)
			}
		}
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// stdout carries command output, so logs go to stderr.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initMetricsProvider creates the metrics provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}
