package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/otpvault/internal/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "file://./data?create_dir=1", cfg.VaultBucketURL)
				assert.Equal(t, "aegis.json", cfg.VaultObjectKey)
				assert.Equal(t, 32768, cfg.ScryptN)
				assert.Equal(t, 8, cfg.ScryptR)
				assert.Equal(t, 1, cfg.ScryptP)
				assert.Equal(t, 1.0, cfg.UnlockRatePerSec)
				assert.Equal(t, 5, cfg.UnlockBurst)
				assert.Equal(t, "bolt", cfg.KeyStoreDriver)
				assert.Equal(t, "./data/keystore.db", cfg.KeyStoreBoltPath)
				assert.True(t, cfg.KeyStoreSupported)
				assert.Empty(t, cfg.KeyStoreKeyURI)
				assert.Empty(t, cfg.KeyStoreHardwareKeyURI)
				assert.Empty(t, cfg.PlatformSecurityPatch)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5, cfg.DBMaxIdleConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "otpvault", cfg.MetricsNamespace)
				assert.Empty(t, cfg.MetricsTextfile)
			},
		},
		{
			name: "load custom vault storage",
			envVars: map[string]string{
				"VAULT_BUCKET_URL": "mem://",
				"VAULT_OBJECT_KEY": "backup.json",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mem://", cfg.VaultBucketURL)
				assert.Equal(t, "backup.json", cfg.VaultObjectKey)
			},
		},
		{
			name: "load custom key derivation",
			envVars: map[string]string{
				"SCRYPT_N": "16384",
				"SCRYPT_R": "4",
				"SCRYPT_P": "2",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 16384, cfg.ScryptN)
				assert.Equal(t, 4, cfg.ScryptR)
				assert.Equal(t, 2, cfg.ScryptP)
			},
		},
		{
			name: "load custom keystore configuration",
			envVars: map[string]string{
				"KEYSTORE_DRIVER":           "postgres",
				"KEYSTORE_SUPPORTED":        "false",
				"KEYSTORE_KEY_URI":          "base64key://c29mdHdhcmU=",
				"KEYSTORE_HARDWARE_KEY_URI": "hashivault://strongbox",
				"PLATFORM_SECURITY_PATCH":   "2019-11-05",
				"PLATFORM_ENROLLMENT_ID":    "enrollment-1",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.KeyStoreDriver)
				assert.False(t, cfg.KeyStoreSupported)
				assert.Equal(t, "base64key://c29mdHdhcmU=", cfg.KeyStoreKeyURI)
				assert.Equal(t, "hashivault://strongbox", cfg.KeyStoreHardwareKeyURI)
				assert.Equal(t, "2019-11-05", cfg.PlatformSecurityPatch)
				assert.Equal(t, "enrollment-1", cfg.PlatformEnrollmentID)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			// Load configuration
			cfg := Load()

			// Validate
			tt.validate(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		os.Clearenv()
		return Load()
	}

	t.Run("Success_Defaults", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(cfg *Config)
		field  string
	}{
		{
			name:   "Error_InvalidLogLevel",
			mutate: func(cfg *Config) { cfg.LogLevel = "trace" },
			field:  "LogLevel",
		},
		{
			name:   "Error_BlankObjectKey",
			mutate: func(cfg *Config) { cfg.VaultObjectKey = "  " },
			field:  "VaultObjectKey",
		},
		{
			name:   "Error_ObjectKeyPadded",
			mutate: func(cfg *Config) { cfg.VaultObjectKey = " aegis.json" },
			field:  "VaultObjectKey",
		},
		{
			name:   "Error_ScryptNNotPowerOfTwo",
			mutate: func(cfg *Config) { cfg.ScryptN = 1000 },
			field:  "ScryptN",
		},
		{
			name:   "Error_ScryptNTooLarge",
			mutate: func(cfg *Config) { cfg.ScryptN = 1 << 21 },
			field:  "ScryptN",
		},
		{
			name:   "Error_NonPositiveUnlockRate",
			mutate: func(cfg *Config) { cfg.UnlockRatePerSec = -1 },
			field:  "UnlockRatePerSec",
		},
		{
			name:   "Error_UnknownKeyStoreDriver",
			mutate: func(cfg *Config) { cfg.KeyStoreDriver = "sqlite" },
			field:  "KeyStoreDriver",
		},
		{
			name: "Error_BoltWithoutPath",
			mutate: func(cfg *Config) {
				cfg.KeyStoreDriver = "bolt"
				cfg.KeyStoreBoltPath = ""
			},
			field: "KeyStoreBoltPath",
		},
		{
			name:   "Error_MalformedSecurityPatch",
			mutate: func(cfg *Config) { cfg.PlatformSecurityPatch = "05/12/2019" },
			field:  "PlatformSecurityPatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
