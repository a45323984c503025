package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("Success_CreateProviderWithNamespace", func(t *testing.T) {
		provider, err := NewProvider("test_app")

		require.NoError(t, err)
		assert.NotNil(t, provider)
		assert.NotNil(t, provider.meterProvider)
		assert.NotNil(t, provider.exporter)
		assert.NotNil(t, provider.registry)
	})

	t.Run("Success_CreateProviderWithEmptyNamespace", func(t *testing.T) {
		provider, err := NewProvider("")

		require.NoError(t, err)
		assert.NotNil(t, provider)
	})
}

func TestProvider_MeterProvider(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.Gatherer())
}

func TestProvider_WriteTextfile(t *testing.T) {
	t.Run("Success_CreatesParentDirectories", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
		require.NoError(t, err)
		bm.RecordOperation(context.Background(), "slot", "unlock_password", StatusSuccess)

		path := filepath.Join(t.TempDir(), "nested", "otpvault.prom")
		require.NoError(t, provider.WriteTextfile(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "test_app_operations_total")
	})

	t.Run("Error_ParentIsAFile", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		err = provider.WriteTextfile(filepath.Join(blocker, "otpvault.prom"))
		assert.Error(t, err)
	})
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("Success_ShutdownProvider", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		err = provider.Shutdown(context.Background())
		assert.NoError(t, err)
	})

	t.Run("Success_ShutdownNilProvider", func(t *testing.T) {
		provider := &Provider{meterProvider: nil}

		err := provider.Shutdown(context.Background())
		assert.NoError(t, err)
	})
}
