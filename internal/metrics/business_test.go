package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertBizMetricLine checks that the Prometheus output contains a business metric
// matching the given name, partial label pattern, and value.
func assertBizMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, Status(nil))
	assert.Equal(t, StatusError, Status(errors.New("boom")))
}

func TestNewBusinessMetrics(t *testing.T) {
	t.Run("Success_CreateBusinessMetrics", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

		require.NoError(t, err)
		assert.NotNil(t, businessMetrics)
	})
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.NotNil(t, noOpMetrics)
	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)

	t.Run("NoOp_RecordDoesNotPanic", func(t *testing.T) {
		noOpMetrics.RecordOperation(context.Background(), "slot", "unlock_password", "rejected")
		noOpMetrics.RecordDuration(context.Background(), "keystore", "key_get", time.Millisecond, "absent")
	})
}

func TestBusinessMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("integration_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "integration_test")
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordOperation(ctx, "slot", "unlock_password", "success")
	bm.RecordOperation(ctx, "slot", "unlock_password", "success")
	bm.RecordOperation(ctx, "slot", "unlock_password", "rejected")
	bm.RecordOperation(ctx, "slot", "slot_add_biometric", "success")
	bm.RecordOperation(ctx, "keystore", "key_get", "absent")

	bm.RecordDuration(ctx, "slot", "unlock_password", 250*time.Millisecond, "success")
	bm.RecordDuration(ctx, "slot", "unlock_password", 300*time.Millisecond, "success")
	bm.RecordDuration(ctx, "keystore", "key_get", 2*time.Millisecond, "absent")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, provider.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	output := string(data)

	assertBizMetricLine(
		t,
		output,
		`integration_test_operations_total`,
		`domain="slot".*operation="unlock_password".*status="success"`,
		`2`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operations_total`,
		`domain="slot".*operation="unlock_password".*status="rejected"`,
		`1`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operations_total`,
		`domain="keystore".*operation="key_get".*status="absent"`,
		`1`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operation_duration_seconds_count`,
		`domain="slot".*operation="unlock_password".*status="success"`,
		`2`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operation_duration_seconds_sum`,
		`domain="keystore".*operation="key_get".*status="absent"`,
		``,
	)
}
