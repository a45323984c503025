package usecase

import (
	"context"
	"time"

	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	"github.com/allisson/otpvault/internal/metrics"
)

// keyStoreWithMetrics decorates KeyStore with metrics instrumentation.
type keyStoreWithMetrics struct {
	next    KeyStore
	metrics metrics.BusinessMetrics
}

// NewKeyStoreWithMetrics wraps a KeyStore with metrics recording.
func NewKeyStoreWithMetrics(keyStore KeyStore, m metrics.BusinessMetrics) KeyStore {
	return &keyStoreWithMetrics{
		next:    keyStore,
		metrics: m,
	}
}

func (k *keyStoreWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	k.metrics.RecordOperation(ctx, "keystore", operation, status)
	k.metrics.RecordDuration(ctx, "keystore", operation, time.Since(start), status)
}

// IsSupported delegates without recording.
func (k *keyStoreWithMetrics) IsSupported() bool {
	return k.next.IsSupported()
}

// ContainsKey records metrics for key lookups.
func (k *keyStoreWithMetrics) ContainsKey(ctx context.Context, alias string) (bool, error) {
	start := time.Now()
	ok, err := k.next.ContainsKey(ctx, alias)
	k.record(ctx, "key_contains", start, metrics.Status(err))
	return ok, err
}

// GenerateKey records metrics for key generation.
func (k *keyStoreWithMetrics) GenerateKey(ctx context.Context, alias string) (*keystoreDomain.Key, error) {
	start := time.Now()
	key, err := k.next.GenerateKey(ctx, alias)
	k.record(ctx, "key_generate", start, metrics.Status(err))
	return key, err
}

// GetKey records metrics for key retrieval. Absent keys are recorded as "absent".
func (k *keyStoreWithMetrics) GetKey(ctx context.Context, alias string) (*keystoreDomain.Key, bool, error) {
	start := time.Now()
	key, ok, err := k.next.GetKey(ctx, alias)

	status := metrics.Status(err)
	if err == nil && !ok {
		status = "absent"
	}
	k.record(ctx, "key_get", start, status)
	return key, ok, err
}

// Cipher records metrics for key release.
func (k *keyStoreWithMetrics) Cipher(
	ctx context.Context,
	key *keystoreDomain.Key,
	authenticator keystoreDomain.Authenticator,
) (cryptoService.AEAD, error) {
	start := time.Now()
	aead, err := k.next.Cipher(ctx, key, authenticator)
	k.record(ctx, "key_release", start, metrics.Status(err))
	return aead, err
}

// DeleteKey records metrics for key deletion.
func (k *keyStoreWithMetrics) DeleteKey(ctx context.Context, alias string) error {
	start := time.Now()
	err := k.next.DeleteKey(ctx, alias)
	k.record(ctx, "key_delete", start, metrics.Status(err))
	return err
}

// Clear records metrics for clearing the key store.
func (k *keyStoreWithMetrics) Clear(ctx context.Context) error {
	start := time.Now()
	err := k.next.Clear(ctx)
	k.record(ctx, "clear", start, metrics.Status(err))
	return err
}
