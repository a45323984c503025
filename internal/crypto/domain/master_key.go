package domain

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// MasterKey is the single symmetric key protecting the vault content.
//
// A master key lives only in memory while the vault is unlocked. Every slot
// wraps the same master key bytes. The owner must call Destroy when the vault
// is locked so the material is overwritten instead of left for the garbage
// collector.
//
// Thread safety: Bytes and Destroy may be called concurrently. Bytes returns
// the backing slice without copying, so callers must not retain it past the
// lifetime of the session that owns the key.
type MasterKey struct {
	mu        sync.RWMutex
	key       []byte
	destroyed bool
}

// GenerateMasterKey returns a new master key made of KeySize random bytes.
//
// This is the only way a fresh master key comes into existence: it is never
// derived from a password or any other deterministic input.
func GenerateMasterKey() (*MasterKey, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return &MasterKey{key: key}, nil
}

// NewMasterKey wraps key material recovered from a slot.
//
// The MasterKey takes ownership of b: callers must not modify or reuse the slice
// afterwards, and Destroy overwrites it in place.
func NewMasterKey(b []byte) (*MasterKey, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrInvalidKeySize, KeySize, len(b))
	}
	return &MasterKey{key: b}, nil
}

// Bytes exposes the raw key material for content encryption and slot wrapping.
// It returns ErrMasterKeyDestroyed once the key has been scrubbed.
func (m *MasterKey) Bytes() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.destroyed {
		return nil, ErrMasterKeyDestroyed
	}
	return m.key, nil
}

// Destroy overwrites the key material with zeros. It is safe to call more than once.
func (m *MasterKey) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return
	}
	Zero(m.key)
	m.key = nil
	m.destroyed = true
}

// IsDestroyed reports whether Destroy has been called.
func (m *MasterKey) IsDestroyed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.destroyed
}
