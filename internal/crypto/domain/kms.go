package domain

import "context"

// KMSKeeper is the subset of *secrets.Keeper used to wrap key material
// with an external key management facility.
type KMSKeeper interface {
	// Encrypt wraps plaintext with the keeper's key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt unwraps ciphertext produced by Encrypt.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases the keeper's resources.
	Close() error
}
