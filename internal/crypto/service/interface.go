// Package service provides the cryptographic primitives of the vault:
// AES-256-GCM sealing with detached tags, scrypt key derivation and
// keeper-backed key wrapping.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AES-256-GCM cipher for a 32-byte key.
	CreateCipher(key []byte) (AEAD, error)
}

// KDF derives slot keys from passwords.
type KDF interface {
	// GenerateParameters returns fresh parameters with a new random salt.
	GenerateParameters() (cryptoDomain.SCryptParameters, error)

	// DeriveKey derives a KeySize key from password using params.
	DeriveKey(password []byte, params cryptoDomain.SCryptParameters) ([]byte, error)
}

// KMSService opens keepers that wrap key material.
type KMSService interface {
	// OpenKeeper opens a secrets.Keeper for the configured KMS provider.
	// Returns an error if the KMS provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
