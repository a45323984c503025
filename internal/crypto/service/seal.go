package service

import (
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
)

// Seal encrypts plaintext and splits the GCM output into ciphertext and tag.
//
// A fresh nonce is drawn for every call. The returned parameters carry that
// nonce and the detached tag, matching how slots and vault files persist them.
func Seal(aead AEAD, plaintext []byte) ([]byte, cryptoDomain.CryptParameters, error) {
	sealed, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return nil, cryptoDomain.CryptParameters{}, err
	}
	if len(sealed) < cryptoDomain.TagSize {
		return nil, cryptoDomain.CryptParameters{}, fmt.Errorf("sealed output shorter than tag")
	}

	split := len(sealed) - cryptoDomain.TagSize
	ciphertext := make([]byte, split)
	tag := make([]byte, cryptoDomain.TagSize)
	copy(ciphertext, sealed[:split])
	copy(tag, sealed[split:])

	return ciphertext, cryptoDomain.CryptParameters{Nonce: nonce, Tag: tag}, nil
}

// Open verifies and decrypts ciphertext sealed by Seal.
//
// Any failure to authenticate (wrong key, modified ciphertext, nonce or tag) is
// reported as ErrDecryptionFailed and no plaintext is returned.
func Open(aead AEAD, ciphertext []byte, params cryptoDomain.CryptParameters) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(params.Tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, params.Tag...)

	plaintext, err := aead.Decrypt(sealed, params.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// GenerateKey returns KeySize bytes from the system's secure random source.
func GenerateKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
