package domain

import (
	"github.com/allisson/otpvault/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so callers can classify crypto failures without depending on this package.
var (
	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// The master key and every slot key must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidParameters indicates malformed crypt or scrypt parameters
	// (wrong nonce or tag length, empty salt, non power of two cost).
	ErrInvalidParameters = errors.Wrap(errors.ErrInvalidInput, "invalid crypto parameters")

	// ErrDecryptionFailed indicates authenticated decryption rejected the input.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext or tag has been tampered with
	//   - Wrong nonce provided
	//
	// The specific cause is never disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrMasterKeyDestroyed indicates a master key was used after it was scrubbed.
	ErrMasterKeyDestroyed = errors.New("master key destroyed")
)
