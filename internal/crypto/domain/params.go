package domain

import (
	"fmt"
)

// CryptParameters holds the nonce and authentication tag produced by one AES-GCM seal.
//
// The tag is kept apart from the ciphertext because the persisted format stores
// "iv" and "tag" as separate hex fields next to the ciphertext.
type CryptParameters struct {
	Nonce []byte
	Tag   []byte
}

// Validate checks the nonce and tag lengths.
func (p CryptParameters) Validate() error {
	if len(p.Nonce) != NonceSize {
		return fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrInvalidParameters, NonceSize, len(p.Nonce))
	}
	if len(p.Tag) != TagSize {
		return fmt.Errorf("%w: tag must be %d bytes, got %d", ErrInvalidParameters, TagSize, len(p.Tag))
	}
	return nil
}

// SCryptParameters are the persisted inputs of a password derivation.
//
// They are generated once when a password slot is created and stored verbatim
// with the slot, so unlock attempts always pay the same cost.
type SCryptParameters struct {
	N    int
	R    int
	P    int
	Salt []byte
}

// Validate checks that the parameters describe a derivation scrypt accepts.
func (p SCryptParameters) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("%w: scrypt N must be a power of two greater than 1", ErrInvalidParameters)
	}
	if p.N > MaxSCryptN {
		return fmt.Errorf("%w: scrypt N must not exceed %d", ErrInvalidParameters, MaxSCryptN)
	}
	if p.R < 1 || p.P < 1 {
		return fmt.Errorf("%w: scrypt r and p must be positive", ErrInvalidParameters)
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 {
		return fmt.Errorf("%w: scrypt r*p too large", ErrInvalidParameters)
	}
	if 128*uint64(p.N)*uint64(p.R) > MaxSCryptMemory || 128*uint64(p.R)*uint64(p.P) > MaxSCryptMemory {
		return fmt.Errorf("%w: scrypt memory cost exceeds %d bytes", ErrInvalidParameters, MaxSCryptMemory)
	}
	if len(p.Salt) == 0 {
		return fmt.Errorf("%w: scrypt salt is empty", ErrInvalidParameters)
	}
	return nil
}
