package service

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/scrypt"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
)

// Default scrypt cost parameters for new password slots.
const (
	DefaultScryptN = 1 << 15
	DefaultScryptR = 8
	DefaultScryptP = 1
)

// ScryptKDF derives password slot keys with scrypt.
//
// N, R and P only apply to parameters generated for new slots. Existing slots
// always derive with the parameters persisted next to them.
type ScryptKDF struct {
	N int
	R int
	P int
}

// NewScryptKDF creates a ScryptKDF with the given cost for new slots.
func NewScryptKDF(n, r, p int) *ScryptKDF {
	return &ScryptKDF{N: n, R: r, P: p}
}

// GenerateParameters returns the configured cost with a fresh random salt.
func (k *ScryptKDF) GenerateParameters() (cryptoDomain.SCryptParameters, error) {
	salt := make([]byte, cryptoDomain.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return cryptoDomain.SCryptParameters{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	params := cryptoDomain.SCryptParameters{N: k.N, R: k.R, P: k.P, Salt: salt}
	if err := params.Validate(); err != nil {
		return cryptoDomain.SCryptParameters{}, err
	}
	return params, nil
}

// DeriveKey runs scrypt over password with params and returns a KeySize key.
// The result is deterministic for identical inputs.
func (k *ScryptKDF) DeriveKey(password []byte, params cryptoDomain.SCryptParameters) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	key, err := scrypt.Key(password, params.Salt, params.N, params.R, params.P, cryptoDomain.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidParameters, err)
	}
	return key, nil
}
