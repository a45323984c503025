// Package domain defines slots: independent wrappings of the vault master key,
// one per unlock method.
package domain

import (
	"bytes"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
)

// Type identifies the slot variant. The numeric values are persisted.
type Type int

const (
	// TypeRaw slots are unlocked with a caller-supplied key.
	TypeRaw Type = 0

	// TypePassword slots derive their key from a password with scrypt.
	TypePassword Type = 1

	// TypeBiometric slots use a key store key released by user authentication.
	TypeBiometric Type = 2
)

// String returns the lowercase name of the slot type.
func (t Type) String() string {
	switch t {
	case TypeRaw:
		return "raw"
	case TypePassword:
		return "password"
	case TypeBiometric:
		return "biometric"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known slot type.
func (t Type) Valid() bool {
	return t == TypeRaw || t == TypePassword || t == TypeBiometric
}

// Slot wraps the master key under one slot key.
//
// SCrypt is set for password slots only. Repaired marks password slots whose
// parameters were produced by the corrected derivation; every new password slot
// has it set. Biometric slots reference their key store key by Alias.
type Slot struct {
	ID                 uuid.UUID
	Type               Type
	EncryptedMasterKey []byte
	Params             cryptoDomain.CryptParameters
	SCrypt             *cryptoDomain.SCryptParameters
	Repaired           bool
}

// New creates an empty slot of type t with a fresh random uuid.
func New(t Type) *Slot {
	return &Slot{ID: uuid.New(), Type: t}
}

// Alias returns the key store alias of a biometric slot.
func (s *Slot) Alias() string {
	return s.ID.String()
}

// HasKey reports whether the slot holds a wrapped master key.
func (s *Slot) HasKey() bool {
	return len(s.EncryptedMasterKey) > 0 && len(s.Params.Nonce) > 0 && len(s.Params.Tag) > 0
}

// Clone returns a deep copy of the slot.
func (s *Slot) Clone() *Slot {
	c := &Slot{
		ID:                 s.ID,
		Type:               s.Type,
		EncryptedMasterKey: bytes.Clone(s.EncryptedMasterKey),
		Params: cryptoDomain.CryptParameters{
			Nonce: bytes.Clone(s.Params.Nonce),
			Tag:   bytes.Clone(s.Params.Tag),
		},
		Repaired: s.Repaired,
	}
	if s.SCrypt != nil {
		params := *s.SCrypt
		params.Salt = bytes.Clone(s.SCrypt.Salt)
		c.SCrypt = &params
	}
	return c
}
