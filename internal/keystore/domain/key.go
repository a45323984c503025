package domain

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Key is a key store key released to the process.
//
// The material is sealed in a memguard enclave and only decrypted into a locked
// buffer for the duration of a cipher initialisation.
type Key struct {
	Alias          string
	HardwareBacked bool
	AuthRequired   bool
	EnrollmentID   string

	mu       sync.Mutex
	material *memguard.Enclave
}

// NewKey seals material into an enclave. The material slice is wiped.
func NewKey(alias string, hardwareBacked, authRequired bool, enrollmentID string, material []byte) *Key {
	return &Key{
		Alias:          alias,
		HardwareBacked: hardwareBacked,
		AuthRequired:   authRequired,
		EnrollmentID:   enrollmentID,
		material:       memguard.NewEnclave(material),
	}
}

// Open decrypts the material into a locked buffer.
// The caller must Destroy the buffer as soon as the material has been consumed.
func (k *Key) Open() (*memguard.LockedBuffer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.material == nil {
		return nil, ErrKeyPermanentlyInvalidated
	}
	buf, err := k.material.Open()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Destroy drops the sealed material. A destroyed key cannot be opened again.
func (k *Key) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.material = nil
}
