// Package domain defines the platform key store model: persisted entries,
// released keys and the capability interfaces of the host platform.
package domain

import (
	"time"
)

// Entry is the persisted form of a key store key.
//
// WrappedKey holds the key material encrypted by the software keeper, or by the
// hardware keeper when HardwareBacked is set. The plaintext material never
// touches storage.
type Entry struct {
	Alias          string
	WrappedKey     []byte
	HardwareBacked bool
	AuthRequired   bool
	EnrollmentID   string // Enrollment the key is bound to
	CreatedAt      time.Time
}
