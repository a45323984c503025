package domain

import (
	"github.com/allisson/otpvault/internal/errors"
)

// Key store errors.
//
// Only ErrKeyStoreHandle describes an unexpected failure. The "key not usable"
// states are reported as an absent key by KeyStore.GetKey, and the outcomes of
// the authentication prompt have their own sentinels so callers never confuse
// them with a wrong credential.
var (
	// ErrKeyStoreHandle wraps every unexpected backend failure (I/O, keeper, database).
	ErrKeyStoreHandle = errors.Wrap(errors.ErrUnavailable, "key store failure")

	// ErrKeyStoreUnsupported indicates the platform offers no key store.
	// Callers are expected to check IsSupported first.
	ErrKeyStoreUnsupported = errors.Wrap(errors.ErrInvalidInput, "key store not supported")

	// ErrEntryNotFound indicates no entry exists for the alias.
	ErrEntryNotFound = errors.Wrap(errors.ErrNotFound, "key store entry not found")

	// ErrEntryAlreadyExists indicates an entry for the alias already exists.
	ErrEntryAlreadyExists = errors.Wrap(errors.ErrConflict, "key store entry already exists")

	// ErrAuthenticationCancelled indicates the user dismissed the authentication prompt.
	ErrAuthenticationCancelled = errors.New("authentication cancelled")

	// ErrKeyPermanentlyInvalidated indicates the key can never be used again,
	// typically because the authentication enrollment changed after it was created.
	ErrKeyPermanentlyInvalidated = errors.New("key permanently invalidated")

	// ErrInvalidAlias indicates an empty or malformed alias.
	ErrInvalidAlias = errors.Wrap(errors.ErrInvalidInput, "invalid key store alias")
)
