// Package usecase implements the key store handle: generation, retrieval and
// deletion of authentication-bound keys addressed by alias.
package usecase

import (
	"context"

	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// EntryRepository defines persistence operations for key store entries.
// Implementations must support transaction-aware operations via context propagation.
type EntryRepository interface {
	// Create stores a new entry. Returns ErrEntryAlreadyExists if the alias is taken.
	Create(ctx context.Context, entry *keystoreDomain.Entry) error

	// Get retrieves an entry by alias. Returns ErrEntryNotFound if not found.
	Get(ctx context.Context, alias string) (*keystoreDomain.Entry, error)

	// Delete removes an entry by alias. Deleting a missing alias is not an error.
	Delete(ctx context.Context, alias string) error

	// ListAliases returns every alias in the repository, ordered by creation.
	ListAliases(ctx context.Context) ([]string, error)
}

// KeyStore is the handle over the platform secure key facility.
//
// Unexpected backend failures are wrapped in ErrKeyStoreHandle. Keys that are
// unknown, unrecoverable or permanently invalidated are reported by GetKey as
// absent (ok == false) with a nil error.
type KeyStore interface {
	// IsSupported reports whether the platform offers a usable key store.
	IsSupported() bool

	// ContainsKey reports whether an entry exists for alias.
	ContainsKey(ctx context.Context, alias string) (bool, error)

	// GenerateKey creates an authentication-bound AES key for alias, replacing any
	// existing key. Secure hardware is used when advertised and not affected by
	// the known hardware key defect.
	GenerateKey(ctx context.Context, alias string) (*keystoreDomain.Key, error)

	// GetKey loads the key for alias.
	GetKey(ctx context.Context, alias string) (key *keystoreDomain.Key, ok bool, err error)

	// Cipher releases key through authenticator and returns an AEAD bound to it.
	// It returns ErrAuthenticationCancelled or ErrKeyPermanentlyInvalidated for
	// the corresponding prompt outcomes.
	Cipher(
		ctx context.Context,
		key *keystoreDomain.Key,
		authenticator keystoreDomain.Authenticator,
	) (cryptoService.AEAD, error)

	// DeleteKey removes the key for alias.
	DeleteKey(ctx context.Context, alias string) error

	// Clear removes every key managed by this key store.
	Clear(ctx context.Context) error
}
