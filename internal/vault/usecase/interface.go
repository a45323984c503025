// Package usecase implements the vault session: the single owner of the
// master key and the decrypted vault while unlocked.
package usecase

import (
	"context"

	vaultDomain "github.com/allisson/otpvault/internal/vault/domain"
)

// VaultRepository defines persistence of the vault file.
type VaultRepository interface {
	// Load reads the vault file. Returns ErrVaultNotFound if none exists.
	Load(ctx context.Context) (*vaultDomain.VaultFile, error)

	// Save writes the vault file atomically, replacing any previous one.
	Save(ctx context.Context, file *vaultDomain.VaultFile) error

	// Exists reports whether a vault file is stored.
	Exists(ctx context.Context) (bool, error)
}
