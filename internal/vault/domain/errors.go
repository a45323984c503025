package domain

import (
	"github.com/allisson/otpvault/internal/errors"
)

// Vault errors.
var (
	// ErrVault indicates a malformed vault document or vault file. Nothing is
	// loaded when it is returned.
	ErrVault = errors.Wrap(errors.ErrInvalidInput, "invalid vault")

	// ErrUnsupportedVersion indicates a document or file version this build cannot read.
	ErrUnsupportedVersion = errors.Wrap(ErrVault, "unsupported version")

	// ErrInvalidEntry indicates an entry that fails validation.
	ErrInvalidEntry = errors.Wrap(errors.ErrInvalidInput, "invalid entry")

	// ErrDuplicateUUID indicates an insertion whose uuid is already present.
	ErrDuplicateUUID = errors.Wrap(errors.ErrConflict, "duplicate uuid")

	// ErrEntryNotFound indicates no entry or group with the given uuid exists.
	ErrEntryNotFound = errors.Wrap(errors.ErrNotFound, "entry not found")

	// ErrVaultNotFound indicates no vault file exists in storage.
	ErrVaultNotFound = errors.Wrap(errors.ErrNotFound, "vault not found")

	// ErrVaultExists indicates a vault file already exists where a new one was to be created.
	ErrVaultExists = errors.Wrap(errors.ErrConflict, "vault already exists")

	// ErrVaultNotEncrypted indicates an operation that requires an encrypted vault file.
	ErrVaultNotEncrypted = errors.Wrap(errors.ErrInvalidInput, "vault file is not encrypted")

	// ErrVaultLocked indicates an operation that requires an unlocked session.
	ErrVaultLocked = errors.Wrap(errors.ErrUnauthorized, "vault is locked")

	// ErrVaultBusy indicates an unlock is already in progress or the session is unlocked.
	ErrVaultBusy = errors.Wrap(errors.ErrConflict, "vault is busy")

	// ErrUnlockAborted indicates the session was locked while an unlock was in progress.
	ErrUnlockAborted = errors.New("unlock aborted")

	// ErrTooManyAttempts indicates the unlock attempt limiter rejected the attempt.
	ErrTooManyAttempts = errors.Wrap(errors.ErrUnauthorized, "too many unlock attempts")
)
