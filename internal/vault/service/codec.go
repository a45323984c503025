// Package service encrypts and decrypts vault documents with the master key.
package service

import (
	"errors"
	"fmt"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	vaultDomain "github.com/allisson/otpvault/internal/vault/domain"
)

// VaultCodec converts between an in-memory Vault and a VaultFile.
type VaultCodec struct {
	aeadManager cryptoService.AEADManager
}

// NewVaultCodec creates a new VaultCodec.
func NewVaultCodec(aeadManager cryptoService.AEADManager) *VaultCodec {
	return &VaultCodec{aeadManager: aeadManager}
}

// Seal serializes vault and encrypts it under masterKey. The returned file
// carries a snapshot of slots in its header.
func (c *VaultCodec) Seal(
	vault *vaultDomain.Vault,
	slots *slotDomain.SlotList,
	masterKey *cryptoDomain.MasterKey,
) (*vaultDomain.VaultFile, error) {
	aead, err := c.cipher(masterKey)
	if err != nil {
		return nil, err
	}

	doc, err := vault.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode vault: %w", err)
	}
	defer cryptoDomain.Zero(doc)

	ciphertext, params, err := cryptoService.Seal(aead, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt vault: %w", err)
	}

	return &vaultDomain.VaultFile{
		Header: vaultDomain.Header{
			Slots:  slots.Snapshot(),
			Params: &params,
		},
		Content: ciphertext,
	}, nil
}

// Open decrypts an encrypted vault file with masterKey and parses the document.
//
// A master key that does not match the file is reported as ErrDecryptionFailed.
func (c *VaultCodec) Open(
	file *vaultDomain.VaultFile,
	masterKey *cryptoDomain.MasterKey,
) (*vaultDomain.Vault, error) {
	if !file.IsEncrypted() {
		return nil, vaultDomain.ErrVaultNotEncrypted
	}

	aead, err := c.cipher(masterKey)
	if err != nil {
		return nil, err
	}

	doc, err := cryptoService.Open(aead, file.Content, *file.Header.Params)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrDecryptionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", vaultDomain.ErrVault, err)
	}
	defer cryptoDomain.Zero(doc)

	return vaultDomain.FromJSON(doc)
}

// OpenPlain parses the document of an unencrypted vault file.
func (c *VaultCodec) OpenPlain(file *vaultDomain.VaultFile) (*vaultDomain.Vault, error) {
	if file.IsEncrypted() {
		return nil, fmt.Errorf("%w: file is encrypted", vaultDomain.ErrVault)
	}
	return vaultDomain.FromJSON(file.Content)
}

func (c *VaultCodec) cipher(masterKey *cryptoDomain.MasterKey) (cryptoService.AEAD, error) {
	key, err := masterKey.Bytes()
	if err != nil {
		return nil, err
	}
	return c.aeadManager.CreateCipher(key)
}
