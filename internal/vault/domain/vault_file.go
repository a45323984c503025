package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	appValidation "github.com/allisson/otpvault/internal/validation"
)

// FileVersion is the vault file format version.
const FileVersion = 1

// Header describes how the vault file content is protected. Both fields are
// nil for a plain vault file.
type Header struct {
	Slots  *slotDomain.SlotList
	Params *cryptoDomain.CryptParameters
}

// IsEmpty reports whether the header describes a plain vault file.
func (h Header) IsEmpty() bool {
	return h.Slots == nil && h.Params == nil
}

// VaultFile is the persisted container of a vault.
//
// Content is the AES-GCM ciphertext of the vault document when the header is
// set, or the plain vault document otherwise.
type VaultFile struct {
	Header  Header
	Content []byte
}

// IsEncrypted reports whether the content is encrypted.
func (f *VaultFile) IsEncrypted() bool {
	return !f.Header.IsEmpty()
}

type paramsJSON struct {
	IV  string `json:"iv"`
	Tag string `json:"tag"`
}

type headerJSON struct {
	Slots  *slotDomain.SlotList `json:"slots"`
	Params *paramsJSON          `json:"params"`
}

type vaultFileJSON struct {
	Version *int            `json:"version"`
	Header  *headerJSON     `json:"header"`
	DB      json.RawMessage `json:"db"`
}

// MarshalJSON encodes the vault file. Encrypted content is written as base64,
// plain content as the embedded document.
func (f *VaultFile) MarshalJSON() ([]byte, error) {
	if (f.Header.Slots == nil) != (f.Header.Params == nil) {
		return nil, fmt.Errorf("%w: header must have both slots and params or neither", ErrVault)
	}

	version := FileVersion
	out := vaultFileJSON{Version: &version, Header: &headerJSON{}}

	if f.IsEncrypted() {
		out.Header.Slots = f.Header.Slots
		out.Header.Params = &paramsJSON{
			IV:  hex.EncodeToString(f.Header.Params.Nonce),
			Tag: hex.EncodeToString(f.Header.Params.Tag),
		}
		db, err := json.Marshal(base64.StdEncoding.EncodeToString(f.Content))
		if err != nil {
			return nil, err
		}
		out.DB = db
	} else {
		if !json.Valid(f.Content) {
			return nil, fmt.Errorf("%w: plain content is not a JSON document", ErrVault)
		}
		out.DB = f.Content
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a vault file. Structural problems are reported as ErrVault.
func (f *VaultFile) UnmarshalJSON(data []byte) error {
	var in vaultFileJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %w", ErrVault, err)
	}
	if in.Version == nil {
		return fmt.Errorf("%w: missing version", ErrVault)
	}
	if *in.Version != FileVersion {
		return fmt.Errorf("%w: file version %d", ErrUnsupportedVersion, *in.Version)
	}
	if in.Header == nil || len(in.DB) == 0 {
		return fmt.Errorf("%w: header and db are required", ErrVault)
	}
	if (in.Header.Slots == nil) != (in.Header.Params == nil) {
		return fmt.Errorf("%w: header must have both slots and params or neither", ErrVault)
	}

	parsed := VaultFile{}
	if in.Header.Params == nil {
		parsed.Content = bytes.Clone(in.DB)
		*f = parsed
		return nil
	}

	var db string
	if err := json.Unmarshal(in.DB, &db); err != nil {
		return fmt.Errorf("%w: encrypted db must be a base64 string", ErrVault)
	}
	if err := validation.Validate(db, validation.Required, appValidation.Base64); err != nil {
		return fmt.Errorf("%w: db: %v", ErrVault, err)
	}
	content, err := base64.StdEncoding.DecodeString(db)
	if err != nil {
		return fmt.Errorf("%w: db: %v", ErrVault, err)
	}

	nonce, err := hex.DecodeString(in.Header.Params.IV)
	if err != nil {
		return fmt.Errorf("%w: header params iv is not hex", ErrVault)
	}
	tag, err := hex.DecodeString(in.Header.Params.Tag)
	if err != nil {
		return fmt.Errorf("%w: header params tag is not hex", ErrVault)
	}
	params := cryptoDomain.CryptParameters{Nonce: nonce, Tag: tag}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}

	parsed.Header = Header{Slots: in.Header.Slots, Params: &params}
	parsed.Content = content
	*f = parsed
	return nil
}
