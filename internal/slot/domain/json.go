package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
)

// cryptParamsJSON is the persisted form of CryptParameters.
type cryptParamsJSON struct {
	IV  string `json:"iv"`
	Tag string `json:"tag"`
}

// slotJSON is the persisted form of a slot.
type slotJSON struct {
	Type     *int             `json:"type"`
	UUID     string           `json:"uuid"`
	Key      string           `json:"key"`
	Params   *cryptParamsJSON `json:"params"`
	N        *int             `json:"n,omitempty"`
	R        *int             `json:"r,omitempty"`
	P        *int             `json:"p,omitempty"`
	Salt     *string          `json:"salt,omitempty"`
	Repaired *bool            `json:"repaired,omitempty"`
}

// MarshalJSON encodes the slot with hex-encoded binary fields.
func (s *Slot) MarshalJSON() ([]byte, error) {
	if !s.Type.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSlotType, s.Type)
	}

	t := int(s.Type)
	out := slotJSON{
		Type: &t,
		UUID: s.ID.String(),
		Key:  hex.EncodeToString(s.EncryptedMasterKey),
		Params: &cryptParamsJSON{
			IV:  hex.EncodeToString(s.Params.Nonce),
			Tag: hex.EncodeToString(s.Params.Tag),
		},
	}

	if s.Type == TypePassword {
		if s.SCrypt == nil {
			return nil, fmt.Errorf("%w: password slot without scrypt parameters", ErrMissingSlotField)
		}
		salt := hex.EncodeToString(s.SCrypt.Salt)
		repaired := s.Repaired
		out.N, out.R, out.P = &s.SCrypt.N, &s.SCrypt.R, &s.SCrypt.P
		out.Salt = &salt
		out.Repaired = &repaired
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a persisted slot. Every structural problem is reported
// as an error wrapping ErrSlot.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var in slotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrSlot, err)
	}

	if in.Type == nil {
		return fmt.Errorf("%w: type", ErrMissingSlotField)
	}
	t := Type(*in.Type)
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedSlotType, *in.Type)
	}

	if in.UUID == "" {
		return fmt.Errorf("%w: uuid", ErrMissingSlotField)
	}
	id, err := uuid.Parse(in.UUID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSlotUUID, in.UUID)
	}

	if in.Key == "" {
		return fmt.Errorf("%w: key", ErrMissingSlotField)
	}
	if in.Params == nil {
		return fmt.Errorf("%w: params", ErrMissingSlotField)
	}

	key, err := decodeHex("key", in.Key)
	if err != nil {
		return err
	}
	nonce, err := decodeHex("params.iv", in.Params.IV)
	if err != nil {
		return err
	}
	tag, err := decodeHex("params.tag", in.Params.Tag)
	if err != nil {
		return err
	}
	params := cryptoDomain.CryptParameters{Nonce: nonce, Tag: tag}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlot, err)
	}

	parsed := Slot{
		ID:                 id,
		Type:               t,
		EncryptedMasterKey: key,
		Params:             params,
	}

	if t == TypePassword {
		if in.N == nil || in.R == nil || in.P == nil || in.Salt == nil {
			return fmt.Errorf("%w: scrypt parameters", ErrMissingSlotField)
		}
		salt, err := decodeHex("salt", *in.Salt)
		if err != nil {
			return err
		}
		sp := cryptoDomain.SCryptParameters{N: *in.N, R: *in.R, P: *in.P, Salt: salt}
		if err := sp.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrSlot, err)
		}
		parsed.SCrypt = &sp
		parsed.Repaired = in.Repaired != nil && *in.Repaired
	}

	*s = parsed
	return nil
}

func decodeHex(field, value string) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid hex", ErrSlot, field)
	}
	return b, nil
}
