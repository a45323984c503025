package domain

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	appValidation "github.com/allisson/otpvault/internal/validation"
)

// OTPType is the kind of one-time password an entry generates.
type OTPType string

// Supported OTP types.
const (
	OTPTypeTOTP  OTPType = "totp"
	OTPTypeHOTP  OTPType = "hotp"
	OTPTypeSteam OTPType = "steam"
)

// Default OTP settings.
const (
	DefaultAlgorithm   = "SHA1"
	DefaultDigits      = 6
	DefaultPeriod      = 30
	DefaultSteamDigits = 5
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// OTPInfo holds the secret and parameters of one-time password generation.
type OTPInfo struct {
	Secret    []byte
	Algorithm string
	Digits    int
	Period    int
	Counter   uint64
}

// Entry is a single one-time password account stored in the vault.
type Entry struct {
	ID       uuid.UUID
	Type     OTPType
	Name     string
	Issuer   string
	Note     string
	Favorite bool
	Info     OTPInfo
	Groups   []uuid.UUID

	// legacyGroup is the free-text group label of documents written before
	// groups were referenced by uuid. It is consumed by the vault migration.
	// nil means the document had no label; an empty label is still a label.
	legacyGroup *string
}

// NewEntry creates an entry with a fresh uuid and default OTP settings for otpType.
func NewEntry(otpType OTPType, name, issuer string, secret []byte) *Entry {
	info := OTPInfo{
		Secret:    secret,
		Algorithm: DefaultAlgorithm,
		Digits:    DefaultDigits,
	}
	switch otpType {
	case OTPTypeTOTP:
		info.Period = DefaultPeriod
	case OTPTypeSteam:
		info.Period = DefaultPeriod
		info.Digits = DefaultSteamDigits
	}

	return &Entry{
		ID:     uuid.New(),
		Type:   otpType,
		Name:   name,
		Issuer: issuer,
		Info:   info,
	}
}

// UUID returns the entry's identifier.
func (e *Entry) UUID() uuid.UUID {
	return e.ID
}

// LegacyGroup returns the free-text group label read from an old document.
// ok is false when the document carried no label.
func (e *Entry) LegacyGroup() (label string, ok bool) {
	if e.legacyGroup == nil {
		return "", false
	}
	return *e.legacyGroup, true
}

// HasGroup reports whether the entry is linked to group id.
func (e *Entry) HasGroup(id uuid.UUID) bool {
	for _, g := range e.Groups {
		if g == id {
			return true
		}
	}
	return false
}

// AddGroup links the entry to group id once.
func (e *Entry) AddGroup(id uuid.UUID) {
	if !e.HasGroup(id) {
		e.Groups = append(e.Groups, id)
	}
}

// Validate checks the entry for values no generator could use.
func (e *Entry) Validate() error {
	periodic := e.Type == OTPTypeTOTP || e.Type == OTPTypeSteam
	err := validation.ValidateStruct(e,
		validation.Field(&e.Type,
			validation.Required,
			validation.In(OTPTypeTOTP, OTPTypeHOTP, OTPTypeSteam).Error("must be totp, hotp or steam"),
		),
		validation.Field(&e.Name, validation.Required, appValidation.NotBlank),
	)
	if err == nil {
		err = validation.ValidateStruct(&e.Info,
			validation.Field(&e.Info.Secret, validation.Required),
			validation.Field(&e.Info.Algorithm,
				validation.Required,
				validation.In("SHA1", "SHA256", "SHA512", "MD5").Error("must be SHA1, SHA256, SHA512 or MD5"),
			),
			validation.Field(&e.Info.Digits, validation.Required, validation.Min(1), validation.Max(10)),
			validation.Field(&e.Info.Period, validation.When(periodic, validation.Required, validation.Min(1))),
		)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, appValidation.WrapValidationError(err))
	}
	return nil
}

// Wipe overwrites the OTP secret.
func (e *Entry) Wipe() {
	cryptoDomain.Zero(e.Info.Secret)
	e.Info.Secret = nil
}

// otpInfoJSON is the persisted form of OTPInfo.
type otpInfoJSON struct {
	Secret  string  `json:"secret"`
	Algo    string  `json:"algo"`
	Digits  int     `json:"digits"`
	Period  *int    `json:"period,omitempty"`
	Counter *uint64 `json:"counter,omitempty"`
}

// entryJSON is the persisted form of Entry.
type entryJSON struct {
	Type     OTPType      `json:"type"`
	UUID     string       `json:"uuid"`
	Name     string       `json:"name"`
	Issuer   string       `json:"issuer"`
	Note     string       `json:"note"`
	Favorite bool         `json:"favorite"`
	Info     *otpInfoJSON `json:"info"`
	Groups   []string     `json:"groups"`
	Group    *string      `json:"group,omitempty"`
}

// MarshalJSON encodes the entry with a base32 secret. Legacy group labels are
// never written back.
func (e *Entry) MarshalJSON() ([]byte, error) {
	info := &otpInfoJSON{
		Secret: secretEncoding.EncodeToString(e.Info.Secret),
		Algo:   e.Info.Algorithm,
		Digits: e.Info.Digits,
	}
	if e.Type == OTPTypeHOTP {
		counter := e.Info.Counter
		info.Counter = &counter
	} else {
		period := e.Info.Period
		info.Period = &period
	}

	groups := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		groups[i] = g.String()
	}

	return json.Marshal(entryJSON{
		Type:     e.Type,
		UUID:     e.ID.String(),
		Name:     e.Name,
		Issuer:   e.Issuer,
		Note:     e.Note,
		Favorite: e.Favorite,
		Info:     info,
		Groups:   groups,
	})
}

// UnmarshalJSON decodes a persisted entry, accepting the legacy group label.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: entry: %v", ErrVault, err)
	}

	id, err := uuid.Parse(in.UUID)
	if err != nil {
		return fmt.Errorf("%w: entry uuid %q", ErrVault, in.UUID)
	}
	if in.Info == nil {
		return fmt.Errorf("%w: entry %s has no info", ErrVault, id)
	}

	secret, err := decodeSecret(in.Info.Secret)
	if err != nil {
		return fmt.Errorf("%w: entry %s secret is not base32", ErrVault, id)
	}

	parsed := Entry{
		ID:       id,
		Type:     in.Type,
		Name:     in.Name,
		Issuer:   in.Issuer,
		Note:     in.Note,
		Favorite: in.Favorite,
		Info: OTPInfo{
			Secret:    secret,
			Algorithm: in.Info.Algo,
			Digits:    in.Info.Digits,
		},
	}
	if in.Info.Period != nil {
		parsed.Info.Period = *in.Info.Period
	}
	if in.Info.Counter != nil {
		parsed.Info.Counter = *in.Info.Counter
	}
	for _, g := range in.Groups {
		gid, err := uuid.Parse(g)
		if err != nil {
			return fmt.Errorf("%w: entry %s group %q", ErrVault, id, g)
		}
		parsed.AddGroup(gid)
	}
	if in.Group != nil {
		label := *in.Group
		parsed.legacyGroup = &label
	}

	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrVault, err)
	}

	*e = parsed
	return nil
}

// decodeSecret accepts base32 with or without padding, in any case.
func decodeSecret(s string) ([]byte, error) {
	s = strings.ToUpper(strings.TrimRight(strings.ReplaceAll(s, " ", ""), "="))
	return secretEncoding.DecodeString(s)
}
