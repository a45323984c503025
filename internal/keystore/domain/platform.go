package domain

import (
	"context"
	"time"
)

// HardwareKeySafePatch is the first security patch level that fixes the defect
// affecting secure-hardware-backed keys (CVE-2019-9465).
var HardwareKeySafePatch = time.Date(2019, time.December, 5, 0, 0, 0, 0, time.UTC)

// Platform describes the capabilities of the host's secure key facility.
type Platform interface {
	// SupportsKeyStore reports whether a key store is available at all.
	SupportsKeyStore() bool

	// HasSecureHardware reports whether dedicated secure hardware is advertised.
	HasSecureHardware() bool

	// SecurityPatch returns the platform security patch date as YYYY-MM-DD.
	// An empty string means the date could not be obtained.
	SecurityPatch() string

	// EnrollmentID identifies the current user-authentication enrollment.
	// Keys bound to another enrollment are permanently invalidated.
	EnrollmentID() string
}

// Authenticator gates the release of an authentication-bound key.
//
// Authenticate blocks until the user completes or dismisses the prompt. It must
// return nil when the key may be released and ErrAuthenticationCancelled when
// the user backed out.
type Authenticator interface {
	Authenticate(ctx context.Context, alias string) error
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, alias string) error

// Authenticate calls f(ctx, alias).
func (f AuthenticatorFunc) Authenticate(ctx context.Context, alias string) error {
	return f(ctx, alias)
}

// StaticPlatform is a Platform with fixed answers, built from configuration.
type StaticPlatform struct {
	Supported      bool
	SecureHardware bool
	Patch          string
	Enrollment     string
}

// SupportsKeyStore implements Platform.
func (p StaticPlatform) SupportsKeyStore() bool { return p.Supported }

// HasSecureHardware implements Platform.
func (p StaticPlatform) HasSecureHardware() bool { return p.SecureHardware }

// SecurityPatch implements Platform.
func (p StaticPlatform) SecurityPatch() string { return p.Patch }

// EnrollmentID implements Platform.
func (p StaticPlatform) EnrollmentID() string { return p.Enrollment }

// IsHardwareKeyDefectPresent reports whether a device with the given security
// patch date is affected by the secure-hardware key defect.
//
// A patch date that is empty or cannot be parsed counts as affected.
func IsHardwareKeyDefectPresent(securityPatch string) bool {
	if securityPatch == "" {
		return true
	}
	patch, err := time.ParseInLocation("2006-01-02", securityPatch, time.UTC)
	if err != nil {
		return true
	}
	return patch.Before(HardwareKeySafePatch)
}
