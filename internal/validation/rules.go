// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/hex"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/otpvault/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Hex validates that a string is lowercase or uppercase hexadecimal with an even length.
var Hex = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := hex.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_hex", "must be valid hex-encoded data"),
)

// PowerOfTwo validates that an integer is a power of two greater than one.
var PowerOfTwo = validation.By(func(value interface{}) error {
	n, ok := value.(int)
	if !ok {
		return validation.NewError("validation_power_of_two_type", "must be an integer")
	}
	if n == 0 {
		return nil // Let Required handle zero values
	}
	if n < 2 || n&(n-1) != 0 {
		return validation.NewError("validation_power_of_two", "must be a power of two greater than 1")
	}
	return nil
})

// ByteLength validates that a byte slice has exactly the given length.
func ByteLength(n int) validation.Rule {
	return validation.By(func(value interface{}) error {
		b, ok := value.([]byte)
		if !ok {
			return validation.NewError("validation_byte_length_type", "must be a byte slice")
		}
		if len(b) != n {
			return validation.NewError("validation_byte_length", "has an invalid length")
		}
		return nil
	})
}
