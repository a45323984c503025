package validation

import (
	"errors"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/otpvault/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(errors.New("n: must be a power of two"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "must be a power of two")
	})
}

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{name: "valid string", value: "aegis.json", shouldErr: false},
		{name: "only whitespace", value: "   ", shouldErr: true},
		{name: "tabs and newlines", value: "\t\n", shouldErr: true},
		{name: "empty string handled by required", value: "", shouldErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, NotBlank)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoWhitespace(t *testing.T) {
	assert.NoError(t, validation.Validate("work", NoWhitespace))
	assert.Error(t, validation.Validate(" work", NoWhitespace))
	assert.Error(t, validation.Validate("work ", NoWhitespace))
}

func TestHex(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{name: "lowercase hex", value: "2f76e670ec575437fceb0863", shouldErr: false},
		{name: "uppercase hex", value: "A05C88A0", shouldErr: false},
		{name: "odd length", value: "abc", shouldErr: true},
		{name: "non hex characters", value: "zz", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, Hex)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPowerOfTwo(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		shouldErr bool
	}{
		{name: "default scrypt cost", value: 32768, shouldErr: false},
		{name: "two", value: 2, shouldErr: false},
		{name: "zero handled by required", value: 0, shouldErr: false},
		{name: "one", value: 1, shouldErr: true},
		{name: "not a power", value: 1000, shouldErr: true},
		{name: "negative", value: -8, shouldErr: true},
		{name: "wrong type", value: "16", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, PowerOfTwo)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestByteLength(t *testing.T) {
	rule := ByteLength(12)
	assert.NoError(t, validation.Validate(make([]byte, 12), rule))
	assert.Error(t, validation.Validate(make([]byte, 11), rule))
	assert.Error(t, validation.Validate("not bytes", rule))
}
