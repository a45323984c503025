package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCryptParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  CryptParameters
		wantErr bool
	}{
		{
			name:   "valid parameters",
			params: CryptParameters{Nonce: make([]byte, NonceSize), Tag: make([]byte, TagSize)},
		},
		{
			name:    "short nonce",
			params:  CryptParameters{Nonce: make([]byte, 8), Tag: make([]byte, TagSize)},
			wantErr: true,
		},
		{
			name:    "missing tag",
			params:  CryptParameters{Nonce: make([]byte, NonceSize)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSCryptParameters_Validate(t *testing.T) {
	salt := make([]byte, SaltSize)

	tests := []struct {
		name    string
		params  SCryptParameters
		wantErr bool
	}{
		{name: "default cost", params: SCryptParameters{N: 32768, R: 8, P: 1, Salt: salt}},
		{name: "N not a power of two", params: SCryptParameters{N: 1000, R: 8, P: 1, Salt: salt}, wantErr: true},
		{name: "N equals one", params: SCryptParameters{N: 1, R: 8, P: 1, Salt: salt}, wantErr: true},
		{name: "zero r", params: SCryptParameters{N: 16, R: 0, P: 1, Salt: salt}, wantErr: true},
		{name: "zero p", params: SCryptParameters{N: 16, R: 8, P: 0, Salt: salt}, wantErr: true},
		{name: "r times p too large", params: SCryptParameters{N: 16, R: 1 << 15, P: 1 << 15, Salt: salt}, wantErr: true},
		{name: "largest accepted cost", params: SCryptParameters{N: MaxSCryptN, R: 8, P: 1, Salt: salt}},
		{name: "N above limit", params: SCryptParameters{N: 1 << 30, R: 8, P: 1, Salt: salt}, wantErr: true},
		{name: "memory above limit", params: SCryptParameters{N: 1 << 20, R: 16, P: 1, Salt: salt}, wantErr: true},
		{name: "block memory above limit", params: SCryptParameters{N: 16, R: 1 << 14, P: 1 << 10, Salt: salt}, wantErr: true},
		{name: "empty salt", params: SCryptParameters{N: 16, R: 8, P: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
