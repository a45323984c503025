// Package mocks provides mock implementations of the key store interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// MockKeyStore is a mock implementation of KeyStore for testing.
type MockKeyStore struct {
	mock.Mock
}

// IsSupported mocks the IsSupported method of KeyStore.
func (m *MockKeyStore) IsSupported() bool {
	args := m.Called()
	return args.Bool(0)
}

// ContainsKey mocks the ContainsKey method of KeyStore.
func (m *MockKeyStore) ContainsKey(ctx context.Context, alias string) (bool, error) {
	args := m.Called(ctx, alias)
	return args.Bool(0), args.Error(1)
}

// GenerateKey mocks the GenerateKey method of KeyStore.
func (m *MockKeyStore) GenerateKey(ctx context.Context, alias string) (*keystoreDomain.Key, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keystoreDomain.Key), args.Error(1)
}

// GetKey mocks the GetKey method of KeyStore.
func (m *MockKeyStore) GetKey(ctx context.Context, alias string) (*keystoreDomain.Key, bool, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*keystoreDomain.Key), args.Bool(1), args.Error(2)
}

// Cipher mocks the Cipher method of KeyStore.
func (m *MockKeyStore) Cipher(
	ctx context.Context,
	key *keystoreDomain.Key,
	authenticator keystoreDomain.Authenticator,
) (cryptoService.AEAD, error) {
	args := m.Called(ctx, key, authenticator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoService.AEAD), args.Error(1)
}

// DeleteKey mocks the DeleteKey method of KeyStore.
func (m *MockKeyStore) DeleteKey(ctx context.Context, alias string) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

// Clear mocks the Clear method of KeyStore.
func (m *MockKeyStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
