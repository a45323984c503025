package repository

import (
	"context"
	"sort"
	"sync"

	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// MemoryEntryRepository keeps key store entries in process memory.
type MemoryEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]keystoreDomain.Entry
}

// NewMemoryEntryRepository creates an empty in-memory entry repository.
func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{entries: make(map[string]keystoreDomain.Entry)}
}

// Create inserts a copy of entry. A duplicate alias yields ErrEntryAlreadyExists.
func (m *MemoryEntryRepository) Create(ctx context.Context, entry *keystoreDomain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.Alias]; ok {
		return keystoreDomain.ErrEntryAlreadyExists
	}
	stored := *entry
	stored.WrappedKey = append([]byte(nil), entry.WrappedKey...)
	m.entries[entry.Alias] = stored
	return nil
}

// Get returns a copy of the entry for alias.
func (m *MemoryEntryRepository) Get(ctx context.Context, alias string) (*keystoreDomain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.entries[alias]
	if !ok {
		return nil, keystoreDomain.ErrEntryNotFound
	}
	entry := stored
	entry.WrappedKey = append([]byte(nil), stored.WrappedKey...)
	return &entry, nil
}

// Delete removes the entry for alias, if any.
func (m *MemoryEntryRepository) Delete(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, alias)
	return nil
}

// ListAliases returns all aliases ordered by creation time.
func (m *MemoryEntryRepository) ListAliases(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]keystoreDomain.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Alias < entries[j].Alias
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	aliases := make([]string, 0, len(entries))
	for _, e := range entries {
		aliases = append(aliases, e.Alias)
	}
	return aliases, nil
}
