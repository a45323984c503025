package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Identifiable is a value addressed by uuid.
type Identifiable interface {
	UUID() uuid.UUID
}

// UUIDMap is an insertion-ordered collection of values with unique uuids.
// It is not safe for concurrent use; the owning session serializes access.
type UUIDMap[T Identifiable] struct {
	index  map[uuid.UUID]int
	values []T
}

// NewUUIDMap creates an empty UUIDMap.
func NewUUIDMap[T Identifiable]() *UUIDMap[T] {
	return &UUIDMap[T]{index: make(map[uuid.UUID]int)}
}

// Add appends value. A value with the same uuid yields ErrDuplicateUUID.
func (m *UUIDMap[T]) Add(value T) error {
	id := value.UUID()
	if _, ok := m.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUUID, id)
	}
	m.index[id] = len(m.values)
	m.values = append(m.values, value)
	return nil
}

// Get returns the value with id.
func (m *UUIDMap[T]) Get(id uuid.UUID) (T, bool) {
	i, ok := m.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return m.values[i], true
}

// Has reports whether a value with id is present.
func (m *UUIDMap[T]) Has(id uuid.UUID) bool {
	_, ok := m.index[id]
	return ok
}

// Replace swaps the value with the same uuid.
func (m *UUIDMap[T]) Replace(value T) error {
	i, ok := m.index[value.UUID()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, value.UUID())
	}
	m.values[i] = value
	return nil
}

// Remove deletes the value with id and returns it.
func (m *UUIDMap[T]) Remove(id uuid.UUID) (T, error) {
	i, ok := m.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	removed := m.values[i]
	m.values = append(m.values[:i:i], m.values[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.values); j++ {
		m.index[m.values[j].UUID()] = j
	}
	return removed, nil
}

// Len returns the number of values.
func (m *UUIDMap[T]) Len() int {
	return len(m.values)
}

// Values returns the values in insertion order.
func (m *UUIDMap[T]) Values() []T {
	out := make([]T, len(m.values))
	copy(out, m.values)
	return out
}
