package domain

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SlotList is the ordered set of slots attached to a vault, keyed by uuid.
//
// Thread safety: all methods may be called concurrently. Slots returned by
// Get, FindAll and Values are shared with the list; use Snapshot for a copy
// that later mutations cannot reach.
type SlotList struct {
	mu    sync.RWMutex
	slots []*Slot
}

// NewSlotList creates a list holding slots. Duplicate uuids are rejected.
func NewSlotList(slots ...*Slot) (*SlotList, error) {
	l := &SlotList{}
	for _, s := range slots {
		if err := l.Add(s); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add appends slot. A slot with the same uuid yields ErrDuplicateSlot.
func (l *SlotList) Add(slot *Slot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(slot.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateSlot, slot.ID)
	}
	l.slots = append(l.slots, slot)
	return nil
}

// Remove deletes the slot with id and returns it.
func (l *SlotList) Remove(id uuid.UUID) (*Slot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, id)
	}
	removed := l.slots[i]
	l.slots = append(l.slots[:i:i], l.slots[i+1:]...)
	return removed, nil
}

// Replace swaps the slot with the same uuid for slot.
func (l *SlotList) Replace(slot *Slot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(slot.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slot.ID)
	}
	l.slots[i] = slot
	return nil
}

// Get returns the slot with id.
func (l *SlotList) Get(id uuid.UUID) (*Slot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return l.slots[i], true
}

// Has reports whether the list contains a slot of type t.
func (l *SlotList) Has(t Type) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, s := range l.slots {
		if s.Type == t {
			return true
		}
	}
	return false
}

// FindAll returns the slots of type t in list order.
func (l *SlotList) FindAll(t Type) []*Slot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var found []*Slot
	for _, s := range l.slots {
		if s.Type == t {
			found = append(found, s)
		}
	}
	return found
}

// Len returns the number of slots.
func (l *SlotList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.slots)
}

// Values returns the slots in list order.
func (l *SlotList) Values() []*Slot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

// Snapshot returns a deep copy of the list.
func (l *SlotList) Snapshot() *SlotList {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c := &SlotList{slots: make([]*Slot, len(l.slots))}
	for i, s := range l.slots {
		c.slots[i] = s.Clone()
	}
	return c
}

// MarshalJSON encodes the list as a JSON array.
func (l *SlotList) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.slots == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.slots)
}

// UnmarshalJSON decodes a JSON array of slots, rejecting duplicate uuids.
func (l *SlotList) UnmarshalJSON(data []byte) error {
	var slots []*Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}

	parsed := &SlotList{}
	for _, s := range slots {
		if s == nil {
			return fmt.Errorf("%w: null slot", ErrSlot)
		}
		if err := parsed.Add(s); err != nil {
			return fmt.Errorf("%w: %w", ErrSlot, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots = parsed.slots
	return nil
}

func (l *SlotList) indexOf(id uuid.UUID) int {
	for i, s := range l.slots {
		if s.ID == id {
			return i
		}
	}
	return -1
}
