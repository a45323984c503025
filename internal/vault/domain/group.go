package domain

import (
	"github.com/google/uuid"
)

// Group is a named collection that entries can be linked to.
type Group struct {
	ID   uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// NewGroup creates a group with a fresh uuid.
func NewGroup(name string) *Group {
	return &Group{ID: uuid.New(), Name: name}
}

// UUID returns the group's identifier.
func (g *Group) UUID() uuid.UUID {
	return g.ID
}
