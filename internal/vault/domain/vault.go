// Package domain defines the vault document, its entries and groups, and the
// vault file that carries the encrypted document together with its slots.
package domain

import (
	"encoding/json"
	"fmt"
)

// Version is the vault document format version.
const Version = 2

// Vault holds the OTP entries and groups of one vault.
type Vault struct {
	Entries *UUIDMap[*Entry]
	Groups  *UUIDMap[*Group]
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		Entries: NewUUIDMap[*Entry](),
		Groups:  NewUUIDMap[*Group](),
	}
}

// FindGroupByName returns the first group named name.
func (v *Vault) FindGroupByName(name string) (*Group, bool) {
	for _, g := range v.Groups.Values() {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Wipe overwrites every entry secret and empties the vault.
func (v *Vault) Wipe() {
	for _, e := range v.Entries.Values() {
		e.Wipe()
	}
	v.Entries = NewUUIDMap[*Entry]()
	v.Groups = NewUUIDMap[*Group]()
}

type vaultJSON struct {
	Version *int              `json:"version"`
	Entries []json.RawMessage `json:"entries"`
	Groups  []json.RawMessage `json:"groups"`
}

// ToJSON encodes the vault as a version 2 document.
func (v *Vault) ToJSON() ([]byte, error) {
	out := struct {
		Version int      `json:"version"`
		Entries []*Entry `json:"entries"`
		Groups  []*Group `json:"groups"`
	}{
		Version: Version,
		Entries: v.Entries.Values(),
		Groups:  v.Groups.Values(),
	}
	return json.Marshal(out)
}

// FromJSON decodes a version 2 document.
//
// Entries carrying a legacy free-text group label are linked to the first group
// with that name, creating the group when none exists. Any error leaves nothing
// loaded.
func FromJSON(data []byte) (*Vault, error) {
	var in vaultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVault, err)
	}
	if in.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrVault)
	}
	if *in.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *in.Version)
	}
	if in.Entries == nil || in.Groups == nil {
		return nil, fmt.Errorf("%w: entries and groups are required", ErrVault)
	}

	v := NewVault()
	for _, raw := range in.Entries {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			v.Wipe()
			return nil, err
		}
		if err := v.Entries.Add(&e); err != nil {
			e.Wipe()
			v.Wipe()
			return nil, fmt.Errorf("%w: %w", ErrVault, err)
		}
	}
	for _, raw := range in.Groups {
		var g Group
		if err := json.Unmarshal(raw, &g); err != nil {
			v.Wipe()
			return nil, fmt.Errorf("%w: group: %v", ErrVault, err)
		}
		if err := v.Groups.Add(&g); err != nil {
			v.Wipe()
			return nil, fmt.Errorf("%w: %w", ErrVault, err)
		}
	}

	v.migrateLegacyGroups()
	return v, nil
}

func (v *Vault) migrateLegacyGroups() {
	for _, e := range v.Entries.Values() {
		label, ok := e.LegacyGroup()
		if !ok {
			continue
		}

		group, ok := v.FindGroupByName(label)
		if !ok {
			group = NewGroup(label)
			// a fresh uuid cannot collide
			_ = v.Groups.Add(group)
		}
		e.AddGroup(group.ID)
		e.legacyGroup = nil
	}
}
