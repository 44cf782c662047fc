// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/slices"
)

// LedgerEntry is the full content of an address in the ledger.
type LedgerEntry struct {
	Balance   strata.Amount
	Bytecode  strata.Data
	Datastore map[string][]byte
}

// Clone returns a deep copy of the entry.
func (e *LedgerEntry) Clone() *LedgerEntry {
	res := &LedgerEntry{
		Balance:   e.Balance,
		Bytecode:  slices.Clone(e.Bytecode),
		Datastore: make(map[string][]byte, len(e.Datastore)),
	}
	for key, value := range e.Datastore {
		res.Datastore[key] = slices.Clone(value)
	}
	return res
}

// LedgerEntryUpdate lists the field changes of an existing entry.
type LedgerEntryUpdate struct {
	Balance   SetOrKeep[strata.Amount]
	Bytecode  SetOrKeep[strata.Data]
	Datastore map[string]SetOrDelete
}

func (u *LedgerEntryUpdate) Clone() *LedgerEntryUpdate {
	res := &LedgerEntryUpdate{
		Balance:   u.Balance,
		Bytecode:  SetOrKeep[strata.Data]{Set: u.Bytecode.Set, Value: slices.Clone(u.Bytecode.Value)},
		Datastore: make(map[string]SetOrDelete, len(u.Datastore)),
	}
	for key, change := range u.Datastore {
		res.Datastore[key] = SetOrDelete{Delete: change.Delete, Value: slices.Clone(change.Value)}
	}
	return res
}

// Apply composes a later update onto u.
func (u *LedgerEntryUpdate) Apply(later *LedgerEntryUpdate) {
	u.Balance.Apply(later.Balance)
	u.Bytecode.Apply(later.Bytecode)
	if u.Datastore == nil {
		u.Datastore = map[string]SetOrDelete{}
	}
	for key, change := range later.Datastore {
		u.Datastore[key] = change
	}
}

// ApplyTo updates the given entry in place.
func (u *LedgerEntryUpdate) ApplyTo(entry *LedgerEntry) {
	entry.Balance = u.Balance.ApplyTo(entry.Balance)
	entry.Bytecode = u.Bytecode.ApplyTo(entry.Bytecode)
	if entry.Datastore == nil {
		entry.Datastore = map[string][]byte{}
	}
	for key, change := range u.Datastore {
		if change.Delete {
			delete(entry.Datastore, key)
		} else {
			entry.Datastore[key] = change.Value
		}
	}
}

// ChangeKind classifies the change of a keyed item in a diff.
type ChangeKind uint8

const (
	// Set replaces the item entirely, creating it if missing.
	Set ChangeKind = iota
	// Update modifies fields of the item. Applied to a missing ledger entry
	// it creates a default entry first.
	Update
	// Delete removes the item.
	Delete
)

// LedgerChange is the change of a single ledger entry.
type LedgerChange struct {
	Kind   ChangeKind
	Entry  *LedgerEntry       // for Set
	Update *LedgerEntryUpdate // for Update
}

func (c LedgerChange) clone() LedgerChange {
	switch c.Kind {
	case Set:
		return LedgerChange{Kind: Set, Entry: c.Entry.Clone()}
	case Update:
		return LedgerChange{Kind: Update, Update: c.Update.Clone()}
	}
	return LedgerChange{Kind: Delete}
}

// ApplyTo returns the entry resulting from the change, nil if the entry
// does not exist afterwards. The given entry is not modified.
func (c LedgerChange) ApplyTo(entry *LedgerEntry) *LedgerEntry {
	switch c.Kind {
	case Set:
		return c.Entry.Clone()
	case Update:
		var res *LedgerEntry
		if entry == nil {
			res = &LedgerEntry{Datastore: map[string][]byte{}}
		} else {
			res = entry.Clone()
		}
		c.Update.ApplyTo(res)
		return res
	}
	return nil
}

// LedgerChanges maps addresses to their entry changes.
type LedgerChanges map[strata.Address]LedgerChange

func (c LedgerChanges) Clone() LedgerChanges {
	res := make(LedgerChanges, len(c))
	for address, change := range c {
		res[address] = change.clone()
	}
	return res
}

// Apply composes the later changes onto c, such that applying c afterwards
// is equivalent to applying the old c followed by later.
func (c LedgerChanges) Apply(later LedgerChanges) {
	for address, change := range later {
		c.applyChange(address, change.clone())
	}
}

func (c LedgerChanges) applyChange(address strata.Address, change LedgerChange) {
	current, found := c[address]
	if !found || change.Kind != Update {
		c[address] = change
		return
	}
	switch current.Kind {
	case Set:
		change.Update.ApplyTo(current.Entry)
	case Update:
		current.Update.Apply(change.Update)
	case Delete:
		entry := &LedgerEntry{Datastore: map[string][]byte{}}
		change.Update.ApplyTo(entry)
		c[address] = LedgerChange{Kind: Set, Entry: entry}
	}
}

// Balance looks up the balance of an address in the changes.
func (c LedgerChanges) Balance(address strata.Address) Lookup[strata.Amount] {
	change, found := c[address]
	if !found {
		return noInfo[strata.Amount]()
	}
	switch change.Kind {
	case Set:
		return present(change.Entry.Balance)
	case Update:
		if change.Update.Balance.Set {
			return present(change.Update.Balance.Value)
		}
		return noInfo[strata.Amount]()
	}
	return absent[strata.Amount]()
}

// Bytecode looks up the bytecode of an address in the changes.
func (c LedgerChanges) Bytecode(address strata.Address) Lookup[strata.Data] {
	change, found := c[address]
	if !found {
		return noInfo[strata.Data]()
	}
	switch change.Kind {
	case Set:
		return present(change.Entry.Bytecode)
	case Update:
		if change.Update.Bytecode.Set {
			return present(change.Update.Bytecode.Value)
		}
		return noInfo[strata.Data]()
	}
	return absent[strata.Data]()
}

// DatastoreValue looks up a datastore entry of an address in the changes.
func (c LedgerChanges) DatastoreValue(address strata.Address, key []byte) Lookup[[]byte] {
	change, found := c[address]
	if !found {
		return noInfo[[]byte]()
	}
	switch change.Kind {
	case Set:
		if value, found := change.Entry.Datastore[string(key)]; found {
			return present(value)
		}
		return absent[[]byte]()
	case Update:
		update, found := change.Update.Datastore[string(key)]
		if !found {
			return noInfo[[]byte]()
		}
		if update.Delete {
			return absent[[]byte]()
		}
		return present(update.Value)
	}
	return absent[[]byte]()
}

// EntryExists looks up whether the address has a ledger entry after the changes.
func (c LedgerChanges) EntryExists(address strata.Address) Lookup[bool] {
	change, found := c[address]
	if !found {
		return noInfo[bool]()
	}
	if change.Kind == Delete {
		return absent[bool]()
	}
	return present(true)
}

// ApplyToDatastoreKeys updates a set of datastore keys of an address to
// reflect the changes.
func (c LedgerChanges) ApplyToDatastoreKeys(address strata.Address, keys map[string]struct{}) map[string]struct{} {
	change, found := c[address]
	if !found {
		return keys
	}
	switch change.Kind {
	case Set:
		keys = make(map[string]struct{}, len(change.Entry.Datastore))
		for key := range change.Entry.Datastore {
			keys[key] = struct{}{}
		}
	case Update:
		for key, update := range change.Update.Datastore {
			if update.Delete {
				delete(keys, key)
			} else {
				keys[key] = struct{}{}
			}
		}
	case Delete:
		keys = map[string]struct{}{}
	}
	return keys
}

// TouchesDatastoreKey reports whether the changes modify the given
// datastore entry, including by creating or deleting the whole entry.
func (c LedgerChanges) TouchesDatastoreKey(address strata.Address, key []byte) bool {
	change, found := c[address]
	if !found {
		return false
	}
	switch change.Kind {
	case Set:
		_, found := change.Entry.Datastore[string(key)]
		return found
	case Update:
		_, found := change.Update.Datastore[string(key)]
		return found
	}
	return true
}

// SetBalance records a new balance of an address.
func (c LedgerChanges) SetBalance(address strata.Address, balance strata.Amount) {
	c.applyChange(address, LedgerChange{Kind: Update, Update: &LedgerEntryUpdate{Balance: SetTo(balance)}})
}

// SetBytecode records new bytecode of an address.
func (c LedgerChanges) SetBytecode(address strata.Address, bytecode strata.Data) {
	c.applyChange(address, LedgerChange{Kind: Update, Update: &LedgerEntryUpdate{Bytecode: SetTo(bytecode)}})
}

// SetDatastoreValue records a new value of a datastore entry.
func (c LedgerChanges) SetDatastoreValue(address strata.Address, key, value []byte) {
	c.applyChange(address, LedgerChange{Kind: Update, Update: &LedgerEntryUpdate{
		Datastore: map[string]SetOrDelete{string(key): {Value: slices.Clone(value)}},
	}})
}

// DeleteDatastoreValue records the removal of a datastore entry.
func (c LedgerChanges) DeleteDatastoreValue(address strata.Address, key []byte) {
	c.applyChange(address, LedgerChange{Kind: Update, Update: &LedgerEntryUpdate{
		Datastore: map[string]SetOrDelete{string(key): {Delete: true}},
	}})
}

// CreateEntry records the creation of a new entry.
func (c LedgerChanges) CreateEntry(address strata.Address, entry *LedgerEntry) {
	c[address] = LedgerChange{Kind: Set, Entry: entry}
}

// DeleteEntry records the removal of an entry.
func (c LedgerChanges) DeleteEntry(address strata.Address) {
	c[address] = LedgerChange{Kind: Delete}
}
