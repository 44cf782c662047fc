// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package execution

import (
	"bytes"
	"fmt"

	"github.com/panoptisDev/strata/go/history"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// resolve reads a value from the local changes of an overlay, falling back
// to the active history and finally to the final state.
func resolve[T any](local state.Lookup[T], fromHistory func() state.Lookup[T], fromFinal func() (T, bool)) (T, bool) {
	if !local.Resolved() {
		local = fromHistory()
	}
	switch local.Kind {
	case state.Present:
		return local.Value, true
	case state.Absent:
		var zero T
		return zero, false
	}
	return fromFinal()
}

// speculativeLedger accumulates ledger changes on top of the active
// history and the final state.
type speculativeLedger struct {
	final   state.FinalState
	history *history.ActiveHistory
	added   state.LedgerChanges

	// entryCost is deducted from transfers creating their recipient.
	entryCost       strata.Amount
	maxKeyLength    int
	maxValueLength  int
	maxBytecodeSize int
}

func newSpeculativeLedger(config *Config, final state.FinalState, history *history.ActiveHistory) *speculativeLedger {
	return &speculativeLedger{
		final:           final,
		history:         history,
		added:           state.LedgerChanges{},
		entryCost:       config.StorageCosts.LedgerEntry,
		maxKeyLength:    config.MaxDatastoreKeyLength,
		maxValueLength:  config.MaxDatastoreValueLength,
		maxBytecodeSize: config.MaxBytecodeSize,
	}
}

func (l *speculativeLedger) Balance(address strata.Address) (strata.Amount, bool) {
	return resolve(l.added.Balance(address),
		func() state.Lookup[strata.Amount] { return l.history.FetchBalance(address) },
		func() (strata.Amount, bool) { return l.final.Balance(address) },
	)
}

func (l *speculativeLedger) Bytecode(address strata.Address) (strata.Data, bool) {
	return resolve(l.added.Bytecode(address),
		func() state.Lookup[strata.Data] { return l.history.FetchBytecode(address) },
		func() (strata.Data, bool) { return l.final.Bytecode(address) },
	)
}

func (l *speculativeLedger) DatastoreValue(address strata.Address, key []byte) ([]byte, bool) {
	return resolve(l.added.DatastoreValue(address, key),
		func() state.Lookup[[]byte] { return l.history.FetchDatastoreValue(address, key) },
		func() ([]byte, bool) { return l.final.DatastoreValue(address, key) },
	)
}

func (l *speculativeLedger) EntryExists(address strata.Address) bool {
	exists, _ := resolve(l.added.EntryExists(address),
		func() state.Lookup[bool] { return l.history.FetchEntryExists(address) },
		func() (bool, bool) {
			exists := l.final.EntryExists(address)
			return exists, exists
		},
	)
	return exists
}

// DatastoreKeys returns the sorted datastore keys of an address starting
// with prefix.
func (l *speculativeLedger) DatastoreKeys(address strata.Address, prefix []byte) [][]byte {
	if !l.EntryExists(address) {
		return nil
	}
	keys := map[string]struct{}{}
	for _, key := range l.final.DatastoreKeys(address, prefix) {
		keys[string(key)] = struct{}{}
	}
	keys = l.history.ApplyToDatastoreKeys(address, keys)
	keys = l.added.ApplyToDatastoreKeys(address, keys)

	res := make([][]byte, 0, len(keys))
	for _, key := range maps.Keys(keys) {
		if bytes.HasPrefix([]byte(key), prefix) {
			res = append(res, []byte(key))
		}
	}
	slices.SortFunc(res, bytes.Compare)
	return res
}

// Transfer moves coins between addresses. A nil sender mints the coins, a
// nil recipient burns them. Missing recipients are created.
func (l *speculativeLedger) Transfer(from, to *strata.Address, amount strata.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if from != nil && to != nil && *from == *to {
		balance, _ := l.Balance(*from)
		_, err := balance.CheckedSub(amount)
		return err
	}

	var fromBalance, toBalance strata.Amount
	if from != nil {
		balance, found := l.Balance(*from)
		if !found {
			return fmt.Errorf("spending from %v: %w", *from, strata.ErrAddressNotFound)
		}
		remaining, err := balance.CheckedSub(amount)
		if err != nil {
			return fmt.Errorf("spending from %v: %w", *from, err)
		}
		fromBalance = remaining
	}
	if to != nil {
		balance, _ := l.Balance(*to)
		sum, err := balance.CheckedAdd(amount)
		if err != nil {
			return fmt.Errorf("crediting %v: %w", *to, err)
		}
		toBalance = sum
	}

	if from != nil {
		l.added.SetBalance(*from, fromBalance)
	}
	if to != nil {
		l.added.SetBalance(*to, toBalance)
	}
	return nil
}

// TransferCoins moves coins from an address to another one. A missing
// recipient pays the storage cost of its new entry out of amount.
func (l *speculativeLedger) TransferCoins(from, to strata.Address, amount strata.Amount) error {
	if amount.IsZero() || from == to || l.EntryExists(to) {
		return l.Transfer(&from, &to, amount)
	}
	balance, found := l.Balance(from)
	if !found {
		return fmt.Errorf("spending from %v: %w", from, strata.ErrAddressNotFound)
	}
	if _, err := balance.CheckedSub(amount); err != nil {
		return fmt.Errorf("spending from %v: %w", from, err)
	}
	credit, err := amount.CheckedSub(l.entryCost)
	if err != nil {
		return fmt.Errorf("creating %v: %w", to, err)
	}
	if err := l.Transfer(&from, nil, l.entryCost); err != nil {
		return err
	}
	if credit.IsZero() {
		l.added.SetBalance(to, credit)
		return nil
	}
	return l.Transfer(&from, &to, credit)
}

// CreateEntry creates a new entry holding bytecode and no coins.
func (l *speculativeLedger) CreateEntry(address strata.Address, bytecode strata.Data) error {
	if l.EntryExists(address) {
		return fmt.Errorf("address %v already exists", address)
	}
	if len(bytecode) > l.maxBytecodeSize {
		return fmt.Errorf("%d bytes: %w", len(bytecode), strata.ErrBytecodeTooLarge)
	}
	l.added.CreateEntry(address, &state.LedgerEntry{
		Bytecode:  slices.Clone(bytecode),
		Datastore: map[string][]byte{},
	})
	return nil
}

func (l *speculativeLedger) SetBytecode(address strata.Address, bytecode strata.Data) error {
	if !l.EntryExists(address) {
		return fmt.Errorf("setting bytecode of %v: %w", address, strata.ErrAddressNotFound)
	}
	if len(bytecode) > l.maxBytecodeSize {
		return fmt.Errorf("%d bytes: %w", len(bytecode), strata.ErrBytecodeTooLarge)
	}
	l.added.SetBytecode(address, slices.Clone(bytecode))
	return nil
}

func (l *speculativeLedger) SetDatastoreValue(address strata.Address, key, value []byte) error {
	if len(key) > l.maxKeyLength {
		return fmt.Errorf("%d bytes: %w", len(key), strata.ErrDatastoreKeyTooLong)
	}
	if len(value) > l.maxValueLength {
		return fmt.Errorf("%d bytes: %w", len(value), strata.ErrDatastoreValueTooLong)
	}
	if !l.EntryExists(address) {
		return fmt.Errorf("writing datastore of %v: %w", address, strata.ErrAddressNotFound)
	}
	l.added.SetDatastoreValue(address, key, value)
	return nil
}

func (l *speculativeLedger) DeleteDatastoreValue(address strata.Address, key []byte) error {
	if _, found := l.DatastoreValue(address, key); !found {
		return fmt.Errorf("deleting key %x of %v: %w", key, address, strata.ErrNotFound)
	}
	l.added.DeleteDatastoreValue(address, key)
	return nil
}

// snapshot returns a copy of the local changes to be restored by reset.
func (l *speculativeLedger) snapshot() state.LedgerChanges {
	return l.added.Clone()
}

// reset restores a snapshot. The snapshot must not be used afterwards.
func (l *speculativeLedger) reset(snapshot state.LedgerChanges) {
	l.added = snapshot
}

// take returns the local changes and starts over with an empty diff.
func (l *speculativeLedger) take() state.LedgerChanges {
	res := l.added
	l.added = state.LedgerChanges{}
	return res
}
