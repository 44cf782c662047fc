// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package finalstate

import (
	"testing"

	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/stretchr/testify/require"
)

const testThreads = 2

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", strata.Slot{Period: 0, Thread: testThreads - 1}, testThreads)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_FinalizeRequiresConsecutiveSlots(t *testing.T) {
	store := newTestStore(t)
	require.Equal(t, strata.Slot{Period: 0, Thread: 1}, store.Slot())

	require.Error(t, store.Finalize(strata.Slot{Period: 1, Thread: 1}, state.NewStateChanges()))
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 0}, state.NewStateChanges()))
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 1}, state.NewStateChanges()))
	require.Equal(t, strata.Slot{Period: 1, Thread: 1}, store.Slot())
}

func TestStore_LedgerChangesArePersisted(t *testing.T) {
	store := newTestStore(t)
	a, b := strata.Address{1}, strata.Address{2}

	genesis := state.NewStateChanges()
	genesis.Ledger.CreateEntry(a, &state.LedgerEntry{
		Balance:   strata.NewAmount(100),
		Bytecode:  strata.Data{0xAA},
		Datastore: map[string][]byte{"x": {1}, "y": {2}},
	})
	require.NoError(t, store.InitGenesis(genesis))

	balance, found := store.Balance(a)
	require.True(t, found)
	require.Equal(t, strata.NewAmount(100), balance)
	require.Equal(t, [][]byte{[]byte("x"), []byte("y")}, store.DatastoreKeys(a, nil))

	changes := state.NewStateChanges()
	changes.Ledger.SetBalance(a, strata.NewAmount(95))
	changes.Ledger.DeleteDatastoreValue(a, []byte("x"))
	changes.Ledger.SetBalance(b, strata.NewAmount(5))
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 0}, changes))

	balance, _ = store.Balance(a)
	require.Equal(t, strata.NewAmount(95), balance)
	bytecode, _ := store.Bytecode(a)
	require.Equal(t, strata.Data{0xAA}, bytecode)
	_, found = store.DatastoreValue(a, []byte("x"))
	require.False(t, found)
	value, found := store.DatastoreValue(a, []byte("y"))
	require.True(t, found)
	require.Equal(t, []byte{2}, value)

	require.True(t, store.EntryExists(b))
	balance, _ = store.Balance(b)
	require.Equal(t, strata.NewAmount(5), balance)

	deletion := state.NewStateChanges()
	deletion.Ledger.DeleteEntry(a)
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 1}, deletion))
	require.False(t, store.EntryExists(a))
	require.Empty(t, store.DatastoreKeys(a, nil))
}

func TestStore_DatastoreKeysFilterByPrefix(t *testing.T) {
	store := newTestStore(t)
	a := strata.Address{1}
	genesis := state.NewStateChanges()
	genesis.Ledger.CreateEntry(a, &state.LedgerEntry{Datastore: map[string][]byte{"ab": {1}, "ac": {1}, "b": {1}}})
	require.NoError(t, store.InitGenesis(genesis))

	require.Equal(t, [][]byte{[]byte("ab"), []byte("ac")}, store.DatastoreKeys(a, []byte("a")))
}

func TestStore_AsyncPoolChanges(t *testing.T) {
	store := newTestStore(t)
	message := &strata.AsyncMessage{
		EmissionSlot: strata.Slot{Period: 1, Thread: 0},
		Sender:       strata.Address{1},
		Destination:  strata.Address{2},
		Function:     "run",
		MaxGas:       1000,
		Fee:          strata.NewAmount(3),
		Data:         []byte{1, 2},
		ValidityEnd:  strata.Slot{Period: 9, Thread: 0},
		Trigger:      &strata.MessageTrigger{Address: strata.Address{2}, DatastoreKey: []byte("k")},
	}

	changes := state.NewStateChanges()
	changes.AsyncPool.PushMessage(message)
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 0}, changes))
	require.Equal(t, []*strata.AsyncMessage{message}, store.AsyncMessages())

	changes = state.NewStateChanges()
	changes.AsyncPool.MarkExecutable(message.ID())
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 1}, changes))
	messages := store.AsyncMessages()
	require.Len(t, messages, 1)
	require.True(t, messages[0].CanBeExecuted)

	changes = state.NewStateChanges()
	changes.AsyncPool.RemoveMessage(message.ID())
	require.NoError(t, store.Finalize(strata.Slot{Period: 2, Thread: 0}, changes))
	require.Empty(t, store.AsyncMessages())
}

func TestStore_PoSChanges(t *testing.T) {
	store := newTestStore(t)
	a := strata.Address{1}

	changes := state.NewStateChanges()
	changes.PoS.Rolls[a] = 4
	changes.PoS.ProductionStats[state.CycleAddress{Cycle: 0, Address: a}] = state.ProductionStats{Success: 1}
	changes.PoS.DeferredCredits.Insert(strata.Slot{Period: 5, Thread: 1}, a, strata.NewAmount(7))
	changes.PoS.DeferredCredits.Insert(strata.Slot{Period: 8, Thread: 0}, a, strata.NewAmount(9))
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 0}, changes))

	changes = state.NewStateChanges()
	changes.PoS.ProductionStats[state.CycleAddress{Cycle: 0, Address: a}] = state.ProductionStats{Failure: 2}
	changes.PoS.DeferredCredits.Insert(strata.Slot{Period: 8, Thread: 0}, a, strata.Amount{})
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 1}, changes))

	require.Equal(t, uint64(4), store.RollCount(a))
	require.Equal(t, map[strata.Address]state.ProductionStats{a: {Success: 1, Failure: 2}}, store.ProductionStats(0))
	require.Empty(t, store.ProductionStats(1))

	credits := store.DeferredCredits(strata.Slot{Period: 0, Thread: 0}, strata.Slot{Period: 9, Thread: 1})
	require.Equal(t, state.DeferredCredits{strata.Slot{Period: 5, Thread: 1}: {a: strata.NewAmount(7)}}, credits)
	require.Empty(t, store.DeferredCredits(strata.Slot{Period: 5, Thread: 0}, strata.Slot{Period: 5, Thread: 0}))
	require.Len(t, store.DeferredCredits(strata.Slot{Period: 5, Thread: 1}, strata.Slot{Period: 5, Thread: 1}), 1)
}

func TestStore_ExecutedOpsArePrunedAfterExpiry(t *testing.T) {
	store := newTestStore(t)
	op := strata.OperationID{1}
	denunciation := strata.DenunciationIndex{Slot: strata.Slot{Period: 1, Thread: 0}, Index: 2}

	changes := state.NewStateChanges()
	changes.ExecutedOps[op] = state.ExecutedOp{Expiry: strata.Slot{Period: 2, Thread: 0}, Success: true}
	changes.ExecutedDenunciations[denunciation] = struct{}{}
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 0}, changes))
	executed, found := store.ExecutedOp(op)
	require.True(t, found)
	require.Equal(t, state.ExecutedOp{Expiry: strata.Slot{Period: 2, Thread: 0}, Success: true}, executed)
	require.True(t, store.IsDenunciationExecuted(denunciation))

	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 1}, state.NewStateChanges()))
	require.NoError(t, store.Finalize(strata.Slot{Period: 2, Thread: 0}, state.NewStateChanges()))
	_, found = store.ExecutedOp(op)
	require.True(t, found)

	require.NoError(t, store.Finalize(strata.Slot{Period: 2, Thread: 1}, state.NewStateChanges()))
	_, found = store.ExecutedOp(op)
	require.False(t, found)
}

func TestStore_ReopenRestoresFinalSlot(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, strata.Slot{Period: 0, Thread: 1}, testThreads)
	require.NoError(t, err)
	require.NoError(t, store.Finalize(strata.Slot{Period: 1, Thread: 0}, state.NewStateChanges()))
	require.NoError(t, store.Close())

	store, err = Open(dir, strata.Slot{Period: 0, Thread: 1}, testThreads)
	require.NoError(t, err)
	defer store.Close()
	require.Equal(t, strata.Slot{Period: 1, Thread: 0}, store.Slot())
}
