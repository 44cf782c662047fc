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
	"fmt"
	"testing"

	"github.com/panoptisDev/strata/go/strata"
	"github.com/stretchr/testify/require"
	"pgregory.net/rand"
)

// world is a fully materialized state the diffs are applied to.
type world struct {
	ledger   map[strata.Address]*LedgerEntry
	pool     map[strata.MessageID]*strata.AsyncMessage
	rolls    map[strata.Address]uint64
	stats    map[CycleAddress]ProductionStats
	credits  map[strata.Slot]map[strata.Address]strata.Amount
	executed map[strata.OperationID]ExecutedOp
	denounce map[strata.DenunciationIndex]struct{}
}

func newWorld() *world {
	return &world{
		ledger:   map[strata.Address]*LedgerEntry{},
		pool:     map[strata.MessageID]*strata.AsyncMessage{},
		rolls:    map[strata.Address]uint64{},
		stats:    map[CycleAddress]ProductionStats{},
		credits:  map[strata.Slot]map[strata.Address]strata.Amount{},
		executed: map[strata.OperationID]ExecutedOp{},
		denounce: map[strata.DenunciationIndex]struct{}{},
	}
}

func (w *world) apply(changes StateChanges) {
	for address, change := range changes.Ledger {
		if entry := change.ApplyTo(w.ledger[address]); entry != nil {
			w.ledger[address] = entry
		} else {
			delete(w.ledger, address)
		}
	}
	for id, change := range changes.AsyncPool {
		if message := change.ApplyTo(w.pool[id]); message != nil {
			w.pool[id] = message
		} else {
			delete(w.pool, id)
		}
	}
	for address, rolls := range changes.PoS.Rolls {
		w.rolls[address] = rolls
	}
	for key, stats := range changes.PoS.ProductionStats {
		w.stats[key] = w.stats[key].Add(stats)
	}
	for slot, credits := range changes.PoS.DeferredCredits {
		for address, amount := range credits {
			if amount.IsZero() {
				delete(w.credits[slot], address)
				if len(w.credits[slot]) == 0 {
					delete(w.credits, slot)
				}
				continue
			}
			if w.credits[slot] == nil {
				w.credits[slot] = map[strata.Address]strata.Amount{}
			}
			w.credits[slot][address] = amount
		}
	}
	for id, op := range changes.ExecutedOps {
		w.executed[id] = op
	}
	for index := range changes.ExecutedDenunciations {
		w.denounce[index] = struct{}{}
	}
}

func randomAddress(rnd *rand.Rand) strata.Address {
	return strata.Address{byte(rnd.Intn(4))}
}

func randomKey(rnd *rand.Rand) string {
	return fmt.Sprintf("k%d", rnd.Intn(3))
}

func randomEntryUpdate(rnd *rand.Rand) *LedgerEntryUpdate {
	update := &LedgerEntryUpdate{Datastore: map[string]SetOrDelete{}}
	if rnd.Intn(2) == 0 {
		update.Balance = SetTo(strata.NewAmount(rnd.Uint64n(1000)))
	}
	if rnd.Intn(3) == 0 {
		update.Bytecode = SetTo(strata.Data{byte(rnd.Intn(256))})
	}
	for i := rnd.Intn(3); i > 0; i-- {
		if rnd.Intn(3) == 0 {
			update.Datastore[randomKey(rnd)] = SetOrDelete{Delete: true}
		} else {
			update.Datastore[randomKey(rnd)] = SetOrDelete{Value: []byte{byte(rnd.Intn(256))}}
		}
	}
	return update
}

func randomMessage(rnd *rand.Rand) *strata.AsyncMessage {
	return &strata.AsyncMessage{
		EmissionSlot:  strata.Slot{Period: rnd.Uint64n(2)},
		EmissionIndex: rnd.Uint64n(2),
		Fee:           strata.NewAmount(rnd.Uint64n(2)),
		MaxGas:        100,
		Data:          []byte{byte(rnd.Intn(256))},
		CanBeExecuted: rnd.Intn(2) == 0,
	}
}

func randomChanges(rnd *rand.Rand) StateChanges {
	changes := NewStateChanges()
	for i := rnd.Intn(4); i > 0; i-- {
		address := randomAddress(rnd)
		switch rnd.Intn(3) {
		case 0:
			entry := &LedgerEntry{Balance: strata.NewAmount(rnd.Uint64n(1000)), Datastore: map[string][]byte{}}
			for j := rnd.Intn(3); j > 0; j-- {
				entry.Datastore[randomKey(rnd)] = []byte{byte(rnd.Intn(256))}
			}
			changes.Ledger.CreateEntry(address, entry)
		case 1:
			changes.Ledger[address] = LedgerChange{Kind: Update, Update: randomEntryUpdate(rnd)}
		case 2:
			changes.Ledger.DeleteEntry(address)
		}
	}
	for i := rnd.Intn(3); i > 0; i-- {
		message := randomMessage(rnd)
		switch rnd.Intn(3) {
		case 0:
			changes.AsyncPool.PushMessage(message)
		case 1:
			changes.AsyncPool.MarkExecutable(message.ID())
		case 2:
			changes.AsyncPool.RemoveMessage(message.ID())
		}
	}
	for i := rnd.Intn(3); i > 0; i-- {
		address := randomAddress(rnd)
		switch rnd.Intn(3) {
		case 0:
			changes.PoS.Rolls[address] = rnd.Uint64n(10)
		case 1:
			key := CycleAddress{Cycle: rnd.Uint64n(2), Address: address}
			changes.PoS.ProductionStats[key] = ProductionStats{Success: rnd.Uint64n(3), Failure: rnd.Uint64n(3)}
		case 2:
			changes.PoS.DeferredCredits.Insert(strata.Slot{Period: rnd.Uint64n(3)}, address, strata.NewAmount(rnd.Uint64n(3)))
		}
	}
	if rnd.Intn(2) == 0 {
		changes.ExecutedOps[strata.OperationID{byte(rnd.Intn(4))}] = ExecutedOp{Expiry: strata.Slot{Period: rnd.Uint64n(5)}, Success: rnd.Intn(2) == 0}
	}
	if rnd.Intn(2) == 0 {
		changes.ExecutedDenunciations[strata.DenunciationIndex{Index: uint32(rnd.Intn(4))}] = struct{}{}
	}
	return changes
}

func TestStateChanges_ComposedDiffEqualsSequentialApplication(t *testing.T) {
	rnd := rand.New(42)
	for round := 0; round < 500; round++ {
		diffs := make([]StateChanges, 1+rnd.Intn(6))
		for i := range diffs {
			diffs[i] = randomChanges(rnd)
		}

		sequential := newWorld()
		for _, diff := range diffs {
			sequential.apply(diff)
		}

		folded := newWorld()
		folded.apply(Compose(diffs...))

		require.Equal(t, sequential, folded, "round %d", round)
	}
}

func TestStateChanges_CompositionIsAssociative(t *testing.T) {
	rnd := rand.New(7)
	for round := 0; round < 300; round++ {
		a, b, c := randomChanges(rnd), randomChanges(rnd), randomChanges(rnd)

		left := Compose(Compose(a, b), c)
		right := Compose(a, Compose(b, c))

		leftWorld, rightWorld := newWorld(), newWorld()
		leftWorld.apply(left)
		rightWorld.apply(right)
		require.Equal(t, leftWorld, rightWorld, "round %d", round)
	}
}

func TestStateChanges_ComposeDoesNotAliasInputs(t *testing.T) {
	address := strata.Address{1}
	first := NewStateChanges()
	first.Ledger.CreateEntry(address, &LedgerEntry{Balance: strata.NewAmount(1), Datastore: map[string][]byte{}})
	second := NewStateChanges()
	second.Ledger.SetBalance(address, strata.NewAmount(2))

	composed := Compose(first, second)
	require.Equal(t, present(strata.NewAmount(2)), composed.Ledger.Balance(address))
	require.Equal(t, present(strata.NewAmount(1)), first.Ledger.Balance(address))
}

func TestStateChanges_IsEmpty(t *testing.T) {
	changes := NewStateChanges()
	require.True(t, changes.IsEmpty())
	changes.ExecutedOps[strata.OperationID{1}] = ExecutedOp{}
	require.False(t, changes.IsEmpty())
}
