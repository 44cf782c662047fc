// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package history

import (
	"fmt"

	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// ActiveHistory is the ordered sequence of outputs of executed slots not
// yet committed to the final state. Entries are contiguous: the first one
// directly follows the base, the last final slot, and each further entry
// directly follows its predecessor.
//
// Reads fold the diffs of the entries lazily from the newest to the oldest
// one, so their cost grows with the length of the history.
type ActiveHistory struct {
	threadCount uint8
	base        strata.Slot
	outputs     []*state.ExecutionOutput
}

// New creates an empty history on top of the given final slot.
func New(base strata.Slot, threadCount uint8) *ActiveHistory {
	return &ActiveHistory{threadCount: threadCount, base: base}
}

// Base returns the final slot the history is layered on.
func (h *ActiveHistory) Base() strata.Slot {
	return h.base
}

func (h *ActiveHistory) Len() int {
	return len(h.outputs)
}

// Outputs returns the entries from the oldest to the newest. The returned
// slice must not be modified.
func (h *ActiveHistory) Outputs() []*state.ExecutionOutput {
	return h.outputs
}

// LastSlot returns the slot of the newest entry, or the base if empty.
func (h *ActiveHistory) LastSlot() strata.Slot {
	if len(h.outputs) == 0 {
		return h.base
	}
	return h.outputs[len(h.outputs)-1].Slot
}

// Front returns the oldest entry.
func (h *ActiveHistory) Front() (*state.ExecutionOutput, bool) {
	if len(h.outputs) == 0 {
		return nil, false
	}
	return h.outputs[0], true
}

// Append adds the output of the slot following the newest entry.
func (h *ActiveHistory) Append(output *state.ExecutionOutput) error {
	expected, err := h.LastSlot().Next(h.threadCount)
	if err != nil {
		return err
	}
	if output.Slot != expected {
		return fmt.Errorf("cannot append slot %v, expected %v: %w", output.Slot, expected, strata.ErrHistoryGap)
	}
	h.outputs = append(h.outputs, output)
	return nil
}

// TruncateFrom removes all entries at or after slot and returns them.
func (h *ActiveHistory) TruncateFrom(slot strata.Slot) []*state.ExecutionOutput {
	for i, output := range h.outputs {
		if !output.Slot.Less(slot) {
			removed := h.outputs[i:]
			h.outputs = h.outputs[:i:i]
			return removed
		}
	}
	return nil
}

// PopFront removes the oldest entry after it got committed to the final
// state, making its slot the new base.
func (h *ActiveHistory) PopFront() (*state.ExecutionOutput, error) {
	if len(h.outputs) == 0 {
		return nil, fmt.Errorf("history is empty")
	}
	front := h.outputs[0]
	h.outputs = h.outputs[1:]
	h.base = front.Slot
	return front, nil
}

// AdvanceBase moves the base of an empty history to the following slot,
// after that slot was committed without becoming a history entry first.
func (h *ActiveHistory) AdvanceBase(slot strata.Slot) error {
	if len(h.outputs) != 0 {
		return fmt.Errorf("cannot advance base of non-empty history: %w", strata.ErrHistoryGap)
	}
	expected, err := h.base.Next(h.threadCount)
	if err != nil {
		return err
	}
	if slot != expected {
		return fmt.Errorf("cannot advance base to %v, expected %v: %w", slot, expected, strata.ErrHistoryGap)
	}
	h.base = slot
	return nil
}

// Empty returns a view without entries, reading only final state.
func (h *ActiveHistory) Empty() *ActiveHistory {
	return &ActiveHistory{threadCount: h.threadCount, base: h.base}
}

func fetch[T any](h *ActiveHistory, lookup func(*state.StateChanges) state.Lookup[T]) state.Lookup[T] {
	for i := len(h.outputs) - 1; i >= 0; i-- {
		if res := lookup(&h.outputs[i].Changes); res.Resolved() {
			return res
		}
	}
	return state.Lookup[T]{}
}

func (h *ActiveHistory) FetchBalance(address strata.Address) state.Lookup[strata.Amount] {
	return fetch(h, func(c *state.StateChanges) state.Lookup[strata.Amount] {
		return c.Ledger.Balance(address)
	})
}

func (h *ActiveHistory) FetchBytecode(address strata.Address) state.Lookup[strata.Data] {
	return fetch(h, func(c *state.StateChanges) state.Lookup[strata.Data] {
		return c.Ledger.Bytecode(address)
	})
}

func (h *ActiveHistory) FetchDatastoreValue(address strata.Address, key []byte) state.Lookup[[]byte] {
	return fetch(h, func(c *state.StateChanges) state.Lookup[[]byte] {
		return c.Ledger.DatastoreValue(address, key)
	})
}

func (h *ActiveHistory) FetchEntryExists(address strata.Address) state.Lookup[bool] {
	return fetch(h, func(c *state.StateChanges) state.Lookup[bool] {
		return c.Ledger.EntryExists(address)
	})
}

func (h *ActiveHistory) FetchRollCount(address strata.Address) state.Lookup[uint64] {
	return fetch(h, func(c *state.StateChanges) state.Lookup[uint64] {
		return c.PoS.RollCount(address)
	})
}

func (h *ActiveHistory) FetchDeferredCredit(slot strata.Slot, address strata.Address) state.Lookup[strata.Amount] {
	return fetch(h, func(c *state.StateChanges) state.Lookup[strata.Amount] {
		return c.PoS.DeferredCredits.Get(slot, address)
	})
}

// ApplyToDatastoreKeys updates a set of datastore keys read from the final
// state with the changes of all entries.
func (h *ActiveHistory) ApplyToDatastoreKeys(address strata.Address, keys map[string]struct{}) map[string]struct{} {
	for _, output := range h.outputs {
		keys = output.Changes.Ledger.ApplyToDatastoreKeys(address, keys)
	}
	return keys
}

// ApplyToAsyncPool updates a pool read from the final state with the
// changes of all entries.
func (h *ActiveHistory) ApplyToAsyncPool(pool map[strata.MessageID]*strata.AsyncMessage) {
	for _, output := range h.outputs {
		for id, change := range output.Changes.AsyncPool {
			if message := change.ApplyTo(pool[id]); message != nil {
				pool[id] = message
			} else {
				delete(pool, id)
			}
		}
	}
}

// ApplyToProductionStats adds the statistics of all entries for the given
// cycle to stats read from the final state.
func (h *ActiveHistory) ApplyToProductionStats(cycle uint64, stats map[strata.Address]state.ProductionStats) {
	for _, output := range h.outputs {
		for key, delta := range output.Changes.PoS.ProductionStats {
			if key.Cycle == cycle {
				stats[key.Address] = stats[key.Address].Add(delta)
			}
		}
	}
}

// ApplyToDeferredCredits overwrites credits read from the final state in
// the slot range [from, to] with those of all entries. Removed credits are
// kept as zero amounts.
func (h *ActiveHistory) ApplyToDeferredCredits(from, to strata.Slot, credits state.DeferredCredits) {
	for _, output := range h.outputs {
		for slot, changes := range output.Changes.PoS.DeferredCredits {
			if slot.Less(from) || to.Less(slot) {
				continue
			}
			for address, amount := range changes {
				credits.Insert(slot, address, amount)
			}
		}
	}
}

// ExecutedOp returns the newest execution record of an operation.
func (h *ActiveHistory) ExecutedOp(id strata.OperationID) (state.ExecutedOp, bool) {
	for i := len(h.outputs) - 1; i >= 0; i-- {
		if op, found := h.outputs[i].Changes.ExecutedOps[id]; found {
			return op, true
		}
	}
	return state.ExecutedOp{}, false
}

func (h *ActiveHistory) IsDenunciationExecuted(index strata.DenunciationIndex) bool {
	for i := len(h.outputs) - 1; i >= 0; i-- {
		if _, found := h.outputs[i].Changes.ExecutedDenunciations[index]; found {
			return true
		}
	}
	return false
}

// Events returns the events of all entries matching the filter.
func (h *ActiveHistory) Events(filter *strata.EventFilter) []strata.Event {
	res := []strata.Event{}
	for _, output := range h.outputs {
		for i := range output.Events {
			if filter.Matches(&output.Events[i]) {
				res = append(res, output.Events[i])
			}
		}
	}
	return res
}
