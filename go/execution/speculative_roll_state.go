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
	"math"

	"github.com/panoptisDev/strata/go/history"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// lastSlot is the upper bound of open-ended deferred credit ranges.
var lastSlot = strata.Slot{Period: math.MaxUint64, Thread: math.MaxUint8}

// speculativeRollState accumulates proof-of-stake changes: roll counts,
// production statistics and deferred credits.
type speculativeRollState struct {
	final   state.FinalState
	history *history.ActiveHistory
	added   state.PoSChanges
}

func newSpeculativeRollState(final state.FinalState, history *history.ActiveHistory) *speculativeRollState {
	return &speculativeRollState{final: final, history: history, added: state.NewPoSChanges()}
}

func (r *speculativeRollState) RollCount(address strata.Address) uint64 {
	count, _ := resolve(r.added.RollCount(address),
		func() state.Lookup[uint64] { return r.history.FetchRollCount(address) },
		func() (uint64, bool) { return r.final.RollCount(address), true },
	)
	return count
}

func (r *speculativeRollState) addRolls(address strata.Address, count uint64) error {
	current := r.RollCount(address)
	if current+count < current {
		return fmt.Errorf("roll count of %v overflows", address)
	}
	r.added.Rolls[address] = current + count
	return nil
}

func (r *speculativeRollState) removeRolls(address strata.Address, count uint64) error {
	current := r.RollCount(address)
	if current < count {
		return fmt.Errorf("removing %d of %d rolls of %v: %w", count, current, address, strata.ErrInsufficientRolls)
	}
	r.added.Rolls[address] = current - count
	return nil
}

// recordProduction counts a produced or missed slot of a producer.
func (r *speculativeRollState) recordProduction(cycle uint64, producer strata.Address, success bool) {
	key := state.CycleAddress{Cycle: cycle, Address: producer}
	stats := r.added.ProductionStats[key]
	if success {
		stats.Success++
	} else {
		stats.Failure++
	}
	r.added.ProductionStats[key] = stats
}

// ProductionStats returns the statistics of all producers in a cycle.
func (r *speculativeRollState) ProductionStats(cycle uint64) map[strata.Address]state.ProductionStats {
	stats := r.final.ProductionStats(cycle)
	if stats == nil {
		stats = map[strata.Address]state.ProductionStats{}
	}
	r.history.ApplyToProductionStats(cycle, stats)
	for key, delta := range r.added.ProductionStats {
		if key.Cycle == cycle {
			stats[key.Address] = stats[key.Address].Add(delta)
		}
	}
	return stats
}

// DeferredCredits returns the credits in the slot range [from, to],
// without removed ones.
func (r *speculativeRollState) DeferredCredits(from, to strata.Slot) state.DeferredCredits {
	credits := r.final.DeferredCredits(from, to)
	if credits == nil {
		credits = state.DeferredCredits{}
	}
	r.history.ApplyToDeferredCredits(from, to, credits)
	for slot, changes := range r.added.DeferredCredits {
		if slot.Less(from) || to.Less(slot) {
			continue
		}
		for address, amount := range changes {
			credits.Insert(slot, address, amount)
		}
	}
	for slot, changes := range credits {
		for address, amount := range changes {
			if amount.IsZero() {
				delete(changes, address)
			}
		}
		if len(changes) == 0 {
			delete(credits, slot)
		}
	}
	return credits
}

func (r *speculativeRollState) deferredCredit(slot strata.Slot, address strata.Address) strata.Amount {
	amount, _ := resolve(r.added.DeferredCredits.Get(slot, address),
		func() state.Lookup[strata.Amount] { return r.history.FetchDeferredCredit(slot, address) },
		func() (strata.Amount, bool) {
			amount, found := r.final.DeferredCredits(slot, slot)[slot][address]
			return amount, found
		},
	)
	return amount
}

// addDeferredCredit adds coins to be credited to address at slot.
func (r *speculativeRollState) addDeferredCredit(slot strata.Slot, address strata.Address, amount strata.Amount) error {
	sum, err := r.deferredCredit(slot, address).CheckedAdd(amount)
	if err != nil {
		return err
	}
	r.added.DeferredCredits.Insert(slot, address, sum)
	return nil
}

type credit struct {
	address strata.Address
	amount  strata.Amount
}

// takeCredits removes and returns the credits due at slot, ordered by address.
func (r *speculativeRollState) takeCredits(slot strata.Slot) []credit {
	due := r.DeferredCredits(slot, slot)[slot]
	addresses := maps.Keys(due)
	slices.SortFunc(addresses, func(a, b strata.Address) int { return bytes.Compare(a[:], b[:]) })
	res := make([]credit, 0, len(addresses))
	for _, address := range addresses {
		res = append(res, credit{address: address, amount: due[address]})
		r.added.DeferredCredits.Insert(slot, address, strata.Amount{})
	}
	return res
}

// slash removes up to rolls rolls of address. If the address holds fewer
// rolls, the value of the missing ones is taken from its deferred credits
// after slot, earliest first. The slashed amount is returned.
func (r *speculativeRollState) slash(slot strata.Slot, address strata.Address, rolls uint64, rollPrice strata.Amount) (strata.Amount, error) {
	removed := min(rolls, r.RollCount(address))
	if err := r.removeRolls(address, removed); err != nil {
		return strata.Amount{}, err
	}
	slashed, err := rollPrice.Scale(removed)
	if err != nil {
		return strata.Amount{}, err
	}
	missing, err := rollPrice.Scale(rolls - removed)
	if err != nil {
		return strata.Amount{}, err
	}

	credits := r.DeferredCredits(slot, lastSlot)
	slots := maps.Keys(credits)
	slices.SortFunc(slots, strata.Slot.Compare)
	for _, creditSlot := range slots {
		if missing.IsZero() {
			break
		}
		amount, found := credits[creditSlot][address]
		if !found {
			continue
		}
		taken := strata.Min(amount, missing)
		r.added.DeferredCredits.Insert(creditSlot, address, amount.SaturatingSub(taken))
		missing = missing.SaturatingSub(taken)
		if slashed, err = slashed.CheckedAdd(taken); err != nil {
			return strata.Amount{}, err
		}
	}
	return slashed, nil
}

func (r *speculativeRollState) snapshot() state.PoSChanges {
	return r.added.Clone()
}

func (r *speculativeRollState) reset(snapshot state.PoSChanges) {
	r.added = snapshot
}

func (r *speculativeRollState) take() state.PoSChanges {
	res := r.added
	r.added = state.NewPoSChanges()
	return res
}
