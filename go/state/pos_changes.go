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
)

// ProductionStats counts produced and missed slots of a producer in a cycle.
type ProductionStats struct {
	Success uint64
	Failure uint64
}

// Add returns the sum of both statistics.
func (s ProductionStats) Add(other ProductionStats) ProductionStats {
	return ProductionStats{Success: s.Success + other.Success, Failure: s.Failure + other.Failure}
}

// CycleAddress keys per-cycle statistics of a producer.
type CycleAddress struct {
	Cycle   uint64
	Address strata.Address
}

// DeferredCredits maps the slot at which coins are credited to the
// receiving addresses and amounts. A zero amount denotes a removed credit.
type DeferredCredits map[strata.Slot]map[strata.Address]strata.Amount

func (d DeferredCredits) Clone() DeferredCredits {
	res := make(DeferredCredits, len(d))
	for slot, credits := range d {
		inner := make(map[strata.Address]strata.Amount, len(credits))
		for address, amount := range credits {
			inner[address] = amount
		}
		res[slot] = inner
	}
	return res
}

// Get looks up the credit of an address at a slot.
func (d DeferredCredits) Get(slot strata.Slot, address strata.Address) Lookup[strata.Amount] {
	credits, found := d[slot]
	if !found {
		return noInfo[strata.Amount]()
	}
	amount, found := credits[address]
	if !found {
		return noInfo[strata.Amount]()
	}
	if amount.IsZero() {
		return absent[strata.Amount]()
	}
	return present(amount)
}

// Insert sets the credit of an address at a slot, overwriting any previous one.
func (d DeferredCredits) Insert(slot strata.Slot, address strata.Address, amount strata.Amount) {
	credits, found := d[slot]
	if !found {
		credits = map[strata.Address]strata.Amount{}
		d[slot] = credits
	}
	credits[address] = amount
}

// Apply overwrites credits of d with the later ones.
func (d DeferredCredits) Apply(later DeferredCredits) {
	for slot, credits := range later {
		for address, amount := range credits {
			d.Insert(slot, address, amount)
		}
	}
}

// PoSChanges is the diff of the proof-of-stake state. Roll counts and
// deferred credits are overwritten by later diffs while production
// statistics accumulate.
type PoSChanges struct {
	Rolls           map[strata.Address]uint64
	ProductionStats map[CycleAddress]ProductionStats
	DeferredCredits DeferredCredits
}

func NewPoSChanges() PoSChanges {
	return PoSChanges{
		Rolls:           map[strata.Address]uint64{},
		ProductionStats: map[CycleAddress]ProductionStats{},
		DeferredCredits: DeferredCredits{},
	}
}

func (c PoSChanges) Clone() PoSChanges {
	res := PoSChanges{
		Rolls:           make(map[strata.Address]uint64, len(c.Rolls)),
		ProductionStats: make(map[CycleAddress]ProductionStats, len(c.ProductionStats)),
		DeferredCredits: c.DeferredCredits.Clone(),
	}
	for address, rolls := range c.Rolls {
		res.Rolls[address] = rolls
	}
	for key, stats := range c.ProductionStats {
		res.ProductionStats[key] = stats
	}
	return res
}

// Apply composes the later changes onto c.
func (c *PoSChanges) Apply(later PoSChanges) {
	if c.Rolls == nil {
		*c = NewPoSChanges()
	}
	for address, rolls := range later.Rolls {
		c.Rolls[address] = rolls
	}
	for key, stats := range later.ProductionStats {
		c.ProductionStats[key] = c.ProductionStats[key].Add(stats)
	}
	c.DeferredCredits.Apply(later.DeferredCredits)
}

// RollCount looks up the roll count of an address in the changes.
func (c PoSChanges) RollCount(address strata.Address) Lookup[uint64] {
	rolls, found := c.Rolls[address]
	if !found {
		return noInfo[uint64]()
	}
	return present(rolls)
}

// IsEmpty reports whether the changes contain nothing.
func (c PoSChanges) IsEmpty() bool {
	return len(c.Rolls) == 0 && len(c.ProductionStats) == 0 && len(c.DeferredCredits) == 0
}
