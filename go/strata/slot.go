// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package strata

import (
	"fmt"
	"math"
)

// Slot identifies one deterministic execution unit. Slots are totally
// ordered by period first and thread second.
type Slot struct {
	Period uint64
	Thread uint8
}

func NewSlot(period uint64, thread uint8) Slot {
	return Slot{Period: period, Thread: thread}
}

// Compare returns -1, 0 or 1 if s is before, equal to or after other.
func (s Slot) Compare(other Slot) int {
	switch {
	case s.Period < other.Period:
		return -1
	case s.Period > other.Period:
		return 1
	case s.Thread < other.Thread:
		return -1
	case s.Thread > other.Thread:
		return 1
	}
	return 0
}

func (s Slot) Less(other Slot) bool {
	return s.Compare(other) < 0
}

// Next returns the slot following s for a chain with the given number of threads.
func (s Slot) Next(threadCount uint8) (Slot, error) {
	if s.Thread+1 < threadCount {
		return Slot{Period: s.Period, Thread: s.Thread + 1}, nil
	}
	if s.Period == math.MaxUint64 {
		return Slot{}, fmt.Errorf("slot %v has no successor", s)
	}
	return Slot{Period: s.Period + 1, Thread: 0}, nil
}

// Prev returns the slot preceding s, false if s is the first slot.
func (s Slot) Prev(threadCount uint8) (Slot, bool) {
	if s.Thread > 0 {
		return Slot{Period: s.Period, Thread: s.Thread - 1}, true
	}
	if s.Period == 0 {
		return Slot{}, false
	}
	return Slot{Period: s.Period - 1, Thread: threadCount - 1}, true
}

// Cycle returns the proof-of-stake cycle containing s.
func (s Slot) Cycle(periodsPerCycle uint64) uint64 {
	return s.Period / periodsPerCycle
}

// IsLastOfCycle reports whether s is the final slot of its cycle.
func (s Slot) IsLastOfCycle(periodsPerCycle uint64, threadCount uint8) bool {
	return s.Period%periodsPerCycle == periodsPerCycle-1 && s.Thread == threadCount-1
}

// LastOfCycle returns the final slot of the given cycle.
func LastOfCycle(cycle, periodsPerCycle uint64, threadCount uint8) Slot {
	return Slot{Period: (cycle+1)*periodsPerCycle - 1, Thread: threadCount - 1}
}

func (s Slot) String() string {
	return fmt.Sprintf("(%d,%d)", s.Period, s.Thread)
}
